package auth

import (
	"github.com/google/uuid"

	"github.com/orthodeskhq/orthodesk-backend/internal/users"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// PracticeSummary describes the practice metadata returned after login.
type PracticeSummary struct {
	ID   uuid.UUID        `json:"id"`
	Name string           `json:"name"`
	Role enums.MemberRole `json:"role"`
}

// LoginResponse contains the tokens, user, and practice list produced by a
// successful login.
type LoginResponse struct {
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
	Practices    []PracticeSummary `json:"practices"`
	User         *users.UserDTO    `json:"user"`
}
