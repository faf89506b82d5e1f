package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID           uuid.UUID
	ActivePracticeID *uuid.UUID
	Role             enums.MemberRole
	JTI              string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID           uuid.UUID        `json:"user_id"`
	ActivePracticeID *uuid.UUID       `json:"active_practice_id,omitempty"`
	Role             enums.MemberRole `json:"role"`
	jwt.RegisteredClaims
}
