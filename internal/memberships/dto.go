package memberships

import (
	"time"

	"github.com/google/uuid"

	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
)

// MembershipDTO is the transport shape for a raw membership record.
type MembershipDTO struct {
	ID         uuid.UUID              `json:"id"`
	PracticeID uuid.UUID              `json:"practice_id"`
	UserID     uuid.UUID              `json:"user_id"`
	Role       enums.MemberRole       `json:"role"`
	Status     enums.MembershipStatus `json:"status"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// MembershipWithPractice includes basic practice metadata + membership info.
type MembershipWithPractice struct {
	MembershipID uuid.UUID              `json:"membership_id"`
	PracticeID   uuid.UUID              `json:"practice_id"`
	UserID       uuid.UUID              `json:"user_id"`
	PracticeName string                 `json:"practice_name"`
	Role         enums.MemberRole       `json:"role"`
	Status       enums.MembershipStatus `json:"status"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// PracticeUserDTO mixes membership metadata with the user profile for
// practice admins.
type PracticeUserDTO struct {
	MembershipID uuid.UUID              `json:"membership_id"`
	PracticeID   uuid.UUID              `json:"practice_id"`
	UserID       uuid.UUID              `json:"user_id"`
	Email        string                 `json:"email"`
	FirstName    string                 `json:"first_name"`
	LastName     string                 `json:"last_name"`
	Role         enums.MemberRole       `json:"role"`
	Status       enums.MembershipStatus `json:"membership_status"`
	CreatedAt    time.Time              `json:"created_at"`
	LastLoginAt  *time.Time             `json:"last_login_at,omitempty"`
}

// ToDTO converts a model to the external DTO.
func ToDTO(m *models.PracticeMembership) *MembershipDTO {
	if m == nil {
		return nil
	}

	return &MembershipDTO{
		ID:         m.ID,
		PracticeID: m.PracticeID,
		UserID:     m.UserID,
		Role:       m.Role,
		Status:     m.Status,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
