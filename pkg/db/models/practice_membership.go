package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
)

// PracticeMembership joins users to practices with a role.
type PracticeMembership struct {
	ID         uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	PracticeID uuid.UUID              `gorm:"column:practice_id;type:uuid;not null;index"`
	Role       enums.MemberRole       `gorm:"column:role;type:member_role;not null"`
	Status     enums.MembershipStatus `gorm:"column:status;type:membership_status;not null;default:'active'"`
	CreatedAt  time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
