package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
)

// Partner is a referring practice or provider in the partner network.
type Partner struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PracticeID   uuid.UUID         `gorm:"column:practice_id;type:uuid;not null;index"`
	Name         string            `gorm:"column:name;not null"`
	ContactName  *string           `gorm:"column:contact_name"`
	ContactEmail *string           `gorm:"column:contact_email"`
	ContactPhone *string           `gorm:"column:contact_phone"`
	Specialty    *string           `gorm:"column:specialty"`
	Tier         enums.PartnerTier `gorm:"column:tier;type:partner_tier;not null;default:'standard'"`
	Notes        *string           `gorm:"column:notes"`
	ArchivedAt   *time.Time        `gorm:"column:archived_at;index"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
