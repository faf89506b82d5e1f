package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
)

// CallRecord is a single tracked phone call.
type CallRecord struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PracticeID      uuid.UUID           `gorm:"column:practice_id;type:uuid;not null;index"`
	Direction       enums.CallDirection `gorm:"column:direction;type:call_direction;not null"`
	CallerName      *string             `gorm:"column:caller_name"`
	CallerPhone     string              `gorm:"column:caller_phone;not null"`
	DurationSeconds int                 `gorm:"column:duration_seconds;not null;default:0"`
	Outcome         enums.CallOutcome   `gorm:"column:outcome;type:call_outcome;not null"`
	PartnerID       *uuid.UUID          `gorm:"column:partner_id;type:uuid"`
	ReferralID      *uuid.UUID          `gorm:"column:referral_id;type:uuid"`
	Notes           *string             `gorm:"column:notes"`
	OccurredAt      time.Time           `gorm:"column:occurred_at;not null;index"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
}
