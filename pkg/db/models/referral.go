package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
)

// Referral is a tracked patient referral in the intake pipeline.
type Referral struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PracticeID     uuid.UUID            `gorm:"column:practice_id;type:uuid;not null;index"`
	PartnerID      *uuid.UUID           `gorm:"column:partner_id;type:uuid;index"`
	PatientName    string               `gorm:"column:patient_name;not null"`
	PatientPhone   *string              `gorm:"column:patient_phone"`
	Procedure      string               `gorm:"column:procedure;not null"`
	EstimatedValue decimal.Decimal      `gorm:"column:estimated_value;type:numeric(12,2);not null;default:0"`
	Status         enums.ReferralStatus `gorm:"column:status;type:referral_status;not null;default:'received'"`
	Notes          *string              `gorm:"column:notes"`
	ReceivedAt     time.Time            `gorm:"column:received_at;not null"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
