package models

import (
	"time"

	"github.com/google/uuid"
)

// Folder is a node in the media library hierarchy. A nil ParentID means the
// folder hangs directly off the root.
type Folder struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PracticeID uuid.UUID  `gorm:"column:practice_id;type:uuid;not null;index"`
	UserID     uuid.UUID  `gorm:"column:user_id;type:uuid;not null"`
	Name       string     `gorm:"column:name;not null"`
	ParentID   *uuid.UUID `gorm:"column:parent_id;type:uuid;index"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
