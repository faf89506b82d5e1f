package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/orthodeskhq/orthodesk-backend/pkg/db/types"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
)

// MediaAsset captures metadata for uploaded objects in the media library.
type MediaAsset struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PracticeID uuid.UUID           `gorm:"column:practice_id;type:uuid;not null;index"`
	UserID     uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	FolderID   *uuid.UUID          `gorm:"column:folder_id;type:uuid;index"`
	Kind       enums.MediaKind     `gorm:"column:kind;type:media_kind;not null"`
	Status     enums.MediaStatus   `gorm:"column:status;type:media_status;not null;default:'pending'"`
	GCSKey     string              `gorm:"column:gcs_key;not null;unique"`
	FileName   string              `gorm:"column:file_name;not null"`
	MimeType   string              `gorm:"column:mime_type;not null"`
	SizeBytes  int64               `gorm:"column:size_bytes;not null"`
	Tags       dbtypes.StringArray `gorm:"column:tags;type:text[];not null;default:ARRAY[]::text[]"`
	UploadedAt *time.Time          `gorm:"column:uploaded_at"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
