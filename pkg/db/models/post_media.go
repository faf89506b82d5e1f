package models

import (
	"time"

	"github.com/google/uuid"
)

// PostMedia stores ordered media attachments for social posts.
type PostMedia struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PostID       uuid.UUID `gorm:"column:post_id;type:uuid;not null;index"`
	MediaAssetID uuid.UUID `gorm:"column:media_asset_id;type:uuid;not null"`
	Position     int       `gorm:"column:position;not null;default:0"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
