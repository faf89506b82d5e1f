package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/orthodeskhq/orthodesk-backend/pkg/db/types"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
)

// SocialPost is a composed post targeting one or more platforms.
type SocialPost struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PracticeID    uuid.UUID           `gorm:"column:practice_id;type:uuid;not null;index"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	Caption       string              `gorm:"column:caption;not null"`
	Platforms     dbtypes.StringArray `gorm:"column:platforms;type:text[];not null"`
	Status        enums.PostStatus    `gorm:"column:status;type:post_status;not null;default:'draft'"`
	ScheduledAt   *time.Time          `gorm:"column:scheduled_at;index"`
	PublishedAt   *time.Time          `gorm:"column:published_at"`
	FailureReason *string             `gorm:"column:failure_reason"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// PlatformList converts the stored platform strings to typed values,
// skipping anything unknown.
func (p SocialPost) PlatformList() []enums.Platform {
	platforms := make([]enums.Platform, 0, len(p.Platforms))
	for _, raw := range p.Platforms {
		platform, err := enums.ParsePlatform(raw)
		if err != nil {
			continue
		}
		platforms = append(platforms, platform)
	}
	return platforms
}
