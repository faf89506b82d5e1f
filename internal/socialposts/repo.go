package socialposts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
)

// Repository exposes social-post persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a post repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a post and its ordered media attachments in one
// transaction.
func (r *Repository) Create(ctx context.Context, post *models.SocialPost, mediaIDs []uuid.UUID) (*models.SocialPost, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		return insertAttachments(tx, post.ID, mediaIDs)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// FindByID retrieves a practice-scoped post.
func (r *Repository) FindByID(ctx context.Context, practiceID, id uuid.UUID) (*models.SocialPost, error) {
	var post models.SocialPost
	if err := r.db.WithContext(ctx).
		First(&post, "id = ? AND practice_id = ?", id, practiceID).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// ListAttachments returns a post's media attachments in display order.
func (r *Repository) ListAttachments(ctx context.Context, postID uuid.UUID) ([]models.PostMedia, error) {
	var rows []models.PostMedia
	if err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("position ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// List returns a practice's posts, newest first, optionally filtered by
// status.
func (r *Repository) List(ctx context.Context, practiceID uuid.UUID, status *enums.PostStatus, limit, offset int) ([]models.SocialPost, int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.SocialPost{}).
		Where("practice_id = ?", practiceID)
	if status != nil {
		tx = tx.Where("status = ?", *status)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.SocialPost
	if err := tx.Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Update saves post fields and replaces the media attachments.
func (r *Repository) Update(ctx context.Context, post *models.SocialPost, mediaIDs []uuid.UUID) (*models.SocialPost, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(post).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostMedia{}).Error; err != nil {
			return err
		}
		return insertAttachments(tx, post.ID, mediaIDs)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// Delete removes a post and its attachments.
func (r *Repository) Delete(ctx context.Context, practiceID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND practice_id = ?", id, practiceID).Delete(&models.SocialPost{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("post_id = ?", id).Delete(&models.PostMedia{}).Error
	})
}

// ListDue returns scheduled posts whose time has come, oldest first.
func (r *Repository) ListDue(ctx context.Context, now time.Time, limit int) ([]models.SocialPost, error) {
	var rows []models.SocialPost
	if err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", enums.PostStatusScheduled, now).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkPublished flips a scheduled post to published. Only scheduled rows
// qualify, so a concurrent worker cannot publish the same post twice.
func (r *Repository) MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.SocialPost{}).
		Where("id = ? AND status = ?", id, enums.PostStatusScheduled).
		Updates(map[string]any{
			"status":       enums.PostStatusPublished,
			"published_at": publishedAt,
		})
	return tx.RowsAffected > 0, tx.Error
}

// MarkFailed records a publish failure.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).
		Model(&models.SocialPost{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":         enums.PostStatusFailed,
			"failure_reason": reason,
		}).Error
}

func insertAttachments(tx *gorm.DB, postID uuid.UUID, mediaIDs []uuid.UUID) error {
	for i, mediaID := range mediaIDs {
		row := &models.PostMedia{
			ID:           uuid.New(),
			PostID:       postID,
			MediaAssetID: mediaID,
			Position:     i,
		}
		if err := tx.Create(row).Error; err != nil {
			return err
		}
	}
	return nil
}
