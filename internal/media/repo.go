package media

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
	dbtypes "github.com/orthodeskhq/orthodesk-backend/pkg/db/types"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
)

// Repository exposes media-asset persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a media repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateBatch persists a batch of staged assets in one transaction.
func (r *Repository) CreateBatch(ctx context.Context, assets []*models.MediaAsset) error {
	if len(assets) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(assets).Error
}

// MarkUploaded flips a pending asset to uploaded. Only pending rows qualify,
// so a replayed finalize call is a not-found rather than a silent overwrite.
func (r *Repository) MarkUploaded(ctx context.Context, practiceID, id uuid.UUID, uploadedAt time.Time) (*models.MediaAsset, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.MediaAsset{}).
		Where("id = ? AND practice_id = ? AND status = ?", id, practiceID, enums.MediaStatusPending).
		Updates(map[string]any{
			"status":      enums.MediaStatusUploaded,
			"uploaded_at": uploadedAt,
		})
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, practiceID, id)
}

// FindByID retrieves a practice-scoped asset.
func (r *Repository) FindByID(ctx context.Context, practiceID, id uuid.UUID) (*models.MediaAsset, error) {
	var m models.MediaAsset
	if err := r.db.WithContext(ctx).
		First(&m, "id = ? AND practice_id = ?", id, practiceID).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// FindByIDs retrieves practice-scoped assets; missing IDs are simply absent
// from the result.
func (r *Repository) FindByIDs(ctx context.Context, practiceID uuid.UUID, ids []uuid.UUID) ([]models.MediaAsset, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.MediaAsset
	if err := r.db.WithContext(ctx).
		Where("practice_id = ? AND id IN ?", practiceID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) List(ctx context.Context, q listQuery) ([]models.MediaAsset, error) {
	tx := r.db.WithContext(ctx).
		Where("practice_id = ?", q.practiceID).
		Where("status <> ?", enums.MediaStatusDeleted)

	if q.kind != nil {
		tx = tx.Where("kind = ?", *q.kind)
	}
	if q.search != "" {
		tx = tx.Where("file_name ILIKE ?", "%"+q.search+"%")
	}
	if len(q.tags) > 0 {
		// Overlap: the asset matches when it carries any of the active tags.
		tx = tx.Where("tags && ?", dbtypes.StringArray(q.tags))
	}
	if q.folderScoped {
		if q.folderID == nil {
			tx = tx.Where("folder_id IS NULL")
		} else {
			tx = tx.Where("folder_id = ?", *q.folderID)
		}
	}
	if q.cursor != nil {
		tx = tx.Where("(created_at, id) < (?, ?)", q.cursor.CreatedAt, q.cursor.ID)
	}

	var rows []models.MediaAsset
	if err := tx.Order("created_at DESC, id DESC").
		Limit(q.limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Search returns matching assets across all folders, ordered so the service
// can group them by folder.
func (r *Repository) Search(ctx context.Context, q searchQuery) ([]models.MediaAsset, error) {
	tx := r.db.WithContext(ctx).
		Where("practice_id = ?", q.practiceID).
		Where("status = ?", enums.MediaStatusUploaded)

	if q.kind != nil {
		tx = tx.Where("kind = ?", *q.kind)
	}
	if q.search != "" {
		tx = tx.Where("file_name ILIKE ?", "%"+q.search+"%")
	}
	if len(q.tags) > 0 {
		tx = tx.Where("tags && ?", dbtypes.StringArray(q.tags))
	}

	var rows []models.MediaAsset
	if err := tx.Order("folder_id NULLS FIRST, created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateTags replaces an asset's tag list.
func (r *Repository) UpdateTags(ctx context.Context, practiceID, id uuid.UUID, tags []string) (*models.MediaAsset, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.MediaAsset{}).
		Where("id = ? AND practice_id = ? AND status <> ?", id, practiceID, enums.MediaStatusDeleted).
		Update("tags", dbtypes.StringArray(tags))
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, practiceID, id)
}

// ListUsedTags returns the distinct tags carried by a practice's live assets.
func (r *Repository) ListUsedTags(ctx context.Context, practiceID uuid.UUID) ([]string, error) {
	var tags []string
	if err := r.db.WithContext(ctx).
		Raw(`SELECT DISTINCT unnest(tags) AS tag FROM media_assets WHERE practice_id = ? AND status <> ? ORDER BY tag`,
			practiceID, enums.MediaStatusDeleted).
		Scan(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// MoveBatch reassigns assets to a folder (nil means unfiled). Returns how
// many rows actually moved.
func (r *Repository) MoveBatch(ctx context.Context, practiceID uuid.UUID, ids []uuid.UUID, folderID *uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx := r.db.WithContext(ctx).
		Model(&models.MediaAsset{}).
		Where("practice_id = ? AND id IN ? AND status <> ?", practiceID, ids, enums.MediaStatusDeleted).
		Update("folder_id", folderID)
	return tx.RowsAffected, tx.Error
}

// MarkDeleted soft-deletes an asset. The GCS object is removed separately.
func (r *Repository) MarkDeleted(ctx context.Context, practiceID, id uuid.UUID) (*models.MediaAsset, error) {
	var m models.MediaAsset
	if err := r.db.WithContext(ctx).
		First(&m, "id = ? AND practice_id = ? AND status <> ?", id, practiceID, enums.MediaStatusDeleted).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Model(&models.MediaAsset{}).
		Where("id = ?", m.ID).
		Update("status", enums.MediaStatusDeleted).Error; err != nil {
		return nil, err
	}
	m.Status = enums.MediaStatusDeleted
	return &m, nil
}

// ListStalePending returns assets that were staged but never finalized before
// the cutoff. The reaper uses this to clean up abandoned uploads.
func (r *Repository) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.MediaAsset, error) {
	var rows []models.MediaAsset
	if err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", enums.MediaStatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Purge removes a soft-deleted row for good.
func (r *Repository) Purge(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.MediaAsset{}).Error
}
