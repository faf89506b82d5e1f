package folders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
)

// Repository exposes folder persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a folder repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a folder.
func (r *Repository) Create(ctx context.Context, folder *models.Folder) (*models.Folder, error) {
	if err := r.db.WithContext(ctx).Create(folder).Error; err != nil {
		return nil, err
	}
	return folder, nil
}

// FindByID retrieves a practice-scoped folder.
func (r *Repository) FindByID(ctx context.Context, practiceID, id uuid.UUID) (*models.Folder, error) {
	var f models.Folder
	if err := r.db.WithContext(ctx).
		First(&f, "id = ? AND practice_id = ?", id, practiceID).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// FindByIDs retrieves practice-scoped folders; missing IDs are absent from
// the result.
func (r *Repository) FindByIDs(ctx context.Context, practiceID uuid.UUID, ids []uuid.UUID) ([]models.Folder, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Folder
	if err := r.db.WithContext(ctx).
		Where("practice_id = ? AND id IN ?", practiceID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListChildren returns the direct subfolders of parentID (nil = root level),
// sorted by name.
func (r *Repository) ListChildren(ctx context.Context, practiceID uuid.UUID, parentID *uuid.UUID) ([]models.Folder, error) {
	tx := r.db.WithContext(ctx).Where("practice_id = ?", practiceID)
	if parentID == nil {
		tx = tx.Where("parent_id IS NULL")
	} else {
		tx = tx.Where("parent_id = ?", *parentID)
	}
	var rows []models.Folder
	if err := tx.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListPaged returns one page of all folders for a practice, newest first,
// plus the total count.
func (r *Repository) ListPaged(ctx context.Context, practiceID uuid.UUID, page, limit int) ([]models.Folder, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.Folder{}).
		Where("practice_id = ?", practiceID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Folder
	if err := r.db.WithContext(ctx).
		Where("practice_id = ?", practiceID).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// AssetCounts returns the number of live assets filed in each of the given
// folders. Folders holding no assets are absent from the map.
func (r *Repository) AssetCounts(ctx context.Context, practiceID uuid.UUID, folderIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(folderIDs))
	if len(folderIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		FolderID uuid.UUID `gorm:"column:folder_id"`
		Count    int64     `gorm:"column:count"`
	}
	if err := r.db.WithContext(ctx).
		Model(&models.MediaAsset{}).
		Select("folder_id, COUNT(*) AS count").
		Where("practice_id = ? AND folder_id IN ? AND status <> ?", practiceID, folderIDs, enums.MediaStatusDeleted).
		Group("folder_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.FolderID] = row.Count
	}
	return counts, nil
}

// NameExists reports whether a sibling folder already uses the name.
func (r *Repository) NameExists(ctx context.Context, practiceID uuid.UUID, parentID *uuid.UUID, name string) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Folder{}).
		Where("practice_id = ? AND lower(name) = lower(?)", practiceID, name)
	if parentID == nil {
		tx = tx.Where("parent_id IS NULL")
	} else {
		tx = tx.Where("parent_id = ?", *parentID)
	}
	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rename updates a folder's name.
func (r *Repository) Rename(ctx context.Context, practiceID, id uuid.UUID, name string) (*models.Folder, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Folder{}).
		Where("id = ? AND practice_id = ?", id, practiceID).
		Update("name", name)
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, practiceID, id)
}

// Delete removes a folder: its subfolders are re-parented to the folder's own
// parent and its assets become unfiled, all in one transaction.
func (r *Repository) Delete(ctx context.Context, practiceID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var f models.Folder
		if err := tx.First(&f, "id = ? AND practice_id = ?", id, practiceID).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Folder{}).
			Where("practice_id = ? AND parent_id = ?", practiceID, id).
			Update("parent_id", f.ParentID).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.MediaAsset{}).
			Where("practice_id = ? AND folder_id = ? AND status <> ?", practiceID, id, enums.MediaStatusDeleted).
			Update("folder_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Folder{}, "id = ?", id).Error
	})
}
