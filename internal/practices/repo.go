package practices

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
)

// Repository exposes practice persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new practice and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreatePracticeDTO) (*models.Practice, error) {
	practice := &models.Practice{
		Name:    dto.Name,
		Phone:   dto.Phone,
		Email:   dto.Email,
		Website: dto.Website,
		Address: dto.Address,
	}
	if err := r.db.WithContext(ctx).Create(practice).Error; err != nil {
		return nil, err
	}
	return practice, nil
}

// FindByID loads a practice by its UUID, skipping soft-deleted rows.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Practice, error) {
	var practice models.Practice
	if err := r.db.WithContext(ctx).
		First(&practice, "id = ? AND deleted_at IS NULL", id).Error; err != nil {
		return nil, err
	}
	return &practice, nil
}

// Update persists changes to the practice row.
func (r *Repository) Update(ctx context.Context, practice *models.Practice) error {
	return r.db.WithContext(ctx).Save(practice).Error
}
