package partners

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
)

// Repository exposes partner persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a partner repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a partner.
func (r *Repository) Create(ctx context.Context, partner *models.Partner) (*models.Partner, error) {
	if err := r.db.WithContext(ctx).Create(partner).Error; err != nil {
		return nil, err
	}
	return partner, nil
}

// FindByID retrieves a practice-scoped partner.
func (r *Repository) FindByID(ctx context.Context, practiceID, id uuid.UUID) (*models.Partner, error) {
	var p models.Partner
	if err := r.db.WithContext(ctx).
		First(&p, "id = ? AND practice_id = ?", id, practiceID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns a practice's partners with optional name search, hiding
// archived rows unless asked.
func (r *Repository) List(ctx context.Context, q listQuery) ([]models.Partner, int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Partner{}).
		Where("practice_id = ?", q.practiceID)
	if !q.includeArchived {
		tx = tx.Where("archived_at IS NULL")
	}
	if q.search != "" {
		tx = tx.Where("name ILIKE ?", "%"+q.search+"%")
	}
	if q.tier != nil {
		tx = tx.Where("tier = ?", *q.tier)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Partner
	if err := tx.Order("name ASC").
		Offset(q.offset).
		Limit(q.limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Save updates a partner row.
func (r *Repository) Save(ctx context.Context, partner *models.Partner) (*models.Partner, error) {
	if err := r.db.WithContext(ctx).Save(partner).Error; err != nil {
		return nil, err
	}
	return partner, nil
}
