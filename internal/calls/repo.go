package calls

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
)

// Repository exposes call-record persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a call-record repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a call record.
func (r *Repository) Create(ctx context.Context, call *models.CallRecord) (*models.CallRecord, error) {
	if err := r.db.WithContext(ctx).Create(call).Error; err != nil {
		return nil, err
	}
	return call, nil
}

// FindByID retrieves a practice-scoped call record.
func (r *Repository) FindByID(ctx context.Context, practiceID, id uuid.UUID) (*models.CallRecord, error) {
	var call models.CallRecord
	if err := r.db.WithContext(ctx).
		First(&call, "id = ? AND practice_id = ?", id, practiceID).Error; err != nil {
		return nil, err
	}
	return &call, nil
}

// List returns a practice's call records, most recent first, with optional
// direction, outcome, partner, and occurred-at range filters.
func (r *Repository) List(ctx context.Context, q listQuery) ([]models.CallRecord, int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.CallRecord{}).
		Where("practice_id = ?", q.practiceID)
	if q.direction != nil {
		tx = tx.Where("direction = ?", *q.direction)
	}
	if q.outcome != nil {
		tx = tx.Where("outcome = ?", *q.outcome)
	}
	if q.partnerID != nil {
		tx = tx.Where("partner_id = ?", *q.partnerID)
	}
	if q.from != nil {
		tx = tx.Where("occurred_at >= ?", *q.from)
	}
	if q.to != nil {
		tx = tx.Where("occurred_at < ?", *q.to)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.CallRecord
	if err := tx.Order("occurred_at DESC, id DESC").
		Offset(q.offset).
		Limit(q.limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Save updates a call record row.
func (r *Repository) Save(ctx context.Context, call *models.CallRecord) (*models.CallRecord, error) {
	if err := r.db.WithContext(ctx).Save(call).Error; err != nil {
		return nil, err
	}
	return call, nil
}

// Delete removes a call record row.
func (r *Repository) Delete(ctx context.Context, practiceID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Delete(&models.CallRecord{}, "id = ? AND practice_id = ?", id, practiceID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// listQuery is the repo-level filter for List.
type listQuery struct {
	practiceID uuid.UUID
	direction  *enums.CallDirection
	outcome    *enums.CallOutcome
	partnerID  *uuid.UUID
	from       *time.Time
	to         *time.Time
	offset     int
	limit      int
}
