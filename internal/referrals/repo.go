package referrals

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
)

// Repository exposes referral persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a referral repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a referral.
func (r *Repository) Create(ctx context.Context, referral *models.Referral) (*models.Referral, error) {
	if err := r.db.WithContext(ctx).Create(referral).Error; err != nil {
		return nil, err
	}
	return referral, nil
}

// FindByID retrieves a practice-scoped referral.
func (r *Repository) FindByID(ctx context.Context, practiceID, id uuid.UUID) (*models.Referral, error) {
	var ref models.Referral
	if err := r.db.WithContext(ctx).
		First(&ref, "id = ? AND practice_id = ?", id, practiceID).Error; err != nil {
		return nil, err
	}
	return &ref, nil
}

// List returns a practice's referrals, newest first, with optional status,
// partner, and received-at range filters.
func (r *Repository) List(ctx context.Context, q listQuery) ([]models.Referral, int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Referral{}).
		Where("practice_id = ?", q.practiceID)
	if q.status != nil {
		tx = tx.Where("status = ?", *q.status)
	}
	if q.partnerID != nil {
		tx = tx.Where("partner_id = ?", *q.partnerID)
	}
	if q.receivedFrom != nil {
		tx = tx.Where("received_at >= ?", *q.receivedFrom)
	}
	if q.receivedTo != nil {
		tx = tx.Where("received_at < ?", *q.receivedTo)
	}
	if q.search != "" {
		tx = tx.Where("patient_name ILIKE ?", "%"+q.search+"%")
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Referral
	if err := tx.Order("received_at DESC, id DESC").
		Offset(q.offset).
		Limit(q.limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Save updates a referral row.
func (r *Repository) Save(ctx context.Context, referral *models.Referral) (*models.Referral, error) {
	if err := r.db.WithContext(ctx).Save(referral).Error; err != nil {
		return nil, err
	}
	return referral, nil
}

// Delete removes a referral row.
func (r *Repository) Delete(ctx context.Context, practiceID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Delete(&models.Referral{}, "id = ? AND practice_id = ?", id, practiceID)
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
	practiceID   uuid.UUID
	status       *enums.ReferralStatus
	partnerID    *uuid.UUID
	receivedFrom *time.Time
	receivedTo   *time.Time
	search       string
	offset       int
	limit        int
}
