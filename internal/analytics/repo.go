package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
)

// Repository runs the dashboard aggregate queries against Postgres.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an analytics repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// StatusBucket is one referral-status slice of the pipeline.
type StatusBucket struct {
	Status string          `gorm:"column:status" json:"status"`
	Count  int64           `gorm:"column:count" json:"count"`
	Value  decimal.Decimal `gorm:"column:value" json:"value"`
}

// ReferralPipeline returns per-status referral counts and estimated value for
// the window.
func (r *Repository) ReferralPipeline(ctx context.Context, practiceID uuid.UUID, from, to time.Time) ([]StatusBucket, error) {
	var rows []StatusBucket
	err := r.db.WithContext(ctx).
		Model(&models.Referral{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(estimated_value), 0) AS value").
		Where("practice_id = ? AND received_at >= ? AND received_at < ?", practiceID, from, to).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// OutcomeBucket is one call-outcome slice of the call volume report.
type OutcomeBucket struct {
	Outcome         string `gorm:"column:outcome" json:"outcome"`
	Count           int64  `gorm:"column:count" json:"count"`
	DurationSeconds int64  `gorm:"column:duration_seconds" json:"duration_seconds"`
}

// CallVolume returns per-outcome call counts and total talk time for the window.
func (r *Repository) CallVolume(ctx context.Context, practiceID uuid.UUID, from, to time.Time) ([]OutcomeBucket, error) {
	var rows []OutcomeBucket
	err := r.db.WithContext(ctx).
		Model(&models.CallRecord{}).
		Select("outcome, COUNT(*) AS count, COALESCE(SUM(duration_seconds), 0) AS duration_seconds").
		Where("practice_id = ? AND occurred_at >= ? AND occurred_at < ?", practiceID, from, to).
		Group("outcome").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// PartnerRow is one leaderboard entry.
type PartnerRow struct {
	PartnerID      uuid.UUID       `gorm:"column:partner_id" json:"partner_id"`
	PartnerName    string          `gorm:"column:partner_name" json:"partner_name"`
	Tier           string          `gorm:"column:tier" json:"tier"`
	ReferralCount  int64           `gorm:"column:referral_count" json:"referral_count"`
	CompletedCount int64           `gorm:"column:completed_count" json:"completed_count"`
	TotalValue     decimal.Decimal `gorm:"column:total_value" json:"total_value"`
}

// PartnerLeaderboard ranks partners by referral volume for the window.
func (r *Repository) PartnerLeaderboard(ctx context.Context, practiceID uuid.UUID, from, to time.Time, limit int) ([]PartnerRow, error) {
	var rows []PartnerRow
	err := r.db.WithContext(ctx).
		Table("referrals").
		Select(`partners.id AS partner_id,
			partners.name AS partner_name,
			partners.tier AS tier,
			COUNT(referrals.id) AS referral_count,
			COUNT(referrals.id) FILTER (WHERE referrals.status = 'completed') AS completed_count,
			COALESCE(SUM(referrals.estimated_value), 0) AS total_value`).
		Joins("JOIN partners ON partners.id = referrals.partner_id").
		Where("referrals.practice_id = ? AND referrals.received_at >= ? AND referrals.received_at < ?", practiceID, from, to).
		Group("partners.id, partners.name, partners.tier").
		Order("referral_count DESC, total_value DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// KindUsage is one media-kind slice of library usage.
type KindUsage struct {
	Kind       string `gorm:"column:kind" json:"kind"`
	Count      int64  `gorm:"column:count" json:"count"`
	TotalBytes int64  `gorm:"column:total_bytes" json:"total_bytes"`
}

// MediaUsage returns per-kind asset counts and stored bytes for a practice's
// live media library.
func (r *Repository) MediaUsage(ctx context.Context, practiceID uuid.UUID) ([]KindUsage, error) {
	var rows []KindUsage
	err := r.db.WithContext(ctx).
		Model(&models.MediaAsset{}).
		Select("kind, COUNT(*) AS count, COALESCE(SUM(size_bytes), 0) AS total_bytes").
		Where("practice_id = ? AND status <> ?", practiceID, enums.MediaStatusDeleted).
		Group("kind").
		Order("kind ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DayBucket is one day of referral intake.
type DayBucket struct {
	Day   time.Time `gorm:"column:day" json:"day"`
	Count int64     `gorm:"column:count" json:"count"`
}

// ReferralsByDay returns daily referral counts for trend charts.
func (r *Repository) ReferralsByDay(ctx context.Context, practiceID uuid.UUID, from, to time.Time) ([]DayBucket, error) {
	var rows []DayBucket
	err := r.db.WithContext(ctx).
		Model(&models.Referral{}).
		Select("date_trunc('day', received_at) AS day, COUNT(*) AS count").
		Where("practice_id = ? AND received_at >= ? AND received_at < ?", practiceID, from, to).
		Group("day").
		Order("day ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
