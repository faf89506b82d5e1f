package referrals

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
)

func setupReferralsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	referrals := `
CREATE TABLE IF NOT EXISTS referrals (
  id TEXT PRIMARY KEY,
  practice_id TEXT NOT NULL,
  partner_id TEXT,
  patient_name TEXT NOT NULL,
  patient_phone TEXT,
  procedure TEXT NOT NULL,
  estimated_value NUMERIC NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'received',
  notes TEXT,
  received_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(referrals).Error)

	t.Cleanup(func() {
		_ = db.Exec(`DROP TABLE IF EXISTS referrals`).Error
	})

	return db
}

func seedReferral(t *testing.T, db *gorm.DB, practiceID uuid.UUID, partnerID *uuid.UUID, status enums.ReferralStatus, receivedAt time.Time) *models.Referral {
	t.Helper()

	ref := &models.Referral{
		ID:             uuid.New(),
		PracticeID:     practiceID,
		PartnerID:      partnerID,
		PatientName:    "Jordan Avery",
		Procedure:      "comprehensive-braces",
		EstimatedValue: decimal.NewFromInt(4500),
		Status:         status,
		ReceivedAt:     receivedAt,
	}
	require.NoError(t, db.Create(ref).Error)
	return ref
}

func TestRepositoryFindByIDScopedToPractice(t *testing.T) {
	db := setupReferralsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	practiceID := uuid.New()
	ref := seedReferral(t, db, practiceID, nil, enums.ReferralStatusReceived, time.Now().UTC())

	found, err := repo.FindByID(ctx, practiceID, ref.ID)
	require.NoError(t, err)
	assert.Equal(t, ref.ID, found.ID)
	assert.Equal(t, "Jordan Avery", found.PatientName)

	_, err = repo.FindByID(ctx, uuid.New(), ref.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListFilters(t *testing.T) {
	db := setupReferralsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	practiceID := uuid.New()
	partnerID := uuid.New()
	now := time.Now().UTC()

	older := seedReferral(t, db, practiceID, &partnerID, enums.ReferralStatusReceived, now.Add(-48*time.Hour))
	newer := seedReferral(t, db, practiceID, nil, enums.ReferralStatusScheduled, now)
	seedReferral(t, db, uuid.New(), nil, enums.ReferralStatusReceived, now)

	rows, total, err := repo.List(ctx, listQuery{practiceID: practiceID, limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, rows, 2)
	assert.Equal(t, newer.ID, rows[0].ID, "newest referral should sort first")
	assert.Equal(t, older.ID, rows[1].ID)

	scheduled := enums.ReferralStatusScheduled
	rows, total, err = repo.List(ctx, listQuery{practiceID: practiceID, status: &scheduled, limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, newer.ID, rows[0].ID)

	rows, total, err = repo.List(ctx, listQuery{practiceID: practiceID, partnerID: &partnerID, limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, older.ID, rows[0].ID)

	from := now.Add(-time.Hour)
	rows, total, err = repo.List(ctx, listQuery{practiceID: practiceID, receivedFrom: &from, limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, newer.ID, rows[0].ID)

	to := now.Add(-time.Hour)
	rows, total, err = repo.List(ctx, listQuery{practiceID: practiceID, receivedTo: &to, limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, older.ID, rows[0].ID)
}

func TestRepositorySaveAndDelete(t *testing.T) {
	db := setupReferralsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	practiceID := uuid.New()
	ref := seedReferral(t, db, practiceID, nil, enums.ReferralStatusReceived, time.Now().UTC())

	ref.Status = enums.ReferralStatusContacted
	saved, err := repo.Save(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, enums.ReferralStatusContacted, saved.Status)

	reloaded, err := repo.FindByID(ctx, practiceID, ref.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ReferralStatusContacted, reloaded.Status)

	err = repo.Delete(ctx, uuid.New(), ref.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound, "delete must be practice scoped")

	require.NoError(t, repo.Delete(ctx, practiceID, ref.ID))
	_, err = repo.FindByID(ctx, practiceID, ref.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
