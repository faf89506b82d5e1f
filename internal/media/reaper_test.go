package media

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
)

type stubReaperRepo struct {
	stale  []models.MediaAsset
	purged []uuid.UUID
}

func (s *stubReaperRepo) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.MediaAsset, error) {
	return s.stale, nil
}

func (s *stubReaperRepo) Purge(ctx context.Context, id uuid.UUID) error {
	s.purged = append(s.purged, id)
	return nil
}

func TestReaperPurgesStalePendingAssets(t *testing.T) {
	t.Parallel()

	repo := &stubReaperRepo{stale: []models.MediaAsset{
		{ID: uuid.New(), GCSKey: "media/a"},
		{ID: uuid.New(), GCSKey: "media/b"},
	}}
	gcs := &stubGCS{}

	reaper, err := NewReaper(repo, gcs, "bucket", time.Hour)
	if err != nil {
		t.Fatalf("NewReaper: %v", err)
	}

	removed, err := reaper.Reap(context.Background())
	if err != nil {
		t.Fatalf("Reap: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if len(gcs.deleted) != 2 || len(repo.purged) != 2 {
		t.Fatalf("expected objects and rows removed, got %d/%d", len(gcs.deleted), len(repo.purged))
	}
}
