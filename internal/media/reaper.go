package media

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
)

const reapBatchSize = 100

type reaperRepository interface {
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.MediaAsset, error)
	Purge(ctx context.Context, id uuid.UUID) error
}

type objectDeleter interface {
	DeleteObject(ctx context.Context, bucket, object string) error
}

// Reaper removes asset rows that were staged for upload but never finalized,
// along with any bytes that did land in the bucket.
type Reaper struct {
	repo    reaperRepository
	gcs     objectDeleter
	bucket  string
	staleIn time.Duration
}

// NewReaper constructs the stale-upload reaper.
func NewReaper(repo reaperRepository, gcs objectDeleter, bucket string, staleIn time.Duration) (*Reaper, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "media repository required")
	}
	if gcs == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gcs client required")
	}
	if bucket == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gcs bucket required")
	}
	if staleIn <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stale window must be positive")
	}
	return &Reaper{repo: repo, gcs: gcs, bucket: bucket, staleIn: staleIn}, nil
}

// Reap deletes one batch of stale pending assets and reports how many were
// removed.
func (r *Reaper) Reap(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-r.staleIn)
	rows, err := r.repo.ListStalePending(ctx, cutoff, reapBatchSize)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stale pending assets")
	}

	removed := 0
	for _, row := range rows {
		if err := r.gcs.DeleteObject(ctx, r.bucket, row.GCSKey); err != nil {
			return removed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete stale object")
		}
		if err := r.repo.Purge(ctx, row.ID); err != nil {
			return removed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge stale asset row")
		}
		removed++
	}
	return removed, nil
}
