package cron

import (
	"context"
	"fmt"

	"github.com/orthodeskhq/orthodesk-backend/pkg/logger"
)

type staleUploadReaper interface {
	Reap(ctx context.Context) (int, error)
}

// StaleUploadCleanupJobParams configure the abandoned-upload cleanup job.
type StaleUploadCleanupJobParams struct {
	Logger *logger.Logger
	Reaper staleUploadReaper
}

// NewStaleUploadCleanupJob wraps the media reaper as a cron job.
func NewStaleUploadCleanupJob(params StaleUploadCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reaper == nil {
		return nil, fmt.Errorf("reaper required")
	}
	return &staleUploadCleanupJob{
		logg:   params.Logger,
		reaper: params.Reaper,
	}, nil
}

type staleUploadCleanupJob struct {
	logg   *logger.Logger
	reaper staleUploadReaper
}

func (j *staleUploadCleanupJob) Name() string { return "stale-upload-cleanup" }

func (j *staleUploadCleanupJob) Run(ctx context.Context) error {
	removed, err := j.reaper.Reap(ctx)
	if err != nil {
		return fmt.Errorf("reap stale uploads: %w", err)
	}
	if removed > 0 {
		j.logg.Info(j.logg.WithField(ctx, "removed", removed), "stale uploads cleaned up")
	}
	return nil
}
