package cron

import (
	"context"
	"fmt"

	"github.com/orthodeskhq/orthodesk-backend/pkg/logger"
)

type duePostPublisher interface {
	PublishDue(ctx context.Context) (int, error)
}

// PublishDuePostsJobParams configure the scheduled-post publish job.
type PublishDuePostsJobParams struct {
	Logger    *logger.Logger
	Publisher duePostPublisher
}

// NewPublishDuePostsJob wraps the post publisher as a cron job.
func NewPublishDuePostsJob(params PublishDuePostsJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Publisher == nil {
		return nil, fmt.Errorf("publisher required")
	}
	return &publishDuePostsJob{
		logg:      params.Logger,
		publisher: params.Publisher,
	}, nil
}

type publishDuePostsJob struct {
	logg      *logger.Logger
	publisher duePostPublisher
}

func (j *publishDuePostsJob) Name() string { return "publish-due-posts" }

func (j *publishDuePostsJob) Run(ctx context.Context) error {
	published, err := j.publisher.PublishDue(ctx)
	if err != nil {
		return fmt.Errorf("publish due posts: %w", err)
	}
	if published > 0 {
		j.logg.Info(j.logg.WithField(ctx, "published", published), "scheduled posts went out")
	}
	return nil
}
