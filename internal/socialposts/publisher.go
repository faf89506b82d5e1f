package socialposts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
	"github.com/orthodeskhq/orthodesk-backend/pkg/logger"
)

const (
	// EventPostPublished is the attribute value consumers filter on.
	EventPostPublished = "post.published"

	defaultPublishBatch   = 25
	defaultPublishTimeout = 30 * time.Second
)

type duePostRepository interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]models.SocialPost, error)
	ListAttachments(ctx context.Context, postID uuid.UUID) ([]models.PostMedia, error)
	MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// PublishResult is the awaitable half of a publish call.
type PublishResult interface {
	Get(ctx context.Context) (string, error)
}

// EventPublisher abstracts the Pub/Sub publisher so the worker can be tested
// without GCP.
type EventPublisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) PublishResult
}

// GCPPublisher adapts a concrete Pub/Sub publisher to EventPublisher.
type GCPPublisher struct {
	*gcppubsub.Publisher
}

func (p *GCPPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) PublishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return p.Publisher.Publish(ctx, msg)
}

// PostEvent is the payload emitted when a scheduled post goes out.
type PostEvent struct {
	Event       string      `json:"event"`
	PostID      uuid.UUID   `json:"post_id"`
	PracticeID  uuid.UUID   `json:"practice_id"`
	Caption     string      `json:"caption"`
	Platforms   []string    `json:"platforms"`
	MediaIDs    []uuid.UUID `json:"media_ids"`
	PublishedAt time.Time   `json:"published_at"`
}

// Publisher drains due scheduled posts: each one is claimed, announced on the
// post-events topic, and marked published. A post that cannot be announced is
// marked failed with the reason and does not block the rest of the batch.
type Publisher struct {
	repo  duePostRepository
	pub   EventPublisher
	logg  *logger.Logger
	batch int
	now   func() time.Time
}

// NewPublisher constructs the due-post publisher.
func NewPublisher(repo duePostRepository, pub EventPublisher, logg *logger.Logger, batch int) (*Publisher, error) {
	if repo == nil {
		return nil, fmt.Errorf("post repository required")
	}
	if pub == nil {
		return nil, fmt.Errorf("event publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if batch <= 0 {
		batch = defaultPublishBatch
	}
	return &Publisher{repo: repo, pub: pub, logg: logg, batch: batch, now: time.Now}, nil
}

// PublishDue processes one batch and reports how many posts went out.
func (p *Publisher) PublishDue(ctx context.Context) (int, error) {
	now := p.now().UTC()
	due, err := p.repo.ListDue(ctx, now, p.batch)
	if err != nil {
		return 0, fmt.Errorf("list due posts: %w", err)
	}

	published := 0
	for _, post := range due {
		postCtx := p.logg.WithField(ctx, "post_id", post.ID.String())

		// Claim first: if another worker got here, skip quietly.
		claimed, err := p.repo.MarkPublished(ctx, post.ID, now)
		if err != nil {
			return published, fmt.Errorf("mark post published: %w", err)
		}
		if !claimed {
			continue
		}

		if err := p.announce(ctx, post, now); err != nil {
			p.logg.Error(postCtx, "post event publish failed", err)
			if failErr := p.repo.MarkFailed(ctx, post.ID, err.Error()); failErr != nil {
				return published, fmt.Errorf("mark post failed: %w", failErr)
			}
			continue
		}

		p.logg.Info(postCtx, "post published")
		published++
	}
	return published, nil
}

func (p *Publisher) announce(ctx context.Context, post models.SocialPost, publishedAt time.Time) error {
	attachments, err := p.repo.ListAttachments(ctx, post.ID)
	if err != nil {
		return fmt.Errorf("list post media: %w", err)
	}

	payload, err := json.Marshal(PostEvent{
		Event:       EventPostPublished,
		PostID:      post.ID,
		PracticeID:  post.PracticeID,
		Caption:     post.Caption,
		Platforms:   post.Platforms,
		MediaIDs:    attachmentIDs(attachments),
		PublishedAt: publishedAt,
	})
	if err != nil {
		return fmt.Errorf("encode post event: %w", err)
	}

	msg := &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_type":  EventPostPublished,
			"post_id":     post.ID.String(),
			"practice_id": post.PracticeID.String(),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := p.pub.Publish(publishCtx, msg)
	if result == nil {
		return fmt.Errorf("publisher returned nil result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return err
	}
	return nil
}
