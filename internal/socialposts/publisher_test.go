package socialposts

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
	dbtypes "github.com/orthodeskhq/orthodesk-backend/pkg/db/types"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
	"github.com/orthodeskhq/orthodesk-backend/pkg/logger"
	"github.com/rs/zerolog"
)

type stubDueRepo struct {
	due       []models.SocialPost
	published []uuid.UUID
	failed    map[uuid.UUID]string
	claimable map[uuid.UUID]bool
}

func newStubDueRepo(due ...models.SocialPost) *stubDueRepo {
	r := &stubDueRepo{
		due:       due,
		failed:    map[uuid.UUID]string{},
		claimable: map[uuid.UUID]bool{},
	}
	for _, p := range due {
		r.claimable[p.ID] = true
	}
	return r
}

func (s *stubDueRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]models.SocialPost, error) {
	return s.due, nil
}

func (s *stubDueRepo) ListAttachments(ctx context.Context, postID uuid.UUID) ([]models.PostMedia, error) {
	return nil, nil
}

func (s *stubDueRepo) MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) (bool, error) {
	if !s.claimable[id] {
		return false, nil
	}
	s.claimable[id] = false
	s.published = append(s.published, id)
	return true, nil
}

func (s *stubDueRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	s.failed[id] = reason
	return nil
}

type stubResult struct {
	err error
}

func (s stubResult) Get(ctx context.Context) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "msg-1", nil
}

type stubPublisher struct {
	messages []*gcppubsub.Message
	errFor   map[string]error
}

func (s *stubPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) PublishResult {
	s.messages = append(s.messages, msg)
	if err, ok := s.errFor[msg.Attributes["post_id"]]; ok {
		return stubResult{err: err}
	}
	return stubResult{}
}

func duePost(practiceID uuid.UUID) models.SocialPost {
	at := time.Now().Add(-time.Minute)
	return models.SocialPost{
		ID:          uuid.New(),
		PracticeID:  practiceID,
		Caption:     "go time",
		Platforms:   dbtypes.StringArray{"facebook"},
		Status:      enums.PostStatusScheduled,
		ScheduledAt: &at,
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel})
}

func TestPublishDueAnnouncesAndMarks(t *testing.T) {
	t.Parallel()

	practiceID := uuid.New()
	post := duePost(practiceID)
	repo := newStubDueRepo(post)
	pub := &stubPublisher{}

	p, err := NewPublisher(repo, pub, testLogger(), 10)
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}

	n, err := p.PublishDue(context.Background())
	if err != nil {
		t.Fatalf("PublishDue: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 published, got %d", n)
	}
	if len(pub.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(pub.messages))
	}

	msg := pub.messages[0]
	if msg.Attributes["event_type"] != EventPostPublished {
		t.Fatalf("unexpected event type %q", msg.Attributes["event_type"])
	}
	var event PostEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.PostID != post.ID || event.PracticeID != practiceID {
		t.Fatalf("unexpected event %+v", event)
	}
}

func TestPublishDueMarksFailureAndContinues(t *testing.T) {
	t.Parallel()

	practiceID := uuid.New()
	bad := duePost(practiceID)
	good := duePost(practiceID)
	repo := newStubDueRepo(bad, good)
	pub := &stubPublisher{errFor: map[string]error{
		bad.ID.String(): errors.New("topic unavailable"),
	}}

	p, err := NewPublisher(repo, pub, testLogger(), 10)
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}

	n, err := p.PublishDue(context.Background())
	if err != nil {
		t.Fatalf("PublishDue: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 success, got %d", n)
	}
	if reason := repo.failed[bad.ID]; reason == "" {
		t.Fatal("failed post should record a reason")
	}
}

func TestPublishDueSkipsAlreadyClaimed(t *testing.T) {
	t.Parallel()

	post := duePost(uuid.New())
	repo := newStubDueRepo(post)
	repo.claimable[post.ID] = false
	pub := &stubPublisher{}

	p, err := NewPublisher(repo, pub, testLogger(), 10)
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}

	n, err := p.PublishDue(context.Background())
	if err != nil {
		t.Fatalf("PublishDue: %v", err)
	}
	if n != 0 || len(pub.messages) != 0 {
		t.Fatalf("claimed post must not be re-announced, got n=%d messages=%d", n, len(pub.messages))
	}
}
