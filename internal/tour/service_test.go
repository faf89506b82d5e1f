package tour

import (
	"context"
	"fmt"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"

	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
)

type memoryBackend struct {
	values map[string]string
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{values: map[string]string{}}
}

func (m *memoryBackend) Set(_ context.Context, key string, value any, _ time.Duration) error {
	switch v := value.(type) {
	case []byte:
		m.values[key] = string(v)
	case string:
		m.values[key] = v
	default:
		m.values[key] = fmt.Sprint(v)
	}
	return nil
}

func (m *memoryBackend) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (m *memoryBackend) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *memoryBackend) TourStateKey(userID, tourName string) string {
	return "od:tour:" + userID + ":" + tourName
}

func newTourService() *Service {
	return NewService(newMemoryBackend(), map[string]int{"dashboard-intro": 3})
}

func TestFreshTourIsClosed(t *testing.T) {
	t.Parallel()

	svc := newTourService()

	state, err := svc.Get(context.Background(), "u1", "dashboard-intro")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !state.Closed() || state.Step != 0 {
		t.Fatalf("expected closed fresh state, got %+v", state)
	}
}

func TestStartOpensAtFirstStep(t *testing.T) {
	t.Parallel()

	svc := newTourService()

	state, err := svc.Start(context.Background(), "u1", "dashboard-intro")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !state.Open || state.Step != 0 {
		t.Fatalf("expected open at step 0, got %+v", state)
	}
	if state.StartedAt == nil {
		t.Fatal("expected StartedAt set")
	}

	_, err = svc.Start(context.Background(), "u1", "dashboard-intro")
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict starting open tour, got %v", err)
	}
}

func TestNextPastLastStepCompletes(t *testing.T) {
	t.Parallel()

	svc := newTourService()
	ctx := context.Background()

	if _, err := svc.Start(ctx, "u1", "dashboard-intro"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	state, err := svc.Next(ctx, "u1", "dashboard-intro")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !state.Open || state.Step != 1 {
		t.Fatalf("expected open at step 1, got %+v", state)
	}

	if state, err = svc.Next(ctx, "u1", "dashboard-intro"); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if state.Step != 2 {
		t.Fatalf("expected step 2, got %+v", state)
	}

	// Advancing off the last step closes and completes.
	if state, err = svc.Next(ctx, "u1", "dashboard-intro"); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if state.Open || !state.Completed || state.CompletedAt == nil {
		t.Fatalf("expected completed closed state, got %+v", state)
	}

	_, err = svc.Next(ctx, "u1", "dashboard-intro")
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict advancing closed tour, got %v", err)
	}
}

func TestPrevAtFirstStepConflicts(t *testing.T) {
	t.Parallel()

	svc := newTourService()
	ctx := context.Background()

	if _, err := svc.Start(ctx, "u1", "dashboard-intro"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err := svc.Prev(ctx, "u1", "dashboard-intro")
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict at first step, got %v", err)
	}

	if _, err := svc.Next(ctx, "u1", "dashboard-intro"); err != nil {
		t.Fatalf("Next: %v", err)
	}
	state, err := svc.Prev(ctx, "u1", "dashboard-intro")
	if err != nil {
		t.Fatalf("Prev: %v", err)
	}
	if state.Step != 0 {
		t.Fatalf("expected step 0 after Prev, got %+v", state)
	}
}

func TestCloseDismissesAndRestarts(t *testing.T) {
	t.Parallel()

	svc := newTourService()
	ctx := context.Background()

	if _, err := svc.Start(ctx, "u1", "dashboard-intro"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := svc.Next(ctx, "u1", "dashboard-intro"); err != nil {
		t.Fatalf("Next: %v", err)
	}

	state, err := svc.Close(ctx, "u1", "dashboard-intro")
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if state.Open || !state.Dismissed {
		t.Fatalf("expected dismissed closed state, got %+v", state)
	}

	// A dismissed tour restarts from the first step, not where it left off.
	state, err = svc.Start(ctx, "u1", "dashboard-intro")
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if !state.Open || state.Step != 0 || state.Dismissed {
		t.Fatalf("expected fresh open state, got %+v", state)
	}
}

func TestResetClearsState(t *testing.T) {
	t.Parallel()

	svc := newTourService()
	ctx := context.Background()

	if _, err := svc.Start(ctx, "u1", "dashboard-intro"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := svc.Reset(ctx, "u1", "dashboard-intro"); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	state, err := svc.Get(ctx, "u1", "dashboard-intro")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !state.Closed() || state.StartedAt != nil {
		t.Fatalf("expected cleared state, got %+v", state)
	}
}

func TestUnknownTour(t *testing.T) {
	t.Parallel()

	svc := newTourService()

	_, err := svc.Start(context.Background(), "u1", "nonexistent")
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
