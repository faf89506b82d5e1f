package tour

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redislib "github.com/redis/go-redis/v9"

	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
)

// State is the persisted guided-tour state for one user and tour. A tour is
// either closed or open at a concrete step; there is no implicit in-between.
type State struct {
	Open        bool       `json:"open"`
	Step        int        `json:"step"`
	Completed   bool       `json:"completed"`
	Dismissed   bool       `json:"dismissed"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Closed reports whether the tour overlay is not showing.
func (s State) Closed() bool {
	return !s.Open
}

// stateKV is the Redis surface the store needs.
type stateKV interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// stateKeyer builds the namespaced tour key.
type stateKeyer interface {
	TourStateKey(userID, tourName string) string
}

type stateStore struct {
	kv    stateKV
	keyer stateKeyer
	ttl   time.Duration
}

// load returns the stored state, or the zero (closed, step 0) state when the
// user has never interacted with the tour.
func (s *stateStore) load(ctx context.Context, userID, tourName string) (State, error) {
	raw, err := s.kv.Get(ctx, s.keyer.TourStateKey(userID, tourName))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return State{}, nil
		}
		return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load tour state")
	}

	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return State{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to decode tour state")
	}
	return state, nil
}

func (s *stateStore) save(ctx context.Context, userID, tourName string, state State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to encode tour state")
	}
	if err := s.kv.Set(ctx, s.keyer.TourStateKey(userID, tourName), payload, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to store tour state")
	}
	return nil
}

func (s *stateStore) delete(ctx context.Context, userID, tourName string) error {
	if err := s.kv.Del(ctx, s.keyer.TourStateKey(userID, tourName)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to clear tour state")
	}
	return nil
}
