package tour

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/orthodeskhq/orthodesk-backend/pkg/errors"
)

// StateBackend is the Redis surface the service needs.
type StateBackend interface {
	stateKV
	stateKeyer
}

// Service drives the guided product tours. Every transition goes through the
// explicit closed/open-at-step machine; there is no way to show the overlay
// without a concrete step.
type Service struct {
	store *stateStore
	tours map[string]int
}

// NewService constructs the tour service. tours maps each tour name to its
// step count. Tour state never expires on its own; a reset clears it.
func NewService(backend StateBackend, tours map[string]int) *Service {
	return &Service{
		store: &stateStore{kv: backend, keyer: backend, ttl: 0},
		tours: tours,
	}
}

// Get returns the current state for a user's tour.
func (s *Service) Get(ctx context.Context, userID, tourName string) (State, error) {
	if _, err := s.steps(tourName); err != nil {
		return State{}, err
	}
	return s.store.load(ctx, userID, tourName)
}

// Start opens the tour at its first step. A tour that is already open cannot
// be started again; completed or dismissed tours restart from the beginning.
func (s *Service) Start(ctx context.Context, userID, tourName string) (State, error) {
	if _, err := s.steps(tourName); err != nil {
		return State{}, err
	}
	state, err := s.store.load(ctx, userID, tourName)
	if err != nil {
		return State{}, err
	}
	if state.Open {
		return State{}, pkgerrors.New(pkgerrors.CodeStateConflict, "tour is already open")
	}

	now := time.Now().UTC()
	state = State{Open: true, Step: 0, StartedAt: &now}
	if err := s.store.save(ctx, userID, tourName, state); err != nil {
		return State{}, err
	}
	return state, nil
}

// Next advances an open tour one step. Advancing past the last step closes
// the tour and marks it completed.
func (s *Service) Next(ctx context.Context, userID, tourName string) (State, error) {
	steps, err := s.steps(tourName)
	if err != nil {
		return State{}, err
	}
	state, err := s.openState(ctx, userID, tourName)
	if err != nil {
		return State{}, err
	}

	if state.Step+1 >= steps {
		now := time.Now().UTC()
		state.Open = false
		state.Completed = true
		state.CompletedAt = &now
	} else {
		state.Step++
	}
	if err := s.store.save(ctx, userID, tourName, state); err != nil {
		return State{}, err
	}
	return state, nil
}

// Prev steps an open tour back one step. The first step has no predecessor.
func (s *Service) Prev(ctx context.Context, userID, tourName string) (State, error) {
	if _, err := s.steps(tourName); err != nil {
		return State{}, err
	}
	state, err := s.openState(ctx, userID, tourName)
	if err != nil {
		return State{}, err
	}
	if state.Step == 0 {
		return State{}, pkgerrors.New(pkgerrors.CodeStateConflict, "tour is already at its first step")
	}

	state.Step--
	if err := s.store.save(ctx, userID, tourName, state); err != nil {
		return State{}, err
	}
	return state, nil
}

// Close dismisses an open tour without completing it.
func (s *Service) Close(ctx context.Context, userID, tourName string) (State, error) {
	if _, err := s.steps(tourName); err != nil {
		return State{}, err
	}
	state, err := s.openState(ctx, userID, tourName)
	if err != nil {
		return State{}, err
	}

	state.Open = false
	state.Dismissed = true
	if err := s.store.save(ctx, userID, tourName, state); err != nil {
		return State{}, err
	}
	return state, nil
}

// Reset clears the stored state so the tour offers itself again.
func (s *Service) Reset(ctx context.Context, userID, tourName string) error {
	if _, err := s.steps(tourName); err != nil {
		return err
	}
	return s.store.delete(ctx, userID, tourName)
}

func (s *Service) steps(tourName string) (int, error) {
	steps, ok := s.tours[tourName]
	if !ok {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("unknown tour %q", tourName))
	}
	return steps, nil
}

func (s *Service) openState(ctx context.Context, userID, tourName string) (State, error) {
	state, err := s.store.load(ctx, userID, tourName)
	if err != nil {
		return State{}, err
	}
	if !state.Open {
		return State{}, pkgerrors.New(pkgerrors.CodeStateConflict, "tour is not open")
	}
	return state, nil
}
