package memory

import (
	"alertflow/internal/domain/entity"
	"alertflow/internal/domain/valueobject"
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Store is an in-memory OrchestrationStore. It backs tests and runs without
// a database; all methods are safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	attempts    map[valueobject.Fingerprint][]*entity.ResolutionAttempt
	escalations map[valueobject.Fingerprint]*entity.EscalationState
	cycles      map[uuid.UUID]*entity.CycleSummary
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		attempts:    make(map[valueobject.Fingerprint][]*entity.ResolutionAttempt),
		escalations: make(map[valueobject.Fingerprint]*entity.EscalationState),
		cycles:      make(map[uuid.UUID]*entity.CycleSummary),
	}
}

// SaveAttempt appends a finished attempt to the fingerprint's trail.
func (s *Store) SaveAttempt(_ context.Context, attempt *entity.ResolutionAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fp := attempt.Fingerprint()
	s.attempts[fp] = append(s.attempts[fp], attempt)
	return nil
}

// GetAttempts returns the attempts for a fingerprint ordered by start time.
func (s *Store) GetAttempts(
	_ context.Context,
	fingerprint valueobject.Fingerprint,
) ([]*entity.ResolutionAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempts := make([]*entity.ResolutionAttempt, len(s.attempts[fingerprint]))
	copy(attempts, s.attempts[fingerprint])
	sort.SliceStable(attempts, func(i, j int) bool {
		return attempts[i].StartedAt().Before(attempts[j].StartedAt())
	})
	return attempts, nil
}

// SaveEscalationState upserts the state for its fingerprint.
func (s *Store) SaveEscalationState(_ context.Context, state *entity.EscalationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.escalations[state.Fingerprint()] = state
	return nil
}

// GetEscalationState returns the state for a fingerprint, or nil when the
// fingerprint has never been observed.
func (s *Store) GetEscalationState(
	_ context.Context,
	fingerprint valueobject.Fingerprint,
) (*entity.EscalationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.escalations[fingerprint], nil
}

// ListEscalationStates returns all tracked states.
func (s *Store) ListEscalationStates(_ context.Context) ([]*entity.EscalationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	states := make([]*entity.EscalationState, 0, len(s.escalations))
	for _, state := range s.escalations {
		states = append(states, state)
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].Fingerprint().String() < states[j].Fingerprint().String()
	})
	return states, nil
}

// SaveCycleSummary stores a finished cycle summary.
func (s *Store) SaveCycleSummary(_ context.Context, summary *entity.CycleSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles[summary.CycleID()] = summary
	return nil
}

// GetCycleSummary returns a summary by cycle ID, or nil when unknown.
func (s *Store) GetCycleSummary(_ context.Context, cycleID uuid.UUID) (*entity.CycleSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cycles[cycleID], nil
}
