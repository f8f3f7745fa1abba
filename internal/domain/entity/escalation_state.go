package entity

import (
	"alertflow/internal/domain/valueobject"
	"errors"
	"fmt"
	"time"
)

// EscalationState tracks per-fingerprint escalation progress. The level is
// monotonically non-decreasing within an incident window; the only downward
// transition is the cooldown reset back to level zero.
type EscalationState struct {
	fingerprint     valueobject.Fingerprint
	level           valueobject.EscalationLevel
	lastEscalatedAt time.Time
	lastObservedAt  time.Time
	triggerReason   string
}

// NewEscalationState creates the initial (level zero) state for a
// fingerprint.
func NewEscalationState(fingerprint valueobject.Fingerprint) (*EscalationState, error) {
	if fingerprint.IsZero() {
		return nil, errors.New("escalation_state: fingerprint is required")
	}
	return &EscalationState{
		fingerprint: fingerprint,
		level:       valueobject.EscalationLevelNone,
	}, nil
}

// Fingerprint returns the fingerprint this state belongs to.
func (s *EscalationState) Fingerprint() valueobject.Fingerprint {
	return s.fingerprint
}

// Level returns the current escalation level.
func (s *EscalationState) Level() valueobject.EscalationLevel {
	return s.level
}

// LastEscalatedAt returns when the level last advanced; zero if never.
func (s *EscalationState) LastEscalatedAt() time.Time {
	return s.lastEscalatedAt
}

// LastObservedAt returns when the fingerprint last produced an occurrence.
func (s *EscalationState) LastObservedAt() time.Time {
	return s.lastObservedAt
}

// TriggerReason returns the reason recorded for the last escalation.
func (s *EscalationState) TriggerReason() string {
	return s.triggerReason
}

// Observe records a new occurrence of the fingerprint without changing the
// level. Keeping the observation timestamp current is what arms and disarms
// the cooldown reset.
func (s *EscalationState) Observe(at time.Time) {
	if at.After(s.lastObservedAt) {
		s.lastObservedAt = at
	}
}

// RaiseTo advances the level to at least minimum. Raising to a level at or
// below the current one is a no-op, keeping Evaluate idempotent. Returns true
// if the level changed.
func (s *EscalationState) RaiseTo(minimum valueobject.EscalationLevel, reason string, at time.Time) bool {
	if minimum <= s.level {
		return false
	}
	s.level = minimum
	s.triggerReason = reason
	s.lastEscalatedAt = at
	return true
}

// CooldownExpired returns true if the fingerprint has produced no occurrence
// for at least the given cooldown period.
func (s *EscalationState) CooldownExpired(cooldown time.Duration, now time.Time) bool {
	if s.lastObservedAt.IsZero() {
		return false
	}
	return now.Sub(s.lastObservedAt) >= cooldown
}

// Reset clears the state back to level zero after a cooldown or a manual
// resolution. Returns an error if the state is already at level zero.
func (s *EscalationState) Reset(reason string, at time.Time) error {
	if s.level == valueobject.EscalationLevelNone {
		return fmt.Errorf("escalation_state: %s already at level zero", s.fingerprint.String())
	}
	s.level = valueobject.EscalationLevelNone
	s.triggerReason = reason
	s.lastEscalatedAt = at
	return nil
}

// RehydrateEscalationState reconstructs a state from storage.
func RehydrateEscalationState(
	fingerprint valueobject.Fingerprint,
	level valueobject.EscalationLevel,
	lastEscalatedAt time.Time,
	lastObservedAt time.Time,
	triggerReason string,
) *EscalationState {
	return &EscalationState{
		fingerprint:     fingerprint,
		level:           level,
		lastEscalatedAt: lastEscalatedAt,
		lastObservedAt:  lastObservedAt,
		triggerReason:   triggerReason,
	}
}
