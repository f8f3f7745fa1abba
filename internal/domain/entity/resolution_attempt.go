package entity

import (
	"alertflow/internal/domain/valueobject"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ResolutionAttempt records one execution (or deliberate non-execution) of a
// remediation strategy against a fingerprint. An attempt is mutable only
// between Start and Finish; once finished it is immutable and appended to the
// audit trail.
type ResolutionAttempt struct {
	id               uuid.UUID
	fingerprint      valueobject.Fingerprint
	strategyID       string
	startedAt        time.Time
	finishedAt       time.Time
	outcome          valueobject.AttemptOutcome
	confidenceAtTime valueobject.Confidence
	safetyLevel      valueobject.SafetyLevel
	detail           string
	finished         bool
}

// NewResolutionAttempt creates a started attempt for the given fingerprint.
// The strategy ID may be empty for attempts that were skipped before
// selection.
func NewResolutionAttempt(
	fingerprint valueobject.Fingerprint,
	strategyID string,
	confidence valueobject.Confidence,
	safetyLevel valueobject.SafetyLevel,
) (*ResolutionAttempt, error) {
	if fingerprint.IsZero() {
		return nil, errors.New("resolution_attempt: fingerprint is required")
	}

	return &ResolutionAttempt{
		id:               uuid.New(),
		fingerprint:      fingerprint,
		strategyID:       strategyID,
		startedAt:        time.Now(),
		confidenceAtTime: confidence,
		safetyLevel:      safetyLevel,
	}, nil
}

// Finish marks the attempt terminal with the given outcome and detail.
// Finishing twice is an error: attempts are immutable once finished.
func (a *ResolutionAttempt) Finish(outcome valueobject.AttemptOutcome, detail string) error {
	if a.finished {
		return errors.New("resolution_attempt: already finished")
	}
	a.outcome = outcome
	a.detail = detail
	a.finishedAt = time.Now()
	a.finished = true
	return nil
}

// ID returns the unique attempt identifier.
func (a *ResolutionAttempt) ID() uuid.UUID {
	return a.id
}

// Fingerprint returns the fingerprint this attempt targeted.
func (a *ResolutionAttempt) Fingerprint() valueobject.Fingerprint {
	return a.fingerprint
}

// StrategyID returns the selected strategy identifier, or "" if none was
// selected before the attempt was skipped.
func (a *ResolutionAttempt) StrategyID() string {
	return a.strategyID
}

// StartedAt returns when the attempt started.
func (a *ResolutionAttempt) StartedAt() time.Time {
	return a.startedAt
}

// FinishedAt returns when the attempt finished; zero while in flight.
func (a *ResolutionAttempt) FinishedAt() time.Time {
	return a.finishedAt
}

// Outcome returns the terminal outcome; zero value while in flight.
func (a *ResolutionAttempt) Outcome() valueobject.AttemptOutcome {
	return a.outcome
}

// ConfidenceAtTime returns the classification confidence when the attempt
// was made.
func (a *ResolutionAttempt) ConfidenceAtTime() valueobject.Confidence {
	return a.confidenceAtTime
}

// SafetyLevel returns the safety level of the selected strategy.
func (a *ResolutionAttempt) SafetyLevel() valueobject.SafetyLevel {
	return a.safetyLevel
}

// Detail returns the free-text outcome detail.
func (a *ResolutionAttempt) Detail() string {
	return a.detail
}

// IsFinished returns true once the attempt has a terminal outcome.
func (a *ResolutionAttempt) IsFinished() bool {
	return a.finished
}

// RehydrateResolutionAttempt reconstructs a finished attempt from storage.
func RehydrateResolutionAttempt(
	id uuid.UUID,
	fingerprint valueobject.Fingerprint,
	strategyID string,
	startedAt time.Time,
	finishedAt time.Time,
	outcome valueobject.AttemptOutcome,
	confidence valueobject.Confidence,
	safetyLevel valueobject.SafetyLevel,
	detail string,
) *ResolutionAttempt {
	return &ResolutionAttempt{
		id:               id,
		fingerprint:      fingerprint,
		strategyID:       strategyID,
		startedAt:        startedAt,
		finishedAt:       finishedAt,
		outcome:          outcome,
		confidenceAtTime: confidence,
		safetyLevel:      safetyLevel,
		detail:           detail,
		finished:         true,
	}
}
