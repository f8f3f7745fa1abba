package outbound

import (
	"alertflow/internal/domain/entity"
	"alertflow/internal/domain/valueobject"
	"context"

	"github.com/google/uuid"
)

// AuditStore persists the append-only resolution attempt trail keyed by
// fingerprint. Attempts are immutable once saved.
type AuditStore interface {
	// SaveAttempt appends a finished attempt to the trail.
	SaveAttempt(ctx context.Context, attempt *entity.ResolutionAttempt) error

	// GetAttempts returns all recorded attempts for a fingerprint ordered by
	// start time ascending.
	GetAttempts(ctx context.Context, fingerprint valueobject.Fingerprint) ([]*entity.ResolutionAttempt, error)
}

// EscalationStateStore persists per-fingerprint escalation progress. Writes
// for the same fingerprint are serialized by the orchestrator.
type EscalationStateStore interface {
	// SaveEscalationState upserts the state for its fingerprint.
	SaveEscalationState(ctx context.Context, state *entity.EscalationState) error

	// GetEscalationState returns the state for a fingerprint, or nil when the
	// fingerprint has never been observed.
	GetEscalationState(ctx context.Context, fingerprint valueobject.Fingerprint) (*entity.EscalationState, error)

	// ListEscalationStates returns all tracked states.
	ListEscalationStates(ctx context.Context) ([]*entity.EscalationState, error)
}

// CycleSummaryStore persists per-cycle run history.
type CycleSummaryStore interface {
	// SaveCycleSummary stores a finished cycle summary.
	SaveCycleSummary(ctx context.Context, summary *entity.CycleSummary) error

	// GetCycleSummary returns a summary by cycle ID, or nil when unknown.
	GetCycleSummary(ctx context.Context, cycleID uuid.UUID) (*entity.CycleSummary, error)
}

// OrchestrationStore bundles the three persistence concerns the orchestrator
// owns. Adapters implement all of them against one backing store.
type OrchestrationStore interface {
	AuditStore
	EscalationStateStore
	CycleSummaryStore
}
