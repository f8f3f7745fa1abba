package postgres

import (
	"alertflow/internal/domain/entity"
	"alertflow/internal/domain/valueobject"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrInvalidArgument is returned when a caller passes a nil or zero-valued
// argument to a store operation.
var ErrInvalidArgument = errors.New("invalid argument")

// OrchestrationStore persists resolution attempts, escalation states and
// cycle summaries in PostgreSQL.
type OrchestrationStore struct {
	pool *pgxpool.Pool
}

// NewOrchestrationStore creates a PostgreSQL-backed orchestration store.
func NewOrchestrationStore(pool *pgxpool.Pool) *OrchestrationStore {
	return &OrchestrationStore{pool: pool}
}

// SaveAttempt appends one finished resolution attempt to the audit trail.
func (s *OrchestrationStore) SaveAttempt(ctx context.Context, attempt *entity.ResolutionAttempt) error {
	if attempt == nil {
		return ErrInvalidArgument
	}

	query := `
		INSERT INTO alertflow.resolution_attempts (
			id, fingerprint, strategy_id, started_at, finished_at,
			outcome, confidence, safety_level, detail
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)`

	_, err := s.pool.Exec(ctx, query,
		attempt.ID(),
		attempt.Fingerprint().String(),
		attempt.StrategyID(),
		attempt.StartedAt(),
		attempt.FinishedAt(),
		attempt.Outcome().String(),
		attempt.ConfidenceAtTime().Float(),
		attempt.SafetyLevel().String(),
		attempt.Detail(),
	)
	if err != nil {
		return WrapError(err, "save resolution attempt")
	}
	return nil
}

// GetAttempts returns the attempt history for one fingerprint in start
// order.
func (s *OrchestrationStore) GetAttempts(
	ctx context.Context,
	fp valueobject.Fingerprint,
) ([]*entity.ResolutionAttempt, error) {
	query := `
		SELECT id, fingerprint, strategy_id, started_at, finished_at,
			   outcome, confidence, safety_level, detail
		FROM alertflow.resolution_attempts
		WHERE fingerprint = $1
		ORDER BY started_at ASC`

	rows, err := s.pool.Query(ctx, query, fp.String())
	if err != nil {
		return nil, WrapError(err, "get resolution attempts")
	}
	defer rows.Close()

	var attempts []*entity.ResolutionAttempt
	for rows.Next() {
		attempt, scanErr := scanAttempt(rows)
		if scanErr != nil {
			return nil, WrapError(scanErr, "scan resolution attempt")
		}
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, WrapError(err, "get resolution attempts")
	}
	return attempts, nil
}

func scanAttempt(rows pgx.Rows) (*entity.ResolutionAttempt, error) {
	var (
		id                    uuid.UUID
		fingerprintStr        string
		strategyID            string
		startedAt, finishedAt time.Time
		outcomeStr            string
		confidenceValue       float64
		safetyStr             string
		detail                string
	)
	if err := rows.Scan(&id, &fingerprintStr, &strategyID, &startedAt, &finishedAt,
		&outcomeStr, &confidenceValue, &safetyStr, &detail); err != nil {
		return nil, err
	}

	fingerprint, err := valueobject.FingerprintFromString(fingerprintStr)
	if err != nil {
		return nil, fmt.Errorf("invalid stored fingerprint: %w", err)
	}
	outcome, err := valueobject.NewAttemptOutcome(outcomeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid stored outcome: %w", err)
	}
	confidence, err := valueobject.NewConfidence(confidenceValue)
	if err != nil {
		return nil, fmt.Errorf("invalid stored confidence: %w", err)
	}
	safety, err := valueobject.NewSafetyLevel(safetyStr)
	if err != nil {
		return nil, fmt.Errorf("invalid stored safety level: %w", err)
	}

	return entity.RehydrateResolutionAttempt(
		id, fingerprint, strategyID, startedAt, finishedAt,
		outcome, confidence, safety, detail), nil
}

// SaveEscalationState upserts the escalation state for a fingerprint.
func (s *OrchestrationStore) SaveEscalationState(ctx context.Context, state *entity.EscalationState) error {
	if state == nil {
		return ErrInvalidArgument
	}

	query := `
		INSERT INTO alertflow.escalation_states (
			fingerprint, level, last_escalated_at, last_observed_at, trigger_reason
		) VALUES (
			$1, $2, $3, $4, $5
		)
		ON CONFLICT (fingerprint) DO UPDATE SET
			level = EXCLUDED.level,
			last_escalated_at = EXCLUDED.last_escalated_at,
			last_observed_at = EXCLUDED.last_observed_at,
			trigger_reason = EXCLUDED.trigger_reason`

	_, err := s.pool.Exec(ctx, query,
		state.Fingerprint().String(),
		int(state.Level()),
		state.LastEscalatedAt(),
		state.LastObservedAt(),
		state.TriggerReason(),
	)
	if err != nil {
		return WrapError(err, "save escalation state")
	}
	return nil
}

// GetEscalationState returns the state for a fingerprint, or nil when the
// fingerprint has never escalated.
func (s *OrchestrationStore) GetEscalationState(
	ctx context.Context,
	fp valueobject.Fingerprint,
) (*entity.EscalationState, error) {
	query := `
		SELECT fingerprint, level, last_escalated_at, last_observed_at, trigger_reason
		FROM alertflow.escalation_states
		WHERE fingerprint = $1`

	state, err := scanEscalationState(s.pool.QueryRow(ctx, query, fp.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, WrapError(err, "get escalation state")
	}
	return state, nil
}

// ListEscalationStates returns all stored escalation states.
func (s *OrchestrationStore) ListEscalationStates(ctx context.Context) ([]*entity.EscalationState, error) {
	query := `
		SELECT fingerprint, level, last_escalated_at, last_observed_at, trigger_reason
		FROM alertflow.escalation_states
		ORDER BY fingerprint ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, WrapError(err, "list escalation states")
	}
	defer rows.Close()

	var states []*entity.EscalationState
	for rows.Next() {
		state, scanErr := scanEscalationState(rows)
		if scanErr != nil {
			return nil, WrapError(scanErr, "scan escalation state")
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, WrapError(err, "list escalation states")
	}
	return states, nil
}

func scanEscalationState(row pgx.Row) (*entity.EscalationState, error) {
	var (
		fingerprintStr                  string
		levelValue                      int
		lastEscalatedAt, lastObservedAt time.Time
		triggerReason                   string
	)
	if err := row.Scan(&fingerprintStr, &levelValue, &lastEscalatedAt, &lastObservedAt, &triggerReason); err != nil {
		return nil, err
	}

	fingerprint, err := valueobject.FingerprintFromString(fingerprintStr)
	if err != nil {
		return nil, fmt.Errorf("invalid stored fingerprint: %w", err)
	}
	level, err := valueobject.NewEscalationLevel(levelValue)
	if err != nil {
		return nil, fmt.Errorf("invalid stored escalation level: %w", err)
	}

	return entity.RehydrateEscalationState(
		fingerprint, level, lastEscalatedAt, lastObservedAt, triggerReason), nil
}

// SaveCycleSummary persists the summary of one orchestration cycle.
func (s *OrchestrationStore) SaveCycleSummary(ctx context.Context, summary *entity.CycleSummary) error {
	if summary == nil {
		return ErrInvalidArgument
	}

	query := `
		INSERT INTO alertflow.cycle_summaries (
			cycle_id, started_at, finished_at, events_processed,
			resolutions_applied, escalations_raised, failures, source_error
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)`

	_, err := s.pool.Exec(ctx, query,
		summary.CycleID(),
		summary.StartedAt(),
		summary.FinishedAt(),
		summary.EventsProcessed(),
		summary.ResolutionsApplied(),
		summary.EscalationsRaised(),
		summary.Failures(),
		summary.SourceError(),
	)
	if err != nil {
		return WrapError(err, "save cycle summary")
	}
	return nil
}

// GetCycleSummary returns one cycle summary by its identifier.
func (s *OrchestrationStore) GetCycleSummary(ctx context.Context, cycleID uuid.UUID) (*entity.CycleSummary, error) {
	if cycleID == uuid.Nil {
		return nil, ErrInvalidArgument
	}

	query := `
		SELECT cycle_id, started_at, finished_at, events_processed,
			   resolutions_applied, escalations_raised, failures, source_error
		FROM alertflow.cycle_summaries
		WHERE cycle_id = $1`

	var (
		id                    uuid.UUID
		startedAt, finishedAt time.Time
		eventsProcessed       int
		resolutionsApplied    int
		escalationsRaised     int
		failures              int
		sourceError           string
	)
	err := s.pool.QueryRow(ctx, query, cycleID).Scan(
		&id, &startedAt, &finishedAt, &eventsProcessed,
		&resolutionsApplied, &escalationsRaised, &failures, &sourceError)
	if err != nil {
		return nil, WrapError(err, "get cycle summary")
	}

	return entity.RehydrateCycleSummary(
		id, startedAt, finishedAt, eventsProcessed,
		resolutionsApplied, escalationsRaised, failures, sourceError), nil
}
