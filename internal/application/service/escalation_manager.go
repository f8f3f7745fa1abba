package service

import (
	"alertflow/internal/application/common/slogger"
	"alertflow/internal/config"
	"alertflow/internal/domain/entity"
	"alertflow/internal/domain/valueobject"
	"alertflow/internal/port/outbound"
	"context"
	"fmt"
	"time"
)

// EscalationManager drives the per-fingerprint escalation state machine.
// Levels only move upward within an incident window; the cooldown reset is
// the single downgrade path. Evaluate is idempotent: repeated calls with
// unchanged inputs leave the state unchanged.
type EscalationManager struct {
	store                outbound.EscalationStateStore
	occurrenceThreshold  int
	consecutiveFailures  int
	cooldown             time.Duration
	highImpactCategories map[string]struct{}
}

// EscalationResult reports the outcome of one Evaluate call.
type EscalationResult struct {
	State   *entity.EscalationState
	Raised  bool
	IsReset bool
}

// NewEscalationManager creates an escalation manager from configuration.
func NewEscalationManager(store outbound.EscalationStateStore, cfg config.EscalationConfig) *EscalationManager {
	highImpact := make(map[string]struct{}, len(cfg.HighImpactCategories))
	for _, category := range cfg.HighImpactCategories {
		highImpact[category] = struct{}{}
	}
	return &EscalationManager{
		store:                store,
		occurrenceThreshold:  cfg.OccurrenceThreshold,
		consecutiveFailures:  cfg.ConsecutiveFailureThreshold,
		cooldown:             cfg.Cooldown,
		highImpactCategories: highImpact,
	}
}

// Evaluate applies the escalation rules for one observed event and its
// attempt history, persisting and returning the resulting state.
func (m *EscalationManager) Evaluate(
	ctx context.Context,
	event *entity.ErrorEvent,
	classification valueobject.Classification,
	attempts []*entity.ResolutionAttempt,
) (*EscalationResult, error) {
	now := time.Now()
	fp := event.Fingerprint()

	state, err := m.store.GetEscalationState(ctx, fp)
	if err != nil {
		return nil, fmt.Errorf("failed to load escalation state: %w", err)
	}

	result := &EscalationResult{}
	if state == nil {
		state, err = entity.NewEscalationState(fp)
		if err != nil {
			return nil, err
		}
	} else if state.Level() != valueobject.EscalationLevelNone && state.CooldownExpired(m.cooldown, now) {
		// Quiet for the whole cooldown period: this occurrence opens a new
		// incident window.
		if resetErr := state.Reset("cooldown expired", now); resetErr == nil {
			result.IsReset = true
			slogger.Info(ctx, "Escalation state reset after cooldown", slogger.Fields{
				"fingerprint": fp.String(),
			})
		}
	}

	state.Observe(event.LastSeen())

	if level, reason := m.requiredLevel(event, classification, attempts); level > state.Level() {
		if state.RaiseTo(level, reason, now) {
			result.Raised = true
			slogger.Warn(ctx, "Escalation level raised", slogger.Fields3(
				"fingerprint", fp.String(),
				"level", state.Level().String(),
				"reason", reason,
			))
		}
	}

	if err := m.store.SaveEscalationState(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save escalation state: %w", err)
	}

	result.State = state
	return result, nil
}

// requiredLevel computes the minimum level demanded by the triggers. Each
// trigger maps to a floor; the highest floor wins.
func (m *EscalationManager) requiredLevel(
	event *entity.ErrorEvent,
	classification valueobject.Classification,
	attempts []*entity.ResolutionAttempt,
) (valueobject.EscalationLevel, string) {
	level := valueobject.EscalationLevelNone
	reason := ""

	raise := func(min valueobject.EscalationLevel, why string) {
		if min > level {
			level = min
			reason = why
		}
	}

	if event.OccurrenceCount() > m.occurrenceThreshold {
		raise(valueobject.EscalationLevelNotify,
			fmt.Sprintf("occurrence count %d exceeded threshold %d", event.OccurrenceCount(), m.occurrenceThreshold))
	}

	if failures := trailingFailures(attempts); failures >= m.consecutiveFailures {
		raise(valueobject.EscalationLevelOnCall,
			fmt.Sprintf("%d consecutive resolution failures", failures))
	}

	if _, highImpact := m.highImpactCategories[classification.Category]; highImpact {
		raise(valueobject.EscalationLevelOnCall,
			fmt.Sprintf("high business impact category %s", classification.Category))
	} else if classification.HighBusinessImpact {
		raise(valueobject.EscalationLevelOnCall,
			fmt.Sprintf("high business impact pattern %s", classification.MatchedPatternID))
	}

	if event.Level().IsFatal() {
		raise(valueobject.EscalationLevelCritical, "fatal severity event")
	}

	return level, reason
}

// trailingFailures counts the consecutive failed attempts at the tail of the
// history. Attempts that never executed do not break or extend the streak.
func trailingFailures(attempts []*entity.ResolutionAttempt) int {
	failures := 0
	for i := len(attempts) - 1; i >= 0; i-- {
		outcome := attempts[i].Outcome()
		if outcome.CountsAsFailure() {
			failures++
			continue
		}
		if outcome.Executed() {
			break
		}
		// Skipped attempts are neutral.
	}
	return failures
}

// ApproveEscalation raises the state one tier after an operator approves a
// pending escalation. The new tier becomes the floor for the incident window.
func (m *EscalationManager) ApproveEscalation(ctx context.Context, fp valueobject.Fingerprint, actor string) error {
	state, err := m.store.GetEscalationState(ctx, fp)
	if err != nil {
		return fmt.Errorf("failed to load escalation state: %w", err)
	}
	if state == nil {
		return fmt.Errorf("no escalation state for fingerprint %s", fp.String())
	}
	if state.Level().IsTerminal() {
		return nil
	}

	next, err := valueobject.NewEscalationLevel(state.Level().Int() + 1)
	if err != nil {
		return err
	}
	if !state.RaiseTo(next, fmt.Sprintf("approved by %s", actor), time.Now()) {
		return nil
	}
	return m.store.SaveEscalationState(ctx, state)
}

// ClearFingerprint resets the escalation state after an operator marks the
// incident resolved.
func (m *EscalationManager) ClearFingerprint(ctx context.Context, fp valueobject.Fingerprint) error {
	state, err := m.store.GetEscalationState(ctx, fp)
	if err != nil {
		return fmt.Errorf("failed to load escalation state: %w", err)
	}
	if state == nil || state.Level() == valueobject.EscalationLevelNone {
		return nil
	}
	if err := state.Reset("marked resolved", time.Now()); err != nil {
		return err
	}
	return m.store.SaveEscalationState(ctx, state)
}
