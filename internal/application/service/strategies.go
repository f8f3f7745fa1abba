package service

import (
	"alertflow/internal/domain/valueobject"
	"alertflow/internal/port/outbound"
	"context"
	"fmt"
	"strings"
)

// Built-in remediation strategies. Each one acts through the ActionRunner
// port so its effects stay testable and the same strategy works against any
// runbook backend.

// RestartDBPoolStrategy restarts the database connection pool of the affected
// service.
type RestartDBPoolStrategy struct {
	runner outbound.ActionRunner
}

// NewRestartDBPoolStrategy creates the restart_db_pool strategy.
func NewRestartDBPoolStrategy(runner outbound.ActionRunner) *RestartDBPoolStrategy {
	return &RestartDBPoolStrategy{runner: runner}
}

func (s *RestartDBPoolStrategy) Name() string { return "restart_db_pool" }

func (s *RestartDBPoolStrategy) SafetyLevel() valueobject.SafetyLevel {
	return valueobject.SafetyLevelSafe
}

func (s *RestartDBPoolStrategy) Confidence() valueobject.Confidence {
	return valueobject.Confidence(0.85)
}

func (s *RestartDBPoolStrategy) IsApplicable(_ context.Context, sc outbound.StrategyContext) bool {
	return sc.Classification.Category == "database"
}

func (s *RestartDBPoolStrategy) Execute(ctx context.Context, sc outbound.StrategyContext) (outbound.StrategyResult, error) {
	out, err := s.runner.Run(ctx, "restart_db_pool", map[string]string{
		"environment": sc.Event.Environment(),
		"fingerprint": sc.Fingerprint.String(),
	})
	if err != nil {
		return outbound.StrategyResult{}, fmt.Errorf("restart_db_pool: %w", err)
	}
	return outbound.StrategyResult{Success: true, Message: out}, nil
}

func (s *RestartDBPoolStrategy) Rollback(_ context.Context, _ outbound.StrategyContext) (outbound.StrategyResult, error) {
	// A pool restart has no previous state to restore.
	return outbound.StrategyResult{}, fmt.Errorf("restart_db_pool: rollback not supported")
}

func (s *RestartDBPoolStrategy) SupportsRollback() bool { return false }

// ClearConnectionBacklogStrategy drops queued connections so the affected
// service can recover. Riskier than a pool restart because in-flight work is
// discarded.
type ClearConnectionBacklogStrategy struct {
	runner outbound.ActionRunner
}

// NewClearConnectionBacklogStrategy creates the clear_connection_backlog strategy.
func NewClearConnectionBacklogStrategy(runner outbound.ActionRunner) *ClearConnectionBacklogStrategy {
	return &ClearConnectionBacklogStrategy{runner: runner}
}

func (s *ClearConnectionBacklogStrategy) Name() string { return "clear_connection_backlog" }

func (s *ClearConnectionBacklogStrategy) SafetyLevel() valueobject.SafetyLevel {
	return valueobject.SafetyLevelRisky
}

func (s *ClearConnectionBacklogStrategy) Confidence() valueobject.Confidence {
	return valueobject.Confidence(0.7)
}

func (s *ClearConnectionBacklogStrategy) IsApplicable(_ context.Context, sc outbound.StrategyContext) bool {
	if sc.Classification.Category != "database" && sc.Classification.Category != "network" {
		return false
	}
	return strings.Contains(strings.ToLower(sc.Event.Message()), "connection")
}

func (s *ClearConnectionBacklogStrategy) Execute(ctx context.Context, sc outbound.StrategyContext) (outbound.StrategyResult, error) {
	out, err := s.runner.Run(ctx, "clear_connection_backlog", map[string]string{
		"environment": sc.Event.Environment(),
		"fingerprint": sc.Fingerprint.String(),
	})
	if err != nil {
		return outbound.StrategyResult{}, fmt.Errorf("clear_connection_backlog: %w", err)
	}
	return outbound.StrategyResult{Success: true, Message: out}, nil
}

func (s *ClearConnectionBacklogStrategy) Rollback(ctx context.Context, sc outbound.StrategyContext) (outbound.StrategyResult, error) {
	out, err := s.runner.Run(ctx, "restore_connection_backlog", map[string]string{
		"environment": sc.Event.Environment(),
		"fingerprint": sc.Fingerprint.String(),
	})
	if err != nil {
		return outbound.StrategyResult{}, fmt.Errorf("clear_connection_backlog rollback: %w", err)
	}
	return outbound.StrategyResult{Success: true, Message: out}, nil
}

func (s *ClearConnectionBacklogStrategy) SupportsRollback() bool { return true }

// FlushStaleCacheStrategy invalidates cache entries implicated in application
// errors.
type FlushStaleCacheStrategy struct {
	runner outbound.ActionRunner
}

// NewFlushStaleCacheStrategy creates the flush_stale_cache strategy.
func NewFlushStaleCacheStrategy(runner outbound.ActionRunner) *FlushStaleCacheStrategy {
	return &FlushStaleCacheStrategy{runner: runner}
}

func (s *FlushStaleCacheStrategy) Name() string { return "flush_stale_cache" }

func (s *FlushStaleCacheStrategy) SafetyLevel() valueobject.SafetyLevel {
	return valueobject.SafetyLevelSafe
}

func (s *FlushStaleCacheStrategy) Confidence() valueobject.Confidence {
	return valueobject.Confidence(0.8)
}

func (s *FlushStaleCacheStrategy) IsApplicable(_ context.Context, sc outbound.StrategyContext) bool {
	if sc.Classification.Category != "application" {
		return false
	}
	msg := strings.ToLower(sc.Event.Message())
	return strings.Contains(msg, "cache") || strings.Contains(msg, "stale")
}

func (s *FlushStaleCacheStrategy) Execute(ctx context.Context, sc outbound.StrategyContext) (outbound.StrategyResult, error) {
	out, err := s.runner.Run(ctx, "flush_stale_cache", map[string]string{
		"environment": sc.Event.Environment(),
		"fingerprint": sc.Fingerprint.String(),
	})
	if err != nil {
		return outbound.StrategyResult{}, fmt.Errorf("flush_stale_cache: %w", err)
	}
	return outbound.StrategyResult{Success: true, Message: out}, nil
}

func (s *FlushStaleCacheStrategy) Rollback(_ context.Context, _ outbound.StrategyContext) (outbound.StrategyResult, error) {
	// Flushed entries repopulate on demand.
	return outbound.StrategyResult{}, fmt.Errorf("flush_stale_cache: rollback not supported")
}

func (s *FlushStaleCacheStrategy) SupportsRollback() bool { return false }

// FailoverDatabaseStrategy promotes a replica. Never auto-executed: failover
// is operator-approved only, so the engine records it as a manual suggestion.
type FailoverDatabaseStrategy struct {
	runner outbound.ActionRunner
}

// NewFailoverDatabaseStrategy creates the failover_database strategy.
func NewFailoverDatabaseStrategy(runner outbound.ActionRunner) *FailoverDatabaseStrategy {
	return &FailoverDatabaseStrategy{runner: runner}
}

func (s *FailoverDatabaseStrategy) Name() string { return "failover_database" }

func (s *FailoverDatabaseStrategy) SafetyLevel() valueobject.SafetyLevel {
	return valueobject.SafetyLevelManualOnly
}

func (s *FailoverDatabaseStrategy) Confidence() valueobject.Confidence {
	return valueobject.Confidence(0.95)
}

func (s *FailoverDatabaseStrategy) IsApplicable(_ context.Context, sc outbound.StrategyContext) bool {
	return sc.Classification.Category == "database" && sc.Event.Level().IsFatal()
}

func (s *FailoverDatabaseStrategy) Execute(ctx context.Context, sc outbound.StrategyContext) (outbound.StrategyResult, error) {
	out, err := s.runner.Run(ctx, "failover_database", map[string]string{
		"environment": sc.Event.Environment(),
		"fingerprint": sc.Fingerprint.String(),
	})
	if err != nil {
		return outbound.StrategyResult{}, fmt.Errorf("failover_database: %w", err)
	}
	return outbound.StrategyResult{Success: true, Message: out}, nil
}

func (s *FailoverDatabaseStrategy) Rollback(ctx context.Context, sc outbound.StrategyContext) (outbound.StrategyResult, error) {
	out, err := s.runner.Run(ctx, "failback_database", map[string]string{
		"environment": sc.Event.Environment(),
		"fingerprint": sc.Fingerprint.String(),
	})
	if err != nil {
		return outbound.StrategyResult{}, fmt.Errorf("failover_database rollback: %w", err)
	}
	return outbound.StrategyResult{Success: true, Message: out}, nil
}

func (s *FailoverDatabaseStrategy) SupportsRollback() bool { return true }

// RegisterBuiltinStrategies registers the built-in strategy set against the
// given runner.
func RegisterBuiltinStrategies(registry *StrategyRegistry, runner outbound.ActionRunner) error {
	strategies := []outbound.RemediationStrategy{
		NewRestartDBPoolStrategy(runner),
		NewClearConnectionBacklogStrategy(runner),
		NewFlushStaleCacheStrategy(runner),
		NewFailoverDatabaseStrategy(runner),
	}
	for _, s := range strategies {
		if err := registry.Register(s); err != nil {
			return err
		}
	}
	return nil
}
