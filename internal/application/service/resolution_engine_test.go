package service

import (
	"alertflow/internal/adapter/outbound/memory"
	"alertflow/internal/config"
	"alertflow/internal/domain/entity"
	"alertflow/internal/domain/valueobject"
	"alertflow/internal/port/outbound"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func engineConfig(maxConcurrent int, dryRun bool) (config.OperationConfig, config.ResolutionConfig) {
	return config.OperationConfig{
			DryRun:                   dryRun,
			MonitoringInterval:       30 * time.Second,
			MaxConcurrentResolutions: maxConcurrent,
		}, config.ResolutionConfig{
			AutoFixConfidenceThreshold: 0.8,
			RiskyConfidenceThreshold:   0.9,
			AttemptTimeout:             time.Second,
		}
}

func classificationWithConfidence(confidence float64) valueobject.Classification {
	return valueobject.Classification{
		Category:         "database",
		Confidence:       valueobject.Confidence(confidence),
		MatchedPatternID: "db-conn-timeout",
	}
}

func TestResolutionEngine_SuccessfulExecution(t *testing.T) {
	store := memory.NewStore()
	registry := NewStrategyRegistry()
	strategy := newFakeStrategy("restart", valueobject.SafetyLevelSafe, 0.85)
	require.NoError(t, registry.Register(strategy))

	opCfg, resCfg := engineConfig(2, false)
	engine := NewResolutionEngine(registry, store, opCfg, resCfg, nil)
	event := testEvent(t, "Connection timeout to db-7", valueobject.EventLevelError, 1)

	attempt, err := engine.Resolve(context.Background(), event, classificationWithConfidence(0.85))

	require.NoError(t, err)
	assert.Equal(t, valueobject.AttemptOutcomeSuccess, attempt.Outcome())
	assert.Equal(t, "restart", attempt.StrategyID())
	assert.Equal(t, 1, strategy.executeCalls)

	saved, err := store.GetAttempts(context.Background(), event.Fingerprint())
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, valueobject.AttemptOutcomeSuccess, saved[0].Outcome())
}

func TestResolutionEngine_BelowConfidenceThresholdSkips(t *testing.T) {
	store := memory.NewStore()
	registry := NewStrategyRegistry()
	strategy := newFakeStrategy("restart", valueobject.SafetyLevelSafe, 0.85)
	require.NoError(t, registry.Register(strategy))

	opCfg, resCfg := engineConfig(2, false)
	engine := NewResolutionEngine(registry, store, opCfg, resCfg, nil)
	event := testEvent(t, "Connection timeout to db-7", valueobject.EventLevelError, 1)

	attempt, err := engine.Resolve(context.Background(), event, classificationWithConfidence(0.75))

	require.NoError(t, err)
	assert.Equal(t, valueobject.AttemptOutcomeSkipped, attempt.Outcome())
	assert.Contains(t, attempt.Detail(), "below auto-fix threshold")
	assert.Zero(t, strategy.executeCalls)

	saved, err := store.GetAttempts(context.Background(), event.Fingerprint())
	require.NoError(t, err)
	assert.Len(t, saved, 1)
}

func TestResolutionEngine_ManualOnlyStrategyNeverExecutes(t *testing.T) {
	store := memory.NewStore()
	registry := NewStrategyRegistry()
	strategy := newFakeStrategy("failover", valueobject.SafetyLevelManualOnly, 0.95)
	require.NoError(t, registry.Register(strategy))

	opCfg, resCfg := engineConfig(2, false)
	engine := NewResolutionEngine(registry, store, opCfg, resCfg, nil)
	event := testEvent(t, "Connection timeout to db-7", valueobject.EventLevelError, 1)

	attempt, err := engine.Resolve(context.Background(), event, classificationWithConfidence(0.99))

	require.NoError(t, err)
	assert.Equal(t, valueobject.AttemptOutcomeSkipped, attempt.Outcome())
	assert.Contains(t, attempt.Detail(), "manual execution")
	assert.Zero(t, strategy.executeCalls)
}

func TestResolutionEngine_RiskyStrategyNeedsElevatedConfidence(t *testing.T) {
	store := memory.NewStore()
	registry := NewStrategyRegistry()
	strategy := newFakeStrategy("clear-backlog", valueobject.SafetyLevelRisky, 0.7)
	require.NoError(t, registry.Register(strategy))

	opCfg, resCfg := engineConfig(2, false)
	engine := NewResolutionEngine(registry, store, opCfg, resCfg, nil)
	event := testEvent(t, "Connection timeout to db-7", valueobject.EventLevelError, 1)

	attempt, err := engine.Resolve(context.Background(), event, classificationWithConfidence(0.85))
	require.NoError(t, err)
	assert.Equal(t, valueobject.AttemptOutcomeSkipped, attempt.Outcome())
	assert.Zero(t, strategy.executeCalls)

	attempt, err = engine.Resolve(context.Background(), event, classificationWithConfidence(0.95))
	require.NoError(t, err)
	assert.Equal(t, valueobject.AttemptOutcomeSuccess, attempt.Outcome())
	assert.Equal(t, 1, strategy.executeCalls)
}

func TestResolutionEngine_NoApplicableStrategySkips(t *testing.T) {
	store := memory.NewStore()
	registry := NewStrategyRegistry()
	strategy := newFakeStrategy("restart", valueobject.SafetyLevelSafe, 0.85)
	strategy.applicable = false
	require.NoError(t, registry.Register(strategy))

	opCfg, resCfg := engineConfig(2, false)
	engine := NewResolutionEngine(registry, store, opCfg, resCfg, nil)
	event := testEvent(t, "Connection timeout to db-7", valueobject.EventLevelError, 1)

	attempt, err := engine.Resolve(context.Background(), event, classificationWithConfidence(0.9))

	require.NoError(t, err)
	assert.Equal(t, valueobject.AttemptOutcomeSkipped, attempt.Outcome())
	assert.Contains(t, attempt.Detail(), "no applicable strategy")
}

func TestResolutionEngine_DryRunNeverExecutes(t *testing.T) {
	store := memory.NewStore()
	registry := NewStrategyRegistry()
	strategy := newFakeStrategy("restart", valueobject.SafetyLevelSafe, 0.85)
	require.NoError(t, registry.Register(strategy))

	opCfg, resCfg := engineConfig(2, true)
	engine := NewResolutionEngine(registry, store, opCfg, resCfg, nil)
	event := testEvent(t, "Connection timeout to db-7", valueobject.EventLevelError, 1)

	attempt, err := engine.Resolve(context.Background(), event, classificationWithConfidence(0.9))

	require.NoError(t, err)
	assert.Equal(t, valueobject.AttemptOutcomeSkippedDryRun, attempt.Outcome())
	assert.Zero(t, strategy.executeCalls)

	// Even threshold skips record the dry-run outcome so the audit trail
	// stays uniform in dry-run mode.
	lowEvent := testEvent(t, "Connection timeout to db-9 variant", valueobject.EventLevelError, 1)
	attempt, err = engine.Resolve(context.Background(), lowEvent, classificationWithConfidence(0.5))
	require.NoError(t, err)
	assert.Equal(t, valueobject.AttemptOutcomeSkippedDryRun, attempt.Outcome())

	saved, err := store.GetAttempts(context.Background(), event.Fingerprint())
	require.NoError(t, err)
	for _, a := range saved {
		assert.Equal(t, valueobject.AttemptOutcomeSkippedDryRun, a.Outcome())
	}
}

func TestResolutionEngine_ExecutionFailureRecorded(t *testing.T) {
	store := memory.NewStore()
	registry := NewStrategyRegistry()
	strategy := newFakeStrategy("restart", valueobject.SafetyLevelSafe, 0.85)
	strategy.execErr = errors.New("runbook unreachable")
	require.NoError(t, registry.Register(strategy))

	opCfg, resCfg := engineConfig(2, false)
	engine := NewResolutionEngine(registry, store, opCfg, resCfg, nil)
	event := testEvent(t, "Connection timeout to db-7", valueobject.EventLevelError, 1)

	attempt, err := engine.Resolve(context.Background(), event, classificationWithConfidence(0.9))

	require.NoError(t, err)
	assert.Equal(t, valueobject.AttemptOutcomeFailure, attempt.Outcome())
	assert.Contains(t, attempt.Detail(), "runbook unreachable")
}

func TestResolutionEngine_ValidationFailureTriggersRollback(t *testing.T) {
	store := memory.NewStore()
	registry := NewStrategyRegistry()
	strategy := newFakeStrategy("clear-backlog", valueobject.SafetyLevelSafe, 0.85)
	strategy.canRollback = true
	require.NoError(t, registry.Register(strategy))

	validate := func(_ context.Context, _ *entity.ErrorEvent) error {
		return errors.New("error rate unchanged")
	}

	opCfg, resCfg := engineConfig(2, false)
	engine := NewResolutionEngine(registry, store, opCfg, resCfg, validate)
	event := testEvent(t, "Connection timeout to db-7", valueobject.EventLevelError, 1)

	attempt, err := engine.Resolve(context.Background(), event, classificationWithConfidence(0.9))

	require.NoError(t, err)
	assert.Equal(t, valueobject.AttemptOutcomeRolledBack, attempt.Outcome())
	assert.Equal(t, 1, strategy.executeCalls)
	assert.Equal(t, 1, strategy.rollbackCalls)

	// The rolled-back attempt must not block a fresh cycle.
	attempt, err = engine.Resolve(context.Background(), event, classificationWithConfidence(0.9))
	require.NoError(t, err)
	assert.Equal(t, valueobject.AttemptOutcomeRolledBack, attempt.Outcome())
	assert.Equal(t, 2, strategy.executeCalls)
	assert.Zero(t, engine.InFlightCount())
}

func TestResolutionEngine_ValidationFailureWithoutRollbackIsFailure(t *testing.T) {
	store := memory.NewStore()
	registry := NewStrategyRegistry()
	strategy := newFakeStrategy("restart", valueobject.SafetyLevelSafe, 0.85)
	require.NoError(t, registry.Register(strategy))

	validate := func(_ context.Context, _ *entity.ErrorEvent) error {
		return errors.New("error rate unchanged")
	}

	opCfg, resCfg := engineConfig(2, false)
	engine := NewResolutionEngine(registry, store, opCfg, resCfg, validate)
	event := testEvent(t, "Connection timeout to db-7", valueobject.EventLevelError, 1)

	attempt, err := engine.Resolve(context.Background(), event, classificationWithConfidence(0.9))

	require.NoError(t, err)
	assert.Equal(t, valueobject.AttemptOutcomeFailure, attempt.Outcome())
	assert.Contains(t, attempt.Detail(), "no rollback available")
}

func TestResolutionEngine_InFlightGuard(t *testing.T) {
	store := memory.NewStore()
	registry := NewStrategyRegistry()

	started := make(chan struct{})
	release := make(chan struct{})
	strategy := &blockingStrategy{started: started, release: release}
	require.NoError(t, registry.Register(strategy))

	opCfg, resCfg := engineConfig(2, false)
	engine := NewResolutionEngine(registry, store, opCfg, resCfg, nil)
	event := testEvent(t, "Connection timeout to db-7", valueobject.EventLevelError, 1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = engine.Resolve(context.Background(), event, classificationWithConfidence(0.9))
	}()
	<-started

	attempt, err := engine.Resolve(context.Background(), event, classificationWithConfidence(0.9))
	require.NoError(t, err)
	assert.Equal(t, valueobject.AttemptOutcomeSkipped, attempt.Outcome())
	assert.Contains(t, attempt.Detail(), "already in progress")

	close(release)
	wg.Wait()

	// Transient skips stay out of the audit trail.
	saved, err := store.GetAttempts(context.Background(), event.Fingerprint())
	require.NoError(t, err)
	assert.Len(t, saved, 1)
}

func TestResolutionEngine_ConcurrencyBoundDefers(t *testing.T) {
	store := memory.NewStore()
	registry := NewStrategyRegistry()

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	strategy := &blockingStrategy{started: started, release: release}
	require.NoError(t, registry.Register(strategy))

	opCfg, resCfg := engineConfig(1, false)
	engine := NewResolutionEngine(registry, store, opCfg, resCfg, nil)

	first := testEvent(t, "Connection timeout to db-7", valueobject.EventLevelError, 1)
	second := testEvent(t, "Deadlock detected in orders", valueobject.EventLevelError, 1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = engine.Resolve(context.Background(), first, classificationWithConfidence(0.9))
	}()
	<-started

	attempt, err := engine.Resolve(context.Background(), second, classificationWithConfidence(0.9))
	require.NoError(t, err)
	assert.Equal(t, valueobject.AttemptOutcomeSkipped, attempt.Outcome())
	assert.Contains(t, attempt.Detail(), "deferred to next cycle")

	close(release)
	wg.Wait()
}

// blockingStrategy parks in Execute until released, for concurrency tests.
type blockingStrategy struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingStrategy) Name() string                         { return "blocking" }
func (b *blockingStrategy) SafetyLevel() valueobject.SafetyLevel { return valueobject.SafetyLevelSafe }
func (b *blockingStrategy) Confidence() valueobject.Confidence   { return valueobject.Confidence(0.9) }
func (b *blockingStrategy) SupportsRollback() bool               { return false }

func (b *blockingStrategy) IsApplicable(_ context.Context, _ outbound.StrategyContext) bool {
	return true
}

func (b *blockingStrategy) Execute(ctx context.Context, _ outbound.StrategyContext) (outbound.StrategyResult, error) {
	b.started <- struct{}{}
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return outbound.StrategyResult{Success: true, Message: "done"}, nil
}

func (b *blockingStrategy) Rollback(_ context.Context, _ outbound.StrategyContext) (outbound.StrategyResult, error) {
	return outbound.StrategyResult{}, errors.New("not supported")
}
