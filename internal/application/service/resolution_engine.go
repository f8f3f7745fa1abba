package service

import (
	"alertflow/internal/application/common/slogger"
	"alertflow/internal/config"
	"alertflow/internal/domain/entity"
	"alertflow/internal/domain/valueobject"
	"alertflow/internal/port/outbound"
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ValidationFunc checks that a remediation actually resolved the error. It is
// called after a successful execute; a non-nil error triggers rollback.
type ValidationFunc func(ctx context.Context, event *entity.ErrorEvent) error

// ResolutionEngine selects and executes the best-fit strategy for a
// classified error. It enforces at-most-one in-flight attempt per fingerprint
// and a global concurrency bound, and records every finished attempt in the
// audit trail.
type ResolutionEngine struct {
	strategies *StrategyRegistry
	audit      outbound.AuditStore
	validate   ValidationFunc

	dryRun         bool
	autoThreshold  float64
	riskyThreshold float64
	attemptTimeout time.Duration

	sem *semaphore.Weighted

	mu       sync.Mutex
	inFlight map[valueobject.Fingerprint]struct{}
}

// NewResolutionEngine creates a resolution engine. The validation hook may be
// nil, in which case successful executions are accepted without a
// post-condition check.
func NewResolutionEngine(
	strategies *StrategyRegistry,
	audit outbound.AuditStore,
	operationCfg config.OperationConfig,
	resolutionCfg config.ResolutionConfig,
	validate ValidationFunc,
) *ResolutionEngine {
	return &ResolutionEngine{
		strategies:     strategies,
		audit:          audit,
		validate:       validate,
		dryRun:         operationCfg.DryRun,
		autoThreshold:  resolutionCfg.AutoFixConfidenceThreshold,
		riskyThreshold: resolutionCfg.RiskyConfidenceThreshold,
		attemptTimeout: resolutionCfg.AttemptTimeout,
		sem:            semaphore.NewWeighted(int64(operationCfg.MaxConcurrentResolutions)),
		inFlight:       make(map[valueobject.Fingerprint]struct{}),
	}
}

// InFlightCount returns the number of fingerprints currently being resolved.
func (e *ResolutionEngine) InFlightCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.inFlight)
}

// Resolve runs the resolution state machine for one classified event and
// returns the finished attempt. Attempts that were skipped before any
// strategy ran (duplicate guard, concurrency deferral) are returned but not
// persisted; everything else is appended to the audit trail.
func (e *ResolutionEngine) Resolve(
	ctx context.Context,
	event *entity.ErrorEvent,
	classification valueobject.Classification,
) (*entity.ResolutionAttempt, error) {
	fp := event.Fingerprint()

	// Duplicate guard: at most one in-flight attempt per fingerprint.
	if !e.tryLockFingerprint(fp) {
		return e.transientSkip(fp, classification, "resolution already in progress")
	}
	defer e.unlockFingerprint(fp)

	// Global bound: defer to the next cycle instead of queueing.
	if !e.sem.TryAcquire(1) {
		return e.transientSkip(fp, classification, "concurrency limit reached, deferred to next cycle")
	}
	defer e.sem.Release(1)

	sc := outbound.StrategyContext{
		Event:          event,
		Classification: classification,
		Fingerprint:    fp,
	}

	candidates := e.strategies.ResolveCandidates(ctx, sc)
	if len(candidates) == 0 {
		return e.recordSkip(ctx, fp, "", classification, valueobject.SafetyLevelManualOnly,
			"no applicable strategy")
	}

	strategy := candidates[0]

	if skip, reason := e.belowThreshold(classification, strategy); skip {
		return e.recordSkip(ctx, fp, strategy.Name(), classification, strategy.SafetyLevel(), reason)
	}

	if e.dryRun {
		attempt, err := entity.NewResolutionAttempt(fp, strategy.Name(), classification.Confidence, strategy.SafetyLevel())
		if err != nil {
			return nil, err
		}
		if err := attempt.Finish(valueobject.AttemptOutcomeSkippedDryRun,
			fmt.Sprintf("dry run: would execute %s", strategy.Name())); err != nil {
			return nil, err
		}
		return attempt, e.persist(ctx, attempt)
	}

	return e.execute(ctx, sc, strategy)
}

// belowThreshold applies the confidence and safety gates ahead of execution.
func (e *ResolutionEngine) belowThreshold(
	classification valueobject.Classification,
	strategy outbound.RemediationStrategy,
) (bool, string) {
	if !classification.Confidence.Meets(e.autoThreshold) {
		return true, fmt.Sprintf("confidence %.2f below auto-fix threshold %.2f",
			classification.Confidence.Float(), e.autoThreshold)
	}
	switch strategy.SafetyLevel() {
	case valueobject.SafetyLevelManualOnly:
		return true, fmt.Sprintf("strategy %s requires manual execution", strategy.Name())
	case valueobject.SafetyLevelRisky:
		if !classification.Confidence.Meets(e.riskyThreshold) {
			return true, fmt.Sprintf("confidence %.2f below risky threshold %.2f for strategy %s",
				classification.Confidence.Float(), e.riskyThreshold, strategy.Name())
		}
	}
	return false, ""
}

// execute runs the selected strategy with a bounded timeout, applies the
// post-condition validation, and rolls back on validation failure.
func (e *ResolutionEngine) execute(
	ctx context.Context,
	sc outbound.StrategyContext,
	strategy outbound.RemediationStrategy,
) (*entity.ResolutionAttempt, error) {
	attempt, err := entity.NewResolutionAttempt(
		sc.Fingerprint, strategy.Name(), sc.Classification.Confidence, strategy.SafetyLevel())
	if err != nil {
		return nil, err
	}

	execCtx, cancel := context.WithTimeout(ctx, e.attemptTimeout)
	defer cancel()

	result, execErr := strategy.Execute(execCtx, sc)
	switch {
	case execErr != nil:
		e.finish(ctx, attempt, valueobject.AttemptOutcomeFailure,
			fmt.Sprintf("execution error: %v", execErr))
	case !result.Success:
		e.finish(ctx, attempt, valueobject.AttemptOutcomeFailure,
			fmt.Sprintf("execution reported failure: %s", result.Message))
	default:
		e.validateAndFinish(ctx, sc, strategy, attempt, result)
	}

	return attempt, e.persist(ctx, attempt)
}

// validateAndFinish applies the post-condition check after a successful
// execute and rolls back when it fails.
func (e *ResolutionEngine) validateAndFinish(
	ctx context.Context,
	sc outbound.StrategyContext,
	strategy outbound.RemediationStrategy,
	attempt *entity.ResolutionAttempt,
	result outbound.StrategyResult,
) {
	if e.validate == nil {
		e.finish(ctx, attempt, valueobject.AttemptOutcomeSuccess, result.Message)
		return
	}

	if validationErr := e.validate(ctx, sc.Event); validationErr != nil {
		slogger.Warn(ctx, "Post-execution validation failed", slogger.Fields3(
			"fingerprint", sc.Fingerprint.String(),
			"strategy", strategy.Name(),
			"error", validationErr.Error(),
		))

		if !strategy.SupportsRollback() {
			e.finish(ctx, attempt, valueobject.AttemptOutcomeFailure,
				fmt.Sprintf("validation failed, no rollback available: %v", validationErr))
			return
		}

		rollbackCtx, cancel := context.WithTimeout(ctx, e.attemptTimeout)
		defer cancel()

		rollbackResult, rollbackErr := strategy.Rollback(rollbackCtx, sc)
		if rollbackErr != nil {
			e.finish(ctx, attempt, valueobject.AttemptOutcomeFailure,
				fmt.Sprintf("validation failed and rollback errored: %v", rollbackErr))
			return
		}
		e.finish(ctx, attempt, valueobject.AttemptOutcomeRolledBack,
			fmt.Sprintf("validation failed, rolled back: %s", rollbackResult.Message))
		return
	}

	e.finish(ctx, attempt, valueobject.AttemptOutcomeSuccess, result.Message)
}

// finish marks an attempt terminal, logging rather than failing when the
// entity rejects a double finish.
func (e *ResolutionEngine) finish(
	ctx context.Context,
	attempt *entity.ResolutionAttempt,
	outcome valueobject.AttemptOutcome,
	detail string,
) {
	if err := attempt.Finish(outcome, detail); err != nil {
		slogger.ErrorWithError(ctx, err, "Failed to finish resolution attempt", slogger.Fields{
			"fingerprint": attempt.Fingerprint().String(),
		})
	}
}

// transientSkip builds a skipped attempt that is intentionally not persisted:
// the condition clears on its own (in-flight guard, concurrency deferral) and
// the event will be reconsidered on the next cycle.
func (e *ResolutionEngine) transientSkip(
	fp valueobject.Fingerprint,
	classification valueobject.Classification,
	reason string,
) (*entity.ResolutionAttempt, error) {
	attempt, err := entity.NewResolutionAttempt(fp, "", classification.Confidence, valueobject.SafetyLevelSafe)
	if err != nil {
		return nil, err
	}
	outcome := valueobject.AttemptOutcomeSkipped
	if e.dryRun {
		outcome = valueobject.AttemptOutcomeSkippedDryRun
	}
	if err := attempt.Finish(outcome, reason); err != nil {
		return nil, err
	}
	return attempt, nil
}

// recordSkip builds a skipped attempt and appends it to the audit trail.
func (e *ResolutionEngine) recordSkip(
	ctx context.Context,
	fp valueobject.Fingerprint,
	strategyID string,
	classification valueobject.Classification,
	safety valueobject.SafetyLevel,
	reason string,
) (*entity.ResolutionAttempt, error) {
	attempt, err := entity.NewResolutionAttempt(fp, strategyID, classification.Confidence, safety)
	if err != nil {
		return nil, err
	}
	if e.dryRun {
		if err := attempt.Finish(valueobject.AttemptOutcomeSkippedDryRun, reason); err != nil {
			return nil, err
		}
	} else if err := attempt.Finish(valueobject.AttemptOutcomeSkipped, reason); err != nil {
		return nil, err
	}
	return attempt, e.persist(ctx, attempt)
}

// persist appends a finished attempt to the audit trail.
func (e *ResolutionEngine) persist(ctx context.Context, attempt *entity.ResolutionAttempt) error {
	if err := e.audit.SaveAttempt(ctx, attempt); err != nil {
		return fmt.Errorf("failed to record resolution attempt: %w", err)
	}
	return nil
}

// tryLockFingerprint marks the fingerprint in-flight. Returns false if it
// already is.
func (e *ResolutionEngine) tryLockFingerprint(fp valueobject.Fingerprint) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inFlight[fp]; busy {
		return false
	}
	e.inFlight[fp] = struct{}{}
	return true
}

func (e *ResolutionEngine) unlockFingerprint(fp valueobject.Fingerprint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, fp)
}
