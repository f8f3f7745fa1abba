package outbound

import (
	"alertflow/internal/domain/entity"
	"alertflow/internal/domain/valueobject"
	"context"
)

// StrategyContext carries everything a remediation strategy may inspect when
// deciding applicability and executing.
type StrategyContext struct {
	Event          *entity.ErrorEvent
	Classification valueobject.Classification
	Fingerprint    valueobject.Fingerprint
}

// StrategyResult is the outcome of an execute or rollback call.
type StrategyResult struct {
	Success bool
	Message string
}

// RemediationStrategy is a pluggable remediation action. New strategies are
// added by registration at startup, never by branching inside the resolution
// engine.
type RemediationStrategy interface {
	// Name returns the unique strategy identifier.
	Name() string

	// SafetyLevel declares how safely the strategy can run unsupervised.
	SafetyLevel() valueobject.SafetyLevel

	// Confidence is the strategy's self-assessed reliability when applicable.
	Confidence() valueobject.Confidence

	// IsApplicable reports whether the strategy can act on the given context.
	IsApplicable(ctx context.Context, sc StrategyContext) bool

	// Execute performs the remediation action.
	Execute(ctx context.Context, sc StrategyContext) (StrategyResult, error)

	// Rollback undoes a previously executed remediation. Only meaningful when
	// SupportsRollback returns true.
	Rollback(ctx context.Context, sc StrategyContext) (StrategyResult, error)

	// SupportsRollback declares whether Rollback is implemented.
	SupportsRollback() bool
}

// ActionRunner executes named remediation actions against operational
// infrastructure (runbook endpoints, service controllers). Strategies act
// through this port so their effects stay testable.
type ActionRunner interface {
	// Run triggers the named action with parameters and returns its output.
	Run(ctx context.Context, action string, params map[string]string) (string, error)
}
