package inbound

import (
	"alertflow/internal/domain/entity"
	"alertflow/internal/domain/valueobject"
	"context"
	"time"

	"github.com/google/uuid"
)

// OrchestratorService runs the alert orchestration loop and exposes its
// state to inbound adapters.
type OrchestratorService interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	// RunCycle executes a single poll-classify-resolve-escalate cycle and
	// returns its summary. The control loop calls this on every tick; push
	// adapters and tests may invoke it directly.
	RunCycle(ctx context.Context) (*entity.CycleSummary, error)
	// SubmitEvent feeds a single event into the pipeline outside the polling
	// schedule.
	SubmitEvent(ctx context.Context, event *entity.ErrorEvent) error
	Health() OrchestratorHealthStatus
	GetMetrics() OrchestratorMetrics
}

// OrchestratorHealthStatus reports the liveness of the orchestration loop.
type OrchestratorHealthStatus struct {
	IsRunning           bool      `json:"is_running"`
	DryRun              bool      `json:"dry_run"`
	LastCycleTime       time.Time `json:"last_cycle_time"`
	LastCycleError      string    `json:"last_cycle_error,omitempty"`
	ActiveResolutions   int       `json:"active_resolutions"`
	PatternCount        int       `json:"pattern_count"`
	StrategyCount       int       `json:"strategy_count"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
}

// OrchestratorMetrics aggregates counters across cycles.
type OrchestratorMetrics struct {
	CyclesCompleted     int64         `json:"cycles_completed"`
	CyclesFailed        int64         `json:"cycles_failed"`
	EventsProcessed     int64         `json:"events_processed"`
	ResolutionsApplied  int64         `json:"resolutions_applied"`
	ResolutionsFailed   int64         `json:"resolutions_failed"`
	EscalationsRaised   int64         `json:"escalations_raised"`
	AverageCycleTime    time.Duration `json:"average_cycle_time"`
	LastCycleDuration   time.Duration `json:"last_cycle_duration"`
	ServiceStartTime    time.Time     `json:"service_start_time"`
	NotificationsFailed int64         `json:"notifications_failed"`
}

// EscalationReader exposes escalation state to the API layer.
type EscalationReader interface {
	GetEscalationState(ctx context.Context, fp valueobject.Fingerprint) (*entity.EscalationState, error)
	ListEscalationStates(ctx context.Context) ([]*entity.EscalationState, error)
}

// AuditReader exposes the resolution audit trail to the API layer.
type AuditReader interface {
	GetAttempts(ctx context.Context, fp valueobject.Fingerprint) ([]*entity.ResolutionAttempt, error)
}

// CycleReader exposes persisted cycle summaries to the API layer.
type CycleReader interface {
	GetCycleSummary(ctx context.Context, cycleID uuid.UUID) (*entity.CycleSummary, error)
}
