package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Metric names following OpenTelemetry semantic conventions for the
// orchestration pipeline.
const (
	CycleCounterName             = "orchestration_cycle_total"
	CycleDurationHistogramName   = "orchestration_cycle_duration_seconds"
	EventCounterName             = "orchestration_event_total"
	AttemptCounterName           = "resolution_attempt_total"
	AttemptDurationHistogramName = "resolution_attempt_duration_seconds"
	EscalationCounterName        = "escalation_transition_total"
	NotificationCounterName      = "notification_send_total"
)

// Common attribute keys for consistent orchestration metrics labeling.
const (
	AttrCycleResult      = "cycle_result"
	AttrEventLevel       = "event_level"
	AttrCategory         = "category"
	AttrOutcome          = "outcome"
	AttrStrategy         = "strategy"
	AttrEscalationLevel  = "escalation_level"
	AttrNotificationKind = "notification_kind"
	AttrDeliveryResult   = "delivery_result"
	AttrOrchServiceName  = "service_name"
)

// OrchestrationMetrics defines the interface for pipeline observability.
type OrchestrationMetrics interface {
	RecordCycle(ctx context.Context, duration time.Duration, failed bool)
	RecordEvent(ctx context.Context, level string, category string)
	RecordAttempt(ctx context.Context, strategy string, outcome string, duration time.Duration)
	RecordEscalation(ctx context.Context, level string)
	RecordNotification(ctx context.Context, kind string, delivered bool)
}

// OrchestrationMetricsConfig holds configuration for metrics collection.
type OrchestrationMetricsConfig struct {
	ServiceName    string
	ServiceVersion string
}

// DefaultOrchestrationMetrics implements OrchestrationMetrics using
// OpenTelemetry.
type DefaultOrchestrationMetrics struct {
	config OrchestrationMetricsConfig

	cycleCounter      metric.Int64Counter
	cycleDuration     metric.Float64Histogram
	eventCounter      metric.Int64Counter
	attemptCounter    metric.Int64Counter
	attemptDuration   metric.Float64Histogram
	escalationCounter metric.Int64Counter
	notifyCounter     metric.Int64Counter
}

// NewOrchestrationMetrics creates a metrics instance with a default manual
// reader provider. Useful for tests and standalone runs.
func NewOrchestrationMetrics(config OrchestrationMetricsConfig) (OrchestrationMetrics, error) {
	if config.ServiceName == "" {
		return nil, errors.New("service name cannot be empty")
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", config.ServiceName),
			attribute.String("service.version", config.ServiceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewManualReader()),
	)

	return NewOrchestrationMetricsWithProvider(config, provider)
}

// NewOrchestrationMetricsWithProvider creates a metrics instance bound to a
// custom meter provider.
func NewOrchestrationMetricsWithProvider(
	config OrchestrationMetricsConfig,
	provider metric.MeterProvider,
) (OrchestrationMetrics, error) {
	if config.ServiceName == "" {
		return nil, errors.New("service name cannot be empty")
	}

	meter := provider.Meter("orchestration-metrics")

	cycleCounter, err := meter.Int64Counter(CycleCounterName,
		metric.WithDescription("Total number of orchestration cycles"),
	)
	if err != nil {
		return nil, err
	}

	cycleDuration, err := meter.Float64Histogram(CycleDurationHistogramName,
		metric.WithDescription("Orchestration cycle duration in seconds"),
	)
	if err != nil {
		return nil, err
	}

	eventCounter, err := meter.Int64Counter(EventCounterName,
		metric.WithDescription("Total number of events processed"),
	)
	if err != nil {
		return nil, err
	}

	attemptCounter, err := meter.Int64Counter(AttemptCounterName,
		metric.WithDescription("Total number of resolution attempts"),
	)
	if err != nil {
		return nil, err
	}

	attemptDuration, err := meter.Float64Histogram(AttemptDurationHistogramName,
		metric.WithDescription("Resolution attempt duration in seconds"),
	)
	if err != nil {
		return nil, err
	}

	escalationCounter, err := meter.Int64Counter(EscalationCounterName,
		metric.WithDescription("Total number of escalation level transitions"),
	)
	if err != nil {
		return nil, err
	}

	notifyCounter, err := meter.Int64Counter(NotificationCounterName,
		metric.WithDescription("Total number of notification deliveries"),
	)
	if err != nil {
		return nil, err
	}

	return &DefaultOrchestrationMetrics{
		config:            config,
		cycleCounter:      cycleCounter,
		cycleDuration:     cycleDuration,
		eventCounter:      eventCounter,
		attemptCounter:    attemptCounter,
		attemptDuration:   attemptDuration,
		escalationCounter: escalationCounter,
		notifyCounter:     notifyCounter,
	}, nil
}

func (m *DefaultOrchestrationMetrics) RecordCycle(ctx context.Context, duration time.Duration, failed bool) {
	result := "success"
	if failed {
		result = "failure"
	}
	m.cycleCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(AttrCycleResult, result),
			attribute.String(AttrOrchServiceName, m.config.ServiceName),
		),
	)
	m.cycleDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String(AttrCycleResult, result),
		),
	)
}

func (m *DefaultOrchestrationMetrics) RecordEvent(ctx context.Context, level string, category string) {
	m.eventCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(AttrEventLevel, level),
			attribute.String(AttrCategory, category),
			attribute.String(AttrOrchServiceName, m.config.ServiceName),
		),
	)
}

func (m *DefaultOrchestrationMetrics) RecordAttempt(
	ctx context.Context,
	strategy string,
	outcome string,
	duration time.Duration,
) {
	m.attemptCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(AttrStrategy, strategy),
			attribute.String(AttrOutcome, outcome),
			attribute.String(AttrOrchServiceName, m.config.ServiceName),
		),
	)
	m.attemptDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String(AttrStrategy, strategy),
			attribute.String(AttrOutcome, outcome),
		),
	)
}

func (m *DefaultOrchestrationMetrics) RecordEscalation(ctx context.Context, level string) {
	m.escalationCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(AttrEscalationLevel, level),
			attribute.String(AttrOrchServiceName, m.config.ServiceName),
		),
	)
}

func (m *DefaultOrchestrationMetrics) RecordNotification(ctx context.Context, kind string, delivered bool) {
	result := "delivered"
	if !delivered {
		result = "failed"
	}
	m.notifyCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(AttrNotificationKind, kind),
			attribute.String(AttrDeliveryResult, result),
			attribute.String(AttrOrchServiceName, m.config.ServiceName),
		),
	)
}

// NoopOrchestrationMetrics discards all measurements. Used when metrics are
// not wired, e.g. in unit tests.
type NoopOrchestrationMetrics struct{}

func (NoopOrchestrationMetrics) RecordCycle(context.Context, time.Duration, bool) {}

func (NoopOrchestrationMetrics) RecordEvent(context.Context, string, string) {}

func (NoopOrchestrationMetrics) RecordAttempt(context.Context, string, string, time.Duration) {}

func (NoopOrchestrationMetrics) RecordEscalation(context.Context, string) {}

func (NoopOrchestrationMetrics) RecordNotification(context.Context, string, bool) {}
