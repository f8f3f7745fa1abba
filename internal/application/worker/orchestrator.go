package worker

import (
	"alertflow/internal/application/common/logging"
	"alertflow/internal/application/common/retry"
	"alertflow/internal/application/common/slogger"
	"alertflow/internal/application/service"
	"alertflow/internal/config"
	"alertflow/internal/domain/entity"
	"alertflow/internal/domain/valueobject"
	"alertflow/internal/port/inbound"
	"alertflow/internal/port/outbound"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Orchestrator runs the poll-classify-resolve-escalate loop. One cycle fires
// per monitoring interval; pushed events bypass the schedule and run through
// the same pipeline. Per-event failures are isolated so one bad event never
// aborts the cycle.
type Orchestrator struct {
	source      outbound.EventSource
	classifier  *service.Classifier
	engine      *service.ResolutionEngine
	escalations *service.EscalationManager
	patterns    *service.PatternRegistry
	strategies  *service.StrategyRegistry
	audit       outbound.AuditStore
	cycles      outbound.CycleSummaryStore
	dispatcher  outbound.NotificationDispatcher
	metrics     service.OrchestrationMetrics
	retrier     *retry.RetryExecutor
	channel     string

	interval  time.Duration
	lookback  time.Duration
	minLevel  valueobject.EventLevel
	grace     time.Duration
	dryRun    bool

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	lastCycleTime       time.Time
	lastCycleErr        string
	consecutiveFailures int

	stats cycleStats
}

type cycleStats struct {
	cyclesCompleted     int64
	cyclesFailed        int64
	eventsProcessed     int64
	resolutionsApplied  int64
	resolutionsFailed   int64
	escalationsRaised   int64
	notificationsFailed int64
	totalCycleTime      time.Duration
	lastCycleDuration   time.Duration
	startTime           time.Time
}

// OrchestratorDeps bundles the collaborators wired in at startup.
type OrchestratorDeps struct {
	Source      outbound.EventSource
	Classifier  *service.Classifier
	Engine      *service.ResolutionEngine
	Escalations *service.EscalationManager
	Patterns    *service.PatternRegistry
	Strategies  *service.StrategyRegistry
	Audit       outbound.AuditStore
	Cycles      outbound.CycleSummaryStore
	Dispatcher  outbound.NotificationDispatcher
	Metrics     service.OrchestrationMetrics
}

// NewOrchestrator assembles the orchestration loop from its dependencies and
// the operation configuration.
func NewOrchestrator(
	deps OrchestratorDeps,
	operationCfg config.OperationConfig,
	notificationsCfg config.NotificationsConfig,
) (*Orchestrator, error) {
	if deps.Source == nil {
		return nil, errors.New("orchestrator: event source is required")
	}
	if deps.Classifier == nil || deps.Engine == nil || deps.Escalations == nil {
		return nil, errors.New("orchestrator: classifier, engine and escalation manager are required")
	}
	if deps.Audit == nil || deps.Cycles == nil {
		return nil, errors.New("orchestrator: audit and cycle stores are required")
	}

	minLevel, err := valueobject.NewEventLevel(operationCfg.MinEventLevel)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: invalid min event level: %w", err)
	}

	metrics := deps.Metrics
	if metrics == nil {
		metrics = service.NoopOrchestrationMetrics{}
	}

	retryCfg := retry.DefaultRetryConfig()
	retryCfg.MaxRetries = notificationsCfg.MaxRetries

	o := &Orchestrator{
		source:      deps.Source,
		classifier:  deps.Classifier,
		engine:      deps.Engine,
		escalations: deps.Escalations,
		patterns:    deps.Patterns,
		strategies:  deps.Strategies,
		audit:       deps.Audit,
		cycles:      deps.Cycles,
		dispatcher:  deps.Dispatcher,
		metrics:     metrics,
		retrier:     retry.NewRetryExecutor(retryCfg),
		channel:     notificationsCfg.Channel,
		interval:    operationCfg.MonitoringInterval,
		lookback:    operationCfg.LookbackWindow,
		minLevel:    minLevel,
		grace:       operationCfg.ShutdownGracePeriod,
		dryRun:      operationCfg.DryRun,
	}

	if o.dispatcher != nil {
		o.dispatcher.OnInteraction(o.handleInteraction)
	}

	return o, nil
}

// Start launches the control loop. Returns an error if already running.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return errors.New("orchestrator already running")
	}
	o.running = true
	o.stopCh = make(chan struct{})
	o.stats.startTime = time.Now()
	o.mu.Unlock()

	slogger.Info(ctx, "Starting orchestrator", slogger.Fields{
		"monitoring_interval": o.interval.String(),
		"lookback_window":     o.lookback.String(),
		"min_event_level":     o.minLevel.String(),
		"dry_run":             o.dryRun,
	})

	o.wg.Add(1)
	go o.controlLoop(ctx)

	return nil
}

// Stop shuts the loop down, waiting up to the shutdown grace period for the
// in-flight cycle to drain.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return nil
	}
	o.running = false
	close(o.stopCh)
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slogger.Info(ctx, "Orchestrator stopped", nil)
		return nil
	case <-time.After(o.grace):
		return errors.New("orchestrator: shutdown grace period exceeded")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) controlLoop(ctx context.Context) {
	defer o.wg.Done()

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	// Run once immediately instead of waiting a full interval.
	o.runTracked(ctx)

	for {
		select {
		case <-ticker.C:
			o.runTracked(ctx)
		case <-o.stopCh:
			return
		case <-ctx.Done():
			slogger.Info(ctx, "Orchestrator context cancelled", nil)
			return
		}
	}
}

func (o *Orchestrator) runTracked(ctx context.Context) {
	if _, err := o.RunCycle(ctx); err != nil {
		slogger.Error(ctx, "Orchestration cycle failed", slogger.Fields{
			"error": err.Error(),
		})
	}
}

// RunCycle executes one full cycle and persists its summary. A source
// failure aborts the cycle; the next tick retries.
func (o *Orchestrator) RunCycle(ctx context.Context) (*entity.CycleSummary, error) {
	summary := entity.NewCycleSummary()
	ctx = logging.WithCycleID(ctx, summary.CycleID().String())

	slogger.Debug(ctx, "Cycle started", nil)

	events, err := o.source.ListRecentEvents(ctx, o.lookback, o.minLevel)
	if err != nil {
		summary.RecordSourceError(err)
		o.finishCycle(ctx, summary, err)
		return summary, fmt.Errorf("failed to list recent events: %w", err)
	}

	for _, event := range events {
		if procErr := o.processEvent(ctx, event, summary); procErr != nil {
			summary.RecordFailure()
			slogger.Error(ctx, "Event processing failed", slogger.Fields2(
				"event_id", event.ID(),
				"error", procErr.Error(),
			))
		}
	}

	o.finishCycle(ctx, summary, nil)
	return summary, nil
}

// SubmitEvent runs one pushed event through the pipeline outside the polling
// schedule. The event still lands in a persisted single-event cycle summary.
func (o *Orchestrator) SubmitEvent(ctx context.Context, event *entity.ErrorEvent) error {
	if event == nil {
		return errors.New("orchestrator: event is required")
	}

	o.mu.Lock()
	running := o.running
	o.mu.Unlock()
	if !running {
		return errors.New("orchestrator not running")
	}

	summary := entity.NewCycleSummary()
	ctx = logging.WithCycleID(ctx, summary.CycleID().String())

	err := o.processEvent(ctx, event, summary)
	if err != nil {
		summary.RecordFailure()
	}
	o.finishCycle(ctx, summary, nil)
	return err
}

// processEvent runs classify, resolve and escalate for one event and sends
// the resulting notifications best-effort.
func (o *Orchestrator) processEvent(ctx context.Context, event *entity.ErrorEvent, summary *entity.CycleSummary) error {
	summary.RecordEvent()

	classification := o.classifier.Classify(event)
	o.metrics.RecordEvent(ctx, event.Level().String(), classification.Category)

	o.mu.Lock()
	o.stats.eventsProcessed++
	o.mu.Unlock()

	attempt, err := o.engine.Resolve(ctx, event, classification)
	if err != nil {
		return fmt.Errorf("resolution failed for event %s: %w", event.ID(), err)
	}

	o.recordAttempt(ctx, event, attempt, summary)

	history, err := o.audit.GetAttempts(ctx, event.Fingerprint())
	if err != nil {
		return fmt.Errorf("failed to load attempt history for event %s: %w", event.ID(), err)
	}

	escalation, err := o.escalations.Evaluate(ctx, event, classification, history)
	if err != nil {
		return fmt.Errorf("escalation evaluation failed for event %s: %w", event.ID(), err)
	}
	if escalation.Raised {
		summary.RecordEscalation()
		o.mu.Lock()
		o.stats.escalationsRaised++
		o.mu.Unlock()
		o.metrics.RecordEscalation(ctx, escalation.State.Level().String())
		o.notify(ctx, outbound.Notification{
			Kind:        outbound.NotificationKindEscalationChange,
			Channel:     o.channel,
			Title:       fmt.Sprintf("Escalation raised to %s", escalation.State.Level().String()),
			Body:        fmt.Sprintf("%s\n%s", event.Message(), escalation.State.TriggerReason()),
			Fingerprint: event.Fingerprint(),
			Level:       escalation.State.Level(),
		})
	}

	return nil
}

func (o *Orchestrator) recordAttempt(
	ctx context.Context,
	event *entity.ErrorEvent,
	attempt *entity.ResolutionAttempt,
	summary *entity.CycleSummary,
) {
	if attempt == nil {
		return
	}

	duration := attempt.FinishedAt().Sub(attempt.StartedAt())
	o.metrics.RecordAttempt(ctx, attempt.StrategyID(), attempt.Outcome().String(), duration)

	switch {
	case attempt.Outcome() == valueobject.AttemptOutcomeSuccess:
		summary.RecordResolution()
		o.mu.Lock()
		o.stats.resolutionsApplied++
		o.mu.Unlock()
		o.notify(ctx, outbound.Notification{
			Kind:        outbound.NotificationKindResolutionSuccess,
			Channel:     o.channel,
			Title:       fmt.Sprintf("Resolved: %s", attempt.StrategyID()),
			Body:        fmt.Sprintf("%s\n%s", event.Message(), attempt.Detail()),
			Fingerprint: event.Fingerprint(),
		})
	case attempt.Outcome() == valueobject.AttemptOutcomeSkipped &&
		attempt.SafetyLevel() == valueobject.SafetyLevelManualOnly:
		title := "Manual intervention required"
		if attempt.StrategyID() != "" {
			title = fmt.Sprintf("Manual action suggested: %s", attempt.StrategyID())
		}
		o.notify(ctx, outbound.Notification{
			Kind:        outbound.NotificationKindManualAction,
			Channel:     o.channel,
			Title:       title,
			Body:        fmt.Sprintf("%s\n%s", event.Message(), attempt.Detail()),
			Fingerprint: event.Fingerprint(),
		})
	case attempt.Outcome().CountsAsFailure():
		o.mu.Lock()
		o.stats.resolutionsFailed++
		o.mu.Unlock()
		o.notify(ctx, outbound.Notification{
			Kind:        outbound.NotificationKindResolutionFailure,
			Channel:     o.channel,
			Title:       fmt.Sprintf("Resolution failed: %s", attempt.StrategyID()),
			Body:        fmt.Sprintf("%s\n%s", event.Message(), attempt.Detail()),
			Fingerprint: event.Fingerprint(),
		})
	}
}

// notify sends a notification with retries. Delivery failures are counted
// and logged, never propagated.
func (o *Orchestrator) notify(ctx context.Context, notification outbound.Notification) {
	if o.dispatcher == nil {
		return
	}

	err := o.retrier.Execute(ctx, func(ctx context.Context) error {
		_, sendErr := o.dispatcher.Send(ctx, notification)
		return sendErr
	})

	delivered := err == nil
	o.metrics.RecordNotification(ctx, string(notification.Kind), delivered)
	if !delivered {
		o.mu.Lock()
		o.stats.notificationsFailed++
		o.mu.Unlock()
		slogger.Error(ctx, "Notification delivery failed", slogger.Fields2(
			"kind", string(notification.Kind),
			"error", err.Error(),
		))
	}
}

// handleInteraction reacts to acknowledgements relayed from the messaging
// backend.
func (o *Orchestrator) handleInteraction(ctx context.Context, interaction outbound.Interaction) {
	switch interaction.Action {
	case outbound.InteractionActionMarkResolved:
		if err := o.escalations.ClearFingerprint(ctx, interaction.Fingerprint); err != nil {
			slogger.Error(ctx, "Failed to clear escalation state", slogger.Fields2(
				"fingerprint", interaction.Fingerprint.String(),
				"error", err.Error(),
			))
			return
		}
		slogger.Info(ctx, "Escalation cleared by operator", slogger.Fields2(
			"fingerprint", interaction.Fingerprint.String(),
			"actor", interaction.Actor,
		))
	case outbound.InteractionActionApproveEscalation:
		if err := o.escalations.ApproveEscalation(ctx, interaction.Fingerprint, interaction.Actor); err != nil {
			slogger.Error(ctx, "Failed to approve escalation", slogger.Fields2(
				"fingerprint", interaction.Fingerprint.String(),
				"error", err.Error(),
			))
			return
		}
		slogger.Info(ctx, "Escalation approved by operator", slogger.Fields2(
			"fingerprint", interaction.Fingerprint.String(),
			"actor", interaction.Actor,
		))
	default:
		slogger.Warn(ctx, "Unknown interaction action", slogger.Fields{
			"action": string(interaction.Action),
		})
	}
}

func (o *Orchestrator) finishCycle(ctx context.Context, summary *entity.CycleSummary, cycleErr error) {
	if err := summary.Finish(); err != nil {
		slogger.Error(ctx, "Failed to finish cycle summary", slogger.Fields{"error": err.Error()})
	}
	duration := summary.FinishedAt().Sub(summary.StartedAt())

	o.mu.Lock()
	o.lastCycleTime = summary.FinishedAt()
	o.stats.lastCycleDuration = duration
	o.stats.totalCycleTime += duration
	if cycleErr != nil {
		o.lastCycleErr = cycleErr.Error()
		o.consecutiveFailures++
		o.stats.cyclesFailed++
	} else {
		o.lastCycleErr = ""
		o.consecutiveFailures = 0
		o.stats.cyclesCompleted++
	}
	o.mu.Unlock()

	o.metrics.RecordCycle(ctx, duration, cycleErr != nil)

	if err := o.cycles.SaveCycleSummary(ctx, summary); err != nil {
		slogger.Error(ctx, "Failed to persist cycle summary", slogger.Fields{"error": err.Error()})
	}

	slogger.Info(ctx, "Cycle finished", slogger.Fields{
		"events_processed":    summary.EventsProcessed(),
		"resolutions_applied": summary.ResolutionsApplied(),
		"escalations_raised":  summary.EscalationsRaised(),
		"failures":            summary.Failures(),
		"duration":            duration.String(),
	})
}

// Health reports the current liveness of the loop.
func (o *Orchestrator) Health() inbound.OrchestratorHealthStatus {
	o.mu.Lock()
	defer o.mu.Unlock()

	status := inbound.OrchestratorHealthStatus{
		IsRunning:           o.running,
		DryRun:              o.dryRun,
		LastCycleTime:       o.lastCycleTime,
		LastCycleError:      o.lastCycleErr,
		ActiveResolutions:   o.engine.InFlightCount(),
		ConsecutiveFailures: o.consecutiveFailures,
	}
	if o.patterns != nil {
		status.PatternCount = o.patterns.Count()
	}
	if o.strategies != nil {
		status.StrategyCount = o.strategies.Count()
	}
	return status
}

// GetMetrics returns aggregate counters since start.
func (o *Orchestrator) GetMetrics() inbound.OrchestratorMetrics {
	o.mu.Lock()
	defer o.mu.Unlock()

	var avg time.Duration
	if cycles := o.stats.cyclesCompleted + o.stats.cyclesFailed; cycles > 0 {
		avg = o.stats.totalCycleTime / time.Duration(cycles)
	}

	return inbound.OrchestratorMetrics{
		CyclesCompleted:     o.stats.cyclesCompleted,
		CyclesFailed:        o.stats.cyclesFailed,
		EventsProcessed:     o.stats.eventsProcessed,
		ResolutionsApplied:  o.stats.resolutionsApplied,
		ResolutionsFailed:   o.stats.resolutionsFailed,
		EscalationsRaised:   o.stats.escalationsRaised,
		AverageCycleTime:    avg,
		LastCycleDuration:   o.stats.lastCycleDuration,
		ServiceStartTime:    o.stats.startTime,
		NotificationsFailed: o.stats.notificationsFailed,
	}
}
