/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alertflow/internal/adapter/inbound/api"
	"alertflow/internal/adapter/inbound/messaging"
	"alertflow/internal/adapter/outbound/memory"
	"alertflow/internal/adapter/outbound/mock"
	"alertflow/internal/adapter/outbound/postgres"
	"alertflow/internal/adapter/outbound/runbook"
	"alertflow/internal/adapter/outbound/sentry"
	"alertflow/internal/adapter/outbound/slack"
	"alertflow/internal/application/common/logging"
	"alertflow/internal/application/common/slogger"
	"alertflow/internal/application/service"
	"alertflow/internal/application/worker"
	"alertflow/internal/config"
	"alertflow/internal/port/outbound"
	"alertflow/internal/version"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

// notificationBackend is what the wiring needs from a messaging adapter:
// outbound delivery plus the interaction relay exposed to the API.
type notificationBackend interface {
	outbound.NotificationDispatcher
	api.InteractionSink
}

// ServiceFactory creates and manages the engine's component instances.
type ServiceFactory struct {
	config *config.Config

	pool     *pgxpool.Pool
	store    outbound.OrchestrationStore
	patterns *service.PatternRegistry
}

// NewServiceFactory creates a new ServiceFactory
func NewServiceFactory(cfg *config.Config) *ServiceFactory {
	return &ServiceFactory{
		config: cfg,
	}
}

// CreateStore creates the orchestration store, falling back to the in-memory
// implementation when no database is reachable. The store is memoized so
// every component shares one backing pool.
func (sf *ServiceFactory) CreateStore(ctx context.Context) outbound.OrchestrationStore {
	if sf.store != nil {
		return sf.store
	}

	pool, err := postgres.NewPool(ctx, sf.config.Database)
	if err != nil {
		log.Printf("Failed to connect to database, using in-memory store: %v", err)
		sf.store = memory.NewStore()
		return sf.store
	}

	sf.pool = pool
	sf.store = postgres.NewOrchestrationStore(pool)
	return sf.store
}

// CreatePatternRegistry loads the pattern database and starts the file
// watcher when hot reload is enabled.
func (sf *ServiceFactory) CreatePatternRegistry(ctx context.Context) (*service.PatternRegistry, error) {
	patterns, err := service.NewPatternRegistry(sf.config.Patterns.File)
	if err != nil {
		return nil, err
	}

	if sf.config.Patterns.Watch {
		if err := patterns.Watch(ctx); err != nil {
			log.Printf("Pattern hot reload disabled: %v", err)
		}
	}

	sf.patterns = patterns
	return patterns, nil
}

// CreateStrategyRegistry creates the strategy registry with all built-in
// remediation strategies bound to the runbook service.
func (sf *ServiceFactory) CreateStrategyRegistry() (*service.StrategyRegistry, error) {
	runner, err := runbook.NewRunner(&runbook.Config{
		BaseURL:   sf.config.Runbook.BaseURL,
		AuthToken: sf.config.Runbook.AuthToken,
		Timeout:   sf.config.Runbook.Timeout,
	})
	if err != nil {
		return nil, err
	}

	registry := service.NewStrategyRegistry()
	if err := service.RegisterBuiltinStrategies(registry, runner); err != nil {
		return nil, err
	}

	return registry, nil
}

// CreateEventSource creates the Sentry client used for both the polling loop
// and post-remediation recurrence checks.
func (sf *ServiceFactory) CreateEventSource() (outbound.EventSource, error) {
	return sentry.NewClient(&sentry.Config{
		BaseURL:      sf.config.Sentry.BaseURL,
		AuthToken:    sf.config.Sentry.AuthToken,
		Organization: sf.config.Sentry.Organization,
		Project:      sf.config.Sentry.Project,
		Environment:  sf.config.Sentry.Environment,
		Timeout:      sf.config.Sentry.Timeout,
	})
}

// CreateDispatcher creates the Slack dispatcher, or a mock that logs and
// drops messages when notifications are disabled.
func (sf *ServiceFactory) CreateDispatcher() (notificationBackend, error) {
	if !sf.config.Notifications.Enabled {
		log.Printf("Notifications disabled, using mock dispatcher")
		return mock.NewDispatcher(), nil
	}

	return slack.NewDispatcher(&slack.Config{
		WebhookURL: sf.config.Notifications.WebhookURL,
		Timeout:    sf.config.Notifications.Timeout,
	})
}

// CreateMetrics creates the OpenTelemetry metrics recorder. A metrics setup
// failure is not fatal; the orchestrator falls back to a no-op recorder.
func (sf *ServiceFactory) CreateMetrics() service.OrchestrationMetrics {
	metrics, err := service.NewOrchestrationMetrics(service.OrchestrationMetricsConfig{
		ServiceName:    "alertflow",
		ServiceVersion: version.GetVersion().Version,
	})
	if err != nil {
		log.Printf("Failed to create metrics recorder, continuing without metrics: %v", err)
		return nil
	}
	return metrics
}

// CreateOrchestrator wires the full resolution pipeline together.
func (sf *ServiceFactory) CreateOrchestrator(ctx context.Context) (*worker.Orchestrator, notificationBackend, error) {
	patterns, err := sf.CreatePatternRegistry(ctx)
	if err != nil {
		return nil, nil, err
	}

	strategies, err := sf.CreateStrategyRegistry()
	if err != nil {
		return nil, nil, err
	}

	source, err := sf.CreateEventSource()
	if err != nil {
		return nil, nil, err
	}

	dispatcher, err := sf.CreateDispatcher()
	if err != nil {
		return nil, nil, err
	}

	store := sf.CreateStore(ctx)
	validator := worker.NewRecurrenceValidator(source, sf.config.Resolution.ValidationDelay)
	engine := service.NewResolutionEngine(strategies, store, sf.config.Operation, sf.config.Resolution, validator)
	escalations := service.NewEscalationManager(store, sf.config.Escalation)

	orchestrator, err := worker.NewOrchestrator(worker.OrchestratorDeps{
		Source:      source,
		Classifier:  service.NewClassifier(patterns),
		Engine:      engine,
		Escalations: escalations,
		Patterns:    patterns,
		Strategies:  strategies,
		Audit:       store,
		Cycles:      store,
		Dispatcher:  dispatcher,
		Metrics:     sf.CreateMetrics(),
	}, sf.config.Operation, sf.config.Notifications)
	if err != nil {
		return nil, nil, err
	}

	return orchestrator, dispatcher, nil
}

// CreateServer creates the HTTP API server bound to the orchestrator and the
// audit trail store.
func (sf *ServiceFactory) CreateServer(
	orchestrator *worker.Orchestrator,
	store outbound.OrchestrationStore,
	sink api.InteractionSink,
) *api.Server {
	router := api.NewRouter(
		api.NewStatusHandler(orchestrator),
		api.NewAuditHandler(store, store, store),
		api.NewInteractionHandler(sink),
	)
	return api.NewServer(sf.config.API, router)
}

// Close releases resources held by factory-created components.
func (sf *ServiceFactory) Close() {
	if sf.patterns != nil {
		if err := sf.patterns.Close(); err != nil {
			log.Printf("Error closing pattern registry: %v", err)
		}
	}
	if sf.pool != nil {
		sf.pool.Close()
	}
}

// orchestrateCmd represents the orchestrate command
var orchestrateCmd = &cobra.Command{
	Use:   "orchestrate",
	Short: "Run the alert orchestration engine",
	Long: `Run the full alert orchestration engine: the monitoring loop, the
HTTP API, and (when enabled) the NATS event consumer.

The engine polls the error tracker on the configured interval, classifies
events against the pattern database, applies remediation strategies within
the configured safety constraints, and escalates to humans when automation
cannot or should not act.

Configuration is loaded from config files and environment variables.`,
	Run: runOrchestrate,
}

func runOrchestrate(cmd *cobra.Command, args []string) {
	cfg := GetConfig()

	if err := setupLogging(cfg.Log); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	ctx := context.Background()

	factory := NewServiceFactory(cfg)
	defer factory.Close()

	orchestrator, dispatcher, err := factory.CreateOrchestrator(ctx)
	if err != nil {
		log.Fatalf("Failed to create orchestrator: %v", err)
	}

	store := factory.CreateStore(ctx)
	server := factory.CreateServer(orchestrator, store, dispatcher)

	if err := server.Start(ctx); err != nil {
		log.Fatalf("Failed to start API server: %v", err)
	}

	var consumer *messaging.EventConsumer
	if cfg.NATS.Enabled {
		consumer, err = messaging.NewEventConsumer(cfg.NATS, orchestrator)
		if err != nil {
			log.Fatalf("Failed to create event consumer: %v", err)
		}
		if err := consumer.Start(ctx); err != nil {
			log.Fatalf("Failed to start event consumer: %v", err)
		}
	}

	if err := orchestrator.Start(ctx); err != nil {
		log.Fatalf("Failed to start orchestrator: %v", err)
	}

	log.Printf("Orchestration engine started (interval=%s, dry_run=%t)",
		cfg.Operation.MonitoringInterval, cfg.Operation.DryRun)

	gracefulShutdown(orchestrator, server, consumer)
}

// gracefulShutdown blocks until a termination signal arrives, then drains
// the consumer, the orchestration loop, and the API server in order.
func gracefulShutdown(orchestrator *worker.Orchestrator, server *api.Server, consumer *messaging.EventConsumer) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Printf("Received signal: %v. Initiating graceful shutdown...", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if consumer != nil {
		if err := consumer.Stop(shutdownCtx); err != nil {
			log.Printf("Error stopping event consumer: %v", err)
		}
	}

	if err := orchestrator.Stop(shutdownCtx); err != nil {
		log.Printf("Error stopping orchestrator: %v", err)
	}

	if err := server.Stop(shutdownCtx); err != nil {
		log.Printf("Error stopping API server: %v", err)
	}

	log.Println("Orchestration engine shut down gracefully")
}

// setupLogging installs the structured global logger from config.
func setupLogging(cfg config.LogConfig) error {
	logger, err := logging.NewApplicationLogger(logging.Config{
		Level:  cfg.Level,
		Format: cfg.Format,
		Output: "stdout",
	})
	if err != nil {
		return err
	}

	slogger.SetGlobalLogger(logger)
	return nil
}

func init() {
	rootCmd.AddCommand(orchestrateCmd)
}
