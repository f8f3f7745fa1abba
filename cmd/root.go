package cmd

import (
	"fmt"
	"os"
	"strings"

	"alertflow/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "alertflow",
	Short: "An alert orchestration and automated remediation engine",
	Long: `AlertFlow is a production-grade engine that watches an error tracker,
classifies incoming error events against a known-pattern database, and
applies remediation strategies automatically when confidence and safety
allow it.

The engine supports:
- Periodic event ingestion from Sentry with a push path over NATS
- Pattern-based classification with confidence scoring
- Safe, gated execution of remediation runbook actions
- A persistent audit trail in PostgreSQL
- Tiered escalation with Slack notifications`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./configs/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "Log format (json, text)")

	// Bind flags to viper
	if err := viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-level flag: %v\n", err)
	}
	if err := viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-format flag: %v\n", err)
	}
}

func initConfig() {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Set config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Environment variables
	v.SetEnvPrefix("ALERTFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read configuration
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		}
		// Config file not found; use defaults and environment
	}

	// Load configuration
	cfg = config.New(v)
}

func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.port", "8080")
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.read_timeout", "10s")
	v.SetDefault("api.write_timeout", "10s")

	// Operation defaults
	v.SetDefault("operation.dry_run", false)
	v.SetDefault("operation.monitoring_interval", "60s")
	v.SetDefault("operation.max_concurrent_resolutions", 3)
	v.SetDefault("operation.lookback_window", "15m")
	v.SetDefault("operation.min_event_level", "error")
	v.SetDefault("operation.shutdown_grace_period", "30s")

	// Resolution defaults
	v.SetDefault("resolution.auto_fix_confidence_threshold", 0.7)
	v.SetDefault("resolution.risky_confidence_threshold", 0.9)
	v.SetDefault("resolution.attempt_timeout", "2m")
	v.SetDefault("resolution.validation_delay", "30s")

	// Escalation defaults
	v.SetDefault("escalation.occurrence_threshold", 50)
	v.SetDefault("escalation.consecutive_failure_threshold", 3)
	v.SetDefault("escalation.cooldown", "30m")
	v.SetDefault("escalation.high_impact_categories", []string{"database", "payments"})

	// Pattern registry defaults
	v.SetDefault("patterns.file", "./configs/patterns.yaml")
	v.SetDefault("patterns.watch", true)

	// Sentry defaults
	v.SetDefault("sentry.base_url", "https://sentry.io")
	v.SetDefault("sentry.environment", "production")
	v.SetDefault("sentry.timeout", "10s")

	// Notification defaults
	v.SetDefault("notifications.enabled", false)
	v.SetDefault("notifications.channel", "#alerts")
	v.SetDefault("notifications.timeout", "10s")
	v.SetDefault("notifications.max_retries", 3)

	// Runbook defaults
	v.SetDefault("runbook.timeout", "60s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "alertflow")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 5)

	// NATS defaults
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject", "alertflow.events")
	v.SetDefault("nats.queue_group", "orchestrators")
	v.SetDefault("nats.max_reconnects", 5)
	v.SetDefault("nats.reconnect_wait", "2s")

	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// GetConfig returns the loaded configuration
func GetConfig() *config.Config {
	return cfg
}
