package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration.
type Config struct {
	API           APIConfig           `mapstructure:"api"`
	Operation     OperationConfig     `mapstructure:"operation"`
	Resolution    ResolutionConfig    `mapstructure:"resolution"`
	Escalation    EscalationConfig    `mapstructure:"escalation"`
	Patterns      PatternsConfig      `mapstructure:"patterns"`
	Sentry        SentryConfig        `mapstructure:"sentry"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Runbook       RunbookConfig       `mapstructure:"runbook"`
	Database      DatabaseConfig      `mapstructure:"database"`
	NATS          NATSConfig          `mapstructure:"nats"`
	Log           LogConfig           `mapstructure:"log"`
}

// APIConfig holds API server configuration.
type APIConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// OperationConfig holds the orchestration loop configuration.
type OperationConfig struct {
	DryRun                   bool          `mapstructure:"dry_run"`
	MonitoringInterval       time.Duration `mapstructure:"monitoring_interval"`
	MaxConcurrentResolutions int           `mapstructure:"max_concurrent_resolutions"`
	LookbackWindow           time.Duration `mapstructure:"lookback_window"`
	MinEventLevel            string        `mapstructure:"min_event_level"`
	ShutdownGracePeriod      time.Duration `mapstructure:"shutdown_grace_period"`
}

// ResolutionConfig holds resolution engine configuration.
type ResolutionConfig struct {
	AutoFixConfidenceThreshold float64       `mapstructure:"auto_fix_confidence_threshold"`
	RiskyConfidenceThreshold   float64       `mapstructure:"risky_confidence_threshold"`
	AttemptTimeout             time.Duration `mapstructure:"attempt_timeout"`
	ValidationDelay            time.Duration `mapstructure:"validation_delay"`
}

// EscalationConfig holds escalation manager configuration.
type EscalationConfig struct {
	OccurrenceThreshold         int           `mapstructure:"occurrence_threshold"`
	ConsecutiveFailureThreshold int           `mapstructure:"consecutive_failure_threshold"`
	Cooldown                    time.Duration `mapstructure:"cooldown"`
	HighImpactCategories        []string      `mapstructure:"high_impact_categories"`
}

// PatternsConfig holds pattern registry configuration.
type PatternsConfig struct {
	File  string `mapstructure:"file"`
	Watch bool   `mapstructure:"watch"`
}

// SentryConfig holds event source configuration.
type SentryConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	AuthToken    string        `mapstructure:"auth_token"`
	Organization string        `mapstructure:"organization"`
	Project      string        `mapstructure:"project"`
	Environment  string        `mapstructure:"environment"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// NotificationsConfig holds notification dispatcher configuration.
type NotificationsConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Channel    string        `mapstructure:"channel"`
	WebhookURL string        `mapstructure:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// RunbookConfig holds remediation action runner configuration.
type RunbookConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	AuthToken string        `mapstructure:"auth_token"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	Name               string `mapstructure:"name"`
	SSLMode            string `mapstructure:"sslmode"`
	MaxConnections     int    `mapstructure:"max_connections"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections"`
}

// DSN returns the database connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// NATSConfig holds NATS configuration for the push event path.
type NATSConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	URL           string        `mapstructure:"url"`
	Subject       string        `mapstructure:"subject"`
	QueueGroup    string        `mapstructure:"queue_group"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// New creates a new Config instance from Viper.
func New(v *viper.Viper) *Config {
	var config Config

	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("unable to decode config: %w", err))
	}

	if err := config.Validate(); err != nil {
		panic(fmt.Errorf("invalid configuration: %w", err))
	}

	return &config
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Operation.MonitoringInterval <= 0 {
		return errors.New("operation.monitoring_interval must be positive")
	}

	if c.Operation.MaxConcurrentResolutions < 1 {
		return errors.New("operation.max_concurrent_resolutions must be at least 1")
	}

	if c.Resolution.AutoFixConfidenceThreshold < 0 || c.Resolution.AutoFixConfidenceThreshold > 1 {
		return errors.New("resolution.auto_fix_confidence_threshold must be between 0 and 1")
	}

	if c.Resolution.RiskyConfidenceThreshold < 0 || c.Resolution.RiskyConfidenceThreshold > 1 {
		return errors.New("resolution.risky_confidence_threshold must be between 0 and 1")
	}

	if c.Resolution.AttemptTimeout <= 0 {
		return errors.New("resolution.attempt_timeout must be positive")
	}

	if c.Escalation.OccurrenceThreshold < 1 {
		return errors.New("escalation.occurrence_threshold must be at least 1")
	}

	if c.Escalation.ConsecutiveFailureThreshold < 1 {
		return errors.New("escalation.consecutive_failure_threshold must be at least 1")
	}

	if c.Patterns.File == "" {
		return errors.New("patterns.file is required")
	}

	if c.Database.Port != 0 && (c.Database.Port < 1 || c.Database.Port > 65535) {
		return errors.New("database.port must be between 1 and 65535")
	}

	if c.Notifications.Enabled && c.Notifications.WebhookURL == "" {
		return errors.New("notifications.webhook_url is required when notifications are enabled")
	}

	return nil
}
