package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func validConfigData() map[string]interface{} {
	return map[string]interface{}{
		"operation": map[string]interface{}{
			"dry_run":                    false,
			"monitoring_interval":        "30s",
			"max_concurrent_resolutions": 3,
			"lookback_window":            "15m",
			"min_event_level":            "error",
		},
		"resolution": map[string]interface{}{
			"auto_fix_confidence_threshold": 0.8,
			"risky_confidence_threshold":    0.9,
			"attempt_timeout":               "2m",
			"validation_delay":              "30s",
		},
		"escalation": map[string]interface{}{
			"occurrence_threshold":          20,
			"consecutive_failure_threshold": 3,
			"cooldown":                      "30m",
			"high_impact_categories":        []string{"database", "payments"},
		},
		"patterns": map[string]interface{}{
			"file":  "configs/patterns.yaml",
			"watch": true,
		},
		"notifications": map[string]interface{}{
			"enabled":     true,
			"channel":     "#incidents",
			"webhook_url": "https://hooks.example.com/services/T0/B0/x",
			"max_retries": 3,
		},
	}
}

func newTestViper(data map[string]interface{}) *viper.Viper {
	v := viper.New()
	for key, value := range data {
		v.Set(key, value)
	}
	return v
}

func TestConfig_LoadsOperationAndResolutionSections(t *testing.T) {
	cfg := New(newTestViper(validConfigData()))

	if cfg.Operation.MonitoringInterval != 30*time.Second {
		t.Errorf("expected monitoring interval 30s, got %v", cfg.Operation.MonitoringInterval)
	}
	if cfg.Operation.MaxConcurrentResolutions != 3 {
		t.Errorf("expected max concurrent resolutions 3, got %d", cfg.Operation.MaxConcurrentResolutions)
	}
	if cfg.Operation.LookbackWindow != 15*time.Minute {
		t.Errorf("expected lookback window 15m, got %v", cfg.Operation.LookbackWindow)
	}
	if cfg.Resolution.AutoFixConfidenceThreshold != 0.8 {
		t.Errorf("expected auto fix threshold 0.8, got %v", cfg.Resolution.AutoFixConfidenceThreshold)
	}
	if cfg.Resolution.ValidationDelay != 30*time.Second {
		t.Errorf("expected validation delay 30s, got %v", cfg.Resolution.ValidationDelay)
	}
	if cfg.Escalation.Cooldown != 30*time.Minute {
		t.Errorf("expected cooldown 30m, got %v", cfg.Escalation.Cooldown)
	}
	if len(cfg.Escalation.HighImpactCategories) != 2 {
		t.Errorf("expected 2 high impact categories, got %d", len(cfg.Escalation.HighImpactCategories))
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(map[string]interface{})
		wantErr string
	}{
		{
			name:    "valid config",
			mutate:  func(map[string]interface{}) {},
			wantErr: "",
		},
		{
			name: "zero monitoring interval",
			mutate: func(data map[string]interface{}) {
				data["operation"].(map[string]interface{})["monitoring_interval"] = "0s"
			},
			wantErr: "operation.monitoring_interval must be positive",
		},
		{
			name: "zero concurrent resolutions",
			mutate: func(data map[string]interface{}) {
				data["operation"].(map[string]interface{})["max_concurrent_resolutions"] = 0
			},
			wantErr: "operation.max_concurrent_resolutions must be at least 1",
		},
		{
			name: "confidence threshold above one",
			mutate: func(data map[string]interface{}) {
				data["resolution"].(map[string]interface{})["auto_fix_confidence_threshold"] = 1.5
			},
			wantErr: "resolution.auto_fix_confidence_threshold must be between 0 and 1",
		},
		{
			name: "missing patterns file",
			mutate: func(data map[string]interface{}) {
				data["patterns"].(map[string]interface{})["file"] = ""
			},
			wantErr: "patterns.file is required",
		},
		{
			name: "notifications enabled without webhook",
			mutate: func(data map[string]interface{}) {
				data["notifications"].(map[string]interface{})["webhook_url"] = ""
			},
			wantErr: "notifications.webhook_url is required when notifications are enabled",
		},
		{
			name: "zero occurrence threshold",
			mutate: func(data map[string]interface{}) {
				data["escalation"].(map[string]interface{})["occurrence_threshold"] = 0
			},
			wantErr: "escalation.occurrence_threshold must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := validConfigData()
			tt.mutate(data)

			var cfg Config
			if err := newTestViper(data).Unmarshal(&cfg); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected valid config, got error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %q, got nil", tt.wantErr)
			}
			if err.Error() != tt.wantErr {
				t.Errorf("expected error %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "alertflow",
		Password: "secret",
		Name:     "alertflow",
		SSLMode:  "disable",
	}

	expected := "host=localhost port=5432 user=alertflow password=secret dbname=alertflow sslmode=disable"
	if got := d.DSN(); got != expected {
		t.Errorf("DSN() = %q, want %q", got, expected)
	}
}
