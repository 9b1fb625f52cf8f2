package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeConfigFile writes YAML content to a temp file and returns its
// path.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meridian.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `
activity:
  backend: sqlite
  sqlite_path: /data/activity.db
storage:
  backend: sqlite
  sqlite_path: /data/meridian.db
  checkpoint_interval: 1m
alerts:
  enabled: true
  evaluation_interval: 5m
  default_threshold_percent: 75
scheduler:
  enabled: true
  tick_interval: 30s
  delivery:
    max_attempts: 5
    initial_backoff: 1s
telemetry:
  logging:
    level: debug
    format: text
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Activity.Backend != "sqlite" || cfg.Activity.SQLitePath != "/data/activity.db" {
		t.Errorf("Activity config mismatch: %+v", cfg.Activity)
	}
	if cfg.Storage.CheckpointInterval != time.Minute {
		t.Errorf("Expected 1m checkpoint interval, got %v", cfg.Storage.CheckpointInterval)
	}
	if cfg.Alerts.EvaluationInterval != 5*time.Minute || cfg.Alerts.DefaultThresholdPercent != 75 {
		t.Errorf("Alerts config mismatch: %+v", cfg.Alerts)
	}
	if cfg.Scheduler.TickInterval != 30*time.Second {
		t.Errorf("Expected 30s tick interval, got %v", cfg.Scheduler.TickInterval)
	}
	if cfg.Scheduler.Delivery.MaxAttempts != 5 || cfg.Scheduler.Delivery.InitialBackoff != time.Second {
		t.Errorf("Delivery config mismatch: %+v", cfg.Scheduler.Delivery)
	}
	if cfg.Telemetry.Logging.Level != "debug" || cfg.Telemetry.Logging.Format != "text" {
		t.Errorf("Logging config mismatch: %+v", cfg.Telemetry.Logging)
	}

	// Unset fields picked up defaults.
	if cfg.Budget.ForecastWindowDays != DefaultForecastWindowDays {
		t.Errorf("Expected default forecast window, got %d", cfg.Budget.ForecastWindowDays)
	}
	if cfg.Telemetry.Metrics.Path != DefaultMetricsPath {
		t.Errorf("Expected default metrics path, got %q", cfg.Telemetry.Metrics.Path)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/meridian.yaml"); err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "alerts: [not a map")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("Expected error for malformed YAML")
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	path := writeConfigFile(t, `
alerts:
  default_threshold_percent: 150
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("Expected validation error for threshold above 100")
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
storage:
  backend: memory
alerts:
  evaluation_interval: 15m
`)

	t.Setenv("MERIDIAN_STORAGE_BACKEND", "sqlite")
	t.Setenv("MERIDIAN_STORAGE_SQLITE_PATH", "/env/meridian.db")
	t.Setenv("MERIDIAN_ALERTS_EVALUATION_INTERVAL", "1m")
	t.Setenv("MERIDIAN_TELEMETRY_LOGGING_LEVEL", "warn")
	t.Setenv("MERIDIAN_SCHEDULER_DELIVERY_MAX_ATTEMPTS", "7")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides failed: %v", err)
	}

	if cfg.Storage.Backend != "sqlite" || cfg.Storage.SQLitePath != "/env/meridian.db" {
		t.Errorf("Expected env override of storage, got %+v", cfg.Storage)
	}
	if cfg.Alerts.EvaluationInterval != time.Minute {
		t.Errorf("Expected env override of interval, got %v", cfg.Alerts.EvaluationInterval)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("Expected env override of log level, got %q", cfg.Telemetry.Logging.Level)
	}
	if cfg.Scheduler.Delivery.MaxAttempts != 7 {
		t.Errorf("Expected env override of max attempts, got %d", cfg.Scheduler.Delivery.MaxAttempts)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidOverride(t *testing.T) {
	path := writeConfigFile(t, "")

	// Unparseable values are ignored, not errors.
	t.Setenv("MERIDIAN_ALERTS_EVALUATION_INTERVAL", "not-a-duration")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides failed: %v", err)
	}
	if cfg.Alerts.EvaluationInterval != DefaultEvaluationInterval {
		t.Errorf("Expected default interval, got %v", cfg.Alerts.EvaluationInterval)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidResult(t *testing.T) {
	path := writeConfigFile(t, "")

	t.Setenv("MERIDIAN_STORAGE_BACKEND", "sqlite") // no path provided

	if _, err := LoadConfigWithEnvOverrides(path); err == nil {
		t.Fatal("Expected validation error after overrides")
	}
}
