package config

import "time"

// Default values applied to unset fields.
const (
	// DefaultActivityBackend is the activity source used when none is
	// configured.
	DefaultActivityBackend = "memory"

	// DefaultStorageBackend is the persistence backend used when none
	// is configured.
	DefaultStorageBackend = "memory"

	// DefaultCheckpointInterval is the WAL checkpoint cadence.
	DefaultCheckpointInterval = 5 * time.Minute

	// DefaultBusyTimeout is how long SQLite waits for locks.
	DefaultBusyTimeout = 5 * time.Second

	// DefaultForecastWindowDays is the trailing window for burn rate
	// and completion forecasts.
	DefaultForecastWindowDays = 30

	// DefaultTrendWindowDays is the trailing window for trend analysis.
	DefaultTrendWindowDays = 90

	// DefaultEvaluationInterval is the alert evaluator tick.
	DefaultEvaluationInterval = 15 * time.Minute

	// DefaultThresholdPercent is the warning threshold for projects
	// without their own.
	DefaultThresholdPercent = 80

	// DefaultTickInterval is the scheduler polling interval.
	DefaultTickInterval = time.Minute

	// DefaultDeliveryMaxAttempts bounds delivery retries.
	DefaultDeliveryMaxAttempts = 3

	// DefaultDeliveryInitialBackoff is the first retry delay.
	DefaultDeliveryInitialBackoff = 2 * time.Second

	// DefaultLogLevel is the minimum log level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the log output format.
	DefaultLogFormat = "json"

	// DefaultMetricsListenAddress is where the metrics server binds.
	DefaultMetricsListenAddress = "127.0.0.1:9464"

	// DefaultMetricsPath is the metrics HTTP path.
	DefaultMetricsPath = "/metrics"
)

// ApplyDefaults fills unset fields with default values.
// It only modifies zero-valued fields; explicitly configured values are
// preserved.
func ApplyDefaults(cfg *Config) {
	if cfg.Activity.Backend == "" {
		cfg.Activity.Backend = DefaultActivityBackend
	}
	if cfg.Activity.BusyTimeout == 0 {
		cfg.Activity.BusyTimeout = DefaultBusyTimeout
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.CheckpointInterval == 0 {
		cfg.Storage.CheckpointInterval = DefaultCheckpointInterval
	}
	if cfg.Storage.BusyTimeout == 0 {
		cfg.Storage.BusyTimeout = DefaultBusyTimeout
	}

	if cfg.Budget.ForecastWindowDays == 0 {
		cfg.Budget.ForecastWindowDays = DefaultForecastWindowDays
	}
	if cfg.Budget.TrendWindowDays == 0 {
		cfg.Budget.TrendWindowDays = DefaultTrendWindowDays
	}

	if cfg.Alerts.EvaluationInterval == 0 {
		cfg.Alerts.EvaluationInterval = DefaultEvaluationInterval
	}
	if cfg.Alerts.DefaultThresholdPercent == 0 {
		cfg.Alerts.DefaultThresholdPercent = DefaultThresholdPercent
	}

	if cfg.Scheduler.TickInterval == 0 {
		cfg.Scheduler.TickInterval = DefaultTickInterval
	}
	if cfg.Scheduler.Delivery.MaxAttempts == 0 {
		cfg.Scheduler.Delivery.MaxAttempts = DefaultDeliveryMaxAttempts
	}
	if cfg.Scheduler.Delivery.InitialBackoff == 0 {
		cfg.Scheduler.Delivery.InitialBackoff = DefaultDeliveryInitialBackoff
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}

// DefaultConfig returns a fully defaulted configuration with both loops
// enabled and in-memory backends.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Alerts.Enabled = true
	cfg.Scheduler.Enabled = true
	cfg.Telemetry.Metrics.Enabled = true
	ApplyDefaults(cfg)
	return cfg
}
