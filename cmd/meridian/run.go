package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"trackwell-hq/meridian/pkg/activity"
	"trackwell-hq/meridian/pkg/alerts"
	"trackwell-hq/meridian/pkg/budget"
	"trackwell-hq/meridian/pkg/cli"
	"trackwell-hq/meridian/pkg/config"
	"trackwell-hq/meridian/pkg/schedule"
	"trackwell-hq/meridian/pkg/storage"
	"trackwell-hq/meridian/pkg/telemetry/logging"
)

var runFlags struct {
	logLevel string
	dryRun   bool
	watch    bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Meridian engine",
	Long: `Start the Meridian engine with the specified configuration.

The engine runs the alert evaluator and the recurring-task scheduler as
background loops and serves Prometheus metrics when enabled.

Examples:
  # Start with default config
  meridian run

  # Start with custom config
  meridian run --config /etc/meridian/config.yaml

  # Override log level
  meridian run --log-level debug

  # Validate config without starting the engine
  meridian run --dry-run`,
	RunE: runEngine,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the engine")
	runCmd.Flags().BoolVar(&runFlags.watch, "watch", false, "reload configuration when the file changes")
}

// store is the persistence surface the engine needs: alert records on
// one side, schedules and artifacts on the other.
type store interface {
	alerts.Store
	schedule.Store
}

func runEngine(cmd *cobra.Command, args []string) error {
	// Load configuration
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	// Apply flag overrides
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	printBanner(cfg)

	// Activity source (read-only)
	source, err := newActivitySource(cfg)
	if err != nil {
		return fmt.Errorf("failed to open activity source: %w", err)
	}
	if closer, ok := source.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	fmt.Printf("✓ Activity source ready (%s)\n", cfg.Activity.Backend)

	// Alert and schedule persistence
	st, err := newStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	if closer, ok := st.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	fmt.Printf("✓ Storage ready (%s)\n", cfg.Storage.Backend)

	// Budget computations and the alert engine
	agg := budget.NewAggregator(source)
	agg.SetDefaultThreshold(cfg.Alerts.DefaultThresholdPercent)
	engine := alerts.NewEngine(st, source, agg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Alert evaluator loop
	var evaluator *alerts.Evaluator
	if cfg.Alerts.Enabled {
		evaluator = alerts.NewEvaluator(engine, cfg.Alerts.EvaluationInterval)
		evaluator.Start(ctx)
		defer evaluator.Stop()
		fmt.Printf("✓ Alert evaluator started (every %s)\n", cfg.Alerts.EvaluationInterval)
	}

	// Recurring-task scheduler loop
	var scheduler *schedule.Scheduler
	if cfg.Scheduler.Enabled {
		delivery := schedule.NewDelivery(schedule.DeliveryConfig{
			MaxAttempts:    cfg.Scheduler.Delivery.MaxAttempts,
			InitialBackoff: cfg.Scheduler.Delivery.InitialBackoff,
		})
		sender := schedule.NewRoutingSender(
			schedule.NewWebhookSender(30*time.Second),
			schedule.NewLogSender(logger),
		)
		delivery.RegisterSender(schedule.KindInvoice, sender)
		delivery.RegisterSender(schedule.KindReport, sender)
		delivery.RegisterSender(schedule.KindWebhookSweep, sender)

		scheduler = schedule.NewScheduler(st, delivery, cfg.Scheduler.TickInterval)
		scheduler.RegisterGenerator(schedule.KindInvoice, schedule.NewInvoiceGenerator(source))
		scheduler.RegisterGenerator(schedule.KindReport, schedule.NewReportGenerator(source))
		scheduler.RegisterGenerator(schedule.KindWebhookSweep, schedule.NewSweepGenerator(st, delivery))
		scheduler.Start(ctx)
		defer scheduler.Stop()
		fmt.Printf("✓ Scheduler started (every %s)\n", cfg.Scheduler.TickInterval)
	}

	errChan := make(chan error, 1)

	// Prometheus metrics endpoint
	var metricsSrv *http.Server
	if cfg.Telemetry.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Telemetry.Metrics.Path, promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:    cfg.Telemetry.Metrics.ListenAddress,
			Handler: mux,
		}
		go func() {
			slog.Info("metrics server starting",
				"address", cfg.Telemetry.Metrics.ListenAddress,
				"path", cfg.Telemetry.Metrics.Path,
			)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errChan <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
		fmt.Printf("✓ Metrics on http://%s%s\n",
			cfg.Telemetry.Metrics.ListenAddress, cfg.Telemetry.Metrics.Path)
	}

	// Config hot reload
	if runFlags.watch {
		watcher, err := config.NewWatcher(cfgFile, logger)
		if err != nil {
			return fmt.Errorf("failed to watch config: %w", err)
		}
		go func() {
			if err := watcher.Watch(ctx, func() error {
				if err := config.ReloadConfig(cfgFile); err != nil {
					return err
				}
				next := config.GetConfig()
				if reloaded, err := logging.New(logging.Config{
					Level:     next.Telemetry.Logging.Level,
					Format:    next.Telemetry.Logging.Format,
					AddSource: next.Telemetry.Logging.AddSource,
				}); err == nil {
					slog.SetDefault(reloaded)
				}
				agg.SetDefaultThreshold(next.Alerts.DefaultThresholdPercent)
				return nil
			}); err != nil {
				slog.Error("config watcher exited", "error", err)
			}
		}()
		defer watcher.Stop()
	}

	fmt.Println("\nPress Ctrl+C to stop")

	sigChan := cli.WaitForShutdown()

	select {
	case err := <-errChan:
		return cli.NewCommandError("run", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal %s, shutting down gracefully...\n", sig)
		cancel()

		if metricsSrv != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
				slog.Error("metrics shutdown failed", "error", err)
			}
		}

		fmt.Println("✓ Engine stopped")
		return nil
	}
}

// newActivitySource opens the configured cost activity backend.
func newActivitySource(cfg *config.Config) (activity.Source, error) {
	switch cfg.Activity.Backend {
	case "sqlite":
		return activity.NewSQLiteSource(&activity.SQLiteConfig{
			Path:        cfg.Activity.SQLitePath,
			BusyTimeout: cfg.Activity.BusyTimeout,
		})
	case "memory":
		return activity.NewMemorySource(), nil
	default:
		return nil, fmt.Errorf("unsupported activity backend: %s", cfg.Activity.Backend)
	}
}

// newStore opens the configured alert and schedule persistence backend.
func newStore(cfg *config.Config) (store, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		return storage.NewSQLiteStoreWithConfig(storage.SQLiteStoreConfig{
			DBPath:             cfg.Storage.SQLitePath,
			CheckpointInterval: cfg.Storage.CheckpointInterval,
			BusyTimeout:        cfg.Storage.BusyTimeout,
		})
	case "memory":
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}

func printBanner(cfg *config.Config) {
	fmt.Printf("Meridian v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	slog.Debug("activity backend", "backend", cfg.Activity.Backend)
	slog.Debug("storage backend", "backend", cfg.Storage.Backend)
	if cfg.Alerts.Enabled {
		slog.Debug("alerts enabled",
			"interval", cfg.Alerts.EvaluationInterval,
			"default_threshold", cfg.Alerts.DefaultThresholdPercent,
		)
	}
	if cfg.Scheduler.Enabled {
		slog.Debug("scheduler enabled", "interval", cfg.Scheduler.TickInterval)
	}
}
