package alerts

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"trackwell-hq/meridian/pkg/activity"
)

// Evaluator runs periodic alert checks across all active projects.
//
// This is a polling loop, not an event-driven system: dashboards reading
// alert state may lag behind cost activity by up to one tick.
type Evaluator struct {
	engine   *Engine
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewEvaluator creates an evaluator that checks every interval.
func NewEvaluator(engine *Engine, interval time.Duration) *Evaluator {
	return &Evaluator{
		engine:   engine,
		interval: interval,
		logger:   slog.Default().With("component", "alerts.evaluator"),
	}
}

// Start begins the evaluation loop. It returns immediately; evaluation
// runs in a background goroutine until Stop is called or the context is
// cancelled.
func (ev *Evaluator) Start(ctx context.Context) {
	ev.mu.Lock()
	defer ev.mu.Unlock()

	if ev.running {
		return
	}
	ev.running = true
	ev.stopCh = make(chan struct{})
	ev.doneCh = make(chan struct{})

	ev.logger.Info("alert evaluator started", "interval", ev.interval)

	go ev.loop(ctx)
}

// loop drives the periodic evaluation until stopped.
func (ev *Evaluator) loop(ctx context.Context) {
	defer close(ev.doneCh)

	ticker := time.NewTicker(ev.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ev.runOnce(ctx)
		case <-ctx.Done():
			return
		case <-ev.stopCh:
			return
		}
	}
}

// runOnce evaluates every active project.
func (ev *Evaluator) runOnce(ctx context.Context) {
	projects, err := ev.engine.source.Projects(ctx)
	if err != nil {
		ev.logger.Error("failed to list projects for evaluation", "error", err)
		return
	}

	var created int
	for _, p := range projects {
		if p.Status != activity.ProjectActive {
			continue
		}
		alert, err := ev.engine.CheckProject(ctx, p.ID)
		if err != nil {
			ev.logger.Error("alert check failed",
				"project_id", p.ID,
				"error", err,
			)
			continue
		}
		if alert != nil {
			created++
		}
	}

	if created > 0 {
		ev.logger.Info("alert evaluation completed",
			"projects", len(projects),
			"alerts_created", created,
		)
	} else {
		ev.logger.Debug("alert evaluation completed, no alerts created",
			"projects", len(projects),
		)
	}
}

// Stop halts the evaluation loop and waits for an in-flight pass to
// finish.
func (ev *Evaluator) Stop() {
	ev.mu.Lock()
	defer ev.mu.Unlock()

	if !ev.running {
		return
	}
	close(ev.stopCh)
	<-ev.doneCh
	ev.running = false

	ev.logger.Info("alert evaluator stopped")
}

// IsRunning reports whether the loop is active.
func (ev *Evaluator) IsRunning() bool {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	return ev.running
}
