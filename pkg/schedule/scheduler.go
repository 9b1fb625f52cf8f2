package schedule

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// claimLease is how long a claimed occurrence stays leased. A crashed
// instance's claim expires after this and the occurrence is retried.
const claimLease = 5 * time.Minute

// Scheduler polls for due schedules and drives their execution.
//
// Multiple Scheduler instances may run against the same store; the
// store's compare-and-set claim guarantees at most one successful
// generation per due occurrence.
type Scheduler struct {
	store      Store
	generators map[Kind]Generator
	delivery   *Delivery
	interval   time.Duration
	logger     *slog.Logger

	// now is injectable for tests.
	now func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewScheduler creates a scheduler polling the store every interval.
// Delivery may be nil for kinds that produce artifacts nothing sends.
func NewScheduler(store Store, delivery *Delivery, interval time.Duration) *Scheduler {
	return &Scheduler{
		store:      store,
		generators: make(map[Kind]Generator),
		delivery:   delivery,
		interval:   interval,
		logger:     slog.Default().With("component", "schedule.scheduler"),
		now:        time.Now,
	}
}

// RegisterGenerator installs the generator for a schedule kind. The
// kind set is closed; registration is the explicit handler table.
func (sc *Scheduler) RegisterGenerator(kind Kind, gen Generator) {
	sc.generators[kind] = gen
}

// Start begins the polling loop. It returns immediately; polling runs in
// a background goroutine until Stop is called or the context is
// cancelled.
func (sc *Scheduler) Start(ctx context.Context) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.running {
		return
	}
	sc.running = true
	sc.stopCh = make(chan struct{})
	sc.doneCh = make(chan struct{})

	sc.logger.Info("scheduler started", "interval", sc.interval)

	go sc.loop(ctx)
}

// loop drives ticks until stopped.
func (sc *Scheduler) loop(ctx context.Context) {
	defer close(sc.doneCh)

	ticker := time.NewTicker(sc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sc.Tick(ctx)
		case <-ctx.Done():
			return
		case <-sc.stopCh:
			return
		}
	}
}

// Stop halts the polling loop and waits for an in-flight tick to finish.
func (sc *Scheduler) Stop() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if !sc.running {
		return
	}
	close(sc.stopCh)
	<-sc.doneCh
	sc.running = false

	sc.logger.Info("scheduler stopped")
}

// IsRunning reports whether the loop is active.
func (sc *Scheduler) IsRunning() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.running
}

// Tick scans for due schedules and executes each one. Exposed so the
// runner and tests can drive the scheduler without the ticker.
func (sc *Scheduler) Tick(ctx context.Context) {
	now := sc.now()

	due, err := sc.store.Due(ctx, now)
	if err != nil {
		sc.logger.Error("failed to scan due schedules", "error", err)
		return
	}
	schedulesDue.Set(float64(len(due)))

	for _, s := range due {
		sc.execute(ctx, s, now)
	}
}

// execute runs one due occurrence of a schedule.
func (sc *Scheduler) execute(ctx context.Context, s *Schedule, now time.Time) {
	logger := sc.logger.With("schedule_id", s.ID, "kind", s.Kind)

	// A series whose end date has passed never generates again; it is
	// deactivated on the first tick that observes this.
	if s.EndDate != nil && s.EndDate.Before(now) {
		if err := sc.store.Deactivate(ctx, s.ID); err != nil {
			logger.Error("failed to deactivate ended schedule", "error", err)
			return
		}
		scheduleRuns.WithLabelValues(string(s.Kind), "deactivated").Inc()
		logger.Info("schedule ended, deactivated", "end_date", s.EndDate)
		return
	}

	claimed, err := sc.store.Claim(ctx, s.ID, s.NextRunAt, now.Add(claimLease))
	if err != nil {
		logger.Error("claim failed", "error", err)
		return
	}
	if !claimed {
		// Another instance won this occurrence.
		scheduleRuns.WithLabelValues(string(s.Kind), "claim_lost").Inc()
		return
	}

	gen, ok := sc.generators[s.Kind]
	if !ok {
		// Leave the claim to expire; nothing can run this kind here.
		scheduleRuns.WithLabelValues(string(s.Kind), "no_generator").Inc()
		logger.Error("no generator registered for kind")
		return
	}

	dueAt := s.NextRunAt
	periodKey := PeriodKey(s, dueAt)

	artifact, err := gen.Generate(ctx, s, periodKey)
	if err != nil {
		// Generation failed: NextRunAt stays put and the claim lease
		// expires, so the occurrence retries on a later tick.
		scheduleRuns.WithLabelValues(string(s.Kind), "failed").Inc()
		logger.Error("artifact generation failed",
			"period_key", periodKey,
			"error", err,
		)
		return
	}

	next, fellBack := NextRun(s, dueAt)
	if fellBack {
		logger.Warn("cron expression unparseable, degraded to daily cadence",
			"cron_expr", s.CronExpr,
		)
	}

	err = sc.store.Complete(ctx, s.ID, now, next, artifact)
	duplicate := errors.Is(err, ErrDuplicateArtifact)
	if err != nil && !duplicate {
		// Commit failed: the advance did not happen, so the occurrence
		// will be regenerated; the artifact unique key suppresses any
		// duplicate output.
		scheduleRuns.WithLabelValues(string(s.Kind), "commit_failed").Inc()
		logger.Error("failed to commit occurrence", "error", err)
		return
	}

	if duplicate {
		scheduleRuns.WithLabelValues(string(s.Kind), "duplicate").Inc()
		logger.Info("occurrence already produced, advanced schedule",
			"period_key", periodKey,
		)
		return
	}

	scheduleRuns.WithLabelValues(string(s.Kind), "generated").Inc()
	logger.Info("occurrence generated",
		"period_key", periodKey,
		"next_run_at", next,
	)

	sc.deliver(ctx, s, artifact)
}

// deliver hands the artifact to the delivery worker. Delivery failures
// are reported but never trigger re-generation.
func (sc *Scheduler) deliver(ctx context.Context, s *Schedule, artifact *Artifact) {
	if sc.delivery == nil {
		return
	}

	// Deactivation is honored before follow-on side effects: re-read the
	// schedule and skip the send if it was switched off mid-run.
	fresh, err := sc.store.GetSchedule(ctx, s.ID)
	if err == nil && !fresh.Active {
		sc.logger.Info("schedule deactivated mid-run, skipping delivery",
			"schedule_id", s.ID,
		)
		return
	}

	if err := sc.delivery.Dispatch(ctx, s, artifact); err != nil {
		sc.logger.Error("artifact delivery failed",
			"schedule_id", s.ID,
			"period_key", artifact.PeriodKey,
			"error", err,
		)
		sc.recordFailedDelivery(ctx, s, artifact, err)
	}
}

// recordFailedDelivery marks an exhausted delivery for the webhook
// sweep. Permanent failures are not recorded: re-sending them would
// fail the same way. Sweep summaries are not recorded either, or a
// failing sweep would re-deliver itself forever.
func (sc *Scheduler) recordFailedDelivery(ctx context.Context, s *Schedule, artifact *Artifact, sendErr error) {
	if s.Kind == KindWebhookSweep {
		return
	}
	var derr *DeliveryError
	if errors.As(sendErr, &derr) && !derr.Transient {
		return
	}

	err := sc.store.PutFailedDelivery(ctx, &FailedDelivery{
		ID:         uuid.NewString(),
		ScheduleID: s.ID,
		PeriodKey:  artifact.PeriodKey,
		Recipient:  s.Recipient,
		Attempts:   sc.delivery.config.MaxAttempts,
		LastError:  sendErr.Error(),
		FailedAt:   sc.now(),
	})
	if err != nil {
		sc.logger.Error("failed to record exhausted delivery",
			"schedule_id", s.ID,
			"period_key", artifact.PeriodKey,
			"error", err,
		)
		return
	}
	sc.logger.Info("delivery exhausted, marked for sweep",
		"schedule_id", s.ID,
		"period_key", artifact.PeriodKey,
	)
}
