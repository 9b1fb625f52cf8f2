package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SweepGenerator re-dispatches artifacts whose delivery exhausted its
// retry budget. Each sweep occurrence walks the failed-delivery
// records, re-sends through the delivery worker, clears the records
// that went through, and renders a summary artifact of the outcome.
type SweepGenerator struct {
	store    Store
	delivery *Delivery

	// now is injectable for tests.
	now func() time.Time
}

// NewSweepGenerator creates a sweep generator over the given store and
// delivery worker.
func NewSweepGenerator(store Store, delivery *Delivery) *SweepGenerator {
	return &SweepGenerator{
		store:    store,
		delivery: delivery,
		now:      time.Now,
	}
}

// Generate runs one sweep. Re-send failures keep their record (with the
// fresh error) and are retried by the next sweep; the summary artifact
// reports both outcomes.
func (g *SweepGenerator) Generate(ctx context.Context, s *Schedule, periodKey string) (*Artifact, error) {
	failures, err := g.store.ListFailedDeliveries(ctx)
	if err != nil {
		return nil, fmt.Errorf("sweep %s: %w", periodKey, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Delivery sweep %s\n", periodKey)

	var resent, remaining int
	for _, fd := range failures {
		line := g.resend(ctx, fd)
		if line == "" {
			resent++
			fmt.Fprintf(&b, "  re-sent    %s/%s -> %s\n", fd.ScheduleID, fd.PeriodKey, fd.Recipient)
			continue
		}
		remaining++
		fmt.Fprintf(&b, "  still failing  %s/%s: %s\n", fd.ScheduleID, fd.PeriodKey, line)
	}

	fmt.Fprintf(&b, "\n%d re-sent, %d still failing\n", resent, remaining)

	return &Artifact{
		ID:         uuid.NewString(),
		ScheduleID: s.ID,
		PeriodKey:  periodKey,
		Kind:       KindWebhookSweep,
		Content:    b.String(),
		CreatedAt:  g.now().UTC(),
	}, nil
}

// resend replays one failed delivery. It returns "" on success and the
// failure text otherwise, after updating the record for the next sweep.
func (g *SweepGenerator) resend(ctx context.Context, fd *FailedDelivery) string {
	sched, err := g.store.GetSchedule(ctx, fd.ScheduleID)
	if err != nil {
		// The schedule is gone; the record is unrecoverable.
		g.store.DeleteFailedDelivery(ctx, fd.ID)
		return fmt.Sprintf("schedule missing: %v", err)
	}

	artifact, err := g.store.Artifact(ctx, fd.ScheduleID, fd.PeriodKey)
	if err != nil {
		return fmt.Sprintf("artifact lookup failed: %v", err)
	}
	if artifact == nil {
		g.store.DeleteFailedDelivery(ctx, fd.ID)
		return "artifact missing"
	}

	if err := g.delivery.Dispatch(ctx, sched, artifact); err != nil {
		fd.Attempts += g.delivery.config.MaxAttempts
		fd.LastError = err.Error()
		fd.FailedAt = g.now()
		if putErr := g.store.PutFailedDelivery(ctx, fd); putErr != nil {
			return fmt.Sprintf("%v (record not updated: %v)", err, putErr)
		}
		return err.Error()
	}

	if err := g.store.DeleteFailedDelivery(ctx, fd.ID); err != nil {
		return fmt.Sprintf("sent but record not cleared: %v", err)
	}
	return ""
}
