package schedule

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

// sweptStore seeds a store with an invoice schedule, its persisted
// artifact, and a failed-delivery record for that occurrence.
func sweptStore(t *testing.T) (*fakeScheduleStore, *Schedule, string) {
	t.Helper()

	store := newFakeScheduleStore()
	ctx := context.Background()

	s := dueSchedule()
	s.Recipient = "https://hooks.example.com/billing"
	if err := store.PutSchedule(ctx, s); err != nil {
		t.Fatalf("PutSchedule failed: %v", err)
	}

	pk := PeriodKey(s, s.NextRunAt)
	store.mu.Lock()
	store.artifacts[artifactKey(s.ID, pk)] = &Artifact{
		ID:         "art-1",
		ScheduleID: s.ID,
		PeriodKey:  pk,
		Kind:       KindInvoice,
		Content:    "invoice body",
		CreatedAt:  schedNow.Add(-time.Hour),
	}
	store.mu.Unlock()

	err := store.PutFailedDelivery(ctx, &FailedDelivery{
		ID:         "fd-1",
		ScheduleID: s.ID,
		PeriodKey:  pk,
		Recipient:  s.Recipient,
		Attempts:   3,
		LastError:  "timeout",
		FailedAt:   schedNow.Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("PutFailedDelivery failed: %v", err)
	}
	return store, s, pk
}

func sweepSchedule() *Schedule {
	return &Schedule{
		ID:        "sweep-1",
		ProjectID: "proj-1",
		Kind:      KindWebhookSweep,
		Cadence:   CadenceDaily,
		NextRunAt: schedNow.Add(-time.Hour),
		Active:    true,
	}
}

func newTestSweep(store Store, sender Sender) *SweepGenerator {
	g := NewSweepGenerator(store, newTestDelivery(sender))
	g.now = func() time.Time { return schedNow }
	return g
}

func TestSweepGenerator_ResendsAndClears(t *testing.T) {
	store, _, _ := sweptStore(t)
	sender := &scriptedSender{}
	gen := newTestSweep(store, sender)

	artifact, err := gen.Generate(context.Background(), sweepSchedule(), "2026-03-18")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if artifact.Kind != KindWebhookSweep {
		t.Errorf("Expected sweep kind, got %s", artifact.Kind)
	}
	if sender.count() != 1 {
		t.Errorf("Expected one re-send, got %d", sender.count())
	}
	if n := store.failureCount(); n != 0 {
		t.Errorf("Expected record cleared after re-send, got %d", n)
	}
	if !strings.Contains(artifact.Content, "1 re-sent, 0 still failing") {
		t.Errorf("Expected re-send summary, got:\n%s", artifact.Content)
	}
}

func TestSweepGenerator_KeepsFailingRecord(t *testing.T) {
	store, _, pk := sweptStore(t)
	sender := &scriptedSender{failures: 99, err: &DeliveryError{Transient: true, Err: fmt.Errorf("still down")}}
	gen := newTestSweep(store, sender)

	artifact, err := gen.Generate(context.Background(), sweepSchedule(), "2026-03-18")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	failures, _ := store.ListFailedDeliveries(context.Background())
	if len(failures) != 1 {
		t.Fatalf("Expected record kept, got %d records", len(failures))
	}
	fd := failures[0]
	if fd.PeriodKey != pk {
		t.Errorf("Expected record for %s, got %s", pk, fd.PeriodKey)
	}
	if !strings.Contains(fd.LastError, "still down") {
		t.Errorf("Expected updated error, got %q", fd.LastError)
	}
	if fd.Attempts != 6 {
		t.Errorf("Expected attempts accumulated to 6, got %d", fd.Attempts)
	}
	if !fd.FailedAt.Equal(schedNow) {
		t.Errorf("Expected failure time refreshed to %v, got %v", schedNow, fd.FailedAt)
	}
	if !strings.Contains(artifact.Content, "0 re-sent, 1 still failing") {
		t.Errorf("Expected still-failing summary, got:\n%s", artifact.Content)
	}
}

func TestSweepGenerator_Empty(t *testing.T) {
	gen := newTestSweep(newFakeScheduleStore(), &scriptedSender{})

	artifact, err := gen.Generate(context.Background(), sweepSchedule(), "2026-03-18")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(artifact.Content, "0 re-sent, 0 still failing") {
		t.Errorf("Expected empty summary, got:\n%s", artifact.Content)
	}
}

// Records whose schedule was deleted cannot be replayed and are
// dropped.
func TestSweepGenerator_DropsOrphanedRecord(t *testing.T) {
	store := newFakeScheduleStore()
	store.PutFailedDelivery(context.Background(), &FailedDelivery{
		ID:         "fd-orphan",
		ScheduleID: "gone",
		PeriodKey:  "2026-03-17",
		FailedAt:   schedNow.Add(-time.Hour),
	})
	gen := newTestSweep(store, &scriptedSender{})

	if _, err := gen.Generate(context.Background(), sweepSchedule(), "2026-03-18"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if n := store.failureCount(); n != 0 {
		t.Errorf("Expected orphaned record dropped, got %d", n)
	}
}

// A sweep's own delivery failure must not create a record, or a broken
// sweep recipient would re-deliver itself forever.
func TestScheduler_SweepFailureNotRecorded(t *testing.T) {
	store := newFakeScheduleStore()
	sender := &scriptedSender{failures: 99, err: &DeliveryError{Transient: true, Err: fmt.Errorf("timeout")}}
	delivery := newTestDelivery(sender)
	delivery.RegisterSender(KindWebhookSweep, sender)

	sc := NewScheduler(store, delivery, time.Minute)
	sc.now = func() time.Time { return schedNow }
	sc.RegisterGenerator(KindWebhookSweep, NewSweepGenerator(store, delivery))

	ctx := context.Background()
	store.PutSchedule(ctx, sweepSchedule())

	sc.Tick(ctx)

	if a, _ := store.Artifact(ctx, "sweep-1", PeriodKey(sweepSchedule(), sweepSchedule().NextRunAt)); a == nil {
		t.Fatal("Expected sweep summary artifact")
	}
	if n := store.failureCount(); n != 0 {
		t.Errorf("Expected no record for the sweep's own failure, got %d", n)
	}
}
