package schedule

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

// ============================================================================
// In-memory store fake
// ============================================================================

type fakeScheduleStore struct {
	mu        sync.Mutex
	schedules map[string]*Schedule
	artifacts map[string]*Artifact // keyed scheduleID + "/" + periodKey
	leases    map[string]time.Time
	failures  map[string]*FailedDelivery // keyed scheduleID + "/" + periodKey
}

func newFakeScheduleStore() *fakeScheduleStore {
	return &fakeScheduleStore{
		schedules: make(map[string]*Schedule),
		artifacts: make(map[string]*Artifact),
		leases:    make(map[string]time.Time),
		failures:  make(map[string]*FailedDelivery),
	}
}

func artifactKey(scheduleID, periodKey string) string {
	return scheduleID + "/" + periodKey
}

func (st *fakeScheduleStore) PutSchedule(ctx context.Context, s *Schedule) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	cp := *s
	st.schedules[s.ID] = &cp
	return nil
}

func (st *fakeScheduleStore) GetSchedule(ctx context.Context, id string) (*Schedule, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.schedules[id]
	if !ok {
		return nil, ErrScheduleNotFound
	}
	cp := *s
	return &cp, nil
}

func (st *fakeScheduleStore) ListSchedules(ctx context.Context) ([]*Schedule, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	var out []*Schedule
	for _, s := range st.schedules {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (st *fakeScheduleStore) Due(ctx context.Context, now time.Time) ([]*Schedule, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	var out []*Schedule
	for _, s := range st.schedules {
		if !s.Active || s.NextRunAt.After(now) {
			continue
		}
		if lease, ok := st.leases[s.ID]; ok && lease.After(now) {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (st *fakeScheduleStore) Claim(ctx context.Context, id string, observedNextRun, leaseUntil time.Time) (bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.schedules[id]
	if !ok {
		return false, ErrScheduleNotFound
	}
	if !s.Active || !s.NextRunAt.Equal(observedNextRun) {
		return false, nil
	}
	if lease, leased := st.leases[id]; leased && lease.After(time.Now()) && lease.After(observedNextRun) {
		return false, nil
	}
	st.leases[id] = leaseUntil
	return true, nil
}

func (st *fakeScheduleStore) Complete(ctx context.Context, id string, lastRun, nextRun time.Time, artifact *Artifact) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.schedules[id]
	if !ok {
		return ErrScheduleNotFound
	}

	lr := lastRun
	s.LastRunAt = &lr
	s.NextRunAt = nextRun
	delete(st.leases, id)

	key := artifactKey(artifact.ScheduleID, artifact.PeriodKey)
	if _, exists := st.artifacts[key]; exists {
		return ErrDuplicateArtifact
	}
	cp := *artifact
	st.artifacts[key] = &cp
	return nil
}

func (st *fakeScheduleStore) Deactivate(ctx context.Context, id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.schedules[id]
	if !ok {
		return ErrScheduleNotFound
	}
	s.Active = false
	return nil
}

func (st *fakeScheduleStore) Artifact(ctx context.Context, scheduleID, periodKey string) (*Artifact, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	a, ok := st.artifacts[artifactKey(scheduleID, periodKey)]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (st *fakeScheduleStore) ListArtifacts(ctx context.Context, scheduleID string) ([]*Artifact, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	var out []*Artifact
	for _, a := range st.artifacts {
		if a.ScheduleID == scheduleID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (st *fakeScheduleStore) PutFailedDelivery(ctx context.Context, fd *FailedDelivery) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	cp := *fd
	st.failures[artifactKey(fd.ScheduleID, fd.PeriodKey)] = &cp
	return nil
}

func (st *fakeScheduleStore) ListFailedDeliveries(ctx context.Context) ([]*FailedDelivery, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	var out []*FailedDelivery
	for _, fd := range st.failures {
		cp := *fd
		out = append(out, &cp)
	}
	return out, nil
}

func (st *fakeScheduleStore) DeleteFailedDelivery(ctx context.Context, id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	for key, fd := range st.failures {
		if fd.ID == id {
			delete(st.failures, key)
		}
	}
	return nil
}

func (st *fakeScheduleStore) failureCount() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.failures)
}

func (st *fakeScheduleStore) DeleteByProject(ctx context.Context, projectID string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	for id, s := range st.schedules {
		if s.ProjectID == projectID {
			delete(st.schedules, id)
		}
	}
	return nil
}

// ============================================================================
// Generators
// ============================================================================

type countingGenerator struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (g *countingGenerator) Generate(ctx context.Context, s *Schedule, periodKey string) (*Artifact, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.fail {
		return nil, fmt.Errorf("render failed")
	}
	return &Artifact{
		ID:         fmt.Sprintf("art-%d", g.calls),
		ScheduleID: s.ID,
		PeriodKey:  periodKey,
		Kind:       s.Kind,
		Content:    "invoice body",
		CreatedAt:  time.Now(),
	}, nil
}

func (g *countingGenerator) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// ============================================================================
// Fixtures
// ============================================================================

var schedNow = time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC) // Wednesday noon

// newTestScheduler returns a scheduler with a pinned clock, its store,
// and a registered invoice generator.
func newTestScheduler(t *testing.T) (*Scheduler, *fakeScheduleStore, *countingGenerator) {
	t.Helper()

	store := newFakeScheduleStore()
	gen := &countingGenerator{}
	sc := NewScheduler(store, nil, time.Minute)
	sc.now = func() time.Time { return schedNow }
	sc.RegisterGenerator(KindInvoice, gen)
	return sc, store, gen
}

// dueSchedule returns a daily invoice schedule due one hour ago.
func dueSchedule() *Schedule {
	return &Schedule{
		ID:        "sched-1",
		ProjectID: "proj-1",
		Kind:      KindInvoice,
		Cadence:   CadenceDaily,
		NextRunAt: schedNow.Add(-time.Hour),
		Active:    true,
	}
}

// ============================================================================
// Scheduler tests
// ============================================================================

func TestScheduler_ExecutesDueSchedule(t *testing.T) {
	sc, store, gen := newTestScheduler(t)
	ctx := context.Background()

	s := dueSchedule()
	if err := store.PutSchedule(ctx, s); err != nil {
		t.Fatalf("PutSchedule failed: %v", err)
	}

	sc.Tick(ctx)

	if gen.count() != 1 {
		t.Errorf("Expected 1 generation, got %d", gen.count())
	}

	artifact, _ := store.Artifact(ctx, "sched-1", PeriodKey(s, s.NextRunAt))
	if artifact == nil {
		t.Fatal("Expected artifact for the due occurrence")
	}

	after, _ := store.GetSchedule(ctx, "sched-1")
	if after.LastRunAt == nil {
		t.Error("Expected LastRunAt to be recorded")
	}
	// Advance anchors to the due time, not the tick time.
	wantNext, _ := NextRun(s, s.NextRunAt)
	if !after.NextRunAt.Equal(wantNext) {
		t.Errorf("Expected next run %v (anchored to due time), got %v", wantNext, after.NextRunAt)
	}
}

func TestScheduler_NotDueYet(t *testing.T) {
	sc, store, gen := newTestScheduler(t)
	ctx := context.Background()

	s := dueSchedule()
	s.NextRunAt = schedNow.Add(time.Hour)
	store.PutSchedule(ctx, s)

	sc.Tick(ctx)

	if gen.count() != 0 {
		t.Errorf("Expected no generation for a future schedule, got %d", gen.count())
	}
}

func TestScheduler_InactiveSkipped(t *testing.T) {
	sc, store, gen := newTestScheduler(t)
	ctx := context.Background()

	s := dueSchedule()
	s.Active = false
	store.PutSchedule(ctx, s)

	sc.Tick(ctx)

	if gen.count() != 0 {
		t.Errorf("Expected no generation for an inactive schedule, got %d", gen.count())
	}
}

// A schedule whose end date passed is deactivated on the first tick and
// never produces an artifact.
func TestScheduler_EndDatePassed(t *testing.T) {
	sc, store, gen := newTestScheduler(t)
	ctx := context.Background()

	s := dueSchedule()
	end := schedNow.AddDate(0, 0, -2)
	s.EndDate = &end
	store.PutSchedule(ctx, s)

	sc.Tick(ctx)

	if gen.count() != 0 {
		t.Errorf("Expected no generation past the series end, got %d", gen.count())
	}
	after, _ := store.GetSchedule(ctx, "sched-1")
	if after.Active {
		t.Error("Expected schedule to be deactivated")
	}
	artifacts, _ := store.ListArtifacts(ctx, "sched-1")
	if len(artifacts) != 0 {
		t.Errorf("Expected no artifacts, got %d", len(artifacts))
	}
}

// Failed generation leaves NextRunAt untouched so the occurrence retries
// on a later tick.
func TestScheduler_GenerationFailure_NoAdvance(t *testing.T) {
	sc, store, gen := newTestScheduler(t)
	gen.fail = true
	ctx := context.Background()

	s := dueSchedule()
	store.PutSchedule(ctx, s)

	sc.Tick(ctx)

	after, _ := store.GetSchedule(ctx, "sched-1")
	if !after.NextRunAt.Equal(s.NextRunAt) {
		t.Errorf("NextRunAt must not advance on failure: was %v, now %v",
			s.NextRunAt, after.NextRunAt)
	}
	if after.LastRunAt != nil {
		t.Error("LastRunAt must not be recorded on failure")
	}
	artifacts, _ := store.ListArtifacts(ctx, "sched-1")
	if len(artifacts) != 0 {
		t.Errorf("Expected no artifacts on failure, got %d", len(artifacts))
	}
}

// A second tick for an already-produced occurrence advances the schedule
// without a second artifact.
func TestScheduler_DuplicateOccurrence(t *testing.T) {
	sc, store, _ := newTestScheduler(t)
	ctx := context.Background()

	s := dueSchedule()
	store.PutSchedule(ctx, s)

	// Pre-seed the artifact as if another instance produced it but
	// crashed before advancing the schedule.
	key := PeriodKey(s, s.NextRunAt)
	store.mu.Lock()
	store.artifacts[artifactKey(s.ID, key)] = &Artifact{
		ID: "pre-existing", ScheduleID: s.ID, PeriodKey: key, Kind: s.Kind,
	}
	store.mu.Unlock()

	sc.Tick(ctx)

	after, _ := store.GetSchedule(ctx, "sched-1")
	if after.NextRunAt.Equal(s.NextRunAt) {
		t.Error("Schedule should advance past an already-produced occurrence")
	}
	artifacts, _ := store.ListArtifacts(ctx, "sched-1")
	if len(artifacts) != 1 {
		t.Errorf("Expected exactly one artifact, got %d", len(artifacts))
	}
}

// Concurrent ticks over the same due occurrence generate exactly once.
func TestScheduler_ConcurrentTicks(t *testing.T) {
	store := newFakeScheduleStore()
	gen := &countingGenerator{}
	ctx := context.Background()

	store.PutSchedule(ctx, dueSchedule())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sc := NewScheduler(store, nil, time.Minute)
			sc.now = func() time.Time { return schedNow }
			sc.RegisterGenerator(KindInvoice, gen)
			sc.Tick(ctx)
		}()
	}
	wg.Wait()

	artifacts, _ := store.ListArtifacts(ctx, "sched-1")
	if len(artifacts) != 1 {
		t.Errorf("Expected exactly one artifact under concurrency, got %d", len(artifacts))
	}
}

func TestScheduler_NoGeneratorRegistered(t *testing.T) {
	store := newFakeScheduleStore()
	sc := NewScheduler(store, nil, time.Minute)
	sc.now = func() time.Time { return schedNow }
	ctx := context.Background()

	s := dueSchedule()
	s.Kind = KindReport
	store.PutSchedule(ctx, s)

	sc.Tick(ctx)

	after, _ := store.GetSchedule(ctx, "sched-1")
	if !after.NextRunAt.Equal(s.NextRunAt) {
		t.Error("Schedule must not advance without a generator")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	store := newFakeScheduleStore()
	sc := NewScheduler(store, nil, 10*time.Millisecond)
	sc.RegisterGenerator(KindInvoice, &countingGenerator{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sc.Start(ctx)
	if !sc.IsRunning() {
		t.Error("Expected scheduler to be running")
	}

	sc.Stop()
	if sc.IsRunning() {
		t.Error("Expected scheduler to be stopped")
	}
}

// A catch-up after delayed ticks produces one occurrence per tick with
// distinct period keys.
func TestScheduler_CatchUp(t *testing.T) {
	sc, store, gen := newTestScheduler(t)
	ctx := context.Background()

	// Due three days ago; two ticks catch up two missed daily periods.
	s := dueSchedule()
	s.NextRunAt = schedNow.AddDate(0, 0, -3)
	store.PutSchedule(ctx, s)

	sc.Tick(ctx)
	sc.Tick(ctx)

	if gen.count() != 2 {
		t.Fatalf("Expected 2 catch-up generations, got %d", gen.count())
	}
	artifacts, _ := store.ListArtifacts(ctx, "sched-1")
	if len(artifacts) != 2 {
		t.Fatalf("Expected 2 artifacts, got %d", len(artifacts))
	}
	if artifacts[0].PeriodKey == artifacts[1].PeriodKey {
		t.Error("Catch-up occurrences must have distinct period keys")
	}
}

// An exhausted transient delivery commits the occurrence and records a
// failed delivery for the sweep to pick up.
func TestScheduler_ExhaustedDeliveryMarkedForSweep(t *testing.T) {
	store := newFakeScheduleStore()
	gen := &countingGenerator{}
	sender := &scriptedSender{failures: 99, err: &DeliveryError{Transient: true, Err: fmt.Errorf("timeout")}}
	sc := NewScheduler(store, newTestDelivery(sender), time.Minute)
	sc.now = func() time.Time { return schedNow }
	sc.RegisterGenerator(KindInvoice, gen)

	ctx := context.Background()
	s := dueSchedule()
	s.Recipient = "https://hooks.example.com/billing"
	store.PutSchedule(ctx, s)

	sc.Tick(ctx)

	if a, _ := store.Artifact(ctx, "sched-1", PeriodKey(s, s.NextRunAt)); a == nil {
		t.Fatal("Expected artifact despite delivery failure")
	}

	failures, err := store.ListFailedDeliveries(ctx)
	if err != nil {
		t.Fatalf("ListFailedDeliveries failed: %v", err)
	}
	if len(failures) != 1 {
		t.Fatalf("Expected 1 failed delivery record, got %d", len(failures))
	}
	fd := failures[0]
	if fd.ScheduleID != "sched-1" || fd.PeriodKey != PeriodKey(s, s.NextRunAt) {
		t.Errorf("Record points at wrong occurrence: %+v", fd)
	}
	if fd.Recipient != "https://hooks.example.com/billing" {
		t.Errorf("Expected recipient preserved, got %q", fd.Recipient)
	}
	if fd.Attempts != 3 {
		t.Errorf("Expected 3 attempts recorded, got %d", fd.Attempts)
	}
	if !strings.Contains(fd.LastError, "after 3 attempts") {
		t.Errorf("Expected exhaustion error recorded, got %q", fd.LastError)
	}
	if !fd.FailedAt.Equal(schedNow) {
		t.Errorf("Expected failure time %v, got %v", schedNow, fd.FailedAt)
	}
}

// Permanent failures are not marked for the sweep: re-sending them
// would fail identically.
func TestScheduler_PermanentFailureNotMarked(t *testing.T) {
	store := newFakeScheduleStore()
	sender := &scriptedSender{failures: 99, err: &DeliveryError{Err: fmt.Errorf("recipient rejected")}}
	sc := NewScheduler(store, newTestDelivery(sender), time.Minute)
	sc.now = func() time.Time { return schedNow }
	sc.RegisterGenerator(KindInvoice, &countingGenerator{})

	ctx := context.Background()
	store.PutSchedule(ctx, dueSchedule())

	sc.Tick(ctx)

	if n := store.failureCount(); n != 0 {
		t.Errorf("Expected no failed delivery records for permanent failure, got %d", n)
	}
}
