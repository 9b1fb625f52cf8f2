package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"trackwell-hq/meridian/pkg/alerts"
	"trackwell-hq/meridian/pkg/schedule"
)

// MemoryStore implements alerts.Store and schedule.Store in memory.
// All state is lost when the process exits.
type MemoryStore struct {
	mu        sync.RWMutex
	alerts    map[string]*alerts.Alert
	schedules map[string]*schedule.Schedule
	leases    map[string]time.Time
	artifacts map[string]*schedule.Artifact       // schedule_id + "\x00" + period_key
	failures  map[string]*schedule.FailedDelivery // schedule_id + "\x00" + period_key

	// now is the clock, overridable in tests.
	now func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		alerts:    make(map[string]*alerts.Alert),
		schedules: make(map[string]*schedule.Schedule),
		leases:    make(map[string]time.Time),
		artifacts: make(map[string]*schedule.Artifact),
		failures:  make(map[string]*schedule.FailedDelivery),
		now:       time.Now,
	}
}

func occurrenceKey(scheduleID, periodKey string) string {
	return scheduleID + "\x00" + periodKey
}

// ============================================================================
// alerts.Store
// ============================================================================

// Insert appends a new alert, deduplicating against unacknowledged
// alerts of the same type within the dedup window.
func (m *MemoryStore) Insert(ctx context.Context, alert *alerts.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	since := alert.CreatedAt.Add(-alerts.DedupWindow)
	for _, existing := range m.alerts {
		if existing.ProjectID == alert.ProjectID &&
			existing.Type == alert.Type &&
			!existing.Acknowledged &&
			!existing.CreatedAt.Before(since) {
			return alerts.ErrDuplicateAlert
		}
	}

	cp := *alert
	m.alerts[alert.ID] = &cp
	return nil
}

// Acknowledge marks an alert acknowledged. The transition is one-way.
func (m *MemoryStore) Acknowledge(ctx context.Context, alertID, by string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert, ok := m.alerts[alertID]
	if !ok {
		return alerts.ErrAlertNotFound
	}
	if alert.Acknowledged {
		return alerts.ErrAlreadyAcknowledged
	}

	alert.Acknowledged = true
	alert.AcknowledgedBy = by
	ackAt := at
	alert.AcknowledgedAt = &ackAt
	return nil
}

// Unacknowledged returns the most recent unacknowledged alert of the
// given type created at or after since, or nil.
func (m *MemoryStore) Unacknowledged(ctx context.Context, projectID string, typ alerts.Type, since time.Time) (*alerts.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var newest *alerts.Alert
	for _, alert := range m.alerts {
		if alert.ProjectID != projectID || alert.Type != typ ||
			alert.Acknowledged || alert.CreatedAt.Before(since) {
			continue
		}
		if newest == nil || alert.CreatedAt.After(newest.CreatedAt) {
			newest = alert
		}
	}
	if newest == nil {
		return nil, nil
	}
	cp := *newest
	return &cp, nil
}

// ListByProject returns all alerts for a project, newest first.
func (m *MemoryStore) ListByProject(ctx context.Context, projectID string) ([]*alerts.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*alerts.Alert
	for _, alert := range m.alerts {
		if alert.ProjectID == projectID {
			cp := *alert
			out = append(out, &cp)
		}
	}
	sortAlertsNewestFirst(out)
	return out, nil
}

// ListUnacknowledged returns all unacknowledged alerts, newest first.
func (m *MemoryStore) ListUnacknowledged(ctx context.Context) ([]*alerts.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*alerts.Alert
	for _, alert := range m.alerts {
		if !alert.Acknowledged {
			cp := *alert
			out = append(out, &cp)
		}
	}
	sortAlertsNewestFirst(out)
	return out, nil
}

// Counts returns the total and unacknowledged alert counts.
func (m *MemoryStore) Counts(ctx context.Context) (int, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := len(m.alerts)
	unacked := 0
	for _, alert := range m.alerts {
		if !alert.Acknowledged {
			unacked++
		}
	}
	return total, unacked, nil
}

// DeleteByProject removes all alerts, schedules, and artifacts owned by
// a project.
func (m *MemoryStore) DeleteByProject(ctx context.Context, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, alert := range m.alerts {
		if alert.ProjectID == projectID {
			delete(m.alerts, id)
		}
	}
	for id, s := range m.schedules {
		if s.ProjectID != projectID {
			continue
		}
		delete(m.schedules, id)
		delete(m.leases, id)
		for key, artifact := range m.artifacts {
			if artifact.ScheduleID == id {
				delete(m.artifacts, key)
			}
		}
		for key, fd := range m.failures {
			if fd.ScheduleID == id {
				delete(m.failures, key)
			}
		}
	}
	return nil
}

func sortAlertsNewestFirst(list []*alerts.Alert) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

// ============================================================================
// schedule.Store
// ============================================================================

// PutSchedule creates or replaces a schedule definition.
func (m *MemoryStore) PutSchedule(ctx context.Context, s *schedule.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *s
	m.schedules[s.ID] = &cp
	return nil
}

// GetSchedule returns a schedule by ID.
func (m *MemoryStore) GetSchedule(ctx context.Context, id string) (*schedule.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.schedules[id]
	if !ok {
		return nil, schedule.ErrScheduleNotFound
	}
	cp := *s
	return &cp, nil
}

// ListSchedules returns all schedules sorted by ID.
func (m *MemoryStore) ListSchedules(ctx context.Context) ([]*schedule.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*schedule.Schedule
	for _, s := range m.schedules {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Due returns active schedules with NextRunAt <= now and no unexpired
// claim lease.
func (m *MemoryStore) Due(ctx context.Context, now time.Time) ([]*schedule.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*schedule.Schedule
	for _, s := range m.schedules {
		if !s.Active || s.NextRunAt.After(now) {
			continue
		}
		if lease, ok := m.leases[s.ID]; ok && lease.After(now) {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextRunAt.Before(out[j].NextRunAt) })
	return out, nil
}

// Claim leases a due schedule for execution. The compare on
// observedNextRun makes the claim a compare-and-swap: a schedule
// advanced by another instance no longer matches.
func (m *MemoryStore) Claim(ctx context.Context, id string, observedNextRun, leaseUntil time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.schedules[id]
	if !ok {
		return false, schedule.ErrScheduleNotFound
	}
	if !s.Active || !s.NextRunAt.Equal(observedNextRun) {
		return false, nil
	}
	if lease, leased := m.leases[id]; leased && lease.After(m.now()) {
		return false, nil
	}

	m.leases[id] = leaseUntil
	return true, nil
}

// Complete records a successful occurrence: it advances the schedule,
// clears the lease, and inserts the artifact. When the artifact already
// exists the schedule still advances and ErrDuplicateArtifact is
// returned.
func (m *MemoryStore) Complete(ctx context.Context, id string, lastRun, nextRun time.Time, artifact *schedule.Artifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.schedules[id]
	if !ok {
		return schedule.ErrScheduleNotFound
	}

	lr := lastRun
	s.LastRunAt = &lr
	s.NextRunAt = nextRun
	delete(m.leases, id)

	key := occurrenceKey(artifact.ScheduleID, artifact.PeriodKey)
	if _, exists := m.artifacts[key]; exists {
		return schedule.ErrDuplicateArtifact
	}
	cp := *artifact
	m.artifacts[key] = &cp
	return nil
}

// Deactivate sets Active to false.
func (m *MemoryStore) Deactivate(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.schedules[id]
	if !ok {
		return schedule.ErrScheduleNotFound
	}
	s.Active = false
	return nil
}

// Artifact returns the artifact for an occurrence, or nil.
func (m *MemoryStore) Artifact(ctx context.Context, scheduleID, periodKey string) (*schedule.Artifact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	artifact, ok := m.artifacts[occurrenceKey(scheduleID, periodKey)]
	if !ok {
		return nil, nil
	}
	cp := *artifact
	return &cp, nil
}

// ListArtifacts returns all artifacts of a schedule, newest first.
func (m *MemoryStore) ListArtifacts(ctx context.Context, scheduleID string) ([]*schedule.Artifact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*schedule.Artifact
	for _, artifact := range m.artifacts {
		if artifact.ScheduleID == scheduleID {
			cp := *artifact
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// PutFailedDelivery records an exhausted delivery, replacing any record
// for the same occurrence.
func (m *MemoryStore) PutFailedDelivery(ctx context.Context, fd *schedule.FailedDelivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *fd
	m.failures[occurrenceKey(fd.ScheduleID, fd.PeriodKey)] = &cp
	return nil
}

// ListFailedDeliveries returns all recorded failures, oldest first.
func (m *MemoryStore) ListFailedDeliveries(ctx context.Context) ([]*schedule.FailedDelivery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*schedule.FailedDelivery
	for _, fd := range m.failures {
		cp := *fd
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FailedAt.Equal(out[j].FailedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].FailedAt.Before(out[j].FailedAt)
	})
	return out, nil
}

// DeleteFailedDelivery removes a record by ID. Unknown IDs are a no-op.
func (m *MemoryStore) DeleteFailedDelivery(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, fd := range m.failures {
		if fd.ID == id {
			delete(m.failures, key)
			return nil
		}
	}
	return nil
}
