package activity

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemorySource is an in-memory Source implementation.
//
// MemorySource is intended for tests and for embedding Meridian in
// processes that already hold activity in memory. All methods are safe
// for concurrent use.
type MemorySource struct {
	mu       sync.RWMutex
	projects map[string]*Project
	entries  map[string][]*TimeEntry
	costs    map[string][]*DirectCost
}

// NewMemorySource creates an empty in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		projects: make(map[string]*Project),
		entries:  make(map[string][]*TimeEntry),
		costs:    make(map[string][]*DirectCost),
	}
}

// PutProject adds or replaces a project.
func (m *MemorySource) PutProject(p *Project) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.projects[p.ID] = &cp
}

// AddTimeEntry records a time entry.
func (m *MemorySource) AddTimeEntry(e *TimeEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.entries[e.ProjectID] = append(m.entries[e.ProjectID], &cp)
}

// AddDirectCost records a direct cost.
func (m *MemorySource) AddDirectCost(c *DirectCost) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.costs[c.ProjectID] = append(m.costs[c.ProjectID], &cp)
}

// Project returns the project with the given ID.
func (m *MemorySource) Project(ctx context.Context, id string) (*Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, ErrProjectNotFound
	}
	cp := *p
	return &cp, nil
}

// Projects returns all projects ordered by ID.
func (m *MemorySource) Projects(ctx context.Context) ([]*Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Project, 0, len(m.projects))
	for _, p := range m.projects {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// TimeEntries returns time entries for a project within [start, end].
func (m *MemorySource) TimeEntries(ctx context.Context, projectID string, start, end time.Time) ([]*TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*TimeEntry
	for _, e := range m.entries[projectID] {
		if e.Start.Before(start) || e.Start.After(end) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

// DirectCosts returns direct costs for a project within [start, end].
func (m *MemorySource) DirectCosts(ctx context.Context, projectID string, start, end time.Time) ([]*DirectCost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*DirectCost
	for _, c := range m.costs[projectID] {
		if c.CostDate.Before(start) || c.CostDate.After(end) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}
