// Package memory provides an in-memory planner.Store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/roster-engine/planner"
	"github.com/warp/roster-engine/roster"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	rosters     map[string]*roster.Roster
	preferences map[string]roster.Preferences
	revisions   map[string][]planner.Revision
	now         func() time.Time
}

func New() *Memory {
	return &Memory{
		rosters:     make(map[string]*roster.Roster),
		preferences: make(map[string]roster.Preferences),
		revisions:   make(map[string][]planner.Revision),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// LoadRoster returns a copy of the stored roster.
func (m *Memory) LoadRoster(_ context.Context, period string) (*roster.Roster, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rosters[period]
	if !ok {
		return nil, nil
	}
	return r.Clone(), nil
}

// SaveRoster replaces the roster of r.Period and appends a revision.
func (m *Memory) SaveRoster(_ context.Context, r *roster.Roster, action string) (planner.Revision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rev := planner.Revision{
		ID:        uuid.NewString(),
		Period:    r.Period,
		Action:    action,
		Entries:   r.Len(),
		CreatedAt: m.now(),
	}
	m.rosters[r.Period] = r.Clone()
	m.revisions[r.Period] = append(m.revisions[r.Period], rev)
	return rev, nil
}

func (m *Memory) LoadPreferences(_ context.Context, period string) (roster.Preferences, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.preferences[period].Clone(), nil
}

func (m *Memory) SavePreferences(_ context.Context, period string, p roster.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preferences[period] = p.Clone()
	return nil
}

func (m *Memory) History(_ context.Context, period string) ([]planner.Revision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]planner.Revision, len(m.revisions[period]))
	copy(result, m.revisions[period])
	return result, nil
}
