/*
store.go - Persistence interface for rosters, preferences and revisions

PURPOSE:
  Defines the boundary between the planner and the database. The planner
  works on whole snapshots: a roster or a preference set is always loaded
  and saved in full, never merged partially.

KEY INTERFACE:
  Store: LoadRoster / SaveRoster / LoadPreferences / SavePreferences /
         History

REVISIONS:
  Every SaveRoster writes a Revision naming the action that produced the
  roster (generate, reset, toggle, ...). History is the audit trail of a
  period, oldest first.

MISSING DATA:
  LoadRoster returns (nil, nil) for a period that was never generated; read
  paths fall back to roster.ImpliedStatus. LoadPreferences returns empty
  preferences for a period nobody edited.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - store/memory/memory.go: In-memory for tests and demos
*/
package planner

import (
	"context"
	"time"

	"github.com/warp/roster-engine/roster"
)

// Actions recorded in revisions.
const (
	ActionGenerate = "generate"
	ActionReset    = "reset"
	ActionToggle   = "toggle"
	ActionAssign   = "assign"
	ActionConfirm  = "confirm"
	ActionClear    = "clear"
)

// Revision is one saved version of a period's roster.
type Revision struct {
	ID        string    `json:"id"`
	Period    string    `json:"period"`
	Action    string    `json:"action"`
	Entries   int       `json:"entries"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists roster snapshots.
type Store interface {
	// LoadRoster returns the stored roster, or nil when none exists.
	LoadRoster(ctx context.Context, period string) (*roster.Roster, error)

	// SaveRoster replaces the period's roster atomically and records a revision.
	SaveRoster(ctx context.Context, r *roster.Roster, action string) (Revision, error)

	// LoadPreferences returns the stored preferences, empty when none exist.
	LoadPreferences(ctx context.Context, period string) (roster.Preferences, error)

	// SavePreferences replaces the period's preferences atomically.
	SavePreferences(ctx context.Context, period string, p roster.Preferences) error

	// History returns the revisions of a period, oldest first.
	History(ctx context.Context, period string) ([]Revision, error)
}
