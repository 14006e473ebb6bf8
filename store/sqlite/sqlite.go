/*
Package sqlite provides a SQLite-backed implementation of planner.Store.

PURPOSE:
  Persists roster snapshots, preferences and the revision trail of every
  period. The planner always reads and writes whole snapshots, so each save
  replaces a period's rows inside one transaction.

KEY TABLES:
  rosters:               one row per generated period
  roster_entries:        (period, date, member) -> status, with position
  saturday_availability: availability records per period
  leave_requests:        leave requests per period
  preference_sets:       marks periods whose preferences were saved
  revisions:             audit trail of roster saves

ORDERING:
  Entries and preference records keep a position column so a loaded
  roster lists its cells in the order it was saved in.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of the planner's per-period
  write serialisation.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/roster.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - planner/store.go: Interface definition
  - store/memory/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/roster-engine/planner"
	"github.com/warp/roster-engine/roster"
)

// Store implements planner.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rosters (
		period TEXT PRIMARY KEY,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS roster_entries (
		period TEXT NOT NULL REFERENCES rosters(period) ON DELETE CASCADE,
		date TEXT NOT NULL,
		member_id TEXT NOT NULL,
		status TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (period, date, member_id)
	);

	CREATE INDEX IF NOT EXISTS idx_roster_entries_position
		ON roster_entries(period, position);

	CREATE TABLE IF NOT EXISTS preference_sets (
		period TEXT PRIMARY KEY,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS saturday_availability (
		period TEXT NOT NULL REFERENCES preference_sets(period) ON DELETE CASCADE,
		member_id TEXT NOT NULL,
		date TEXT NOT NULL,
		available BOOLEAN NOT NULL,
		position INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_saturday_availability_period
		ON saturday_availability(period, position);

	CREATE TABLE IF NOT EXISTS leave_requests (
		period TEXT NOT NULL REFERENCES preference_sets(period) ON DELETE CASCADE,
		member_id TEXT NOT NULL,
		date TEXT NOT NULL,
		kind TEXT NOT NULL,
		position INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_leave_requests_period
		ON leave_requests(period, position);

	CREATE TABLE IF NOT EXISTS revisions (
		id TEXT PRIMARY KEY,
		period TEXT NOT NULL,
		action TEXT NOT NULL,
		entries INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_revisions_period
		ON revisions(period, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ROSTERS
// =============================================================================

// LoadRoster returns the roster of a period, or nil if it was never saved.
func (s *Store) LoadRoster(ctx context.Context, period string) (*roster.Roster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rosters WHERE period = ?", period).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to query roster: %w", err)
	}
	if exists == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, member_id, status
		FROM roster_entries
		WHERE period = ?
		ORDER BY position ASC
	`, period)
	if err != nil {
		return nil, fmt.Errorf("failed to query roster entries: %w", err)
	}
	defer rows.Close()

	var entries []roster.Entry
	for rows.Next() {
		var e roster.Entry
		if err := rows.Scan(&e.Date, &e.MemberID, &e.Status); err != nil {
			return nil, fmt.Errorf("failed to scan roster entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return roster.FromEntries(period, entries)
}

// SaveRoster replaces the roster of r.Period and records a revision.
func (s *Store) SaveRoster(ctx context.Context, r *roster.Roster, action string) (planner.Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	rev := planner.Revision{
		ID:        uuid.NewString(),
		Period:    r.Period,
		Action:    action,
		Entries:   r.Len(),
		CreatedAt: now,
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return planner.Revision{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM roster_entries WHERE period = ?", r.Period); err != nil {
		return planner.Revision{}, fmt.Errorf("failed to clear roster entries: %w", err)
	}
	if _, err := sqlTx.ExecContext(ctx, `
		INSERT INTO rosters (period, updated_at) VALUES (?, ?)
		ON CONFLICT(period) DO UPDATE SET updated_at = excluded.updated_at
	`, r.Period, now.Format(time.RFC3339Nano)); err != nil {
		return planner.Revision{}, fmt.Errorf("failed to save roster: %w", err)
	}

	stmt, err := sqlTx.PrepareContext(ctx, `
		INSERT INTO roster_entries (period, date, member_id, status, position)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return planner.Revision{}, fmt.Errorf("failed to prepare roster insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range r.Entries() {
		if _, err := stmt.ExecContext(ctx, r.Period, e.Date, e.MemberID, string(e.Status), i); err != nil {
			if isUniqueConstraintError(err) {
				return planner.Revision{}, fmt.Errorf("%w: %s", roster.ErrDuplicateEntry, e.Cell())
			}
			return planner.Revision{}, fmt.Errorf("failed to insert roster entry: %w", err)
		}
	}

	if _, err := sqlTx.ExecContext(ctx, `
		INSERT INTO revisions (id, period, action, entries, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, rev.ID, rev.Period, rev.Action, rev.Entries, now.Format(time.RFC3339Nano)); err != nil {
		return planner.Revision{}, fmt.Errorf("failed to record revision: %w", err)
	}

	if err := sqlTx.Commit(); err != nil {
		return planner.Revision{}, fmt.Errorf("failed to commit roster: %w", err)
	}
	return rev, nil
}

// History returns the revisions of a period, oldest first.
func (s *Store) History(ctx context.Context, period string) ([]planner.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, period, action, entries, created_at
		FROM revisions
		WHERE period = ?
		ORDER BY created_at ASC, rowid ASC
	`, period)
	if err != nil {
		return nil, fmt.Errorf("failed to query revisions: %w", err)
	}
	defer rows.Close()

	revisions := []planner.Revision{}
	for rows.Next() {
		var (
			rev       planner.Revision
			createdAt string
		)
		if err := rows.Scan(&rev.ID, &rev.Period, &rev.Action, &rev.Entries, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan revision: %w", err)
		}
		if rev.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse revision %s time: %w", rev.ID, err)
		}
		revisions = append(revisions, rev)
	}
	return revisions, rows.Err()
}

// =============================================================================
// PREFERENCES
// =============================================================================

// LoadPreferences returns the preferences of a period, empty if none were saved.
func (s *Store) LoadPreferences(ctx context.Context, period string) (roster.Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := roster.Preferences{
		SaturdayAvailability: []roster.SaturdayAvailability{},
		LeaveRequests:        []roster.LeaveRequest{},
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT member_id, date, available
		FROM saturday_availability
		WHERE period = ?
		ORDER BY position ASC
	`, period)
	if err != nil {
		return p, fmt.Errorf("failed to query saturday availability: %w", err)
	}
	for rows.Next() {
		var sa roster.SaturdayAvailability
		if err := rows.Scan(&sa.MemberID, &sa.Date, &sa.Available); err != nil {
			rows.Close()
			return p, fmt.Errorf("failed to scan saturday availability: %w", err)
		}
		p.SaturdayAvailability = append(p.SaturdayAvailability, sa)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return p, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT member_id, date, kind
		FROM leave_requests
		WHERE period = ?
		ORDER BY position ASC
	`, period)
	if err != nil {
		return p, fmt.Errorf("failed to query leave requests: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var lr roster.LeaveRequest
		if err := rows.Scan(&lr.MemberID, &lr.Date, &lr.Kind); err != nil {
			return p, fmt.Errorf("failed to scan leave request: %w", err)
		}
		p.LeaveRequests = append(p.LeaveRequests, lr)
	}
	return p, rows.Err()
}

// SavePreferences replaces the preferences of a period.
func (s *Store) SavePreferences(ctx context.Context, period string, p roster.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, table := range []string{"saturday_availability", "leave_requests"} {
		if _, err := sqlTx.ExecContext(ctx, "DELETE FROM "+table+" WHERE period = ?", period); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if _, err := sqlTx.ExecContext(ctx, `
		INSERT INTO preference_sets (period, updated_at) VALUES (?, ?)
		ON CONFLICT(period) DO UPDATE SET updated_at = excluded.updated_at
	`, period, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to save preference set: %w", err)
	}

	for i, sa := range p.SaturdayAvailability {
		if _, err := sqlTx.ExecContext(ctx, `
			INSERT INTO saturday_availability (period, member_id, date, available, position)
			VALUES (?, ?, ?, ?, ?)
		`, period, sa.MemberID, sa.Date, sa.Available, i); err != nil {
			return fmt.Errorf("failed to insert saturday availability: %w", err)
		}
	}
	for i, lr := range p.LeaveRequests {
		if _, err := sqlTx.ExecContext(ctx, `
			INSERT INTO leave_requests (period, member_id, date, kind, position)
			VALUES (?, ?, ?, ?, ?)
		`, period, lr.MemberID, lr.Date, string(lr.EffectiveKind()), i); err != nil {
			return fmt.Errorf("failed to insert leave request: %w", err)
		}
	}

	return sqlTx.Commit()
}

// =============================================================================
// HELPERS
// =============================================================================

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
