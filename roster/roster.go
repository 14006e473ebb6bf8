package roster

import (
	"encoding/json"
	"fmt"

	"github.com/warp/roster-engine/calendar"
)

// =============================================================================
// ROSTER - Statuses of one period keyed by (date, member)
// =============================================================================

// Roster holds the statuses of one period. Entries are keyed by Cell; the
// insertion order is kept so Entries() is stable (day-major, roster order
// for generated rosters).
//
// A Roster is a value holder with no locking. Engine and editor functions
// never mutate the roster they are given; they return a new one.
type Roster struct {
	Period  string
	entries map[Cell]Status
	order   []Cell
}

// New returns an empty roster for the period key.
func New(periodKey string) *Roster {
	return &Roster{Period: periodKey, entries: make(map[Cell]Status)}
}

// FromEntries builds a roster from a flat entry list, e.g. one loaded from
// storage. Duplicate cells and invalid statuses are rejected.
func FromEntries(periodKey string, entries []Entry) (*Roster, error) {
	r := &Roster{Period: periodKey, entries: make(map[Cell]Status, len(entries))}
	for _, e := range entries {
		if !e.Status.Valid() {
			return nil, fmt.Errorf("%w: %q at %s", ErrInvalidStatus, e.Status, e.Cell())
		}
		if _, dup := r.entries[e.Cell()]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEntry, e.Cell())
		}
		r.set(e.Cell(), e.Status)
	}
	return r, nil
}

// Default materialises the implied roster: every cell present, off on
// closed days and working elsewhere.
func Default(periodKey string, days []calendar.Day, members []Member) *Roster {
	r := &Roster{Period: periodKey, entries: make(map[Cell]Status, len(days)*len(members))}
	for _, d := range days {
		for _, m := range members {
			r.set(Cell{Date: d.ISODate, MemberID: m.ID}, ImpliedStatus(d))
		}
	}
	return r
}

func (r *Roster) set(c Cell, s Status) {
	if _, ok := r.entries[c]; !ok {
		r.order = append(r.order, c)
	}
	r.entries[c] = s
}

// Status returns the stored status of a cell.
func (r *Roster) Status(date, memberID string) (Status, bool) {
	if r == nil {
		return "", false
	}
	s, ok := r.entries[Cell{Date: date, MemberID: memberID}]
	return s, ok
}

// StatusOn returns the stored status, falling back to ImpliedStatus when the
// cell (or the whole roster) is missing.
func (r *Roster) StatusOn(day calendar.Day, memberID string) Status {
	if s, ok := r.Status(day.ISODate, memberID); ok {
		return s
	}
	return ImpliedStatus(day)
}

// Len returns the number of cells.
func (r *Roster) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Entries returns all entries in insertion order.
func (r *Roster) Entries() []Entry {
	if r == nil {
		return nil
	}
	out := make([]Entry, 0, len(r.order))
	for _, c := range r.order {
		out = append(out, Entry{Date: c.Date, MemberID: c.MemberID, Status: r.entries[c]})
	}
	return out
}

// Clone returns an independent copy.
func (r *Roster) Clone() *Roster {
	out := &Roster{
		Period:  r.Period,
		entries: make(map[Cell]Status, len(r.entries)),
		order:   make([]Cell, len(r.order)),
	}
	copy(out.order, r.order)
	for c, s := range r.entries {
		out.entries[c] = s
	}
	return out
}

// Equal reports whether both rosters hold the same period and cell statuses.
// Insertion order is ignored.
func (r *Roster) Equal(other *Roster) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.Period != other.Period || len(r.entries) != len(other.entries) {
		return false
	}
	for c, s := range r.entries {
		if os, ok := other.entries[c]; !ok || os != s {
			return false
		}
	}
	return true
}

// CountOn counts members on a date whose status satisfies pred.
func (r *Roster) CountOn(day calendar.Day, members []Member, pred func(Status) bool) int {
	n := 0
	for _, m := range members {
		if pred(r.StatusOn(day, m.ID)) {
			n++
		}
	}
	return n
}

// Complete checks the completeness invariant: exactly one entry for every
// (day, member) pair and nothing else.
func (r *Roster) Complete(days []calendar.Day, members []Member) error {
	for _, d := range days {
		for _, m := range members {
			if _, ok := r.Status(d.ISODate, m.ID); !ok {
				return fmt.Errorf("roster %s: missing entry %s/%s", r.Period, d.ISODate, m.ID)
			}
		}
	}
	if want := len(days) * len(members); r.Len() != want {
		return fmt.Errorf("roster %s: %d entries, want %d", r.Period, r.Len(), want)
	}
	return nil
}

// =============================================================================
// JSON
// =============================================================================

type rosterJSON struct {
	Period  string  `json:"period"`
	Entries []Entry `json:"entries"`
}

// MarshalJSON encodes the roster as {"period", "entries"}.
func (r *Roster) MarshalJSON() ([]byte, error) {
	entries := r.Entries()
	if entries == nil {
		entries = []Entry{}
	}
	return json.Marshal(rosterJSON{Period: r.Period, Entries: entries})
}

// UnmarshalJSON decodes the {"period", "entries"} form.
func (r *Roster) UnmarshalJSON(data []byte) error {
	var raw rosterJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := FromEntries(raw.Period, raw.Entries)
	if err != nil {
		return err
	}
	*r = *decoded
	return nil
}
