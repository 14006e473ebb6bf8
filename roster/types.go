/*
types.go - Core value types of the roster engine

PURPOSE:
  Members, statuses, cells and entries. These are plain values: the engine
  never holds on to them between calls.

STATUS LIFECYCLE:
  working        default on open days
  off            closed days, non-duty members on rotating Saturdays,
                 granted ordinary leave, manual edits
  saturday_duty  one of the two members staffing a rotating Saturday
  paid_leave     granted paid leave (never counts against the quota)

MEMBER ORDER:
  The roster is an ordered slice of members. The order is the tie-break for
  Saturday duty promotion and for the order in which ordinary leave requests
  are granted against the daily cap.

SEE ALSO:
  - roster.go: Roster container keyed by Cell
  - preferences.go: Saturday availability and leave requests
*/
package roster

import (
	"fmt"

	"github.com/warp/roster-engine/calendar"
)

// =============================================================================
// MEMBER
// =============================================================================

// Member is one person on the staff roster.
type Member struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// MemberIndex maps member IDs to their position in the roster.
func MemberIndex(members []Member) map[string]int {
	idx := make(map[string]int, len(members))
	for i, m := range members {
		idx[m.ID] = i
	}
	return idx
}

// =============================================================================
// STATUS
// =============================================================================

// Status is the assignment of one member on one day.
type Status string

const (
	StatusWorking      Status = "working"
	StatusOff          Status = "off"
	StatusSaturdayDuty Status = "saturday_duty"
	StatusPaidLeave    Status = "paid_leave"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// Valid reports whether s is one of the four statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusWorking, StatusOff, StatusSaturdayDuty, StatusPaidLeave:
		return true
	}
	return false
}

// IsAbsent reports whether the member is away from work (off or on leave).
func (s Status) IsAbsent() bool {
	return s == StatusOff || s == StatusPaidLeave
}

// ImpliedStatus is the status read paths use when no roster exists for a
// period: off on closed days, working everywhere else.
func ImpliedStatus(day calendar.Day) Status {
	if day.Category.IsClosed() {
		return StatusOff
	}
	return StatusWorking
}

// =============================================================================
// CELL / ENTRY
// =============================================================================

// Cell addresses one (date, member) slot of a roster.
type Cell struct {
	Date     string `json:"date"`
	MemberID string `json:"member_id"`
}

func (c Cell) String() string { return c.Date + "/" + c.MemberID }

// Entry is a cell with its status.
type Entry struct {
	Date     string `json:"date"`
	MemberID string `json:"member_id"`
	Status   Status `json:"status"`
}

// Cell returns the address of the entry.
func (e Entry) Cell() Cell { return Cell{Date: e.Date, MemberID: e.MemberID} }
