/*
errors.go - Error types for the roster engine

PURPOSE:
  All error types in one place. Callers match with errors.Is / errors.As.

ERROR CATEGORIES:
  1. Input errors   - invalid period, empty calendar, unknown members/dates
  2. Roster errors  - duplicate or missing cells in a supplied roster

NOT ERRORS:
  Unmet preferences (quota reached, daily cap reached, not enough Saturday
  volunteers) are expected outcomes. They show up in the resulting statuses,
  in UnmetPreferences and in CheckViolations, never as error returns.

SEE ALSO:
  - engine.go: Generate/Reset return these
  - editor.go: Toggle/Assign return these
*/
package roster

import (
	"errors"
	"fmt"

	"github.com/warp/roster-engine/calendar"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPeriod is returned for a malformed year/month.
	ErrInvalidPeriod = calendar.ErrInvalidPeriod

	// ErrEmptyCalendar is returned when zero days were resolved for a period.
	ErrEmptyCalendar = errors.New("empty calendar")

	// ErrInconsistentMemberSet is returned when a record references a member
	// that is not on the roster and strict member checking is enabled, or when
	// an edit targets an unknown member.
	ErrInconsistentMemberSet = errors.New("inconsistent member set")

	// ErrUnknownDate is returned when an edit targets a date outside the period.
	ErrUnknownDate = errors.New("date not in period")

	// ErrDuplicateEntry is returned when a supplied roster holds the same cell twice.
	ErrDuplicateEntry = errors.New("duplicate roster entry")

	// ErrInvalidStatus is returned for a status outside the four known values.
	ErrInvalidStatus = errors.New("invalid status")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// UnknownMemberError names the record that referenced an unknown member.
type UnknownMemberError struct {
	MemberID string
	Source   string // "saturday_availability", "leave_request", "prior_roster", "edit"
	Date     string
}

func (e *UnknownMemberError) Error() string {
	return fmt.Sprintf("unknown member %q in %s on %s", e.MemberID, e.Source, e.Date)
}

func (e *UnknownMemberError) Unwrap() error {
	return ErrInconsistentMemberSet
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrEmptyCalendar) ||
		errors.Is(err, ErrInconsistentMemberSet) ||
		errors.Is(err, ErrDuplicateEntry) ||
		errors.Is(err, ErrInvalidStatus)
}

// IsNotFound returns true if the error refers to a cell outside the roster.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownDate)
}
