package roster

import (
	"fmt"

	"github.com/warp/roster-engine/calendar"
)

// =============================================================================
// MANUAL CELL EDITOR
// =============================================================================
//
// Hand edits of single cells after generation. Every function returns a new
// roster and leaves the input untouched. A nil roster is first materialised
// as the complete implied default so that edits can originate a roster.

// NextStatus returns the status Toggle moves a cell to:
// working -> off -> paid_leave -> (saturday_duty on a rotating Saturday,
// otherwise working); saturday_duty -> working.
func NextStatus(current Status, cat calendar.Category) Status {
	switch current {
	case StatusWorking:
		return StatusOff
	case StatusOff:
		return StatusPaidLeave
	case StatusPaidLeave:
		if cat == calendar.RotatingSaturday {
			return StatusSaturdayDuty
		}
		return StatusWorking
	default:
		return StatusWorking
	}
}

// Toggle advances one cell through the edit cycle.
func Toggle(r *Roster, date, memberID string, days []calendar.Day, members []Member) (*Roster, error) {
	out, day, err := editable(r, date, memberID, days, members)
	if err != nil {
		return nil, err
	}
	c := Cell{Date: date, MemberID: memberID}
	out.set(c, NextStatus(out.StatusOn(day, memberID), day.Category))
	return out, nil
}

// Assign sets one cell directly. When a rotating Saturday reaches exactly
// DutyHeadcount duties through this assignment, everyone else on that date
// who is not on duty becomes off.
func Assign(r *Roster, date, memberID string, status Status, days []calendar.Day, members []Member) (*Roster, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	out, day, err := editable(r, date, memberID, days, members)
	if err != nil {
		return nil, err
	}
	out.set(Cell{Date: date, MemberID: memberID}, status)

	if status != StatusSaturdayDuty || day.Category != calendar.RotatingSaturday {
		return out, nil
	}
	if out.CountOn(day, members, func(s Status) bool { return s == StatusSaturdayDuty }) != DutyHeadcount {
		return out, nil
	}
	for _, m := range members {
		if out.StatusOn(day, m.ID) != StatusSaturdayDuty {
			out.set(Cell{Date: date, MemberID: m.ID}, StatusOff)
		}
	}
	return out, nil
}

// ConfirmRequests sets off every cell of the period the member has a leave
// request for, regardless of kind, quota or daily cap.
func ConfirmRequests(r *Roster, memberID string, prefs Preferences, days []calendar.Day, members []Member) (*Roster, error) {
	out, err := materialise(r, days, members)
	if err != nil {
		return nil, err
	}
	if _, ok := MemberIndex(members)[memberID]; !ok {
		return nil, &UnknownMemberError{MemberID: memberID, Source: "edit"}
	}
	inPeriod := calendar.Index(days)
	for _, req := range prefs.LeaveRequests {
		if req.MemberID != memberID {
			continue
		}
		if _, ok := inPeriod[req.Date]; ok {
			out.set(Cell{Date: req.Date, MemberID: memberID}, StatusOff)
		}
	}
	return out, nil
}

// ClearCells sets the given cells back to working. Cells outside the period
// or for unknown members fail the whole call.
func ClearCells(r *Roster, cells []Cell, days []calendar.Day, members []Member) (*Roster, error) {
	out, err := materialise(r, days, members)
	if err != nil {
		return nil, err
	}
	inPeriod := calendar.Index(days)
	known := MemberIndex(members)
	for _, c := range cells {
		if _, ok := known[c.MemberID]; !ok {
			return nil, &UnknownMemberError{MemberID: c.MemberID, Source: "edit", Date: c.Date}
		}
		if _, ok := inPeriod[c.Date]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownDate, c.Date)
		}
	}
	for _, c := range cells {
		out.set(c, StatusWorking)
	}
	return out, nil
}

// editable validates the target cell and returns a private copy to edit.
func editable(r *Roster, date, memberID string, days []calendar.Day, members []Member) (*Roster, calendar.Day, error) {
	out, err := materialise(r, days, members)
	if err != nil {
		return nil, calendar.Day{}, err
	}
	if _, ok := MemberIndex(members)[memberID]; !ok {
		return nil, calendar.Day{}, &UnknownMemberError{MemberID: memberID, Source: "edit", Date: date}
	}
	day, ok := calendar.Index(days)[date]
	if !ok {
		return nil, calendar.Day{}, fmt.Errorf("%w: %s not in %s", ErrUnknownDate, date, out.Period)
	}
	return out, day, nil
}

func materialise(r *Roster, days []calendar.Day, members []Member) (*Roster, error) {
	key, err := periodKey(days)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return Default(key, days, members), nil
	}
	return r.Clone(), nil
}
