/*
preferences.go - Per-period member preferences and their editing operations

PURPOSE:
  Preferences are the caller-owned input of a roster period: Saturday
  availability (tri-state) and dated leave requests (ordinary or paid).
  The engine only reads them. The editing operations here mirror the
  preference screen of the scheduling tool and always return a new value.

KEYING:
  Both record kinds are keyed by (member, date). Normalize() collapses
  duplicates with the later record winning, which is also how the read
  helpers resolve duplicates.

TRI-STATE AVAILABILITY:
  No record         -> AvailabilityUnknown
  Available: true   -> AvailabilityAvailable
  Available: false  -> AvailabilityUnavailable

  Marking a member unavailable for a Saturday also files an ordinary leave
  request for that date, so that the off day shows up as a request.

SEE ALSO:
  - engine.go: consumes availability (step B) and requests (steps D and E)
  - planner/planner.go: persists preference edits per period
*/
package roster

import (
	"fmt"
	"sort"

	"github.com/warp/roster-engine/calendar"
)

// =============================================================================
// AVAILABILITY
// =============================================================================

// Availability is the tri-state Saturday availability of a member.
type Availability int

const (
	AvailabilityUnknown Availability = iota
	AvailabilityAvailable
	AvailabilityUnavailable
)

func (a Availability) String() string {
	switch a {
	case AvailabilityAvailable:
		return "available"
	case AvailabilityUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// ParseAvailability accepts "available", "unavailable" and "unknown" (or "").
func ParseAvailability(s string) (Availability, error) {
	switch s {
	case "available":
		return AvailabilityAvailable, nil
	case "unavailable":
		return AvailabilityUnavailable, nil
	case "", "unknown":
		return AvailabilityUnknown, nil
	}
	return AvailabilityUnknown, fmt.Errorf("unknown availability %q", s)
}

// SaturdayAvailability records whether a member can take Saturday duty.
type SaturdayAvailability struct {
	MemberID  string `json:"member_id"`
	Date      string `json:"date"`
	Available bool   `json:"available"`
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

// LeaveKind distinguishes quota-capped ordinary leave from paid leave.
type LeaveKind string

const (
	LeaveOrdinary LeaveKind = "ordinary"
	LeavePaid     LeaveKind = "paid"
)

// LeaveRequest asks for a member to be off on a date.
type LeaveRequest struct {
	MemberID string    `json:"member_id"`
	Date     string    `json:"date"`
	Kind     LeaveKind `json:"kind,omitempty"`
}

// EffectiveKind treats an empty kind as ordinary.
func (r LeaveRequest) EffectiveKind() LeaveKind {
	if r.Kind == LeavePaid {
		return LeavePaid
	}
	return LeaveOrdinary
}

// =============================================================================
// PREFERENCES
// =============================================================================

// Preferences is the whole preference input of one period.
type Preferences struct {
	SaturdayAvailability []SaturdayAvailability `json:"saturday_availability"`
	LeaveRequests        []LeaveRequest         `json:"leave_requests"`
}

// Clone returns a deep copy with non-nil slices.
func (p Preferences) Clone() Preferences {
	out := Preferences{
		SaturdayAvailability: make([]SaturdayAvailability, len(p.SaturdayAvailability)),
		LeaveRequests:        make([]LeaveRequest, len(p.LeaveRequests)),
	}
	copy(out.SaturdayAvailability, p.SaturdayAvailability)
	copy(out.LeaveRequests, p.LeaveRequests)
	return out
}

// Availability returns the tri-state availability of a member on a date.
func (p Preferences) Availability(memberID, date string) Availability {
	result := AvailabilityUnknown
	for _, s := range p.SaturdayAvailability {
		if s.MemberID == memberID && s.Date == date {
			if s.Available {
				result = AvailabilityAvailable
			} else {
				result = AvailabilityUnavailable
			}
		}
	}
	return result
}

// Request returns the leave request of a member on a date, if any.
func (p Preferences) Request(memberID, date string) (LeaveRequest, bool) {
	var (
		found LeaveRequest
		ok    bool
	)
	for _, r := range p.LeaveRequests {
		if r.MemberID == memberID && r.Date == date {
			found, ok = r, true
		}
	}
	return found, ok
}

// Normalize collapses duplicate keys (later record wins), fills empty kinds
// and sorts both lists by date then member.
func (p Preferences) Normalize() Preferences {
	sats := make(map[Cell]SaturdayAvailability)
	for _, s := range p.SaturdayAvailability {
		sats[Cell{Date: s.Date, MemberID: s.MemberID}] = s
	}
	reqs := make(map[Cell]LeaveRequest)
	for _, r := range p.LeaveRequests {
		r.Kind = r.EffectiveKind()
		reqs[Cell{Date: r.Date, MemberID: r.MemberID}] = r
	}

	out := Preferences{
		SaturdayAvailability: make([]SaturdayAvailability, 0, len(sats)),
		LeaveRequests:        make([]LeaveRequest, 0, len(reqs)),
	}
	for _, s := range sats {
		out.SaturdayAvailability = append(out.SaturdayAvailability, s)
	}
	for _, r := range reqs {
		out.LeaveRequests = append(out.LeaveRequests, r)
	}
	sort.Slice(out.SaturdayAvailability, func(i, j int) bool {
		a, b := out.SaturdayAvailability[i], out.SaturdayAvailability[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.MemberID < b.MemberID
	})
	sort.Slice(out.LeaveRequests, func(i, j int) bool {
		a, b := out.LeaveRequests[i], out.LeaveRequests[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.MemberID < b.MemberID
	})
	return out
}

// Validate rejects records for members not on the roster or dates outside
// the period.
func (p Preferences) Validate(period calendar.Period, members []Member) error {
	idx := MemberIndex(members)
	for _, s := range p.SaturdayAvailability {
		if _, ok := idx[s.MemberID]; !ok {
			return &UnknownMemberError{MemberID: s.MemberID, Source: "saturday_availability", Date: s.Date}
		}
		if !period.Contains(s.Date) {
			return fmt.Errorf("%w: saturday availability on %q", ErrUnknownDate, s.Date)
		}
	}
	for _, r := range p.LeaveRequests {
		if _, ok := idx[r.MemberID]; !ok {
			return &UnknownMemberError{MemberID: r.MemberID, Source: "leave_request", Date: r.Date}
		}
		if !period.Contains(r.Date) {
			return fmt.Errorf("%w: leave request on %q", ErrUnknownDate, r.Date)
		}
		if r.Kind != "" && r.Kind != LeaveOrdinary && r.Kind != LeavePaid {
			return fmt.Errorf("%w: leave request %s/%s has kind %q", ErrInvalidStatus, r.Date, r.MemberID, r.Kind)
		}
	}
	return nil
}

// =============================================================================
// EDITING OPERATIONS
// =============================================================================

func (p Preferences) withoutSaturday(memberID, date string) []SaturdayAvailability {
	out := make([]SaturdayAvailability, 0, len(p.SaturdayAvailability))
	for _, s := range p.SaturdayAvailability {
		if !(s.MemberID == memberID && s.Date == date) {
			out = append(out, s)
		}
	}
	return out
}

func (p Preferences) withoutRequest(memberID, date string) []LeaveRequest {
	out := make([]LeaveRequest, 0, len(p.LeaveRequests))
	for _, r := range p.LeaveRequests {
		if !(r.MemberID == memberID && r.Date == date) {
			out = append(out, r)
		}
	}
	return out
}

// ToggleSaturday sets a member's availability for a Saturday. Choosing the
// value already recorded clears it back to unknown. Unavailable files an
// ordinary request for the date; available or cleared removes any request.
func (p Preferences) ToggleSaturday(memberID, date string, available bool) Preferences {
	next := AvailabilityAvailable
	if !available {
		next = AvailabilityUnavailable
	}
	if p.Availability(memberID, date) == next {
		next = AvailabilityUnknown
	}

	out := Preferences{
		SaturdayAvailability: p.withoutSaturday(memberID, date),
		LeaveRequests:        p.LeaveRequests,
	}
	if next != AvailabilityUnknown {
		out.SaturdayAvailability = append(out.SaturdayAvailability, SaturdayAvailability{
			MemberID: memberID, Date: date, Available: next == AvailabilityAvailable,
		})
	}

	if next == AvailabilityUnavailable {
		out.LeaveRequests = append([]LeaveRequest(nil), p.LeaveRequests...)
		if _, ok := p.Request(memberID, date); !ok {
			out.LeaveRequests = append(out.LeaveRequests, LeaveRequest{MemberID: memberID, Date: date, Kind: LeaveOrdinary})
		}
	} else {
		out.LeaveRequests = p.withoutRequest(memberID, date)
	}
	return out
}

// SetSaturdays applies one availability to every (member, date) pair,
// replacing existing availability records and leave requests on those cells.
func (p Preferences) SetSaturdays(memberIDs, dates []string, a Availability) Preferences {
	target := make(map[Cell]bool, len(memberIDs)*len(dates))
	for _, m := range memberIDs {
		for _, d := range dates {
			target[Cell{Date: d, MemberID: m}] = true
		}
	}

	out := Preferences{
		SaturdayAvailability: make([]SaturdayAvailability, 0, len(p.SaturdayAvailability)),
		LeaveRequests:        make([]LeaveRequest, 0, len(p.LeaveRequests)),
	}
	for _, s := range p.SaturdayAvailability {
		if !target[Cell{Date: s.Date, MemberID: s.MemberID}] {
			out.SaturdayAvailability = append(out.SaturdayAvailability, s)
		}
	}
	for _, r := range p.LeaveRequests {
		if !target[Cell{Date: r.Date, MemberID: r.MemberID}] {
			out.LeaveRequests = append(out.LeaveRequests, r)
		}
	}

	if a == AvailabilityUnknown {
		return out
	}
	for _, m := range memberIDs {
		for _, d := range dates {
			out.SaturdayAvailability = append(out.SaturdayAvailability, SaturdayAvailability{
				MemberID: m, Date: d, Available: a == AvailabilityAvailable,
			})
			if a == AvailabilityUnavailable {
				out.LeaveRequests = append(out.LeaveRequests, LeaveRequest{MemberID: m, Date: d, Kind: LeaveOrdinary})
			}
		}
	}
	return out
}

// ToggleLeaveRequest cycles a cell's request: none -> ordinary -> paid -> none.
func (p Preferences) ToggleLeaveRequest(memberID, date string) Preferences {
	existing, ok := p.Request(memberID, date)
	out := Preferences{SaturdayAvailability: p.SaturdayAvailability}

	switch {
	case !ok:
		out.LeaveRequests = append(append([]LeaveRequest(nil), p.LeaveRequests...),
			LeaveRequest{MemberID: memberID, Date: date, Kind: LeaveOrdinary})
	case existing.EffectiveKind() == LeaveOrdinary:
		out.LeaveRequests = make([]LeaveRequest, 0, len(p.LeaveRequests))
		for _, r := range p.LeaveRequests {
			if r.MemberID == memberID && r.Date == date {
				r.Kind = LeavePaid
			}
			out.LeaveRequests = append(out.LeaveRequests, r)
		}
	default:
		out.LeaveRequests = p.withoutRequest(memberID, date)
	}
	return out
}

// ClearLeaveRequests drops every leave request and keeps availability.
func (p Preferences) ClearLeaveRequests() Preferences {
	return Preferences{
		SaturdayAvailability: p.SaturdayAvailability,
		LeaveRequests:        []LeaveRequest{},
	}
}

// ReflectSaturdays turns the duty outcome of rotating Saturdays into leave
// requests: members not on duty get an ordinary request (unless they already
// have one), members on duty lose theirs. Full-attendance Saturdays are
// skipped. A nil roster reads as the implied default (nobody on duty).
func (p Preferences) ReflectSaturdays(r *Roster, saturdays []calendar.Day, members []Member) Preferences {
	out := p.Clone()
	for _, m := range members {
		for _, day := range saturdays {
			if day.Category != calendar.RotatingSaturday {
				continue
			}
			onDuty := r.StatusOn(day, m.ID) == StatusSaturdayDuty
			_, requested := out.Request(m.ID, day.ISODate)

			switch {
			case !onDuty && !requested:
				out.LeaveRequests = append(out.LeaveRequests, LeaveRequest{MemberID: m.ID, Date: day.ISODate, Kind: LeaveOrdinary})
			case onDuty && requested:
				out.LeaveRequests = out.withoutRequest(m.ID, day.ISODate)
			}
		}
	}
	return out
}
