/*
engine.go - Roster assignment and reset engines

PURPOSE:
  Turns (classified days + members + preferences + optional prior roster)
  into a complete roster. Deterministic, single pass, fixed tie-breaks; it is
  meant to be re-run and to converge, not to optimise.

GENERATE STEPS:
  A. Seed          closed days off; optionally keep prior duty, paid leave
                   and rotating-Saturday offs; everything else working
  B. Saturdays     fill rotating Saturdays up to DutyHeadcount from members
                   marked available (roster order); everyone else off
  C. Full Sat.     full-attendance Saturdays: everyone works (paid leave kept)
  D. Paid leave    every paid request on a working cell, no caps
  E. Ordinary      per member, ascending dates, capped by the period quota
                   and by DailyOffCap absences per ordinary workday

  Each step works on its own copy of the roster, so the state after each
  step can be asserted independently.

  D runs for all members before E. Paid leave is therefore visible to the
  daily cap of every ordinary request, which keeps Generate idempotent when
  re-run with preserveManual over its own output.

RESET:
  A clean skeleton: no prior state and no leave requests. Rotating Saturdays
  take the first DutyHeadcount members after a stable available-first sort,
  even when fewer members are marked available.

FOREIGN RECORDS:
  Preference and prior-roster records for members that are not on the
  roster are skipped with a warning, or rejected with
  ErrInconsistentMemberSet when the engine is built WithStrictMembers().

SEE ALSO:
  - editor.go: manual edits after generation
  - violations.go: reports under-staffing and over-coverage loss
*/
package roster

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/warp/roster-engine/calendar"
)

const (
	// DutyHeadcount is the number of members staffing a rotating Saturday.
	DutyHeadcount = 2

	// DailyOffCap is the number of absences (off or paid leave) an ordinary
	// workday may already have for another ordinary request to be granted.
	DailyOffCap = 2
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine runs Generate and Reset. It holds no roster state and is safe for
// concurrent use.
type Engine struct {
	logger        *slog.Logger
	strictMembers bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for skipped foreign records.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithStrictMembers makes foreign records fail with ErrInconsistentMemberSet
// instead of being skipped.
func WithStrictMembers() Option {
	return func(e *Engine) { e.strictMembers = true }
}

// NewEngine creates an engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GenerateInput is the input of Generate.
type GenerateInput struct {
	Days           []calendar.Day
	Members        []Member
	Preferences    Preferences
	Quota          int
	Prior          *Roster // optional
	PreserveManual bool
}

// ResetInput is the input of Reset.
type ResetInput struct {
	Days        []calendar.Day
	Members     []Member
	Preferences Preferences
}

// =============================================================================
// GENERATE
// =============================================================================

// Generate builds a complete roster for the period covered by in.Days.
func (e *Engine) Generate(in GenerateInput) (*Roster, error) {
	key, err := periodKey(in.Days)
	if err != nil {
		return nil, err
	}
	if err := checkMembers(in.Members); err != nil {
		return nil, err
	}
	prefs, err := e.screenPreferences(key, in.Preferences, in.Members)
	if err != nil {
		return nil, err
	}
	prior, err := e.screenPrior(key, in.Prior, in.Days, in.Members)
	if err != nil {
		return nil, err
	}

	r := seed(key, in.Days, in.Members, prior, in.PreserveManual)
	r = staffSaturdays(r, in.Days, in.Members, prefs)
	r = fillFullAttendance(r, in.Days, in.Members)
	r = applyPaidLeave(r, in.Days, prefs)
	r = applyOrdinaryLeave(r, in.Days, in.Members, prefs, in.Quota)
	return r, nil
}

// seed is step A.
func seed(key string, days []calendar.Day, members []Member, prior *Roster, preserve bool) *Roster {
	r := &Roster{Period: key, entries: make(map[Cell]Status, len(days)*len(members))}
	for _, d := range days {
		for _, m := range members {
			c := Cell{Date: d.ISODate, MemberID: m.ID}
			if d.Category.IsClosed() {
				r.set(c, StatusOff)
				continue
			}
			status := StatusWorking
			if preserve {
				if was, ok := prior.Status(d.ISODate, m.ID); ok && keepsManualStatus(was, d.Category) {
					status = was
				}
			}
			r.set(c, status)
		}
	}
	return r
}

func keepsManualStatus(s Status, cat calendar.Category) bool {
	switch s {
	case StatusSaturdayDuty, StatusPaidLeave:
		return true
	case StatusOff:
		return cat == calendar.RotatingSaturday
	}
	return false
}

// staffSaturdays is step B.
func staffSaturdays(in *Roster, days []calendar.Day, members []Member, prefs preferenceIndex) *Roster {
	r := in.Clone()
	for _, d := range days {
		if d.Category != calendar.RotatingSaturday {
			continue
		}
		assigned := 0
		for _, m := range members {
			if s, _ := r.Status(d.ISODate, m.ID); s == StatusSaturdayDuty {
				assigned++
			}
		}
		for _, m := range members {
			if assigned >= DutyHeadcount {
				break
			}
			c := Cell{Date: d.ISODate, MemberID: m.ID}
			if r.entries[c] == StatusWorking && prefs.available[c] {
				r.entries[c] = StatusSaturdayDuty
				assigned++
			}
		}
		for _, m := range members {
			c := Cell{Date: d.ISODate, MemberID: m.ID}
			if s := r.entries[c]; s != StatusSaturdayDuty && s != StatusPaidLeave {
				r.entries[c] = StatusOff
			}
		}
	}
	return r
}

// fillFullAttendance is step C.
func fillFullAttendance(in *Roster, days []calendar.Day, members []Member) *Roster {
	r := in.Clone()
	for _, d := range days {
		if d.Category != calendar.FullAttendanceSaturday {
			continue
		}
		for _, m := range members {
			c := Cell{Date: d.ISODate, MemberID: m.ID}
			if r.entries[c] != StatusPaidLeave {
				r.entries[c] = StatusWorking
			}
		}
	}
	return r
}

// applyPaidLeave is step D.
func applyPaidLeave(in *Roster, days []calendar.Day, prefs preferenceIndex) *Roster {
	r := in.Clone()
	inPeriod := calendar.Index(days)
	for _, req := range prefs.requests {
		if req.EffectiveKind() != LeavePaid {
			continue
		}
		if _, ok := inPeriod[req.Date]; !ok {
			continue
		}
		c := Cell{Date: req.Date, MemberID: req.MemberID}
		if r.entries[c] == StatusWorking {
			r.entries[c] = StatusPaidLeave
		}
	}
	return r
}

// applyOrdinaryLeave is step E.
func applyOrdinaryLeave(in *Roster, days []calendar.Day, members []Member, prefs preferenceIndex, quota int) *Roster {
	r := in.Clone()
	dayIdx := calendar.Index(days)

	for _, m := range members {
		taken := ordinaryOffCount(r, days, m.ID)
		for _, req := range prefs.byMember[m.ID] {
			if req.EffectiveKind() != LeaveOrdinary {
				continue
			}
			if taken >= quota {
				break
			}
			day, ok := dayIdx[req.Date]
			if !ok || day.Category != calendar.OrdinaryWorkday {
				continue
			}
			c := Cell{Date: req.Date, MemberID: m.ID}
			if r.entries[c] != StatusWorking {
				continue
			}
			if r.CountOn(day, members, Status.IsAbsent) < DailyOffCap {
				r.entries[c] = StatusOff
				taken++
			}
		}
	}
	return r
}

// ordinaryOffCount counts a member's offs on ordinary workdays, the only
// offs that count against the quota.
func ordinaryOffCount(r *Roster, days []calendar.Day, memberID string) int {
	n := 0
	for _, d := range days {
		if d.Category != calendar.OrdinaryWorkday {
			continue
		}
		if s, _ := r.Status(d.ISODate, memberID); s == StatusOff {
			n++
		}
	}
	return n
}

// =============================================================================
// RESET
// =============================================================================

// Reset builds the calendar-driven skeleton roster, ignoring prior state and
// leave requests.
func (e *Engine) Reset(in ResetInput) (*Roster, error) {
	key, err := periodKey(in.Days)
	if err != nil {
		return nil, err
	}
	if err := checkMembers(in.Members); err != nil {
		return nil, err
	}
	prefs, err := e.screenPreferences(key, in.Preferences, in.Members)
	if err != nil {
		return nil, err
	}

	r := &Roster{Period: key, entries: make(map[Cell]Status, len(in.Days)*len(in.Members))}
	for _, d := range in.Days {
		switch d.Category {
		case calendar.RotatingSaturday:
			ordered := make([]Member, len(in.Members))
			copy(ordered, in.Members)
			sort.SliceStable(ordered, func(i, j int) bool {
				return prefs.available[Cell{Date: d.ISODate, MemberID: ordered[i].ID}] &&
					!prefs.available[Cell{Date: d.ISODate, MemberID: ordered[j].ID}]
			})
			status := make(map[string]Status, len(ordered))
			for i, m := range ordered {
				if i < DutyHeadcount {
					status[m.ID] = StatusSaturdayDuty
				} else {
					status[m.ID] = StatusOff
				}
			}
			for _, m := range in.Members {
				r.set(Cell{Date: d.ISODate, MemberID: m.ID}, status[m.ID])
			}
		default:
			for _, m := range in.Members {
				r.set(Cell{Date: d.ISODate, MemberID: m.ID}, ImpliedStatus(d))
			}
		}
	}
	return r, nil
}

// =============================================================================
// INPUT SCREENING
// =============================================================================

// preferenceIndex is the normalized, member-screened view of Preferences.
type preferenceIndex struct {
	available map[Cell]bool
	requests  []LeaveRequest            // ascending date
	byMember  map[string][]LeaveRequest // ascending date
}

func periodKey(days []calendar.Day) (string, error) {
	if len(days) == 0 {
		return "", ErrEmptyCalendar
	}
	p := calendar.Period{Year: days[0].Date.Year(), Month: days[0].Date.Month()}
	for _, d := range days {
		if !p.Contains(d.ISODate) {
			return "", fmt.Errorf("%w: day %s outside %s", ErrInvalidPeriod, d.ISODate, p.Key())
		}
	}
	return p.Key(), nil
}

func checkMembers(members []Member) error {
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		if m.ID == "" {
			return fmt.Errorf("%w: member with empty id", ErrInconsistentMemberSet)
		}
		if seen[m.ID] {
			return fmt.Errorf("%w: duplicate member %q", ErrInconsistentMemberSet, m.ID)
		}
		seen[m.ID] = true
	}
	return nil
}

func (e *Engine) foreign(key string, err *UnknownMemberError) error {
	if e.strictMembers {
		return err
	}
	e.logger.Warn("ignoring record for unknown member",
		"period", key,
		"source", err.Source,
		"member_id", err.MemberID,
		"date", err.Date,
	)
	return nil
}

func (e *Engine) screenPreferences(key string, p Preferences, members []Member) (preferenceIndex, error) {
	known := MemberIndex(members)
	norm := p.Normalize()
	idx := preferenceIndex{
		available: make(map[Cell]bool),
		byMember:  make(map[string][]LeaveRequest),
	}

	for _, s := range norm.SaturdayAvailability {
		if _, ok := known[s.MemberID]; !ok {
			if err := e.foreign(key, &UnknownMemberError{MemberID: s.MemberID, Source: "saturday_availability", Date: s.Date}); err != nil {
				return idx, err
			}
			continue
		}
		if s.Available {
			idx.available[Cell{Date: s.Date, MemberID: s.MemberID}] = true
		}
	}
	for _, r := range norm.LeaveRequests {
		if _, ok := known[r.MemberID]; !ok {
			if err := e.foreign(key, &UnknownMemberError{MemberID: r.MemberID, Source: "leave_request", Date: r.Date}); err != nil {
				return idx, err
			}
			continue
		}
		idx.requests = append(idx.requests, r)
		idx.byMember[r.MemberID] = append(idx.byMember[r.MemberID], r)
	}
	return idx, nil
}

func (e *Engine) screenPrior(key string, prior *Roster, days []calendar.Day, members []Member) (*Roster, error) {
	if prior == nil {
		return nil, nil
	}
	known := MemberIndex(members)
	inPeriod := calendar.Index(days)
	for _, entry := range prior.Entries() {
		if _, ok := known[entry.MemberID]; !ok {
			if err := e.foreign(key, &UnknownMemberError{MemberID: entry.MemberID, Source: "prior_roster", Date: entry.Date}); err != nil {
				return nil, err
			}
			continue
		}
		if _, ok := inPeriod[entry.Date]; !ok {
			e.logger.Warn("ignoring prior entry outside period", "period", key, "date", entry.Date, "member_id", entry.MemberID)
		}
	}
	return prior, nil
}
