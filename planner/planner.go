/*
planner.go - Single-writer roster service per period

PURPOSE:
  Glues the engine to storage. Loads the period's days, members, quota,
  preferences and current roster, runs one engine or editor operation and
  saves the result as a new revision.

CONCURRENCY:
  Every mutating operation (roster or preferences) of a period runs under
  that period's mutex, so two edits of the same month never interleave.
  Different periods proceed in parallel. Reads go straight to the store,
  which hands out whole snapshots.

  mutex per period key:
    "2026-04" -> *sync.Mutex
    "2026-05" -> *sync.Mutex

READ PATH:
  A period without a stored roster is shown as the implied default
  (roster.Default), flagged Generated=false. Nothing is written for reads.

OBSERVABILITY:
  Each mutation is logged at Info with period, action and revision id, and
  recorded in Metrics (operation count by result, latency, violations
  gauge, unmet preferences after generation).

SEE ALSO:
  - store.go: Store interface
  - roster/engine.go, roster/editor.go: the operations being serialised
*/
package planner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/factory"
	"github.com/warp/roster-engine/roster"
)

// =============================================================================
// PLANNER
// =============================================================================

// Planner serialises roster operations per period.
type Planner struct {
	calendar *calendar.Calendar
	members  []roster.Member
	quota    roster.QuotaTable
	store    Store

	engine      *roster.Engine
	engineOpts  []roster.Option
	logger      *slog.Logger
	metrics     *Metrics
	periodLocks *xsync.Map[string, *sync.Mutex]
}

// Option configures a Planner.
type Option func(*Planner)

// WithLogger sets the logger for the planner and its engine.
func WithLogger(l *slog.Logger) Option {
	return func(p *Planner) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(p *Planner) { p.metrics = m }
}

// WithStrictMembers makes generation fail on records for unknown members.
func WithStrictMembers() Option {
	return func(p *Planner) { p.engineOpts = append(p.engineOpts, roster.WithStrictMembers()) }
}

// New creates a planner over a configured setup and a store.
func New(setup *factory.Setup, store Store, opts ...Option) *Planner {
	p := &Planner{
		calendar:    setup.Calendar,
		members:     append([]roster.Member(nil), setup.Members...),
		quota:       setup.Quota,
		store:       store,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		periodLocks: xsync.NewMap[string, *sync.Mutex](),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.engine = roster.NewEngine(append(p.engineOpts, roster.WithLogger(p.logger))...)
	return p
}

// Members returns the ordered roster of members.
func (p *Planner) Members() []roster.Member {
	return append([]roster.Member(nil), p.members...)
}

// Quota returns the ordinary-leave quota of a period.
func (p *Planner) Quota(period string) int {
	return p.quota.For(period)
}

// Days returns the classified days of a period key ("2026-04").
func (p *Planner) Days(period string) ([]calendar.Day, error) {
	pp, err := calendar.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	return p.calendar.Days(pp)
}

func (p *Planner) lock(period string) func() {
	mu, _ := p.periodLocks.LoadOrStore(period, &sync.Mutex{})
	mu.Lock()
	return mu.Unlock
}

// =============================================================================
// READ PATH
// =============================================================================

// View is everything a roster screen shows for one period.
type View struct {
	Period      string
	Quota       int
	Generated   bool
	Days        []calendar.Day
	Members     []roster.Member
	Roster      *roster.Roster
	Preferences roster.Preferences
	Violations  []roster.Violation
	Summaries   []roster.Summary
	Unmet       []roster.Unmet
}

// View loads a period. A missing roster is returned as the implied default.
func (p *Planner) View(ctx context.Context, period string) (*View, error) {
	days, err := p.Days(period)
	if err != nil {
		return nil, err
	}
	r, err := p.store.LoadRoster(ctx, period)
	if err != nil {
		return nil, err
	}
	prefs, err := p.store.LoadPreferences(ctx, period)
	if err != nil {
		return nil, err
	}

	v := &View{
		Period:      period,
		Quota:       p.quota.For(period),
		Generated:   r != nil,
		Days:        days,
		Members:     p.Members(),
		Preferences: prefs,
	}
	if r == nil {
		r = roster.Default(period, days, p.members)
	}
	v.Roster = r
	v.Violations = roster.CheckViolations(r, days, p.members)
	v.Summaries = roster.Summarize(r, days, p.members, v.Quota)
	v.Unmet = roster.UnmetPreferences(r, days, p.members, prefs, v.Quota)
	return v, nil
}

// History returns the revisions of a period, oldest first.
func (p *Planner) History(ctx context.Context, period string) ([]Revision, error) {
	if _, err := calendar.ParsePeriod(period); err != nil {
		return nil, err
	}
	return p.store.History(ctx, period)
}

// Preferences returns the stored preferences of a period.
func (p *Planner) Preferences(ctx context.Context, period string) (roster.Preferences, error) {
	if _, err := calendar.ParsePeriod(period); err != nil {
		return roster.Preferences{}, err
	}
	return p.store.LoadPreferences(ctx, period)
}

// =============================================================================
// ROSTER MUTATIONS
// =============================================================================

// Result is the outcome of a roster mutation.
type Result struct {
	Roster     *roster.Roster
	Revision   Revision
	Violations []roster.Violation
}

// periodState is what every roster mutation starts from.
type periodState struct {
	days    []calendar.Day
	current *roster.Roster // nil when never generated
	prefs   roster.Preferences
	quota   int
}

type rosterOp func(st periodState) (*roster.Roster, error)

// errUnchanged from a rosterOp ends the mutation without saving.
var errUnchanged = errors.New("roster unchanged")

// mutate runs op under the period lock and saves its result. It returns a
// nil Result when op leaves the roster unchanged.
func (p *Planner) mutate(ctx context.Context, period, action string, op rosterOp) (res *Result, err error) {
	start := time.Now()
	defer func() { p.observe(action, start, err) }()

	days, err := p.Days(period)
	if err != nil {
		return nil, err
	}

	unlock := p.lock(period)
	defer unlock()

	return p.saveRoster(ctx, period, action, days, op)
}

// saveRoster loads the period state, runs op and saves the result. The
// caller holds the period lock.
func (p *Planner) saveRoster(ctx context.Context, period, action string, days []calendar.Day, op rosterOp) (*Result, error) {
	st := periodState{days: days, quota: p.quota.For(period)}
	var err error
	if st.current, err = p.store.LoadRoster(ctx, period); err != nil {
		return nil, err
	}
	if st.prefs, err = p.store.LoadPreferences(ctx, period); err != nil {
		return nil, err
	}

	next, err := op(st)
	if errors.Is(err, errUnchanged) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := next.Complete(days, p.members); err != nil {
		return nil, fmt.Errorf("%s %s: %w", action, period, err)
	}

	rev, err := p.store.SaveRoster(ctx, next, action)
	if err != nil {
		return nil, err
	}

	violations := roster.CheckViolations(next, days, p.members)
	p.metrics.SetViolations(period, len(violations))
	p.logger.Info("roster saved",
		"period", period,
		"action", action,
		"revision", rev.ID,
		"violations", len(violations),
	)
	return &Result{Roster: next, Revision: rev, Violations: violations}, nil
}

func (p *Planner) observe(action string, start time.Time, err error) {
	result := "ok"
	switch {
	case err == nil:
	case roster.IsClientError(err) || roster.IsNotFound(err):
		result = "client_error"
	default:
		result = "error"
	}
	p.metrics.ObserveOperation(action, result, time.Since(start))
	if err != nil && result == "error" {
		p.logger.Error("roster operation failed", "action", action, "error", err)
	}
}

// Generate runs the assignment engine for a period.
func (p *Planner) Generate(ctx context.Context, period string, preserveManual bool) (*Result, error) {
	var unmet []roster.Unmet
	res, err := p.mutate(ctx, period, ActionGenerate, p.generateOp(preserveManual, &unmet))
	if err != nil {
		return nil, err
	}
	p.countUnmet(unmet)
	return res, nil
}

// EnsureGenerated generates a period only when it has no stored roster.
// It returns nil when a roster already exists. The check and the
// generation run under the same period lock, so an edit that creates the
// roster first is never overwritten.
func (p *Planner) EnsureGenerated(ctx context.Context, period string) (*Result, error) {
	var unmet []roster.Unmet
	generate := p.generateOp(false, &unmet)
	res, err := p.mutate(ctx, period, ActionGenerate, func(st periodState) (*roster.Roster, error) {
		if st.current != nil {
			return nil, errUnchanged
		}
		return generate(st)
	})
	if err != nil || res == nil {
		return nil, err
	}
	p.countUnmet(unmet)
	return res, nil
}

func (p *Planner) generateOp(preserveManual bool, unmet *[]roster.Unmet) rosterOp {
	return func(st periodState) (*roster.Roster, error) {
		r, err := p.engine.Generate(roster.GenerateInput{
			Days:           st.days,
			Members:        p.members,
			Preferences:    st.prefs,
			Quota:          st.quota,
			Prior:          st.current,
			PreserveManual: preserveManual,
		})
		if err != nil {
			return nil, err
		}
		*unmet = roster.UnmetPreferences(r, st.days, p.members, st.prefs, st.quota)
		return r, nil
	}
}

func (p *Planner) countUnmet(unmet []roster.Unmet) {
	byReason := make(map[roster.UnmetReason]int)
	for _, u := range unmet {
		byReason[u.Reason]++
	}
	for reason, n := range byReason {
		p.metrics.AddUnmet(string(reason), n)
	}
}

// Reset replaces a period's roster with the calendar-driven skeleton.
func (p *Planner) Reset(ctx context.Context, period string) (*Result, error) {
	return p.mutate(ctx, period, ActionReset, func(st periodState) (*roster.Roster, error) {
		return p.engine.Reset(roster.ResetInput{Days: st.days, Members: p.members, Preferences: st.prefs})
	})
}

// Toggle advances one cell through the manual edit cycle.
func (p *Planner) Toggle(ctx context.Context, period, date, memberID string) (*Result, error) {
	return p.mutate(ctx, period, ActionToggle, func(st periodState) (*roster.Roster, error) {
		return roster.Toggle(st.current, date, memberID, st.days, p.members)
	})
}

// Assign sets one cell directly.
func (p *Planner) Assign(ctx context.Context, period, date, memberID string, status roster.Status) (*Result, error) {
	return p.mutate(ctx, period, ActionAssign, func(st periodState) (*roster.Roster, error) {
		return roster.Assign(st.current, date, memberID, status, st.days, p.members)
	})
}

// ConfirmRequests sets off every cell a member has a leave request for.
func (p *Planner) ConfirmRequests(ctx context.Context, period, memberID string) (*Result, error) {
	return p.mutate(ctx, period, ActionConfirm, func(st periodState) (*roster.Roster, error) {
		return roster.ConfirmRequests(st.current, memberID, st.prefs, st.days, p.members)
	})
}

// =============================================================================
// PREFERENCE MUTATIONS
// =============================================================================

type prefsOp func(days []calendar.Day, current roster.Preferences) (roster.Preferences, error)

func (p *Planner) mutatePreferences(ctx context.Context, period, action string, op prefsOp) (out roster.Preferences, err error) {
	start := time.Now()
	defer func() { p.observe(action, start, err) }()

	days, err := p.Days(period)
	if err != nil {
		return out, err
	}

	unlock := p.lock(period)
	defer unlock()

	return p.savePreferences(ctx, period, action, days, op)
}

// savePreferences runs op over the stored preferences and saves the result.
// The caller holds the period lock.
func (p *Planner) savePreferences(ctx context.Context, period, action string, days []calendar.Day, op prefsOp) (roster.Preferences, error) {
	current, err := p.store.LoadPreferences(ctx, period)
	if err != nil {
		return roster.Preferences{}, err
	}
	out, err := op(days, current)
	if err != nil {
		return roster.Preferences{}, err
	}
	if err := p.store.SavePreferences(ctx, period, out); err != nil {
		return roster.Preferences{}, err
	}
	p.logger.Info("preferences saved",
		"period", period,
		"action", action,
		"saturday_availability", len(out.SaturdayAvailability),
		"leave_requests", len(out.LeaveRequests),
	)
	return out, nil
}

func (p *Planner) checkCell(days []calendar.Day, memberID, date string) error {
	if _, ok := roster.MemberIndex(p.members)[memberID]; !ok {
		return &roster.UnknownMemberError{MemberID: memberID, Source: "preferences", Date: date}
	}
	if _, ok := calendar.Index(days)[date]; !ok {
		return fmt.Errorf("%w: %s", roster.ErrUnknownDate, date)
	}
	return nil
}

// UpdatePreferences replaces a period's preferences wholesale.
func (p *Planner) UpdatePreferences(ctx context.Context, period string, prefs roster.Preferences) (roster.Preferences, error) {
	return p.mutatePreferences(ctx, period, "update_preferences", func(days []calendar.Day, _ roster.Preferences) (roster.Preferences, error) {
		pp, _ := calendar.ParsePeriod(period)
		if err := prefs.Validate(pp, p.members); err != nil {
			return roster.Preferences{}, err
		}
		return prefs.Normalize(), nil
	})
}

// ToggleSaturday flips a member's availability for a Saturday.
func (p *Planner) ToggleSaturday(ctx context.Context, period, memberID, date string, available bool) (roster.Preferences, error) {
	return p.mutatePreferences(ctx, period, "toggle_saturday", func(days []calendar.Day, cur roster.Preferences) (roster.Preferences, error) {
		if err := p.checkCell(days, memberID, date); err != nil {
			return roster.Preferences{}, err
		}
		return cur.ToggleSaturday(memberID, date, available), nil
	})
}

// SetSaturdays applies one availability to many (member, Saturday) cells.
// Clearing (AvailabilityUnknown) also puts those roster cells back to
// working when the period has a roster. Both saves happen under one period
// lock, and nothing is saved when either step is rejected.
func (p *Planner) SetSaturdays(ctx context.Context, period string, memberIDs, dates []string, a roster.Availability) (out roster.Preferences, err error) {
	start := time.Now()
	defer func() { p.observe("set_saturdays", start, err) }()

	days, err := p.Days(period)
	if err != nil {
		return out, err
	}
	var cells []roster.Cell
	for _, m := range memberIDs {
		for _, d := range dates {
			if err := p.checkCell(days, m, d); err != nil {
				return out, err
			}
			cells = append(cells, roster.Cell{Date: d, MemberID: m})
		}
	}

	unlock := p.lock(period)
	defer unlock()

	var cleared *roster.Roster
	if a == roster.AvailabilityUnknown && len(cells) > 0 {
		current, err := p.store.LoadRoster(ctx, period)
		if err != nil {
			return out, err
		}
		if current != nil {
			if cleared, err = roster.ClearCells(current, cells, days, p.members); err != nil {
				return out, err
			}
		}
	}

	out, err = p.savePreferences(ctx, period, "set_saturdays", days, func(_ []calendar.Day, cur roster.Preferences) (roster.Preferences, error) {
		return cur.SetSaturdays(memberIDs, dates, a), nil
	})
	if err != nil || cleared == nil {
		return out, err
	}
	_, err = p.saveRoster(ctx, period, ActionClear, days, func(periodState) (*roster.Roster, error) {
		return cleared, nil
	})
	return out, err
}

// ToggleLeaveRequest cycles a cell's request: none -> ordinary -> paid -> none.
func (p *Planner) ToggleLeaveRequest(ctx context.Context, period, memberID, date string) (roster.Preferences, error) {
	return p.mutatePreferences(ctx, period, "toggle_request", func(days []calendar.Day, cur roster.Preferences) (roster.Preferences, error) {
		if err := p.checkCell(days, memberID, date); err != nil {
			return roster.Preferences{}, err
		}
		return cur.ToggleLeaveRequest(memberID, date), nil
	})
}

// ClearLeaveRequests drops all leave requests of a period.
func (p *Planner) ClearLeaveRequests(ctx context.Context, period string) (roster.Preferences, error) {
	return p.mutatePreferences(ctx, period, "clear_requests", func(_ []calendar.Day, cur roster.Preferences) (roster.Preferences, error) {
		return cur.ClearLeaveRequests(), nil
	})
}

// ReflectSaturdays turns the current Saturday duty outcome into leave
// requests for everyone not on duty.
func (p *Planner) ReflectSaturdays(ctx context.Context, period string) (roster.Preferences, error) {
	return p.mutatePreferences(ctx, period, "reflect_saturdays", func(days []calendar.Day, cur roster.Preferences) (roster.Preferences, error) {
		r, err := p.store.LoadRoster(ctx, period)
		if err != nil {
			return roster.Preferences{}, err
		}
		return cur.ReflectSaturdays(r, calendar.RotatingSaturdays(days), p.members), nil
	})
}
