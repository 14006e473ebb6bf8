package planner_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/factory"
	"github.com/warp/roster-engine/planner"
	"github.com/warp/roster-engine/roster"
	"github.com/warp/roster-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const april = "2026-04"

// Four members, public holiday on 2026-04-29, April quota of 2.
// Rotating Saturdays in April 2026: 4, 11, 18, 25.
func newTestPlanner(t *testing.T, opts ...planner.Option) *planner.Planner {
	t.Helper()
	return newTestPlannerWithStore(t, memory.New(), opts...)
}

func newTestPlannerWithStore(t *testing.T, store planner.Store, opts ...planner.Option) *planner.Planner {
	t.Helper()
	setup, err := factory.NewRosterFactory().FromConfig(factory.ConfigFile{
		Members: []roster.Member{
			{ID: "m1", Name: "Member 1"},
			{ID: "m2", Name: "Member 2"},
			{ID: "m3", Name: "Member 3"},
			{ID: "m4", Name: "Member 4"},
		},
		Calendar: calendar.Config{PublicHolidays: []string{"2026-04-29"}},
		Quota:    roster.QuotaTable{ByPeriod: map[string]int{april: 2}},
	})
	require.NoError(t, err)
	return planner.New(setup, store, opts...)
}

func firstSaturdayPrefs() roster.Preferences {
	return roster.Preferences{
		SaturdayAvailability: []roster.SaturdayAvailability{
			{MemberID: "m1", Date: "2026-04-04", Available: true},
			{MemberID: "m2", Date: "2026-04-04", Available: true},
		},
		LeaveRequests: []roster.LeaveRequest{
			{MemberID: "m3", Date: "2026-04-01", Kind: roster.LeaveOrdinary},
		},
	}
}

func cellStatus(t *testing.T, r *roster.Roster, date, memberID string) roster.Status {
	t.Helper()
	s, ok := r.Status(date, memberID)
	require.True(t, ok, "missing cell %s/%s", date, memberID)
	return s
}

// metricValue reads a counter or gauge sample matching all labels.
func metricValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			got := make(map[string]string)
			for _, lp := range m.GetLabel() {
				got[lp.GetName()] = lp.GetValue()
			}
			for k, v := range labels {
				if got[k] != v {
					continue next
				}
			}
			if m.GetCounter() != nil {
				return m.GetCounter().GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	return 0
}

// =============================================================================
// READ PATH
// =============================================================================

func TestView_UngeneratedPeriod(t *testing.T) {
	// GIVEN: A period nobody has generated
	// WHEN: Viewing it
	// THEN: The implied default is shown and every rotating Saturday is
	//       reported under-staffed

	p := newTestPlanner(t)

	v, err := p.View(context.Background(), april)
	require.NoError(t, err)

	assert.False(t, v.Generated)
	assert.Equal(t, 2, v.Quota)
	assert.Len(t, v.Days, 30)
	assert.Equal(t, 30*4, v.Roster.Len())
	assert.Equal(t, roster.StatusOff, cellStatus(t, v.Roster, "2026-04-29", "m1"))
	assert.Equal(t, roster.StatusWorking, cellStatus(t, v.Roster, "2026-04-04", "m1"))

	require.Len(t, v.Violations, 4)
	for _, viol := range v.Violations {
		assert.Equal(t, roster.ViolationUnderStaffed, viol.Kind)
	}
	assert.Len(t, v.Summaries, 4)

	history, err := p.History(context.Background(), april)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestView_InvalidPeriod(t *testing.T) {
	p := newTestPlanner(t)

	_, err := p.View(context.Background(), "2026-13")
	assert.True(t, errors.Is(err, roster.ErrInvalidPeriod))
	assert.True(t, roster.IsClientError(err))
}

// =============================================================================
// GENERATE / RESET
// =============================================================================

func TestGenerate_SavesRevisionAndMetrics(t *testing.T) {
	// GIVEN: Two members available on the first Saturday and one leave request
	// WHEN: Generating April
	// THEN: The roster honours both, a revision is written and metrics move

	reg := prometheus.NewRegistry()
	p := newTestPlanner(t, planner.WithMetrics(planner.NewMetrics(reg, "")))
	ctx := context.Background()

	_, err := p.UpdatePreferences(ctx, april, firstSaturdayPrefs())
	require.NoError(t, err)

	res, err := p.Generate(ctx, april, false)
	require.NoError(t, err)

	assert.Equal(t, roster.StatusSaturdayDuty, cellStatus(t, res.Roster, "2026-04-04", "m1"))
	assert.Equal(t, roster.StatusSaturdayDuty, cellStatus(t, res.Roster, "2026-04-04", "m2"))
	assert.Equal(t, roster.StatusOff, cellStatus(t, res.Roster, "2026-04-04", "m3"))
	assert.Equal(t, roster.StatusOff, cellStatus(t, res.Roster, "2026-04-01", "m3"))
	assert.Len(t, res.Violations, 3)
	assert.Equal(t, planner.ActionGenerate, res.Revision.Action)
	assert.Equal(t, 120, res.Revision.Entries)

	v, err := p.View(ctx, april)
	require.NoError(t, err)
	assert.True(t, v.Generated)
	assert.True(t, res.Roster.Equal(v.Roster))
	assert.Empty(t, v.Unmet)

	assert.Equal(t, 1.0, metricValue(t, reg, "roster_operations_total",
		map[string]string{"action": "generate", "result": "ok"}))
	assert.Equal(t, 3.0, metricValue(t, reg, "roster_violations",
		map[string]string{"period": april}))
}

func TestGenerate_CountsUnmetRequests(t *testing.T) {
	// GIVEN: Three members asking for the same day
	// WHEN: Generating
	// THEN: The third request hits the daily cap and is counted as unmet

	reg := prometheus.NewRegistry()
	p := newTestPlanner(t, planner.WithMetrics(planner.NewMetrics(reg, "")))
	ctx := context.Background()

	prefs := roster.Preferences{LeaveRequests: []roster.LeaveRequest{
		{MemberID: "m1", Date: "2026-04-07", Kind: roster.LeaveOrdinary},
		{MemberID: "m2", Date: "2026-04-07", Kind: roster.LeaveOrdinary},
		{MemberID: "m3", Date: "2026-04-07", Kind: roster.LeaveOrdinary},
	}}
	_, err := p.UpdatePreferences(ctx, april, prefs)
	require.NoError(t, err)

	_, err = p.Generate(ctx, april, false)
	require.NoError(t, err)

	v, err := p.View(ctx, april)
	require.NoError(t, err)
	require.Len(t, v.Unmet, 1)
	assert.Equal(t, "m3", v.Unmet[0].Request.MemberID)
	assert.Equal(t, roster.UnmetDailyCap, v.Unmet[0].Reason)

	assert.Equal(t, 1.0, metricValue(t, reg, "roster_unmet_preferences_total",
		map[string]string{"reason": string(roster.UnmetDailyCap)}))
}

func TestGenerate_PreserveManualKeepsEdits(t *testing.T) {
	p := newTestPlanner(t)
	ctx := context.Background()

	_, err := p.Generate(ctx, april, false)
	require.NoError(t, err)
	_, err = p.Assign(ctx, april, "2026-04-08", "m4", roster.StatusPaidLeave)
	require.NoError(t, err)

	res, err := p.Generate(ctx, april, true)
	require.NoError(t, err)
	assert.Equal(t, roster.StatusPaidLeave, cellStatus(t, res.Roster, "2026-04-08", "m4"))

	res, err = p.Generate(ctx, april, false)
	require.NoError(t, err)
	assert.Equal(t, roster.StatusWorking, cellStatus(t, res.Roster, "2026-04-08", "m4"))
}

func TestReset_StaffsEverySaturday(t *testing.T) {
	p := newTestPlanner(t)
	ctx := context.Background()

	res, err := p.Reset(ctx, april)
	require.NoError(t, err)

	assert.Empty(t, res.Violations)
	assert.Equal(t, roster.StatusSaturdayDuty, cellStatus(t, res.Roster, "2026-04-11", "m1"))
	assert.Equal(t, roster.StatusSaturdayDuty, cellStatus(t, res.Roster, "2026-04-11", "m2"))
	assert.Equal(t, roster.StatusOff, cellStatus(t, res.Roster, "2026-04-11", "m4"))
	assert.Equal(t, planner.ActionReset, res.Revision.Action)
}

// =============================================================================
// MANUAL EDITS
// =============================================================================

func TestToggle_OriginatesRoster(t *testing.T) {
	// GIVEN: No roster for April
	// WHEN: Toggling one cell
	// THEN: The implied default is materialised with that cell off

	p := newTestPlanner(t)
	ctx := context.Background()

	res, err := p.Toggle(ctx, april, "2026-04-01", "m1")
	require.NoError(t, err)
	assert.Equal(t, roster.StatusOff, cellStatus(t, res.Roster, "2026-04-01", "m1"))
	assert.Equal(t, roster.StatusWorking, cellStatus(t, res.Roster, "2026-04-01", "m2"))

	v, err := p.View(ctx, april)
	require.NoError(t, err)
	assert.True(t, v.Generated)
}

func TestEdits_RejectBadInput(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := newTestPlanner(t, planner.WithMetrics(planner.NewMetrics(reg, "")))
	ctx := context.Background()

	_, err := p.Toggle(ctx, april, "2026-04-01", "ghost")
	assert.True(t, roster.IsClientError(err))
	var unknown *roster.UnknownMemberError
	assert.True(t, errors.As(err, &unknown))

	_, err = p.Toggle(ctx, april, "2026-05-01", "m1")
	assert.True(t, roster.IsNotFound(err))

	_, err = p.Assign(ctx, april, "2026-04-01", "m1", roster.Status("holiday"))
	assert.True(t, errors.Is(err, roster.ErrInvalidStatus))

	_, err = p.Assign(ctx, "April", "2026-04-01", "m1", roster.StatusOff)
	assert.True(t, errors.Is(err, roster.ErrInvalidPeriod))

	history, err := p.History(ctx, april)
	require.NoError(t, err)
	assert.Empty(t, history)

	assert.Equal(t, 2.0, metricValue(t, reg, "roster_operations_total",
		map[string]string{"action": "toggle", "result": "client_error"}))
	assert.Equal(t, 2.0, metricValue(t, reg, "roster_operations_total",
		map[string]string{"action": "assign", "result": "client_error"}))
}

func TestConfirmRequests(t *testing.T) {
	p := newTestPlanner(t)
	ctx := context.Background()

	prefs := roster.Preferences{LeaveRequests: []roster.LeaveRequest{
		{MemberID: "m2", Date: "2026-04-09", Kind: roster.LeaveOrdinary},
		{MemberID: "m2", Date: "2026-04-10", Kind: roster.LeavePaid},
		{MemberID: "m1", Date: "2026-04-10", Kind: roster.LeaveOrdinary},
	}}
	_, err := p.UpdatePreferences(ctx, april, prefs)
	require.NoError(t, err)

	res, err := p.ConfirmRequests(ctx, april, "m2")
	require.NoError(t, err)
	assert.Equal(t, roster.StatusOff, cellStatus(t, res.Roster, "2026-04-09", "m2"))
	assert.Equal(t, roster.StatusOff, cellStatus(t, res.Roster, "2026-04-10", "m2"))
	assert.Equal(t, roster.StatusWorking, cellStatus(t, res.Roster, "2026-04-10", "m1"))
	assert.Equal(t, planner.ActionConfirm, res.Revision.Action)
}

func TestConcurrentEditsOfOnePeriod(t *testing.T) {
	// GIVEN: Many goroutines toggling distinct cells of the same period
	// WHEN: They all finish
	// THEN: No edit is lost

	p := newTestPlanner(t)
	ctx := context.Background()

	dates := []string{"2026-04-01", "2026-04-02", "2026-04-03"}
	members := []string{"m1", "m2", "m3", "m4"}

	var wg sync.WaitGroup
	errs := make(chan error, len(dates)*len(members))
	for _, d := range dates {
		for _, m := range members {
			wg.Add(1)
			go func(date, memberID string) {
				defer wg.Done()
				if _, err := p.Toggle(ctx, april, date, memberID); err != nil {
					errs <- fmt.Errorf("%s/%s: %w", date, memberID, err)
				}
			}(d, m)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	v, err := p.View(ctx, april)
	require.NoError(t, err)
	for _, d := range dates {
		for _, m := range members {
			assert.Equal(t, roster.StatusOff, cellStatus(t, v.Roster, d, m), "%s/%s", d, m)
		}
	}

	history, err := p.History(ctx, april)
	require.NoError(t, err)
	assert.Len(t, history, len(dates)*len(members))
}

// =============================================================================
// PREFERENCES
// =============================================================================

func TestUpdatePreferences_Rejects(t *testing.T) {
	p := newTestPlanner(t)
	ctx := context.Background()

	_, err := p.UpdatePreferences(ctx, april, roster.Preferences{LeaveRequests: []roster.LeaveRequest{
		{MemberID: "ghost", Date: "2026-04-01"},
	}})
	assert.True(t, roster.IsClientError(err))

	_, err = p.UpdatePreferences(ctx, april, roster.Preferences{LeaveRequests: []roster.LeaveRequest{
		{MemberID: "m1", Date: "2026-05-01"},
	}})
	assert.True(t, roster.IsNotFound(err))

	stored, err := p.Preferences(ctx, april)
	require.NoError(t, err)
	assert.Empty(t, stored.LeaveRequests)
}

func TestToggleLeaveRequest_Cycles(t *testing.T) {
	p := newTestPlanner(t)
	ctx := context.Background()

	kinds := []roster.LeaveKind{roster.LeaveOrdinary, roster.LeavePaid}
	for _, want := range kinds {
		prefs, err := p.ToggleLeaveRequest(ctx, april, "m1", "2026-04-14")
		require.NoError(t, err)
		req, ok := prefs.Request("m1", "2026-04-14")
		require.True(t, ok)
		assert.Equal(t, want, req.EffectiveKind())
	}

	prefs, err := p.ToggleLeaveRequest(ctx, april, "m1", "2026-04-14")
	require.NoError(t, err)
	_, ok := prefs.Request("m1", "2026-04-14")
	assert.False(t, ok)

	_, err = p.ToggleLeaveRequest(ctx, april, "m1", "2026-05-14")
	assert.True(t, roster.IsNotFound(err))
}

func TestSetSaturdays_ClearingResetsRosterCells(t *testing.T) {
	// GIVEN: A generated roster with m1 on duty on the 4th
	// WHEN: Clearing m1's availability for that Saturday
	// THEN: The availability is gone and the roster cell is back to working

	p := newTestPlanner(t)
	ctx := context.Background()

	_, err := p.UpdatePreferences(ctx, april, firstSaturdayPrefs())
	require.NoError(t, err)
	_, err = p.Generate(ctx, april, false)
	require.NoError(t, err)

	prefs, err := p.SetSaturdays(ctx, april, []string{"m1"}, []string{"2026-04-04"}, roster.AvailabilityUnknown)
	require.NoError(t, err)
	assert.Equal(t, roster.AvailabilityUnknown, prefs.Availability("m1", "2026-04-04"))
	assert.Equal(t, roster.AvailabilityAvailable, prefs.Availability("m2", "2026-04-04"))

	v, err := p.View(ctx, april)
	require.NoError(t, err)
	assert.Equal(t, roster.StatusWorking, cellStatus(t, v.Roster, "2026-04-04", "m1"))

	history, err := p.History(ctx, april)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, planner.ActionClear, history[1].Action)
}

func TestSetSaturdays_UnavailableAddsRequests(t *testing.T) {
	p := newTestPlanner(t)
	ctx := context.Background()

	prefs, err := p.SetSaturdays(ctx, april, []string{"m3", "m4"}, []string{"2026-04-11", "2026-04-18"}, roster.AvailabilityUnavailable)
	require.NoError(t, err)
	assert.Len(t, prefs.SaturdayAvailability, 4)
	assert.Len(t, prefs.LeaveRequests, 4)

	history, err := p.History(ctx, april)
	require.NoError(t, err)
	assert.Empty(t, history, "no roster exists, so nothing is cleared")
}

func TestReflectSaturdays(t *testing.T) {
	p := newTestPlanner(t)
	ctx := context.Background()

	_, err := p.UpdatePreferences(ctx, april, firstSaturdayPrefs())
	require.NoError(t, err)
	_, err = p.Generate(ctx, april, false)
	require.NoError(t, err)

	prefs, err := p.ReflectSaturdays(ctx, april)
	require.NoError(t, err)

	_, onDuty := prefs.Request("m1", "2026-04-04")
	assert.False(t, onDuty)
	_, offDuty := prefs.Request("m3", "2026-04-04")
	assert.True(t, offDuty)
	_, nobodyOnDuty := prefs.Request("m1", "2026-04-11")
	assert.True(t, nobodyOnDuty)

	// 2 off duty on the 4th, all 4 on the other three Saturdays, plus m3's
	// original request.
	assert.Len(t, prefs.LeaveRequests, 2+3*4+1)

	cleared, err := p.ClearLeaveRequests(ctx, april)
	require.NoError(t, err)
	assert.Empty(t, cleared.LeaveRequests)
	assert.Len(t, cleared.SaturdayAvailability, 2)
}
