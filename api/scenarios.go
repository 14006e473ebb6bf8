/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built preference sets that populate one period with
	realistic input and generate its roster. Each scenario shows a specific
	engine behaviour (quota pressure, daily cap, full-attendance Saturdays,
	under-staffed Saturdays).

AVAILABLE SCENARIOS:

	busy-month:            Competing leave requests, quota and daily cap hit
	golden-week:           Holiday-heavy month with a full-attendance Saturday
	understaffed-saturday: Too few volunteers, Saturday violations reported

HOW SCENARIOS WORK:
 1. Classify the scenario's period with the configured calendar
 2. Build preferences from the configured members (by position, so any
    member list of three or more works)
 3. Replace the period's preferences
 4. Generate the roster from scratch

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "busy-month"}

NOTE:

	Loading a scenario overwrites that period's preferences and roster. Only
	use in development/demo environments.

SEE ALSO:
  - handlers.go: Roster and preference handlers
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/planner"
	"github.com/warp/roster-engine/roster"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	build func(days []calendar.Day, members []roster.Member) roster.Preferences
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "busy-month",
			Name:        "Busy Month",
			Description: "Everyone wants the same days off; quota and daily cap decide",
			Period:      "2026-04",
		},
		build: buildBusyMonth,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "golden-week",
			Name:        "Golden Week",
			Description: "Public holidays, paid leave bridges and a full-attendance Saturday",
			Period:      "2026-05",
		},
		build: buildGoldenWeek,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "understaffed-saturday",
			Name:        "Understaffed Saturday",
			Description: "A single volunteer per Saturday leaves duty under-staffed",
			Period:      "2026-06",
		},
		build: buildUnderstaffedSaturday,
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	s, _ := findScenario(current)
	writeJSON(w, http.StatusOK, s.ScenarioDTO)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	s, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	res, err := h.loadScenario(r.Context(), s)
	if err != nil {
		writeDomainError(w, fmt.Sprintf("Failed to load scenario %s", s.ID), err)
		return
	}

	h.mu.Lock()
	h.currentScenario = s.ID
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, toMutationResponse(s.Period, res))
}

func (h *Handler) loadScenario(ctx context.Context, s scenario) (*planner.Result, error) {
	members := h.Planner.Members()
	if len(members) < 3 {
		return nil, fmt.Errorf("%w: scenarios need at least 3 members, have %d", roster.ErrInconsistentMemberSet, len(members))
	}
	days, err := h.Planner.Days(s.Period)
	if err != nil {
		return nil, err
	}
	if _, err := h.Planner.UpdatePreferences(ctx, s.Period, s.build(days, members)); err != nil {
		return nil, err
	}
	return h.Planner.Generate(ctx, s.Period, false)
}

// =============================================================================
// SCENARIO BUILDERS
// =============================================================================

func ofCategory(days []calendar.Day, cat calendar.Category) []calendar.Day {
	var out []calendar.Day
	for _, d := range days {
		if d.Category == cat {
			out = append(out, d)
		}
	}
	return out
}

func member(members []roster.Member, i int) string {
	return members[i%len(members)].ID
}

func ordinaryRequest(memberID string, d calendar.Day) roster.LeaveRequest {
	return roster.LeaveRequest{MemberID: memberID, Date: d.ISODate, Kind: roster.LeaveOrdinary}
}

// buildBusyMonth: two volunteers per Saturday in rotation, the first three
// members all asking for the same two workdays, and the first member asking
// for more days than the quota allows.
func buildBusyMonth(days []calendar.Day, members []roster.Member) roster.Preferences {
	var p roster.Preferences
	for i, d := range ofCategory(days, calendar.RotatingSaturday) {
		for _, j := range []int{i, i + 1} {
			p.SaturdayAvailability = append(p.SaturdayAvailability, roster.SaturdayAvailability{
				MemberID: member(members, j), Date: d.ISODate, Available: true,
			})
		}
	}

	workdays := ofCategory(days, calendar.OrdinaryWorkday)
	if len(workdays) < 17 {
		return p
	}
	for _, d := range workdays[4:6] {
		for j := 0; j < 3; j++ {
			p.LeaveRequests = append(p.LeaveRequests, ordinaryRequest(member(members, j), d))
		}
	}
	for _, d := range workdays[10:17] {
		p.LeaveRequests = append(p.LeaveRequests, ordinaryRequest(member(members, 0), d))
	}
	p.LeaveRequests = append(p.LeaveRequests, roster.LeaveRequest{
		MemberID: member(members, 1), Date: workdays[12].ISODate, Kind: roster.LeavePaid,
	})
	return p
}

// buildGoldenWeek: everyone volunteers for one Saturday each, several
// members bridge the holidays with paid leave, and one asks for the
// full-attendance Saturday off.
func buildGoldenWeek(days []calendar.Day, members []roster.Member) roster.Preferences {
	var p roster.Preferences
	for i, d := range ofCategory(days, calendar.RotatingSaturday) {
		for _, j := range []int{2 * i, 2*i + 1} {
			p.SaturdayAvailability = append(p.SaturdayAvailability, roster.SaturdayAvailability{
				MemberID: member(members, j), Date: d.ISODate, Available: true,
			})
		}
	}

	workdays := ofCategory(days, calendar.OrdinaryWorkday)
	if len(workdays) < 3 {
		return p
	}
	p.LeaveRequests = append(p.LeaveRequests,
		roster.LeaveRequest{MemberID: member(members, 0), Date: workdays[0].ISODate, Kind: roster.LeavePaid},
		roster.LeaveRequest{MemberID: member(members, 1), Date: workdays[0].ISODate, Kind: roster.LeavePaid},
		ordinaryRequest(member(members, 2), workdays[1]),
		ordinaryRequest(member(members, 2), workdays[2]),
	)
	if full := ofCategory(days, calendar.FullAttendanceSaturday); len(full) > 0 {
		p.LeaveRequests = append(p.LeaveRequests, ordinaryRequest(member(members, 1), full[0]))
	}
	return p
}

// buildUnderstaffedSaturday: one volunteer per Saturday and nobody else.
func buildUnderstaffedSaturday(days []calendar.Day, members []roster.Member) roster.Preferences {
	var p roster.Preferences
	for i, d := range ofCategory(days, calendar.RotatingSaturday) {
		p.SaturdayAvailability = append(p.SaturdayAvailability, roster.SaturdayAvailability{
			MemberID: member(members, i), Date: d.ISODate, Available: true,
		})
		for j := 1; j < len(members); j++ {
			p.SaturdayAvailability = append(p.SaturdayAvailability, roster.SaturdayAvailability{
				MemberID: member(members, i+j), Date: d.ISODate, Available: false,
			})
		}
	}
	return p
}
