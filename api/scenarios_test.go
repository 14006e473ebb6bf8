/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario produces the engine behaviour it advertises
	against the embedded fiscal-year configuration:
	- busy-month: daily cap and quota both deny requests
	- golden-week: full-attendance Saturday request stays unmet
	- understaffed-saturday: every Saturday is reported under-staffed
*/
package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/warp/roster-engine/roster"
)

func loadTestScenario(t *testing.T, h *Handler, id string) {
	t.Helper()
	s, ok := findScenario(id)
	if !ok {
		t.Fatalf("Scenario %q not found", id)
	}
	if _, err := h.loadScenario(context.Background(), s); err != nil {
		t.Fatalf("Failed to load %s scenario: %v", id, err)
	}
}

func unmetByReason(unmet []roster.Unmet) map[roster.UnmetReason]int {
	out := make(map[roster.UnmetReason]int)
	for _, u := range unmet {
		out[u.Reason]++
	}
	return out
}

func TestScenario_BusyMonth(t *testing.T) {
	// GIVEN: Busy month scenario
	// WHEN: Loading the scenario
	// THEN: Member 3 hits the daily cap twice and member 1 runs out of quota

	h := setupTestHandler(t)
	loadTestScenario(t, h, "busy-month")

	v, err := h.Planner.View(context.Background(), "2026-04")
	if err != nil {
		t.Fatalf("Failed to view roster: %v", err)
	}
	if !v.Generated {
		t.Fatal("Expected the scenario to generate the roster")
	}

	reasons := unmetByReason(v.Unmet)
	if reasons[roster.UnmetDailyCap] != 2 {
		t.Errorf("Expected 2 daily cap denials, got %d", reasons[roster.UnmetDailyCap])
	}
	if reasons[roster.UnmetQuotaReached] != 5 {
		t.Errorf("Expected 5 quota denials, got %d", reasons[roster.UnmetQuotaReached])
	}
	if len(v.Violations) != 0 {
		t.Errorf("Expected no violations, got %v", roster.Messages(v.Violations))
	}

	for _, s := range v.Summaries {
		if s.OrdinaryOffs > v.Quota {
			t.Errorf("Member %s exceeds quota: %d > %d", s.MemberID, s.OrdinaryOffs, v.Quota)
		}
	}
}

func TestScenario_GoldenWeek(t *testing.T) {
	h := setupTestHandler(t)
	loadTestScenario(t, h, "golden-week")

	v, err := h.Planner.View(context.Background(), "2026-05")
	if err != nil {
		t.Fatalf("Failed to view roster: %v", err)
	}

	if s, _ := v.Roster.Status("2026-05-01", "1"); s != roster.StatusPaidLeave {
		t.Errorf("Expected paid leave on 2026-05-01, got %q", s)
	}
	if s, _ := v.Roster.Status("2026-05-02", "2"); s != roster.StatusWorking {
		t.Errorf("Expected full attendance on 2026-05-02, got %q", s)
	}
	if len(v.Unmet) != 1 || v.Unmet[0].Reason != roster.UnmetFullAttendance {
		t.Errorf("Expected one full-attendance denial, got %+v", v.Unmet)
	}
	if len(v.Violations) != 0 {
		t.Errorf("Expected no violations, got %v", roster.Messages(v.Violations))
	}
}

func TestScenario_UnderstaffedSaturday(t *testing.T) {
	h := setupTestHandler(t)
	loadTestScenario(t, h, "understaffed-saturday")

	v, err := h.Planner.View(context.Background(), "2026-06")
	if err != nil {
		t.Fatalf("Failed to view roster: %v", err)
	}
	if len(v.Violations) != 4 {
		t.Fatalf("Expected 4 violations, got %v", roster.Messages(v.Violations))
	}
	for _, viol := range v.Violations {
		if viol.Kind != roster.ViolationUnderStaffed || viol.Count != 1 {
			t.Errorf("Unexpected violation %s", viol)
		}
	}
}

func TestLoadScenario_Route(t *testing.T) {
	_, router := setupTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/scenarios", "")
	if list := decode[[]ScenarioDTO](t, rec); len(list) != len(scenarios) {
		t.Errorf("Expected %d scenarios, got %d", len(scenarios), len(list))
	}

	rec = doRequest(t, router, http.MethodPost, "/api/scenarios/load", `{"scenario_id":"golden-week"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp := decode[MutationResponse](t, rec); resp.Period != "2026-05" {
		t.Errorf("Expected period 2026-05, got %q", resp.Period)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/scenarios/current", "")
	if cur := decode[ScenarioDTO](t, rec); cur.ID != "golden-week" {
		t.Errorf("Expected current scenario golden-week, got %q", cur.ID)
	}

	rec = doRequest(t, router, http.MethodPost, "/api/scenarios/load", `{"scenario_id":"nope"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown scenario, got %d", rec.Code)
	}
}
