/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the roster model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Calendar:
    MemberDTO, DayDTO

  Roster:
    RosterResponse, MutationResponse, ViolationDTO, RevisionDTO

  Edits:
    GenerateRequest, ToggleRequest, AssignRequest

  Preferences:
    SaturdayToggleRequest, SaturdayBulkRequest, LeaveToggleRequest

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers and the planner, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/planner"
	"github.com/warp/roster-engine/roster"
)

// =============================================================================
// CALENDAR
// =============================================================================

// MemberDTO represents a member in API responses.
type MemberDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DayDTO represents one classified day.
type DayDTO struct {
	Date     string `json:"date"`
	Label    string `json:"label"`
	Weekday  string `json:"weekday"`
	Category string `json:"category"`
}

func toMemberDTOs(members []roster.Member) []MemberDTO {
	out := make([]MemberDTO, len(members))
	for i, m := range members {
		out[i] = MemberDTO{ID: m.ID, Name: m.Name}
	}
	return out
}

func toDayDTOs(days []calendar.Day) []DayDTO {
	out := make([]DayDTO, len(days))
	for i, d := range days {
		out[i] = DayDTO{
			Date:     d.ISODate,
			Label:    d.Label,
			Weekday:  d.Weekday(),
			Category: string(d.Category),
		}
	}
	return out
}

// =============================================================================
// ROSTER
// =============================================================================

// ViolationDTO is a violation with its rendered message.
type ViolationDTO struct {
	Kind    string `json:"kind"`
	Date    string `json:"date"`
	Count   int    `json:"count"`
	Message string `json:"message"`
}

func toViolationDTOs(vs []roster.Violation) []ViolationDTO {
	out := make([]ViolationDTO, len(vs))
	for i, v := range vs {
		out[i] = ViolationDTO{Kind: string(v.Kind), Date: v.Date, Count: v.Count, Message: v.String()}
	}
	return out
}

// RevisionDTO represents one saved roster version.
type RevisionDTO struct {
	ID        string `json:"id"`
	Action    string `json:"action"`
	Entries   int    `json:"entries"`
	CreatedAt string `json:"created_at"`
}

func toRevisionDTO(rev planner.Revision) RevisionDTO {
	return RevisionDTO{
		ID:        rev.ID,
		Action:    rev.Action,
		Entries:   rev.Entries,
		CreatedAt: rev.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// RosterResponse is the full roster screen of a period.
type RosterResponse struct {
	Period     string           `json:"period"`
	Generated  bool             `json:"generated"`
	Quota      int              `json:"quota"`
	Members    []MemberDTO      `json:"members"`
	Days       []DayDTO         `json:"days"`
	Entries    []roster.Entry   `json:"entries"`
	Violations []ViolationDTO   `json:"violations"`
	Summaries  []roster.Summary `json:"summaries"`
	Unmet      []roster.Unmet   `json:"unmet"`
}

func toRosterResponse(v *planner.View) RosterResponse {
	entries := v.Roster.Entries()
	if entries == nil {
		entries = []roster.Entry{}
	}
	unmet := v.Unmet
	if unmet == nil {
		unmet = []roster.Unmet{}
	}
	return RosterResponse{
		Period:     v.Period,
		Generated:  v.Generated,
		Quota:      v.Quota,
		Members:    toMemberDTOs(v.Members),
		Days:       toDayDTOs(v.Days),
		Entries:    entries,
		Violations: toViolationDTOs(v.Violations),
		Summaries:  v.Summaries,
		Unmet:      unmet,
	}
}

// MutationResponse is returned by every roster mutation.
type MutationResponse struct {
	Period     string         `json:"period"`
	Revision   RevisionDTO    `json:"revision"`
	Entries    []roster.Entry `json:"entries"`
	Violations []ViolationDTO `json:"violations"`
}

func toMutationResponse(period string, res *planner.Result) MutationResponse {
	return MutationResponse{
		Period:     period,
		Revision:   toRevisionDTO(res.Revision),
		Entries:    res.Roster.Entries(),
		Violations: toViolationDTOs(res.Violations),
	}
}

// =============================================================================
// EDIT REQUESTS
// =============================================================================

// GenerateRequest is the optional body of POST .../roster/generate.
type GenerateRequest struct {
	PreserveManual bool `json:"preserve_manual"`
}

// ToggleRequest addresses one roster cell.
type ToggleRequest struct {
	Date     string `json:"date"`
	MemberID string `json:"member_id"`
}

// AssignRequest sets one roster cell.
type AssignRequest struct {
	Date     string `json:"date"`
	MemberID string `json:"member_id"`
	Status   string `json:"status"`
}

// =============================================================================
// PREFERENCE REQUESTS
// =============================================================================

// SaturdayToggleRequest flips one member's availability on one Saturday.
type SaturdayToggleRequest struct {
	Date      string `json:"date"`
	MemberID  string `json:"member_id"`
	Available bool   `json:"available"`
}

// SaturdayBulkRequest applies one availability to many cells.
// Availability is "available", "unavailable" or "" to clear.
type SaturdayBulkRequest struct {
	MemberIDs    []string `json:"member_ids"`
	Dates        []string `json:"dates"`
	Availability string   `json:"availability"`
}

// LeaveToggleRequest cycles one leave request.
type LeaveToggleRequest struct {
	Date     string `json:"date"`
	MemberID string `json:"member_id"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Period      string `json:"period"`
}

// LoadScenarioRequest is the request to load a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
