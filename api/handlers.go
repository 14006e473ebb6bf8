/*
handlers.go - HTTP API handlers for the duty roster

PURPOSE:
  Exposes the roster planner via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the planner.

ENDPOINTS:
  Calendar:
    GET    /api/members                                  Ordered members
    GET    /api/periods/{period}/days                    Classified days

  Roster:
    GET    /api/periods/{period}/roster                  Roster screen
    POST   /api/periods/{period}/roster/generate         Run the engine
    POST   /api/periods/{period}/roster/reset            Calendar skeleton
    POST   /api/periods/{period}/roster/toggle           Cycle one cell
    POST   /api/periods/{period}/roster/assign           Set one cell
    POST   /api/periods/{period}/roster/confirm/{memberID}
    GET    /api/periods/{period}/roster/violations
    GET    /api/periods/{period}/roster/history
    GET    /api/periods/{period}/roster/export.csv
    GET    /api/periods/{period}/roster/print

  Preferences:
    GET    /api/periods/{period}/preferences
    PUT    /api/periods/{period}/preferences
    POST   /api/periods/{period}/preferences/saturdays/toggle
    POST   /api/periods/{period}/preferences/saturdays/bulk
    POST   /api/periods/{period}/preferences/requests/toggle
    DELETE /api/periods/{period}/preferences/requests
    POST   /api/periods/{period}/preferences/reflect-saturdays

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Planner: serialised roster operations over the store
  - Setup: printers for print jobs
  - now: clock for print job footers

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid period, malformed body, unknown member, invalid status
  - 404: Date outside the period
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/export"
	"github.com/warp/roster-engine/factory"
	"github.com/warp/roster-engine/planner"
	"github.com/warp/roster-engine/roster"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Planner *planner.Planner
	Setup   *factory.Setup

	now func() time.Time

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler over a planner.
func NewHandler(p *planner.Planner, setup *factory.Setup) *Handler {
	return &Handler{
		Planner: p,
		Setup:   setup,
		now:     time.Now,
	}
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// ListMembers returns the ordered members.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toMemberDTOs(h.Planner.Members()))
}

// ListDays returns the classified days of a period.
func (h *Handler) ListDays(w http.ResponseWriter, r *http.Request) {
	days, err := h.Planner.Days(chi.URLParam(r, "period"))
	if err != nil {
		writeDomainError(w, "Failed to classify period", err)
		return
	}
	writeJSON(w, http.StatusOK, toDayDTOs(days))
}

// =============================================================================
// ROSTER HANDLERS
// =============================================================================

// GetRoster returns the roster screen of a period.
func (h *Handler) GetRoster(w http.ResponseWriter, r *http.Request) {
	v, err := h.Planner.View(r.Context(), chi.URLParam(r, "period"))
	if err != nil {
		writeDomainError(w, "Failed to load roster", err)
		return
	}
	writeJSON(w, http.StatusOK, toRosterResponse(v))
}

// GenerateRoster runs the assignment engine. The body is optional.
func (h *Handler) GenerateRoster(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	period := chi.URLParam(r, "period")
	res, err := h.Planner.Generate(r.Context(), period, req.PreserveManual)
	if err != nil {
		writeDomainError(w, "Failed to generate roster", err)
		return
	}
	writeJSON(w, http.StatusOK, toMutationResponse(period, res))
}

// ResetRoster replaces the roster with the calendar skeleton.
func (h *Handler) ResetRoster(w http.ResponseWriter, r *http.Request) {
	period := chi.URLParam(r, "period")
	res, err := h.Planner.Reset(r.Context(), period)
	if err != nil {
		writeDomainError(w, "Failed to reset roster", err)
		return
	}
	writeJSON(w, http.StatusOK, toMutationResponse(period, res))
}

// ToggleCell cycles one cell through the edit cycle.
func (h *Handler) ToggleCell(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Date == "" || req.MemberID == "" {
		writeError(w, http.StatusBadRequest, "date and member_id are required", nil)
		return
	}

	period := chi.URLParam(r, "period")
	res, err := h.Planner.Toggle(r.Context(), period, req.Date, req.MemberID)
	if err != nil {
		writeDomainError(w, "Failed to toggle cell", err)
		return
	}
	writeJSON(w, http.StatusOK, toMutationResponse(period, res))
}

// AssignCell sets one cell directly.
func (h *Handler) AssignCell(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Date == "" || req.MemberID == "" {
		writeError(w, http.StatusBadRequest, "date and member_id are required", nil)
		return
	}
	status, err := roster.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid status", err)
		return
	}

	period := chi.URLParam(r, "period")
	res, err := h.Planner.Assign(r.Context(), period, req.Date, req.MemberID, status)
	if err != nil {
		writeDomainError(w, "Failed to assign cell", err)
		return
	}
	writeJSON(w, http.StatusOK, toMutationResponse(period, res))
}

// ConfirmRequests turns every leave request of a member into an off day.
func (h *Handler) ConfirmRequests(w http.ResponseWriter, r *http.Request) {
	period := chi.URLParam(r, "period")
	res, err := h.Planner.ConfirmRequests(r.Context(), period, chi.URLParam(r, "memberID"))
	if err != nil {
		writeDomainError(w, "Failed to confirm requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toMutationResponse(period, res))
}

// ListViolations returns the rule violations of the current roster.
func (h *Handler) ListViolations(w http.ResponseWriter, r *http.Request) {
	v, err := h.Planner.View(r.Context(), chi.URLParam(r, "period"))
	if err != nil {
		writeDomainError(w, "Failed to load roster", err)
		return
	}
	writeJSON(w, http.StatusOK, toViolationDTOs(v.Violations))
}

// ListHistory returns the revisions of a period, oldest first.
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	revs, err := h.Planner.History(r.Context(), chi.URLParam(r, "period"))
	if err != nil {
		writeDomainError(w, "Failed to load history", err)
		return
	}
	dtos := make([]RevisionDTO, len(revs))
	for i, rev := range revs {
		dtos[i] = toRevisionDTO(rev)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// EXPORT HANDLERS
// =============================================================================

func (h *Handler) sheet(r *http.Request) (export.Sheet, error) {
	v, err := h.Planner.View(r.Context(), chi.URLParam(r, "period"))
	if err != nil {
		return export.Sheet{}, err
	}
	period, err := calendar.ParsePeriod(v.Period)
	if err != nil {
		return export.Sheet{}, err
	}
	return export.Sheet{Period: period, Days: v.Days, Members: v.Members, Roster: v.Roster}, nil
}

// ExportCSV downloads the roster as CSV.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	sheet, err := h.sheet(r)
	if err != nil {
		writeDomainError(w, "Failed to load roster", err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, sheet); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render CSV", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="shift_%s.csv"`, sheet.Period.Key()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// PrintJob renders the spooler print job. Query: printer (id from the
// configured printer list, or a raw name), encoding (utf-8 | cp932).
func (h *Handler) PrintJob(w http.ResponseWriter, r *http.Request) {
	enc, err := export.ParseEncoding(r.URL.Query().Get("encoding"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid encoding", err)
		return
	}
	sheet, err := h.sheet(r)
	if err != nil {
		writeDomainError(w, "Failed to load roster", err)
		return
	}

	printer := r.URL.Query().Get("printer")
	if printer != "" && h.Setup != nil {
		printer = h.Setup.PrinterName(printer)
	}

	var buf bytes.Buffer
	err = export.WritePrintJob(&buf, sheet, export.PrintOptions{
		PrinterName: printer,
		Encoding:    enc,
		CreatedAt:   h.now(),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render print job", err)
		return
	}

	charset := "utf-8"
	if enc == export.EncodingCP932 {
		charset = "Shift_JIS"
	}
	w.Header().Set("Content-Type", "text/plain; charset="+charset)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// =============================================================================
// PREFERENCE HANDLERS
// =============================================================================

// GetPreferences returns the stored preferences of a period.
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.Planner.Preferences(r.Context(), chi.URLParam(r, "period"))
	if err != nil {
		writeDomainError(w, "Failed to load preferences", err)
		return
	}
	writeJSON(w, http.StatusOK, prefs.Clone())
}

// PutPreferences replaces the preferences of a period.
func (h *Handler) PutPreferences(w http.ResponseWriter, r *http.Request) {
	var req roster.Preferences
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.writePreferences(w, "Failed to save preferences")(
		h.Planner.UpdatePreferences(r.Context(), chi.URLParam(r, "period"), req))
}

// ToggleSaturday sets one member's availability for one Saturday.
func (h *Handler) ToggleSaturday(w http.ResponseWriter, r *http.Request) {
	var req SaturdayToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.writePreferences(w, "Failed to update availability")(
		h.Planner.ToggleSaturday(r.Context(), chi.URLParam(r, "period"), req.MemberID, req.Date, req.Available))
}

// BulkSaturdays applies one availability to many (member, Saturday) cells.
func (h *Handler) BulkSaturdays(w http.ResponseWriter, r *http.Request) {
	var req SaturdayBulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	a, err := roster.ParseAvailability(req.Availability)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid availability", err)
		return
	}
	h.writePreferences(w, "Failed to update availability")(
		h.Planner.SetSaturdays(r.Context(), chi.URLParam(r, "period"), req.MemberIDs, req.Dates, a))
}

// ToggleLeaveRequest cycles one leave request.
func (h *Handler) ToggleLeaveRequest(w http.ResponseWriter, r *http.Request) {
	var req LeaveToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.writePreferences(w, "Failed to update leave request")(
		h.Planner.ToggleLeaveRequest(r.Context(), chi.URLParam(r, "period"), req.MemberID, req.Date))
}

// ClearLeaveRequests drops every leave request of a period.
func (h *Handler) ClearLeaveRequests(w http.ResponseWriter, r *http.Request) {
	h.writePreferences(w, "Failed to clear leave requests")(
		h.Planner.ClearLeaveRequests(r.Context(), chi.URLParam(r, "period")))
}

// ReflectSaturdays turns the Saturday duty outcome into leave requests.
func (h *Handler) ReflectSaturdays(w http.ResponseWriter, r *http.Request) {
	h.writePreferences(w, "Failed to reflect Saturdays")(
		h.Planner.ReflectSaturdays(r.Context(), chi.URLParam(r, "period")))
}

func (h *Handler) writePreferences(w http.ResponseWriter, message string) func(roster.Preferences, error) {
	return func(prefs roster.Preferences, err error) {
		if err != nil {
			writeDomainError(w, message, err)
			return
		}
		writeJSON(w, http.StatusOK, prefs.Clone())
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps planner errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, statusFor(err), message, err)
}

func statusFor(err error) int {
	switch {
	case roster.IsNotFound(err):
		return http.StatusNotFound
	case roster.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeOptional decodes a JSON body when one is present.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
