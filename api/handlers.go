/*
handlers.go - HTTP request handlers for the man-hour engine API

PURPOSE:
  Implements the REST API endpoints. Each handler:
  1. Parses and validates the request
  2. Calls the manhour services or the store
  3. Returns a JSON response

ENDPOINT GROUPS:
  Punches:      POST /api/punches, GET /api/employees/{key}/punches
  Directory:    GET/POST /api/employees
  Segments:     POST /api/employees/{key}/segments, GET .../segments/resolve
  Pipeline:     POST .../disambiguate/{date}, POST .../manhours/{date}/recompute
  Reads:        GET .../manhours/{date}, GET /api/eligible
  Computation:  POST /api/computations/run, GET /api/manhours/incomplete
  Health:       GET /api/health

ERROR HANDLING:
  Errors are mapped by kind, never by message:
  - generic.IsClientError     -> 400 Bad Request
  - generic.IsNotFound        -> 404 Not Found
  - manhour.ErrRunInProgress  -> 409 Conflict
  - anything else             -> 500 Internal Server Error

DATES:
  Path and query dates are ISO "YYYY-MM-DD" work dates. A punch belongs to
  the work date its timestamp falls in, not its calendar date.

SEE ALSO:
  - dto.go: Request/response types
  - server.go: Route definitions
  - manhour/orchestrator.go: RunDailyComputation
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/manhour-engine/factory"
	"github.com/warp/manhour-engine/generic"
	"github.com/warp/manhour-engine/manhour"
)

// maxBodyBytes bounds request bodies; a punch batch of a few thousand
// entries fits comfortably.
const maxBodyBytes = 4 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store          generic.TxStore
	Calendar       generic.Calendar
	Orchestrator   *manhour.Orchestrator
	Recorder       *manhour.Recorder
	SegmentFactory *factory.SegmentFactory
	Logger         *log.Logger

	now func() time.Time
}

// NewHandler creates a handler around an orchestrator and a recorder that
// share one store.
func NewHandler(store generic.TxStore, orch *manhour.Orchestrator, rec *manhour.Recorder, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Handler{
		Store:          store,
		Calendar:       orch.Calendar,
		Orchestrator:   orch,
		Recorder:       rec,
		SegmentFactory: factory.NewSegmentFactory(),
		Logger:         logger,
		now:            time.Now,
	}
}

// =============================================================================
// PUNCH HANDLERS
// =============================================================================

// RecordPunches ingests a batch. The batch is all-or-nothing.
func (h *Handler) RecordPunches(w http.ResponseWriter, r *http.Request) {
	var req RecordPunchesRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Punches) == 0 {
		writeError(w, http.StatusBadRequest, "No punches in request", nil)
		return
	}

	inputs := make([]manhour.PunchInput, len(req.Punches))
	for i, p := range req.Punches {
		inputs[i] = manhour.PunchInput{
			EmployeeKey: generic.EmployeeKey(p.EmployeeKey),
			Timestamp:   p.Timestamp,
			Channel:     generic.InputChannel(strings.ToLower(p.Channel)),
			Role:        generic.Role(strings.ToLower(p.Role)),
		}
	}

	punches, err := h.Recorder.Record(r.Context(), inputs)
	if err != nil {
		writeDomainError(w, "Failed to record punches", err)
		return
	}

	writeJSON(w, http.StatusCreated, toPunchDTOs(punches, h.Calendar))
}

// ListPunches returns an employee's punches for one work day.
func (h *Handler) ListPunches(w http.ResponseWriter, r *http.Request) {
	key := employeeKeyParam(r)
	date, err := queryDate(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	from, to := h.Calendar.Window(date)
	punches, err := h.Store.PunchesInRange(r.Context(), key, from, to)
	if err != nil {
		writeDomainError(w, "Failed to load punches", err)
		return
	}

	writeJSON(w, http.StatusOK, toPunchDTOs(punches, h.Calendar))
}

// =============================================================================
// DIRECTORY HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]factory.EmployeeJSON, len(employees))
	for i, e := range employees {
		dtos[i] = h.SegmentFactory.EmployeeToJSON(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveEmployee creates or replaces a directory row.
func (h *Handler) SaveEmployee(w http.ResponseWriter, r *http.Request) {
	var ej factory.EmployeeJSON
	if err := decodeBody(w, r, &ej); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	emp, err := h.SegmentFactory.EmployeeFromJSON(ej)
	if err != nil {
		writeDomainError(w, "Invalid employee", err)
		return
	}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeDomainError(w, "Failed to save employee", err)
		return
	}

	writeJSON(w, http.StatusOK, h.SegmentFactory.EmployeeToJSON(emp))
}

// =============================================================================
// SEGMENT HANDLERS
// =============================================================================

// AppendSegment adds a shift segment for the employee in the path.
func (h *Handler) AppendSegment(w http.ResponseWriter, r *http.Request) {
	key := employeeKeyParam(r)

	var sj factory.SegmentJSON
	if err := decodeBody(w, r, &sj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if sj.EmployeeKey != "" && generic.EmployeeKey(sj.EmployeeKey) != key {
		writeError(w, http.StatusBadRequest, "employee_key does not match path", nil)
		return
	}
	sj.EmployeeKey = string(key)

	seg, err := h.SegmentFactory.FromJSON(sj)
	if err != nil {
		writeDomainError(w, "Invalid segment", err)
		return
	}
	if err := h.Store.AppendSegment(r.Context(), seg); err != nil {
		writeDomainError(w, "Failed to save segment", err)
		return
	}

	writeJSON(w, http.StatusCreated, h.SegmentFactory.ToJSON(seg))
}

// ResolveSegment returns the segment effective on ?date=.
func (h *Handler) ResolveSegment(w http.ResponseWriter, r *http.Request) {
	key := employeeKeyParam(r)
	date, err := queryDate(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	seg, err := h.Orchestrator.Aggregator.Resolver.Resolve(r.Context(), key, date)
	if err != nil {
		writeDomainError(w, "Failed to resolve segment", err)
		return
	}

	writeJSON(w, http.StatusOK, ResolvedSegmentDTO{
		Date:    date.String(),
		Segment: h.SegmentFactory.ToJSON(seg),
	})
}

// =============================================================================
// PIPELINE HANDLERS
// =============================================================================

// Disambiguate re-tags one employee's work day.
func (h *Handler) Disambiguate(w http.ResponseWriter, r *http.Request) {
	key := employeeKeyParam(r)
	date, err := pathDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	punches, err := h.Orchestrator.Disambiguator.Disambiguate(r.Context(), key, date)
	if err != nil {
		writeDomainError(w, "Failed to disambiguate", err)
		return
	}

	writeJSON(w, http.StatusOK, DisambiguationDTO{
		EmployeeKey: string(key),
		WorkDate:    date.String(),
		Punches:     toPunchDTOs(punches, h.Calendar),
	})
}

// RecomputeManHours rebuilds one employee's records for a work day.
func (h *Handler) RecomputeManHours(w http.ResponseWriter, r *http.Request) {
	key := employeeKeyParam(r)
	date, err := pathDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	records, err := h.Orchestrator.Aggregator.ComputeForEmployeeDay(r.Context(), key, date)
	if err != nil {
		writeDomainError(w, "Failed to compute man-hours", err)
		return
	}

	writeJSON(w, http.StatusOK, toRecomputeDTO(key, date, records))
}

// GetManHours returns stored records without recomputing.
func (h *Handler) GetManHours(w http.ResponseWriter, r *http.Request) {
	key := employeeKeyParam(r)
	date, err := pathDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	records, err := h.Store.ManHours(r.Context(), key, date)
	if err != nil {
		writeDomainError(w, "Failed to load man-hours", err)
		return
	}

	writeJSON(w, http.StatusOK, toRecomputeDTO(key, date, records))
}

// ListEligible returns the employees computed on ?date=.
func (h *Handler) ListEligible(w http.ResponseWriter, r *http.Request) {
	date, err := queryDate(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	keys, err := h.Orchestrator.Aggregator.SelectEligibleEmployees(r.Context(), date)
	if err != nil {
		writeDomainError(w, "Failed to select employees", err)
		return
	}

	dto := EligibleDTO{Date: date.String(), Employees: make([]string, len(keys))}
	for i, k := range keys {
		dto.Employees[i] = string(k)
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// COMPUTATION HANDLERS
// =============================================================================

// RunComputation triggers the daily pipeline. Without ?date= the range
// ends on the current anchor date.
func (h *Handler) RunComputation(w http.ResponseWriter, r *http.Request) {
	date := h.Calendar.AnchorDate(h.now())
	if r.URL.Query().Get("date") != "" {
		d, err := queryDate(r, "date")
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", err)
			return
		}
		date = d
	}

	summary, err := h.Orchestrator.RunDailyComputation(r.Context(), date)
	if err != nil {
		h.Logger.Printf("[API] Daily computation for %s: %v", date, err)
		writeDomainError(w, "Daily computation failed", err)
		return
	}

	writeJSON(w, http.StatusOK, toRunSummaryDTO(summary))
}

// GetIncomplete returns the oldest open record, or 204 when none exists.
func (h *Handler) GetIncomplete(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Orchestrator.FindIncompleteRecords(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to query open records", err)
		return
	}
	if rec == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, toRecordDTO(*rec))
}

// pinger is implemented by stores backed by a database connection.
type pinger interface {
	Ping(ctx context.Context) error
}

// Health reports liveness and whether any record is still open.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Store.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Database unreachable", err)
			return
		}
	}

	rec, err := h.Orchestrator.FindIncompleteRecords(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Store unavailable", err)
		return
	}

	dto := HealthDTO{Status: "ok", Time: h.now().UTC(), IncompleteOK: rec == nil}
	if rec != nil {
		open := toRecordDTO(*rec)
		dto.OldestOpen = &open
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// HELPERS
// =============================================================================

func employeeKeyParam(r *http.Request) generic.EmployeeKey {
	return generic.EmployeeKey(strings.TrimSpace(chi.URLParam(r, "key")))
}

func pathDate(r *http.Request) (generic.Date, error) {
	return generic.ParseDate(chi.URLParam(r, "date"))
}

func queryDate(r *http.Request, name string) (generic.Date, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return generic.Date{}, fmt.Errorf("%w: %s is required", generic.ErrInvalidRange, name)
	}
	return generic.ParseDate(v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeDomainError picks the status from the error kind.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case generic.IsClientError(err):
		status = http.StatusBadRequest
	case generic.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, manhour.ErrRunInProgress):
		status = http.StatusConflict
	}
	writeError(w, status, message, err)
}

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
