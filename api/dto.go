/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Punches:
    PunchInputDTO, RecordPunchesRequest, PunchDTO, DisambiguationDTO

  Configuration:
    factory.SegmentJSON, factory.EmployeeJSON (used as-is)
    ResolvedSegmentDTO

  Man-hours:
    ManHourRecordDTO, RecomputeDTO, EligibleDTO

  Computation:
    RunSummaryDTO, HealthDTO

ID ENCODING:
  Punch IDs are snowflake int64 values and exceed the integer range
  JavaScript can represent, so they are sent as strings.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/segment.go: SegmentJSON / EmployeeJSON
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/manhour-engine/factory"
	"github.com/warp/manhour-engine/generic"
	"github.com/warp/manhour-engine/manhour"
)

// =============================================================================
// PUNCHES
// =============================================================================

// PunchInputDTO is one punch in an ingestion batch.
type PunchInputDTO struct {
	EmployeeKey string    `json:"employee_key"`
	Timestamp   time.Time `json:"timestamp"`
	Channel     string    `json:"channel,omitempty"`
	Role        string    `json:"role,omitempty"`
}

// RecordPunchesRequest is the body of POST /api/punches.
type RecordPunchesRequest struct {
	Punches []PunchInputDTO `json:"punches"`
}

// PunchDTO represents a stored punch.
type PunchDTO struct {
	ID          int64      `json:"id,string"`
	EmployeeKey string     `json:"employee_key"`
	Timestamp   time.Time  `json:"timestamp"`
	WorkDate    string     `json:"work_date"`
	Channel     string     `json:"channel"`
	Role        string     `json:"role"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	Pending     bool       `json:"pending"`
}

// DisambiguationDTO is the ordered result of one disambiguation.
type DisambiguationDTO struct {
	EmployeeKey string     `json:"employee_key"`
	WorkDate    string     `json:"work_date"`
	Punches     []PunchDTO `json:"punches"`
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// ResolvedSegmentDTO is the segment effective on a date.
type ResolvedSegmentDTO struct {
	Date    string              `json:"date"`
	Segment factory.SegmentJSON `json:"segment"`
}

// =============================================================================
// MAN-HOURS
// =============================================================================

// ManHourRecordDTO represents a computed record. Hours is a decimal string.
type ManHourRecordDTO struct {
	ID           string          `json:"id"`
	EmployeeKey  string          `json:"employee_key"`
	WorkDate     string          `json:"work_date"`
	Start        time.Time       `json:"start"`
	End          *time.Time      `json:"end,omitempty"`
	BreakMinutes int             `json:"break_minutes"`
	Hours        decimal.Decimal `json:"hours"`
	Open         bool            `json:"open"`
}

// RecomputeDTO is returned by the recompute and read endpoints.
type RecomputeDTO struct {
	EmployeeKey string             `json:"employee_key"`
	WorkDate    string             `json:"work_date"`
	Records     []ManHourRecordDTO `json:"records"`
	TotalHours  decimal.Decimal    `json:"total_hours"`
}

// EligibleDTO lists employees whose attendance is computed on a date.
type EligibleDTO struct {
	Date      string   `json:"date"`
	Employees []string `json:"employees"`
}

// =============================================================================
// COMPUTATION
// =============================================================================

// RunSummaryDTO mirrors manhour.RunSummary.
type RunSummaryDTO struct {
	Noop                   bool   `json:"noop"`
	PendingPunches         int    `json:"pending_punches"`
	DaysDisambiguated      int    `json:"days_disambiguated"`
	DisambiguationFailures int    `json:"disambiguation_failures"`
	RangeFrom              string `json:"range_from,omitempty"`
	RangeTo                string `json:"range_to,omitempty"`
	UnitsComputed          int    `json:"units_computed"`
	UnitFailures           int    `json:"unit_failures"`
	OpenRecords            int64  `json:"open_records"`
}

// HealthDTO is the liveness response.
type HealthDTO struct {
	Status       string            `json:"status"`
	Time         time.Time         `json:"time"`
	IncompleteOK bool              `json:"incomplete_ok"`
	OldestOpen   *ManHourRecordDTO `json:"oldest_open,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toPunchDTO(p generic.Punch, cal generic.Calendar) PunchDTO {
	return PunchDTO{
		ID:          int64(p.ID),
		EmployeeKey: string(p.EmployeeKey),
		Timestamp:   cal.Local(p.Timestamp),
		WorkDate:    cal.WorkDayOf(p.Timestamp).String(),
		Channel:     string(p.InputChannel),
		Role:        string(p.Role),
		ResolvedAt:  p.ResolvedAt,
		Pending:     p.Pending(),
	}
}

func toPunchDTOs(punches []generic.Punch, cal generic.Calendar) []PunchDTO {
	dtos := make([]PunchDTO, len(punches))
	for i, p := range punches {
		dtos[i] = toPunchDTO(p, cal)
	}
	return dtos
}

func toRecordDTO(r generic.ManHourRecord) ManHourRecordDTO {
	return ManHourRecordDTO{
		ID:           string(r.ID),
		EmployeeKey:  string(r.EmployeeKey),
		WorkDate:     r.WorkDate.String(),
		Start:        r.Start,
		End:          r.End,
		BreakMinutes: r.BreakMinutes,
		Hours:        r.Hours,
		Open:         r.IsOpen(),
	}
}

func toRecomputeDTO(key generic.EmployeeKey, date generic.Date, records []generic.ManHourRecord) RecomputeDTO {
	dto := RecomputeDTO{
		EmployeeKey: string(key),
		WorkDate:    date.String(),
		Records:     make([]ManHourRecordDTO, len(records)),
		TotalHours:  decimal.Zero,
	}
	for i, r := range records {
		dto.Records[i] = toRecordDTO(r)
		dto.TotalHours = dto.TotalHours.Add(r.Hours)
	}
	return dto
}

func toRunSummaryDTO(s manhour.RunSummary) RunSummaryDTO {
	dto := RunSummaryDTO{
		Noop:                   s.Noop(),
		PendingPunches:         s.PendingPunches,
		DaysDisambiguated:      s.DaysDisambiguated,
		DisambiguationFailures: s.DisambiguationFailures,
		UnitsComputed:          s.UnitsComputed,
		UnitFailures:           s.UnitFailures,
		OpenRecords:            s.OpenRecords,
	}
	if s.Range != nil {
		dto.RangeFrom = s.Range.From.String()
		dto.RangeTo = s.Range.To.String()
	}
	return dto
}
