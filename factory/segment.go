/*
Package factory provides JSON to Go configuration conversion.

PURPOSE:
  Converts JSON shift segment and employee definitions into
  generic.ShiftSegment and generic.Employee values. Shift schedules are
  maintained by HR outside this service; the factory is where their JSON
  is validated before it reaches the store.

JSON SCHEMA (segment):
  {
    "id": "day-2024",                  // optional, generated when empty
    "employee_key": "E100",
    "effective_from": "2024-01-01",
    "break_a": {"start": "10:00", "minutes": 15},
    "break_b": {"start": "12:00", "minutes": 60},
    "spans_midnight": false,
    "is_flexible": false
  }

JSON SCHEMA (employee):
  {
    "key": "E100",
    "name": "Ana Cruz",
    "attendance_tracked": true,
    "employment_start": "2020-05-01",
    "employment_end": "2024-12-31"     // optional
  }

USAGE:
  f := factory.NewSegmentFactory()
  seg, err := f.ParseSegment(jsonString)
  if err != nil { ... }               // errors.Is(err, generic.ErrInvalidSegment)
  store.AppendSegment(ctx, seg)

SEE ALSO:
  - generic/types.go: ShiftSegment / Employee definitions
  - api/handlers.go: Uses these types as request bodies
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/warp/manhour-engine/generic"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// SegmentJSON is the JSON representation of a shift segment.
type SegmentJSON struct {
	ID            string     `json:"id,omitempty"`
	EmployeeKey   string     `json:"employee_key"`
	EffectiveFrom string     `json:"effective_from"`
	BreakA        *BreakJSON `json:"break_a,omitempty"`
	BreakB        *BreakJSON `json:"break_b,omitempty"`
	SpansMidnight bool       `json:"spans_midnight,omitempty"`
	IsFlexible    bool       `json:"is_flexible,omitempty"`
}

// BreakJSON is one scheduled break window.
type BreakJSON struct {
	Start   string `json:"start"`   // "HH:MM"
	Minutes int    `json:"minutes"` // 0 = not configured
}

// EmployeeJSON is the JSON representation of a directory row.
type EmployeeJSON struct {
	Key               string `json:"key"`
	Name              string `json:"name"`
	AttendanceTracked bool   `json:"attendance_tracked"`
	EmploymentStart   string `json:"employment_start"`
	EmploymentEnd     string `json:"employment_end,omitempty"`
}

const maxBreakMinutes = 24 * 60

// =============================================================================
// SEGMENT FACTORY
// =============================================================================

// SegmentFactory converts JSON configuration to Go structs.
type SegmentFactory struct {
	newID func() string
}

func NewSegmentFactory() *SegmentFactory {
	return &SegmentFactory{newID: uuid.NewString}
}

// ParseSegment parses a JSON string into a ShiftSegment.
func (f *SegmentFactory) ParseSegment(jsonStr string) (generic.ShiftSegment, error) {
	var sj SegmentJSON
	if err := json.Unmarshal([]byte(jsonStr), &sj); err != nil {
		return generic.ShiftSegment{}, fmt.Errorf("%w: failed to parse segment JSON: %v", generic.ErrInvalidSegment, err)
	}
	return f.FromJSON(sj)
}

// FromJSON validates sj and converts it. A missing ID is generated.
func (f *SegmentFactory) FromJSON(sj SegmentJSON) (generic.ShiftSegment, error) {
	key := strings.TrimSpace(sj.EmployeeKey)
	if key == "" {
		return generic.ShiftSegment{}, fmt.Errorf("%w: employee_key is required", generic.ErrInvalidSegment)
	}

	from, err := generic.ParseDate(sj.EffectiveFrom)
	if err != nil {
		return generic.ShiftSegment{}, fmt.Errorf("%w: effective_from: %v", generic.ErrInvalidSegment, err)
	}

	breakA, err := parseBreak("break_a", sj.BreakA)
	if err != nil {
		return generic.ShiftSegment{}, err
	}
	breakB, err := parseBreak("break_b", sj.BreakB)
	if err != nil {
		return generic.ShiftSegment{}, err
	}

	id := strings.TrimSpace(sj.ID)
	if id == "" {
		id = f.newID()
	}

	return generic.ShiftSegment{
		ID:            generic.SegmentID(id),
		EmployeeKey:   generic.EmployeeKey(key),
		EffectiveFrom: from,
		BreakA:        breakA,
		BreakB:        breakB,
		SpansMidnight: sj.SpansMidnight,
		IsFlexible:    sj.IsFlexible,
	}, nil
}

func parseBreak(field string, bj *BreakJSON) (generic.BreakWindow, error) {
	if bj == nil || bj.Minutes == 0 {
		return generic.BreakWindow{}, nil
	}
	if bj.Minutes < 0 || bj.Minutes >= maxBreakMinutes {
		return generic.BreakWindow{}, fmt.Errorf("%w: %s.minutes out of range: %d", generic.ErrInvalidSegment, field, bj.Minutes)
	}
	c, err := generic.ParseClock(bj.Start)
	if err != nil {
		return generic.BreakWindow{}, fmt.Errorf("%s.start: %w", field, err)
	}
	return generic.BreakWindow{Start: c, Duration: time.Duration(bj.Minutes) * time.Minute}, nil
}

// ToJSON converts a ShiftSegment to SegmentJSON.
func (f *SegmentFactory) ToJSON(seg generic.ShiftSegment) SegmentJSON {
	return SegmentJSON{
		ID:            string(seg.ID),
		EmployeeKey:   string(seg.EmployeeKey),
		EffectiveFrom: seg.EffectiveFrom.String(),
		BreakA:        breakToJSON(seg.BreakA),
		BreakB:        breakToJSON(seg.BreakB),
		SpansMidnight: seg.SpansMidnight,
		IsFlexible:    seg.IsFlexible,
	}
}

func breakToJSON(w generic.BreakWindow) *BreakJSON {
	if !w.Configured() {
		return nil
	}
	return &BreakJSON{Start: w.Start.String(), Minutes: int(w.Duration / time.Minute)}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// ParseEmployee parses a JSON string into an Employee.
func (f *SegmentFactory) ParseEmployee(jsonStr string) (generic.Employee, error) {
	var ej EmployeeJSON
	if err := json.Unmarshal([]byte(jsonStr), &ej); err != nil {
		return generic.Employee{}, fmt.Errorf("%w: failed to parse employee JSON: %v", generic.ErrInvalidRange, err)
	}
	return f.EmployeeFromJSON(ej)
}

// EmployeeFromJSON validates ej. Employment dates use ErrInvalidRange.
func (f *SegmentFactory) EmployeeFromJSON(ej EmployeeJSON) (generic.Employee, error) {
	key := strings.TrimSpace(ej.Key)
	if key == "" {
		return generic.Employee{}, fmt.Errorf("%w: employee key is required", generic.ErrInvalidRange)
	}

	start, err := generic.ParseDate(ej.EmploymentStart)
	if err != nil {
		return generic.Employee{}, fmt.Errorf("employment_start: %w", err)
	}

	emp := generic.Employee{
		Key:               generic.EmployeeKey(key),
		Name:              ej.Name,
		AttendanceTracked: ej.AttendanceTracked,
		EmploymentStart:   start,
	}
	if ej.EmploymentEnd != "" {
		end, err := generic.ParseDate(ej.EmploymentEnd)
		if err != nil {
			return generic.Employee{}, fmt.Errorf("employment_end: %w", err)
		}
		if end.Before(start) {
			return generic.Employee{}, fmt.Errorf("%w: employment_end %s before employment_start %s", generic.ErrInvalidRange, end, start)
		}
		emp.EmploymentEnd = &end
	}
	return emp, nil
}

// EmployeeToJSON converts an Employee to EmployeeJSON.
func (f *SegmentFactory) EmployeeToJSON(emp generic.Employee) EmployeeJSON {
	ej := EmployeeJSON{
		Key:               string(emp.Key),
		Name:              emp.Name,
		AttendanceTracked: emp.AttendanceTracked,
		EmploymentStart:   emp.EmploymentStart.String(),
	}
	if emp.EmploymentEnd != nil {
		ej.EmploymentEnd = emp.EmploymentEnd.String()
	}
	return ej
}
