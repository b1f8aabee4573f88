/*
errors.go - Centralized error types for the man-hour core

PURPOSE:
  All error types in one place for consistency and discoverability.
  The manhour package wraps these with employee/day context.

ERROR CATEGORIES:
  1. Configuration gaps - no shift segment applies (non-fatal)
  2. Validation errors - malformed punches, segments, dates
  3. Unit failures - one employee/day could not be processed

  Pairing gaps (more CheckIns than CheckOuts) are NOT errors: they
  produce open ManHourRecords, surfaced through the incomplete query.

USAGE:
    if errors.Is(err, generic.ErrSegmentNotFound) {
        // no break deduction, warn and carry on
    }

SEE ALSO:
  - manhour/aggregator.go: Treats ErrSegmentNotFound as a warning
  - manhour/orchestrator.go: Collects UnitError values
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrSegmentNotFound is returned when no shift segment is effective on
	// the requested date. Callers treat it as "no break deduction".
	ErrSegmentNotFound = errors.New("shift segment not found")

	// ErrEmployeeNotFound is returned when a key is not in the directory.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrInvalidPunch is returned when a punch fails validation at ingestion.
	ErrInvalidPunch = errors.New("invalid punch")

	// ErrInvalidSegment is returned when a shift segment config is malformed.
	ErrInvalidSegment = errors.New("invalid shift segment")

	// ErrInvalidRange is returned for unparseable dates or ranges.
	ErrInvalidRange = errors.New("invalid date or range")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// SegmentNotFoundError names the lookup that failed.
type SegmentNotFoundError struct {
	EmployeeKey EmployeeKey
	Date        Date
}

func (e *SegmentNotFoundError) Error() string {
	return fmt.Sprintf("no shift segment effective for %s on %s", e.EmployeeKey, e.Date)
}

func (e *SegmentNotFoundError) Unwrap() error {
	return ErrSegmentNotFound
}

// Stage names the step a unit failed in.
type Stage string

const (
	StageDisambiguate Stage = "disambiguate"
	StageAggregate    Stage = "aggregate"
)

// UnitError is a failure scoped to one employee/day. Batches log it and
// move on to the next unit.
type UnitError struct {
	Stage       Stage
	EmployeeKey EmployeeKey
	Date        Date
	Err         error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("%s %s/%s: %v", e.Stage, e.EmployeeKey, e.Date, e.Err)
}

func (e *UnitError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPunch) ||
		errors.Is(err, ErrInvalidSegment) ||
		errors.Is(err, ErrInvalidRange)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSegmentNotFound) ||
		errors.Is(err, ErrEmployeeNotFound)
}
