/*
Package generic provides the pure core of the man-hour engine.

PURPOSE:
  This package contains the types and algorithms that turn raw time-clock
  punches into worked hours. Nothing here performs I/O: stores, loggers and
  locks live in the manhour package, which composes these functions.

KEY CONCEPTS IN THIS FILE (types.go):
  - Punch: A single clock event, role possibly not known yet
  - ShiftSegment: Effective-dated break configuration for one employee
  - Employee: Directory row used for eligibility
  - ManHourRecord: One computed CheckIn/CheckOut interval

DATA FLOW:
  raw punches -> AssignRoles -> PairIntervals -> ManHourRecord

DESIGN PRINCIPLES:
  1. Append-only input: punches are never deleted, only re-tagged
  2. Precision: hours use decimal.Decimal, never float64
  3. Replace, don't patch: records for an employee/day are recomputed whole
  4. Type Safety: EmployeeKey / PunchID / RecordID are distinct types

SEE ALSO:
  - time.go: Date and work-day calendar arithmetic
  - disambiguate.go: Role assignment heuristic
  - breaks.go: Scheduled break deduction
  - store.go: Persistence interfaces
*/
package generic

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeKey string
type PunchID int64
type RecordID string
type SegmentID string

// =============================================================================
// PUNCH - Raw clock event
// =============================================================================

type Role string

const (
	RoleUnknown  Role = "unknown"
	RoleCheckIn  Role = "check_in"
	RoleCheckOut Role = "check_out"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUnknown, RoleCheckIn, RoleCheckOut:
		return true
	}
	return false
}

// ParseRole accepts the stored form; empty means Unknown.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return RoleUnknown, nil
	}
	r := Role(s)
	if !r.Valid() {
		return RoleUnknown, fmt.Errorf("%w: unknown role %q", ErrInvalidPunch, s)
	}
	return r, nil
}

type InputChannel string

const (
	ChannelDevice InputChannel = "device" // Wall-mounted time clock
	ChannelUSB    InputChannel = "usb"    // Dump imported from a clock's USB export, may pre-tag roles
	ChannelManual InputChannel = "manual" // Entered by an administrator
	ChannelAPI    InputChannel = "api"
)

// PreTags reports whether punches from this channel may arrive with a role.
func (c InputChannel) PreTags() bool {
	return c == ChannelUSB || c == ChannelManual
}

// Punch is append-only. Role is the only field the engine rewrites;
// ResolvedAt records when the Disambiguator last touched it.
type Punch struct {
	ID           PunchID
	EmployeeKey  EmployeeKey
	Timestamp    time.Time
	InputChannel InputChannel
	Role         Role
	ResolvedAt   *time.Time
}

// Pending is true for punches no disambiguation run has seen yet.
func (p Punch) Pending() bool {
	return p.Role == RoleUnknown && p.ResolvedAt == nil
}

// RoleUpdate is the only mutation ever applied to a stored punch.
type RoleUpdate struct {
	ID         PunchID
	Role       Role
	ResolvedAt time.Time
}

// =============================================================================
// SHIFT SEGMENT - Effective-dated break configuration
// =============================================================================

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

func (c Clock) Valid() bool {
	return c.Hour >= 0 && c.Hour < 24 && c.Minute >= 0 && c.Minute < 60
}

// ParseClock parses "HH:MM".
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, fmt.Errorf("%w: bad clock %q", ErrInvalidSegment, s)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// BreakWindow is a scheduled break anchored to a wall-clock start.
// A zero Duration means the window is not configured.
type BreakWindow struct {
	Start    Clock
	Duration time.Duration
}

func (w BreakWindow) Configured() bool { return w.Duration > 0 }

// ShiftSegment is immutable once its EffectiveFrom is in the past.
// New configuration is appended as a new segment.
type ShiftSegment struct {
	ID            SegmentID
	EmployeeKey   EmployeeKey
	EffectiveFrom Date
	BreakA        BreakWindow
	BreakB        BreakWindow
	SpansMidnight bool
	IsFlexible    bool
}

func (s ShiftSegment) Windows() []BreakWindow {
	return []BreakWindow{s.BreakA, s.BreakB}
}

// =============================================================================
// EMPLOYEE - Directory row
// =============================================================================

type Employee struct {
	Key               EmployeeKey
	Name              string
	AttendanceTracked bool
	EmploymentStart   Date
	EmploymentEnd     *Date // nil = open-ended
}

// EligibleOn reports whether man-hours should be computed for the date.
func (e Employee) EligibleOn(d Date) bool {
	if !e.AttendanceTracked {
		return false
	}
	if d.Before(e.EmploymentStart) {
		return false
	}
	if e.EmploymentEnd != nil && d.After(*e.EmploymentEnd) {
		return false
	}
	return true
}

// =============================================================================
// MAN-HOUR RECORD - Computed worked interval
// =============================================================================

type ManHourRecord struct {
	ID           RecordID
	EmployeeKey  EmployeeKey
	WorkDate     Date
	Start        time.Time
	End          *time.Time // nil = no matching CheckOut yet
	BreakMinutes int
	Hours        decimal.Decimal
}

// IsOpen is true for records still waiting on a CheckOut.
func (r ManHourRecord) IsOpen() bool { return r.End == nil }
