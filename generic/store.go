/*
store.go - Persistence interfaces for punches, configuration and man-hours

PURPOSE:
  Defines the interface between the engine and the database. Different
  implementations can use SQLite or in-memory storage; the engine only
  depends on these interfaces.

KEY INTERFACES:
  PunchStore:        Append-only punch log, role re-tagging
  SegmentStore:      Effective-dated shift segments (append-only)
  EmployeeDirectory: Employee rows used for eligibility
  ManHourStore:      Computed records (delete-then-recreate per employee/day)
  TxStore:           Runs a function against all of the above atomically

PUNCH CONTRACT:
  - AppendPunches(): the only way punches enter the system
  - UpdateRoles(): the only mutation, touches Role and ResolvedAt
  - NO Delete() exists for punches

RECORD CONTRACT:
  Records for an employee/day are never patched. The Aggregator deletes
  them and saves the new set inside one WithTx call, so a reader never
  sees a half-replaced day.

TIME RANGES:
  All punch range queries are half-open [from, to) and return punches
  ordered by Timestamp, then ID.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite (mattn or modernc driver)
  - generic/store/memory.go: In-memory for testing

SEE ALSO:
  - manhour/aggregator.go: Main consumer of WithTx
*/
package generic

import (
	"context"
	"time"
)

// =============================================================================
// PUNCHES
// =============================================================================

type PunchStore interface {
	// AppendPunches persists new punches. IDs must be unique.
	AppendPunches(ctx context.Context, punches []Punch) error

	// PunchesInRange returns an employee's punches with Timestamp in [from, to).
	PunchesInRange(ctx context.Context, key EmployeeKey, from, to time.Time) ([]Punch, error)

	// PunchesByRole is PunchesInRange filtered to one role.
	PunchesByRole(ctx context.Context, key EmployeeKey, role Role, from, to time.Time) ([]Punch, error)

	// PendingPunches returns every punch with Role Unknown that no
	// disambiguation run has resolved, across all employees and dates.
	PendingPunches(ctx context.Context) ([]Punch, error)

	// UpdateRoles rewrites Role and ResolvedAt for the given punches.
	UpdateRoles(ctx context.Context, updates []RoleUpdate) error
}

// =============================================================================
// CONFIGURATION (read-only from the engine's point of view)
// =============================================================================

type SegmentStore interface {
	// AppendSegment adds a segment. Existing segments are never edited.
	AppendSegment(ctx context.Context, seg ShiftSegment) error

	// SegmentsFor returns all segments of an employee in append order.
	SegmentsFor(ctx context.Context, key EmployeeKey) ([]ShiftSegment, error)
}

type EmployeeDirectory interface {
	SaveEmployee(ctx context.Context, emp Employee) error

	// GetEmployee returns ErrEmployeeNotFound for unknown keys.
	GetEmployee(ctx context.Context, key EmployeeKey) (Employee, error)

	// ListEmployees returns every employee ordered by key.
	ListEmployees(ctx context.Context) ([]Employee, error)
}

// =============================================================================
// MAN-HOUR RECORDS
// =============================================================================

type ManHourStore interface {
	// DeleteManHours removes all records of an employee/work day and
	// returns how many were removed.
	DeleteManHours(ctx context.Context, key EmployeeKey, date Date) (int64, error)

	// SaveManHours inserts records.
	SaveManHours(ctx context.Context, records []ManHourRecord) error

	// ManHours returns an employee/work day's records ordered by Start.
	ManHours(ctx context.Context, key EmployeeKey, date Date) ([]ManHourRecord, error)

	// OldestOpenManHour returns the open record with the earliest Start,
	// or nil when every record is closed.
	OldestOpenManHour(ctx context.Context) (*ManHourRecord, error)

	// CountOpenManHours returns how many records have no End.
	CountOpenManHours(ctx context.Context) (int64, error)
}

// =============================================================================
// COMPOSITE + TRANSACTIONAL STORE
// =============================================================================

type Store interface {
	PunchStore
	SegmentStore
	EmployeeDirectory
	ManHourStore
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, every write made through the Store passed to fn
	// is rolled back. fn must only use the Store it is given.
	WithTx(ctx context.Context, fn func(Store) error) error
}
