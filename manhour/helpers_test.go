package manhour_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/manhour-engine/generic"
	"github.com/warp/manhour-engine/generic/store"
	"github.com/warp/manhour-engine/manhour"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var plant = time.FixedZone("PLANT", 8*60*60)

func calendar() generic.Calendar {
	return generic.NewCalendar(plant)
}

func day(y int, m time.Month, d int) generic.Date {
	return generic.NewDate(y, m, d)
}

func at(d generic.Date, hour, minute int) time.Time {
	return d.At(hour, minute, plant)
}

var nextPunchID generic.PunchID = 1000

// seedPunches appends Unknown punches for key at the given instants.
func seedPunches(t *testing.T, s generic.PunchStore, key generic.EmployeeKey, times ...time.Time) []generic.Punch {
	t.Helper()
	punches := make([]generic.Punch, len(times))
	for i, ts := range times {
		nextPunchID++
		punches[i] = generic.Punch{
			ID:           nextPunchID,
			EmployeeKey:  key,
			Timestamp:    ts,
			InputChannel: generic.ChannelDevice,
			Role:         generic.RoleUnknown,
		}
	}
	require.NoError(t, s.AppendPunches(context.Background(), punches))
	return punches
}

func trackedEmployee(key generic.EmployeeKey, start generic.Date) generic.Employee {
	return generic.Employee{
		Key:               key,
		Name:              string(key),
		AttendanceTracked: true,
		EmploymentStart:   start,
	}
}

// lunchSegment has a single 12:00 break of the given length.
func lunchSegment(key generic.EmployeeKey, from generic.Date, minutes int) generic.ShiftSegment {
	return generic.ShiftSegment{
		ID:            generic.SegmentID(string(key) + "-" + from.String()),
		EmployeeKey:   key,
		EffectiveFrom: from,
		BreakA:        generic.BreakWindow{Start: generic.Clock{Hour: 12}, Duration: time.Duration(minutes) * time.Minute},
	}
}

func assertHours(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "hours: want %s, got %s", want, got)
}

func newOrchestrator(s generic.TxStore) *manhour.Orchestrator {
	return manhour.NewOrchestrator(s, calendar(), nil)
}

// =============================================================================
// FAILURE-INJECTING STORES
// =============================================================================

var errDiskFull = errors.New("disk full")

// failingStore makes writes fail for one employee only, inside and
// outside transactions: SaveManHours for failSaves, UpdateRoles for
// failRoles.
type failingStore struct {
	*store.Memory
	failSaves generic.EmployeeKey
	failRoles generic.EmployeeKey
}

func (f *failingStore) WithTx(ctx context.Context, fn func(generic.Store) error) error {
	return f.Memory.WithTx(ctx, func(tx generic.Store) error {
		return fn(&failingTx{Store: tx, failSaves: f.failSaves, failRoles: f.failRoles})
	})
}

// failingTx remembers whose punches were read so UpdateRoles, which only
// carries punch IDs, can fail for the right employee.
type failingTx struct {
	generic.Store
	failSaves generic.EmployeeKey
	failRoles generic.EmployeeKey
	readKey   generic.EmployeeKey
}

func (f *failingTx) PunchesInRange(ctx context.Context, key generic.EmployeeKey, from, to time.Time) ([]generic.Punch, error) {
	f.readKey = key
	return f.Store.PunchesInRange(ctx, key, from, to)
}

func (f *failingTx) UpdateRoles(ctx context.Context, updates []generic.RoleUpdate) error {
	if f.failRoles != "" && f.readKey == f.failRoles {
		return errDiskFull
	}
	return f.Store.UpdateRoles(ctx, updates)
}

func (f *failingTx) SaveManHours(ctx context.Context, records []generic.ManHourRecord) error {
	for _, r := range records {
		if f.failSaves != "" && r.EmployeeKey == f.failSaves {
			return errDiskFull
		}
	}
	return f.Store.SaveManHours(ctx, records)
}

var errDirectoryDown = errors.New("directory down")

// directoryDownStore cannot list employees.
type directoryDownStore struct {
	*store.Memory
}

func (directoryDownStore) ListEmployees(context.Context) ([]generic.Employee, error) {
	return nil, errDirectoryDown
}

// blockingStore parks PendingPunches until release is closed.
type blockingStore struct {
	*store.Memory
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStore) PendingPunches(ctx context.Context) ([]generic.Punch, error) {
	close(b.entered)
	<-b.release
	return b.Memory.PendingPunches(ctx)
}
