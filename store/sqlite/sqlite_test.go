package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/manhour-engine/generic"
	"github.com/warp/manhour-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var drivers = []sqlite.Driver{sqlite.DriverMattn, sqlite.DriverModernc}

var workDay = generic.NewDate(2024, time.March, 4)

func at(hour, minute int) time.Time { return workDay.At(hour, minute, time.UTC) }

// forEachDriver runs fn against a fresh in-memory store per driver.
func forEachDriver(t *testing.T, fn func(t *testing.T, s *sqlite.Store)) {
	for _, drv := range drivers {
		t.Run(string(drv), func(t *testing.T) {
			s, err := sqlite.Open(context.Background(), drv, ":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			fn(t, s)
		})
	}
}

func record(id string, start time.Time, end *time.Time, hours string) generic.ManHourRecord {
	return generic.ManHourRecord{
		ID:          generic.RecordID(id),
		EmployeeKey: "E1",
		WorkDate:    workDay,
		Start:       start,
		End:         end,
		Hours:       decimal.RequireFromString(hours),
	}
}

// =============================================================================
// PUNCHES
// =============================================================================

func TestStore_Punches_RangeRoleAndPending(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s *sqlite.Store) {
		ctx := context.Background()
		require.NoError(t, s.AppendPunches(ctx, []generic.Punch{
			{ID: 3, EmployeeKey: "E1", Timestamp: at(17, 30), InputChannel: generic.ChannelDevice, Role: generic.RoleUnknown},
			{ID: 1, EmployeeKey: "E1", Timestamp: at(8, 0), InputChannel: generic.ChannelDevice, Role: generic.RoleUnknown},
			{ID: 2, EmployeeKey: "E1", Timestamp: at(8, 5), InputChannel: generic.ChannelDevice, Role: generic.RoleUnknown},
			{ID: 4, EmployeeKey: "E2", Timestamp: at(9, 0), InputChannel: generic.ChannelUSB, Role: generic.RoleCheckIn},
		}))

		got, err := s.PunchesInRange(ctx, "E1", at(5, 0), at(17, 30))
		require.NoError(t, err)
		require.Len(t, got, 2, "range is half-open")
		assert.Equal(t, generic.PunchID(1), got[0].ID)
		assert.True(t, at(8, 0).Equal(got[0].Timestamp))

		pending, err := s.PendingPunches(ctx)
		require.NoError(t, err)
		assert.Len(t, pending, 3)

		resolved := time.Date(2024, time.March, 5, 6, 0, 0, 0, time.UTC)
		require.NoError(t, s.UpdateRoles(ctx, []generic.RoleUpdate{
			{ID: 1, Role: generic.RoleCheckIn, ResolvedAt: resolved},
			{ID: 2, Role: generic.RoleUnknown, ResolvedAt: resolved},
			{ID: 3, Role: generic.RoleCheckOut, ResolvedAt: resolved},
		}))

		pending, err = s.PendingPunches(ctx)
		require.NoError(t, err)
		assert.Empty(t, pending, "resolved duplicates are not pending")

		outs, err := s.PunchesByRole(ctx, "E1", generic.RoleCheckOut, at(5, 0), workDay.AddDays(1).At(5, 0, time.UTC))
		require.NoError(t, err)
		require.Len(t, outs, 1)
		assert.Equal(t, generic.PunchID(3), outs[0].ID)
		require.NotNil(t, outs[0].ResolvedAt)
		assert.True(t, resolved.Equal(*outs[0].ResolvedAt))
	})
}

func TestStore_Punches_DuplicateIDRejected(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s *sqlite.Store) {
		ctx := context.Background()
		p := generic.Punch{ID: 1, EmployeeKey: "E1", Timestamp: at(8, 0), InputChannel: generic.ChannelDevice, Role: generic.RoleUnknown}
		require.NoError(t, s.AppendPunches(ctx, []generic.Punch{p}))

		err := s.AppendPunches(ctx, []generic.Punch{p})
		assert.ErrorIs(t, err, generic.ErrInvalidPunch)
	})
}

func TestStore_UpdateRoles_UnknownPunch(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s *sqlite.Store) {
		err := s.UpdateRoles(context.Background(), []generic.RoleUpdate{{ID: 42, Role: generic.RoleCheckIn, ResolvedAt: at(9, 0)}})
		assert.Error(t, err)
	})
}

// =============================================================================
// SEGMENTS + DIRECTORY
// =============================================================================

func TestStore_Segments_RoundTripInAppendOrder(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s *sqlite.Store) {
		ctx := context.Background()
		first := generic.ShiftSegment{
			ID:            "s1",
			EmployeeKey:   "E1",
			EffectiveFrom: generic.NewDate(2024, time.June, 1),
			BreakA:        generic.BreakWindow{Start: generic.Clock{Hour: 12}, Duration: time.Hour},
		}
		second := generic.ShiftSegment{
			ID:            "s2",
			EmployeeKey:   "E1",
			EffectiveFrom: generic.NewDate(2024, time.January, 1),
			BreakA:        generic.BreakWindow{Start: generic.Clock{Hour: 23, Minute: 30}, Duration: 15 * time.Minute},
			BreakB:        generic.BreakWindow{Start: generic.Clock{Hour: 2}, Duration: 30 * time.Minute},
			SpansMidnight: true,
		}
		require.NoError(t, s.AppendSegment(ctx, first))
		require.NoError(t, s.AppendSegment(ctx, second))

		segs, err := s.SegmentsFor(ctx, "E1")
		require.NoError(t, err)
		assert.Equal(t, []generic.ShiftSegment{first, second}, segs)
	})
}

func TestStore_Employees_UpsertAndNotFound(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s *sqlite.Store) {
		ctx := context.Background()
		end := generic.NewDate(2024, time.December, 31)
		emp := generic.Employee{Key: "E2", Name: "Ana", AttendanceTracked: true, EmploymentStart: generic.NewDate(2020, time.May, 1)}
		require.NoError(t, s.SaveEmployee(ctx, emp))
		require.NoError(t, s.SaveEmployee(ctx, generic.Employee{Key: "E1", Name: "Ben", EmploymentStart: generic.NewDate(2021, time.May, 1)}))

		emp.EmploymentEnd = &end
		require.NoError(t, s.SaveEmployee(ctx, emp))

		got, err := s.GetEmployee(ctx, "E2")
		require.NoError(t, err)
		assert.Equal(t, emp, got)

		all, err := s.ListEmployees(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, generic.EmployeeKey("E1"), all[0].Key)
		assert.False(t, all[0].AttendanceTracked)

		_, err = s.GetEmployee(ctx, "nobody")
		assert.ErrorIs(t, err, generic.ErrEmployeeNotFound)
	})
}

// =============================================================================
// MAN-HOUR RECORDS
// =============================================================================

func TestStore_WithTx_ReplaceIsAtomic(t *testing.T) {
	// GIVEN: A stored record for E1/workDay
	// WHEN: A transaction deletes it, saves a new set, then fails
	// THEN: The original record is untouched

	forEachDriver(t, func(t *testing.T, s *sqlite.Store) {
		ctx := context.Background()
		end := at(17, 0)
		require.NoError(t, s.SaveManHours(ctx, []generic.ManHourRecord{record("old", at(8, 0), &end, "9")}))

		boom := errors.New("boom")
		err := s.WithTx(ctx, func(tx generic.Store) error {
			// Runs on the worker goroutine: assert only, never require.
			n, err := tx.DeleteManHours(ctx, "E1", workDay)
			assert.NoError(t, err)
			assert.EqualValues(t, 1, n)
			assert.NoError(t, tx.SaveManHours(ctx, []generic.ManHourRecord{record("new", at(9, 0), nil, "0")}))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		recs, err := s.ManHours(ctx, "E1", workDay)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, generic.RecordID("old"), recs[0].ID)
		assert.True(t, decimal.NewFromInt(9).Equal(recs[0].Hours))
	})
}

func TestStore_WithTx_Commits(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s *sqlite.Store) {
		ctx := context.Background()
		end := at(12, 30)

		err := s.WithTx(ctx, func(tx generic.Store) error {
			if _, err := tx.DeleteManHours(ctx, "E1", workDay); err != nil {
				return err
			}
			return tx.SaveManHours(ctx, []generic.ManHourRecord{
				record("b", at(13, 0), nil, "0"),
				record("a", at(8, 0), &end, "4.5"),
			})
		})
		require.NoError(t, err)

		recs, err := s.ManHours(ctx, "E1", workDay)
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, generic.RecordID("a"), recs[0].ID, "ordered by start")
		assert.True(t, end.Equal(*recs[0].End))
		assert.Equal(t, "4.5", recs[0].Hours.String())
		assert.True(t, recs[1].IsOpen())
	})
}

func TestStore_OldestOpenAndCount(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s *sqlite.Store) {
		ctx := context.Background()

		rec, err := s.OldestOpenManHour(ctx)
		require.NoError(t, err)
		assert.Nil(t, rec)

		end := at(7, 30)
		early := record("early", at(6, 0), nil, "0")
		early.WorkDate = workDay.AddDays(-2)
		early.Start = early.WorkDate.At(6, 0, time.UTC)
		require.NoError(t, s.SaveManHours(ctx, []generic.ManHourRecord{
			record("closed", at(5, 0), &end, "2.5"),
			record("late", at(14, 0), nil, "0"),
			early,
		}))

		rec, err = s.OldestOpenManHour(ctx)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, generic.RecordID("early"), rec.ID)
		assert.Equal(t, early.WorkDate, rec.WorkDate)

		n, err := s.CountOpenManHours(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)
	})
}

// =============================================================================
// FILE-BACKED DATABASE
// =============================================================================

func TestStore_FileDatabase_Reopen(t *testing.T) {
	for _, drv := range drivers {
		t.Run(string(drv), func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), "manhours.db")

			s, err := sqlite.Open(ctx, drv, path)
			require.NoError(t, err)
			require.NoError(t, s.SaveEmployee(ctx, generic.Employee{Key: "E1", Name: "Ana", AttendanceTracked: true, EmploymentStart: workDay}))
			require.NoError(t, s.Close())

			s, err = sqlite.Open(ctx, drv, path)
			require.NoError(t, err)
			defer s.Close()

			emp, err := s.GetEmployee(ctx, "E1")
			require.NoError(t, err)
			assert.Equal(t, "Ana", emp.Name)
		})
	}
}

func TestParseDriver(t *testing.T) {
	d, err := sqlite.ParseDriver("")
	require.NoError(t, err)
	assert.Equal(t, sqlite.DriverMattn, d)

	d, err = sqlite.ParseDriver("SQLITE")
	require.NoError(t, err)
	assert.Equal(t, sqlite.DriverModernc, d)

	_, err = sqlite.ParseDriver("postgres")
	assert.Error(t, err)
}

func TestStore_Ping(t *testing.T) {
	for _, drv := range drivers {
		t.Run(string(drv), func(t *testing.T) {
			ctx := context.Background()
			s, err := sqlite.Open(ctx, drv, ":memory:")
			require.NoError(t, err)
			assert.NoError(t, s.Ping(ctx))

			require.NoError(t, s.Close())
			assert.Error(t, s.Ping(ctx), "closed database")
		})
	}
}
