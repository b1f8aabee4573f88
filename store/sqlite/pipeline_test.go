package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/manhour-engine/generic"
	"github.com/warp/manhour-engine/manhour"
	"github.com/warp/manhour-engine/store/sqlite"
)

func TestPipeline_DailyComputationOnSQLite(t *testing.T) {
	// GIVEN: Raw punches recorded through the Recorder
	// WHEN: Running the daily computation twice
	// THEN: Records match the in-memory behavior and the second run is
	//       a no-op that leaves them byte-identical

	forEachDriver(t, func(t *testing.T, s *sqlite.Store) {
		ctx := context.Background()
		cal := generic.NewCalendar(time.UTC)

		require.NoError(t, s.SaveEmployee(ctx, generic.Employee{
			Key: "E1", Name: "Ana", AttendanceTracked: true, EmploymentStart: generic.NewDate(2024, time.January, 1),
		}))
		require.NoError(t, s.AppendSegment(ctx, generic.ShiftSegment{
			ID:            "std",
			EmployeeKey:   "E1",
			EffectiveFrom: generic.NewDate(2024, time.January, 1),
			BreakA:        generic.BreakWindow{Start: generic.Clock{Hour: 12}, Duration: time.Hour},
		}))

		rec, err := manhour.NewRecorder(s, 7)
		require.NoError(t, err)
		_, err = rec.Record(ctx, []manhour.PunchInput{
			{EmployeeKey: "E1", Timestamp: at(8, 0)},
			{EmployeeKey: "E1", Timestamp: at(8, 5)},
			{EmployeeKey: "E1", Timestamp: at(17, 30)},
		})
		require.NoError(t, err)

		o := manhour.NewOrchestrator(s, cal, nil)
		summary, err := o.RunDailyComputation(ctx, workDay)
		require.NoError(t, err)
		assert.Equal(t, 3, summary.PendingPunches)
		assert.Equal(t, 1, summary.UnitsComputed)

		first, err := s.ManHours(ctx, "E1", workDay)
		require.NoError(t, err)
		require.Len(t, first, 1)
		assert.Equal(t, "8.5", first[0].Hours.String())
		assert.Equal(t, 60, first[0].BreakMinutes)

		again, err := o.RunDailyComputation(ctx, workDay)
		require.NoError(t, err)
		assert.True(t, again.Noop())

		_, err = o.Aggregator.ComputeForEmployeeDay(ctx, "E1", workDay)
		require.NoError(t, err)
		second, err := s.ManHours(ctx, "E1", workDay)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}
