package factory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/manhour-engine/factory"
	"github.com/warp/manhour-engine/generic"
)

func TestParseSegment_Full(t *testing.T) {
	f := factory.NewSegmentFactory()
	seg, err := f.ParseSegment(`{
		"id": "night-2024",
		"employee_key": "E100",
		"effective_from": "2024-06-01",
		"break_a": {"start": "23:30", "minutes": 15},
		"break_b": {"start": "02:00", "minutes": 30},
		"spans_midnight": true
	}`)
	require.NoError(t, err)

	assert.Equal(t, generic.SegmentID("night-2024"), seg.ID)
	assert.Equal(t, generic.EmployeeKey("E100"), seg.EmployeeKey)
	assert.Equal(t, generic.NewDate(2024, time.June, 1), seg.EffectiveFrom)
	assert.Equal(t, generic.Clock{Hour: 23, Minute: 30}, seg.BreakA.Start)
	assert.Equal(t, 15*time.Minute, seg.BreakA.Duration)
	assert.Equal(t, 30*time.Minute, seg.BreakB.Duration)
	assert.True(t, seg.SpansMidnight)
	assert.False(t, seg.IsFlexible)
}

func TestParseSegment_GeneratesID(t *testing.T) {
	f := factory.NewSegmentFactory()
	a, err := f.ParseSegment(`{"employee_key": "E1", "effective_from": "2024-01-01"}`)
	require.NoError(t, err)
	b, err := f.ParseSegment(`{"employee_key": "E1", "effective_from": "2024-01-01"}`)
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.BreakA.Configured())
}

func TestParseSegment_Invalid(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"not json", `{`},
		{"missing employee", `{"effective_from": "2024-01-01"}`},
		{"bad date", `{"employee_key": "E1", "effective_from": "01/01/2024"}`},
		{"bad clock", `{"employee_key": "E1", "effective_from": "2024-01-01", "break_a": {"start": "noon", "minutes": 60}}`},
		{"negative minutes", `{"employee_key": "E1", "effective_from": "2024-01-01", "break_a": {"start": "12:00", "minutes": -5}}`},
	}

	f := factory.NewSegmentFactory()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseSegment(tt.json)
			require.Error(t, err)
			assert.True(t, generic.IsClientError(err), "got %v", err)
		})
	}
}

func TestSegment_ToJSON_RoundTrip(t *testing.T) {
	f := factory.NewSegmentFactory()
	seg := generic.ShiftSegment{
		ID:            "s1",
		EmployeeKey:   "E1",
		EffectiveFrom: generic.NewDate(2024, time.January, 1),
		BreakB:        generic.BreakWindow{Start: generic.Clock{Hour: 12}, Duration: time.Hour},
	}

	sj := f.ToJSON(seg)
	assert.Nil(t, sj.BreakA)
	assert.Equal(t, &factory.BreakJSON{Start: "12:00", Minutes: 60}, sj.BreakB)

	back, err := f.FromJSON(sj)
	require.NoError(t, err)
	assert.Equal(t, seg, back)
}

func TestParseEmployee(t *testing.T) {
	f := factory.NewSegmentFactory()

	emp, err := f.ParseEmployee(`{"key": "E1", "name": "Ana", "attendance_tracked": true, "employment_start": "2020-05-01", "employment_end": "2024-12-31"}`)
	require.NoError(t, err)
	assert.True(t, emp.AttendanceTracked)
	require.NotNil(t, emp.EmploymentEnd)
	assert.Equal(t, generic.NewDate(2024, time.December, 31), *emp.EmploymentEnd)
	assert.Equal(t, "2024-12-31", f.EmployeeToJSON(emp).EmploymentEnd)

	_, err = f.ParseEmployee(`{"key": "E1", "employment_start": "2024-05-01", "employment_end": "2024-01-01"}`)
	assert.ErrorIs(t, err, generic.ErrInvalidRange)

	_, err = f.ParseEmployee(`{"name": "nobody", "employment_start": "2024-05-01"}`)
	assert.ErrorIs(t, err, generic.ErrInvalidRange)
}
