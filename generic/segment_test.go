package generic_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/manhour-engine/generic"
)

func TestResolveSegment_EffectiveDating(t *testing.T) {
	// GIVEN: Segments effective 2024-01-01 and 2024-06-01, appended out of order
	// WHEN: Resolving various dates
	// THEN: The latest segment not after the date wins

	segs := []generic.ShiftSegment{
		{ID: "june", EffectiveFrom: date(2024, time.June, 1)},
		{ID: "jan", EffectiveFrom: date(2024, time.January, 1)},
	}

	tests := []struct {
		on     generic.Date
		want   generic.SegmentID
		exists bool
	}{
		{date(2024, time.March, 1), "jan", true},
		{date(2024, time.July, 1), "june", true},
		{date(2024, time.June, 1), "june", true},
		{date(2024, time.January, 1), "jan", true},
		{date(2023, time.December, 31), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.on.String(), func(t *testing.T) {
			got, ok := generic.ResolveSegment(segs, tt.on)
			assert.Equal(t, tt.exists, ok)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}

func TestResolveSegment_SameDay_LastAppendedWins(t *testing.T) {
	segs := []generic.ShiftSegment{
		{ID: "first", EffectiveFrom: date(2024, time.January, 1)},
		{ID: "correction", EffectiveFrom: date(2024, time.January, 1)},
	}
	got, ok := generic.ResolveSegment(segs, date(2024, time.February, 1))
	assert.True(t, ok)
	assert.Equal(t, generic.SegmentID("correction"), got.ID)
}

func TestResolveSegment_Empty(t *testing.T) {
	_, ok := generic.ResolveSegment(nil, date(2024, time.February, 1))
	assert.False(t, ok)
}
