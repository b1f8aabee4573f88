package manhour

import (
	"context"
	"fmt"

	"github.com/warp/manhour-engine/generic"
)

// SegmentResolver looks up the shift segment in force on a date.
type SegmentResolver struct {
	Segments generic.SegmentStore
}

func NewSegmentResolver(segments generic.SegmentStore) *SegmentResolver {
	return &SegmentResolver{Segments: segments}
}

// Resolve returns a *generic.SegmentNotFoundError (errors.Is
// generic.ErrSegmentNotFound) when no segment is effective on date.
func (r *SegmentResolver) Resolve(ctx context.Context, key generic.EmployeeKey, date generic.Date) (generic.ShiftSegment, error) {
	segments, err := r.Segments.SegmentsFor(ctx, key)
	if err != nil {
		return generic.ShiftSegment{}, fmt.Errorf("load segments for %s: %w", key, err)
	}
	seg, ok := generic.ResolveSegment(segments, date)
	if !ok {
		return generic.ShiftSegment{}, &generic.SegmentNotFoundError{EmployeeKey: key, Date: date}
	}
	return seg, nil
}
