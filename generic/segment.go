/*
segment.go - Effective-dated shift segment resolution

PURPOSE:
  An employee accumulates shift segments over time. Segments are never
  edited: a schedule change appends a new segment with a later
  EffectiveFrom. Recomputing an old day must therefore pick the segment
  that was in force on that day, not the newest one.

RULE:
  Among segments with EffectiveFrom <= date, the one with the greatest
  EffectiveFrom wins. If two share the same EffectiveFrom, the one
  appended last wins (it is the correction).

EXAMPLE:
  segments effective 2024-01-01 and 2024-06-01
    ResolveSegment(segs, 2024-03-01) -> 2024-01-01 segment
    ResolveSegment(segs, 2024-07-01) -> 2024-06-01 segment
    ResolveSegment(segs, 2023-12-31) -> not found

SEE ALSO:
  - breaks.go: Consumes the resolved segment
  - manhour/resolver.go: Store-backed wrapper
*/
package generic

// ResolveSegment picks the segment effective on date. Segments must be
// in append order; the slice is not modified.
func ResolveSegment(segments []ShiftSegment, date Date) (ShiftSegment, bool) {
	var (
		best  ShiftSegment
		found bool
	)
	for _, s := range segments {
		if s.EffectiveFrom.After(date) {
			continue
		}
		if !found || s.EffectiveFrom.AfterOrEqual(best.EffectiveFrom) {
			best = s
			found = true
		}
	}
	return best, found
}
