/*
breaks.go - Scheduled break deduction

PURPOSE:
  Computes how many minutes of configured break fall inside a worked
  interval. The result is subtracted from elapsed time when the
  Aggregator is configured to deduct breaks.

CONTAINMENT RULE:
  A break window is credited in full only if the interval contains it
  completely:

    intervalStart <= windowStart AND intervalEnd >= windowStart + duration

  Partial overlap credits nothing. Leaving one minute before the end of
  the lunch window means the lunch is not deducted.

ANCHORING:
  Windows are anchored to the calendar date of intervalStart, in
  intervalStart's location. For segments with SpansMidnight set, a window
  whose anchored start falls before intervalStart is moved to the next
  calendar day (a 02:00 break during a 22:00-06:00 shift).

FLEXIBLE SEGMENTS:
  A flexible shift has no fixed break schedule, so nothing is credited.

SEE ALSO:
  - hours.go: ElapsedHours / NetHours
  - segment.go: ResolveSegment
*/
package generic

import "time"

// ComputeBreakMinutes returns the minutes of scheduled break fully
// contained in [start, end]. A nil segment yields 0.
func ComputeBreakMinutes(seg *ShiftSegment, start, end time.Time) int {
	if seg == nil || seg.IsFlexible || !end.After(start) {
		return 0
	}

	day := DateOf(start)
	total := time.Duration(0)
	for _, w := range seg.Windows() {
		if !w.Configured() {
			continue
		}
		windowStart := day.At(w.Start.Hour, w.Start.Minute, start.Location())
		if seg.SpansMidnight && windowStart.Before(start) {
			windowStart = day.AddDays(1).At(w.Start.Hour, w.Start.Minute, start.Location())
		}
		windowEnd := windowStart.Add(w.Duration)

		if !start.After(windowStart) && !end.Before(windowEnd) {
			total += w.Duration
		}
	}
	return int(total / time.Minute)
}
