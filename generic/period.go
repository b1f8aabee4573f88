package generic

// =============================================================================
// DATE RANGE - Inclusive span of work days
// =============================================================================

// DateRange is inclusive on both ends.
type DateRange struct {
	From Date
	To   Date
}

// NewDateRange builds a range that always runs forward: an inverted
// pair is swapped rather than rejected.
func NewDateRange(a, b Date) DateRange {
	if a.After(b) {
		a, b = b, a
	}
	return DateRange{From: a, To: b}
}

// Contains returns true if d is within [From, To].
func (r DateRange) Contains(d Date) bool {
	return d.AfterOrEqual(r.From) && d.BeforeOrEqual(r.To)
}

// Days returns every date in the range, oldest first.
func (r DateRange) Days() []Date {
	var days []Date
	for current := r.From; current.BeforeOrEqual(r.To); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

func (r DateRange) Len() int {
	if r.From.After(r.To) {
		return 0
	}
	return DaysBetween(r.From, r.To) + 1
}

func (r DateRange) String() string {
	return "[" + r.From.String() + ", " + r.To.String() + "]"
}
