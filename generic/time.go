package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Civil calendar date (no time, no zone)
// =============================================================================

type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: bad date %q", ErrInvalidRange, s)
	}
	return DateOf(t), nil
}

// At returns the wall-clock instant on this date in loc.
func (d Date) At(hour, minute int, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, loc)
}

// AtOffset is At for an offset from local midnight, e.g. 5h.
func (d Date) AtOffset(offset time.Duration, loc *time.Location) time.Time {
	h := int(offset / time.Hour)
	m := int((offset % time.Hour) / time.Minute)
	return d.At(h, m, loc)
}

func (d Date) midnight() time.Time { return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC) }

// Comparison
func (d Date) Compare(other Date) int    { return d.midnight().Compare(other.midnight()) }
func (d Date) Before(other Date) bool    { return d.Compare(other) < 0 }
func (d Date) After(other Date) bool     { return d.Compare(other) > 0 }
func (d Date) Equal(other Date) bool     { return d == other }
func (d Date) BeforeOrEqual(o Date) bool { return d.Compare(o) <= 0 }
func (d Date) AfterOrEqual(o Date) bool  { return d.Compare(o) >= 0 }
func (d Date) IsZero() bool              { return d == Date{} }

// Arithmetic
func (d Date) AddDays(n int) Date { return DateOf(d.midnight().AddDate(0, 0, n)) }

func (d Date) String() string { return d.midnight().Format("2006-01-02") }

func DaysBetween(from, to Date) int { return int(to.midnight().Sub(from.midnight()).Hours() / 24) }

// =============================================================================
// CALENDAR - Work-day boundary arithmetic
// =============================================================================

const (
	DefaultDayBoundary = 5 * time.Hour // Work day runs 05:00 -> 05:00
	DefaultRangeAnchor = 6 * time.Hour // Orchestrator floors its recompute range at 06:00
)

// Calendar maps instants to work days. A work day D covers
// [D at DayBoundary, D+1 at DayBoundary) in Location.
type Calendar struct {
	Location    *time.Location
	DayBoundary time.Duration
	RangeAnchor time.Duration
}

func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.Local
	}
	return Calendar{Location: loc, DayBoundary: DefaultDayBoundary, RangeAnchor: DefaultRangeAnchor}
}

func (c Calendar) loc() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// Window returns [start, end) of work day d.
func (c Calendar) Window(d Date) (start, end time.Time) {
	return d.AtOffset(c.DayBoundary, c.loc()), d.AddDays(1).AtOffset(c.DayBoundary, c.loc())
}

// WorkDayOf returns the work day t belongs to. 04:59 belongs to the
// previous day, 05:00 to the current one.
func (c Calendar) WorkDayOf(t time.Time) Date {
	return floorDate(t.In(c.loc()), c.DayBoundary)
}

// AnchorDate floors t to a date using the RangeAnchor instead of the
// work-day boundary.
func (c Calendar) AnchorDate(t time.Time) Date {
	return floorDate(t.In(c.loc()), c.RangeAnchor)
}

// Local converts t to the calendar's zone.
func (c Calendar) Local(t time.Time) time.Time { return t.In(c.loc()) }

func floorDate(local time.Time, offset time.Duration) Date {
	d := DateOf(local)
	if local.Before(d.AtOffset(offset, local.Location())) {
		return d.AddDays(-1)
	}
	return d
}
