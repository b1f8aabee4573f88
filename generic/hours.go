package generic

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PAIRING - CheckIn[i] with CheckOut[i]
// =============================================================================

// Interval is one worked span. End is nil when no CheckOut matched.
type Interval struct {
	Start time.Time
	End   *time.Time
}

// PairIntervals zips check-ins and check-outs by index. Both slices must
// be chronological. Extra check-ins become open intervals; extra
// check-outs are ignored.
func PairIntervals(checkIns, checkOuts []Punch) []Interval {
	out := make([]Interval, 0, len(checkIns))
	for i, in := range checkIns {
		iv := Interval{Start: in.Timestamp}
		if i < len(checkOuts) {
			end := checkOuts[i].Timestamp
			iv.End = &end
		}
		out = append(out, iv)
	}
	return out
}

// =============================================================================
// HOURS - Decimal arithmetic
// =============================================================================

const HoursPrecision = 4

var secondsPerHour = decimal.NewFromInt(3600)
var minutesPerHour = decimal.NewFromInt(60)

// ElapsedHours is end-start in hours. Negative spans are reported as zero.
func ElapsedHours(start, end time.Time) decimal.Decimal {
	secs := int64(end.Sub(start) / time.Second)
	if secs <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(secs).Div(secondsPerHour).Round(HoursPrecision)
}

// NetHours subtracts break minutes from elapsed hours, never going below zero.
func NetHours(elapsed decimal.Decimal, breakMinutes int) decimal.Decimal {
	if breakMinutes <= 0 {
		return elapsed
	}
	net := elapsed.Sub(decimal.NewFromInt(int64(breakMinutes)).Div(minutesPerHour)).Round(HoursPrecision)
	if net.IsNegative() {
		return decimal.Zero
	}
	return net
}
