package manhour

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/warp/manhour-engine/generic"
)

// ErrRunInProgress is returned when RunDailyComputation is called while
// another invocation is still running.
var ErrRunInProgress = errors.New("daily computation already running")

const DefaultWorkers = 4

// RunSummary describes one RunDailyComputation invocation.
type RunSummary struct {
	PendingPunches         int
	DaysDisambiguated      int
	DisambiguationFailures int
	Range                  *generic.DateRange // nil when nothing was pending
	UnitsComputed          int
	UnitFailures           int
	OpenRecords            int64
}

// Noop is true when the run found nothing to do.
func (s RunSummary) Noop() bool { return s.PendingPunches == 0 }

// Orchestrator drives the daily pipeline: disambiguate every pending
// employee/day, then recompute man-hours over the touched date range.
type Orchestrator struct {
	Store         generic.TxStore
	Calendar      generic.Calendar
	Disambiguator *Disambiguator
	Aggregator    *Aggregator
	Workers       int
	Logger        *log.Logger

	running sync.Mutex
}

// NewOrchestrator wires a Disambiguator and an Aggregator that share one
// KeyedLocker.
func NewOrchestrator(store generic.TxStore, cal generic.Calendar, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	locks := NewKeyedLocker()
	return &Orchestrator{
		Store:         store,
		Calendar:      cal,
		Disambiguator: NewDisambiguator(store, cal, locks, logger),
		Aggregator:    NewAggregator(store, cal, locks, logger),
		Workers:       DefaultWorkers,
		Logger:        logger,
	}
}

type unit struct {
	Key  generic.EmployeeKey
	Date generic.Date
}

// RunDailyComputation resolves every pending punch and recomputes
// man-hours from the earliest touched day up to date. Failures of a single
// employee/day are logged and counted; only invocation-level failures
// (pending query, directory lookup) are returned.
func (o *Orchestrator) RunDailyComputation(ctx context.Context, date generic.Date) (RunSummary, error) {
	if !o.running.TryLock() {
		return RunSummary{}, ErrRunInProgress
	}
	defer o.running.Unlock()

	var summary RunSummary
	started := time.Now()

	pending, err := o.Store.PendingPunches(ctx)
	if err != nil {
		return summary, fmt.Errorf("load pending punches: %w", err)
	}
	summary.PendingPunches = len(pending)
	if len(pending) == 0 {
		o.Logger.Printf("[Orchestrator] nothing pending, skipping run for %s", date)
		return summary, nil
	}

	// Phase 1: disambiguate each pending employee/work day.
	days, earliest := o.pendingDays(pending)
	var failed atomic.Int64
	runPool(ctx, o.Workers, days, func(ctx context.Context, u unit) {
		if _, err := o.Disambiguator.Disambiguate(ctx, u.Key, u.Date); err != nil {
			failed.Add(1)
			o.Logger.Printf("[Orchestrator] %v", err)
		}
	})
	summary.DaysDisambiguated = len(days) - int(failed.Load())
	summary.DisambiguationFailures = int(failed.Load())

	// Phase 2: recompute every eligible employee over the touched range.
	// The range must cover every day phase 1 touched, even when the
	// anchor hour is configured earlier than the day boundary.
	from := o.Calendar.AnchorDate(earliest)
	if wd := o.Calendar.WorkDayOf(earliest); wd.Before(from) {
		from = wd
	}
	rng := generic.NewDateRange(from, date)
	summary.Range = &rng

	units, err := o.eligibleUnits(ctx, rng)
	if err != nil {
		return summary, err
	}

	failed.Store(0)
	runPool(ctx, o.Workers, units, func(ctx context.Context, u unit) {
		if _, err := o.Aggregator.ComputeForEmployeeDay(ctx, u.Key, u.Date); err != nil {
			failed.Add(1)
			o.Logger.Printf("[Orchestrator] %v", err)
		}
	})
	summary.UnitFailures = int(failed.Load())
	summary.UnitsComputed = len(units) - summary.UnitFailures

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	if n, err := o.Store.CountOpenManHours(ctx); err != nil {
		o.Logger.Printf("[Orchestrator] count open records: %v", err)
	} else {
		summary.OpenRecords = n
	}

	o.Logger.Printf("[Orchestrator] run %s: %d pending, %d days disambiguated (%d failed), %d units computed (%d failed), %d open, took %s",
		rng, summary.PendingPunches, summary.DaysDisambiguated, summary.DisambiguationFailures,
		summary.UnitsComputed, summary.UnitFailures, summary.OpenRecords, time.Since(started).Round(time.Millisecond))
	return summary, nil
}

// pendingDays groups punches by employee and work day and returns the
// earliest timestamp seen.
func (o *Orchestrator) pendingDays(pending []generic.Punch) ([]unit, time.Time) {
	seen := make(map[unit]bool)
	var days []unit
	earliest := pending[0].Timestamp
	for _, p := range pending {
		if p.Timestamp.Before(earliest) {
			earliest = p.Timestamp
		}
		u := unit{Key: p.EmployeeKey, Date: o.Calendar.WorkDayOf(p.Timestamp)}
		if !seen[u] {
			seen[u] = true
			days = append(days, u)
		}
	}
	sortUnits(days)
	return days, earliest
}

func (o *Orchestrator) eligibleUnits(ctx context.Context, rng generic.DateRange) ([]unit, error) {
	var units []unit
	for _, d := range rng.Days() {
		keys, err := o.Aggregator.SelectEligibleEmployees(ctx, d)
		if err != nil {
			return nil, fmt.Errorf("select eligible employees for %s: %w", d, err)
		}
		for _, k := range keys {
			units = append(units, unit{Key: k, Date: d})
		}
	}
	return units, nil
}

func sortUnits(units []unit) {
	sort.Slice(units, func(i, j int) bool {
		if c := units[i].Date.Compare(units[j].Date); c != 0 {
			return c < 0
		}
		return units[i].Key < units[j].Key
	})
}

// FindIncompleteRecords returns the oldest record with no check-out, or
// nil when every record is closed.
func (o *Orchestrator) FindIncompleteRecords(ctx context.Context) (*generic.ManHourRecord, error) {
	rec, err := o.Store.OldestOpenManHour(ctx)
	if err != nil {
		return nil, fmt.Errorf("find incomplete records: %w", err)
	}
	return rec, nil
}
