/*
scheduler.go - Periodic daily computation trigger

PURPOSE:
  Calls RunDailyComputation on a fixed interval so punches collected since
  the last run are disambiguated and their man-hours recomputed without an
  operator pressing anything.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Runs once immediately on Start
  - The range ends on the current anchor date (06:00 rule)
  - A failed run is only logged; the next tick is the retry
  - ErrRunInProgress (a manual run is still going) is logged as a skip

CONFIGURATION:
  - Interval: How often to run (default: 30 minutes)
  - Enabled:  Whether the scheduler is active (default: true)

USAGE:
  scheduler := NewComputationScheduler(orchestrator, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunComputation endpoint (manual trigger)
  - manhour/orchestrator.go: RunDailyComputation
*/
package api

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/warp/manhour-engine/generic"
	"github.com/warp/manhour-engine/manhour"
)

// DefaultInterval is used when Interval is not positive.
const DefaultInterval = 30 * time.Minute

// DailyRunner is the part of manhour.Orchestrator the scheduler drives.
type DailyRunner interface {
	RunDailyComputation(ctx context.Context, date generic.Date) (manhour.RunSummary, error)
}

// ComputationScheduler triggers the daily computation periodically.
type ComputationScheduler struct {
	Runner   DailyRunner
	Calendar generic.Calendar
	Interval time.Duration
	Enabled  bool
	Logger   *log.Logger

	now    func() time.Time
	ticker *time.Ticker
	stop   chan bool
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewComputationScheduler creates a scheduler driving orch.
func NewComputationScheduler(orch *manhour.Orchestrator, logger *log.Logger) *ComputationScheduler {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &ComputationScheduler{
		Runner:   orch,
		Calendar: orch.Calendar,
		Interval: DefaultInterval,
		Enabled:  true,
		Logger:   logger,
		now:      time.Now,
	}
}

// Start begins the scheduler. Calling Start twice without Stop is a no-op.
func (cs *ComputationScheduler) Start() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if !cs.Enabled {
		cs.Logger.Println("[Scheduler] Disabled, not starting")
		return
	}
	if cs.ticker != nil {
		return
	}
	if cs.Interval <= 0 {
		cs.Logger.Printf("[Scheduler] Invalid interval %v, using %v", cs.Interval, DefaultInterval)
		cs.Interval = DefaultInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	cs.cancel = cancel
	cs.stop = make(chan bool)
	cs.ticker = time.NewTicker(cs.Interval)
	cs.wg.Add(1)

	go cs.run(ctx)

	cs.Logger.Printf("[Scheduler] Started with interval: %v, next run at %s", cs.Interval, cs.NextRunTime().Format(time.RFC3339))
}

// Stop stops the scheduler and cancels a run in flight.
func (cs *ComputationScheduler) Stop() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.ticker != nil {
		cs.ticker.Stop()
		close(cs.stop)
		cs.cancel()
		cs.wg.Wait()
		cs.ticker = nil
		cs.Logger.Println("[Scheduler] Stopped")
	}
}

func (cs *ComputationScheduler) run(ctx context.Context) {
	defer cs.wg.Done()

	// Run immediately on start
	cs.runOnce(ctx)

	for {
		select {
		case <-cs.ticker.C:
			cs.runOnce(ctx)
		case <-cs.stop:
			return
		}
	}
}

// RunNow triggers an immediate run (for admin and tests).
func (cs *ComputationScheduler) RunNow(ctx context.Context) (manhour.RunSummary, error) {
	return cs.runOnce(ctx)
}

func (cs *ComputationScheduler) runOnce(ctx context.Context) (manhour.RunSummary, error) {
	date := cs.Calendar.AnchorDate(cs.clock())

	summary, err := cs.Runner.RunDailyComputation(ctx, date)
	switch {
	case errors.Is(err, manhour.ErrRunInProgress):
		cs.Logger.Printf("[Scheduler] Skipped %s: previous run still in progress", date)
	case err != nil:
		cs.Logger.Printf("[Scheduler] Run for %s failed, retrying next tick: %v", date, err)
	case summary.Noop():
		// nothing pending
	default:
		cs.Logger.Printf("[Scheduler] Completed %s: %d pending punches, %d units (%d failed), %d open records",
			date, summary.PendingPunches, summary.UnitsComputed, summary.UnitFailures, summary.OpenRecords)
	}
	return summary, err
}

// NextRunTime returns when the next scheduled run will occur.
func (cs *ComputationScheduler) NextRunTime() time.Time {
	return cs.clock().Add(cs.Interval)
}

func (cs *ComputationScheduler) clock() time.Time {
	if cs.now == nil {
		return time.Now()
	}
	return cs.now()
}
