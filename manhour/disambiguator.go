/*
Package manhour runs the attendance pipeline against a store.

PURPOSE:
  The generic package holds the pure algorithms. This package owns every
  side effect: reading punches, writing roles, replacing man-hour records,
  logging, locking and fan-out.

COMPONENTS:
  Recorder:        Validates and appends incoming punches
  SegmentResolver: Store-backed generic.ResolveSegment
  Disambiguator:   generic.AssignRoles for one employee/work day, persisted
  Aggregator:      Pairs roles into ManHourRecords, replaces the day
  Orchestrator:    RunDailyComputation, the scheduler entry point

LOCKING:
  Disambiguator and Aggregator share one KeyedLocker so that an
  employee/day is never re-tagged while it is being aggregated. No lock
  is ever held across two employee/day units.

SEE ALSO:
  - api/scheduler.go: Periodic trigger
  - generic/disambiguate.go: The heuristic itself
*/
package manhour

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/warp/manhour-engine/generic"
)

// Disambiguator assigns and persists CheckIn/CheckOut roles for one
// employee/work day.
type Disambiguator struct {
	Store    generic.TxStore
	Calendar generic.Calendar
	Locks    *KeyedLocker
	Logger   *log.Logger

	now func() time.Time
}

func NewDisambiguator(store generic.TxStore, cal generic.Calendar, locks *KeyedLocker, logger *log.Logger) *Disambiguator {
	if locks == nil {
		locks = NewKeyedLocker()
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Disambiguator{
		Store:    store,
		Calendar: cal,
		Locks:    locks,
		Logger:   logger,
		now:      time.Now,
	}
}

// Disambiguate re-tags every punch of the work day and returns the kept
// punches in chronological order. The punch dropped by the duplicate
// correction is stored as Unknown and not returned.
func (d *Disambiguator) Disambiguate(ctx context.Context, key generic.EmployeeKey, workDate generic.Date) ([]generic.Punch, error) {
	release := d.Locks.Lock(key, workDate)
	defer release()

	from, to := d.Calendar.Window(workDate)
	resolvedAt := d.now().UTC()

	var res generic.Resolution
	err := d.Store.WithTx(ctx, func(tx generic.Store) error {
		punches, err := tx.PunchesInRange(ctx, key, from, to)
		if err != nil {
			return fmt.Errorf("load punches: %w", err)
		}
		if len(punches) == 0 {
			return nil
		}

		res = generic.AssignRoles(punches)

		changed := res.Updates()
		updates := make([]generic.RoleUpdate, len(changed))
		for i, p := range changed {
			updates[i] = generic.RoleUpdate{ID: p.ID, Role: p.Role, ResolvedAt: resolvedAt}
		}
		if err := tx.UpdateRoles(ctx, updates); err != nil {
			return fmt.Errorf("update roles: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, &generic.UnitError{Stage: generic.StageDisambiguate, EmployeeKey: key, Date: workDate, Err: err}
	}

	if res.Discarded != nil {
		d.Logger.Printf("[Disambiguator] %s/%s: odd punch count, discarded duplicate %d at %s",
			key, workDate, res.Discarded.ID, d.Calendar.Local(res.Discarded.Timestamp).Format("15:04:05"))
	}

	for i := range res.Punches {
		res.Punches[i].ResolvedAt = &resolvedAt
	}
	return res.Punches, nil
}
