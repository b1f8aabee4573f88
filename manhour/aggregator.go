package manhour

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/manhour-engine/generic"
)

// recordNamespace seeds the UUIDv5 record IDs. Changing it changes every ID.
var recordNamespace = uuid.MustParse("6f1c2b8e-3d0a-4c55-9a61-0e7b5d2f4a93")

// RecordID derives the ID of the index-th record of an employee/work day.
func RecordID(key generic.EmployeeKey, date generic.Date, index int) generic.RecordID {
	name := string(key) + "|" + date.String() + "|" + strconv.Itoa(index)
	return generic.RecordID(uuid.NewSHA1(recordNamespace, []byte(name)).String())
}

// Aggregator turns disambiguated punches into ManHourRecords.
type Aggregator struct {
	Store        generic.TxStore
	Calendar     generic.Calendar
	Resolver     *SegmentResolver
	DeductBreaks bool
	Locks        *KeyedLocker
	Logger       *log.Logger
}

func NewAggregator(store generic.TxStore, cal generic.Calendar, locks *KeyedLocker, logger *log.Logger) *Aggregator {
	if locks == nil {
		locks = NewKeyedLocker()
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Aggregator{
		Store:        store,
		Calendar:     cal,
		Resolver:     NewSegmentResolver(store),
		DeductBreaks: true,
		Locks:        locks,
		Logger:       logger,
	}
}

// ComputeForEmployeeDay replaces every record of the employee/work day
// with a fresh set built from the current CheckIn/CheckOut roles.
// Calling it twice on unchanged punches yields identical records.
func (a *Aggregator) ComputeForEmployeeDay(ctx context.Context, key generic.EmployeeKey, date generic.Date) ([]generic.ManHourRecord, error) {
	release := a.Locks.Lock(key, date)
	defer release()

	var segment *generic.ShiftSegment
	seg, err := a.Resolver.Resolve(ctx, key, date)
	switch {
	case err == nil:
		segment = &seg
	case errors.Is(err, generic.ErrSegmentNotFound):
		a.Logger.Printf("[Aggregator] warning: %v, no break deduction", err)
	default:
		return nil, &generic.UnitError{Stage: generic.StageAggregate, EmployeeKey: key, Date: date, Err: err}
	}

	from, to := a.Calendar.Window(date)

	var records []generic.ManHourRecord
	err = a.Store.WithTx(ctx, func(tx generic.Store) error {
		if _, err := tx.DeleteManHours(ctx, key, date); err != nil {
			return fmt.Errorf("delete records: %w", err)
		}

		checkIns, err := tx.PunchesByRole(ctx, key, generic.RoleCheckIn, from, to)
		if err != nil {
			return fmt.Errorf("load check-ins: %w", err)
		}
		checkOuts, err := tx.PunchesByRole(ctx, key, generic.RoleCheckOut, from, to)
		if err != nil {
			return fmt.Errorf("load check-outs: %w", err)
		}

		records = a.buildRecords(key, date, segment, generic.PairIntervals(checkIns, checkOuts))
		if len(records) == 0 {
			return nil
		}
		if err := tx.SaveManHours(ctx, records); err != nil {
			return fmt.Errorf("save records: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, &generic.UnitError{Stage: generic.StageAggregate, EmployeeKey: key, Date: date, Err: err}
	}

	for _, r := range records {
		if r.IsOpen() {
			a.Logger.Printf("[Aggregator] warning: %s/%s has no check-out for %s, record left open",
				key, date, r.Start.Format("15:04:05"))
		}
	}
	return records, nil
}

func (a *Aggregator) buildRecords(key generic.EmployeeKey, date generic.Date, segment *generic.ShiftSegment, intervals []generic.Interval) []generic.ManHourRecord {
	records := make([]generic.ManHourRecord, 0, len(intervals))
	for i, iv := range intervals {
		rec := generic.ManHourRecord{
			ID:          RecordID(key, date, i),
			EmployeeKey: key,
			WorkDate:    date,
			Start:       a.Calendar.Local(iv.Start),
			Hours:       decimal.Zero,
		}
		if iv.End != nil {
			end := a.Calendar.Local(*iv.End)
			rec.End = &end
			elapsed := generic.ElapsedHours(rec.Start, end)
			if a.DeductBreaks {
				rec.BreakMinutes = generic.ComputeBreakMinutes(segment, rec.Start, end)
				rec.Hours = generic.NetHours(elapsed, rec.BreakMinutes)
			} else {
				rec.Hours = elapsed
			}
		}
		records = append(records, rec)
	}
	return records
}

// SelectEligibleEmployees returns the tracked employees employed on date,
// ordered by key.
func (a *Aggregator) SelectEligibleEmployees(ctx context.Context, date generic.Date) ([]generic.EmployeeKey, error) {
	employees, err := a.Store.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	var keys []generic.EmployeeKey
	for _, e := range employees {
		if e.EligibleOn(date) {
			keys = append(keys, e.Key)
		}
	}
	return keys, nil
}
