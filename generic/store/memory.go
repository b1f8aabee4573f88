// Package store provides Store implementations.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/warp/manhour-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	state     memoryState
	failSaves error // injected failure for SaveManHours, test hook
}

type dayKey struct {
	EmployeeKey generic.EmployeeKey
	Date        generic.Date
}

type memoryState struct {
	punches   map[generic.PunchID]generic.Punch
	segments  map[generic.EmployeeKey][]generic.ShiftSegment
	employees map[generic.EmployeeKey]generic.Employee
	records   map[dayKey][]generic.ManHourRecord
}

func newMemoryState() memoryState {
	return memoryState{
		punches:   make(map[generic.PunchID]generic.Punch),
		segments:  make(map[generic.EmployeeKey][]generic.ShiftSegment),
		employees: make(map[generic.EmployeeKey]generic.Employee),
		records:   make(map[dayKey][]generic.ManHourRecord),
	}
}

func NewMemory() *Memory {
	return &Memory{state: newMemoryState()}
}

// FailSaves makes every later SaveManHours return err. Pass nil to reset.
func (m *Memory) FailSaves(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSaves = err
}

// -----------------------------------------------------------------------------
// Punches
// -----------------------------------------------------------------------------

func (m *Memory) AppendPunches(_ context.Context, punches []generic.Punch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.appendPunches(punches)
}

func (s *memoryState) appendPunches(punches []generic.Punch) error {
	for _, p := range punches {
		if _, ok := s.punches[p.ID]; ok {
			return fmt.Errorf("append punch %d: duplicate id", p.ID)
		}
	}
	for _, p := range punches {
		s.punches[p.ID] = p
	}
	return nil
}

func (m *Memory) PunchesInRange(_ context.Context, key generic.EmployeeKey, from, to time.Time) ([]generic.Punch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.punchesInRange(key, nil, from, to), nil
}

func (m *Memory) PunchesByRole(_ context.Context, key generic.EmployeeKey, role generic.Role, from, to time.Time) ([]generic.Punch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.punchesInRange(key, &role, from, to), nil
}

func (s *memoryState) punchesInRange(key generic.EmployeeKey, role *generic.Role, from, to time.Time) []generic.Punch {
	var out []generic.Punch
	for _, p := range s.punches {
		if p.EmployeeKey != key {
			continue
		}
		if p.Timestamp.Before(from) || !p.Timestamp.Before(to) {
			continue
		}
		if role != nil && p.Role != *role {
			continue
		}
		out = append(out, p)
	}
	return generic.SortPunches(out)
}

func (m *Memory) PendingPunches(_ context.Context) ([]generic.Punch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.pendingPunches(), nil
}

func (s *memoryState) pendingPunches() []generic.Punch {
	var out []generic.Punch
	for _, p := range s.punches {
		if p.Pending() {
			out = append(out, p)
		}
	}
	return generic.SortPunches(out)
}

func (m *Memory) UpdateRoles(_ context.Context, updates []generic.RoleUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.updateRoles(updates)
}

func (s *memoryState) updateRoles(updates []generic.RoleUpdate) error {
	for _, u := range updates {
		if _, ok := s.punches[u.ID]; !ok {
			return fmt.Errorf("update role: punch %d not found", u.ID)
		}
	}
	for _, u := range updates {
		p := s.punches[u.ID]
		p.Role = u.Role
		at := u.ResolvedAt
		p.ResolvedAt = &at
		s.punches[u.ID] = p
	}
	return nil
}

// -----------------------------------------------------------------------------
// Segments + directory
// -----------------------------------------------------------------------------

func (m *Memory) AppendSegment(_ context.Context, seg generic.ShiftSegment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.segments[seg.EmployeeKey] = append(m.state.segments[seg.EmployeeKey], seg)
	return nil
}

func (m *Memory) SegmentsFor(_ context.Context, key generic.EmployeeKey) ([]generic.ShiftSegment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]generic.ShiftSegment(nil), m.state.segments[key]...), nil
}

func (m *Memory) SaveEmployee(_ context.Context, emp generic.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.employees[emp.Key] = emp
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, key generic.EmployeeKey) (generic.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.state.employees[key]
	if !ok {
		return generic.Employee{}, generic.ErrEmployeeNotFound
	}
	return emp, nil
}

func (m *Memory) ListEmployees(_ context.Context) ([]generic.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.listEmployees(), nil
}

func (s *memoryState) listEmployees() []generic.Employee {
	out := make([]generic.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// -----------------------------------------------------------------------------
// Man-hour records
// -----------------------------------------------------------------------------

func (m *Memory) DeleteManHours(_ context.Context, key generic.EmployeeKey, date generic.Date) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.deleteManHours(key, date), nil
}

func (s *memoryState) deleteManHours(key generic.EmployeeKey, date generic.Date) int64 {
	k := dayKey{EmployeeKey: key, Date: date}
	n := int64(len(s.records[k]))
	delete(s.records, k)
	return n
}

func (m *Memory) SaveManHours(_ context.Context, records []generic.ManHourRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSaves != nil {
		return m.failSaves
	}
	m.state.saveManHours(records)
	return nil
}

func (s *memoryState) saveManHours(records []generic.ManHourRecord) {
	for _, r := range records {
		k := dayKey{EmployeeKey: r.EmployeeKey, Date: r.WorkDate}
		s.records[k] = append(s.records[k], r)
		sort.SliceStable(s.records[k], func(i, j int) bool {
			return s.records[k][i].Start.Before(s.records[k][j].Start)
		})
	}
}

func (m *Memory) ManHours(_ context.Context, key generic.EmployeeKey, date generic.Date) ([]generic.ManHourRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]generic.ManHourRecord(nil), m.state.records[dayKey{EmployeeKey: key, Date: date}]...), nil
}

func (m *Memory) OldestOpenManHour(_ context.Context) (*generic.ManHourRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.oldestOpen(), nil
}

func (m *Memory) CountOpenManHours(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.countOpen(), nil
}

func (s *memoryState) oldestOpen() *generic.ManHourRecord {
	var oldest *generic.ManHourRecord
	for _, recs := range s.records {
		for i := range recs {
			r := recs[i]
			if r.IsOpen() && (oldest == nil || r.Start.Before(oldest.Start)) {
				oldest = &r
			}
		}
	}
	return oldest
}

func (s *memoryState) countOpen() int64 {
	var n int64
	for _, recs := range s.records {
		for _, r := range recs {
			if r.IsOpen() {
				n++
			}
		}
	}
	return n
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(ctx context.Context, fn func(generic.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()

	if err := fn(&txMemoryView{parent: m}); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

func (s memoryState) clone() memoryState {
	c := newMemoryState()
	for k, v := range s.punches {
		c.punches[k] = v
	}
	for k, v := range s.segments {
		c.segments[k] = append([]generic.ShiftSegment(nil), v...)
	}
	for k, v := range s.employees {
		c.employees[k] = v
	}
	for k, v := range s.records {
		c.records[k] = append([]generic.ManHourRecord(nil), v...)
	}
	return c
}

// txMemoryView runs with the parent's lock already held.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) AppendPunches(_ context.Context, punches []generic.Punch) error {
	return tv.parent.state.appendPunches(punches)
}

func (tv *txMemoryView) PunchesInRange(_ context.Context, key generic.EmployeeKey, from, to time.Time) ([]generic.Punch, error) {
	return tv.parent.state.punchesInRange(key, nil, from, to), nil
}

func (tv *txMemoryView) PunchesByRole(_ context.Context, key generic.EmployeeKey, role generic.Role, from, to time.Time) ([]generic.Punch, error) {
	return tv.parent.state.punchesInRange(key, &role, from, to), nil
}

func (tv *txMemoryView) PendingPunches(_ context.Context) ([]generic.Punch, error) {
	return tv.parent.state.pendingPunches(), nil
}

func (tv *txMemoryView) UpdateRoles(_ context.Context, updates []generic.RoleUpdate) error {
	return tv.parent.state.updateRoles(updates)
}

func (tv *txMemoryView) AppendSegment(_ context.Context, seg generic.ShiftSegment) error {
	s := &tv.parent.state
	s.segments[seg.EmployeeKey] = append(s.segments[seg.EmployeeKey], seg)
	return nil
}

func (tv *txMemoryView) SegmentsFor(_ context.Context, key generic.EmployeeKey) ([]generic.ShiftSegment, error) {
	return append([]generic.ShiftSegment(nil), tv.parent.state.segments[key]...), nil
}

func (tv *txMemoryView) SaveEmployee(_ context.Context, emp generic.Employee) error {
	tv.parent.state.employees[emp.Key] = emp
	return nil
}

func (tv *txMemoryView) GetEmployee(_ context.Context, key generic.EmployeeKey) (generic.Employee, error) {
	emp, ok := tv.parent.state.employees[key]
	if !ok {
		return generic.Employee{}, generic.ErrEmployeeNotFound
	}
	return emp, nil
}

func (tv *txMemoryView) ListEmployees(_ context.Context) ([]generic.Employee, error) {
	return tv.parent.state.listEmployees(), nil
}

func (tv *txMemoryView) DeleteManHours(_ context.Context, key generic.EmployeeKey, date generic.Date) (int64, error) {
	return tv.parent.state.deleteManHours(key, date), nil
}

func (tv *txMemoryView) SaveManHours(_ context.Context, records []generic.ManHourRecord) error {
	if tv.parent.failSaves != nil {
		return tv.parent.failSaves
	}
	tv.parent.state.saveManHours(records)
	return nil
}

func (tv *txMemoryView) ManHours(_ context.Context, key generic.EmployeeKey, date generic.Date) ([]generic.ManHourRecord, error) {
	return append([]generic.ManHourRecord(nil), tv.parent.state.records[dayKey{EmployeeKey: key, Date: date}]...), nil
}

func (tv *txMemoryView) OldestOpenManHour(_ context.Context) (*generic.ManHourRecord, error) {
	return tv.parent.state.oldestOpen(), nil
}

func (tv *txMemoryView) CountOpenManHours(_ context.Context) (int64, error) {
	return tv.parent.state.countOpen(), nil
}

var (
	_ generic.TxStore = (*Memory)(nil)
	_ generic.Store   = (*txMemoryView)(nil)
)
