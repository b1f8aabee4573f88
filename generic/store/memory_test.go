package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/manhour-engine/generic"
	"github.com/warp/manhour-engine/generic/store"
)

var d = generic.NewDate(2024, time.March, 4)

func ts(hour, minute int) time.Time { return d.At(hour, minute, time.UTC) }

func TestMemory_WithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: A stored record
	// WHEN: A transaction deletes it and then fails
	// THEN: The record is still there

	ctx := context.Background()
	m := store.NewMemory()
	end := ts(17, 0)
	require.NoError(t, m.SaveManHours(ctx, []generic.ManHourRecord{{
		ID: "r1", EmployeeKey: "E1", WorkDate: d, Start: ts(8, 0), End: &end, Hours: decimal.NewFromInt(9),
	}}))

	boom := errors.New("boom")
	err := m.WithTx(ctx, func(tx generic.Store) error {
		n, err := tx.DeleteManHours(ctx, "E1", d)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	recs, err := m.ManHours(ctx, "E1", d)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestMemory_PendingAndRoleUpdates(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	require.NoError(t, m.AppendPunches(ctx, []generic.Punch{
		{ID: 2, EmployeeKey: "E1", Timestamp: ts(17, 0), Role: generic.RoleUnknown},
		{ID: 1, EmployeeKey: "E1", Timestamp: ts(8, 0), Role: generic.RoleUnknown},
		{ID: 3, EmployeeKey: "E2", Timestamp: ts(9, 0), Role: generic.RoleCheckIn},
	}))

	pending, err := m.PendingPunches(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, generic.PunchID(1), pending[0].ID)

	now := time.Now()
	require.NoError(t, m.UpdateRoles(ctx, []generic.RoleUpdate{
		{ID: 1, Role: generic.RoleCheckIn, ResolvedAt: now},
		{ID: 2, Role: generic.RoleUnknown, ResolvedAt: now},
	}))

	pending, err = m.PendingPunches(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	ins, err := m.PunchesByRole(ctx, "E1", generic.RoleCheckIn, ts(0, 0), ts(23, 59))
	require.NoError(t, err)
	require.Len(t, ins, 1)
	assert.Equal(t, generic.PunchID(1), ins[0].ID)

	assert.Error(t, m.UpdateRoles(ctx, []generic.RoleUpdate{{ID: 99, Role: generic.RoleCheckIn, ResolvedAt: now}}))
	assert.Error(t, m.AppendPunches(ctx, []generic.Punch{{ID: 1, EmployeeKey: "E1", Timestamp: ts(8, 0)}}))
}

func TestMemory_PunchesInRange_HalfOpen(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	require.NoError(t, m.AppendPunches(ctx, []generic.Punch{
		{ID: 1, EmployeeKey: "E1", Timestamp: ts(5, 0)},
		{ID: 2, EmployeeKey: "E1", Timestamp: ts(10, 0)},
	}))

	got, err := m.PunchesInRange(ctx, "E1", ts(5, 0), ts(10, 0))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, generic.PunchID(1), got[0].ID)
}

func TestMemory_OldestOpen(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	rec, err := m.OldestOpenManHour(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec)

	end := ts(12, 0)
	require.NoError(t, m.SaveManHours(ctx, []generic.ManHourRecord{
		{ID: "closed", EmployeeKey: "E1", WorkDate: d, Start: ts(7, 0), End: &end},
		{ID: "late", EmployeeKey: "E1", WorkDate: d, Start: ts(13, 0)},
		{ID: "early", EmployeeKey: "E2", WorkDate: d, Start: ts(9, 0)},
	}))

	rec, err = m.OldestOpenManHour(ctx)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, generic.RecordID("early"), rec.ID)

	n, err := m.CountOpenManHours(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestMemory_Employees_SortedAndNotFound(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	require.NoError(t, m.SaveEmployee(ctx, generic.Employee{Key: "B"}))
	require.NoError(t, m.SaveEmployee(ctx, generic.Employee{Key: "A"}))

	emps, err := m.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, emps, 2)
	assert.Equal(t, generic.EmployeeKey("A"), emps[0].Key)

	_, err = m.GetEmployee(ctx, "Z")
	assert.ErrorIs(t, err, generic.ErrEmployeeNotFound)
}
