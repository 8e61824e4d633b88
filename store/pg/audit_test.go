package pg_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/crewlytics/attrition/pkg/hr"
	"github.com/crewlytics/attrition/store/pg"
)

// seedEmployee creates the two dimension rows plus one employee and returns
// the employee id.
func seedEmployee(t *testing.T, store *pg.Store, attrition string) int64 {
	t.Helper()
	ctx := t.Context()

	dept, err := store.CreateDepartment(ctx, "Sales")
	require.NoError(t, err)
	role, err := store.CreateJobRole(ctx, "Sales Executive")
	require.NoError(t, err)

	const id = int64(101)
	require.NoError(t, store.CreateEmployee(ctx, testEmployee(id, attrition, dept.DepartmentID, role.JobRoleID)))
	return id
}

func TestRecordStatus_AppendOnly(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	store := newTestStore(t, clock)
	ctx := t.Context()

	id := seedEmployee(t, store, "No")

	first, err := store.RecordStatus(ctx, id, "No")
	require.NoError(t, err)
	require.Equal(t, id, first.EmployeeID)
	require.Equal(t, "No", first.AttritionStatus)
	require.True(t, first.LogDate.Equal(clock.Now()))

	clock.Advance(time.Hour)
	second, err := store.RecordStatus(ctx, id, "Yes")
	require.NoError(t, err)
	require.Greater(t, second.LogID, first.LogID)
	require.True(t, second.LogDate.After(first.LogDate))

	// The earlier entry is untouched by the append.
	got, err := store.GetLog(ctx, first.LogID)
	require.NoError(t, err)
	require.Equal(t, "No", got.AttritionStatus)
	require.True(t, got.LogDate.Equal(first.LogDate))

	// Entries are not FK-bound to employees, so the trail survives an
	// employee delete and can be written for ids the fact table no
	// longer holds.
	require.NoError(t, store.DeleteEmployee(ctx, id))
	_, err = store.RecordStatus(ctx, id, "Yes")
	require.NoError(t, err)
}

func TestListLogs_FilterAndOrder(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	store := newTestStore(t, clock)
	ctx := t.Context()

	dept, err := store.CreateDepartment(ctx, "Sales")
	require.NoError(t, err)
	role, err := store.CreateJobRole(ctx, "Sales Executive")
	require.NoError(t, err)
	require.NoError(t, store.CreateEmployee(ctx, testEmployee(1, "No", dept.DepartmentID, role.JobRoleID)))
	require.NoError(t, store.CreateEmployee(ctx, testEmployee(2, "No", dept.DepartmentID, role.JobRoleID)))

	for i, status := range []string{"No", "Yes", "No"} {
		target := int64(1)
		if i == 1 {
			target = 2
		}
		_, err := store.RecordStatus(ctx, target, status)
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}

	all, err := store.ListLogs(ctx, pg.LogFilter{}, 100, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	require.Equal(t, "No", all[0].AttritionStatus)
	require.Equal(t, int64(1), all[0].EmployeeID)
	require.True(t, all[0].LogDate.After(all[1].LogDate))

	empID := int64(2)
	filtered, err := store.ListLogs(ctx, pg.LogFilter{EmployeeID: &empID}, 100, 0)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, "Yes", filtered[0].AttritionStatus)

	paged, err := store.ListLogs(ctx, pg.LogFilter{}, 1, 1)
	require.NoError(t, err)
	require.Len(t, paged, 1)
	require.Equal(t, all[1].LogID, paged[0].LogID)
}

func TestStatusHistory_StreamsAcrossPages(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	store := newTestStore(t, clock)
	ctx := t.Context()

	id := seedEmployee(t, store, "No")

	// More entries than one keyset page holds.
	const total = 250
	for i := 0; i < total; i++ {
		status := "No"
		if i%2 == 1 {
			status = "Yes"
		}
		_, err := store.RecordStatus(ctx, id, status)
		require.NoError(t, err)
		clock.Advance(time.Second)
	}

	var (
		count    int
		lastDate time.Time
	)
	for entry, err := range store.StatusHistory(ctx, id) {
		require.NoError(t, err)
		require.Equal(t, id, entry.EmployeeID)
		if count > 0 {
			require.True(t, entry.LogDate.Before(lastDate),
				fmt.Sprintf("entry %d out of order", count))
		}
		lastDate = entry.LogDate
		count++
	}
	require.Equal(t, total, count)

	// Breaking out early stops the scan cleanly.
	count = 0
	for _, err := range store.StatusHistory(ctx, id) {
		require.NoError(t, err)
		count++
		if count == 3 {
			break
		}
	}
	require.Equal(t, 3, count)

	// The sequence restarts from the top on every range.
	count = 0
	for _, err := range store.StatusHistory(ctx, id) {
		require.NoError(t, err)
		count++
	}
	require.Equal(t, total, count)
}

func TestStatusHistory_TimestampTieBreak(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	store := newTestStore(t, clock)
	ctx := t.Context()

	id := seedEmployee(t, store, "No")

	// Same timestamp for every entry; ordering falls back to log_id.
	var ids []int64
	for _, status := range []string{"No", "Yes", "No", "Yes"} {
		entry, err := store.RecordStatus(ctx, id, status)
		require.NoError(t, err)
		ids = append(ids, entry.LogID)
	}

	var got []int64
	for entry, err := range store.StatusHistory(ctx, id) {
		require.NoError(t, err)
		got = append(got, entry.LogID)
	}
	require.Equal(t, []int64{ids[3], ids[2], ids[1], ids[0]}, got)
}

func TestDeleteLog(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := t.Context()

	id := seedEmployee(t, store, "No")
	entry, err := store.RecordStatus(ctx, id, "Yes")
	require.NoError(t, err)

	require.NoError(t, store.DeleteLog(ctx, entry.LogID))

	_, err = store.GetLog(ctx, entry.LogID)
	require.ErrorIs(t, err, hr.ErrNotFound)
	require.ErrorIs(t, store.DeleteLog(ctx, entry.LogID), hr.ErrNotFound)
}
