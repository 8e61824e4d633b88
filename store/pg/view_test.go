package pg_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crewlytics/attrition/pkg/hr"
	"github.com/crewlytics/attrition/store/pg"
)

// seedReportData loads three departments with known attrition mixes:
// Sales 10 employees / 3 leavers, Research & Development 3 / 1, Human
// Resources 1 / 0. One leaver carries a padded status to verify the report
// trims before counting.
func seedReportData(t *testing.T, store *pg.Store) {
	t.Helper()
	ctx := t.Context()

	role, err := store.CreateJobRole(ctx, "Sales Executive")
	require.NoError(t, err)

	depts := map[string]int32{}
	for _, name := range []string{"Sales", "Research & Development", "Human Resources"} {
		d, err := store.CreateDepartment(ctx, name)
		require.NoError(t, err)
		depts[name] = d.DepartmentID
	}

	id := int64(1)
	add := func(dept, attrition string) {
		t.Helper()
		require.NoError(t, store.CreateEmployee(ctx,
			testEmployee(id, attrition, depts[dept], role.JobRoleID)))
		id++
	}

	for i := 0; i < 10; i++ {
		status := "No"
		switch i {
		case 0:
			status = "Yes "
		case 3, 7:
			status = "Yes"
		}
		add("Sales", status)
	}
	add("Research & Development", "Yes")
	add("Research & Development", "No")
	add("Research & Development", "No")
	add("Human Resources", "No")
}

func TestDepartmentAttritionStats(t *testing.T) {
	store := newTestStore(t, nil)
	seedReportData(t, store)

	stats, err := store.DepartmentAttritionStats(t.Context(), nil)
	require.NoError(t, err)
	require.Equal(t, []hr.DepartmentAttritionStats{
		{DepartmentName: "Research & Development", TotalEmployees: 3, AttritionCount: 1, AttritionRate: 33.33},
		{DepartmentName: "Sales", TotalEmployees: 10, AttritionCount: 3, AttritionRate: 30},
		{DepartmentName: "Human Resources", TotalEmployees: 1, AttritionCount: 0, AttritionRate: 0},
	}, stats)
}

func TestDepartmentAttritionStats_SingleDepartment(t *testing.T) {
	store := newTestStore(t, nil)
	seedReportData(t, store)
	ctx := t.Context()

	name := "Sales"
	stats, err := store.DepartmentAttritionStats(ctx, &name)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	require.Equal(t, int64(10), stats[0].TotalEmployees)
	require.Equal(t, int64(3), stats[0].AttritionCount)
	require.Equal(t, 30.0, stats[0].AttritionRate)

	// Unknown departments yield an empty report, not an error.
	name = "Marketing"
	stats, err = store.DepartmentAttritionStats(ctx, &name)
	require.NoError(t, err)
	require.Empty(t, stats)
}

func TestDepartmentAttritionStats_SkipsEmptyDepartments(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := t.Context()

	_, err := store.CreateDepartment(ctx, "Sales")
	require.NoError(t, err)

	stats, err := store.DepartmentAttritionStats(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, stats)
}

func TestDepartmentAttritionStats_RateTieBreak(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := t.Context()

	role, err := store.CreateJobRole(ctx, "Sales Executive")
	require.NoError(t, err)

	// Two departments with identical rates keep insertion order.
	id := int64(1)
	for _, name := range []string{"Beta", "Alpha"} {
		d, err := store.CreateDepartment(ctx, name)
		require.NoError(t, err)
		require.NoError(t, store.CreateEmployee(ctx, testEmployee(id, "Yes", d.DepartmentID, role.JobRoleID)))
		id++
		require.NoError(t, store.CreateEmployee(ctx, testEmployee(id, "No", d.DepartmentID, role.JobRoleID)))
		id++
	}

	stats, err := store.DepartmentAttritionStats(ctx, nil)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	require.Equal(t, "Beta", stats[0].DepartmentName)
	require.Equal(t, "Alpha", stats[1].DepartmentName)
}

func TestUpdateEmployeeAttrition(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := t.Context()

	id := seedEmployee(t, store, "No")

	affected, err := store.UpdateEmployeeAttrition(ctx, id, "Yes")
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	emp, err := store.GetEmployee(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Yes", emp.Attrition)

	// Each update appends one audit entry.
	logs, err := store.ListLogs(ctx, pg.LogFilter{EmployeeID: &id}, 100, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, "Yes", logs[0].AttritionStatus)

	affected, err = store.UpdateEmployeeAttrition(ctx, id, "No")
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)
	logs, err = store.ListLogs(ctx, pg.LogFilter{EmployeeID: &id}, 100, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.Equal(t, "No", logs[0].AttritionStatus)

	// A missing employee is zero rows affected, not an error.
	affected, err = store.UpdateEmployeeAttrition(ctx, 9999, "Yes")
	require.NoError(t, err)
	require.Zero(t, affected)
}
