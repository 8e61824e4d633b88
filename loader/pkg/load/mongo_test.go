package load_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	apitesting "github.com/crewlytics/attrition/api/testing"
	"github.com/crewlytics/attrition/loader/pkg/load"
	"github.com/crewlytics/attrition/pkg/hr"
	storemongo "github.com/crewlytics/attrition/store/mongo"
	hrtesting "github.com/crewlytics/attrition/utils/pkg/testing"
)

func TestMongo_LoadsSampleCSV(t *testing.T) {
	log := hrtesting.NewLogger(t)
	store := apitesting.NewTestMongoStore(t, log, testMongo, nil)
	ctx := t.Context()

	result, err := load.Mongo(ctx, load.MongoConfig{
		Logger:  log,
		Store:   store,
		CSVPath: sampleCSV,
	})
	require.NoError(t, err)
	requireSampleResult(t, result)

	// The vocabulary matches the relational backend's, derived over the
	// same trimmed-name dedup key.
	depts, err := store.ListDepartments(ctx, 100, 0)
	require.NoError(t, err)
	names := make([]string, len(depts))
	for i, d := range depts {
		names[i] = d.DepartmentName
	}
	require.Equal(t, []string{"Sales", "Research & Development", "Human Resources"}, names)

	employees, err := store.ListEmployees(ctx, storemongo.EmployeeFilter{}, 1000, 0)
	require.NoError(t, err)
	require.Len(t, employees, 14)
	// Documents carry trimmed names, not references.
	require.Equal(t, "Sales", employees[1].Department)

	logs, err := store.ListLogs(ctx, storemongo.LogFilter{}, 1000, 0)
	require.NoError(t, err)
	require.Len(t, logs, 14)

	stats, err := store.DepartmentAttritionStats(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, []hr.DepartmentAttritionStats{
		{DepartmentName: "Research & Development", TotalEmployees: 3, AttritionCount: 1, AttritionRate: 33.33},
		{DepartmentName: "Sales", TotalEmployees: 10, AttritionCount: 3, AttritionRate: 30},
		{DepartmentName: "Human Resources", TotalEmployees: 1, AttritionCount: 0, AttritionRate: 0},
	}, stats)
}

func TestMongo_IsIdempotent(t *testing.T) {
	log := hrtesting.NewLogger(t)
	store := apitesting.NewTestMongoStore(t, log, testMongo, nil)
	ctx := t.Context()

	cfg := load.MongoConfig{Logger: log, Store: store, CSVPath: sampleCSV}

	_, err := load.Mongo(ctx, cfg)
	require.NoError(t, err)

	// A second run drops and rebuilds rather than accumulating.
	result, err := load.Mongo(ctx, cfg)
	require.NoError(t, err)
	requireSampleResult(t, result)

	employees, err := store.ListEmployees(ctx, storemongo.EmployeeFilter{}, 1000, 0)
	require.NoError(t, err)
	require.Len(t, employees, 14)
	logs, err := store.ListLogs(ctx, storemongo.LogFilter{}, 1000, 0)
	require.NoError(t, err)
	require.Len(t, logs, 14)

	// The duplicate employee number is still rejected, so the unique index
	// survived the reset.
	require.Equal(t, int64(1), result.Skipped[1].EmployeeID)
}
