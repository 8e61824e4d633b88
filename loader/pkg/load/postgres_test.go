package load_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	apitesting "github.com/crewlytics/attrition/api/testing"
	"github.com/crewlytics/attrition/loader/pkg/load"
	"github.com/crewlytics/attrition/pkg/hr"
	"github.com/crewlytics/attrition/store/pg"
	hrtesting "github.com/crewlytics/attrition/utils/pkg/testing"
)

const sampleCSV = "testdata/hr_sample.csv"

// The sample file has 16 data rows: 14 loadable employees across Sales,
// Research & Development and Human Resources, one row with a non-numeric
// age, and one duplicate employee number.
func requireSampleResult(t *testing.T, result load.Result) {
	t.Helper()
	require.NotEqual(t, uuid.Nil, result.RunID)
	require.Equal(t, 3, result.Departments)
	require.Equal(t, 6, result.JobRoles)
	require.Equal(t, 14, result.Employees)
	require.Zero(t, result.AuditFailures)

	require.Len(t, result.Skipped, 2)
	require.Equal(t, 16, result.Skipped[0].Line)
	require.Contains(t, result.Skipped[0].Reason, "Age")
	require.Equal(t, 17, result.Skipped[1].Line)
	require.Equal(t, int64(1), result.Skipped[1].EmployeeID)
}

func TestPostgres_LoadsSampleCSV(t *testing.T) {
	log := hrtesting.NewLogger(t)
	store := apitesting.NewTestStore(t, log, testDB, nil)
	ctx := t.Context()

	result, err := load.Postgres(ctx, load.PostgresConfig{
		Logger:  log,
		Store:   store,
		CSVPath: sampleCSV,
	})
	require.NoError(t, err)
	requireSampleResult(t, result)

	// Department names arrive trimmed regardless of source padding.
	depts, err := store.ListDepartments(ctx, 100, 0)
	require.NoError(t, err)
	names := make([]string, len(depts))
	for i, d := range depts {
		names[i] = d.DepartmentName
	}
	require.Equal(t, []string{"Sales", "Research & Development", "Human Resources"}, names)

	employees, err := store.ListEmployees(ctx, pg.EmployeeFilter{}, 1000, 0)
	require.NoError(t, err)
	require.Len(t, employees, 14)

	// Every loaded employee seeds one audit entry with its initial status.
	logs, err := store.ListLogs(ctx, pg.LogFilter{}, 1000, 0)
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

func TestPostgres_IsIdempotent(t *testing.T) {
	log := hrtesting.NewLogger(t)
	store := apitesting.NewTestStore(t, log, testDB, nil)
	ctx := t.Context()

	cfg := load.PostgresConfig{Logger: log, Store: store, CSVPath: sampleCSV}

	_, err := load.Postgres(ctx, cfg)
	require.NoError(t, err)

	// A second run resets and rebuilds rather than accumulating.
	result, err := load.Postgres(ctx, cfg)
	require.NoError(t, err)
	requireSampleResult(t, result)

	employees, err := store.ListEmployees(ctx, pg.EmployeeFilter{}, 1000, 0)
	require.NoError(t, err)
	require.Len(t, employees, 14)
	logs, err := store.ListLogs(ctx, pg.LogFilter{}, 1000, 0)
	require.NoError(t, err)
	require.Len(t, logs, 14)
}

func TestPostgres_RaggedRowSkipped(t *testing.T) {
	log := hrtesting.NewLogger(t)
	store := apitesting.NewTestStore(t, log, testDB, nil)

	raw, err := os.ReadFile(sampleCSV)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	// Drop the last field of the second data row (line 3).
	fields := strings.Split(lines[2], ",")
	lines[2] = strings.Join(fields[:len(fields)-1], ",")

	path := filepath.Join(t.TempDir(), "ragged.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	result, err := load.Postgres(t.Context(), load.PostgresConfig{
		Logger:  log,
		Store:   store,
		CSVPath: path,
	})
	require.NoError(t, err)

	// The ragged row is skipped; the run still loads everything else.
	require.Equal(t, 13, result.Employees)
	require.Len(t, result.Skipped, 3)
	require.Equal(t, 3, result.Skipped[0].Line)
	require.Contains(t, result.Skipped[0].Reason, "expected 31 fields, got 30")
	require.Equal(t, 16, result.Skipped[1].Line)
	require.Equal(t, 17, result.Skipped[2].Line)
}

func TestPostgres_MissingColumnFailsRun(t *testing.T) {
	log := hrtesting.NewLogger(t)
	store := apitesting.NewTestStore(t, log, testDB, nil)

	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("Age,Attrition\n41,Yes\n"), 0o644))

	_, err := load.Postgres(t.Context(), load.PostgresConfig{
		Logger:  log,
		Store:   store,
		CSVPath: path,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing required column")
}

func TestPostgres_ConfigValidation(t *testing.T) {
	log := hrtesting.NewLogger(t)

	_, err := load.Postgres(t.Context(), load.PostgresConfig{Logger: log, CSVPath: sampleCSV})
	require.Error(t, err)

	store := apitesting.NewTestStore(t, log, testDB, nil)
	_, err = load.Postgres(t.Context(), load.PostgresConfig{Logger: log, Store: store})
	require.Error(t, err)
}
