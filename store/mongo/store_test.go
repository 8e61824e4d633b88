package mongo_test

import (
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apitesting "github.com/crewlytics/attrition/api/testing"
	"github.com/crewlytics/attrition/pkg/hr"
	storemongo "github.com/crewlytics/attrition/store/mongo"
	hrtesting "github.com/crewlytics/attrition/utils/pkg/testing"
)

func newTestStore(t *testing.T, clock clockwork.Clock) *storemongo.Store {
	t.Helper()
	store := apitesting.NewTestMongoStore(t, hrtesting.NewLogger(t), testMongo, clock)
	// Reset drops collections along with their indexes, so recreate them.
	require.NoError(t, store.Reset(t.Context()))
	require.NoError(t, store.EnsureIndexes(t.Context()))
	return store
}

func testEmployeeDoc(id int64, attrition, department, jobRole string) storemongo.EmployeeDoc {
	return storemongo.EmployeeDocFromSource(hr.Employee{
		EmployeeID:              id,
		Age:                     34,
		Attrition:               attrition,
		Gender:                  "Female",
		Education:               3,
		EducationField:          "Life Sciences",
		MaritalStatus:           "Married",
		BusinessTravel:          "Travel_Rarely",
		DistanceFromHome:        5,
		JobLevel:                2,
		JobInvolvement:          3,
		JobSatisfaction:         4,
		PerformanceRating:       3,
		EnvironmentSatisfaction: 3,
		WorkLifeBalance:         3,
		TotalWorkingYears:       10,
		YearsAtCompany:          6,
		YearsInCurrentRole:      4,
		YearsSinceLastPromotion: 1,
		YearsWithCurrManager:    4,
		HourlyRate:              80,
		MonthlyIncome:           6500,
		MonthlyRate:             18000,
		DailyRate:               1100,
		NumCompaniesWorked:      2,
		StockOptionLevel:        1,
		OverTime:                "No",
		Over18:                  "Y",
		PercentSalaryHike:       13,
	}, department, jobRole)
}

func TestCreateDepartment_TrimsAndDedups(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := t.Context()

	dept, err := store.CreateDepartment(ctx, "  Sales ")
	require.NoError(t, err)
	require.Equal(t, "Sales", dept.DepartmentName)
	require.False(t, dept.ID.IsZero())

	// The trimmed name collides with the unique index.
	_, err = store.CreateDepartment(ctx, "Sales")
	require.Error(t, err)
	require.True(t, hr.IsIntegrity(err))

	_, err = store.CreateDepartment(ctx, "   ")
	require.Error(t, err)
	require.True(t, hr.IsIntegrity(err))

	depts, err := store.ListDepartments(ctx, 100, 0)
	require.NoError(t, err)
	require.Len(t, depts, 1)
}

func TestDepartmentCRUD(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := t.Context()

	dept, err := store.CreateDepartment(ctx, "Sales")
	require.NoError(t, err)

	got, err := store.GetDepartment(ctx, dept.ID)
	require.NoError(t, err)
	require.Equal(t, dept, got)

	renamed, err := store.RenameDepartment(ctx, dept.ID, " Field Sales ")
	require.NoError(t, err)
	require.Equal(t, "Field Sales", renamed.DepartmentName)
	require.Equal(t, dept.ID, renamed.ID)

	require.NoError(t, store.DeleteDepartment(ctx, dept.ID))
	_, err = store.GetDepartment(ctx, dept.ID)
	require.ErrorIs(t, err, hr.ErrNotFound)

	_, err = store.RenameDepartment(ctx, primitive.NewObjectID(), "Ghost")
	require.ErrorIs(t, err, hr.ErrNotFound)
}

func TestDeleteDepartment_BlockedWhileReferenced(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := t.Context()

	dept, err := store.CreateDepartment(ctx, "Sales")
	require.NoError(t, err)
	role, err := store.CreateJobRole(ctx, "Sales Executive")
	require.NoError(t, err)

	_, err = store.CreateEmployee(ctx, testEmployeeDoc(1, "No", dept.DepartmentName, role.JobRoleName))
	require.NoError(t, err)

	// The denormalized name reference blocks both dimension deletes.
	err = store.DeleteDepartment(ctx, dept.ID)
	require.Error(t, err)
	require.True(t, hr.IsIntegrity(err))
	err = store.DeleteJobRole(ctx, role.ID)
	require.Error(t, err)
	require.True(t, hr.IsIntegrity(err))

	require.NoError(t, store.DeleteEmployee(ctx, 1))
	require.NoError(t, store.DeleteDepartment(ctx, dept.ID))
	require.NoError(t, store.DeleteJobRole(ctx, role.ID))
}

func TestCreateEmployee_DuplicateIDRejected(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := t.Context()

	_, err := store.CreateEmployee(ctx, testEmployeeDoc(1, "No", "Sales", "Sales Executive"))
	require.NoError(t, err)

	_, err = store.CreateEmployee(ctx, testEmployeeDoc(1, "Yes", "Sales", "Sales Executive"))
	require.Error(t, err)
	require.True(t, hr.IsIntegrity(err))

	// The original document is untouched by the rejected insert.
	got, err := store.GetEmployee(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "No", got.AttritionStatus)
}

func TestListEmployees_Filters(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := t.Context()

	for id, spec := range map[int64][2]string{
		1: {"Yes", "Sales"},
		2: {"No", "Sales"},
		3: {"Yes", "Research & Development"},
	} {
		_, err := store.CreateEmployee(ctx, testEmployeeDoc(id, spec[0], spec[1], "Sales Executive"))
		require.NoError(t, err)
	}

	all, err := store.ListEmployees(ctx, storemongo.EmployeeFilter{}, 100, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, int64(1), all[0].EmployeeID)

	yes := "Yes"
	leavers, err := store.ListEmployees(ctx, storemongo.EmployeeFilter{Attrition: &yes}, 100, 0)
	require.NoError(t, err)
	require.Len(t, leavers, 2)

	sales := "Sales"
	filtered, err := store.ListEmployees(ctx, storemongo.EmployeeFilter{Attrition: &yes, Department: &sales}, 100, 0)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, int64(1), filtered[0].EmployeeID)

	paged, err := store.ListEmployees(ctx, storemongo.EmployeeFilter{}, 1, 1)
	require.NoError(t, err)
	require.Len(t, paged, 1)
	require.Equal(t, int64(2), paged[0].EmployeeID)
}

func TestUpdateEmployee_PartialUpdate(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := t.Context()

	_, err := store.CreateEmployee(ctx, testEmployeeDoc(1, "No", "Sales", "Sales Executive"))
	require.NoError(t, err)

	updated, err := store.UpdateEmployee(ctx, 1, bson.M{"age": 35, "monthly_income": 7000})
	require.NoError(t, err)
	require.Equal(t, 35, updated.Age)
	require.Equal(t, 7000, updated.MonthlyIncome)
	// Untouched fields keep their values.
	require.Equal(t, "Sales", updated.Department)
	require.Equal(t, "No", updated.AttritionStatus)

	_, err = store.UpdateEmployee(ctx, 9999, bson.M{"age": 40})
	require.ErrorIs(t, err, hr.ErrNotFound)
}

func TestReset_IsIdempotent(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := t.Context()

	_, err := store.CreateEmployee(ctx, testEmployeeDoc(1, "No", "Sales", "Sales Executive"))
	require.NoError(t, err)
	_, err = store.CreateDepartment(ctx, "Sales")
	require.NoError(t, err)

	require.NoError(t, store.Reset(ctx))
	require.NoError(t, store.Reset(ctx))
	require.NoError(t, store.EnsureIndexes(ctx))

	emps, err := store.ListEmployees(ctx, storemongo.EmployeeFilter{}, 100, 0)
	require.NoError(t, err)
	require.Empty(t, emps)
	depts, err := store.ListDepartments(ctx, 100, 0)
	require.NoError(t, err)
	require.Empty(t, depts)
}
