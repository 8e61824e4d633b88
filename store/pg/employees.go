package pg

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/crewlytics/attrition/pkg/hr"
)

const employeeColumns = `
	employee_id, age, attrition, gender, education, education_field,
	marital_status, business_travel, distance_from_home, job_level,
	job_involvement, job_satisfaction, performance_rating,
	environment_satisfaction, work_life_balance, total_working_years,
	years_at_company, years_in_current_role, years_since_last_promotion,
	years_with_curr_manager, hourly_rate, monthly_income, monthly_rate,
	daily_rate, num_companies_worked, stock_option_level, over_time,
	over18, percent_salary_hike, department_id, job_role_id`

func scanEmployee(row pgx.Row) (hr.Employee, error) {
	var e hr.Employee
	err := row.Scan(
		&e.EmployeeID, &e.Age, &e.Attrition, &e.Gender, &e.Education,
		&e.EducationField, &e.MaritalStatus, &e.BusinessTravel,
		&e.DistanceFromHome, &e.JobLevel, &e.JobInvolvement,
		&e.JobSatisfaction, &e.PerformanceRating, &e.EnvironmentSatisfaction,
		&e.WorkLifeBalance, &e.TotalWorkingYears, &e.YearsAtCompany,
		&e.YearsInCurrentRole, &e.YearsSinceLastPromotion,
		&e.YearsWithCurrManager, &e.HourlyRate, &e.MonthlyIncome,
		&e.MonthlyRate, &e.DailyRate, &e.NumCompaniesWorked,
		&e.StockOptionLevel, &e.OverTime, &e.Over18, &e.PercentSalaryHike,
		&e.DepartmentID, &e.JobRoleID,
	)
	return e, err
}

// CreateEmployee inserts one fact row. A duplicate employee_id or a dangling
// department/job-role reference is rejected in full as an IntegrityError.
func (s *Store) CreateEmployee(ctx context.Context, e hr.Employee) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO employees (`+employeeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27,
			$28, $29, $30, $31)
	`,
		e.EmployeeID, e.Age, e.Attrition, e.Gender, e.Education,
		e.EducationField, e.MaritalStatus, e.BusinessTravel,
		e.DistanceFromHome, e.JobLevel, e.JobInvolvement, e.JobSatisfaction,
		e.PerformanceRating, e.EnvironmentSatisfaction, e.WorkLifeBalance,
		e.TotalWorkingYears, e.YearsAtCompany, e.YearsInCurrentRole,
		e.YearsSinceLastPromotion, e.YearsWithCurrManager, e.HourlyRate,
		e.MonthlyIncome, e.MonthlyRate, e.DailyRate, e.NumCompaniesWorked,
		e.StockOptionLevel, e.OverTime, e.Over18, e.PercentSalaryHike,
		e.DepartmentID, e.JobRoleID,
	)
	return mapError(err)
}

func (s *Store) GetEmployee(ctx context.Context, employeeID int64) (hr.Employee, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+employeeColumns+`
		FROM employees
		WHERE employee_id = $1
	`, employeeID)
	e, err := scanEmployee(row)
	if err != nil {
		return hr.Employee{}, mapError(err)
	}
	return e, nil
}

// EmployeeFilter holds the optional equality filters of the list operation.
type EmployeeFilter struct {
	Attrition    *string
	DepartmentID *int32
}

func (s *Store) ListEmployees(ctx context.Context, filter EmployeeFilter, limit, skip int) ([]hr.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE 1=1`
	args := []any{}

	if filter.Attrition != nil {
		args = append(args, *filter.Attrition)
		query += fmt.Sprintf(" AND attrition = $%d", len(args))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		query += fmt.Sprintf(" AND department_id = $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY employee_id LIMIT $%d", len(args))
	args = append(args, skip)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := []hr.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// EmployeeUpdate is a partial update: nil fields are left untouched.
type EmployeeUpdate struct {
	Age                     *int    `json:"age"`
	Attrition               *string `json:"attrition"`
	Gender                  *string `json:"gender"`
	Education               *int    `json:"education"`
	EducationField          *string `json:"education_field"`
	MaritalStatus           *string `json:"marital_status"`
	BusinessTravel          *string `json:"business_travel"`
	DistanceFromHome        *int    `json:"distance_from_home"`
	JobLevel                *int    `json:"job_level"`
	JobInvolvement          *int    `json:"job_involvement"`
	JobSatisfaction         *int    `json:"job_satisfaction"`
	PerformanceRating       *int    `json:"performance_rating"`
	EnvironmentSatisfaction *int    `json:"environment_satisfaction"`
	WorkLifeBalance         *int    `json:"work_life_balance"`
	TotalWorkingYears       *int    `json:"total_working_years"`
	YearsAtCompany          *int    `json:"years_at_company"`
	YearsInCurrentRole      *int    `json:"years_in_current_role"`
	YearsSinceLastPromotion *int    `json:"years_since_last_promotion"`
	YearsWithCurrManager    *int    `json:"years_with_curr_manager"`
	HourlyRate              *int    `json:"hourly_rate"`
	MonthlyIncome           *int    `json:"monthly_income"`
	MonthlyRate             *int    `json:"monthly_rate"`
	DailyRate               *int    `json:"daily_rate"`
	NumCompaniesWorked      *int    `json:"num_companies_worked"`
	StockOptionLevel        *int    `json:"stock_option_level"`
	OverTime                *string `json:"over_time"`
	Over18                  *string `json:"over18"`
	PercentSalaryHike       *int    `json:"percent_salary_hike"`
	DepartmentID            *int32  `json:"department_id"`
	JobRoleID               *int32  `json:"job_role_id"`
}

// setClauses returns the SET assignments and arguments for the non-nil
// fields, in declaration order.
func (u EmployeeUpdate) setClauses() ([]string, []any) {
	type field struct {
		col string
		val any
		set bool
	}
	fields := []field{
		{"age", deref(u.Age), u.Age != nil},
		{"attrition", deref(u.Attrition), u.Attrition != nil},
		{"gender", deref(u.Gender), u.Gender != nil},
		{"education", deref(u.Education), u.Education != nil},
		{"education_field", deref(u.EducationField), u.EducationField != nil},
		{"marital_status", deref(u.MaritalStatus), u.MaritalStatus != nil},
		{"business_travel", deref(u.BusinessTravel), u.BusinessTravel != nil},
		{"distance_from_home", deref(u.DistanceFromHome), u.DistanceFromHome != nil},
		{"job_level", deref(u.JobLevel), u.JobLevel != nil},
		{"job_involvement", deref(u.JobInvolvement), u.JobInvolvement != nil},
		{"job_satisfaction", deref(u.JobSatisfaction), u.JobSatisfaction != nil},
		{"performance_rating", deref(u.PerformanceRating), u.PerformanceRating != nil},
		{"environment_satisfaction", deref(u.EnvironmentSatisfaction), u.EnvironmentSatisfaction != nil},
		{"work_life_balance", deref(u.WorkLifeBalance), u.WorkLifeBalance != nil},
		{"total_working_years", deref(u.TotalWorkingYears), u.TotalWorkingYears != nil},
		{"years_at_company", deref(u.YearsAtCompany), u.YearsAtCompany != nil},
		{"years_in_current_role", deref(u.YearsInCurrentRole), u.YearsInCurrentRole != nil},
		{"years_since_last_promotion", deref(u.YearsSinceLastPromotion), u.YearsSinceLastPromotion != nil},
		{"years_with_curr_manager", deref(u.YearsWithCurrManager), u.YearsWithCurrManager != nil},
		{"hourly_rate", deref(u.HourlyRate), u.HourlyRate != nil},
		{"monthly_income", deref(u.MonthlyIncome), u.MonthlyIncome != nil},
		{"monthly_rate", deref(u.MonthlyRate), u.MonthlyRate != nil},
		{"daily_rate", deref(u.DailyRate), u.DailyRate != nil},
		{"num_companies_worked", deref(u.NumCompaniesWorked), u.NumCompaniesWorked != nil},
		{"stock_option_level", deref(u.StockOptionLevel), u.StockOptionLevel != nil},
		{"over_time", deref(u.OverTime), u.OverTime != nil},
		{"over18", deref(u.Over18), u.Over18 != nil},
		{"percent_salary_hike", deref(u.PercentSalaryHike), u.PercentSalaryHike != nil},
		{"department_id", deref(u.DepartmentID), u.DepartmentID != nil},
		{"job_role_id", deref(u.JobRoleID), u.JobRoleID != nil},
	}

	var clauses []string
	var args []any
	for _, f := range fields {
		if !f.set {
			continue
		}
		args = append(args, f.val)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", f.col, len(args)))
	}
	return clauses, args
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// ErrNoFieldsToUpdate is returned when a partial update names no fields.
var ErrNoFieldsToUpdate = fmt.Errorf("no fields to update")

// UpdateEmployee applies a partial update and returns the updated row.
// Note: this path does not append an audit entry even when the attrition
// field changes; callers that need trigger semantics use
// UpdateEmployeeAttrition.
func (s *Store) UpdateEmployee(ctx context.Context, employeeID int64, u EmployeeUpdate) (hr.Employee, error) {
	clauses, args := u.setClauses()
	if len(clauses) == 0 {
		return hr.Employee{}, ErrNoFieldsToUpdate
	}

	args = append(args, employeeID)
	query := fmt.Sprintf(`
		UPDATE employees
		SET %s
		WHERE employee_id = $%d
		RETURNING `+employeeColumns,
		strings.Join(clauses, ", "), len(args))

	e, err := scanEmployee(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return hr.Employee{}, mapError(err)
	}
	return e, nil
}

func (s *Store) DeleteEmployee(ctx context.Context, employeeID int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM employees WHERE employee_id = $1`, employeeID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return hr.ErrNotFound
	}
	return nil
}
