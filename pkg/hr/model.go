// Package hr holds the backend-agnostic domain model shared by the
// relational and document stores, the loader and the API.
package hr

import (
	"strings"
	"time"
)

// Attrition status values. The source data uses literal Yes/No strings and
// the aggregate queries compare against the trimmed value.
const (
	AttritionYes = "Yes"
	AttritionNo  = "No"
)

// ValidStatus reports whether s is a recognised attrition status after
// trimming incidental whitespace.
func ValidStatus(s string) bool {
	t := strings.TrimSpace(s)
	return t == AttritionYes || t == AttritionNo
}

// Department is a dimension row. The surrogate key is backend-assigned and
// differs between backends; the trimmed name is the shared vocabulary.
type Department struct {
	DepartmentID   int32  `json:"department_id"`
	DepartmentName string `json:"department_name"`
}

// JobRole is a dimension row, identical in shape to Department.
type JobRole struct {
	JobRoleID   int32  `json:"job_role_id"`
	JobRoleName string `json:"job_role_name"`
}

// Employee is the fact entity in its relational shape: foreign keys point at
// the Department and JobRole dimension rows of the same backend. The document
// store derives its denormalized shape from this plus the resolved names.
type Employee struct {
	EmployeeID               int64  `json:"employee_id"`
	Age                      int    `json:"age"`
	Attrition                string `json:"attrition"`
	Gender                   string `json:"gender"`
	Education                int    `json:"education"`
	EducationField           string `json:"education_field"`
	MaritalStatus            string `json:"marital_status"`
	BusinessTravel           string `json:"business_travel"`
	DistanceFromHome         int    `json:"distance_from_home"`
	JobLevel                 int    `json:"job_level"`
	JobInvolvement           int    `json:"job_involvement"`
	JobSatisfaction          int    `json:"job_satisfaction"`
	PerformanceRating        int    `json:"performance_rating"`
	EnvironmentSatisfaction  int    `json:"environment_satisfaction"`
	WorkLifeBalance          int    `json:"work_life_balance"`
	TotalWorkingYears        int    `json:"total_working_years"`
	YearsAtCompany           int    `json:"years_at_company"`
	YearsInCurrentRole       int    `json:"years_in_current_role"`
	YearsSinceLastPromotion  int    `json:"years_since_last_promotion"`
	YearsWithCurrManager     int    `json:"years_with_curr_manager"`
	HourlyRate               int    `json:"hourly_rate"`
	MonthlyIncome            int    `json:"monthly_income"`
	MonthlyRate              int    `json:"monthly_rate"`
	DailyRate                int    `json:"daily_rate"`
	NumCompaniesWorked       int    `json:"num_companies_worked"`
	StockOptionLevel         int    `json:"stock_option_level"`
	OverTime                 string `json:"over_time"`
	Over18                   string `json:"over18"`
	PercentSalaryHike        int    `json:"percent_salary_hike"`
	DepartmentID             int32  `json:"department_id"`
	JobRoleID                int32  `json:"job_role_id"`
}

// AttritionLogEntry is one append-only audit fact: a status-setting event for
// an employee. Entries are never updated; the only permitted mutation is an
// explicit administrative delete-by-id.
type AttritionLogEntry struct {
	LogID           int64     `json:"log_id"`
	EmployeeID      int64     `json:"employee_id"`
	AttritionStatus string    `json:"attrition_status"`
	LogDate         time.Time `json:"log_date"`
}

// DepartmentAttritionStats is one group of the department attrition report.
// AttritionRate is a percentage rounded to two decimals.
type DepartmentAttritionStats struct {
	DepartmentName string  `json:"department_name"`
	TotalEmployees int64   `json:"total_employees"`
	AttritionCount int64   `json:"attrition_count"`
	AttritionRate  float64 `json:"attrition_rate"`
}
