package csvsource

import (
	"github.com/crewlytics/attrition/pkg/hr"
)

// SourceEmployee is a coerced employee row before foreign-key resolution.
// Department and JobRole are the trimmed dimension names; each backend
// resolves them against its own dimension vocabulary.
type SourceEmployee struct {
	hr.Employee
	Department string
	JobRole    string
}

// intColumns maps source columns to their destination in the coerced row.
// Kept as a table so the coercion loop reports the failing column by name.
var intColumns = []string{
	ColAge,
	ColEducation,
	ColDistanceFromHome,
	ColJobLevel,
	ColJobInvolvement,
	ColJobSatisfaction,
	ColPerformanceRating,
	ColEnvironmentSatisfaction,
	ColWorkLifeBalance,
	ColTotalWorkingYears,
	ColYearsAtCompany,
	ColYearsInCurrentRole,
	ColYearsSinceLastPromotion,
	ColYearsWithCurrManager,
	ColHourlyRate,
	ColMonthlyIncome,
	ColMonthlyRate,
	ColDailyRate,
	ColNumCompaniesWorked,
	ColStockOptionLevel,
	ColPercentSalaryHike,
}

// ParseEmployee coerces one source row into a SourceEmployee. Any numeric
// coercion failure returns a ValidationError for that row.
func (r Row) ParseEmployee() (SourceEmployee, error) {
	var se SourceEmployee

	id, err := r.Int(ColEmployeeNumber)
	if err != nil {
		return se, err
	}
	se.EmployeeID = int64(id)

	ints := make(map[string]int, len(intColumns))
	for _, col := range intColumns {
		n, err := r.Int(col)
		if err != nil {
			return se, err
		}
		ints[col] = n
	}

	se.Age = ints[ColAge]
	se.Education = ints[ColEducation]
	se.DistanceFromHome = ints[ColDistanceFromHome]
	se.JobLevel = ints[ColJobLevel]
	se.JobInvolvement = ints[ColJobInvolvement]
	se.JobSatisfaction = ints[ColJobSatisfaction]
	se.PerformanceRating = ints[ColPerformanceRating]
	se.EnvironmentSatisfaction = ints[ColEnvironmentSatisfaction]
	se.WorkLifeBalance = ints[ColWorkLifeBalance]
	se.TotalWorkingYears = ints[ColTotalWorkingYears]
	se.YearsAtCompany = ints[ColYearsAtCompany]
	se.YearsInCurrentRole = ints[ColYearsInCurrentRole]
	se.YearsSinceLastPromotion = ints[ColYearsSinceLastPromotion]
	se.YearsWithCurrManager = ints[ColYearsWithCurrManager]
	se.HourlyRate = ints[ColHourlyRate]
	se.MonthlyIncome = ints[ColMonthlyIncome]
	se.MonthlyRate = ints[ColMonthlyRate]
	se.DailyRate = ints[ColDailyRate]
	se.NumCompaniesWorked = ints[ColNumCompaniesWorked]
	se.StockOptionLevel = ints[ColStockOptionLevel]
	se.PercentSalaryHike = ints[ColPercentSalaryHike]

	se.Attrition = r.Str(ColAttrition)
	se.Gender = r.Str(ColGender)
	se.EducationField = r.Str(ColEducationField)
	se.MaritalStatus = r.Str(ColMaritalStatus)
	se.BusinessTravel = r.Str(ColBusinessTravel)
	se.OverTime = r.Str(ColOverTime)
	se.Over18 = r.Str(ColOver18)
	se.Department = r.Str(ColDepartment)
	se.JobRole = r.Str(ColJobRole)

	if !hr.ValidStatus(se.Attrition) {
		return se, &hr.ValidationError{Line: r.Line, Field: ColAttrition, Reason: "must be Yes or No"}
	}
	if se.Department == "" {
		return se, &hr.ValidationError{Line: r.Line, Field: ColDepartment, Reason: "empty value"}
	}
	if se.JobRole == "" {
		return se, &hr.ValidationError{Line: r.Line, Field: ColJobRole, Reason: "empty value"}
	}

	return se, nil
}
