package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crewlytics/attrition/pkg/hr"
)

// EmployeeDoc is the denormalized employee document. Department and JobRole
// are plain trimmed name strings rather than references, and the current
// status lives in attrition_status.
type EmployeeDoc struct {
	ID                      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EmployeeID              int64              `bson:"employee_id" json:"employee_id"`
	Age                     int                `bson:"age" json:"age"`
	Gender                  string             `bson:"gender" json:"gender"`
	Education               int                `bson:"education" json:"education"`
	EducationField          string             `bson:"education_field" json:"education_field"`
	MaritalStatus           string             `bson:"marital_status" json:"marital_status"`
	BusinessTravel          string             `bson:"business_travel" json:"business_travel"`
	DistanceFromHome        int                `bson:"distance_from_home" json:"distance_from_home"`
	JobLevel                int                `bson:"job_level" json:"job_level"`
	JobInvolvement          int                `bson:"job_involvement" json:"job_involvement"`
	JobSatisfaction         int                `bson:"job_satisfaction" json:"job_satisfaction"`
	PerformanceRating       int                `bson:"performance_rating" json:"performance_rating"`
	EnvironmentSatisfaction int                `bson:"environment_satisfaction" json:"environment_satisfaction"`
	WorkLifeBalance         int                `bson:"work_life_balance" json:"work_life_balance"`
	TotalWorkingYears       int                `bson:"total_working_years" json:"total_working_years"`
	YearsAtCompany          int                `bson:"years_at_company" json:"years_at_company"`
	YearsInCurrentRole      int                `bson:"years_in_current_role" json:"years_in_current_role"`
	YearsSinceLastPromotion int                `bson:"years_since_last_promotion" json:"years_since_last_promotion"`
	YearsWithCurrManager    int                `bson:"years_with_curr_manager" json:"years_with_curr_manager"`
	HourlyRate              int                `bson:"hourly_rate" json:"hourly_rate"`
	MonthlyIncome           int                `bson:"monthly_income" json:"monthly_income"`
	MonthlyRate             int                `bson:"monthly_rate" json:"monthly_rate"`
	DailyRate               int                `bson:"daily_rate" json:"daily_rate"`
	NumCompaniesWorked      int                `bson:"num_companies_worked" json:"num_companies_worked"`
	StockOptionLevel        int                `bson:"stock_option_level" json:"stock_option_level"`
	OverTime                string             `bson:"over_time" json:"over_time"`
	Over18                  string             `bson:"over18" json:"over18"`
	PercentSalaryHike       int                `bson:"percent_salary_hike" json:"percent_salary_hike"`
	Department              string             `bson:"department" json:"department"`
	JobRole                 string             `bson:"job_role" json:"job_role"`
	AttritionStatus         string             `bson:"attrition_status" json:"attrition_status"`
}

// EmployeeDocFromSource builds the document shape from a coerced source row.
func EmployeeDocFromSource(se hr.Employee, department, jobRole string) EmployeeDoc {
	return EmployeeDoc{
		EmployeeID:              se.EmployeeID,
		Age:                     se.Age,
		Gender:                  se.Gender,
		Education:               se.Education,
		EducationField:          se.EducationField,
		MaritalStatus:           se.MaritalStatus,
		BusinessTravel:          se.BusinessTravel,
		DistanceFromHome:        se.DistanceFromHome,
		JobLevel:                se.JobLevel,
		JobInvolvement:          se.JobInvolvement,
		JobSatisfaction:         se.JobSatisfaction,
		PerformanceRating:       se.PerformanceRating,
		EnvironmentSatisfaction: se.EnvironmentSatisfaction,
		WorkLifeBalance:         se.WorkLifeBalance,
		TotalWorkingYears:       se.TotalWorkingYears,
		YearsAtCompany:          se.YearsAtCompany,
		YearsInCurrentRole:      se.YearsInCurrentRole,
		YearsSinceLastPromotion: se.YearsSinceLastPromotion,
		YearsWithCurrManager:    se.YearsWithCurrManager,
		HourlyRate:              se.HourlyRate,
		MonthlyIncome:           se.MonthlyIncome,
		MonthlyRate:             se.MonthlyRate,
		DailyRate:               se.DailyRate,
		NumCompaniesWorked:      se.NumCompaniesWorked,
		StockOptionLevel:        se.StockOptionLevel,
		OverTime:                se.OverTime,
		Over18:                  se.Over18,
		PercentSalaryHike:       se.PercentSalaryHike,
		Department:              department,
		JobRole:                 jobRole,
		AttritionStatus:         se.Attrition,
	}
}

// CreateEmployee inserts one document. Requires the unique employee_id
// index, so duplicates are rejected in full as IntegrityError.
func (s *Store) CreateEmployee(ctx context.Context, doc EmployeeDoc) (EmployeeDoc, error) {
	res, err := s.db.Collection(CollEmployees).InsertOne(ctx, doc)
	if err != nil {
		return EmployeeDoc{}, mapError(err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc, nil
}

func (s *Store) GetEmployee(ctx context.Context, employeeID int64) (EmployeeDoc, error) {
	var doc EmployeeDoc
	err := s.db.Collection(CollEmployees).FindOne(ctx, bson.M{"employee_id": employeeID}).Decode(&doc)
	if err != nil {
		return EmployeeDoc{}, mapError(err)
	}
	return doc, nil
}

// EmployeeFilter holds the optional equality filters of the list operation.
// Department filters by the denormalized name, this backend's reference
// style.
type EmployeeFilter struct {
	Attrition  *string
	Department *string
}

func (s *Store) ListEmployees(ctx context.Context, filter EmployeeFilter, limit, skip int) ([]EmployeeDoc, error) {
	query := bson.M{}
	if filter.Attrition != nil {
		query["attrition_status"] = *filter.Attrition
	}
	if filter.Department != nil {
		query["department"] = *filter.Department
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "employee_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(skip))
	cur, err := s.db.Collection(CollEmployees).Find(ctx, query, opts)
	if err != nil {
		return nil, mapError(err)
	}
	defer cur.Close(ctx)

	out := []EmployeeDoc{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateEmployee applies a partial update from a set of field/value pairs
// and returns the updated document.
func (s *Store) UpdateEmployee(ctx context.Context, employeeID int64, fields bson.M) (EmployeeDoc, error) {
	res := s.db.Collection(CollEmployees).FindOneAndUpdate(ctx,
		bson.M{"employee_id": employeeID},
		bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var doc EmployeeDoc
	if err := res.Decode(&doc); err != nil {
		return EmployeeDoc{}, mapError(err)
	}
	return doc, nil
}

func (s *Store) DeleteEmployee(ctx context.Context, employeeID int64) error {
	res, err := s.db.Collection(CollEmployees).DeleteOne(ctx, bson.M{"employee_id": employeeID})
	if err != nil {
		return mapError(err)
	}
	if res.DeletedCount == 0 {
		return hr.ErrNotFound
	}
	return nil
}
