package mongo

import (
	"context"
	"math"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/crewlytics/attrition/pkg/hr"
)

// DepartmentAttritionStats computes the department attrition report over
// the denormalized employee documents. Grouping runs server-side; the rate
// and ordering are computed here because the deterministic tie-break is the
// dimension vocabulary's insertion order, which only the departments
// collection knows. Departments with no employees produce no group.
func (s *Store) DepartmentAttritionStats(ctx context.Context, departmentName *string) ([]hr.DepartmentAttritionStats, error) {
	pipeline := []bson.M{}
	if departmentName != nil {
		pipeline = append(pipeline, bson.M{"$match": bson.M{"department": *departmentName}})
	}
	pipeline = append(pipeline, bson.M{"$group": bson.M{
		"_id":   "$department",
		"total": bson.M{"$sum": 1},
		"yes": bson.M{"$sum": bson.M{"$cond": bson.A{
			bson.M{"$eq": bson.A{bson.M{"$trim": bson.M{"input": "$attrition_status"}}, hr.AttritionYes}},
			1, 0,
		}}},
	}})

	cur, err := s.db.Collection(CollEmployees).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, mapError(err)
	}
	defer cur.Close(ctx)

	var groups []struct {
		Department string `bson:"_id"`
		Total      int64  `bson:"total"`
		Yes        int64  `bson:"yes"`
	}
	if err := cur.All(ctx, &groups); err != nil {
		return nil, err
	}

	out := make([]hr.DepartmentAttritionStats, 0, len(groups))
	for _, g := range groups {
		out = append(out, hr.DepartmentAttritionStats{
			DepartmentName: strings.TrimSpace(g.Department),
			TotalEmployees: g.Total,
			AttritionCount: g.Yes,
			AttritionRate:  Rate(g.Yes, g.Total),
		})
	}

	if departmentName != nil {
		return out, nil
	}

	order, err := s.departmentOrder(ctx)
	if err != nil {
		return nil, err
	}
	rank := func(name string) int {
		if r, ok := order[name]; ok {
			return r
		}
		return len(order)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AttritionRate != out[j].AttritionRate {
			return out[i].AttritionRate > out[j].AttritionRate
		}
		return rank(out[i].DepartmentName) < rank(out[j].DepartmentName)
	})
	return out, nil
}

// Rate is the attrition percentage rounded to two decimals. total is never
// zero for a real group; the guard keeps the helper total.
func Rate(yes, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(yes)*100*100/float64(total)) / 100
}

// departmentOrder maps each department name to its vocabulary insertion
// rank. Callers rank names absent from the vocabulary after all known ones.
func (s *Store) departmentOrder(ctx context.Context) (map[string]int, error) {
	docs, err := s.ListDepartments(ctx, 10_000, 0)
	if err != nil {
		return nil, err
	}
	order := make(map[string]int, len(docs))
	for i, d := range docs {
		order[d.DepartmentName] = i
	}
	return order, nil
}

// UpdateEmployeeAttrition sets the employee's current status and appends one
// audit entry as a single logical, non-atomic operation. If the audit append
// fails after a successful update, the update stands and a PartialSyncError
// is returned. The matched count (0 or 1) is always valid.
func (s *Store) UpdateEmployeeAttrition(ctx context.Context, employeeID int64, newStatus string) (int64, error) {
	res, err := s.db.Collection(CollEmployees).UpdateOne(ctx,
		bson.M{"employee_id": employeeID},
		bson.M{"$set": bson.M{"attrition_status": newStatus}},
	)
	if err != nil {
		return 0, mapError(err)
	}
	if res.MatchedCount == 0 {
		return 0, nil
	}

	if _, err := s.RecordStatus(ctx, employeeID, newStatus); err != nil {
		s.log.Warn("attrition updated but audit append failed",
			"employee_id", employeeID, "status", newStatus, "error", err)
		return res.MatchedCount, &hr.PartialSyncError{Step: "audit", Err: err}
	}
	return res.MatchedCount, nil
}
