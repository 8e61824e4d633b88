package pg

import (
	"context"

	"github.com/crewlytics/attrition/pkg/hr"
)

// DepartmentAttritionStats computes the department attrition report. With a
// department name it returns zero or one groups; without one it returns all
// groups ordered by attrition rate descending, ties broken by dimension
// insertion order (the surrogate key), which keeps the ordering stable. The
// inner join only yields groups with at least one employee, so empty
// departments never appear and division by zero cannot occur.
func (s *Store) DepartmentAttritionStats(ctx context.Context, departmentName *string) ([]hr.DepartmentAttritionStats, error) {
	query := `
		SELECT d.department_name,
		       COUNT(e.employee_id) AS total_employees,
		       COUNT(*) FILTER (WHERE TRIM(e.attrition) = 'Yes') AS attrition_count,
		       ROUND(COUNT(*) FILTER (WHERE TRIM(e.attrition) = 'Yes') * 100.0 / COUNT(e.employee_id), 2) AS attrition_rate
		FROM departments d
		JOIN employees e ON d.department_id = e.department_id`
	args := []any{}

	if departmentName != nil {
		args = append(args, *departmentName)
		query += `
		WHERE d.department_name = $1
		GROUP BY d.department_id, d.department_name`
	} else {
		query += `
		GROUP BY d.department_id, d.department_name
		ORDER BY attrition_rate DESC, d.department_id`
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := []hr.DepartmentAttritionStats{}
	for rows.Next() {
		var st hr.DepartmentAttritionStats
		if err := rows.Scan(&st.DepartmentName, &st.TotalEmployees, &st.AttritionCount, &st.AttritionRate); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// UpdateEmployeeAttrition sets the employee's current status and appends one
// audit entry, the trigger semantics of the report layer. The two statements
// are a single logical operation but are not atomic: if the audit append
// fails after a successful update, the update stands and a PartialSyncError
// is returned. The affected row count (0 or 1) is always valid.
func (s *Store) UpdateEmployeeAttrition(ctx context.Context, employeeID int64, newStatus string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE employees
		SET attrition = $2
		WHERE employee_id = $1
	`, employeeID, newStatus)
	if err != nil {
		return 0, mapError(err)
	}

	affected := tag.RowsAffected()
	if affected == 0 {
		return 0, nil
	}

	if _, err := s.RecordStatus(ctx, employeeID, newStatus); err != nil {
		s.log.Warn("attrition updated but audit append failed",
			"employee_id", employeeID, "status", newStatus, "error", err)
		return affected, &hr.PartialSyncError{Step: "audit", Err: err}
	}
	return affected, nil
}
