package pg

import (
	"context"
	"fmt"
	"iter"

	"github.com/crewlytics/attrition/pkg/hr"
)

// historyPageSize bounds each keyset fetch of a status history scan.
const historyPageSize = 200

// RecordStatus appends one audit entry for the employee, timestamped at call
// time. Existing entries are never touched.
func (s *Store) RecordStatus(ctx context.Context, employeeID int64, status string) (hr.AttritionLogEntry, error) {
	var entry hr.AttritionLogEntry
	err := s.pool.QueryRow(ctx, `
		INSERT INTO attrition_log (employee_id, attrition_status, log_date)
		VALUES ($1, $2, $3)
		RETURNING log_id, employee_id, attrition_status, log_date
	`, employeeID, status, s.clock.Now().UTC()).Scan(
		&entry.LogID, &entry.EmployeeID, &entry.AttritionStatus, &entry.LogDate,
	)
	if err != nil {
		return hr.AttritionLogEntry{}, mapError(err)
	}
	return entry, nil
}

func (s *Store) GetLog(ctx context.Context, logID int64) (hr.AttritionLogEntry, error) {
	var entry hr.AttritionLogEntry
	err := s.pool.QueryRow(ctx, `
		SELECT log_id, employee_id, attrition_status, log_date
		FROM attrition_log
		WHERE log_id = $1
	`, logID).Scan(&entry.LogID, &entry.EmployeeID, &entry.AttritionStatus, &entry.LogDate)
	if err != nil {
		return hr.AttritionLogEntry{}, mapError(err)
	}
	return entry, nil
}

// LogFilter holds the optional equality filter of the log list operation.
type LogFilter struct {
	EmployeeID *int64
}

// ListLogs returns audit entries newest-first, optionally filtered to one
// employee.
func (s *Store) ListLogs(ctx context.Context, filter LogFilter, limit, skip int) ([]hr.AttritionLogEntry, error) {
	query := `
		SELECT log_id, employee_id, attrition_status, log_date
		FROM attrition_log
		WHERE 1=1`
	args := []any{}

	if filter.EmployeeID != nil {
		args = append(args, *filter.EmployeeID)
		query += fmt.Sprintf(" AND employee_id = $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY log_date DESC, log_id DESC LIMIT $%d", len(args))
	args = append(args, skip)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := []hr.AttritionLogEntry{}
	for rows.Next() {
		var entry hr.AttritionLogEntry
		if err := rows.Scan(&entry.LogID, &entry.EmployeeID, &entry.AttritionStatus, &entry.LogDate); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// StatusHistory returns the employee's audit trail newest-first as a lazy,
// finite, restartable sequence. Each range over the sequence re-runs the
// scan from the top; pages are fetched by keyset so arbitrarily long
// histories stream without being held in memory.
func (s *Store) StatusHistory(ctx context.Context, employeeID int64) iter.Seq2[hr.AttritionLogEntry, error] {
	return func(yield func(hr.AttritionLogEntry, error) bool) {
		var afterID *int64
		for {
			entries, err := s.historyPage(ctx, employeeID, afterID)
			if err != nil {
				yield(hr.AttritionLogEntry{}, err)
				return
			}
			for _, entry := range entries {
				if !yield(entry, nil) {
					return
				}
			}
			if len(entries) < historyPageSize {
				return
			}
			last := entries[len(entries)-1].LogID
			afterID = &last
		}
	}
}

// historyPage fetches one keyset page. Ordering by (log_date, log_id) DESC
// makes the cursor unambiguous even when entries share a timestamp.
func (s *Store) historyPage(ctx context.Context, employeeID int64, afterID *int64) ([]hr.AttritionLogEntry, error) {
	query := `
		SELECT log_id, employee_id, attrition_status, log_date
		FROM attrition_log
		WHERE employee_id = $1`
	args := []any{employeeID}

	if afterID != nil {
		args = append(args, *afterID)
		query += fmt.Sprintf(` AND (log_date, log_id) < (
			SELECT log_date, log_id FROM attrition_log WHERE log_id = $%d
		)`, len(args))
	}
	args = append(args, historyPageSize)
	query += fmt.Sprintf(" ORDER BY log_date DESC, log_id DESC LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []hr.AttritionLogEntry
	for rows.Next() {
		var entry hr.AttritionLogEntry
		if err := rows.Scan(&entry.LogID, &entry.EmployeeID, &entry.AttritionStatus, &entry.LogDate); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// DeleteLog removes one audit entry by id. This administrative delete is the
// only mutation the audit trail permits.
func (s *Store) DeleteLog(ctx context.Context, logID int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM attrition_log WHERE log_id = $1`, logID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return hr.ErrNotFound
	}
	return nil
}
