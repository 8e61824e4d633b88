package load

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/crewlytics/attrition/pkg/csvsource"
	"github.com/crewlytics/attrition/store/pg"
)

type PostgresConfig struct {
	Logger  *slog.Logger
	Store   *pg.Store
	CSVPath string
}

func (cfg *PostgresConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Store == nil {
		return errors.New("postgres store is required")
	}
	if cfg.CSVPath == "" {
		return errors.New("csv path is required")
	}
	return nil
}

// Postgres loads the source CSV into the relational backend: reset, insert
// the dimension vocabularies in first-seen order, then one employee row plus
// one seed audit entry per source row. Row failures are skipped and
// reported; they never abort the run.
func Postgres(ctx context.Context, cfg PostgresConfig) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, fmt.Errorf("failed to validate postgres load config: %w", err)
	}

	result := Result{RunID: uuid.New()}
	log := cfg.Logger.With("run_id", result.RunID, "backend", "postgres")

	file, err := csvsource.Read(cfg.CSVPath)
	if err != nil {
		return result, err
	}
	log.Info("loaded source csv", "rows", file.Len())

	for _, bad := range file.Malformed() {
		result.Skipped = append(result.Skipped, SkippedRow{Line: bad.Line, Reason: bad.Reason})
		log.Warn("skipping malformed source row", "line", bad.Line, "reason", bad.Reason)
	}

	if err := cfg.Store.Reset(ctx); err != nil {
		return result, err
	}

	departments := make(map[string]int32)
	for _, name := range file.Distinct(csvsource.ColDepartment) {
		d, err := cfg.Store.CreateDepartment(ctx, name)
		if err != nil {
			return result, fmt.Errorf("failed to insert department %q: %w", name, err)
		}
		departments[name] = d.DepartmentID
	}
	result.Departments = len(departments)

	jobRoles := make(map[string]int32)
	for _, name := range file.Distinct(csvsource.ColJobRole) {
		j, err := cfg.Store.CreateJobRole(ctx, name)
		if err != nil {
			return result, fmt.Errorf("failed to insert job role %q: %w", name, err)
		}
		jobRoles[name] = j.JobRoleID
	}
	result.JobRoles = len(jobRoles)

	for _, row := range file.Rows() {
		se, err := row.ParseEmployee()
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedRow{Line: row.Line, Reason: err.Error()})
			log.Warn("skipping source row", "line", row.Line, "error", err)
			continue
		}

		emp := se.Employee
		emp.DepartmentID = departments[se.Department]
		emp.JobRoleID = jobRoles[se.JobRole]

		if err := cfg.Store.CreateEmployee(ctx, emp); err != nil {
			result.Skipped = append(result.Skipped, SkippedRow{
				Line:       row.Line,
				EmployeeID: emp.EmployeeID,
				Reason:     err.Error(),
			})
			log.Warn("skipping source row", "line", row.Line, "employee_id", emp.EmployeeID, "error", err)
			continue
		}
		result.Employees++

		// Seed the audit trail with the initial status. A failure here is
		// a partial-sync condition: the employee row stands.
		if _, err := cfg.Store.RecordStatus(ctx, emp.EmployeeID, emp.Attrition); err != nil {
			result.AuditFailures++
			log.Warn("employee inserted but audit seed failed", "employee_id", emp.EmployeeID, "error", err)
		}
	}

	log.Info("postgres load complete",
		"departments", result.Departments,
		"job_roles", result.JobRoles,
		"employees", result.Employees,
		"skipped", len(result.Skipped),
		"audit_failures", result.AuditFailures,
	)
	return result, nil
}
