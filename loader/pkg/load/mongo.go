package load

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/crewlytics/attrition/pkg/csvsource"
	storemongo "github.com/crewlytics/attrition/store/mongo"
)

type MongoConfig struct {
	Logger  *slog.Logger
	Store   *storemongo.Store
	CSVPath string
}

func (cfg *MongoConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Store == nil {
		return errors.New("mongo store is required")
	}
	if cfg.CSVPath == "" {
		return errors.New("csv path is required")
	}
	return nil
}

// Mongo loads the source CSV into the document backend: drop the
// collections, recreate the indexes, insert the dimension vocabularies in
// first-seen order, then one denormalized employee document plus one seed
// audit entry per source row. The vocabulary is derived here independently
// of the relational loader, over the same trimmed-name dedup key.
func Mongo(ctx context.Context, cfg MongoConfig) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, fmt.Errorf("failed to validate mongo load config: %w", err)
	}

	result := Result{RunID: uuid.New()}
	log := cfg.Logger.With("run_id", result.RunID, "backend", "mongo")

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
	if err := cfg.Store.EnsureIndexes(ctx); err != nil {
		return result, err
	}

	for _, name := range file.Distinct(csvsource.ColDepartment) {
		if _, err := cfg.Store.CreateDepartment(ctx, name); err != nil {
			return result, fmt.Errorf("failed to insert department %q: %w", name, err)
		}
		result.Departments++
	}
	for _, name := range file.Distinct(csvsource.ColJobRole) {
		if _, err := cfg.Store.CreateJobRole(ctx, name); err != nil {
			return result, fmt.Errorf("failed to insert job role %q: %w", name, err)
		}
		result.JobRoles++
	}

	for _, row := range file.Rows() {
		se, err := row.ParseEmployee()
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedRow{Line: row.Line, Reason: err.Error()})
			log.Warn("skipping source row", "line", row.Line, "error", err)
			continue
		}

		doc := storemongo.EmployeeDocFromSource(se.Employee, se.Department, se.JobRole)
		if _, err := cfg.Store.CreateEmployee(ctx, doc); err != nil {
			result.Skipped = append(result.Skipped, SkippedRow{
				Line:       row.Line,
				EmployeeID: se.EmployeeID,
				Reason:     err.Error(),
			})
			log.Warn("skipping source row", "line", row.Line, "employee_id", se.EmployeeID, "error", err)
			continue
		}
		result.Employees++

		if _, err := cfg.Store.RecordStatus(ctx, se.EmployeeID, se.Attrition); err != nil {
			result.AuditFailures++
			log.Warn("employee inserted but audit seed failed", "employee_id", se.EmployeeID, "error", err)
		}
	}

	log.Info("mongo load complete",
		"departments", result.Departments,
		"job_roles", result.JobRoles,
		"employees", result.Employees,
		"skipped", len(result.Skipped),
		"audit_failures", result.AuditFailures,
	)
	return result, nil
}
