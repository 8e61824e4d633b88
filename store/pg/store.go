// Package pg is the relational backend: a normalized PostgreSQL schema with
// dimension tables for departments and job roles, the employee fact table,
// and the append-only attrition audit log.
package pg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/crewlytics/attrition/pkg/hr"
)

type StoreConfig struct {
	Logger *slog.Logger
	Pool   *pgxpool.Pool
	Clock  clockwork.Clock
}

func (cfg *StoreConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Pool == nil {
		return errors.New("postgres pool is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

// Store provides all relational operations. Connections are acquired from
// the pool per statement and released on every exit path by pgx.
type Store struct {
	log   *slog.Logger
	pool  *pgxpool.Pool
	clock clockwork.Clock
}

func NewStore(cfg StoreConfig) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Store{
		log:   cfg.Logger,
		pool:  cfg.Pool,
		clock: cfg.Clock,
	}, nil
}

// Ping verifies backend connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Reset empties every HR table and restarts the surrogate-key sequences.
// Used by the loader, which is idempotent per run rather than incremental.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		TRUNCATE attrition_log, employees, job_roles, departments
		RESTART IDENTITY CASCADE
	`)
	if err != nil {
		return fmt.Errorf("failed to reset hr tables: %w", err)
	}
	return nil
}

// Postgres error codes per the SQLSTATE standard.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// mapError translates driver errors into the domain taxonomy. Connectivity
// failures pass through wrapped so dberror can classify them at the edge.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return hr.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgForeignKeyViolation, pgCheckViolation:
			return &hr.IntegrityError{Constraint: pgErr.ConstraintName, Err: err}
		}
	}
	return err
}

// CreateDepartment inserts a dimension row and returns it with its assigned
// surrogate key.
func (s *Store) CreateDepartment(ctx context.Context, name string) (hr.Department, error) {
	var d hr.Department
	err := s.pool.QueryRow(ctx, `
		INSERT INTO departments (department_name)
		VALUES ($1)
		RETURNING department_id, department_name
	`, strings.TrimSpace(name)).Scan(&d.DepartmentID, &d.DepartmentName)
	if err != nil {
		return hr.Department{}, mapError(err)
	}
	return d, nil
}

func (s *Store) GetDepartment(ctx context.Context, id int32) (hr.Department, error) {
	var d hr.Department
	err := s.pool.QueryRow(ctx, `
		SELECT department_id, department_name
		FROM departments
		WHERE department_id = $1
	`, id).Scan(&d.DepartmentID, &d.DepartmentName)
	if err != nil {
		return hr.Department{}, mapError(err)
	}
	return d, nil
}

func (s *Store) ListDepartments(ctx context.Context, limit, skip int) ([]hr.Department, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT department_id, department_name
		FROM departments
		ORDER BY department_id
		LIMIT $1 OFFSET $2
	`, limit, skip)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := []hr.Department{}
	for rows.Next() {
		var d hr.Department
		if err := rows.Scan(&d.DepartmentID, &d.DepartmentName); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// RenameDepartment is the only permitted dimension mutation.
func (s *Store) RenameDepartment(ctx context.Context, id int32, name string) (hr.Department, error) {
	var d hr.Department
	err := s.pool.QueryRow(ctx, `
		UPDATE departments
		SET department_name = $2
		WHERE department_id = $1
		RETURNING department_id, department_name
	`, id, strings.TrimSpace(name)).Scan(&d.DepartmentID, &d.DepartmentName)
	if err != nil {
		return hr.Department{}, mapError(err)
	}
	return d, nil
}

// DeleteDepartment removes a dimension row. The FK constraint rejects the
// delete while any employee still references it, so employees are never
// silently orphaned.
func (s *Store) DeleteDepartment(ctx context.Context, id int32) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM departments WHERE department_id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return hr.ErrNotFound
	}
	return nil
}

func (s *Store) CreateJobRole(ctx context.Context, name string) (hr.JobRole, error) {
	var j hr.JobRole
	err := s.pool.QueryRow(ctx, `
		INSERT INTO job_roles (job_role_name)
		VALUES ($1)
		RETURNING job_role_id, job_role_name
	`, strings.TrimSpace(name)).Scan(&j.JobRoleID, &j.JobRoleName)
	if err != nil {
		return hr.JobRole{}, mapError(err)
	}
	return j, nil
}

func (s *Store) GetJobRole(ctx context.Context, id int32) (hr.JobRole, error) {
	var j hr.JobRole
	err := s.pool.QueryRow(ctx, `
		SELECT job_role_id, job_role_name
		FROM job_roles
		WHERE job_role_id = $1
	`, id).Scan(&j.JobRoleID, &j.JobRoleName)
	if err != nil {
		return hr.JobRole{}, mapError(err)
	}
	return j, nil
}

func (s *Store) ListJobRoles(ctx context.Context, limit, skip int) ([]hr.JobRole, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT job_role_id, job_role_name
		FROM job_roles
		ORDER BY job_role_id
		LIMIT $1 OFFSET $2
	`, limit, skip)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := []hr.JobRole{}
	for rows.Next() {
		var j hr.JobRole
		if err := rows.Scan(&j.JobRoleID, &j.JobRoleName); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *Store) RenameJobRole(ctx context.Context, id int32, name string) (hr.JobRole, error) {
	var j hr.JobRole
	err := s.pool.QueryRow(ctx, `
		UPDATE job_roles
		SET job_role_name = $2
		WHERE job_role_id = $1
		RETURNING job_role_id, job_role_name
	`, id, strings.TrimSpace(name)).Scan(&j.JobRoleID, &j.JobRoleName)
	if err != nil {
		return hr.JobRole{}, mapError(err)
	}
	return j, nil
}

func (s *Store) DeleteJobRole(ctx context.Context, id int32) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM job_roles WHERE job_role_id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return hr.ErrNotFound
	}
	return nil
}
