// Package dual sequences the same employee event across both backends.
// There is no shared transaction and no rollback: the two stores are
// alternative views that callers update explicitly, and this writer exists
// so partial failure is observable rather than hidden.
package dual

import (
	"context"
	"errors"
	"log/slog"

	"github.com/crewlytics/attrition/pkg/hr"
)

// AttritionUpdater is the slice of a backend this writer needs: set the
// employee's current status and append the audit entry (trigger semantics),
// returning the affected row count.
type AttritionUpdater interface {
	UpdateEmployeeAttrition(ctx context.Context, employeeID int64, newStatus string) (int64, error)
}

// Step names of an employee event, in execution order.
const (
	StepRelational = "relational"
	StepDocument   = "document"
)

// StepResult is the recorded outcome of one step.
type StepResult struct {
	Step     string `json:"step"`
	Affected int64  `json:"affected"`
	Err      error  `json:"-"`
	Error    string `json:"error,omitempty"`
}

// EventOutcome records per-step outcomes of one WriteEmployeeEvent call.
type EventOutcome struct {
	EmployeeID int64        `json:"employee_id"`
	Status     string       `json:"status"`
	Steps      []StepResult `json:"steps"`
}

// Failed returns the names of the steps that returned an error.
func (o EventOutcome) Failed() []string {
	var out []string
	for _, s := range o.Steps {
		if s.Err != nil {
			out = append(out, s.Step)
		}
	}
	return out
}

// Partial reports whether some steps succeeded and some failed.
func (o EventOutcome) Partial() bool {
	n := len(o.Failed())
	return n > 0 && n < len(o.Steps)
}

type WriterConfig struct {
	Logger     *slog.Logger
	Relational AttritionUpdater
	Document   AttritionUpdater
}

func (cfg *WriterConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Relational == nil {
		return errors.New("relational store is required")
	}
	if cfg.Document == nil {
		return errors.New("document store is required")
	}
	return nil
}

type Writer struct {
	log        *slog.Logger
	relational AttritionUpdater
	document   AttritionUpdater
}

func NewWriter(cfg WriterConfig) (*Writer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Writer{
		log:        cfg.Logger,
		relational: cfg.Relational,
		document:   cfg.Document,
	}, nil
}

// WriteEmployeeEvent applies the status change to the relational backend,
// then the document backend, recording each step's outcome. Every step runs
// regardless of earlier failures so the outcome shows exactly which views
// diverged. The returned error is a PartialSyncError when some but not all
// steps failed, the joined step errors when all failed, and nil otherwise.
func (w *Writer) WriteEmployeeEvent(ctx context.Context, employeeID int64, newStatus string) (EventOutcome, error) {
	outcome := EventOutcome{EmployeeID: employeeID, Status: newStatus}

	steps := []struct {
		name  string
		store AttritionUpdater
	}{
		{StepRelational, w.relational},
		{StepDocument, w.document},
	}
	for _, step := range steps {
		affected, err := step.store.UpdateEmployeeAttrition(ctx, employeeID, newStatus)
		res := StepResult{Step: step.name, Affected: affected, Err: err}
		if err != nil {
			res.Error = err.Error()
			w.log.Warn("employee event step failed",
				"step", step.name, "employee_id", employeeID, "status", newStatus, "error", err)
		}
		outcome.Steps = append(outcome.Steps, res)
	}

	failed := outcome.Failed()
	switch {
	case len(failed) == 0:
		return outcome, nil
	case len(failed) == len(outcome.Steps):
		var errs []error
		for _, s := range outcome.Steps {
			errs = append(errs, s.Err)
		}
		return outcome, errors.Join(errs...)
	default:
		return outcome, &hr.PartialSyncError{
			Step: failed[0],
			Err:  outcome.Steps[stepIndex(outcome.Steps, failed[0])].Err,
		}
	}
}

func stepIndex(steps []StepResult, name string) int {
	for i, s := range steps {
		if s.Step == name {
			return i
		}
	}
	return -1
}
