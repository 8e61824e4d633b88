package hr

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a lookup by key yields no row in the target
// backend. It carries no side effects: the store is unchanged.
var ErrNotFound = errors.New("not found")

// IntegrityError reports a uniqueness or foreign-key violation. The attempted
// write was rejected in full by the backend.
type IntegrityError struct {
	Constraint string
	Err        error
}

func (e *IntegrityError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("integrity violation on %s: %v", e.Constraint, e.Err)
	}
	return fmt.Sprintf("integrity violation: %v", e.Err)
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// IsIntegrity reports whether err is, or wraps, an IntegrityError.
func IsIntegrity(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}

// ValidationError reports a malformed source row or field. During a load run
// it is per-row and non-fatal: the offending row is skipped and the run
// continues.
type ValidationError struct {
	Line   int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: invalid %s: %s", e.Line, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PartialSyncError reports that a dependent write failed after an earlier
// write in the same logical operation succeeded. Nothing is rolled back: the
// earlier write stands and the failure is surfaced so callers can observe
// the divergence.
type PartialSyncError struct {
	Step string
	Err  error
}

func (e *PartialSyncError) Error() string {
	return fmt.Sprintf("partial sync: step %s failed: %v", e.Step, e.Err)
}

func (e *PartialSyncError) Unwrap() error { return e.Err }

// IsPartialSync reports whether err is, or wraps, a PartialSyncError.
func IsPartialSync(err error) bool {
	var pe *PartialSyncError
	return errors.As(err, &pe)
}
