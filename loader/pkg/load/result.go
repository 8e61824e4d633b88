// Package load populates the two backends from the source CSV. Each backend
// has its own loader; both derive the dimension vocabulary independently
// over the same dedup key (the trimmed name) so the vocabularies agree even
// though surrogate keys differ. A load run is idempotent, not incremental:
// it resets the target and rebuilds it.
package load

import (
	"github.com/google/uuid"
)

// SkippedRow records one source row a load run rejected. Row errors are
// per-row and non-fatal; the run continues, and the skip list makes the
// policy observable instead of silent.
type SkippedRow struct {
	Line       int    `json:"line"`
	EmployeeID int64  `json:"employee_id,omitempty"`
	Reason     string `json:"reason"`
}

// Result summarizes one load run against one backend.
type Result struct {
	RunID         uuid.UUID    `json:"run_id"`
	Departments   int          `json:"departments"`
	JobRoles      int          `json:"job_roles"`
	Employees     int          `json:"employees"`
	Skipped       []SkippedRow `json:"skipped,omitempty"`
	AuditFailures int          `json:"audit_failures,omitempty"`
}
