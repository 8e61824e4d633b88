package server

import (
	"net/http"
	"strings"

	"github.com/crewlytics/attrition/api/metrics"
	"github.com/crewlytics/attrition/pkg/hr"
)

// handleDualAttritionEvent applies one attrition event to both backend
// views in sequence. The response always carries the per-step outcome;
// the status code distinguishes full success, partial failure and total
// failure.
func (s *Server) handleDualAttritionEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "employeeID")
	if !ok {
		s.writeBadRequest(w, "invalid employee id")
		return
	}
	var req attritionEventRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeBadRequest(w, "invalid JSON")
		return
	}
	if !hr.ValidStatus(req.Attrition) {
		s.writeBadRequest(w, "attrition must be Yes or No")
		return
	}

	outcome, err := s.dual.WriteEmployeeEvent(r.Context(), id, strings.TrimSpace(req.Attrition))

	// Unknown employee in both views is a plain 404, not a sync failure.
	if err == nil {
		missing := true
		for _, step := range outcome.Steps {
			if step.Affected > 0 {
				missing = false
				break
			}
		}
		if missing {
			s.writeStoreError(w, r, hr.ErrNotFound)
			return
		}
	}

	status := http.StatusOK
	label := "ok"
	switch {
	case err != nil && !outcome.Partial():
		status = http.StatusInternalServerError
		label = "failed"
	case outcome.Partial():
		status = http.StatusBadGateway
		label = "partial"
	}
	metrics.RecordDualWrite(label)

	if status != http.StatusOK {
		s.log.Warn("dual attrition write incomplete",
			"employee_id", id, "failed_steps", outcome.Failed(), "error", err)
	}
	s.writeJSON(w, status, outcome)
}
