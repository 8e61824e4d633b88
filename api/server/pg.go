package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/crewlytics/attrition/api/handlers"
	"github.com/crewlytics/attrition/api/metrics"
	"github.com/crewlytics/attrition/pkg/hr"
	"github.com/crewlytics/attrition/store/pg"
)

type departmentRequest struct {
	DepartmentName string `json:"department_name"`
}

type jobRoleRequest struct {
	JobRoleName string `json:"job_role_name"`
}

type attritionEventRequest struct {
	Attrition string `json:"attrition"`
}

type logRequest struct {
	EmployeeID      int64  `json:"employee_id"`
	AttritionStatus string `json:"attrition_status"`
}

type attritionEventResponse struct {
	EmployeeID int64  `json:"employee_id"`
	Attrition  string `json:"attrition"`
	Affected   int64  `json:"affected"`
}

func (s *Server) handlePGCreateDepartment(w http.ResponseWriter, r *http.Request) {
	var req departmentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeBadRequest(w, "invalid JSON")
		return
	}
	start := time.Now()
	dept, err := s.pg.CreateDepartment(r.Context(), req.DepartmentName)
	metrics.RecordStoreQuery(metrics.BackendRelational, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, dept)
}

func (s *Server) handlePGListDepartments(w http.ResponseWriter, r *http.Request) {
	p := handlers.ParsePagination(r, handlers.DefaultLimit)
	start := time.Now()
	depts, err := s.pg.ListDepartments(r.Context(), p.Limit, p.Skip)
	metrics.RecordStoreQuery(metrics.BackendRelational, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, handlers.PaginatedResponse[hr.Department]{
		Items: depts, Limit: p.Limit, Skip: p.Skip,
	})
}

func (s *Server) handlePGGetDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt32(r, "id")
	if !ok {
		s.writeBadRequest(w, "invalid department id")
		return
	}
	start := time.Now()
	dept, err := s.pg.GetDepartment(r.Context(), id)
	metrics.RecordStoreQuery(metrics.BackendRelational, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, dept)
}

func (s *Server) handlePGRenameDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt32(r, "id")
	if !ok {
		s.writeBadRequest(w, "invalid department id")
		return
	}
	var req departmentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeBadRequest(w, "invalid JSON")
		return
	}
	start := time.Now()
	dept, err := s.pg.RenameDepartment(r.Context(), id, req.DepartmentName)
	metrics.RecordStoreQuery(metrics.BackendRelational, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, dept)
}

func (s *Server) handlePGDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt32(r, "id")
	if !ok {
		s.writeBadRequest(w, "invalid department id")
		return
	}
	start := time.Now()
	err := s.pg.DeleteDepartment(r.Context(), id)
	metrics.RecordStoreQuery(metrics.BackendRelational, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePGCreateJobRole(w http.ResponseWriter, r *http.Request) {
	var req jobRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeBadRequest(w, "invalid JSON")
		return
	}
	start := time.Now()
	role, err := s.pg.CreateJobRole(r.Context(), req.JobRoleName)
	metrics.RecordStoreQuery(metrics.BackendRelational, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, role)
}

func (s *Server) handlePGListJobRoles(w http.ResponseWriter, r *http.Request) {
	p := handlers.ParsePagination(r, handlers.DefaultLimit)
	start := time.Now()
	roles, err := s.pg.ListJobRoles(r.Context(), p.Limit, p.Skip)
	metrics.RecordStoreQuery(metrics.BackendRelational, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, handlers.PaginatedResponse[hr.JobRole]{
		Items: roles, Limit: p.Limit, Skip: p.Skip,
	})
}

func (s *Server) handlePGGetJobRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt32(r, "id")
	if !ok {
		s.writeBadRequest(w, "invalid job role id")
		return
	}
	start := time.Now()
	role, err := s.pg.GetJobRole(r.Context(), id)
	metrics.RecordStoreQuery(metrics.BackendRelational, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, role)
}

func (s *Server) handlePGRenameJobRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt32(r, "id")
	if !ok {
		s.writeBadRequest(w, "invalid job role id")
		return
	}
	var req jobRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeBadRequest(w, "invalid JSON")
		return
	}
	start := time.Now()
	role, err := s.pg.RenameJobRole(r.Context(), id, req.JobRoleName)
	metrics.RecordStoreQuery(metrics.BackendRelational, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, role)
}

func (s *Server) handlePGDeleteJobRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt32(r, "id")
	if !ok {
		s.writeBadRequest(w, "invalid job role id")
		return
	}
	start := time.Now()
	err := s.pg.DeleteJobRole(r.Context(), id)
	metrics.RecordStoreQuery(metrics.BackendRelational, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePGCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var e hr.Employee
	if err := decodeJSON(r, &e); err != nil {
		s.writeBadRequest(w, "invalid JSON")
		return
	}
	if !hr.ValidStatus(e.Attrition) {
		s.writeBadRequest(w, "attrition must be Yes or No")
		return
	}
	// Store the canonical form so the attrition equality filter matches.
	e.Attrition = strings.TrimSpace(e.Attrition)
	start := time.Now()
	err := s.pg.CreateEmployee(r.Context(), e)
	metrics.RecordStoreQuery(metrics.BackendRelational, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handlePGListEmployees(w http.ResponseWriter, r *http.Request) {
	p := handlers.ParsePagination(r, handlers.DefaultLimit)

	var filter pg.EmployeeFilter
	if a := strings.TrimSpace(r.URL.Query().Get("attrition")); a != "" {
		if !hr.ValidStatus(a) {
			s.writeBadRequest(w, "attrition must be Yes or No")
			return
		}
		filter.Attrition = &a
	}
	if d := r.URL.Query().Get("department_id"); d != "" {
		id, err := strconv.ParseInt(d, 10, 32)
		if err != nil {
			s.writeBadRequest(w, "invalid department_id")
			return
		}
		id32 := int32(id)
		filter.DepartmentID = &id32
	}

	start := time.Now()
	employees, err := s.pg.ListEmployees(r.Context(), filter, p.Limit, p.Skip)
	metrics.RecordStoreQuery(metrics.BackendRelational, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, handlers.PaginatedResponse[hr.Employee]{
		Items: employees, Limit: p.Limit, Skip: p.Skip,
	})
}

func (s *Server) handlePGGetEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "employeeID")
	if !ok {
		s.writeBadRequest(w, "invalid employee id")
		return
	}
	start := time.Now()
	e, err := s.pg.GetEmployee(r.Context(), id)
	metrics.RecordStoreQuery(metrics.BackendRelational, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, e)
}

func (s *Server) handlePGUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "employeeID")
	if !ok {
		s.writeBadRequest(w, "invalid employee id")
		return
	}
	var u pg.EmployeeUpdate
	if err := decodeJSON(r, &u); err != nil {
		s.writeBadRequest(w, "invalid JSON")
		return
	}
	if u.Attrition != nil {
		if !hr.ValidStatus(*u.Attrition) {
			s.writeBadRequest(w, "attrition must be Yes or No")
			return
		}
		trimmed := strings.TrimSpace(*u.Attrition)
		u.Attrition = &trimmed
	}
	start := time.Now()
	e, err := s.pg.UpdateEmployee(r.Context(), id, u)
	metrics.RecordStoreQuery(metrics.BackendRelational, time.Since(start), err)
	if err != nil {
		if errors.Is(err, pg.ErrNoFieldsToUpdate) {
			s.writeBadRequest(w, "no fields to update")
			return
		}
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, e)
}

func (s *Server) handlePGDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "employeeID")
	if !ok {
		s.writeBadRequest(w, "invalid employee id")
		return
	}
	start := time.Now()
	err := s.pg.DeleteEmployee(r.Context(), id)
	metrics.RecordStoreQuery(metrics.BackendRelational, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePGAttritionEvent updates the employee's status and appends one
// audit entry.
func (s *Server) handlePGAttritionEvent(w http.ResponseWriter, r *http.Request) {
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
	start := time.Now()
	affected, err := s.pg.UpdateEmployeeAttrition(r.Context(), id, strings.TrimSpace(req.Attrition))
	metrics.RecordStoreQuery(metrics.BackendRelational, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if affected == 0 {
		s.writeStoreError(w, r, hr.ErrNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, attritionEventResponse{
		EmployeeID: id,
		Attrition:  strings.TrimSpace(req.Attrition),
		Affected:   affected,
	})
}

// handlePGAttritionHistory streams the employee's audit history,
// newest first, bounded by the pagination window.
func (s *Server) handlePGAttritionHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "employeeID")
	if !ok {
		s.writeBadRequest(w, "invalid employee id")
		return
	}
	p := handlers.ParsePagination(r, handlers.DefaultLimit)

	entries := make([]hr.AttritionLogEntry, 0, p.Limit)
	skipped := 0
	start := time.Now()
	for entry, err := range s.pg.StatusHistory(r.Context(), id) {
		if err != nil {
			metrics.RecordStoreQuery(metrics.BackendRelational, time.Since(start), err)
			s.writeStoreError(w, r, err)
			return
		}
		if skipped < p.Skip {
			skipped++
			continue
		}
		entries = append(entries, entry)
		if len(entries) >= p.Limit {
			break
		}
	}
	metrics.RecordStoreQuery(metrics.BackendRelational, time.Since(start), nil)
	s.writeJSON(w, http.StatusOK, handlers.PaginatedResponse[hr.AttritionLogEntry]{
		Items: entries, Limit: p.Limit, Skip: p.Skip,
	})
}

func (s *Server) handlePGCreateLog(w http.ResponseWriter, r *http.Request) {
	var req logRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeBadRequest(w, "invalid JSON")
		return
	}
	if !hr.ValidStatus(req.AttritionStatus) {
		s.writeBadRequest(w, "attrition_status must be Yes or No")
		return
	}
	start := time.Now()
	entry, err := s.pg.RecordStatus(r.Context(), req.EmployeeID, strings.TrimSpace(req.AttritionStatus))
	metrics.RecordStoreQuery(metrics.BackendRelational, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handlePGListLogs(w http.ResponseWriter, r *http.Request) {
	p := handlers.ParsePagination(r, handlers.DefaultLimit)

	var filter pg.LogFilter
	if e := r.URL.Query().Get("employee_id"); e != "" {
		id, err := strconv.ParseInt(e, 10, 64)
		if err != nil {
			s.writeBadRequest(w, "invalid employee_id")
			return
		}
		filter.EmployeeID = &id
	}

	start := time.Now()
	logs, err := s.pg.ListLogs(r.Context(), filter, p.Limit, p.Skip)
	metrics.RecordStoreQuery(metrics.BackendRelational, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, handlers.PaginatedResponse[hr.AttritionLogEntry]{
		Items: logs, Limit: p.Limit, Skip: p.Skip,
	})
}

func (s *Server) handlePGGetLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "logID")
	if !ok {
		s.writeBadRequest(w, "invalid log id")
		return
	}
	start := time.Now()
	entry, err := s.pg.GetLog(r.Context(), id)
	metrics.RecordStoreQuery(metrics.BackendRelational, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handlePGDeleteLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "logID")
	if !ok {
		s.writeBadRequest(w, "invalid log id")
		return
	}
	start := time.Now()
	err := s.pg.DeleteLog(r.Context(), id)
	metrics.RecordStoreQuery(metrics.BackendRelational, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePGDepartmentAttrition(w http.ResponseWriter, r *http.Request) {
	var department *string
	if d := strings.TrimSpace(r.URL.Query().Get("department")); d != "" {
		department = &d
	}
	start := time.Now()
	stats, err := s.pg.DepartmentAttritionStats(r.Context(), department)
	metrics.RecordStoreQuery(metrics.BackendRelational, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}
