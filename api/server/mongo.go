package server

import (
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/crewlytics/attrition/api/handlers"
	"github.com/crewlytics/attrition/api/metrics"
	"github.com/crewlytics/attrition/pkg/hr"
	storemongo "github.com/crewlytics/attrition/store/mongo"
)

// mongoUpdatableFields whitelists the document fields a partial
// employee update may touch. employee_id and _id are immutable;
// attrition_status changes go through the attrition event endpoint so
// the audit trail stays complete.
type mongoFieldKind int

const (
	mongoFieldInt mongoFieldKind = iota
	mongoFieldString
)

var mongoUpdatableFields = map[string]mongoFieldKind{
	"age":                        mongoFieldInt,
	"gender":                     mongoFieldString,
	"education":                  mongoFieldInt,
	"education_field":            mongoFieldString,
	"marital_status":             mongoFieldString,
	"business_travel":            mongoFieldString,
	"distance_from_home":         mongoFieldInt,
	"job_level":                  mongoFieldInt,
	"job_involvement":            mongoFieldInt,
	"job_satisfaction":           mongoFieldInt,
	"performance_rating":         mongoFieldInt,
	"environment_satisfaction":   mongoFieldInt,
	"work_life_balance":          mongoFieldInt,
	"total_working_years":        mongoFieldInt,
	"years_at_company":           mongoFieldInt,
	"years_in_current_role":      mongoFieldInt,
	"years_since_last_promotion": mongoFieldInt,
	"years_with_curr_manager":    mongoFieldInt,
	"hourly_rate":                mongoFieldInt,
	"monthly_income":             mongoFieldInt,
	"monthly_rate":               mongoFieldInt,
	"daily_rate":                 mongoFieldInt,
	"num_companies_worked":       mongoFieldInt,
	"stock_option_level":         mongoFieldInt,
	"over_time":                  mongoFieldString,
	"over18":                     mongoFieldString,
	"percent_salary_hike":        mongoFieldInt,
	"department":                 mongoFieldString,
	"job_role":                   mongoFieldString,
}

// coerceMongoField validates a raw JSON value against the field's document
// type so a partial update cannot change a field's schema.
func coerceMongoField(kind mongoFieldKind, v any) (any, bool) {
	switch kind {
	case mongoFieldInt:
		f, ok := v.(float64)
		if !ok || f != math.Trunc(f) {
			return nil, false
		}
		return int(f), true
	case mongoFieldString:
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		return strings.TrimSpace(s), true
	}
	return nil, false
}

func pathObjectID(r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	return id, err == nil
}

func (s *Server) handleMongoCreateDepartment(w http.ResponseWriter, r *http.Request) {
	var req departmentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeBadRequest(w, "invalid JSON")
		return
	}
	start := time.Now()
	doc, err := s.mongo.CreateDepartment(r.Context(), req.DepartmentName)
	metrics.RecordStoreQuery(metrics.BackendDocument, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleMongoListDepartments(w http.ResponseWriter, r *http.Request) {
	p := handlers.ParsePagination(r, handlers.DefaultLimit)
	start := time.Now()
	docs, err := s.mongo.ListDepartments(r.Context(), p.Limit, p.Skip)
	metrics.RecordStoreQuery(metrics.BackendDocument, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, handlers.PaginatedResponse[storemongo.DepartmentDoc]{
		Items: docs, Limit: p.Limit, Skip: p.Skip,
	})
}

func (s *Server) handleMongoGetDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathObjectID(r, "id")
	if !ok {
		s.writeBadRequest(w, "invalid department id")
		return
	}
	start := time.Now()
	doc, err := s.mongo.GetDepartment(r.Context(), id)
	metrics.RecordStoreQuery(metrics.BackendDocument, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleMongoRenameDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathObjectID(r, "id")
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
	doc, err := s.mongo.RenameDepartment(r.Context(), id, req.DepartmentName)
	metrics.RecordStoreQuery(metrics.BackendDocument, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleMongoDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathObjectID(r, "id")
	if !ok {
		s.writeBadRequest(w, "invalid department id")
		return
	}
	start := time.Now()
	err := s.mongo.DeleteDepartment(r.Context(), id)
	metrics.RecordStoreQuery(metrics.BackendDocument, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMongoCreateJobRole(w http.ResponseWriter, r *http.Request) {
	var req jobRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeBadRequest(w, "invalid JSON")
		return
	}
	start := time.Now()
	doc, err := s.mongo.CreateJobRole(r.Context(), req.JobRoleName)
	metrics.RecordStoreQuery(metrics.BackendDocument, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleMongoListJobRoles(w http.ResponseWriter, r *http.Request) {
	p := handlers.ParsePagination(r, handlers.DefaultLimit)
	start := time.Now()
	docs, err := s.mongo.ListJobRoles(r.Context(), p.Limit, p.Skip)
	metrics.RecordStoreQuery(metrics.BackendDocument, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, handlers.PaginatedResponse[storemongo.JobRoleDoc]{
		Items: docs, Limit: p.Limit, Skip: p.Skip,
	})
}

func (s *Server) handleMongoGetJobRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathObjectID(r, "id")
	if !ok {
		s.writeBadRequest(w, "invalid job role id")
		return
	}
	start := time.Now()
	doc, err := s.mongo.GetJobRole(r.Context(), id)
	metrics.RecordStoreQuery(metrics.BackendDocument, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleMongoRenameJobRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathObjectID(r, "id")
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
	doc, err := s.mongo.RenameJobRole(r.Context(), id, req.JobRoleName)
	metrics.RecordStoreQuery(metrics.BackendDocument, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleMongoDeleteJobRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathObjectID(r, "id")
	if !ok {
		s.writeBadRequest(w, "invalid job role id")
		return
	}
	start := time.Now()
	err := s.mongo.DeleteJobRole(r.Context(), id)
	metrics.RecordStoreQuery(metrics.BackendDocument, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMongoCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var doc storemongo.EmployeeDoc
	if err := decodeJSON(r, &doc); err != nil {
		s.writeBadRequest(w, "invalid JSON")
		return
	}
	if !hr.ValidStatus(doc.AttritionStatus) {
		s.writeBadRequest(w, "attrition_status must be Yes or No")
		return
	}
	// Store the canonical form so the attrition equality filter matches.
	doc.AttritionStatus = strings.TrimSpace(doc.AttritionStatus)
	doc.ID = primitive.NilObjectID
	start := time.Now()
	created, err := s.mongo.CreateEmployee(r.Context(), doc)
	metrics.RecordStoreQuery(metrics.BackendDocument, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleMongoListEmployees(w http.ResponseWriter, r *http.Request) {
	p := handlers.ParsePagination(r, handlers.DefaultLimit)

	var filter storemongo.EmployeeFilter
	if a := strings.TrimSpace(r.URL.Query().Get("attrition")); a != "" {
		if !hr.ValidStatus(a) {
			s.writeBadRequest(w, "attrition must be Yes or No")
			return
		}
		filter.Attrition = &a
	}
	if d := strings.TrimSpace(r.URL.Query().Get("department")); d != "" {
		filter.Department = &d
	}

	start := time.Now()
	docs, err := s.mongo.ListEmployees(r.Context(), filter, p.Limit, p.Skip)
	metrics.RecordStoreQuery(metrics.BackendDocument, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, handlers.PaginatedResponse[storemongo.EmployeeDoc]{
		Items: docs, Limit: p.Limit, Skip: p.Skip,
	})
}

func (s *Server) handleMongoGetEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "employeeID")
	if !ok {
		s.writeBadRequest(w, "invalid employee id")
		return
	}
	start := time.Now()
	doc, err := s.mongo.GetEmployee(r.Context(), id)
	metrics.RecordStoreQuery(metrics.BackendDocument, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleMongoUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "employeeID")
	if !ok {
		s.writeBadRequest(w, "invalid employee id")
		return
	}
	var raw map[string]any
	if err := decodeJSON(r, &raw); err != nil {
		s.writeBadRequest(w, "invalid JSON")
		return
	}
	fields := bson.M{}
	for k, v := range raw {
		kind, ok := mongoUpdatableFields[k]
		if !ok {
			s.writeBadRequest(w, "field cannot be updated: "+k)
			return
		}
		coerced, ok := coerceMongoField(kind, v)
		if !ok {
			s.writeBadRequest(w, "invalid value for field: "+k)
			return
		}
		fields[k] = coerced
	}
	if len(fields) == 0 {
		s.writeBadRequest(w, "no fields to update")
		return
	}
	start := time.Now()
	doc, err := s.mongo.UpdateEmployee(r.Context(), id, fields)
	metrics.RecordStoreQuery(metrics.BackendDocument, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleMongoDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "employeeID")
	if !ok {
		s.writeBadRequest(w, "invalid employee id")
		return
	}
	start := time.Now()
	err := s.mongo.DeleteEmployee(r.Context(), id)
	metrics.RecordStoreQuery(metrics.BackendDocument, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMongoAttritionEvent(w http.ResponseWriter, r *http.Request) {
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
	affected, err := s.mongo.UpdateEmployeeAttrition(r.Context(), id, strings.TrimSpace(req.Attrition))
	metrics.RecordStoreQuery(metrics.BackendDocument, time.Since(start), err)
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

func (s *Server) handleMongoAttritionHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "employeeID")
	if !ok {
		s.writeBadRequest(w, "invalid employee id")
		return
	}
	p := handlers.ParsePagination(r, handlers.DefaultLimit)

	entries := make([]storemongo.LogDoc, 0, p.Limit)
	skipped := 0
	start := time.Now()
	for entry, err := range s.mongo.StatusHistory(r.Context(), id) {
		if err != nil {
			metrics.RecordStoreQuery(metrics.BackendDocument, time.Since(start), err)
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
	metrics.RecordStoreQuery(metrics.BackendDocument, time.Since(start), nil)
	s.writeJSON(w, http.StatusOK, handlers.PaginatedResponse[storemongo.LogDoc]{
		Items: entries, Limit: p.Limit, Skip: p.Skip,
	})
}

func (s *Server) handleMongoCreateLog(w http.ResponseWriter, r *http.Request) {
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
	doc, err := s.mongo.RecordStatus(r.Context(), req.EmployeeID, strings.TrimSpace(req.AttritionStatus))
	metrics.RecordStoreQuery(metrics.BackendDocument, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleMongoListLogs(w http.ResponseWriter, r *http.Request) {
	p := handlers.ParsePagination(r, handlers.DefaultLimit)

	var filter storemongo.LogFilter
	if e := r.URL.Query().Get("employee_id"); e != "" {
		id, ok := parseInt64(e)
		if !ok {
			s.writeBadRequest(w, "invalid employee_id")
			return
		}
		filter.EmployeeID = &id
	}

	start := time.Now()
	docs, err := s.mongo.ListLogs(r.Context(), filter, p.Limit, p.Skip)
	metrics.RecordStoreQuery(metrics.BackendDocument, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, handlers.PaginatedResponse[storemongo.LogDoc]{
		Items: docs, Limit: p.Limit, Skip: p.Skip,
	})
}

func (s *Server) handleMongoGetLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathObjectID(r, "logID")
	if !ok {
		s.writeBadRequest(w, "invalid log id")
		return
	}
	start := time.Now()
	doc, err := s.mongo.GetLog(r.Context(), id)
	metrics.RecordStoreQuery(metrics.BackendDocument, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleMongoDeleteLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathObjectID(r, "logID")
	if !ok {
		s.writeBadRequest(w, "invalid log id")
		return
	}
	start := time.Now()
	err := s.mongo.DeleteLog(r.Context(), id)
	metrics.RecordStoreQuery(metrics.BackendDocument, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMongoDepartmentAttrition(w http.ResponseWriter, r *http.Request) {
	var department *string
	if d := strings.TrimSpace(r.URL.Query().Get("department")); d != "" {
		department = &d
	}
	start := time.Now()
	stats, err := s.mongo.DepartmentAttritionStats(r.Context(), department)
	metrics.RecordStoreQuery(metrics.BackendDocument, time.Since(start), err)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}
