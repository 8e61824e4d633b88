package dberror_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crewlytics/attrition/api/handlers/dberror"
	"github.com/crewlytics/attrition/pkg/hr"
)

func TestClassify_DomainErrors(t *testing.T) {
	assert.Equal(t, dberror.ErrorTypeNotFound, dberror.Classify(hr.ErrNotFound))
	assert.Equal(t, dberror.ErrorTypeNotFound,
		dberror.Classify(fmt.Errorf("get employee: %w", hr.ErrNotFound)))

	assert.Equal(t, dberror.ErrorTypeIntegrity, dberror.Classify(&hr.IntegrityError{
		Constraint: "employees_pkey",
		Err:        errors.New("duplicate key value"),
	}))

	assert.Equal(t, dberror.ErrorTypeValidation, dberror.Classify(&hr.ValidationError{
		Line: 3, Field: "Age", Reason: "not an integer",
	}))

	assert.Equal(t, dberror.ErrorTypePartialSync, dberror.Classify(&hr.PartialSyncError{
		Step: "audit", Err: errors.New("insert failed"),
	}))
}

func TestClassify_DriverErrors(t *testing.T) {
	assert.Equal(t, dberror.ErrorTypeConnectivity,
		dberror.Classify(errors.New("dial tcp 127.0.0.1:5432: connection refused")))
	assert.Equal(t, dberror.ErrorTypeConnectivity,
		dberror.Classify(errors.New("server selection error: context deadline exceeded, topology kind: Single")))
	assert.Equal(t, dberror.ErrorTypeTimeout,
		dberror.Classify(context.DeadlineExceeded))
	assert.Equal(t, dberror.ErrorTypeAuth,
		dberror.Classify(errors.New("FATAL: password authentication failed for user \"hr\"")))
	assert.Equal(t, dberror.ErrorTypeUnknown,
		dberror.Classify(errors.New("something else entirely")))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, dberror.HTTPStatus(hr.ErrNotFound))
	assert.Equal(t, http.StatusBadRequest, dberror.HTTPStatus(&hr.IntegrityError{
		Constraint: "departments_department_name_key",
		Err:        errors.New("duplicate"),
	}))
	assert.Equal(t, http.StatusBadRequest, dberror.HTTPStatus(&hr.ValidationError{
		Field: "attrition", Reason: "must be Yes or No",
	}))
	assert.Equal(t, http.StatusBadGateway, dberror.HTTPStatus(&hr.PartialSyncError{
		Step: "document", Err: errors.New("update failed"),
	}))
	assert.Equal(t, http.StatusServiceUnavailable,
		dberror.HTTPStatus(errors.New("connection refused")))
	assert.Equal(t, http.StatusInternalServerError,
		dberror.HTTPStatus(errors.New("mystery")))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, dberror.IsTransient(errors.New("broken pipe")))
	assert.False(t, dberror.IsTransient(context.Canceled))
	assert.False(t, dberror.IsTransient(hr.ErrNotFound))
	assert.False(t, dberror.IsTransient(nil))
}
