package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crewlytics/attrition/api/handlers"
)

func TestParsePagination_Defaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/employees", nil)
	p := handlers.ParsePagination(req, 0)
	assert.Equal(t, handlers.DefaultLimit, p.Limit)
	assert.Equal(t, 0, p.Skip)
}

func TestParsePagination_SkipAndLimit(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/employees?skip=30&limit=10", nil)
	p := handlers.ParsePagination(req, 100)
	assert.Equal(t, 10, p.Limit)
	assert.Equal(t, 30, p.Skip)
}

func TestParsePagination_OffsetAlias(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/employees?offset=15", nil)
	p := handlers.ParsePagination(req, 100)
	assert.Equal(t, 15, p.Skip)
}

func TestParsePagination_ClampsAndIgnoresGarbage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/employees?limit=99999&skip=-4", nil)
	p := handlers.ParsePagination(req, 100)
	assert.Equal(t, handlers.MaxLimit, p.Limit)
	assert.Equal(t, 0, p.Skip)

	req = httptest.NewRequest(http.MethodGet, "/employees?limit=abc&skip=xyz", nil)
	p = handlers.ParsePagination(req, 25)
	assert.Equal(t, 25, p.Limit)
	assert.Equal(t, 0, p.Skip)
}
