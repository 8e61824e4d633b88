package handlers

import (
	"net/http"
	"strconv"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

type PaginationParams struct {
	Limit int
	Skip  int
}

type PaginatedResponse[T any] struct {
	Items []T `json:"items"`
	Limit int `json:"limit"`
	Skip  int `json:"skip"`
}

// ParsePagination reads limit/skip query parameters. "offset" is
// accepted as an alias for "skip". Out-of-range values fall back to
// the defaults rather than erroring.
func ParsePagination(r *http.Request, defaultLimit int) PaginationParams {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}

	limit := defaultLimit
	skip := 0

	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
			if limit > MaxLimit {
				limit = MaxLimit
			}
		}
	}

	s := r.URL.Query().Get("skip")
	if s == "" {
		s = r.URL.Query().Get("offset")
	}
	if s != "" {
		if parsed, err := strconv.Atoi(s); err == nil && parsed >= 0 {
			skip = parsed
		}
	}

	return PaginationParams{Limit: limit, Skip: skip}
}
