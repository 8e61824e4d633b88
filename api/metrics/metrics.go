package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Backend label values.
const (
	BackendRelational = "postgres"
	BackendDocument   = "mongo"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hr_attrition_api_build_info",
			Help: "Build information of the attrition API",
		},
		[]string{"version", "commit", "date"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hr_attrition_api_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hr_attrition_api_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hr_attrition_api_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Store metrics
	StoreQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hr_attrition_store_queries_total",
			Help: "Total number of store operations by backend",
		},
		[]string{"backend", "status"},
	)

	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hr_attrition_store_query_duration_seconds",
			Help:    "Duration of store operations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"backend"},
	)

	// Dual-write metrics
	DualWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hr_attrition_dual_writes_total",
			Help: "Total number of dual-backend attrition writes",
		},
		[]string{"outcome"}, // "ok", "partial", "failed"
	)

	// Loader metrics
	LoadRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hr_attrition_load_runs_total",
			Help: "Total number of CSV load runs",
		},
		[]string{"target", "status"},
	)

	LoadRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hr_attrition_load_rows_total",
			Help: "Total number of CSV rows processed by load runs",
		},
		[]string{"target", "outcome"}, // "inserted", "skipped"
	)

	LoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hr_attrition_load_duration_seconds",
			Help:    "Duration of CSV load runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
		},
		[]string{"target"},
	)
)

// Middleware returns a chi middleware that records HTTP metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		// Use the route pattern if available, otherwise use the path
		path := chi.RouteContext(r.Context()).RoutePattern()
		if path == "" {
			path = r.URL.Path
		}

		status := strconv.Itoa(ww.Status())
		duration := time.Since(start).Seconds()

		HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// RecordStoreQuery records metrics for one store operation.
func RecordStoreQuery(backend string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StoreQueriesTotal.WithLabelValues(backend, status).Inc()
	StoreQueryDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// RecordDualWrite records the outcome of a dual-backend write.
func RecordDualWrite(outcome string) {
	DualWritesTotal.WithLabelValues(outcome).Inc()
}

// RecordLoadRun records metrics for a completed load run.
func RecordLoadRun(target string, duration time.Duration, inserted, skipped int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	LoadRunsTotal.WithLabelValues(target, status).Inc()
	LoadDuration.WithLabelValues(target).Observe(duration.Seconds())
	if inserted > 0 {
		LoadRowsTotal.WithLabelValues(target, "inserted").Add(float64(inserted))
	}
	if skipped > 0 {
		LoadRowsTotal.WithLabelValues(target, "skipped").Add(float64(skipped))
	}
}
