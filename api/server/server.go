// Package server wires the HTTP surface of the attrition API: one CRUD
// sub-tree per backend plus the dual-backend attrition event endpoint.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/crewlytics/attrition/api/handlers"
	"github.com/crewlytics/attrition/api/metrics"
	"github.com/crewlytics/attrition/store/dual"
	storemongo "github.com/crewlytics/attrition/store/mongo"
	"github.com/crewlytics/attrition/store/pg"
)

// Config holds the server configuration.
type Config struct {
	Logger *slog.Logger

	ListenAddr string

	Relational *pg.Store
	Document   *storemongo.Store
	Dual       *dual.Writer

	AllowedOrigins []string

	// Requests per minute per IP on the /api/v1 sub-tree. Zero uses the
	// default.
	RateLimitPerMinute int
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8000"
	}
	if cfg.Relational == nil {
		return fmt.Errorf("relational store is required")
	}
	if cfg.Document == nil {
		return fmt.Errorf("document store is required")
	}
	if cfg.Dual == nil {
		return fmt.Errorf("dual writer is required")
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = 300
	}
	return nil
}

// Server is the attrition HTTP server.
type Server struct {
	log     *slog.Logger
	router  *chi.Mux
	pg      *pg.Store
	mongo   *storemongo.Store
	dual    *dual.Writer
	limiter *handlers.RateLimiter
	srv     *http.Server
}

// NewServer builds the router against the injected store handles.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate server config: %w", err)
	}

	s := &Server{
		log:     cfg.Logger,
		router:  chi.NewRouter(),
		pg:      cfg.Relational,
		mongo:   cfg.Document,
		dual:    cfg.Dual,
		limiter: handlers.NewRateLimiter(rate.Every(time.Minute/time.Duration(cfg.RateLimitPerMinute)), 20),
	}

	s.setupRoutes(cfg.AllowedOrigins)

	s.srv = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s, nil
}

// Handler exposes the router, primarily for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes(allowedOrigins []string) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(metrics.Middleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	s.router.Get("/", s.handleRoot)
	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(handlers.RateLimitMiddleware(s.limiter))

		r.Route("/pg", s.pgRoutes)
		r.Route("/mongo", s.mongoRoutes)

		// Dual-backend attrition event: both views updated in sequence.
		r.Post("/employees/{employeeID}/attrition", s.handleDualAttritionEvent)
	})
}

func (s *Server) pgRoutes(r chi.Router) {
	r.Route("/departments", func(r chi.Router) {
		r.Post("/", s.handlePGCreateDepartment)
		r.Get("/", s.handlePGListDepartments)
		r.Get("/{id}", s.handlePGGetDepartment)
		r.Put("/{id}", s.handlePGRenameDepartment)
		r.Delete("/{id}", s.handlePGDeleteDepartment)
	})
	r.Route("/job-roles", func(r chi.Router) {
		r.Post("/", s.handlePGCreateJobRole)
		r.Get("/", s.handlePGListJobRoles)
		r.Get("/{id}", s.handlePGGetJobRole)
		r.Put("/{id}", s.handlePGRenameJobRole)
		r.Delete("/{id}", s.handlePGDeleteJobRole)
	})
	r.Route("/employees", func(r chi.Router) {
		r.Post("/", s.handlePGCreateEmployee)
		r.Get("/", s.handlePGListEmployees)
		r.Get("/{employeeID}", s.handlePGGetEmployee)
		r.Put("/{employeeID}", s.handlePGUpdateEmployee)
		r.Delete("/{employeeID}", s.handlePGDeleteEmployee)
		r.Post("/{employeeID}/attrition", s.handlePGAttritionEvent)
		r.Get("/{employeeID}/attrition-history", s.handlePGAttritionHistory)
	})
	r.Route("/attrition-logs", func(r chi.Router) {
		r.Post("/", s.handlePGCreateLog)
		r.Get("/", s.handlePGListLogs)
		r.Get("/{logID}", s.handlePGGetLog)
		r.Delete("/{logID}", s.handlePGDeleteLog)
	})
	r.Get("/reports/department-attrition", s.handlePGDepartmentAttrition)
}

func (s *Server) mongoRoutes(r chi.Router) {
	r.Route("/departments", func(r chi.Router) {
		r.Post("/", s.handleMongoCreateDepartment)
		r.Get("/", s.handleMongoListDepartments)
		r.Get("/{id}", s.handleMongoGetDepartment)
		r.Put("/{id}", s.handleMongoRenameDepartment)
		r.Delete("/{id}", s.handleMongoDeleteDepartment)
	})
	r.Route("/job-roles", func(r chi.Router) {
		r.Post("/", s.handleMongoCreateJobRole)
		r.Get("/", s.handleMongoListJobRoles)
		r.Get("/{id}", s.handleMongoGetJobRole)
		r.Put("/{id}", s.handleMongoRenameJobRole)
		r.Delete("/{id}", s.handleMongoDeleteJobRole)
	})
	r.Route("/employees", func(r chi.Router) {
		r.Post("/", s.handleMongoCreateEmployee)
		r.Get("/", s.handleMongoListEmployees)
		r.Get("/{employeeID}", s.handleMongoGetEmployee)
		r.Put("/{employeeID}", s.handleMongoUpdateEmployee)
		r.Delete("/{employeeID}", s.handleMongoDeleteEmployee)
		r.Post("/{employeeID}/attrition", s.handleMongoAttritionEvent)
		r.Get("/{employeeID}/attrition-history", s.handleMongoAttritionHistory)
	})
	r.Route("/attrition-logs", func(r chi.Router) {
		r.Post("/", s.handleMongoCreateLog)
		r.Get("/", s.handleMongoListLogs)
		r.Get("/{logID}", s.handleMongoGetLog)
		r.Delete("/{logID}", s.handleMongoDeleteLog)
	})
	r.Get("/reports/department-attrition", s.handleMongoDepartmentAttrition)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"service": "hr-attrition-api",
		"status":  "ok",
	})
}

// handleHealth pings both backends; the service is healthy only when
// both views are reachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	type backendHealth struct {
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
	}
	resp := struct {
		Status   string                   `json:"status"`
		Backends map[string]backendHealth `json:"backends"`
	}{
		Status:   "ok",
		Backends: map[string]backendHealth{},
	}

	status := http.StatusOK
	if err := s.pg.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Backends["postgres"] = backendHealth{Status: "unreachable", Error: err.Error()}
		status = http.StatusServiceUnavailable
	} else {
		resp.Backends["postgres"] = backendHealth{Status: "ok"}
	}
	if err := s.mongo.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Backends["mongo"] = backendHealth{Status: "unreachable", Error: err.Error()}
		status = http.StatusServiceUnavailable
	} else {
		resp.Backends["mongo"] = backendHealth{Status: "ok"}
	}

	s.writeJSON(w, status, resp)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info("starting HTTP server", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.srv.Shutdown(ctx)
}
