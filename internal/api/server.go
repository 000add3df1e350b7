// internal/api/server.go
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"solar-pumping-workers/internal/common/logger"
	"solar-pumping-workers/internal/history"
	"solar-pumping-workers/internal/irradiation"
	"solar-pumping-workers/internal/sizing"
	"solar-pumping-workers/pkg/registry"
)

// SizingService is what the handlers call into.
type SizingService interface {
	Calculate(ctx context.Context, req sizing.SizingRequest) (*history.Simulation, error)
	HourlyProduction(ctx context.Context, lat, lon, kwc float64) (irradiation.HourlyProfile, error)
	History(ctx context.Context, limit int) ([]history.Simulation, error)
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Config struct {
	Address        string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

type Server struct {
	router   *chi.Mux
	server   *http.Server
	service  SizingService
	registry *registry.ActivityRegistry
	checks   map[string]ReadinessCheck
	logger   logger.Logger
}

func NewServer(cfg Config, service SizingService, reg *registry.ActivityRegistry, checks map[string]ReadinessCheck, log logger.Logger) *Server {
	if reg == nil {
		reg = registry.Default()
	}
	s := &Server{
		router:   chi.NewRouter(),
		service:  service,
		registry: reg,
		checks:   checks,
		logger:   logger.ForComponent(log, "http"),
	}

	s.setupMiddleware(cfg.AllowedOrigins)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware(origins []string) {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ready", s.handleReady)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/calculate", s.handleCalculate)
		r.Post("/hourly-production", s.handleHourlyProduction)
		r.Get("/history", s.handleHistory)
	})
}

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", map[string]interface{}{"address": s.server.Addr})
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server", nil)
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug("HTTP request", map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"durationMs": time.Since(start).Milliseconds(),
			"requestId":  middleware.GetReqID(r.Context()),
		})
	})
}
