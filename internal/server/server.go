// Package server exposes underwriting, training and model governance over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/governance"
	"underwriting-lab/internal/logger"
	"underwriting-lab/internal/memo"
	"underwriting-lab/internal/observability"
	"underwriting-lab/internal/registry"
	"underwriting-lab/internal/reporting"
	"underwriting-lab/internal/storage"
	"underwriting-lab/internal/training"
	"underwriting-lab/internal/underwriting"
)

// Config holds server dependencies.
type Config struct {
	Addr        string
	Log         zerolog.Logger
	Metrics     *observability.Metrics
	Underwriter *underwriting.Service
	Registry    *registry.Registry
	Guardrail   *governance.Guardrail
	Builder     *training.Builder
	Reporter    *reporting.Generator
	Memo        memo.Generator // nil disables memos
	Reports     storage.ReportStore
	Feedback    storage.FeedbackStore
	Outcomes    storage.OutcomeStore
	Audit       storage.AuditStore
	Clock       func() time.Time

	// APIKeys maps each API key to the actor it authenticates. When empty
	// the API is open and callers act as an anonymous member.
	APIKeys map[string]domain.Actor
}

// Server represents the HTTP server.
type Server struct {
	router  *chi.Mux
	server  *http.Server
	log     zerolog.Logger
	metrics *observability.Metrics
	deps    Config
	keys    map[string]domain.Actor // by key hash
	now     func() time.Time
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		log:     logger.Component(cfg.Log, "server"),
		metrics: cfg.Metrics,
		deps:    cfg,
		keys:    hashKeys(cfg.APIKeys),
		now:     cfg.Clock,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.deps.Memo == nil {
		s.deps.Memo = memo.Disabled{}
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.observeMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Post("/underwrite", s.handleUnderwrite)
		r.Post("/grade", s.handleGrade)

		r.Route("/tenants/{tenant}", func(r chi.Router) {
			r.Get("/models", s.handleListModels)
			r.Post("/models/train", s.handleTrain)
			r.Get("/models/{id}/guardrails", s.handleAssess)
			r.Post("/models/{id}/activate", s.handleActivate)

			r.Get("/audit", s.handleAudit)

			r.Get("/reports/{id}", s.handleGetReport)
			r.Get("/summary", s.handleSummary)

			r.Post("/feedback", s.handleFeedback)
			r.Post("/outcomes", s.handleOutcome)
			r.Get("/outcomes/suggestions", s.handleLinkSuggestions)
		})
	})
}

// Start starts the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// observeMiddleware logs each request and records its latency by route pattern.
func (s *Server) observeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		s.metrics.RecordHTTP(route, r.Method, http.StatusText(status), elapsed.Seconds())

		s.log.Debug().
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", elapsed).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
