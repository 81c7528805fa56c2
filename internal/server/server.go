// Package server provides the HTTP server and routing for the scan API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"coinscan/internal/domain"
	"coinscan/internal/events"
	"coinscan/internal/scan"
)

// Config holds server configuration.
type Config struct {
	Log          zerolog.Logger
	Port         int
	DevMode      bool
	Orchestrator *scan.Orchestrator
	Monitor      *scan.Monitor
	Bus          *events.Bus
	RunRepo      domain.ScanRunRepository
	RecRepo      domain.RecommendationRepository
}

// Server is the HTTP server.
type Server struct {
	router       *chi.Mux
	server       *http.Server
	log          zerolog.Logger
	orchestrator *scan.Orchestrator
	monitor      *scan.Monitor
	bus          *events.Bus
	runRepo      domain.ScanRunRepository
	recRepo      domain.RecommendationRepository
	startedAt    time.Time
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		router:       chi.NewRouter(),
		log:          cfg.Log.With().Str("component", "server").Logger(),
		orchestrator: cfg.Orchestrator,
		monitor:      cfg.Monitor,
		bus:          cfg.Bus,
		runRepo:      cfg.RunRepo,
		recRepo:      cfg.RecRepo,
		startedAt:    time.Now().UTC(),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.router,
		// No write timeout: the scan endpoint holds the connection for the
		// duration of a run, bounded by the scan type's own deadline
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware.
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleLiveness)

	s.router.Route("/api/scan", func(r chi.Router) {
		r.Post("/", s.handleStartScan)
		r.Post("/cancel", s.handleCancelScan)
		r.Get("/health", s.handleScanHealth)
		r.Get("/types", s.handleScanTypes)
		r.Get("/runs", s.handleRecentRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Get("/events", s.handleEvents)
	})
}

// Start begins listening. Blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server starting")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("HTTP server shutting down")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs each request with its duration and status.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}
