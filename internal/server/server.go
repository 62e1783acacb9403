// Package server exposes the scanner over HTTP: scan runs and results,
// ad-hoc VRP and score evaluation, history queries and system status.
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

	"github.com/aristath/earnscan/internal/database"
	"github.com/aristath/earnscan/internal/domain"
	"github.com/aristath/earnscan/internal/modules/history"
	"github.com/aristath/earnscan/internal/modules/scanner"
	"github.com/aristath/earnscan/internal/scheduler"
)

// ScanStore serves persisted scan runs.
type ScanStore interface {
	GetScan(id string) (*scanner.ScanRecord, error)
	GetLatestScan() (*scanner.ScanRecord, error)
	GetResults(scanID string) ([]scanner.Result, error)
}

// VRPService evaluates the volatility risk premium on demand.
type VRPService interface {
	Calculate(ticker string, expiration time.Time, impliedMovePct float64) (*domain.VRPResult, error)
	GetHistoricalMoves(ticker string, limit int) ([]domain.HistoricalMove, error)
}

// SnapshotScorer scores a caller-supplied snapshot.
type SnapshotScorer interface {
	Score(snap domain.TickerSnapshot) (*domain.ScoreBreakdown, error)
}

// PriceStats serves price-derived volatility statistics.
type PriceStats interface {
	VolatilityStats(ticker string) (*history.VolatilityStats, error)
}

// JobReporter reports the state of scheduled background jobs.
type JobReporter interface {
	Status() []scheduler.JobStatus
}

// Config holds server configuration.
type Config struct {
	Port    int
	Log     zerolog.Logger
	DB      *database.DB
	DevMode bool

	Scans       ScanStore
	VRP         VRPService
	Scorer      SnapshotScorer
	Prices      PriceStats
	Jobs        JobReporter
	TriggerScan func() error // kicks off a scan run, non-blocking
}

// Server represents the HTTP server.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	db     *database.DB

	scans       ScanStore
	vrp         VRPService
	scorer      SnapshotScorer
	prices      PriceStats
	jobs        JobReporter
	triggerScan func() error
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		log:         cfg.Log.With().Str("component", "server").Logger(),
		db:          cfg.DB,
		scans:       cfg.Scans,
		vrp:         cfg.VRP,
		scorer:      cfg.Scorer,
		prices:      cfg.Prices,
		jobs:        cfg.Jobs,
		triggerScan: cfg.TriggerScan,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.handleSystemStatus)
		})

		r.Route("/scan", func(r chi.Router) {
			r.Post("/", s.handleTriggerScan)
			r.Get("/latest", s.handleLatestScan)
			r.Get("/{id}", s.handleGetScan)
		})

		r.Get("/vrp/{ticker}", s.handleVRP)
		r.Post("/score", s.handleScoreSnapshot)
		r.Get("/history/{ticker}/moves", s.handleMoves)
		r.Get("/history/{ticker}/volatility", s.handleVolatilityStats)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the handler tree, used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
