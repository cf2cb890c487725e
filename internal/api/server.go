// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nucleo/portfolio-tracker/internal/logging"
	"github.com/nucleo/portfolio-tracker/internal/models"
	"github.com/nucleo/portfolio-tracker/internal/service"
	"github.com/nucleo/portfolio-tracker/internal/storage"
)

// Service interfaces for dependency injection and testing

// PassRunner triggers one valuation/performance/ranking pass
type PassRunner interface {
	Run(ctx context.Context) (*service.Summary, error)
}

// PortfolioReader provides the read surface of the portfolio store
type PortfolioReader interface {
	GetByID(ctx context.Context, id string) (*models.Portfolio, error)
	Leaderboard(ctx context.Context) ([]*storage.LeaderboardEntry, error)
}

// SampleReader provides the read surface of the sample store
type SampleReader interface {
	Range(ctx context.Context, portfolioID string, from time.Time) ([]*models.PortfolioSample, error)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            string
	WorkerToken     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Server represents the HTTP API server
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	pass       PassRunner
	portfolios PortfolioReader
	samples    SampleReader
	config     *ServerConfig
}

// NewServer creates a new API server instance
func NewServer(config *ServerConfig, pass PassRunner, portfolios PortfolioReader, samples SampleReader) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		pass:       pass,
		portfolios: portfolios,
		samples:    samples,
		config:     config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Pass trigger, guarded by the shared worker token
	tasks := s.router.PathPrefix("/tasks").Subrouter()
	tasks.Use(workerAuthMiddleware(s.config.WorkerToken))
	tasks.HandleFunc("/performance", s.handleRunPass).Methods("POST")

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/leaderboard", s.handleLeaderboard).Methods("GET")
	api.HandleFunc("/portfolios/{id}", s.handleGetPortfolio).Methods("GET")
	api.HandleFunc("/portfolios/{id}/history", s.handleGetHistory).Methods("GET")
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "portfolio-tracker",
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	logging.GetGlobalLogger().WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.GetGlobalLogger().Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
