// Package http exposes the catalog over a JSON HTTP API: a public read
// surface for search, documents and aggregations, and a token-guarded
// administrative write surface.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/traustid/arosenius-api/internal/core/ports/driven"
	"github.com/traustid/arosenius-api/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	// Services
	searchService    driving.SearchService
	documentService  driving.DocumentService
	mergeService     driving.MergeService
	aggregateService driving.AggregateService
	authService      driving.AuthService

	// Infrastructure
	taskQueue driven.TaskQueue // can be nil
	db        Pinger           // can be nil
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	searchService driving.SearchService,
	documentService driving.DocumentService,
	mergeService driving.MergeService,
	aggregateService driving.AggregateService,
	authService driving.AuthService,
	taskQueue driven.TaskQueue, // can be nil
	db Pinger, // can be nil
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:           http.NewServeMux(),
		version:          cfg.Version,
		logger:           logger,
		searchService:    searchService,
		documentService:  documentService,
		mergeService:     mergeService,
		aggregateService: aggregateService,
		authService:      authService,
		taskQueue:        taskQueue,
		db:               db,
	}

	handler := NewCORSMiddleware().Handler(
		NewLoggingMiddleware(logger).Handler(
			NewRecoveryMiddleware(logger).Handler(s.router)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.authService)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Public read surface
	s.router.HandleFunc("GET /documents", s.handleSearch)
	s.router.HandleFunc("GET /document/{id}", s.handleGetDocument)
	s.router.HandleFunc("GET /museums", s.handleMuseums)
	s.router.HandleFunc("GET /types", s.handleFacet)
	s.router.HandleFunc("GET /genres", s.handleFacet)
	s.router.HandleFunc("GET /tags", s.handleFacet)
	s.router.HandleFunc("GET /persons", s.handleFacet)
	s.router.HandleFunc("GET /places", s.handleFacet)
	s.router.HandleFunc("GET /tags/cloud", s.handleTagCloud)
	s.router.HandleFunc("GET /exhibitions", s.handleExhibitions)
	s.router.HandleFunc("GET /pagetypes", s.handlePageTypes)
	s.router.HandleFunc("GET /year_range", s.handleYearRange)
	s.router.HandleFunc("GET /colormap", s.handleColorMap)
	s.router.HandleFunc("GET /next/{insert_id}", s.handleNextDocument)
	s.router.HandleFunc("GET /prev/{insert_id}", s.handlePrevDocument)
	s.router.HandleFunc("GET /highest_insert_id", s.handleHighestInsertID)

	// Admin login (public)
	s.router.HandleFunc("POST /admin/login", s.handleLogin)

	// Administrative surface (token-guarded)
	s.router.Handle("GET /admin/documents",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleAdminSearch)))
	s.router.Handle("POST /admin/document",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleInsertDocument)))
	s.router.Handle("PUT /admin/document/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleUpdateDocument)))
	s.router.Handle("PUT /admin/documents/combine",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleCombineDocuments)))
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	s.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routed handler, for tests
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
