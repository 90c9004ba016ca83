package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/ledger-reconciler/internal/api/handlers"
	"github.com/eshaffer321/ledger-reconciler/internal/api/middleware"
	"github.com/eshaffer321/ledger-reconciler/internal/application/session"
	"github.com/eshaffer321/ledger-reconciler/internal/infrastructure/config"
	"github.com/eshaffer321/ledger-reconciler/internal/infrastructure/storage"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
	Columns        config.ColumnsConfig
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	defaults := config.Default()
	return Config{
		Port:           defaults.Server.Port,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		Columns:        defaults.Columns,
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	logger     *slog.Logger
	repo       storage.Repository
	sessions   *session.Manager
}

// NewServer creates a new API server.
func NewServer(cfg Config, sessions *session.Manager, repo storage.Repository, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		config:   cfg,
		router:   gin.New(),
		logger:   logger,
		repo:     repo,
		sessions: sessions,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = s.config.AllowedOrigins
	s.router.Use(middleware.CORS(corsConfig))

	s.router.Use(middleware.Logging(s.logger))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.router.GET("/health", healthHandler.Get)

	api := s.router.Group("/api")

	sessionsHandler := handlers.NewSessionsHandler(s.sessions, s.repo, s.config.Columns, s.logger)
	reconcileHandler := handlers.NewReconcileHandler(s.sessions, s.repo, s.logger)
	providersHandler := handlers.NewProvidersHandler(s.sessions, s.repo, s.logger)
	selectionHandler := handlers.NewSelectionHandler(s.sessions, s.repo, s.logger)
	exportHandler := handlers.NewExportHandler(s.sessions, s.repo, s.logger)

	api.POST("/sessions", sessionsHandler.Create)
	sessions := api.Group("/sessions/:id")
	{
		sessions.GET("", sessionsHandler.Get)
		sessions.DELETE("", sessionsHandler.Delete)
		sessions.POST("/sources/:source", sessionsHandler.Upload)

		sessions.POST("/reconcile", reconcileHandler.Reconcile)
		sessions.GET("/records", reconcileHandler.Records)
		sessions.GET("/overview", reconcileHandler.Overview)

		sessions.GET("/providers", providersHandler.List)
		sessions.GET("/providers/:identifier", providersHandler.Get)
		sessions.PUT("/provider", providersHandler.SetFocus)

		sessions.GET("/selection", selectionHandler.Get)
		sessions.DELETE("/selection", selectionHandler.Clear)
		sessions.POST("/selection/toggle", selectionHandler.Toggle)
		sessions.POST("/selection/select", selectionHandler.Select)
		sessions.POST("/selection/commit", selectionHandler.Commit)
		sessions.POST("/selection/dereconcile", selectionHandler.Dereconcile)

		sessions.GET("/export", exportHandler.Export)
	}

	// Journaled runs (historical)
	runsHandler := handlers.NewRunsHandler(s.sessions, s.repo, s.logger)
	api.GET("/runs", runsHandler.List)
	api.GET("/runs/:id", runsHandler.Get)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the gin engine for testing.
func (s *Server) Router() http.Handler {
	return s.router
}
