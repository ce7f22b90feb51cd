package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/custodia-labs/asset-sync/internal/core/ports/driving"
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
	authService        driving.AuthService
	integrationService driving.IntegrationService
	syncService        driving.SyncService
	webhookIngestor    driving.WebhookIngestor

	// Infrastructure
	metrics http.Handler // Prometheus handler (optional)
	db      Pinger       // PostgreSQL health check
	lock    Pinger       // Distributed lock backend health check (optional)

	corsOrigins    []string
	maxBodyBytes   int64
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string

	// CORSOrigins lists allowed browser origins ("*" allows any)
	CORSOrigins []string

	// MaxBodyBytes caps request bodies, including webhook payloads
	MaxBodyBytes int64

	// WriteTimeout must outlast a sync run triggered synchronously
	WriteTimeout time.Duration

	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8080,
		Version:      "dev",
		MaxBodyBytes: 32 << 20,
		WriteTimeout: 5 * time.Minute,
	}
}

// Services bundles the driving ports the server exposes
type Services struct {
	Auth         driving.AuthService
	Integrations driving.IntegrationService
	Syncs        driving.SyncService
	Webhooks     driving.WebhookIngestor
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, svc Services, metrics http.Handler, db Pinger, lock Pinger) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 32 << 20
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Minute
	}

	s := &Server{
		router:             http.NewServeMux(),
		version:            cfg.Version,
		logger:             logger,
		authService:        svc.Auth,
		integrationService: svc.Integrations,
		syncService:        svc.Syncs,
		webhookIngestor:    svc.Webhooks,
		metrics:            metrics,
		db:                 db,
		lock:               lock,
		corsOrigins:        cfg.CORSOrigins,
		maxBodyBytes:       cfg.MaxBodyBytes,
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the router wrapped in the global middleware chain
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	if len(s.corsOrigins) > 0 {
		h = NewCORSMiddleware(s.corsOrigins).Handler(h)
	}
	h = NewLoggingMiddleware(s.logger).Handler(h)
	return NewRecoveryMiddleware(s.logger).Handler(h)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.authService)
	webhookAuth := NewWebhookAuthMiddleware(s.authService, s.integrationService)

	admin := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(authMiddleware.RequireAdmin(h))
	}
	member := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(h)
	}

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	if s.metrics != nil {
		s.router.Handle("GET /metrics", s.metrics)
	}
	s.router.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// Integration configuration
	s.router.Handle("GET /api/v1/integrations", member(s.handleListIntegrations))
	s.router.Handle("POST /api/v1/integrations", admin(s.handleCreateIntegration))
	s.router.Handle("GET /api/v1/integrations/{id}", member(s.handleGetIntegration))
	s.router.Handle("PUT /api/v1/integrations/{id}", admin(s.handleUpdateIntegration))
	s.router.Handle("DELETE /api/v1/integrations/{id}", admin(s.handleDeleteIntegration))
	s.router.Handle("POST /api/v1/integrations/{id}/test", admin(s.handleTestIntegration))

	// Sync
	s.router.Handle("POST /api/v1/integrations/{id}/sync", admin(s.handleTriggerSync))
	s.router.Handle("GET /api/v1/integrations/{id}/sync-history", member(s.handleSyncHistory))

	// Inbound push
	s.router.Handle("POST /api/v1/integrations/{id}/webhook", webhookAuth.Authenticate(http.HandlerFunc(s.handleWebhook)))
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
