// Package webhook_server hosts the HTTP surface of the payment reconciler:
// the bank provider's webhook callback, a connectivity check endpoint and the
// audit trail lookups used by support.
package webhook_server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/longsangforge/payment-reconciler/internal/config"
	"github.com/longsangforge/payment-reconciler/internal/domain/reconciliation"
	"github.com/longsangforge/payment-reconciler/internal/webhook_server/handler"
)

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger // For structured logging
	httpServer *http.Server // Underlying HTTP server
	httpRouter *gin.Engine  // Gin router instance
}

// NewServer creates and configures a new HTTP server with the given services
func NewServer(log *slog.Logger, cfg *config.Config, reconciler handler.ReconcilerService, audits reconciliation.AuditStore) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	webhookHandler := handler.NewWebhookHandler(log, reconciler)
	auditHandler := handler.NewAuditHandler(log, audits)

	setupRouter(log, httpRouter, cfg.Webhook.SecretToken, webhookHandler, auditHandler)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server with a timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	// Use server's write timeout for graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(ctx, s.httpServer.WriteTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}

	return nil
}
