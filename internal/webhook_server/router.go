package webhook_server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/longsangforge/payment-reconciler/internal/webhook_server/handler"
	"github.com/longsangforge/payment-reconciler/internal/webhook_server/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	webhookSecret string,
	webhookHandler *handler.WebhookHandler,
	auditHandler *handler.AuditHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// Provider callback endpoints, guarded by the shared webhook token
	casso := r.Group("/api/casso", middleware.WebhookAuth(logger, webhookSecret))
	{
		casso.POST("/webhook", webhookHandler.Receive)
		casso.GET("/test", webhookHandler.Test)

		// Audit trail lookups for support
		audit := casso.Group("/audit")
		{
			audit.GET("", auditHandler.GetByTimeRange)
			audit.GET("/:external_id", auditHandler.GetByExternalID)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
