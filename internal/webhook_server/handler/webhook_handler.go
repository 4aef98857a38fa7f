package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/longsangforge/payment-reconciler/internal/domain/reconciliation"
	"github.com/longsangforge/payment-reconciler/internal/webhook_server/middleware"
)

// ReconcilerService runs the reconciliation pipeline over a webhook batch
type ReconcilerService interface {
	ProcessBatch(ctx context.Context, correlationID string, txs []reconciliation.IncomingTransaction) []reconciliation.Result
}

// WebhookHandler handles the bank provider's transfer notification callbacks
type WebhookHandler struct {
	reconciler ReconcilerService
	logger     *slog.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(logger *slog.Logger, reconciler ReconcilerService) *WebhookHandler {
	return &WebhookHandler{
		reconciler: reconciler,
		logger:     logger,
	}
}

// Receive processes one webhook delivery. The provider retries on non-2xx
// responses, so only malformed payloads are rejected; per-transaction
// failures are reported in the body of a 200 response instead.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid webhook payload", "error", err)
		RespondBadRequest(c, "Invalid webhook payload: "+err.Error())
		return
	}

	if req.Error != 0 {
		h.logger.Error("Provider reported an error payload", "provider_error", req.Error)
		RespondBadRequest(c, "Provider error payload")
		return
	}

	// An empty array is a valid no-op delivery; an absent or null data
	// field is a protocol error.
	if req.Data == nil {
		h.logger.Error("Webhook payload has no transaction data")
		RespondBadRequest(c, "Missing transaction data")
		return
	}

	results := h.reconciler.ProcessBatch(c.Request.Context(), middleware.GetCorrelationID(c), req.Data)

	c.JSON(http.StatusOK, WebhookResponse{
		Success:   true,
		Processed: mapResults(results),
	})
}

// Test is the provider's connectivity check endpoint
func (h *WebhookHandler) Test(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "Webhook endpoint is reachable",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// mapResults maps pipeline results to the provider acknowledgment DTOs
func mapResults(results []reconciliation.Result) []ProcessedItem {
	items := make([]ProcessedItem, 0, len(results))
	for _, res := range results {
		item := ProcessedItem{
			ID:         res.ExternalID,
			Status:     string(res.Status),
			Reason:     res.Reason,
			ClientName: res.ClientName,
		}
		if res.BookingID != uuid.Nil {
			item.BookingID = res.BookingID.String()
		}
		items = append(items, item)
	}
	return items
}
