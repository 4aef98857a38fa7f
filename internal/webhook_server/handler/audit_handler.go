package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/longsangforge/payment-reconciler/internal/domain/reconciliation"
)

// AuditHandler exposes the reconciliation audit trail for support lookups
type AuditHandler struct {
	audits reconciliation.AuditStore
	logger *slog.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(logger *slog.Logger, audits reconciliation.AuditStore) *AuditHandler {
	return &AuditHandler{
		audits: audits,
		logger: logger,
	}
}

// GetByExternalID retrieves every record a provider transaction left behind,
// one per delivery. Returns 404 when the transaction was never seen.
func (h *AuditHandler) GetByExternalID(c *gin.Context) {
	idParam := c.Param("external_id")
	externalID, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		h.logger.Error("Invalid external transaction ID", "external_id", idParam, "error", err)
		RespondBadRequest(c, "Invalid external transaction ID")
		return
	}

	records, err := h.audits.GetByExternalID(c.Request.Context(), externalID)
	if err != nil {
		h.logger.Error("Failed to get audit records", "external_id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	if len(records) == 0 {
		RespondNotFound(c, "No audit records for transaction")
		return
	}

	RespondOK(c, mapAuditRecords(records))
}

// GetByTimeRange retrieves paginated audit records inside a time window
func (h *AuditHandler) GetByTimeRange(c *gin.Context) {
	var params AuditRangeParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Error("Invalid audit range parameters", "error", err)
		RespondBadRequest(c, "Invalid audit range parameters")
		return
	}

	from, err := time.Parse(time.RFC3339, params.From)
	if err != nil {
		RespondBadRequest(c, "from must be an RFC3339 timestamp")
		return
	}
	to, err := time.Parse(time.RFC3339, params.To)
	if err != nil {
		RespondBadRequest(c, "to must be an RFC3339 timestamp")
		return
	}

	offset := (params.Page - 1) * params.PerPage
	records, err := h.audits.GetByTimeRange(c.Request.Context(), from, to, params.PerPage, offset)
	if err != nil {
		h.logger.Error("Failed to get audit records by time range", "error", err)
		RespondInternalError(c)
		return
	}

	RespondWithPaginatedData(c, http.StatusOK, mapAuditRecords(records), params.Page, params.PerPage)
}

// mapAuditRecords maps audit trail entries to their API representation
func mapAuditRecords(records []*reconciliation.AuditRecord) []AuditRecordResponse {
	responses := make([]AuditRecordResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, AuditRecordResponse{
			ExternalID:      rec.ExternalID,
			CounterpartyRef: rec.CounterpartyRef,
			Description:     rec.Description,
			Amount:          rec.Amount,
			OccurredAt:      rec.OccurredAt,
			Status:          string(rec.Status),
			Reason:          rec.Reason,
			BookingID:       rec.BookingID,
			CorrelationID:   rec.CorrelationID,
			CreatedAt:       rec.CreatedAt.Format(time.RFC3339),
		})
	}
	return responses
}
