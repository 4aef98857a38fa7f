package handler

import "github.com/longsangforge/payment-reconciler/internal/domain/reconciliation"

// WebhookRequest is the payload the bank integration provider posts on each
// transfer notification. A non-zero Error means the provider is reporting a
// problem instead of delivering transactions.
type WebhookRequest struct {
	Error int                                  `json:"error"`
	Data  []reconciliation.IncomingTransaction `json:"data"`
}

// WebhookResponse is the acknowledgment returned to the provider
type WebhookResponse struct {
	Success   bool            `json:"success"`
	Processed []ProcessedItem `json:"processed"`
}

// ProcessedItem reports the outcome of one transaction in the batch
type ProcessedItem struct {
	ID         int64  `json:"id"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	BookingID  string `json:"booking_id,omitempty"`
	ClientName string `json:"client_name,omitempty"`
}

// AuditRangeParams binds the query parameters of the audit range lookup
type AuditRangeParams struct {
	From    string `form:"from" binding:"required"`
	To      string `form:"to" binding:"required"`
	Page    int    `form:"page,default=1" binding:"min=1"`
	PerPage int    `form:"per_page,default=20" binding:"min=1,max=100"`
}

// AuditRecordResponse is the API representation of one audit trail entry
type AuditRecordResponse struct {
	ExternalID      int64  `json:"external_id"`
	CounterpartyRef string `json:"counterparty_ref,omitempty"`
	Description     string `json:"description,omitempty"`
	Amount          int64  `json:"amount"`
	OccurredAt      string `json:"occurred_at,omitempty"`
	Status          string `json:"status"`
	Reason          string `json:"reason,omitempty"`
	BookingID       string `json:"booking_id,omitempty"`
	CorrelationID   string `json:"correlation_id,omitempty"`
	CreatedAt       string `json:"created_at"`
}
