package reconciliation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditRecord is the persisted outcome of reconciling one bank transaction.
// The webhook response is ephemeral; this record is the durable trail for
// support questions ("why didn't my transfer confirm my booking?").
type AuditRecord struct {
	ExternalID      int64     `json:"external_id" bson:"external_id"`
	CounterpartyRef string    `json:"counterparty_ref,omitempty" bson:"counterparty_ref,omitempty"`
	Description     string    `json:"description,omitempty" bson:"description,omitempty"`
	Amount          int64     `json:"amount" bson:"amount"`
	OccurredAt      string    `json:"occurred_at,omitempty" bson:"occurred_at,omitempty"`
	Status          Outcome   `json:"status" bson:"status"`
	Reason          string    `json:"reason,omitempty" bson:"reason,omitempty"`
	BookingID       string    `json:"booking_id,omitempty" bson:"booking_id,omitempty"`
	CorrelationID   string    `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
}

// NewAuditRecord builds the audit record for a processed transaction. The
// booking id is stored as a string so unmatched outcomes omit the field
// instead of persisting a zero UUID.
func NewAuditRecord(tx IncomingTransaction, res Result, correlationID string) *AuditRecord {
	record := &AuditRecord{
		ExternalID:      tx.ExternalID,
		CounterpartyRef: tx.CounterpartyRef,
		Description:     tx.Description,
		Amount:          tx.Amount,
		OccurredAt:      tx.OccurredAt,
		Status:          res.Status,
		Reason:          res.Reason,
		CorrelationID:   correlationID,
		CreatedAt:       time.Now(),
	}
	if res.BookingID != uuid.Nil {
		record.BookingID = res.BookingID.String()
	}
	return record
}

// AuditRecorder persists reconciliation outcomes. Writes are best-effort:
// a failed audit write never changes a transaction's outcome.
type AuditRecorder interface {
	Record(ctx context.Context, record *AuditRecord) error
}

// AuditStore adds read access to the recorded trail, used by the support
// lookup endpoint.
type AuditStore interface {
	AuditRecorder
	GetByExternalID(ctx context.Context, externalID int64) ([]*AuditRecord, error)
	GetByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*AuditRecord, error)
}
