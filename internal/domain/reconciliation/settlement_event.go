package reconciliation

import (
	"time"

	"github.com/google/uuid"

	"github.com/longsangforge/payment-reconciler/internal/domain/booking"
)

// SettlementEvent is the Kafka message emitted after a booking is settled.
// The side-effect worker consumes it to create the calendar event and send
// the confirmation emails, decoupled from the webhook response.
type SettlementEvent struct {
	BookingID     uuid.UUID           `json:"booking_id"`
	ClientName    string              `json:"client_name"`
	ClientEmail   string              `json:"client_email"`
	ClientPhone   string              `json:"client_phone,omitempty"`
	BookingDate   string              `json:"booking_date"`
	StartTime     string              `json:"start_time"`
	ServiceType   booking.ServiceType `json:"service_type"`
	Notes         string              `json:"notes,omitempty"`
	Amount        int64               `json:"amount"`
	TransactionID string              `json:"transaction_id"`
	CorrelationID string              `json:"correlation_id,omitempty"`
	SettledAt     time.Time           `json:"settled_at"`
}

// NewSettlementEvent builds the event for a just-settled booking
func NewSettlementEvent(b *booking.Booking, amount int64, transactionID, correlationID string) *SettlementEvent {
	return &SettlementEvent{
		BookingID:     b.ID,
		ClientName:    b.ClientName,
		ClientEmail:   b.ClientEmail,
		ClientPhone:   b.ClientPhone,
		BookingDate:   b.BookingDate,
		StartTime:     b.StartTime,
		ServiceType:   b.ServiceType,
		Notes:         b.Notes,
		Amount:        amount,
		TransactionID: transactionID,
		CorrelationID: correlationID,
		SettledAt:     time.Now(),
	}
}
