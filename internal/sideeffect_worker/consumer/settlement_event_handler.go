package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/longsangforge/payment-reconciler/internal/domain/reconciliation"
	"github.com/longsangforge/payment-reconciler/internal/platform/messaging/producers"
)

// EventDispatcher runs the side effects for one settlement event
type EventDispatcher interface {
	Dispatch(ctx context.Context, event *reconciliation.SettlementEvent) error
}

// SettlementEventHandler handles settlement event messages from Kafka
type SettlementEventHandler struct {
	dispatcher EventDispatcher
	producer   producers.DeadLetterPublisher
	logger     *slog.Logger
}

// NewSettlementEventHandler creates a new handler
func NewSettlementEventHandler(
	logger *slog.Logger,
	dispatcher EventDispatcher,
	producer producers.DeadLetterPublisher,
) *SettlementEventHandler {
	return &SettlementEventHandler{
		dispatcher: dispatcher,
		producer:   producer,
		logger:     logger,
	}
}

// HandleMessage processes Kafka messages. Poison messages go to the DLQ;
// side-effect failures are logged only, so the offset always commits and the
// effects stay at-most-once.
func (h *SettlementEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event reconciliation.SettlementEvent
	if err := json.Unmarshal(value, &event); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal settlement event from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		// Send to DLQ if available
		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
				// Return original error if DLQ fails
			} else {
				h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	// Add correlation ID to logger
	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Received settlement event for side-effect dispatch",
		"booking_id", event.BookingID.String(),
		"transaction_id", event.TransactionID,
		"client_email", event.ClientEmail,
	)

	if err := h.dispatcher.Dispatch(ctx, &event); err != nil {
		logger.Error("Side effects completed with failures",
			"booking_id", event.BookingID.String(),
			"error", err,
		)
		// Side effects are at-most-once: commit the offset regardless
		return nil
	}

	logger.Info("Side effects completed", "booking_id", event.BookingID.String())
	return nil
}
