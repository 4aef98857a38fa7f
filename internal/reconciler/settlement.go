package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/longsangforge/payment-reconciler/internal/domain/booking"
	"github.com/longsangforge/payment-reconciler/internal/domain/reconciliation"
)

// ErrAlreadySettled indicates the booking already carries this transaction's
// identifier: a redelivered webhook, safe to acknowledge without touching
// the store.
var ErrAlreadySettled = errors.New("booking already settled by this transaction")

// Executor implements SettlementExecutor against the booking repository.
type Executor struct {
	bookingRepo booking.Repository
	logger      *slog.Logger
}

// NewExecutor creates a settlement executor
func NewExecutor(bookingRepo booking.Repository, logger *slog.Logger) *Executor {
	return &Executor{
		bookingRepo: bookingRepo,
		logger:      logger,
	}
}

// Settle transitions the matched booking to confirmed/paid, tagged with the
// provider trace id. The underlying update is conditional on the booking
// still being pending, which is the only defense needed against concurrent
// webhook deliveries racing for the same booking.
//
// When the conditional update is rejected, the booking is re-read to
// distinguish an idempotent replay (same transaction already settled it,
// ErrAlreadySettled) from a genuine conflict (booking.ErrSettlementConflict).
func (e *Executor) Settle(ctx context.Context, matched *booking.Booking, tx reconciliation.IncomingTransaction) error {
	if matched.SettledBy(tx.CounterpartyRef) {
		e.logger.Info("Booking already settled by this transaction, skipping",
			"booking_id", matched.ID.String(),
			"transaction_id", tx.CounterpartyRef,
		)
		return ErrAlreadySettled
	}

	settlement := booking.Settlement{
		TransactionID: tx.CounterpartyRef,
		PaidAt:        tx.OccurredAt,
	}

	err := e.bookingRepo.Settle(ctx, matched.ID, settlement)
	if err == nil {
		e.logger.Info("Booking settled",
			"booking_id", matched.ID.String(),
			"client_name", matched.ClientName,
			"transaction_id", tx.CounterpartyRef,
			"amount", tx.Amount,
		)
		return nil
	}

	if !errors.Is(err, booking.ErrSettlementConflict{}) {
		return fmt.Errorf("failed to settle booking %s: %w", matched.ID.String(), err)
	}

	// The guard rejected the update: somebody settled or cancelled the
	// booking between candidate selection and now. Re-read to classify.
	current, getErr := e.bookingRepo.GetByID(ctx, matched.ID)
	if getErr != nil {
		e.logger.Error("Failed to re-read booking after settlement conflict",
			"booking_id", matched.ID.String(),
			"error", getErr,
		)
		return err
	}

	if current.SettledBy(tx.CounterpartyRef) {
		e.logger.Info("Settlement conflict was an idempotent replay",
			"booking_id", matched.ID.String(),
			"transaction_id", tx.CounterpartyRef,
		)
		return ErrAlreadySettled
	}

	e.logger.Warn("Settlement conflict, booking taken concurrently",
		"booking_id", matched.ID.String(),
		"status", current.Status,
		"payment_transaction_id", current.PaymentTxID,
	)
	return err
}
