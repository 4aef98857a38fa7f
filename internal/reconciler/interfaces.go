package reconciler

import (
	"context"

	"github.com/longsangforge/payment-reconciler/internal/domain/booking"
	"github.com/longsangforge/payment-reconciler/internal/domain/reconciliation"
)

// Matcher scores candidate bookings against a parsed payment reference and
// transaction amount, returning at most one match.
type Matcher interface {
	Match(ref *reconciliation.ParsedReference, amount int64, candidates []*booking.Booking) *booking.Booking
}

// SettlementExecutor performs the atomic pending -> confirmed/paid transition
// for a matched booking. Returns ErrAlreadySettled for an idempotent replay
// and booking.ErrSettlementConflict when the booking was taken concurrently.
type SettlementExecutor interface {
	Settle(ctx context.Context, matched *booking.Booking, tx reconciliation.IncomingTransaction) error
}
