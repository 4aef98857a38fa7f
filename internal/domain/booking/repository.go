package booking

import (
	"context"

	"github.com/google/uuid"
)

// Settlement carries the fields written atomically when a booking is
// confirmed by an incoming bank transfer.
type Settlement struct {
	TransactionID string // Provider transaction id, the idempotency tag
	PaidAt        string // Provider-supplied timestamp string
}

// Repository defines booking persistence operations used by the reconciler
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindSettlementCandidates returns bookings eligible for payment matching:
	// status = pending and payment not yet settled, most recently created
	// first, capped at limit.
	FindSettlementCandidates(ctx context.Context, limit int) ([]*Booking, error)

	// Settle performs the conditional transition pending -> confirmed/paid,
	// guarded by the booking still being pending at update time. Returns
	// ErrSettlementConflict if the guard rejects the update.
	Settle(ctx context.Context, id uuid.UUID, s Settlement) error

	// SetCalendarEventID records the calendar event created for a settled
	// booking. Best-effort bookkeeping for the side-effect worker.
	SetCalendarEventID(ctx context.Context, id uuid.UUID, eventID string) error
}

// ErrBookingNotFound indicates a missing booking
type ErrBookingNotFound struct {
	BookingID uuid.UUID
}

func (e ErrBookingNotFound) Error() string {
	return "booking not found: " + e.BookingID.String()
}

// Is matches any ErrBookingNotFound when the target carries a nil ID
func (e ErrBookingNotFound) Is(target error) bool {
	t, ok := target.(ErrBookingNotFound)
	if !ok {
		return false
	}
	if t.BookingID == uuid.Nil {
		return true
	}
	return e.BookingID == t.BookingID
}

// ErrSettlementConflict indicates the booking was no longer pending when the
// conditional settlement update ran (concurrent delivery or manual change).
type ErrSettlementConflict struct {
	BookingID uuid.UUID
}

func (e ErrSettlementConflict) Error() string {
	return "settlement rejected, booking no longer pending: " + e.BookingID.String()
}

// Is matches any ErrSettlementConflict when the target carries a nil ID
func (e ErrSettlementConflict) Is(target error) bool {
	t, ok := target.(ErrSettlementConflict)
	if !ok {
		return false
	}
	if t.BookingID == uuid.Nil {
		return true
	}
	return e.BookingID == t.BookingID
}
