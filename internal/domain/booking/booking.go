// Package booking defines the consultation booking entity and its
// persistence contract. Bookings are created by the public site and settled
// by the payment reconciler when a matching bank transfer arrives.
package booking

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrEmptyClientName = errors.New("client name cannot be empty")
	ErrInvalidDate     = errors.New("booking date must be an ISO date (YYYY-MM-DD)")
)

// Status defines the booking lifecycle states
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// PaymentStatus defines the payment side of the booking lifecycle.
// The empty value maps to NULL in the store (payment never initiated).
type PaymentStatus string

const (
	PaymentStatusNone    PaymentStatus = ""
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Booking represents a consultation booking awaiting or carrying payment.
// Status and PaymentStatus transition together, atomically, only through
// Repository.Settle.
type Booking struct {
	ID              uuid.UUID     `json:"id"`
	ClientName      string        `json:"client_name"`
	ClientEmail     string        `json:"client_email"`
	ClientPhone     string        `json:"client_phone,omitempty"`
	BookingDate     string        `json:"booking_date"` // ISO date, YYYY-MM-DD
	StartTime       string        `json:"start_time"`   // HH:MM or HH:MM:SS
	ServiceType     ServiceType   `json:"service_type"`
	Status          Status        `json:"status"`
	PaymentStatus   PaymentStatus `json:"payment_status,omitempty"`
	PaymentTxID     string        `json:"payment_transaction_id,omitempty"`
	PaymentPaidAt   string        `json:"payment_confirmed_at,omitempty"` // Provider-supplied timestamp string
	CalendarEventID string        `json:"calendar_event_id,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// NewBooking creates a pending booking with the given parameters
func NewBooking(clientName, clientEmail, bookingDate, startTime string, serviceType ServiceType) (*Booking, error) {
	if clientName == "" {
		return nil, ErrEmptyClientName
	}
	if _, err := time.Parse("2006-01-02", bookingDate); err != nil {
		return nil, ErrInvalidDate
	}

	now := time.Now()
	return &Booking{
		ID:            uuid.New(),
		ClientName:    clientName,
		ClientEmail:   clientEmail,
		BookingDate:   bookingDate,
		StartTime:     startTime,
		ServiceType:   serviceType,
		Status:        StatusPending,
		PaymentStatus: PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// AwaitingPayment reports whether the booking is still eligible for
// settlement matching.
func (b *Booking) AwaitingPayment() bool {
	return b.Status == StatusPending &&
		(b.PaymentStatus == PaymentStatusNone || b.PaymentStatus == PaymentStatusPending)
}

// SettledBy reports whether the booking was already settled by the given
// provider transaction. Used to classify a conditional-update rejection as an
// idempotent replay rather than a conflict.
func (b *Booking) SettledBy(transactionID string) bool {
	return b.PaymentStatus == PaymentStatusPaid && b.PaymentTxID == transactionID
}
