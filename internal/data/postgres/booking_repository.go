// Package postgres provides PostgreSQL implementations of the domain repositories.
// It handles all database operations while maintaining transaction safety and
// proper error handling for the payment reconciliation system.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/longsangforge/payment-reconciler/internal/domain/booking"
	"github.com/longsangforge/payment-reconciler/internal/platform/persistence"
)

// BookingRepository implements the booking.Repository interface for PostgreSQL
type BookingRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewBookingRepository creates a new PostgreSQL booking repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewBookingRepository(logger *slog.Logger, db *persistence.PostgresDB) booking.Repository {
	return &BookingRepository{
		querier: db.Pool(), // Initialize with the pool
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic operations
// across multiple repository calls. The returned repository will use the provided
// transaction for all database operations.
func (r *BookingRepository) WithTx(tx pgx.Tx) booking.Repository {
	return &BookingRepository{
		querier: tx, // Use the transaction
		logger:  r.logger,
	}
}

const bookingColumns = `
		id, client_name, client_email, client_phone, booking_date::text, start_time::text,
		service_type, status, payment_status, payment_transaction_id, payment_confirmed_at,
		calendar_event_id, notes, created_at, updated_at`

// GetByID retrieves a booking by its ID
func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	query := `
		SELECT` + bookingColumns + `
		FROM bookings
		WHERE id = $1
	`

	b, err := scanBooking(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, booking.ErrBookingNotFound{BookingID: id}
		}
		r.logger.Error("Failed to get booking", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return b, nil
}

// FindSettlementCandidates retrieves pending, unpaid bookings for payment
// matching. Newest first so recent bookings win when references collide,
// capped at limit to bound the per-transaction scan.
func (r *BookingRepository) FindSettlementCandidates(ctx context.Context, limit int) ([]*booking.Booking, error) {
	query := `
		SELECT` + bookingColumns + `
		FROM bookings
		WHERE status = 'pending' AND (payment_status IS NULL OR payment_status = 'pending')
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.querier.Query(ctx, query, limit)
	if err != nil {
		r.logger.Error("Failed to query settlement candidates", "error", err)
		return nil, fmt.Errorf("failed to query settlement candidates: %w", err)
	}
	defer rows.Close()

	var bookings []*booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			r.logger.Error("Failed to scan settlement candidate", "error", err)
			return nil, fmt.Errorf("failed to scan settlement candidate: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Failed to read settlement candidates", "error", err)
		return nil, fmt.Errorf("failed to read settlement candidates: %w", err)
	}

	return bookings, nil
}

// Settle performs the conditional transition pending -> confirmed/paid.
// The WHERE clause re-checks eligibility at update time so a concurrent
// delivery or a manual status change cannot settle the booking twice.
// Returns ErrSettlementConflict when the guard rejects the update.
func (r *BookingRepository) Settle(ctx context.Context, id uuid.UUID, s booking.Settlement) error {
	query := `
		UPDATE bookings
		SET status = 'confirmed', payment_status = 'paid', payment_transaction_id = $1,
		    payment_confirmed_at = $2, updated_at = NOW()
		WHERE id = $3 AND status = 'pending' AND (payment_status IS NULL OR payment_status = 'pending')
	`

	result, err := r.querier.Exec(ctx, query, s.TransactionID, s.PaidAt, id)
	if err != nil {
		r.logger.Error("Failed to settle booking", "id", id.String(), "error", err)
		return fmt.Errorf("failed to settle booking: %w", err)
	}

	if result.RowsAffected() == 0 {
		return booking.ErrSettlementConflict{BookingID: id}
	}

	return nil
}

// SetCalendarEventID records the calendar event created for a settled booking
func (r *BookingRepository) SetCalendarEventID(ctx context.Context, id uuid.UUID, eventID string) error {
	query := `
		UPDATE bookings
		SET calendar_event_id = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, eventID, id)
	if err != nil {
		r.logger.Error("Failed to set calendar event id", "id", id.String(), "error", err)
		return fmt.Errorf("failed to set calendar event id: %w", err)
	}

	if result.RowsAffected() == 0 {
		return booking.ErrBookingNotFound{BookingID: id}
	}

	return nil
}

// scanBooking maps one row onto a Booking, folding NULLs into zero values
func scanBooking(row pgx.Row) (*booking.Booking, error) {
	var b booking.Booking
	var clientPhone, paymentStatus, paymentTxID, paymentPaidAt, calendarEventID, notes *string

	err := row.Scan(
		&b.ID,
		&b.ClientName,
		&b.ClientEmail,
		&clientPhone,
		&b.BookingDate,
		&b.StartTime,
		&b.ServiceType,
		&b.Status,
		&paymentStatus,
		&paymentTxID,
		&paymentPaidAt,
		&calendarEventID,
		&notes,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if clientPhone != nil {
		b.ClientPhone = *clientPhone
	}
	if paymentStatus != nil {
		b.PaymentStatus = booking.PaymentStatus(*paymentStatus)
	}
	if paymentTxID != nil {
		b.PaymentTxID = *paymentTxID
	}
	if paymentPaidAt != nil {
		b.PaymentPaidAt = *paymentPaidAt
	}
	if calendarEventID != nil {
		b.CalendarEventID = *calendarEventID
	}
	if notes != nil {
		b.Notes = *notes
	}

	return &b, nil
}
