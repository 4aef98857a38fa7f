package postgres

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longsangforge/payment-reconciler/internal/domain/booking"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func strPtr(s string) *string {
	return &s
}

var bookingTestColumns = []string{
	"id", "client_name", "client_email", "client_phone", "booking_date", "start_time",
	"service_type", "status", "payment_status", "payment_transaction_id", "payment_confirmed_at",
	"calendar_event_id", "notes", "created_at", "updated_at",
}

func TestBookingRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &BookingRepository{querier: mock, logger: logger}
	bookingID := uuid.New()
	now := time.Now()

	query := `(?s)SELECT.*FROM bookings.*WHERE id = \$1`

	t.Run("success", func(t *testing.T) {
		rows := pgxmock.NewRows(bookingTestColumns).
			AddRow(bookingID, "Nguyen Van A", "a@example.com", strPtr("0900000001"), "2025-12-29", "14:00:00",
				booking.ServiceTypeStandard, booking.StatusPending, strPtr("pending"), nil, nil,
				nil, nil, now, now)

		mock.ExpectQuery(query).WithArgs(bookingID).WillReturnRows(rows)

		b, err := repo.GetByID(ctx, bookingID)
		assert.NoError(t, err)
		assert.Equal(t, bookingID, b.ID)
		assert.Equal(t, "Nguyen Van A", b.ClientName)
		assert.Equal(t, "0900000001", b.ClientPhone)
		assert.Equal(t, booking.PaymentStatusPending, b.PaymentStatus)
		assert.Empty(t, b.PaymentTxID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(bookingID).WillReturnError(pgx.ErrNoRows)

		b, err := repo.GetByID(ctx, bookingID)
		assert.Error(t, err)
		assert.Nil(t, b)
		var notFoundErr booking.ErrBookingNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, bookingID, notFoundErr.BookingID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("some db error")
		mock.ExpectQuery(query).WithArgs(bookingID).WillReturnError(dbErr)

		b, err := repo.GetByID(ctx, bookingID)
		assert.Error(t, err)
		assert.Nil(t, b)
		assert.Contains(t, err.Error(), "failed to get booking")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingRepository_FindSettlementCandidates(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &BookingRepository{querier: mock, logger: logger}
	now := time.Now()

	query := `(?s)SELECT.*FROM bookings.*WHERE status = 'pending' AND \(payment_status IS NULL OR payment_status = 'pending'\).*ORDER BY created_at DESC.*LIMIT \$1`

	t.Run("success", func(t *testing.T) {
		firstID := uuid.New()
		secondID := uuid.New()
		rows := pgxmock.NewRows(bookingTestColumns).
			AddRow(firstID, "Nguyen Van A", "a@example.com", nil, "2025-12-29", "14:00:00",
				booking.ServiceTypeStandard, booking.StatusPending, strPtr("pending"), nil, nil,
				nil, nil, now, now).
			AddRow(secondID, "Tran Thi B", "b@example.com", nil, "2025-12-30", "09:00:00",
				booking.ServiceTypeBasic, booking.StatusPending, nil, nil, nil,
				nil, nil, now.Add(-time.Hour), now.Add(-time.Hour))

		mock.ExpectQuery(query).WithArgs(50).WillReturnRows(rows)

		candidates, err := repo.FindSettlementCandidates(ctx, 50)
		assert.NoError(t, err)
		require.Len(t, candidates, 2)
		assert.Equal(t, firstID, candidates[0].ID)
		assert.Equal(t, secondID, candidates[1].ID)
		assert.Equal(t, booking.PaymentStatusNone, candidates[1].PaymentStatus)
		assert.True(t, candidates[0].AwaitingPayment())
		assert.True(t, candidates[1].AwaitingPayment())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty result", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(50).WillReturnRows(pgxmock.NewRows(bookingTestColumns))

		candidates, err := repo.FindSettlementCandidates(ctx, 50)
		assert.NoError(t, err)
		assert.Empty(t, candidates)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("query failed")
		mock.ExpectQuery(query).WithArgs(50).WillReturnError(dbErr)

		candidates, err := repo.FindSettlementCandidates(ctx, 50)
		assert.Error(t, err)
		assert.Nil(t, candidates)
		assert.Contains(t, err.Error(), "failed to query settlement candidates")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingRepository_Settle(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &BookingRepository{querier: mock, logger: logger}
	bookingID := uuid.New()
	settlement := booking.Settlement{
		TransactionID: "TID-987654",
		PaidAt:        "2025-12-20 10:15:00",
	}

	query := `(?s)UPDATE bookings.*SET status = 'confirmed', payment_status = 'paid', payment_transaction_id = \$1,.*payment_confirmed_at = \$2, updated_at = NOW\(\).*WHERE id = \$3 AND status = 'pending' AND \(payment_status IS NULL OR payment_status = 'pending'\)`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(settlement.TransactionID, settlement.PaidAt, bookingID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.Settle(ctx, bookingID, settlement)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("conflict when no longer pending", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(settlement.TransactionID, settlement.PaidAt, bookingID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0)) // 0 rows affected

		err := repo.Settle(ctx, bookingID, settlement)
		assert.Error(t, err)
		var conflictErr booking.ErrSettlementConflict
		assert.ErrorAs(t, err, &conflictErr)
		assert.Equal(t, bookingID, conflictErr.BookingID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("update db error")
		mock.ExpectExec(query).
			WithArgs(settlement.TransactionID, settlement.PaidAt, bookingID).
			WillReturnError(dbErr)

		err := repo.Settle(ctx, bookingID, settlement)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to settle booking")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingRepository_SetCalendarEventID(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &BookingRepository{querier: mock, logger: logger}
	bookingID := uuid.New()
	eventID := "gcal-event-123"

	query := `(?s)UPDATE bookings.*SET calendar_event_id = \$1, updated_at = NOW\(\).*WHERE id = \$2`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(eventID, bookingID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.SetCalendarEventID(ctx, bookingID, eventID)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(eventID, bookingID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.SetCalendarEventID(ctx, bookingID, eventID)
		assert.Error(t, err)
		var notFoundErr booking.ErrBookingNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, bookingID, notFoundErr.BookingID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingRepository_WithTx(t *testing.T) {
	logger := newTestLogger()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	// Original repository with a pool
	originalRepo := &BookingRepository{querier: mockPool, logger: logger}

	mockPool.ExpectBegin()
	pgxTx, err := mockPool.Begin(context.Background())
	require.NoError(t, err)

	txRepo := originalRepo.WithTx(pgxTx)

	assert.NotNil(t, txRepo)
	assert.Equal(t, originalRepo.logger, txRepo.(*BookingRepository).logger)
	assert.Equal(t, pgxTx, txRepo.(*BookingRepository).querier, "Querier in new repo should be the transaction")

	assert.NoError(t, mockPool.ExpectationsWereMet())
}
