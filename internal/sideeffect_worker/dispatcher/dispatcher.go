// Package dispatcher runs the post-settlement side effects: creating the
// consultation calendar event and sending the confirmation emails. All of it
// is best-effort; the settlement itself is already committed by the time an
// event reaches this package.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/longsangforge/payment-reconciler/internal/domain/booking"
	"github.com/longsangforge/payment-reconciler/internal/domain/reconciliation"
)

// Dispatcher fans settlement events out to a bounded worker pool
type Dispatcher struct {
	calendar    CalendarService
	email       EmailService
	bookingRepo booking.Repository
	pool        *ants.Pool
	logger      *slog.Logger
	// Use a mutex to protect access to the results map
	mu      sync.Mutex
	results map[string]chan error
}

// NewDispatcher creates a dispatcher backed by a worker pool of the given size
func NewDispatcher(
	logger *slog.Logger,
	calendar CalendarService,
	email EmailService,
	bookingRepo booking.Repository,
	poolSize int,
) (*Dispatcher, error) {
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	return &Dispatcher{
		calendar:    calendar,
		email:       email,
		bookingRepo: bookingRepo,
		pool:        pool,
		logger:      logger,
		results:     make(map[string]chan error),
	}, nil
}

// Dispatch submits a settlement event to the worker pool and waits for the
// side effects to run. The returned error reports which side effects failed;
// callers log it but never retry, side effects are at-most-once.
func (d *Dispatcher) Dispatch(ctx context.Context, event *reconciliation.SettlementEvent) error {
	logger := d.logger
	if event.CorrelationID != "" {
		logger = d.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Submitting settlement side effects to worker pool",
		"booking_id", event.BookingID.String(),
		"transaction_id", event.TransactionID,
	)

	// Create a channel to receive the result of the side-effect run
	resultChan := make(chan error, 1)

	bookingID := event.BookingID.String()
	d.mu.Lock()
	d.results[bookingID] = resultChan
	d.mu.Unlock()

	// Create a copy of the event to avoid data races
	eventCopy := *event

	err := d.pool.Submit(func() {
		resultChan <- d.run(ctx, logger, &eventCopy)

		d.mu.Lock()
		delete(d.results, bookingID)
		close(resultChan)
		d.mu.Unlock()
	})

	if err != nil {
		// If we couldn't submit the task to the pool, remove the result channel
		d.mu.Lock()
		delete(d.results, bookingID)
		close(resultChan)
		d.mu.Unlock()

		logger.Error("Failed to submit side effects to worker pool",
			"booking_id", bookingID,
			"error", err,
		)
		return err
	}

	return <-resultChan
}

// run executes the three side effects in order. Each failure is logged and
// recorded but never blocks the remaining effects.
func (d *Dispatcher) run(ctx context.Context, logger *slog.Logger, event *reconciliation.SettlementEvent) error {
	var failures []error

	eventID, err := d.calendar.CreateEvent(ctx, event)
	if err != nil {
		logger.Error("Failed to create calendar event",
			"booking_id", event.BookingID.String(),
			"error", err,
		)
		failures = append(failures, fmt.Errorf("calendar event: %w", err))
	} else {
		logger.Info("Calendar event created",
			"booking_id", event.BookingID.String(),
			"event_id", eventID,
		)
		if err := d.bookingRepo.SetCalendarEventID(ctx, event.BookingID, eventID); err != nil {
			logger.Error("Failed to record calendar event id",
				"booking_id", event.BookingID.String(),
				"event_id", eventID,
				"error", err,
			)
			failures = append(failures, fmt.Errorf("calendar event writeback: %w", err))
		}
	}

	if err := d.email.SendPaymentConfirmed(ctx, event); err != nil {
		logger.Error("Failed to send client confirmation email",
			"booking_id", event.BookingID.String(),
			"error", err,
		)
		failures = append(failures, fmt.Errorf("client email: %w", err))
	}

	if err := d.email.SendAdminPaymentConfirmed(ctx, event); err != nil {
		logger.Error("Failed to send admin notification email",
			"booking_id", event.BookingID.String(),
			"error", err,
		)
		failures = append(failures, fmt.Errorf("admin email: %w", err))
	}

	return errors.Join(failures...)
}

// Shutdown gracefully shuts down the worker pool.
func (d *Dispatcher) Shutdown() {
	d.logger.Info("Shutting down side-effect worker pool", "running_workers", d.pool.Running())
	d.pool.Release()
}

// Running returns the number of running workers in the pool.
func (d *Dispatcher) Running() int {
	return d.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (d *Dispatcher) Capacity() int {
	return d.pool.Cap()
}
