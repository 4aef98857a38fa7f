package dispatcher

import (
	"context"

	"github.com/longsangforge/payment-reconciler/internal/domain/reconciliation"
)

// CalendarService creates consultation events on the shared calendar
type CalendarService interface {
	CreateEvent(ctx context.Context, event *reconciliation.SettlementEvent) (string, error)
}

// EmailService sends the post-settlement notification emails
type EmailService interface {
	SendPaymentConfirmed(ctx context.Context, event *reconciliation.SettlementEvent) error
	SendAdminPaymentConfirmed(ctx context.Context, event *reconciliation.SettlementEvent) error
}
