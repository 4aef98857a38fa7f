// Package reconciler implements the payment reconciliation engine: parsing
// payment references out of bank transaction memos, matching them against
// pending bookings, executing the settlement transition and handing settled
// bookings off for side-effect dispatch.
package reconciler

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/longsangforge/payment-reconciler/internal/domain/booking"
	"github.com/longsangforge/payment-reconciler/internal/domain/reconciliation"
	"github.com/longsangforge/payment-reconciler/internal/platform/messaging/producers"
	"github.com/longsangforge/payment-reconciler/internal/reconciler/reference"
)

const (
	reasonNoReference      = "no payment reference in description"
	reasonDuplicateInBatch = "duplicate transaction in batch"
	reasonNoMatch          = "no matching pending booking"
	reasonAlreadySettled   = "already settled"
	reasonConflict         = "booking no longer pending"
)

// Service runs the reconciliation pipeline for webhook batches.
type Service struct {
	scheme         *reference.Scheme
	bookingRepo    booking.Repository
	matcher        Matcher
	executor       SettlementExecutor
	publisher      producers.MessagePublisher
	auditor        reconciliation.AuditRecorder
	candidateLimit int
	logger         *slog.Logger
}

// NewService wires the reconciliation pipeline. publisher and auditor may be
// nil, in which case settlement events and audit records are not emitted;
// both are best-effort and never affect transaction outcomes.
func NewService(
	scheme *reference.Scheme,
	bookingRepo booking.Repository,
	matcher Matcher,
	executor SettlementExecutor,
	publisher producers.MessagePublisher,
	auditor reconciliation.AuditRecorder,
	candidateLimit int,
	logger *slog.Logger,
) *Service {
	return &Service{
		scheme:         scheme,
		bookingRepo:    bookingRepo,
		matcher:        matcher,
		executor:       executor,
		publisher:      publisher,
		auditor:        auditor,
		candidateLimit: candidateLimit,
		logger:         logger,
	}
}

// ProcessBatch reconciles a webhook batch sequentially, in incoming order.
// Each transaction runs to completion or failure independently: one item's
// store error never aborts its siblings. The returned slice has exactly one
// result per input transaction, in the same order.
func (s *Service) ProcessBatch(ctx context.Context, correlationID string, txs []reconciliation.IncomingTransaction) []reconciliation.Result {
	logger := s.logger
	if correlationID != "" {
		logger = s.logger.With("correlation_id", correlationID)
	}

	logger.Info("Processing webhook batch", "transactions", len(txs))

	results := make([]reconciliation.Result, 0, len(txs))
	seen := make(map[int64]bool, len(txs))

	for _, tx := range txs {
		var res reconciliation.Result

		// In-batch dedup: a provider retry can place the same transfer
		// twice in one delivery. Cross-batch replays are handled by the
		// settlement guard.
		if seen[tx.ExternalID] {
			logger.Warn("Duplicate transaction in batch", "external_id", tx.ExternalID)
			res = reconciliation.Skipped(tx.ExternalID, reasonDuplicateInBatch)
		} else {
			seen[tx.ExternalID] = true
			res = s.processOne(ctx, logger, tx, correlationID)
		}

		s.audit(ctx, logger, tx, res, correlationID)
		results = append(results, res)
	}

	return results
}

// processOne runs parse -> select -> match -> settle -> dispatch for a
// single transaction.
func (s *Service) processOne(ctx context.Context, logger *slog.Logger, tx reconciliation.IncomingTransaction, correlationID string) reconciliation.Result {
	logger = logger.With("external_id", tx.ExternalID)
	logger.Info("Processing transaction", "amount", tx.Amount, "description", tx.Description)

	ref, ok := s.scheme.Parse(tx.Description)
	if !ok {
		logger.Info("No payment reference found, skipping")
		return reconciliation.Skipped(tx.ExternalID, reasonNoReference)
	}

	candidates, err := s.bookingRepo.FindSettlementCandidates(ctx, s.candidateLimit)
	if err != nil {
		logger.Error("Failed to load settlement candidates", "error", err)
		return reconciliation.Errored(tx.ExternalID, err.Error())
	}

	matched := s.matcher.Match(ref, tx.Amount, candidates)
	if matched == nil {
		logger.Info("No matching pending booking", "full_token", ref.FullToken)
		return reconciliation.NoMatch(tx.ExternalID, reasonNoMatch)
	}

	if err := s.executor.Settle(ctx, matched, tx); err != nil {
		switch {
		case errors.Is(err, ErrAlreadySettled):
			return reconciliation.NoMatch(tx.ExternalID, reasonAlreadySettled)
		case errors.Is(err, booking.ErrSettlementConflict{}):
			return reconciliation.NoMatch(tx.ExternalID, reasonConflict)
		default:
			logger.Error("Settlement failed", "booking_id", matched.ID.String(), "error", err)
			return reconciliation.Errored(tx.ExternalID, err.Error())
		}
	}

	s.dispatch(ctx, logger, matched, tx, correlationID)

	return reconciliation.Confirmed(tx.ExternalID, matched.ID, matched.ClientName)
}

// dispatch emits the settlement event consumed by the side-effect worker.
// Publish failures are logged and swallowed: the settlement is already
// committed and the webhook outcome must not depend on the broker.
func (s *Service) dispatch(ctx context.Context, logger *slog.Logger, matched *booking.Booking, tx reconciliation.IncomingTransaction, correlationID string) {
	if s.publisher == nil {
		return
	}

	event := reconciliation.NewSettlementEvent(matched, tx.Amount, tx.CounterpartyRef, correlationID)
	if err := s.publisher.Publish(ctx, matched.ID.String(), event); err != nil {
		logger.Error("Failed to publish settlement event",
			"booking_id", matched.ID.String(),
			"error", err,
		)
		return
	}

	logger.Info("Settlement event published", "booking_id", matched.ID.String())
}

// audit records the transaction outcome, best-effort.
func (s *Service) audit(ctx context.Context, logger *slog.Logger, tx reconciliation.IncomingTransaction, res reconciliation.Result, correlationID string) {
	if s.auditor == nil {
		return
	}

	record := reconciliation.NewAuditRecord(tx, res, correlationID)
	if err := s.auditor.Record(ctx, record); err != nil {
		logger.Error("Failed to write audit record",
			"external_id", strconv.FormatInt(tx.ExternalID, 10),
			"error", err,
		)
	}
}
