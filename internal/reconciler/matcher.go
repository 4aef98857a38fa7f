package reconciler

import (
	"log/slog"
	"strings"

	"github.com/longsangforge/payment-reconciler/internal/domain/booking"
	"github.com/longsangforge/payment-reconciler/internal/domain/reconciliation"
	"github.com/longsangforge/payment-reconciler/internal/reconciler/reference"
)

// BookingMatcher implements the Matcher interface using the payment
// reference scheme and a percentage amount tolerance.
type BookingMatcher struct {
	scheme       *reference.Scheme
	tolerancePct int64
	logger       *slog.Logger
}

// NewBookingMatcher creates a matcher with the given tolerance in percent
// of the expected price.
func NewBookingMatcher(scheme *reference.Scheme, tolerancePct int, logger *slog.Logger) *BookingMatcher {
	return &BookingMatcher{
		scheme:       scheme,
		tolerancePct: int64(tolerancePct),
		logger:       logger,
	}
}

// Match scans candidates in selector order (most recently created first) and
// returns the first booking satisfying both the reference check and the
// amount check, or nil. First-match-wins: iteration stops at the first hit,
// it is not a best-score search.
//
// The reference check is a deliberately asymmetric double containment: the
// transaction's full token may contain the expected reference, or the
// expected reference may contain the parsed name token. This tolerates
// truncation in either direction caused by bank memo character limits.
func (m *BookingMatcher) Match(ref *reconciliation.ParsedReference, amount int64, candidates []*booking.Booking) *booking.Booking {
	for _, c := range candidates {
		expectedRef := m.scheme.Generate(c.ClientName, c.BookingDate)

		// An empty name token would trivially be contained in every
		// expected reference, so the second arm requires a non-empty one.
		nameContained := ref.NameToken != "" && strings.Contains(expectedRef, ref.NameToken)
		if !strings.Contains(ref.FullToken, expectedRef) && !nameContained {
			continue
		}

		price := c.ServiceType.Price()
		if price == 0 || m.withinTolerance(amount, price) {
			m.logger.Debug("Reference matched booking",
				"booking_id", c.ID.String(),
				"expected_ref", expectedRef,
				"full_token", ref.FullToken,
				"amount", amount,
				"expected_price", price,
			)
			return c
		}

		m.logger.Debug("Reference matched but amount out of tolerance",
			"booking_id", c.ID.String(),
			"amount", amount,
			"expected_price", price,
		)
	}

	return nil
}

// withinTolerance checks |amount - price| <= tolerancePct% of price using
// integer arithmetic, so the boundary is exact.
func (m *BookingMatcher) withinTolerance(amount, price int64) bool {
	diff := amount - price
	if diff < 0 {
		diff = -diff
	}
	return diff*100 <= price*m.tolerancePct
}
