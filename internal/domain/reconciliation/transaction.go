// Package reconciliation holds the types flowing through the payment
// reconciliation pipeline: incoming bank transactions, parsed payment
// references and per-transaction outcomes.
package reconciliation

import "github.com/google/uuid"

// IncomingTransaction is one bank transfer notification from the provider
// webhook batch. ExternalID is globally unique per real-world transfer and is
// the idempotency boundary for settlement.
type IncomingTransaction struct {
	ExternalID      int64  `json:"id"`          // Provider transaction identifier
	CounterpartyRef string `json:"tid"`         // Provider trace id, stored on the booking
	Description     string `json:"description"` // Free-text memo typed by the payer
	Amount          int64  `json:"amount"`      // Whole currency units
	OccurredAt      string `json:"when"`        // Provider-supplied timestamp string
}

// ParsedReference is the structured payment reference extracted from a
// transaction description. Computed fresh per transaction, never persisted.
type ParsedReference struct {
	FullToken string // Matched span, uppercased, internal whitespace stripped
	NameToken string // Client-name fragment, may be empty
	DateToken string // Optional 6-8 digit date fragment
}

// Outcome classifies the result of reconciling one transaction
type Outcome string

const (
	OutcomeConfirmed Outcome = "confirmed"
	OutcomeNoMatch   Outcome = "no_match"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeError     Outcome = "error"
)

// Result is the per-transaction outcome returned to the webhook caller
type Result struct {
	ExternalID int64     `json:"id"`
	Status     Outcome   `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	BookingID  uuid.UUID `json:"booking_id"`
	ClientName string    `json:"client_name,omitempty"`
}

// Confirmed builds a successful settlement result
func Confirmed(externalID int64, bookingID uuid.UUID, clientName string) Result {
	return Result{ExternalID: externalID, Status: OutcomeConfirmed, BookingID: bookingID, ClientName: clientName}
}

// NoMatch builds a no-match result with the given reason
func NoMatch(externalID int64, reason string) Result {
	return Result{ExternalID: externalID, Status: OutcomeNoMatch, Reason: reason}
}

// Skipped builds a skipped result with the given reason
func Skipped(externalID int64, reason string) Result {
	return Result{ExternalID: externalID, Status: OutcomeSkipped, Reason: reason}
}

// Errored builds an error result with the given reason
func Errored(externalID int64, reason string) Result {
	return Result{ExternalID: externalID, Status: OutcomeError, Reason: reason}
}
