// Package reference implements the payment reference scheme linking bank
// transfers to bookings. A reference is MARKER + normalized client name +
// compact booking date, e.g. "TUVANSANGVOLON20251229". The same Scheme both
// generates the expected reference for a booking and extracts candidate
// references from free-text transaction memos, so the two directions cannot
// drift apart.
package reference

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/longsangforge/payment-reconciler/internal/domain/reconciliation"
)

// Scheme holds the marker keyword and normalization rules shared by
// generation and parsing.
type Scheme struct {
	marker     string
	nameMaxLen int
	pattern    *regexp.Regexp
}

// NewScheme builds a Scheme for the given marker keyword. The marker is
// uppercased; nameMaxLen bounds the normalized client name in generated
// references.
func NewScheme(marker string, nameMaxLen int) (*Scheme, error) {
	if marker == "" {
		return nil, fmt.Errorf("reference marker cannot be empty")
	}
	if nameMaxLen <= 0 {
		return nil, fmt.Errorf("reference name max length must be positive, got %d", nameMaxLen)
	}

	upper := strings.ToUpper(marker)

	// Marker, then a name fragment (possibly empty), then an optional
	// 6-8 digit date fragment. First match wins.
	pattern, err := regexp.Compile(regexp.QuoteMeta(upper) + `\s*(\S*)\s*(\d{6,8})?`)
	if err != nil {
		return nil, fmt.Errorf("failed to compile reference pattern for marker %q: %w", marker, err)
	}

	return &Scheme{
		marker:     upper,
		nameMaxLen: nameMaxLen,
		pattern:    pattern,
	}, nil
}

// Marker returns the marker keyword
func (s *Scheme) Marker() string {
	return s.marker
}

// Generate derives the expected reference string for a booking. This is the
// exact string the payer is instructed to type in the transfer memo:
// marker + uppercase client name with whitespace removed and diacritics
// stripped, truncated to nameMaxLen, + booking date with separators removed.
func (s *Scheme) Generate(clientName, bookingDate string) string {
	name := stripDiacritics(strings.ToUpper(strings.Join(strings.Fields(clientName), "")))
	if r := []rune(name); len(r) > s.nameMaxLen {
		name = string(r[:s.nameMaxLen])
	}

	date := strings.ReplaceAll(bookingDate, "-", "")

	return s.marker + name + date
}

// Parse extracts a payment reference from a raw transaction description.
// The description is uppercased and whitespace-collapsed before the marker
// pattern is applied; only the first occurrence is considered. Returns false
// when no marker is present, which callers must treat as a skip, not an
// error. A marker with no following name fragment is still a valid reference
// with an empty name token.
func (s *Scheme) Parse(description string) (*reconciliation.ParsedReference, bool) {
	if description == "" {
		return nil, false
	}

	normalized := strings.Join(strings.Fields(strings.ToUpper(description)), " ")

	m := s.pattern.FindStringSubmatch(normalized)
	if m == nil {
		return nil, false
	}

	return &reconciliation.ParsedReference{
		FullToken: strings.ReplaceAll(m[0], " ", ""),
		NameToken: m[1],
		DateToken: m[2],
	}, true
}

// stripDiacritics removes combining marks after NFD decomposition, so
// "Nguyễn" becomes "Nguyen". Letters without a decomposition (e.g. "Đ")
// pass through unchanged.
func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
