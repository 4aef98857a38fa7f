package reference

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheme(t *testing.T) *Scheme {
	t.Helper()
	s, err := NewScheme("TUVAN", 10)
	require.NoError(t, err)
	return s
}

func TestNewScheme(t *testing.T) {
	t.Run("UppercasesMarker", func(t *testing.T) {
		s, err := NewScheme("tuvan", 10)
		require.NoError(t, err)
		assert.Equal(t, "TUVAN", s.Marker())
	})

	t.Run("EmptyMarker", func(t *testing.T) {
		s, err := NewScheme("", 10)
		assert.Nil(t, s)
		assert.Error(t, err)
	})

	t.Run("InvalidNameMaxLen", func(t *testing.T) {
		s, err := NewScheme("TUVAN", 0)
		assert.Nil(t, s)
		assert.Error(t, err)
	})
}

func TestScheme_Generate(t *testing.T) {
	s := newTestScheme(t)

	testCases := []struct {
		name        string
		clientName  string
		bookingDate string
		expected    string
	}{
		{"PlainName", "Sang Volon", "2025-12-29", "TUVANSANGVOLON20251229"},
		{"Diacritics", "Nguyễn Văn Á", "2025-12-29", "TUVANNGUYENVANA20251229"},
		{"TruncatesAtTen", "Nguyen Thi Phuong Thao", "2025-01-02", "TUVANNGUYENTHIP20250102"},
		{"LowercaseInput", "sang volon", "2025-12-29", "TUVANSANGVOLON20251229"},
		{"ExtraWhitespace", "  Sang   Volon ", "2025-12-29", "TUVANSANGVOLON20251229"},
		{"EmptyName", "", "2025-12-29", "TUVAN20251229"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, s.Generate(tc.clientName, tc.bookingDate))
		})
	}
}

func TestScheme_Parse(t *testing.T) {
	s := newTestScheme(t)

	t.Run("NameAndDate", func(t *testing.T) {
		ref, ok := s.Parse("TUVAN SANGVOLON 29122025")
		require.True(t, ok)
		assert.Equal(t, "TUVANSANGVOLON29122025", ref.FullToken)
		assert.Equal(t, "SANGVOLON", ref.NameToken)
		assert.Equal(t, "29122025", ref.DateToken)
	})

	t.Run("NoMarker", func(t *testing.T) {
		ref, ok := s.Parse("CHUYEN TIEN QUA MOMO")
		assert.False(t, ok)
		assert.Nil(t, ref)
	})

	t.Run("EmptyDescription", func(t *testing.T) {
		ref, ok := s.Parse("")
		assert.False(t, ok)
		assert.Nil(t, ref)
	})

	t.Run("BareMarkerIsValidWithEmptyName", func(t *testing.T) {
		ref, ok := s.Parse("TUVAN")
		require.True(t, ok)
		assert.Equal(t, "TUVAN", ref.FullToken)
		assert.Empty(t, ref.NameToken)
		assert.Empty(t, ref.DateToken)
	})

	t.Run("LowercaseAndNoisyWhitespace", func(t *testing.T) {
		ref, ok := s.Parse("  tuvan   sangvolon\t29122025  ")
		require.True(t, ok)
		assert.Equal(t, "TUVANSANGVOLON29122025", ref.FullToken)
		assert.Equal(t, "SANGVOLON", ref.NameToken)
	})

	t.Run("SurroundingBankBoilerplate", func(t *testing.T) {
		ref, ok := s.Parse("CT DEN:508812345678 TUVAN SANGVOLON 29122025 GD TIEN MAT")
		require.True(t, ok)
		assert.Equal(t, "SANGVOLON", ref.NameToken)
		assert.Equal(t, "29122025", ref.DateToken)
	})

	t.Run("FirstOccurrenceWins", func(t *testing.T) {
		ref, ok := s.Parse("TUVAN ALPHA 29122025 TUVAN BETA 30122025")
		require.True(t, ok)
		assert.Equal(t, "ALPHA", ref.NameToken)
		assert.Equal(t, "29122025", ref.DateToken)
	})

	t.Run("DigitsOnlyAfterMarkerBecomeNameToken", func(t *testing.T) {
		ref, ok := s.Parse("TUVAN 29122025")
		require.True(t, ok)
		assert.Equal(t, "29122025", ref.NameToken)
		assert.Empty(t, ref.DateToken)
	})

	t.Run("FiveDigitFragmentNotADate", func(t *testing.T) {
		ref, ok := s.Parse("TUVAN SANGVOLON 29122")
		require.True(t, ok)
		assert.Equal(t, "SANGVOLON", ref.NameToken)
		assert.Empty(t, ref.DateToken)
	})
}

// The generated token must be recognizable in a plausible payer-typed memo;
// truncation in either direction is absorbed by the matcher's containment
// checks, so here we only assert the name fragments line up.
func TestScheme_RoundTrip(t *testing.T) {
	s := newTestScheme(t)

	expected := s.Generate("Nguyen Van A", "2025-12-29")
	assert.Equal(t, "TUVANNGUYENVANA20251229", expected)

	ref, ok := s.Parse("TUVAN NGUYENVANA 29122025")
	require.True(t, ok)
	assert.True(t, strings.Contains(expected, ref.NameToken),
		"expected reference should contain the parsed name token")
}
