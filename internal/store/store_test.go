package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSubmissionID(t *testing.T) {
	seen := make(map[string]bool)

	for range 100 {
		id := NewSubmissionID()
		require.NotEmpty(t, id)
		require.False(t, seen[id], "submission IDs must be unique")
		seen[id] = true
	}
}

func TestNewSubmissionIDIsSortable(t *testing.T) {
	// UUIDv7 is time ordered and base58 of a fixed width value preserves
	// byte order, so later IDs never compare lower.
	first := NewSubmissionID()
	second := NewSubmissionID()
	require.LessOrEqual(t, first, second)
}
