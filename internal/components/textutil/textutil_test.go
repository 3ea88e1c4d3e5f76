package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	table := []struct {
		input    string
		expected string
	}{
		{input: "Stationary", expected: "stationary"},
		{input: " eBird Pelagic Protocol\n", expected: "ebirdpelagicprotocol"},
		{input: "Rusty BlackbirdSpring Migration Blitz", expected: "rustyblackbirdspringmigrationblitz"},
		{input: "Rusty Blackbird Spring Migration Blitz", expected: "rustyblackbirdspringmigrationblitz"},
	}

	for _, row := range table {
		require.Equal(t, row.expected, NormalizeName(row.input))
	}
}

func TestClosest(t *testing.T) {
	candidates := []string{"Stationary", "Traveling", "Incidental", "Historical"}

	closest, similarity := Closest("Travelling", candidates)
	require.Equal(t, "Traveling", closest)
	require.Greater(t, similarity, 0.9)

	closest, similarity = Closest("STATIONERY", candidates)
	require.Equal(t, "Stationary", closest)
	require.Greater(t, similarity, 0.8)

	closest, similarity = Closest("anything", nil)
	require.Equal(t, "", closest)
	require.Zero(t, similarity)
}
