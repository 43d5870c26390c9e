package variation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/polisai/statvar/pkg/domain"
)

func TestCount_KnownValues(t *testing.T) {
	e := New()
	tests := []struct {
		name     string
		budget   int
		minimums domain.Stats
		expected uint64
	}{
		{name: "zero", budget: 0, expected: 1},
		{name: "hundred", budget: 100, expected: 4598121},
		{name: "max", budget: 495, expected: 1},
		{name: "beyond max", budget: 496, expected: 0},
		{name: "infeasible minimums", budget: 3, minimums: domain.Stats{1, 1, 1, 1, 1}, expected: 0},
		{name: "minimum above ceiling", budget: 300, minimums: domain.Stats{100}, expected: 0},
		{name: "exact minimums", budget: 15, minimums: domain.Stats{1, 2, 3, 4, 5}, expected: 1},
		{name: "max int budget", budget: math.MaxInt64, expected: 0},
		{name: "max int budget with minimums", budget: math.MaxInt64, minimums: domain.Stats{99, 99, 99, 99, 99}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Count(tt.budget, tt.minimums)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCount_Overflow(t *testing.T) {
	_, err := New(WithCeiling(1<<40)).Count(1<<40, domain.Stats{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCountOverflow)
	assert.Equal(t, domain.CodeCountOverflow, domain.CodeOf(err))
}

// Property: the closed form agrees with the enumeration.
func TestCount_MatchesEnumerate(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ceiling := rapid.IntRange(0, 12).Draw(t, "ceiling")
		budget := rapid.IntRange(0, 5*ceiling+2).Draw(t, "budget")
		minimums := drawMinimums(t, ceiling+1)
		e := New(WithCeiling(ceiling))

		n, err := e.Count(budget, minimums)
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		got, err := e.Enumerate(budget, minimums)
		if err != nil {
			t.Fatalf("enumerate: %v", err)
		}
		if n != uint64(len(got)) {
			t.Fatalf("count %d, enumerate produced %d", n, len(got))
		}
	})
}
