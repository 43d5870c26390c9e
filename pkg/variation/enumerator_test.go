package variation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/polisai/statvar/pkg/domain"
)

func TestEnumerate_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		budget   int
		minimums domain.Stats
		expected []domain.Stats
	}{
		{
			name:     "zero budget",
			budget:   0,
			minimums: domain.Stats{},
			expected: []domain.Stats{{0, 0, 0, 0, 0}},
		},
		{
			name:     "last slot minimum absorbs budget",
			budget:   5,
			minimums: domain.Stats{0, 0, 0, 0, 5},
			expected: []domain.Stats{{0, 0, 0, 0, 5}},
		},
		{
			name:     "minimums exceed budget",
			budget:   3,
			minimums: domain.Stats{1, 1, 1, 1, 1},
			expected: []domain.Stats{},
		},
		{
			name:     "every slot at ceiling",
			budget:   495,
			minimums: domain.Stats{},
			expected: []domain.Stats{{99, 99, 99, 99, 99}},
		},
		{
			name:     "above maximum feasible sum",
			budget:   496,
			minimums: domain.Stats{},
			expected: []domain.Stats{},
		},
		{
			name:     "minimum above ceiling",
			budget:   200,
			minimums: domain.Stats{0, 0, 0, 0, 100},
			expected: []domain.Stats{},
		},
		{
			name:     "budget of one",
			budget:   1,
			minimums: domain.Stats{},
			expected: []domain.Stats{
				{0, 0, 0, 0, 1},
				{0, 0, 0, 1, 0},
				{0, 0, 1, 0, 0},
				{0, 1, 0, 0, 0},
				{1, 0, 0, 0, 0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Enumerate(tt.budget, tt.minimums)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestEnumerate_BudgetHundredCount(t *testing.T) {
	if testing.Short() {
		t.Skip("materialises 4.6M variations")
	}
	got, err := Enumerate(100, domain.Stats{})
	require.NoError(t, err)

	// C(104,4) compositions minus the five that put 100 in a single slot.
	assert.Len(t, got, 4598121)

	// Strictly ascending order also rules out duplicates.
	for i, v := range got {
		if v.Sum() != 100 || !v.Within(domain.Stats{}, domain.DefaultCeiling) {
			t.Fatalf("variation %d %v violates invariants", i, v)
		}
		if i > 0 && !got[i-1].Less(v) {
			t.Fatalf("variation %d %v not after %v", i, v, got[i-1])
		}
	}
	assert.Equal(t, domain.Stats{0, 0, 0, 1, 99}, got[0])
	assert.Equal(t, domain.Stats{99, 1, 0, 0, 0}, got[len(got)-1])
}

func TestEnumerate_RejectsNegativeInput(t *testing.T) {
	_, err := Enumerate(-1, domain.Stats{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))

	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.CodeInvalidArgument, de.Code)
	assert.Equal(t, "budget", de.Details["field"])

	_, err = Enumerate(10, domain.Stats{0, 0, -2, 0, 0})
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "minimums", de.Details["field"])

	err = New().Walk(-5, domain.Stats{}, func(domain.Stats) bool { return true })
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = New().Count(0, domain.Stats{-1})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestWalk_StopsEarly(t *testing.T) {
	var visited []domain.Stats
	err := New().Walk(10, domain.Stats{}, func(s domain.Stats) bool {
		visited = append(visited, s)
		return len(visited) < 3
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.Stats{
		{0, 0, 0, 0, 10},
		{0, 0, 0, 1, 9},
		{0, 0, 0, 2, 8},
	}, visited)
}

func TestWalkContext_CancelledMidWalk(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var visited int
	err := New().WalkContext(ctx, 100, domain.Stats{}, func(domain.Stats) bool {
		visited++
		if visited == 3 {
			cancel()
		}
		return true
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, visited)
}

func TestWalkContext_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := New().WalkContext(ctx, 10, domain.Stats{}, func(domain.Stats) bool {
		called = true
		return true
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestWalkContext_Completes(t *testing.T) {
	var visited int
	err := New().WalkContext(context.Background(), 3, domain.Stats{1, 1, 1, 0, 0}, func(domain.Stats) bool {
		visited++
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, 1, visited)

	err = New().WalkContext(context.Background(), -1, domain.Stats{}, func(domain.Stats) bool { return true })
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestAll_MatchesEnumerate(t *testing.T) {
	e := New(WithCeiling(4))
	seq, err := e.All(9, domain.Stats{1, 0, 0, 2, 0})
	require.NoError(t, err)

	var got []domain.Stats
	for s := range seq {
		got = append(got, s)
	}
	want, err := e.Enumerate(9, domain.Stats{1, 0, 0, 2, 0})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = e.All(-1, domain.Stats{})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestWithCeiling(t *testing.T) {
	assert.Equal(t, domain.DefaultCeiling, New().Ceiling())
	assert.Equal(t, 3, New(WithCeiling(3)).Ceiling())
	assert.Equal(t, domain.DefaultCeiling, New(WithCeiling(-1)).Ceiling())

	got, err := New(WithCeiling(1)).Enumerate(5, domain.Stats{})
	require.NoError(t, err)
	assert.Equal(t, []domain.Stats{{1, 1, 1, 1, 1}}, got)

	// The forced last slot must respect the ceiling too.
	got, err = New(WithCeiling(2)).Enumerate(3, domain.Stats{1, 0, 0, 0, 0})
	require.NoError(t, err)
	for _, v := range got {
		assert.LessOrEqual(t, v[4], 2)
	}
}

// bruteForce filters the full Cartesian product; it is the reference the
// pruned search is checked against.
func bruteForce(budget int, minimums domain.Stats, ceiling int) []domain.Stats {
	out := []domain.Stats{}
	var cur domain.Stats
	var rec func(slot int)
	rec = func(slot int) {
		if slot == domain.SlotCount {
			if cur.Sum() == budget && cur.Within(minimums, ceiling) {
				out = append(out, cur)
			}
			return
		}
		for v := 0; v <= ceiling; v++ {
			cur[slot] = v
			rec(slot + 1)
		}
	}
	rec(0)
	return out
}

func drawMinimums(t *rapid.T, maxValue int) domain.Stats {
	var m domain.Stats
	for i := range m {
		m[i] = rapid.IntRange(0, maxValue).Draw(t, "min")
	}
	return m
}

// Property: pruned search equals brute force on a small ceiling.
func TestEnumerate_MatchesBruteForce(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ceiling := rapid.IntRange(0, 6).Draw(t, "ceiling")
		budget := rapid.IntRange(0, 5*ceiling+3).Draw(t, "budget")
		minimums := drawMinimums(t, ceiling+1)

		got, err := New(WithCeiling(ceiling)).Enumerate(budget, minimums)
		if err != nil {
			t.Fatalf("enumerate: %v", err)
		}
		want := bruteForce(budget, minimums, ceiling)
		if len(got) != len(want) {
			t.Fatalf("got %d variations, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("variation %d: got %v, want %v", i, got[i], want[i])
			}
		}
	})
}

// Property: sum, bounds, ordering and the two boundary cases hold at the default ceiling.
func TestEnumerate_Invariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		minimums := drawMinimums(t, 30)
		budget := rapid.IntRange(0, minimums.Sum()+12).Draw(t, "budget")

		got, err := Enumerate(budget, minimums)
		if err != nil {
			t.Fatalf("enumerate: %v", err)
		}

		for i, v := range got {
			if v.Sum() != budget {
				t.Fatalf("variation %v sums to %d, want %d", v, v.Sum(), budget)
			}
			if !v.Within(minimums, domain.DefaultCeiling) {
				t.Fatalf("variation %v outside bounds %v", v, minimums)
			}
			if i > 0 && !got[i-1].Less(v) {
				t.Fatalf("variation %v does not follow %v", v, got[i-1])
			}
		}

		switch {
		case minimums.Sum() > budget:
			if len(got) != 0 {
				t.Fatalf("expected no variations, got %d", len(got))
			}
		case minimums.Sum() == budget:
			if len(got) != 1 || got[0] != minimums {
				t.Fatalf("expected exactly %v, got %v", minimums, got)
			}
		}
	})
}
