package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStats(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    Stats
		expectError bool
	}{
		{name: "plain", input: "1,2,3,4,5", expected: Stats{1, 2, 3, 4, 5}},
		{name: "spaces", input: " 0, 0 ,7,0, 9 ", expected: Stats{0, 0, 7, 0, 9}},
		{name: "negative kept for validation", input: "-1,0,0,0,0", expected: Stats{-1, 0, 0, 0, 0}},
		{name: "too few", input: "1,2,3", expectError: true},
		{name: "too many", input: "1,2,3,4,5,6", expectError: true},
		{name: "not a number", input: "1,2,x,4,5", expectError: true},
		{name: "empty", input: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStats(tt.input)
			if tt.expectError {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidArgument))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestStatsHelpers(t *testing.T) {
	s := Stats{1, 2, 3, 4, 5}
	assert.Equal(t, 15, s.Sum())
	assert.Equal(t, "(1,2,3,4,5)", s.String())
	assert.Equal(t, []int{1, 2, 3, 4, 5}, s.Slice())

	assert.True(t, Stats{0, 0, 0, 0, 1}.Less(Stats{0, 0, 0, 1, 0}))
	assert.False(t, s.Less(s))

	assert.True(t, s.Within(Stats{1, 2, 3, 4, 5}, 5))
	assert.False(t, s.Within(Stats{1, 2, 3, 4, 6}, 99))
	assert.False(t, s.Within(Stats{}, 4))

	_, err := StatsFromSlice([]int{1, 2})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeInvalidArgument, CodeOf(InvalidArgument("budget", "must be non-negative")))
	assert.Equal(t, CodeConfigInvalid, CodeOf(fmt.Errorf("load: %w", ErrConfigInvalid)))
	assert.Equal(t, CodeCountOverflow, CodeOf(ErrCountOverflow))
	assert.Equal(t, CodeCancelled, CodeOf(fmt.Errorf("walk: %w", context.Canceled)))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}
