package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// SlotCount is the fixed number of ordered slots in every tuple.
	SlotCount = 5
	// DefaultCeiling is the largest value any single slot may take.
	DefaultCeiling = 99
)

// Stats is an ordered tuple of slot values. It is used both for the per-slot
// minimums handed to the enumerator and for each variation it produces.
type Stats [SlotCount]int

// Sum returns the total of all slot values.
func (s Stats) Sum() int {
	total := 0
	for _, v := range s {
		total += v
	}
	return total
}

// Less reports whether s sorts before o in slot order.
func (s Stats) Less(o Stats) bool {
	for i := range s {
		if s[i] != o[i] {
			return s[i] < o[i]
		}
	}
	return false
}

// Within reports whether every slot lies in [minimums[i], ceiling].
func (s Stats) Within(minimums Stats, ceiling int) bool {
	for i, v := range s {
		if v < minimums[i] || v > ceiling {
			return false
		}
	}
	return true
}

// Slice returns the slot values as a freshly allocated slice.
func (s Stats) Slice() []int {
	out := make([]int, SlotCount)
	copy(out, s[:])
	return out
}

func (s Stats) String() string {
	parts := make([]string, SlotCount)
	for i, v := range s {
		parts[i] = strconv.Itoa(v)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// ParseStats parses a comma separated list of exactly SlotCount integers,
// e.g. "1,2,3,4,5". Whitespace around each value is ignored.
func ParseStats(raw string) (Stats, error) {
	var s Stats
	parts := strings.Split(raw, ",")
	if len(parts) != SlotCount {
		return s, InvalidArgument("minimums", fmt.Sprintf("expected %d comma separated values, got %d", SlotCount, len(parts)))
	}
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return s, InvalidArgument("minimums", fmt.Sprintf("slot %d: %q is not an integer", i, strings.TrimSpace(p)))
		}
		s[i] = v
	}
	return s, nil
}

// StatsFromSlice converts a slice of exactly SlotCount values into Stats.
func StatsFromSlice(values []int) (Stats, error) {
	var s Stats
	if len(values) != SlotCount {
		return s, InvalidArgument("minimums", fmt.Sprintf("expected %d values, got %d", SlotCount, len(values)))
	}
	copy(s[:], values)
	return s, nil
}
