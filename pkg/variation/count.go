package variation

import (
	"math/big"
	"math/bits"

	"github.com/polisai/statvar/pkg/domain"
)

// Count returns the number of variations Enumerate would produce without
// materialising them. It sums C(n+4, 4) over every subset of slots forced
// past their ceiling, with alternating signs.
func (e *Enumerator) Count(budget int, minimums domain.Stats) (uint64, error) {
	if err := Validate(budget, minimums); err != nil {
		return 0, err
	}

	var (
		widths [domain.SlotCount]int64
		span   int64
	)
	for i, m := range minimums {
		if m > e.ceiling {
			return 0, nil
		}
		widths[i] = int64(e.ceiling-m) + 1
		span += widths[i] - 1
	}

	// Minimums are bounded by the ceiling here, so the sum cannot overflow.
	free := int64(budget) - int64(minimums.Sum())
	if free < 0 || free > span {
		return 0, nil
	}

	total := new(big.Int)
	term := new(big.Int)
	for mask := uint(0); mask < 1<<domain.SlotCount; mask++ {
		n := free
		for i := range domain.SlotCount {
			if mask&(1<<i) != 0 {
				n -= widths[i]
			}
		}
		if n < 0 {
			continue
		}
		term.Binomial(n+domain.SlotCount-1, domain.SlotCount-1)
		if bits.OnesCount(mask)%2 == 1 {
			total.Sub(total, term)
		} else {
			total.Add(total, term)
		}
	}

	if !total.IsUint64() {
		return 0, &domain.DomainError{
			Err:     domain.ErrCountOverflow,
			Code:    domain.CodeCountOverflow,
			Message: "variation count " + total.String() + " overflows uint64",
		}
	}
	return total.Uint64(), nil
}
