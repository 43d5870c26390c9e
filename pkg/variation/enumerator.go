package variation

import (
	"context"
	"fmt"
	"iter"

	"github.com/polisai/statvar/pkg/domain"
)

// Option configures an Enumerator.
type Option func(*Enumerator)

// WithCeiling overrides the per-slot upper bound. Values below zero are
// ignored and the default ceiling is kept.
func WithCeiling(ceiling int) Option {
	return func(e *Enumerator) {
		if ceiling >= 0 {
			e.ceiling = ceiling
		}
	}
}

// Enumerator produces bounded variations. The zero value is not usable; call New.
// An Enumerator holds no per-call state and is safe for concurrent use.
type Enumerator struct {
	ceiling int
}

// New constructs an Enumerator with the default ceiling unless overridden.
func New(opts ...Option) *Enumerator {
	e := &Enumerator{ceiling: domain.DefaultCeiling}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ceiling returns the per-slot upper bound in effect.
func (e *Enumerator) Ceiling() int {
	return e.ceiling
}

var defaultEnumerator = New()

// Enumerate returns every variation of budget over minimums using the default ceiling.
func Enumerate(budget int, minimums domain.Stats) ([]domain.Stats, error) {
	return defaultEnumerator.Enumerate(budget, minimums)
}

// Enumerate returns every variation of budget over minimums in ascending
// lexicographic order. An infeasible request yields an empty, non-nil slice.
func (e *Enumerator) Enumerate(budget int, minimums domain.Stats) ([]domain.Stats, error) {
	if err := Validate(budget, minimums); err != nil {
		return nil, err
	}

	out := make([]domain.Stats, 0)
	var current domain.Stats
	e.search(0, budget, minimums, &current, func(s domain.Stats) bool {
		out = append(out, s)
		return true
	})
	return out, nil
}

// Walk calls visit for each variation in order until visit returns false.
func (e *Enumerator) Walk(budget int, minimums domain.Stats, visit func(domain.Stats) bool) error {
	if err := Validate(budget, minimums); err != nil {
		return err
	}
	var current domain.Stats
	e.search(0, budget, minimums, &current, visit)
	return nil
}

// WalkContext is Walk with cancellation: once ctx is done no further
// variation is visited and ctx.Err() is returned.
func (e *Enumerator) WalkContext(ctx context.Context, budget int, minimums domain.Stats, visit func(domain.Stats) bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var cancelled bool
	err := e.Walk(budget, minimums, func(s domain.Stats) bool {
		if ctx.Err() != nil {
			cancelled = true
			return false
		}
		return visit(s)
	})
	if err != nil {
		return err
	}
	if cancelled {
		return ctx.Err()
	}
	return nil
}

// All returns an iterator over the variations of budget. The input is
// validated eagerly so the sequence itself never fails.
func (e *Enumerator) All(budget int, minimums domain.Stats) (iter.Seq[domain.Stats], error) {
	if err := Validate(budget, minimums); err != nil {
		return nil, err
	}
	return func(yield func(domain.Stats) bool) {
		var current domain.Stats
		e.search(0, budget, minimums, &current, yield)
	}, nil
}

// Validate rejects negative budgets and negative minimums.
func Validate(budget int, minimums domain.Stats) error {
	if budget < 0 {
		return domain.InvalidArgument("budget", fmt.Sprintf("must be non-negative, got %d", budget))
	}
	for i, m := range minimums {
		if m < 0 {
			return domain.InvalidArgument("minimums", fmt.Sprintf("slot %d must be non-negative, got %d", i, m))
		}
	}
	return nil
}

// search fixes slot and recurses with the remainder. It reports false once
// visit has asked to stop.
func (e *Enumerator) search(slot, remaining int, minimums domain.Stats, current *domain.Stats, visit func(domain.Stats) bool) bool {
	const last = domain.SlotCount - 1

	if slot == last {
		// The last slot takes whatever is left; its upper bound is not
		// implied by the loops above it.
		if remaining < minimums[last] || remaining > e.ceiling {
			return true
		}
		current[last] = remaining
		return visit(*current)
	}

	return e.searchRange(slot, minimums[slot], min(e.ceiling, remaining), remaining, minimums, current, visit)
}

// searchRange tries slot values lo..hi inclusive.
func (e *Enumerator) searchRange(slot, lo, hi, remaining int, minimums domain.Stats, current *domain.Stats, visit func(domain.Stats) bool) bool {
	for v := lo; v <= hi; v++ {
		current[slot] = v
		if !e.search(slot+1, remaining-v, minimums, current, visit) {
			return false
		}
	}
	return true
}
