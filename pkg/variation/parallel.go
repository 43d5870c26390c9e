package variation

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/polisai/statvar/pkg/domain"
)

// cancelCheckInterval is how many variations a worker emits between
// cancellation checks.
const cancelCheckInterval = 1024

// EnumerateParallel produces the same sequence as Enumerate but fans the
// candidate values of the first slot out to at most workers goroutines. Each
// first-slot value owns an independent sub-sequence; the sub-sequences are
// concatenated in candidate order.
func (e *Enumerator) EnumerateParallel(ctx context.Context, budget int, minimums domain.Stats, workers int) ([]domain.Stats, error) {
	if workers <= 1 {
		out := make([]domain.Stats, 0)
		err := e.WalkContext(ctx, budget, minimums, func(s domain.Stats) bool {
			out = append(out, s)
			return true
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	if err := Validate(budget, minimums); err != nil {
		return nil, err
	}

	lo, hi := minimums[0], min(e.ceiling, budget)
	if hi < lo {
		return make([]domain.Stats, 0), nil
	}

	parts := make([][]domain.Stats, hi-lo+1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for v := lo; v <= hi; v++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			part, err := e.collectFirst(gctx, v, budget, minimums)
			if err != nil {
				return err
			}
			parts[v-lo] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]domain.Stats, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}

// collectFirst gathers the variations whose first slot is v, checking ctx
// every cancelCheckInterval results.
func (e *Enumerator) collectFirst(ctx context.Context, v, budget int, minimums domain.Stats) ([]domain.Stats, error) {
	var (
		current   domain.Stats
		part      []domain.Stats
		cancelled bool
	)
	e.searchRange(0, v, v, budget, minimums, &current, func(s domain.Stats) bool {
		if len(part)%cancelCheckInterval == 0 && ctx.Err() != nil {
			cancelled = true
			return false
		}
		part = append(part, s)
		return true
	})
	if cancelled {
		return nil, ctx.Err()
	}
	return part, nil
}
