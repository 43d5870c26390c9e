package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/polisai/statvar/pkg/domain"
	"github.com/polisai/statvar/pkg/logging"
	"github.com/polisai/statvar/pkg/variation"
)

const tracerName = "github.com/polisai/statvar/pkg/telemetry"

// Instrumented decorates an Enumerator with spans, metrics, and debug logs.
type Instrumented struct {
	inner  *variation.Enumerator
	logger *slog.Logger
}

// Instrument wraps e. A nil logger discards output.
func Instrument(e *variation.Enumerator, logger *slog.Logger) *Instrumented {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Instrumented{inner: e, logger: logger}
}

// Enumerator returns the wrapped enumerator.
func (i *Instrumented) Enumerator() *variation.Enumerator {
	return i.inner
}

// Enumerate runs the enumeration, fanning out to workers when workers > 1.
func (i *Instrumented) Enumerate(ctx context.Context, budget int, minimums domain.Stats, workers int) ([]domain.Stats, error) {
	ctx, span := i.start(ctx, "variation.enumerate", budget, minimums)
	defer span.End()
	span.SetAttributes(attribute.Int("statvar.workers", workers))

	start := time.Now()
	vars, err := i.inner.EnumerateParallel(ctx, budget, minimums, workers)
	elapsed := time.Since(start)

	i.finish(ctx, span, "enumerate", workers, int64(len(vars)), elapsed, err)
	if err != nil {
		return nil, err
	}

	i.logger.Debug("Enumerated variations",
		"budget", budget,
		"minimums", minimums.String(),
		"ceiling", i.inner.Ceiling(),
		"count", len(vars),
		"duration", elapsed,
	)
	return vars, nil
}

// Walk visits variations in order until visit returns false or ctx is done.
func (i *Instrumented) Walk(ctx context.Context, budget int, minimums domain.Stats, visit func(domain.Stats) bool) error {
	ctx, span := i.start(ctx, "variation.walk", budget, minimums)
	defer span.End()

	var visited int64
	start := time.Now()
	err := i.inner.WalkContext(ctx, budget, minimums, func(s domain.Stats) bool {
		visited++
		return visit(s)
	})
	i.finish(ctx, span, "walk", 1, visited, time.Since(start), err)
	return err
}

// Count returns the closed-form number of variations.
func (i *Instrumented) Count(ctx context.Context, budget int, minimums domain.Stats) (uint64, error) {
	ctx, span := i.start(ctx, "variation.count", budget, minimums)
	defer span.End()

	start := time.Now()
	n, err := i.inner.Count(budget, minimums)
	elapsed := time.Since(start)

	i.finish(ctx, span, "count", 1, int64(n), elapsed, err)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (i *Instrumented) start(ctx context.Context, name string, budget int, minimums domain.Stats) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(
		attribute.Int("statvar.budget", budget),
		attribute.IntSlice("statvar.minimums", minimums.Slice()),
		attribute.Int("statvar.ceiling", i.inner.Ceiling()),
	))
}

func (i *Instrumented) finish(ctx context.Context, span trace.Span, op string, workers int, n int64, elapsed time.Duration, err error) {
	outcome := OutcomeSuccess
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		outcome = OutcomeInvalid
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		outcome = OutcomeCancelled
	case err != nil:
		outcome = OutcomeError
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		n = 0
	} else {
		span.SetAttributes(attribute.Int64("statvar.variations", n))
	}

	RecordEnumeration(ctx, EnumerationMetrics{
		Operation:  op,
		Outcome:    outcome,
		Ceiling:    i.inner.Ceiling(),
		Workers:    workers,
		Variations: n,
		Duration:   elapsed,
	})
}
