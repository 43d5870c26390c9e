package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	metricsOnce         sync.Once
	metricsInitErr      error
	enumerationCounter  metric.Int64Counter
	variationCounter    metric.Int64Counter
	enumerationDuration metric.Float64Histogram
)

// Outcome labels for recorded operations.
const (
	OutcomeSuccess   = "success"
	OutcomeInvalid   = "invalid_argument"
	OutcomeCancelled = "cancelled"
	OutcomeError     = "error"
)

// EnumerationMetrics captures the fields needed to record one enumerator call.
type EnumerationMetrics struct {
	Operation  string // "enumerate" or "count"
	Outcome    string
	Ceiling    int
	Workers    int
	Variations int64
	Duration   time.Duration
}

// RecordEnumeration emits counters and histograms that describe an enumerator call.
func RecordEnumeration(ctx context.Context, m EnumerationMetrics) {
	if err := ensureMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("statvar.operation", m.Operation),
		attribute.String("statvar.outcome", m.Outcome),
		attribute.Int("statvar.ceiling", m.Ceiling),
		attribute.Int("statvar.workers", m.Workers),
	)

	enumerationCounter.Add(ctx, 1, attrs)

	if m.Variations > 0 {
		variationCounter.Add(ctx, m.Variations, attrs)
	}

	if m.Duration > 0 {
		enumerationDuration.Record(ctx, float64(m.Duration)/float64(time.Millisecond), attrs)
	}
}

func ensureMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("statvar.variation")

		enumerationCounter, metricsInitErr = meter.Int64Counter(
			"statvar.enumerations_total",
			metric.WithDescription("Enumerator calls partitioned by operation and outcome"),
			metric.WithUnit("{count}"),
		)
		if metricsInitErr != nil {
			return
		}

		variationCounter, metricsInitErr = meter.Int64Counter(
			"statvar.variations_total",
			metric.WithDescription("Variations produced or counted"),
			metric.WithUnit("{count}"),
		)
		if metricsInitErr != nil {
			return
		}

		enumerationDuration, metricsInitErr = meter.Float64Histogram(
			"statvar.enumeration.duration_ms",
			metric.WithDescription("Observed enumerator latency"),
			metric.WithUnit("ms"),
		)
	})

	return metricsInitErr
}
