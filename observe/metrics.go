package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric instrument names.
const (
	MetricCallsTotal    = "calltrace.calls.total"
	MetricCallsErrors   = "calltrace.calls.errors"
	MetricCallsDuration = "calltrace.calls.duration_ms"
)

// Metrics records call metrics for frames.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCall records one completed frame with its duration and error status.
	RecordCall(ctx context.Context, meta FrameMeta, duration time.Duration, err error)
}

type metricsImpl struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates Metrics backed by meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		MetricCallsTotal,
		metric.WithDescription("Total number of traced calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		MetricCallsErrors,
		metric.WithDescription("Total number of traced calls that failed"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		MetricCallsDuration,
		metric.WithDescription("Traced call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
	}, nil
}

// RecordCall records metrics for a completed frame.
func (m *metricsImpl) RecordCall(ctx context.Context, meta FrameMeta, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("call.frame", meta.Qualified()),
	}
	if meta.Scope != "" {
		attrs = append(attrs, attribute.String("call.scope", meta.Scope))
	}
	opt := metric.WithAttributes(attrs...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordCall(ctx context.Context, meta FrameMeta, duration time.Duration, err error) {
}
