package observe

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// FrameMeta identifies a traced frame for telemetry purposes.
type FrameMeta struct {
	Scope string // owning type (may be empty)
	Name  string // function or method name
}

// ParseFrame splits a qualified frame name such as "Calc.Add" at its last dot.
func ParseFrame(frame string) FrameMeta {
	if i := strings.LastIndex(frame, "."); i > 0 {
		return FrameMeta{Scope: frame[:i], Name: frame[i+1:]}
	}
	return FrameMeta{Name: frame}
}

// Qualified returns Scope.Name, or Name when Scope is empty.
func (m FrameMeta) Qualified() string {
	if m.Scope != "" {
		return m.Scope + "." + m.Name
	}
	return m.Name
}

// SpanName returns the deterministic span name for this frame.
// Format: call.<scope>.<name> or call.<name>
func (m FrameMeta) SpanName() string {
	return "call." + m.Qualified()
}

// Tracer opens and closes spans for frames.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a span for a frame with argc arguments.
	StartSpan(ctx context.Context, meta FrameMeta, argc int) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a span with the frame identity as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta FrameMeta, argc int) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("call.frame", meta.Qualified()),
		attribute.String("call.name", meta.Name),
		attribute.Int("call.args", argc),
		attribute.Bool("call.error", false),
	}
	if meta.Scope != "" {
		attrs = append(attrs, attribute.String("call.scope", meta.Scope))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("call.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta FrameMeta, _ int) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, _ error) {
	span.End()
}
