package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/tracekit/calltrace"
)

// Hook mirrors calltrace frames into spans, metrics and log records.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Nesting: a frame's span is a child of the innermost frame still open
//     when it was entered.
//   - Errors: a failure reported by OnError is attached to the frame's span
//     and metrics when the frame closes.
type Hook struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
	parent  context.Context

	mu   sync.Mutex
	open []*openFrame
}

type openFrame struct {
	meta  FrameMeta
	ctx   context.Context
	span  trace.Span
	start time.Time
	err   error
}

var _ calltrace.Hook = (*Hook)(nil)

// NewHook creates a Hook. Nil components are replaced by no-ops.
func NewHook(tracer Tracer, metrics Metrics, logger Logger) *Hook {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = &noopMetrics{}
	}
	if logger == nil {
		logger = &noopLogger{}
	}
	return &Hook{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
		parent:  context.Background(),
	}
}

// HookFromObserver creates a Hook from an Observer.
func HookFromObserver(obs Observer) (*Hook, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewHook(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// WithParent returns h with outermost spans parented to the span in ctx.
// It must be called before the hook is registered.
func (h *Hook) WithParent(ctx context.Context) *Hook {
	if ctx != nil {
		h.parent = ctx
	}
	return h
}

// OnEnter opens a span for the frame.
func (h *Hook) OnEnter(frame string, args []any) {
	meta := ParseFrame(frame)

	h.mu.Lock()
	parent := h.parent
	if n := len(h.open); n > 0 {
		parent = h.open[n-1].ctx
	}
	h.mu.Unlock()

	ctx, span := h.tracer.StartSpan(parent, meta, len(args))

	h.mu.Lock()
	h.open = append(h.open, &openFrame{
		meta:  meta,
		ctx:   ctx,
		span:  span,
		start: time.Now(),
	})
	h.mu.Unlock()
}

// OnError records err on the innermost open frame with that name.
func (h *Hook) OnError(frame string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if f := h.findLocked(frame); f >= 0 {
		h.open[f].err = err
	}
}

// OnExit closes the innermost open frame with that name. Frames settled out
// of order, as overlapping deferred calls do, still close their own span.
func (h *Hook) OnExit(frame string, _ any) {
	h.mu.Lock()
	i := h.findLocked(frame)
	if i < 0 {
		h.mu.Unlock()
		return
	}
	f := h.open[i]
	h.open = append(h.open[:i], h.open[i+1:]...)
	h.mu.Unlock()

	duration := time.Since(f.start)
	h.tracer.EndSpan(f.span, f.err)
	h.metrics.RecordCall(f.ctx, f.meta, duration, f.err)

	log := h.logger.WithFrame(f.meta)
	fields := []Field{
		{Key: "duration_ms", Value: float64(duration.Microseconds()) / 1000},
	}
	if f.err != nil {
		fields = append(fields, Field{Key: "error", Value: f.err.Error()})
		log.Error(f.ctx, "call failed", fields...)
		return
	}
	log.Debug(f.ctx, "call completed", fields...)
}

// Open returns the number of frames not yet closed.
func (h *Hook) Open() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.open)
}

func (h *Hook) findLocked(frame string) int {
	for i := len(h.open) - 1; i >= 0; i-- {
		if h.open[i].meta.Qualified() == frame {
			return i
		}
	}
	return -1
}
