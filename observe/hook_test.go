package observe

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jonwraymond/tracekit/calltrace"
)

type hookFixture struct {
	hook   *Hook
	tracer *calltrace.Tracer
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
	logs   *bytes.Buffer
}

func newHookFixture(t *testing.T) *hookFixture {
	t.Helper()
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))

	metrics, reader := newTestMetrics(t)

	var logs bytes.Buffer
	hook := NewHook(NewTracer(tp.Tracer("test")), metrics, NewLoggerWithWriter("debug", &logs))

	tr := calltrace.New(
		calltrace.WithEnabled(true),
		calltrace.WithWriter(io.Discard),
		calltrace.WithHooks(hook),
	)
	return &hookFixture{hook: hook, tracer: tr, spans: spans, reader: reader, logs: &logs}
}

func spanByName(t *testing.T, spans []sdktrace.ReadOnlySpan, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, s := range spans {
		if s.Name() == name {
			return s
		}
	}
	t.Fatalf("span %q not found", name)
	return nil
}

// TestHook_NestedCallsProduceChildSpans verifies span parentage follows call nesting.
func TestHook_NestedCallsProduceChildSpans(t *testing.T) {
	fx := newHookFixture(t)

	inner := calltrace.Wrap(fx.tracer, "Calc", "Add", func(_ context.Context, n int) (int, error) {
		return n + 1, nil
	})
	outer := calltrace.Wrap(fx.tracer, "", "compute", func(ctx context.Context, n int) (int, error) {
		return inner(ctx, n)
	})

	if _, err := outer(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ended := fx.spans.Ended()
	if len(ended) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(ended))
	}
	parent := spanByName(t, ended, "call.compute")
	child := spanByName(t, ended, "call.Calc.Add")
	if child.Parent().SpanID() != parent.SpanContext().SpanID() {
		t.Error("expected call.Calc.Add to be a child of call.compute")
	}
	if child.SpanContext().TraceID() != parent.SpanContext().TraceID() {
		t.Error("expected spans in the same trace")
	}
	if fx.hook.Open() != 0 {
		t.Errorf("expected no open frames, got %d", fx.hook.Open())
	}
	if got := sumOf(t, collect(t, fx.reader), MetricCallsTotal); got != 2 {
		t.Errorf("expected 2 recorded calls, got %d", got)
	}
}

// TestHook_FailedCallMarksSpan verifies a failing wrapped call closes its span with an error.
func TestHook_FailedCallMarksSpan(t *testing.T) {
	fx := newHookFixture(t)

	errDiv := errors.New("division by zero")
	divide := calltrace.Wrap(fx.tracer, "", "divide", func(_ context.Context, n int) (int, error) {
		return 0, errDiv
	})

	if _, err := divide(context.Background(), 1); !errors.Is(err, errDiv) {
		t.Fatalf("expected errDiv, got %v", err)
	}

	s := spanByName(t, fx.spans.Ended(), "call.divide")
	if s.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", s.Status().Code)
	}
	if got := sumOf(t, collect(t, fx.reader), MetricCallsErrors); got != 1 {
		t.Errorf("expected 1 error recorded, got %d", got)
	}
	if !strings.Contains(fx.logs.String(), `"msg":"call failed"`) {
		t.Errorf("expected failure log, got %s", fx.logs.String())
	}
}

// TestHook_ManualErrorKeepsFrameOpen verifies Tracer.Error alone does not end the span.
func TestHook_ManualErrorKeepsFrameOpen(t *testing.T) {
	fx := newHookFixture(t)

	fx.tracer.Enter("Job", "Run")
	fx.tracer.Error("Job", "Run", errors.New("retrying"))
	if fx.hook.Open() != 1 {
		t.Fatalf("expected frame to stay open, got %d", fx.hook.Open())
	}
	fx.tracer.Exit("Job", "Run")

	s := spanByName(t, fx.spans.Ended(), "call.Job.Run")
	if s.Status().Code != codes.Error {
		t.Errorf("expected error status carried to exit, got %v", s.Status().Code)
	}
}

// TestHook_OutOfOrderExitClosesOwnSpan verifies overlapping frames close by name.
func TestHook_OutOfOrderExitClosesOwnSpan(t *testing.T) {
	fx := newHookFixture(t)

	fx.hook.OnEnter("first", nil)
	fx.hook.OnEnter("second", nil)
	fx.hook.OnExit("first", nil)

	ended := fx.spans.Ended()
	if len(ended) != 1 || ended[0].Name() != "call.first" {
		t.Fatalf("expected only call.first ended, got %d spans", len(ended))
	}

	fx.hook.OnExit("second", nil)
	if fx.hook.Open() != 0 {
		t.Errorf("expected no open frames, got %d", fx.hook.Open())
	}
}

// TestHook_WithParent verifies outermost spans attach to the given context.
func TestHook_WithParent(t *testing.T) {
	fx := newHookFixture(t)

	tp := sdktrace.NewTracerProvider()
	ctx, root := tp.Tracer("root").Start(context.Background(), "request")
	fx.hook.WithParent(ctx)

	fx.tracer.Enter("", "handle")
	fx.tracer.Exit("", "handle")
	root.End()

	s := spanByName(t, fx.spans.Ended(), "call.handle")
	if s.Parent().SpanID() != root.SpanContext().SpanID() {
		t.Error("expected call.handle parented to request span")
	}
}

// TestHook_LogsOmitArguments verifies call arguments never reach the structured log.
func TestHook_LogsOmitArguments(t *testing.T) {
	fx := newHookFixture(t)

	login := calltrace.Wrap(fx.tracer, "", "login", func(_ context.Context, password string) (bool, error) {
		return true, nil
	})
	if _, err := login(context.Background(), "hunter2-secret"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := fx.logs.String()
	if !strings.Contains(out, `"msg":"call completed"`) {
		t.Fatalf("expected completion log, got %s", out)
	}
	if strings.Contains(out, "hunter2-secret") {
		t.Errorf("argument leaked into log: %s", out)
	}
	entry := decodeEntry(t, strings.TrimSpace(out))
	if _, ok := entry["args"]; ok {
		t.Errorf("expected no args field, got %v", entry["args"])
	}
}

// TestHookFromObserver_Nil verifies a nil observer is rejected.
func TestHookFromObserver_Nil(t *testing.T) {
	if _, err := HookFromObserver(nil); !errors.Is(err, ErrNilObserver) {
		t.Fatalf("expected ErrNilObserver, got %v", err)
	}
}
