package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestParseFrame verifies qualified names split at the last dot and round-trip.
func TestParseFrame(t *testing.T) {
	tests := []struct {
		frame string
		want  FrameMeta
	}{
		{frame: "add", want: FrameMeta{Name: "add"}},
		{frame: "Calc.Add", want: FrameMeta{Scope: "Calc", Name: "Add"}},
		{frame: "store.Cache.Get", want: FrameMeta{Scope: "store.Cache", Name: "Get"}},
		{frame: ".hidden", want: FrameMeta{Name: ".hidden"}},
	}

	for _, tc := range tests {
		t.Run(tc.frame, func(t *testing.T) {
			got := ParseFrame(tc.frame)
			if got != tc.want {
				t.Errorf("ParseFrame(%q) = %+v, want %+v", tc.frame, got, tc.want)
			}
			if q := got.Qualified(); q != tc.frame {
				t.Errorf("Qualified() = %q, want %q", q, tc.frame)
			}
		})
	}
}

// TestFrameMeta_SpanName verifies span names are prefixed with "call.".
func TestFrameMeta_SpanName(t *testing.T) {
	if got := (FrameMeta{Scope: "Calc", Name: "Add"}).SpanName(); got != "call.Calc.Add" {
		t.Errorf("expected 'call.Calc.Add', got %q", got)
	}
	if got := (FrameMeta{Name: "add"}).SpanName(); got != "call.add" {
		t.Errorf("expected 'call.add', got %q", got)
	}
}

func attrMap(s sdktrace.ReadOnlySpan) map[string]attribute.Value {
	m := make(map[string]attribute.Value)
	for _, a := range s.Attributes() {
		m[string(a.Key)] = a.Value
	}
	return m
}

// TestTracer_SpanAttributes verifies frame attributes are present on span.
func TestTracer_SpanAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tr := NewTracer(tp.Tracer("test"))

	_, span := tr.StartSpan(context.Background(), FrameMeta{Scope: "Calc", Name: "Add"}, 2)
	tr.EndSpan(span, nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Name() != "call.Calc.Add" {
		t.Errorf("expected span name 'call.Calc.Add', got %q", s.Name())
	}
	if s.Status().Code != codes.Ok {
		t.Errorf("expected ok status, got %v", s.Status().Code)
	}

	attrs := attrMap(s)
	if v := attrs["call.frame"]; v.AsString() != "Calc.Add" {
		t.Errorf("expected call.frame='Calc.Add', got %v", v)
	}
	if v := attrs["call.scope"]; v.AsString() != "Calc" {
		t.Errorf("expected call.scope='Calc', got %v", v)
	}
	if v := attrs["call.args"]; v.AsInt64() != 2 {
		t.Errorf("expected call.args=2, got %v", v)
	}
	if v, ok := attrs["call.error"]; !ok || v.AsBool() {
		t.Errorf("expected call.error=false, got %v", v)
	}
}

// TestTracer_NoScopeAttribute verifies call.scope is omitted for free functions.
func TestTracer_NoScopeAttribute(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tr := NewTracer(tp.Tracer("test"))

	_, span := tr.StartSpan(context.Background(), FrameMeta{Name: "add"}, 0)
	tr.EndSpan(span, nil)

	if _, ok := attrMap(recorder.Ended()[0])["call.scope"]; ok {
		t.Error("expected no call.scope attribute")
	}
}

// TestTracer_ErrorRecording verifies error sets span status and attribute.
func TestTracer_ErrorRecording(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tr := NewTracer(tp.Tracer("test"))

	_, span := tr.StartSpan(context.Background(), FrameMeta{Name: "divide"}, 2)
	tr.EndSpan(span, errors.New("division by zero"))

	s := recorder.Ended()[0]
	if s.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", s.Status().Code)
	}
	if s.Status().Description != "division by zero" {
		t.Errorf("expected status description, got %q", s.Status().Description)
	}
	if !attrMap(s)["call.error"].AsBool() {
		t.Error("expected call.error=true")
	}
	if len(s.Events()) == 0 {
		t.Error("expected recorded error event")
	}
}

// TestNoopTracer verifies the no-op tracer ends spans without panicking.
func TestNoopTracer(t *testing.T) {
	tr := newNoopTracer()
	ctx, span := tr.StartSpan(context.Background(), FrameMeta{Name: "noop"}, 0)
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
	tr.EndSpan(span, errors.New("ignored"))
}
