package calltrace

import (
	"context"
	"io"
)

// ctxKey is the key type for storing a Tracer in a context.
type ctxKey struct{}

// discard is returned by FromContext when no tracer is attached.
var discard = New(WithWriter(io.Discard))

// WithTracer attaches t to ctx.
func WithTracer(ctx context.Context, t *Tracer) context.Context {
	if t == nil {
		t = discard
	}
	return context.WithValue(ctx, ctxKey{}, t)
}

// FromContext returns the Tracer attached to ctx, or a disabled tracer that
// writes nowhere.
func FromContext(ctx context.Context) *Tracer {
	if ctx == nil {
		return discard
	}
	if t, ok := ctx.Value(ctxKey{}).(*Tracer); ok {
		return t
	}
	return discard
}
