package calltrace

import "context"

// Func is the signature Wrap instruments.
type Func[In, Out any] func(ctx context.Context, in In) (Out, error)

// Wrap returns fn instrumented with t.
//
// Contract:
//   - Success: one entry line with in, one exit line with the result, which is
//     returned unchanged.
//   - Errors: the error is reported once and returned unchanged; no exit line.
//   - Panics: reported as an error, then re-panicked with the original value.
//   - Deferred: if the result implements Deferred it is returned immediately
//     and the exit or error line is written when it settles.
//
// Wrap panics with ErrNotCallable if fn is nil.
func Wrap[In, Out any](t *Tracer, scope, name string, fn Func[In, Out]) Func[In, Out] {
	if fn == nil {
		panic(ErrNotCallable)
	}
	return func(ctx context.Context, in In) (Out, error) {
		t.Enter(scope, name, in)
		defer t.recoverFrame(scope, name)

		out, err := fn(ctx, in)
		if err != nil {
			t.fail(scope, name, err)
			return out, err
		}
		t.settle(scope, name, out)
		return out, nil
	}
}

// Wrap0 is Wrap for calls without input.
func Wrap0[Out any](t *Tracer, scope, name string, fn func(ctx context.Context) (Out, error)) func(ctx context.Context) (Out, error) {
	if fn == nil {
		panic(ErrNotCallable)
	}
	return func(ctx context.Context) (Out, error) {
		t.Enter(scope, name)
		defer t.recoverFrame(scope, name)

		out, err := fn(ctx)
		if err != nil {
			t.fail(scope, name, err)
			return out, err
		}
		t.settle(scope, name, out)
		return out, nil
	}
}

// settle reports a successful result, waiting for it first if it is Deferred.
func (t *Tracer) settle(scope, name string, result any) {
	if d, ok := result.(Deferred); ok && !isNil(d) {
		t.await(scope, name, d)
		return
	}
	t.ExitWith(scope, name, result)
}

// await attaches the exit and error reports to d. Frames of overlapping
// deferred calls unwind in settlement order, not call order.
func (t *Tracer) await(scope, name string, d Deferred) {
	d.Observe(func(value any, err error) {
		if err != nil {
			t.fail(scope, name, err)
			return
		}
		t.ExitWith(scope, name, value)
	})
}

// recoverFrame must be deferred directly by a wrapper.
func (t *Tracer) recoverFrame(scope, name string) {
	if r := recover(); r != nil {
		t.fail(scope, name, r)
		panic(r)
	}
}
