// Package calltrace prints a human-readable, indented trace of function calls
// to a diagnostic stream (standard error by default).
//
// Every emitted line has the shape
//
//	[HH:MM:SS.mmm] <indent><marker> <qualified-name>[(<args>)][ → <result>][ | <data>]
//
// where <indent> is two spaces per active frame and <marker> is one of
// [MarkerEnter], [MarkerExit], [MarkerError], [MarkerLog], [MarkerPrompt] or
// [MarkerResponse]. Shell pipelines can filter the output by marker.
//
// A Tracer is constructed explicitly and passed around, or carried in a
// context via [WithTracer] and [FromContext]. Using one tracer per process is
// a convention of the caller, not something the package enforces.
//
// Tracing is off unless enabled. [NewFromEnv] enables it when either the DEBUG
// or the CALLTRACE environment variable is truthy:
//
//	tr, err := calltrace.NewFromEnv(ctx)
//	if err != nil {
//		return err
//	}
//	add := calltrace.Wrap(tr, "", "add", func(ctx context.Context, in Pair) (int, error) {
//		return in.A + in.B, nil
//	})
//
// Functions of any shape can be instrumented with [WrapFunc] and bound methods
// with [WrapMethod]. Results implementing [Deferred] are reported when they
// settle rather than when the call returns.
//
// Overlapping deferred calls can settle in any order, so the call stack seen
// by later frames does not always match true nesting. No correlation is
// attempted.
package calltrace
