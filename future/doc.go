// Package future provides a deferred value that settles once, by fulfillment
// or rejection.
//
// A Future is returned before its value exists. Callers block on Await or
// register continuations with Then; continuations run once, on the goroutine
// that settles the future, or immediately if it has already settled.
//
//	f := future.Go(ctx, func(ctx context.Context) (int, error) {
//		return compute(ctx)
//	})
//	v, err := f.Await(ctx)
//
// *Future[T] satisfies calltrace.Deferred, so wrapped calls returning one are
// traced when the future settles.
package future
