package calltrace

import (
	"errors"
	"fmt"
)

// Hook observes frames of an enabled Tracer. Hooks run after the line is
// written, outside the tracer's lock, on the goroutine that entered or left
// the frame.
//
// Contract:
//   - OnError may be followed by OnExit for the same frame; OnExit closes it.
//   - Implementations must be safe for concurrent use and must not panic.
type Hook interface {
	OnEnter(frame string, args []any)
	OnError(frame string, err error)
	OnExit(frame string, result any)
}

// Deferred is a value that settles later by fulfillment or rejection.
// Wrapped calls returning a Deferred are reported when it settles.
type Deferred interface {
	// Observe registers fn to run exactly once after settlement. A rejected
	// value passes a non-nil err.
	Observe(fn func(value any, err error))
}

// asError converts a failure cause into an error for hooks.
func asError(cause any) error {
	if isNil(cause) {
		return nil
	}
	if err, ok := cause.(error); ok {
		return err
	}
	return errors.New(fmt.Sprint(cause))
}
