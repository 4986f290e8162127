package future

import "errors"

var (
	// ErrPanicked indicates the function run by Go panicked.
	ErrPanicked = errors.New("future: function panicked")

	// ErrNilRejection indicates a future was rejected with a nil error.
	ErrNilRejection = errors.New("future: rejected with nil error")
)
