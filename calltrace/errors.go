package calltrace

import "errors"

// Wrapping errors.
var (
	// ErrNotCallable indicates a value passed for wrapping is not a function.
	ErrNotCallable = errors.New("calltrace: value is not callable")

	// ErrNoSuchMethod indicates WrapMethod could not find the named method.
	ErrNoSuchMethod = errors.New("calltrace: no such method")

	// ErrSignatureMismatch indicates the wrapped callable does not have the requested type.
	ErrSignatureMismatch = errors.New("calltrace: signature mismatch")
)

// Configuration errors.
var (
	// ErrInvalidColorMode indicates an unknown CALLTRACE_COLOR value.
	ErrInvalidColorMode = errors.New("calltrace: invalid color mode")
)
