package serio

import "errors"

var (
	// ErrClosed indicates the UART has stopped.
	ErrClosed = errors.New("uart closed")
	// ErrUnknownMode indicates an unsupported driver mode.
	ErrUnknownMode = errors.New("unknown driver mode")
)
