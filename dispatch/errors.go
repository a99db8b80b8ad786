package dispatch

import "errors"

// Sentinel errors recorded on non-ok handler results.
var (
	ErrHandlerPanic   = errors.New("handler panicked")
	ErrHandlerTimeout = errors.New("handler exceeded its time budget")
	ErrCancelled      = errors.New("dispatch cancelled")
)
