package capability

import "errors"

// Sentinel errors for the handler registry.
var (
	ErrUnavailable = errors.New("capability unavailable")
	ErrUnknown     = errors.New("unknown capability")
	ErrNotAHandler = errors.New("capability cannot be bound to a handler")
	ErrNilHandler  = errors.New("handler is nil")
)
