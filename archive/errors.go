package archive

import "errors"

// Sentinel errors for archive operations.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidSession  = errors.New("invalid session id")
	ErrRecordFailed    = errors.New("record failed")
	ErrLoadFailed      = errors.New("load failed")
)
