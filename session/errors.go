package session

import "errors"

// Sentinel errors for session stores.
var (
	ErrEmptySessionID = errors.New("session id is empty")
	ErrUnknownBackend = errors.New("unknown session backend")
	ErrBackend        = errors.New("session backend failure")
)
