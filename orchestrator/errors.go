package orchestrator

import "errors"

var (
	// ErrEmptyQuestion is returned by Ask for a blank question.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrEmptySession is returned by Ask when no session id is given.
	ErrEmptySession = errors.New("session id is empty")

	// ErrContextStore wraps a Context Store failure. Ask still returns the
	// answer alongside it.
	ErrContextStore = errors.New("context store failure")
)
