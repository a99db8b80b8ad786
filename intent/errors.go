package intent

import (
	"errors"
	"fmt"
)

// Sentinel errors for classification. Both are recovered by the keyword
// fallback and surface only in events.
var (
	ErrClassifierUnavailable = errors.New("classifier unavailable")
	ErrUnparsable            = errors.New("classifier response unparsable")
	ErrInvalidKeywordTable   = errors.New("invalid keyword table")
)

// ParseError describes why classifier text could not be parsed. Line is
// 1-based, or 0 when the problem is not tied to a line.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%v: %s", ErrUnparsable, e.Reason)
	}
	return fmt.Sprintf("%v: line %d: %s: %q", ErrUnparsable, e.Line, e.Reason, e.Text)
}

func (e *ParseError) Unwrap() error {
	return ErrUnparsable
}
