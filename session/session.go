// Package session holds the bounded per-session conversation log used to
// resolve follow-up questions.
package session

import (
	"context"

	"github.com/tailored-agentic-units/rxdesk/core/protocol"
)

// DefaultWindow is the number of exchanges retained per session.
const DefaultWindow = 10

// Store keeps the most recent exchanges of each session. Implementations must
// be safe for concurrent use. Appends to one session are serialized; distinct
// sessions do not contend with each other.
type Store interface {
	// Append adds an exchange to the session's log, evicting the oldest entry
	// once the log exceeds the window.
	Append(ctx context.Context, sessionID string, ex protocol.Exchange) error
	// Recent returns up to n of the latest exchanges in chronological order.
	// An unknown session yields an empty slice.
	Recent(ctx context.Context, sessionID string, n int) ([]protocol.Exchange, error)
	// Clear discards the session's log.
	Clear(ctx context.Context, sessionID string) error
}

func clamp(n, window int) int {
	return max(0, min(n, window))
}
