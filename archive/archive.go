// Package archive persists the complete transcript of every session. Unlike
// the Context Store it is never trimmed; it serves audit and the CLI's
// history command.
package archive

import (
	"context"

	"github.com/tailored-agentic-units/rxdesk/core/protocol"
)

// Archive records exchanges and replays a session's full transcript.
type Archive interface {
	// Record appends an exchange to the session's transcript.
	Record(ctx context.Context, sessionID string, ex protocol.Exchange) error
	// Load returns every recorded exchange of the session in order.
	Load(ctx context.Context, sessionID string) ([]protocol.Exchange, error)
}
