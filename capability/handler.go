// Package capability binds capability identifiers to the handlers that
// answer them.
package capability

import (
	"context"

	"github.com/tailored-agentic-units/rxdesk/core/protocol"
)

// Handler computes the answer for one capability. The context deadline
// carries the time budget; handlers are expected to return promptly once it
// expires. The returned payload is opaque to the pipeline.
type Handler interface {
	Invoke(ctx context.Context, params protocol.Params) (any, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, params protocol.Params) (any, error)

func (f HandlerFunc) Invoke(ctx context.Context, params protocol.Params) (any, error) {
	return f(ctx, params)
}
