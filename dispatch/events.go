package dispatch

import "github.com/tailored-agentic-units/rxdesk/observability"

const (
	EventDispatchStart    observability.EventType = "dispatch.start"
	EventDispatchComplete observability.EventType = "dispatch.complete"
	EventHandlerStart     observability.EventType = "handler.start"
	EventHandlerComplete  observability.EventType = "handler.complete"
)
