package intent

import "github.com/tailored-agentic-units/rxdesk/observability"

const (
	EventResolveStart observability.EventType = "intent.resolve.start"
	EventClassified   observability.EventType = "intent.classified"
	EventFallback     observability.EventType = "intent.fallback"
	EventClarify      observability.EventType = "intent.clarify"
)
