package synth

import "github.com/tailored-agentic-units/rxdesk/observability"

const (
	EventSummarized      observability.EventType = "synth.summarized"
	EventSummaryFallback observability.EventType = "synth.summary.fallback"
	EventClarification   observability.EventType = "synth.clarification"
	EventTotalFailure    observability.EventType = "synth.total_failure"
)
