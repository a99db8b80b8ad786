package orchestrator

import "github.com/tailored-agentic-units/rxdesk/observability"

// Orchestrator event types emitted for each question.
const (
	EventAskStart     observability.EventType = "orchestrator.ask.start"
	EventAskComplete  observability.EventType = "orchestrator.ask.complete"
	EventStoreError   observability.EventType = "orchestrator.store.error"
	EventArchiveError observability.EventType = "orchestrator.archive.error"
	EventLLMDegraded  observability.EventType = "orchestrator.llm.degraded"
	EventSessionClear observability.EventType = "orchestrator.session.clear"
)
