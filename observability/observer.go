// Package observability provides event-based observability for the
// orchestration pipeline. Level values align with OpenTelemetry
// SeverityNumbers so events translate to OTel log records without mapping
// tables.
package observability

import (
	"context"
	"log/slog"
	"time"
)

// Level represents event severity aligned with OTel SeverityNumber ranges.
type Level int

const (
	LevelVerbose Level = 5  // OTel DEBUG (5-8), maps to slog.LevelDebug
	LevelInfo    Level = 9  // OTel INFO (9-12), maps to slog.LevelInfo
	LevelWarning Level = 13 // OTel WARN (13-16), maps to slog.LevelWarn
	LevelError   Level = 17 // OTel ERROR (17-20), maps to slog.LevelError
)

// String returns the OTel severity text for the level.
func (l Level) String() string {
	switch {
	case l <= 4:
		return "TRACE"
	case l <= 8:
		return "DEBUG"
	case l <= 12:
		return "INFO"
	case l <= 16:
		return "WARN"
	case l <= 20:
		return "ERROR"
	default:
		return "FATAL"
	}
}

// SlogLevel maps this level to the corresponding slog.Level.
func (l Level) SlogLevel() slog.Level {
	switch {
	case l <= 8:
		return slog.LevelDebug
	case l <= 12:
		return slog.LevelInfo
	case l <= 16:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// EventType identifies the kind of event. Each package defines its own
// constants (e.g. "dispatch.start", "intent.fallback").
type EventType string

// Event is emitted by pipeline stages. Fields map to OTel LogRecord fields:
// Type→EventName, Level→SeverityNumber, Timestamp→Timestamp,
// Source→InstrumentationScope, Data→Attributes.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// Observer receives events for logging, tracing, or metrics.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, event Event)

func (f ObserverFunc) OnEvent(ctx context.Context, event Event) {
	f(ctx, event)
}

// NoOpObserver discards all events.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(ctx context.Context, event Event) {}

// MultiObserver fans out events to multiple observers.
type MultiObserver struct {
	observers []Observer
}

// NewMultiObserver creates a MultiObserver that forwards events to all
// non-nil observers.
func NewMultiObserver(observers ...Observer) *MultiObserver {
	filtered := make([]Observer, 0, len(observers))
	for _, obs := range observers {
		if obs != nil {
			filtered = append(filtered, obs)
		}
	}
	return &MultiObserver{observers: filtered}
}

func (m *MultiObserver) OnEvent(ctx context.Context, event Event) {
	for _, obs := range m.observers {
		obs.OnEvent(ctx, event)
	}
}

// Emit stamps and forwards an event. A nil observer is ignored so callers can
// hold an optional observer without guarding every call site.
func Emit(ctx context.Context, obs Observer, typ EventType, level Level, source string, data map[string]any) {
	if obs == nil {
		return
	}
	obs.OnEvent(ctx, Event{
		Type:      typ,
		Level:     level,
		Timestamp: time.Now(),
		Source:    source,
		Data:      data,
	})
}
