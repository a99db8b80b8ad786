package observability

import (
	"context"
	"log/slog"
)

// SlogObserver emits events to a slog.Logger. The event type becomes the log
// message, request-scoped attributes from the context are added first, and
// Data keys are flattened as top-level attributes.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver creates a SlogObserver that emits to the given logger.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogObserver{logger: logger}
}

func (o *SlogObserver) OnEvent(ctx context.Context, event Event) {
	level := event.Level.SlogLevel()
	if !o.logger.Enabled(ctx, level) {
		return
	}

	scoped := Attrs(ctx)
	attrs := make([]slog.Attr, 0, len(scoped)+len(event.Data)+1)
	attrs = append(attrs, slog.String("source", event.Source))
	for _, k := range sortedKeys(scoped) {
		attrs = append(attrs, slog.Any(k, scoped[k]))
	}
	for _, k := range sortedKeys(event.Data) {
		attrs = append(attrs, slog.Any(k, event.Data[k]))
	}

	o.logger.LogAttrs(ctx, level, string(event.Type), attrs...)
}
