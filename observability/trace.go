package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TraceObserver records events on the OpenTelemetry span active in the
// event's context. Events emitted outside a recording span are dropped.
type TraceObserver struct{}

func (TraceObserver) OnEvent(ctx context.Context, event Event) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	attrs := make([]attribute.KeyValue, 0, len(event.Data)+2)
	attrs = append(attrs,
		attribute.String("event.source", event.Source),
		attribute.String("event.severity", event.Level.String()),
	)
	for _, k := range sortedKeys(event.Data) {
		attrs = append(attrs, toAttribute(k, event.Data[k]))
	}
	span.AddEvent(string(event.Type), trace.WithAttributes(attrs...), trace.WithTimestamp(event.Timestamp))
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	default:
		return attribute.String(key, fmt.Sprint(v))
	}
}
