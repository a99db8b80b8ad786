package observability

import (
	"context"
	"maps"
	"sort"
)

type attrsKey struct{}

// WithAttrs returns a context carrying request-scoped attributes (session_id,
// request_id, ...). Observers attach them to every event emitted under the
// context. Attributes from an enclosing context are kept unless overridden.
func WithAttrs(ctx context.Context, attrs map[string]any) context.Context {
	merged := make(map[string]any, len(attrs))
	if parent, ok := ctx.Value(attrsKey{}).(map[string]any); ok {
		maps.Copy(merged, parent)
	}
	maps.Copy(merged, attrs)
	return context.WithValue(ctx, attrsKey{}, merged)
}

// Attrs returns the request-scoped attributes carried by ctx.
func Attrs(ctx context.Context) map[string]any {
	attrs, _ := ctx.Value(attrsKey{}).(map[string]any)
	return maps.Clone(attrs)
}

// sortedKeys returns map keys in lexical order so log lines are stable.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
