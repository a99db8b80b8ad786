package protocol

import (
	"maps"
	"strconv"
	"strings"
)

// Params holds the parameters extracted from a question (sku, quantity,
// days, ...). Values are strings, int64 or float64.
type Params map[string]any

// ParseValue converts a raw parameter value into its most specific form:
// integers become int64, decimals become float64, anything else stays a
// trimmed string.
func ParseValue(raw string) any {
	raw = strings.TrimSpace(raw)
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// Clone returns a shallow copy. A nil Params clones to an empty map.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	maps.Copy(out, p)
	return out
}
