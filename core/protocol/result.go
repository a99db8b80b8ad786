package protocol

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
	"unicode/utf8"
)

// Status is the outcome of consulting one capability.
type Status string

const (
	StatusOK          Status = "ok"
	StatusError       Status = "error"
	StatusUnavailable Status = "unavailable"
	StatusTimeout     Status = "timeout"
)

// HandlerResult is the outcome of one capability invocation. Payload is
// opaque to the pipeline and is passed through to synthesis.
type HandlerResult struct {
	Capability Capability    `json:"capability"`
	Status     Status        `json:"status"`
	Payload    any           `json:"payload,omitempty"`
	Detail     string        `json:"detail,omitempty"`
	Elapsed    time.Duration `json:"elapsed,omitempty"`

	// Err is the underlying error for non-ok results. It is not persisted.
	Err error `json:"-"`
}

// OK reports whether the handler succeeded.
func (r HandlerResult) OK() bool {
	return r.Status == StatusOK
}

// ResultSet holds handler results in the order of the originating Intent's
// capability list.
type ResultSet []HandlerResult

// Empty reports whether no handler was consulted.
func (rs ResultSet) Empty() bool {
	return len(rs) == 0
}

// OK returns the successful results, order preserved.
func (rs ResultSet) OK() []HandlerResult {
	var out []HandlerResult
	for _, r := range rs {
		if r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Failed returns the non-ok results, order preserved.
func (rs ResultSet) Failed() []HandlerResult {
	var out []HandlerResult
	for _, r := range rs {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// AllFailed reports a non-empty set in which no handler succeeded.
func (rs ResultSet) AllFailed() bool {
	return len(rs) > 0 && len(rs.OK()) == 0
}

// Capabilities returns the capability of every result, order preserved.
func (rs ResultSet) Capabilities() []Capability {
	ids := make([]Capability, len(rs))
	for i, r := range rs {
		ids[i] = r.Capability
	}
	return ids
}

// Clone returns a copy of the set. Payloads are shared; they are treated as
// immutable once a handler returns them.
func (rs ResultSet) Clone() ResultSet {
	return slices.Clone(rs)
}

// RenderPayload renders an opaque handler payload as text. Strings and byte
// slices pass through, fmt.Stringer values use String, and everything else
// is JSON-encoded.
func RenderPayload(payload any) string {
	switch p := payload.(type) {
	case nil:
		return ""
	case string:
		return p
	case []byte:
		return string(p)
	case fmt.Stringer:
		return p.String()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return string(data)
}

// Truncate shortens s to at most limit runes, appending "..." when cut.
// A limit of zero or less disables truncation.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}
