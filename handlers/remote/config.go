package remote

import (
	"fmt"
	"net/url"
	"time"

	"github.com/tailored-agentic-units/rxdesk/capability"
	"github.com/tailored-agentic-units/rxdesk/core/protocol"
)

// DefaultTimeout caps a single HTTP exchange. The dispatch budget still
// applies through the request context.
const DefaultTimeout = 10 * time.Second

// Endpoint locates a remote capability handler.
type Endpoint struct {
	URL     string            `json:"url" yaml:"url"`
	Timeout time.Duration     `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// Bindings builds one Handler per configured endpoint, ready for
// capability.NewRegistry.
func Bindings(endpoints map[protocol.Capability]Endpoint, opts ...Option) (map[protocol.Capability]capability.Handler, error) {
	out := make(map[protocol.Capability]capability.Handler, len(endpoints))
	for id, ep := range endpoints {
		u, err := url.Parse(ep.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid endpoint url for %s: %q", id, ep.URL)
		}
		if ep.Timeout <= 0 {
			ep.Timeout = DefaultTimeout
		}
		out[id] = New(id, ep, opts...)
	}
	return out, nil
}
