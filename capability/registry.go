package capability

import (
	"fmt"

	"github.com/tailored-agentic-units/rxdesk/core/protocol"
)

// Registry maps capability identifiers to handlers. It is built once at
// startup and is read-only afterwards, so lookups need no locking.
type Registry struct {
	handlers map[protocol.Capability]Handler
}

// NewRegistry validates the bindings and returns an immutable Registry.
// Unknown identifiers, the clarify pseudo-capability and nil handlers are
// rejected. Capabilities without a binding remain resolvable as
// unavailable at dispatch time.
func NewRegistry(bindings map[protocol.Capability]Handler) (*Registry, error) {
	handlers := make(map[protocol.Capability]Handler, len(bindings))
	for id, h := range bindings {
		switch {
		case id == protocol.CapabilityClarify:
			return nil, fmt.Errorf("%w: %s", ErrNotAHandler, id)
		case !id.IsKnown():
			return nil, fmt.Errorf("%w: %s", ErrUnknown, id)
		case h == nil:
			return nil, fmt.Errorf("%w: %s", ErrNilHandler, id)
		}
		handlers[id] = h
	}
	return &Registry{handlers: handlers}, nil
}

// Lookup returns the handler bound to id. A missing binding is not an
// error; callers decide how to report it.
func (r *Registry) Lookup(id protocol.Capability) (Handler, bool) {
	if r == nil {
		return nil, false
	}
	h, ok := r.handlers[id]
	return h, ok
}

// Has reports whether id has a handler.
func (r *Registry) Has(id protocol.Capability) bool {
	_, ok := r.Lookup(id)
	return ok
}

// List returns the registered identifiers in enumeration order.
func (r *Registry) List() []protocol.Capability {
	if r == nil {
		return nil
	}
	out := make([]protocol.Capability, 0, len(r.handlers))
	for _, id := range protocol.Capabilities() {
		if _, ok := r.handlers[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
