package protocol

import "slices"

// Shape tags the structure of a question.
type Shape string

const (
	ShapeSingle  Shape = "single"
	ShapeMulti   Shape = "multi"
	ShapeClarify Shape = "clarify"
)

// Source records which classifier tier produced an Intent.
type Source string

const (
	SourceAI       Source = "ai-resolved"
	SourceFallback Source = "fallback-resolved"
)

// Intent is the routing decision for one question.
type Intent struct {
	Capabilities []Capability `json:"capabilities"`
	Params       Params       `json:"params,omitempty"`
	Shape        Shape        `json:"shape"`
	Source       Source       `json:"source"`
	Rationale    string       `json:"rationale,omitempty"`
}

// NewIntent builds an Intent whose Shape agrees with the number of
// capabilities. An empty list yields a clarify intent.
func NewIntent(source Source, ids []Capability, params Params, rationale string) Intent {
	if len(ids) == 0 {
		return ClarifyIntent(source, rationale)
	}
	shape := ShapeSingle
	if len(ids) > 1 {
		shape = ShapeMulti
	}
	if params == nil {
		params = Params{}
	}
	return Intent{
		Capabilities: slices.Clone(ids),
		Params:       params,
		Shape:        shape,
		Source:       source,
		Rationale:    rationale,
	}
}

// ClarifyIntent builds the intent for a question that must be clarified by
// the user before any handler can be consulted.
func ClarifyIntent(source Source, rationale string) Intent {
	return Intent{
		Capabilities: []Capability{CapabilityClarify},
		Params:       Params{},
		Shape:        ShapeClarify,
		Source:       source,
		Rationale:    rationale,
	}
}

// NeedsClarification reports whether no handler should be consulted.
func (i Intent) NeedsClarification() bool {
	if i.Shape == ShapeClarify {
		return true
	}
	for _, c := range i.Capabilities {
		if c != CapabilityClarify {
			return false
		}
	}
	return true
}

// Clone returns a deep copy safe to hand to another goroutine.
func (i Intent) Clone() Intent {
	out := i
	out.Capabilities = slices.Clone(i.Capabilities)
	out.Params = i.Params.Clone()
	return out
}
