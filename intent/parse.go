package intent

import (
	"regexp"
	"slices"
	"strings"

	"github.com/tailored-agentic-units/rxdesk/core/protocol"
)

var noParams = []string{"", "none", "n/a", "na", "-", "null"}

// ordinal matches a leading "1." or "2)" list marker.
var ordinal = regexp.MustCompile(`^\d+[.)]\s*`)

// Parse converts classifier text into an Intent. Keys are matched
// case-insensitively and markdown emphasis or list markers around them are
// ignored. Capability identifiers are lower-cased and de-duplicated in order;
// unknown identifiers are kept so dispatch can report them as unavailable.
// The returned Shape always agrees with the number of capabilities.
func Parse(text string) (protocol.Intent, error) {
	var (
		ids       []protocol.Capability
		clarify   bool
		params    = protocol.Params{}
		shape     protocol.Shape
		rationale string
		sawAgents bool
	)

	for n, raw := range strings.Split(text, "\n") {
		key, value, ok := splitLine(raw)
		if !ok {
			continue
		}
		switch key {
		case "AGENTS", "AGENT", "CAPABILITIES":
			if sawAgents {
				continue
			}
			sawAgents = true
			ids, clarify = parseCapabilities(value)
		case "PARAMETERS", "PARAMS":
			p, err := parseParams(value, n+1, raw)
			if err != nil {
				return protocol.Intent{}, err
			}
			params = p
		case "TYPE":
			shape = parseShape(value)
		case "REASONING":
			rationale = value
		}
	}

	switch {
	case shape == protocol.ShapeClarify:
		return protocol.ClarifyIntent(protocol.SourceAI, rationale), nil
	case !sawAgents:
		return protocol.Intent{}, &ParseError{Reason: "missing AGENTS line"}
	case len(ids) == 0 && clarify:
		return protocol.ClarifyIntent(protocol.SourceAI, rationale), nil
	case len(ids) == 0:
		return protocol.Intent{}, &ParseError{Reason: "empty AGENTS list"}
	}

	return protocol.NewIntent(protocol.SourceAI, ids, params, rationale), nil
}

// splitLine extracts an upper-cased key and its trimmed value from lines
// such as "AGENTS: demand", "**Type:** multi" or "- PARAMETERS: sku=MED001".
func splitLine(raw string) (key, value string, ok bool) {
	line := strings.TrimLeft(strings.TrimSpace(raw), "-*#>• \t")
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	key = strings.ToUpper(strings.Trim(line[:idx], "*_` \t"))
	if strings.ContainsAny(key, " \t") {
		return "", "", false
	}
	value = strings.Trim(strings.TrimSpace(line[idx+1:]), "*_` \t")
	return key, value, true
}

// parseCapabilities returns the handler identifiers in order and whether the
// clarify pseudo-capability was listed.
func parseCapabilities(value string) ([]protocol.Capability, bool) {
	var (
		ids     []protocol.Capability
		clarify bool
	)
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(ordinal.ReplaceAllString(strings.TrimSpace(part), ""))
		part = strings.Trim(part, `"'[](). `)
		part = strings.TrimSuffix(part, " agent")
		if part == "" {
			continue
		}
		id := protocol.ParseCapability(part)
		if id == protocol.CapabilityClarify {
			clarify = true
			continue
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids, clarify
}

func parseParams(value string, line int, raw string) (protocol.Params, error) {
	params := protocol.Params{}
	if slices.Contains(noParams, strings.ToLower(value)) {
		return params, nil
	}
	for _, fragment := range strings.Split(value, ",") {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}
		k, v, found := strings.Cut(fragment, "=")
		if !found {
			return nil, &ParseError{Line: line, Text: strings.TrimSpace(raw), Reason: "parameter without '='"}
		}
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			return nil, &ParseError{Line: line, Text: strings.TrimSpace(raw), Reason: "parameter with empty key"}
		}
		params[k] = protocol.ParseValue(strings.Trim(strings.TrimSpace(v), `"'`))
	}
	return params, nil
}

func parseShape(value string) protocol.Shape {
	v := strings.ToLower(value)
	switch {
	case strings.HasPrefix(v, "clarif"):
		return protocol.ShapeClarify
	case strings.HasPrefix(v, "multi"):
		return protocol.ShapeMulti
	case strings.HasPrefix(v, "single"):
		return protocol.ShapeSingle
	}
	return ""
}
