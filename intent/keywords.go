package intent

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tailored-agentic-units/rxdesk/core/protocol"
)

//go:embed keywords.yaml
var defaultKeywords []byte

// KeywordRule maps trigger phrases to one capability.
type KeywordRule struct {
	Capability protocol.Capability `yaml:"capability"`
	Keywords   []string            `yaml:"keywords"`
}

// KeywordTable is the ordered rule set used by the fallback classifier.
type KeywordTable struct {
	Rules []KeywordRule `yaml:"rules"`
}

// DefaultKeywordTable returns the built-in routing table.
func DefaultKeywordTable() KeywordTable {
	t, err := ParseKeywordTable(defaultKeywords)
	if err != nil {
		panic(fmt.Sprintf("intent: embedded keyword table: %v", err))
	}
	return t
}

// LoadKeywordTable reads a YAML keyword table from path.
func LoadKeywordTable(path string) (KeywordTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return KeywordTable{}, fmt.Errorf("read keyword table: %w", err)
	}
	return ParseKeywordTable(data)
}

// ParseKeywordTable decodes and validates a YAML keyword table. Keywords are
// normalized to lower case.
func ParseKeywordTable(data []byte) (KeywordTable, error) {
	var t KeywordTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return KeywordTable{}, fmt.Errorf("%w: %v", ErrInvalidKeywordTable, err)
	}
	if len(t.Rules) == 0 {
		return KeywordTable{}, fmt.Errorf("%w: no rules", ErrInvalidKeywordTable)
	}
	for i, rule := range t.Rules {
		id := protocol.ParseCapability(string(rule.Capability))
		if !id.IsKnown() {
			return KeywordTable{}, fmt.Errorf("%w: rule %d: unknown capability %q", ErrInvalidKeywordTable, i+1, rule.Capability)
		}
		keywords := make([]string, 0, len(rule.Keywords))
		for _, k := range rule.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				keywords = append(keywords, k)
			}
		}
		if len(keywords) == 0 {
			return KeywordTable{}, fmt.Errorf("%w: rule %d: no keywords", ErrInvalidKeywordTable, i+1)
		}
		t.Rules[i] = KeywordRule{Capability: id, Keywords: keywords}
	}
	return t, nil
}

// Match returns the capabilities whose keywords occur in question, in rule
// order and without duplicates.
func (t KeywordTable) Match(question string) []protocol.Capability {
	q := strings.ToLower(question)
	var ids []protocol.Capability
	for _, rule := range t.Rules {
		if slices.Contains(ids, rule.Capability) {
			continue
		}
		if slices.ContainsFunc(rule.Keywords, func(k string) bool { return strings.Contains(q, k) }) {
			ids = append(ids, rule.Capability)
		}
	}
	return ids
}
