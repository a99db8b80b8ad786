package intent_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-agentic-units/rxdesk/core/protocol"
	"github.com/tailored-agentic-units/rxdesk/intent"
)

func TestDefaultKeywordTable(t *testing.T) {
	table := intent.DefaultKeywordTable()
	require.Len(t, table.Rules, 10)

	for i, rule := range table.Rules {
		assert.Equal(t, protocol.Capabilities()[i], rule.Capability, "rule %d order", i)
		assert.NotEmpty(t, rule.Keywords)
	}
}

func TestKeywordTable_Match(t *testing.T) {
	table := intent.DefaultKeywordTable()

	tests := []struct {
		question string
		want     []protocol.Capability
	}{
		{question: "Forecast sales for next month", want: []protocol.Capability{protocol.CapabilityDemand}},
		{question: "Can we afford to buy from a new vendor?", want: []protocol.Capability{protocol.CapabilitySupplier, protocol.CapabilityCapital}},
		{question: "Which products are EXPIRING soon?", want: []protocol.Capability{protocol.CapabilityInventory}},
		{question: "Should I run a discount campaign?", want: []protocol.Capability{protocol.CapabilityPricing, protocol.CapabilityPromotion}},
		{question: "Which doctors prescribe the most?", want: []protocol.Capability{protocol.CapabilityPrescription}},
		{question: "Hello there", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, table.Match(tt.question)); diff != "" {
				t.Errorf("Match() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseKeywordTable_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "not yaml", yaml: "rules: [unterminated"},
		{name: "no rules", yaml: "rules: []"},
		{name: "unknown capability", yaml: "rules:\n  - capability: weather\n    keywords: [rain]"},
		{name: "clarify is not routable", yaml: "rules:\n  - capability: clarify\n    keywords: [what]"},
		{name: "blank keywords", yaml: "rules:\n  - capability: demand\n    keywords: ['  ']"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := intent.ParseKeywordTable([]byte(tt.yaml))
			assert.ErrorIs(t, err, intent.ErrInvalidKeywordTable)
		})
	}
}

func TestLoadKeywordTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - capability: Pricing\n    keywords: [Markdown, Cheaper]\n"), 0o644))

	table, err := intent.LoadKeywordTable(path)
	require.NoError(t, err)
	assert.Equal(t, []protocol.Capability{protocol.CapabilityPricing}, table.Match("make it cheaper"))

	_, err = intent.LoadKeywordTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFallback(t *testing.T) {
	table := intent.DefaultKeywordTable()

	got := intent.Fallback(table, "Should I order 1000 units of MED009? Check the budget.")
	assert.Equal(t, protocol.SourceFallback, got.Source)
	assert.Equal(t, []protocol.Capability{protocol.CapabilityCapital}, got.Capabilities)
	assert.Equal(t, protocol.Params{"sku": "MED009", "quantity": int64(1000)}, got.Params)

	clarify := intent.Fallback(table, "What should I do?")
	assert.True(t, clarify.NeedsClarification())
	assert.Equal(t, protocol.SourceFallback, clarify.Source)
	assert.Equal(t, []protocol.Capability{protocol.CapabilityClarify}, clarify.Capabilities)
}

func TestExtractParams(t *testing.T) {
	tests := []struct {
		question string
		want     protocol.Params
	}{
		{question: "forecast med001 for 45 days", want: protocol.Params{"sku": "MED001", "days": int64(45)}},
		{question: "what will sell next quarter", want: protocol.Params{"days": int64(90)}},
		{question: "buy 250 boxes", want: protocol.Params{"quantity": int64(250)}},
		{question: "recommend products for cust0042", want: protocol.Params{"customer_id": "CUST0042"}},
		{question: "What will be demand for Paracetamol?", want: protocol.Params{}},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, intent.ExtractParams(tt.question)); diff != "" {
				t.Errorf("ExtractParams() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFallback_Deterministic(t *testing.T) {
	table := intent.DefaultKeywordTable()
	words := []string{"demand", "stock", "budget", "supplier", "hello", "MED004", "500 units", "next week", "price", "audit", "?"}

	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("identical text yields identical intents", prop.ForAll(
		func(picks []int) bool {
			var q string
			for _, p := range picks {
				q += words[p] + " "
			}
			return cmp.Equal(intent.Fallback(table, q), intent.Fallback(table, q))
		},
		gen.SliceOf(gen.IntRange(0, len(words)-1)),
	))

	properties.TestingRun(t)
}
