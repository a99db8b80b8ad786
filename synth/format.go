package synth

import (
	"fmt"
	"strings"

	"github.com/tailored-agentic-units/rxdesk/core/protocol"
)

// Clarification asks the user for the specifics needed to route a question.
func Clarification() string {
	var b strings.Builder
	b.WriteString("I need a bit more detail to answer that.\n\nI can help with:\n")
	for _, c := range protocol.Capabilities() {
		fmt.Fprintf(&b, "  - %s: %s\n", c.Title(), c.Description())
	}
	b.WriteString("\nPlease tell me which product or SKU you mean (for example MED001), ")
	b.WriteString("the quantity involved, and the timeframe you have in mind.")
	return b.String()
}

// Concatenate renders findings as one section per capability, in order.
// consulted names every capability that was asked. Findings with no content
// are skipped.
func Concatenate(consulted []protocol.Capability, findings []Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Based on consultation with %s:\n", protocol.JoinCapabilities(consulted))
	for _, f := range findings {
		if strings.TrimSpace(f.Content) == "" {
			continue
		}
		fmt.Fprintf(&b, "\n**%s:** %s\n", strings.ToUpper(string(f.Capability)), f.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Coverage lists the consulted capabilities and notes each degraded one.
func Coverage(results protocol.ResultSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Consulted: %s", protocol.JoinCapabilities(results.Capabilities()))
	for _, r := range results.Failed() {
		fmt.Fprintf(&b, "\nNote: %s information was unavailable (%s).", r.Capability, r.Status)
	}
	return b.String()
}

// Failure reports a dispatch in which no capability succeeded.
func Failure(results protocol.ResultSet) string {
	var b strings.Builder
	b.WriteString("I could not get a full answer to your question.\n\n")
	for _, r := range results {
		fmt.Fprintf(&b, "  - %s: %s", r.Capability, r.Status)
		if r.Detail != "" {
			fmt.Fprintf(&b, " (%s)", r.Detail)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nPlease try again in a moment, or rephrase the question with more detail.")
	return b.String()
}
