// Package protocol defines the data shared by every stage of the orchestration
// pipeline: capability identifiers, resolved intents, handler results, and the
// exchanges persisted in conversation history.
package protocol

import "strings"

// Capability identifies a capability handler. The set of valid identifiers is
// fixed at compile time; values outside the set may still appear in an Intent
// (for example when the classifier invents one) and are reported as
// unavailable at dispatch.
type Capability string

const (
	CapabilityDemand       Capability = "demand"
	CapabilityTransfer     Capability = "transfer"
	CapabilitySupplier     Capability = "supplier"
	CapabilityCapital      Capability = "capital"
	CapabilityInventory    Capability = "inventory"
	CapabilityPricing      Capability = "pricing"
	CapabilityPrescription Capability = "prescription"
	CapabilityPromotion    Capability = "promotion"
	CapabilityCompliance   Capability = "compliance"
	CapabilityCustomer     Capability = "customer"

	// CapabilityClarify is the pseudo-capability carried by an Intent whose
	// question could not be routed. It never maps to a handler.
	CapabilityClarify Capability = "clarify"
)

var capabilities = []struct {
	id          Capability
	description string
}{
	{CapabilityDemand, "Demand forecasting, sales prediction, reorder timing"},
	{CapabilityTransfer, "Inter-store transfers, inventory balancing, expiry prevention"},
	{CapabilitySupplier, "Supplier selection, performance, split ordering, reliability"},
	{CapabilityCapital, "Budget validation, working capital, cash flow, ROI"},
	{CapabilityInventory, "Stock levels, safety stock, dead stock, expiry tracking"},
	{CapabilityPricing, "Discounts, pricing strategy, margin simulation, competitor pricing"},
	{CapabilityPrescription, "Doctor patterns, clinic demand, prescription forecasting"},
	{CapabilityPromotion, "Campaign ROI, promotion effectiveness"},
	{CapabilityCompliance, "Regulatory compliance, controlled drugs, audit trails"},
	{CapabilityCustomer, "Customer recommendations, loyalty, personalization"},
}

// Capabilities returns every handler capability in enumeration order.
// The clarify pseudo-capability is not included.
func Capabilities() []Capability {
	ids := make([]Capability, len(capabilities))
	for i, c := range capabilities {
		ids[i] = c.id
	}
	return ids
}

// ParseCapability normalizes raw classifier output into a Capability.
// Unknown names are returned as-is (lower-cased) so they can be reported.
func ParseCapability(raw string) Capability {
	return Capability(strings.ToLower(strings.TrimSpace(raw)))
}

// IsKnown reports whether c is one of the enumerated handler capabilities.
func (c Capability) IsKnown() bool {
	return c.Index() >= 0
}

// Index returns the enumeration position of c, or -1 when c is unknown.
func (c Capability) Index() int {
	for i, known := range capabilities {
		if known.id == c {
			return i
		}
	}
	return -1
}

// Description returns the one-line summary of what the capability answers.
func (c Capability) Description() string {
	for _, known := range capabilities {
		if known.id == c {
			return known.description
		}
	}
	return ""
}

// Title returns the capability name with an upper-case first letter.
func (c Capability) Title() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

func (c Capability) String() string {
	return string(c)
}

// JoinCapabilities renders ids as a comma-separated list.
func JoinCapabilities(ids []Capability) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}
