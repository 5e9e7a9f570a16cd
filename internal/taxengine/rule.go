package taxengine

import (
	"sort"

	"github.com/bwmarrin/snowflake"
)

// DocumentType identifies the commercial document a rule may apply to.
type DocumentType string

const (
	DocumentTypeInvoice       DocumentType = "invoice"
	DocumentTypeQuote         DocumentType = "quote"
	DocumentTypeDeliveryNote  DocumentType = "delivery_note"
	DocumentTypePurchaseOrder DocumentType = "purchase_order"
	DocumentTypeCreditNote    DocumentType = "credit_note"
)

// Kind distinguishes percentage taxes from flat-amount taxes.
type Kind string

const (
	KindPercentage Kind = "percentage"
	KindFixed      Kind = "fixed"
)

// Base selects the calculation base of a percentage rule.
type Base string

const (
	// BaseRawSubtotal applies the rate to the original pre-tax amount.
	BaseRawSubtotal Base = "raw_subtotal"
	// BaseRunningTotal applies the rate to the running total after
	// previously applied taxes (cascading).
	BaseRunningTotal Base = "running_total"
)

// Rule is one tax rule from the active configuration. Rate is meaningful
// only when Kind is KindPercentage; Amount (cents) only when Kind is
// KindFixed. A fixed rule contributes its amount at most once per document
// regardless of how many lines carry it.
type Rule struct {
	ID            snowflake.ID
	Name          string
	Kind          Kind
	Rate          float64
	Amount        int64
	Base          Base
	Order         int
	DocumentTypes []DocumentType
	Active        bool
}

// AppliesTo reports whether the rule is configured for the document type.
// An empty DocumentTypes list means the rule applies everywhere.
func (r Rule) AppliesTo(dt DocumentType) bool {
	if len(r.DocumentTypes) == 0 {
		return true
	}
	for _, t := range r.DocumentTypes {
		if t == dt {
			return true
		}
	}
	return false
}

// GroupMember references a rule inside a group, optionally overriding its
// order or base while it participates in this group's cascade.
type GroupMember struct {
	RuleID        snowflake.ID
	OrderOverride *int
	BaseOverride  *Base
}

// Group is a named, ordered, reusable cascade of rules attachable to a
// product.
type Group struct {
	ID      snowflake.ID
	Name    string
	Active  bool
	Members []GroupMember
}

// orderRules sorts rules by Order, keeping insertion order for ties.
func orderRules(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// activeRulesFor filters to enabled rules applicable to the document type,
// sorted stably by order.
func activeRulesFor(rules []Rule, dt DocumentType) []Rule {
	filtered := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.Active && r.AppliesTo(dt) {
			filtered = append(filtered, r)
		}
	}
	return orderRules(filtered)
}
