package taxengine

import "github.com/bwmarrin/snowflake"

// CreditNoteResult carries the negated line set alongside the recomputed
// totals.
type CreditNoteResult struct {
	Lines  []Line
	Result Result
}

// CreditNote derives the negated line set of a source document and re-runs
// the aggregation pipeline over it. Each negated line gets a fresh
// identifier from newID, its quantity and pre-tax amount flipped, and is
// re-resolved from scratch: percentage taxes scale with the negative base,
// and fixed taxes are charged once with the document's negative sign.
//
// The aggregation uses the source's document type so the same rule sets
// apply to both sides. Under an unchanged configuration the credit note's
// grand total is the exact negation of the source's; if the configuration
// changed in between, the result simply reflects the current rules.
func CreditNote(lines []Line, sourceType DocumentType, snap Snapshot, docRules []Rule, newID func() snowflake.ID) CreditNoteResult {
	negated := make([]Line, 0, len(lines))
	for _, line := range lines {
		line.ID = newID()
		line.Quantity = -line.Quantity
		line.PreTax = -line.PreTax
		negated = append(negated, line)
	}
	return CreditNoteResult{
		Lines:  negated,
		Result: AggregateCreditNote(negated, sourceType, snap, docRules),
	}
}

// AggregateCreditNote recomputes totals for lines that are already
// negated, for example when a stored credit note is refreshed after a
// configuration change. Fixed rules charge with the document's negative
// sign since they do not scale with the negated base.
func AggregateCreditNote(negated []Line, sourceType DocumentType, snap Snapshot, docRules []Rule) Result {
	return aggregate(negated, sourceType, snap, docRules, -1)
}
