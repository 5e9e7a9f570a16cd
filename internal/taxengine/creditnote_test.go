package taxengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditNote_NegatesGrandTotal(t *testing.T) {
	node := newTestNode(t)

	// Source invoice: subtotal 1000.00, single 19% VAT -> total 1190.00.
	lines := []Line{{ID: node.Generate(), Quantity: 4, UnitPrice: 25000, PreTax: 100000, DefaultRate: 19}}
	source := Aggregate(lines, DocumentTypeInvoice, Snapshot{}, nil)
	require.Equal(t, int64(119000), source.Totals.GrandTotal)

	credit := CreditNote(lines, DocumentTypeInvoice, Snapshot{}, nil, node.Generate)
	assert.Equal(t, int64(-100000), credit.Result.Totals.Subtotal)
	assert.Equal(t, int64(-19000), credit.Result.Totals.TotalTaxes)
	assert.Equal(t, -source.Totals.GrandTotal, credit.Result.Totals.GrandTotal)
}

func TestCreditNote_FreshIdentifiersAndNegatedQuantities(t *testing.T) {
	node := newTestNode(t)
	lines := []Line{
		{ID: node.Generate(), Quantity: 2, UnitPrice: 1500, PreTax: 3000, DefaultRate: 19},
		{ID: node.Generate(), Quantity: 1, UnitPrice: 990, PreTax: 990, DefaultRate: 7},
	}

	credit := CreditNote(lines, DocumentTypeInvoice, Snapshot{}, nil, node.Generate)
	require.Len(t, credit.Lines, 2)
	for i, negated := range credit.Lines {
		assert.NotEqual(t, lines[i].ID, negated.ID)
		assert.Equal(t, -lines[i].Quantity, negated.Quantity)
		assert.Equal(t, -lines[i].PreTax, negated.PreTax)
		assert.Equal(t, lines[i].UnitPrice, negated.UnitPrice)
	}
	// Source lines untouched.
	assert.Equal(t, float64(2), lines[0].Quantity)
	assert.Equal(t, int64(3000), lines[0].PreTax)
}

func TestCreditNote_NegatesFixedAndCascadingTaxes(t *testing.T) {
	node := newTestNode(t)
	fodecID := node.Generate()
	vatID := node.Generate()
	groupID := node.Generate()

	snap := snapshotWith(
		[]Rule{
			percentRule(fodecID, "FODEC", 1, BaseRawSubtotal, 1),
			percentRule(vatID, "VAT 19%", 19, BaseRunningTotal, 2),
		},
		[]Group{{ID: groupID, Name: "FODEC+VAT", Active: true, Members: []GroupMember{
			{RuleID: fodecID},
			{RuleID: vatID},
		}}},
	)
	docRules := []Rule{fixedRule(node.Generate(), "Stamp duty", 60, 1)}
	lines := []Line{{ID: node.Generate(), Quantity: 1, UnitPrice: 10000, PreTax: 10000, TaxGroupID: groupID}}

	source := Aggregate(lines, DocumentTypeInvoice, snap, docRules)
	credit := CreditNote(lines, DocumentTypeInvoice, snap, docRules, node.Generate)

	assert.Equal(t, -source.Totals.GrandTotal, credit.Result.Totals.GrandTotal)
	stamp := summaryFor(credit.Result.Totals, "Stamp duty")
	require.NotNil(t, stamp)
	assert.Equal(t, int64(-60), stamp.Amount)
}

func TestCreditNote_ConfigurationChangeTolerated(t *testing.T) {
	node := newTestNode(t)
	lines := []Line{{ID: node.Generate(), Quantity: 1, UnitPrice: 100000, PreTax: 100000, DefaultRate: 19}}
	source := Aggregate(lines, DocumentTypeInvoice, Snapshot{}, nil)

	// Rate changed between issuance and credit: not an error, the credit
	// note reflects the current configuration.
	lines[0].DefaultRate = 13
	credit := CreditNote(lines, DocumentTypeInvoice, Snapshot{}, nil, node.Generate)
	assert.NotEqual(t, -source.Totals.GrandTotal, credit.Result.Totals.GrandTotal)
	assert.Equal(t, int64(-113000), credit.Result.Totals.GrandTotal)
}
