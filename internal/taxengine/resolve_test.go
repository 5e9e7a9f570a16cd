package taxengine

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

func percentRule(id snowflake.ID, name string, rate float64, base Base, order int) Rule {
	return Rule{ID: id, Name: name, Kind: KindPercentage, Rate: rate, Base: base, Order: order, Active: true}
}

func fixedRule(id snowflake.ID, name string, amount int64, order int) Rule {
	return Rule{ID: id, Name: name, Kind: KindFixed, Amount: amount, Order: order, Active: true}
}

func breakdownSum(res LineResult) int64 {
	var sum int64
	for _, t := range res.Breakdown {
		sum += t.Amount
	}
	return sum
}

func TestResolveLine_CompoundingBase(t *testing.T) {
	node := newTestNode(t)

	// Base 100.00: A (10%, raw) = 10.00, B (10%, running) = 10% of 110.00 = 11.00.
	rules := []Rule{
		percentRule(node.Generate(), "A", 10, BaseRawSubtotal, 1),
		percentRule(node.Generate(), "B", 10, BaseRunningTotal, 2),
	}
	line := Line{ID: node.Generate(), PreTax: 10000}

	res := ResolveLine(line, rules, NewAppliedFixed())
	require.Len(t, res.Breakdown, 2)
	assert.Equal(t, int64(1000), res.Breakdown[0].Amount)
	assert.Equal(t, int64(10000), res.Breakdown[0].Base)
	assert.Equal(t, int64(1100), res.Breakdown[1].Amount)
	assert.Equal(t, int64(11000), res.Breakdown[1].Base)
	assert.Equal(t, int64(12100), res.PostTax)
	assert.Equal(t, res.PreTax+breakdownSum(res), res.PostTax)
}

func TestResolveLine_FodecThenVAT(t *testing.T) {
	node := newTestNode(t)

	// 100.00 -> FODEC 1% = 1.00, VAT 19% on 101.00 = 19.19, post 120.19.
	rules := []Rule{
		percentRule(node.Generate(), "FODEC", 1, BaseRawSubtotal, 1),
		percentRule(node.Generate(), "VAT 19%", 19, BaseRunningTotal, 2),
	}
	line := Line{ID: node.Generate(), PreTax: 10000}

	res := ResolveLine(line, rules, NewAppliedFixed())
	require.Len(t, res.Breakdown, 2)
	assert.Equal(t, int64(100), res.Breakdown[0].Amount)
	assert.Equal(t, int64(10100), res.Breakdown[1].Base)
	assert.Equal(t, int64(1919), res.Breakdown[1].Amount)
	assert.Equal(t, int64(12019), res.PostTax)
}

func TestResolveLine_StableOrderOnTies(t *testing.T) {
	node := newTestNode(t)

	rules := []Rule{
		percentRule(node.Generate(), "first", 5, BaseRunningTotal, 1),
		percentRule(node.Generate(), "second", 5, BaseRunningTotal, 1),
	}
	res := ResolveLine(Line{ID: node.Generate(), PreTax: 10000}, rules, NewAppliedFixed())
	require.Len(t, res.Breakdown, 2)
	assert.Equal(t, "first", res.Breakdown[0].Name)
	assert.Equal(t, "second", res.Breakdown[1].Name)
}

func TestResolveLine_SkipsInactiveRules(t *testing.T) {
	node := newTestNode(t)

	inactive := percentRule(node.Generate(), "old VAT", 18, BaseRawSubtotal, 1)
	inactive.Active = false
	rules := []Rule{
		inactive,
		percentRule(node.Generate(), "VAT 19%", 19, BaseRawSubtotal, 2),
	}
	res := ResolveLine(Line{ID: node.Generate(), PreTax: 10000}, rules, NewAppliedFixed())
	require.Len(t, res.Breakdown, 1)
	assert.Equal(t, "VAT 19%", res.Breakdown[0].Name)
}

func TestResolveLine_FixedRuleOncePerDocument(t *testing.T) {
	node := newTestNode(t)

	stamp := fixedRule(node.Generate(), "Stamp duty", 60, 1)
	applied := NewAppliedFixed()

	first := ResolveLine(Line{ID: node.Generate(), PreTax: 5000}, []Rule{stamp}, applied)
	second := ResolveLine(Line{ID: node.Generate(), PreTax: 7000}, []Rule{stamp}, applied)

	require.Len(t, first.Breakdown, 1)
	assert.Equal(t, int64(60), first.Breakdown[0].Amount)
	assert.Empty(t, second.Breakdown)
	assert.Equal(t, second.PreTax, second.PostTax)
}

func TestResolveLine_NoRulesYieldsEmptyBreakdown(t *testing.T) {
	node := newTestNode(t)

	res := ResolveLine(Line{ID: node.Generate(), PreTax: 4200}, DefaultRateRules(0), NewAppliedFixed())
	assert.Empty(t, res.Breakdown)
	assert.Equal(t, int64(4200), res.PostTax)
}

func TestLinePreTax(t *testing.T) {
	// 3 x 25.00 with 10% discount = 67.50
	assert.Equal(t, int64(6750), LinePreTax(3, 2500, 10))
	assert.Equal(t, int64(2500), LinePreTax(1, 2500, 0))
	// fractional quantity: 1.5 x 19.99 = 29.985 -> 29.99 (half away from zero)
	assert.Equal(t, int64(2999), LinePreTax(1.5, 1999, 0))
}

func TestApplyPercentageIsSymmetricUnderNegation(t *testing.T) {
	for _, base := range []int64{10000, 10100, 333, 1} {
		for _, rate := range []float64{19, 7, 1, 0.5} {
			assert.Equal(t, -ApplyPercentage(base, rate), ApplyPercentage(-base, rate))
		}
	}
}
