package taxengine

import "github.com/bwmarrin/snowflake"

// Line is the engine-facing shape of one document line. PreTax is the
// already-derived pre-tax amount in cents (see LinePreTax). A line carries
// either a tax group reference or a legacy default percentage; TaxGroupID
// zero means no group.
type Line struct {
	ID          snowflake.ID
	Quantity    float64
	UnitPrice   int64
	Discount    float64
	PreTax      int64
	TaxGroupID  snowflake.ID
	DefaultRate float64
}

// TaxLine is one entry of a line's tax breakdown. Rate is nil for fixed
// taxes.
type TaxLine struct {
	RuleID snowflake.ID `json:"rule_id,omitempty"`
	Name   string       `json:"name"`
	Rate   *float64     `json:"rate,omitempty"`
	Base   int64        `json:"base"`
	Amount int64        `json:"amount"`
}

// LineResult is the derived tax state of one line. PostTax always equals
// PreTax plus the sum of the breakdown amounts.
type LineResult struct {
	LineID    snowflake.ID `json:"line_id"`
	PreTax    int64        `json:"pre_tax_amount"`
	Breakdown []TaxLine    `json:"tax_breakdown"`
	PostTax   int64        `json:"post_tax_amount"`
}

// AppliedFixed tracks fixed rules already charged during one aggregation
// pass over one document. Fixed rules are evaluated per line but must be
// applied at most once per document. A set must never be shared across
// documents or across concurrent recomputations; each aggregation pass
// starts with a fresh one.
type AppliedFixed map[snowflake.ID]struct{}

// NewAppliedFixed returns an empty applied-fixed-rule set for one
// aggregation pass.
func NewAppliedFixed() AppliedFixed {
	return make(AppliedFixed)
}

func (a AppliedFixed) seen(id snowflake.ID) bool {
	_, ok := a[id]
	return ok
}

func (a AppliedFixed) record(id snowflake.ID) {
	a[id] = struct{}{}
}

// ResolveLine computes one line's tax breakdown against an ordered rule
// cascade. The applied set is shared across all lines of the same document
// so fixed rules charge once.
func ResolveLine(line Line, rules []Rule, applied AppliedFixed) LineResult {
	return resolveLine(line, rules, applied, 1)
}

// resolveLine runs the canonical cascade. sign is -1 when resolving a
// credit note so fixed amounts, which do not scale with the negated base,
// still negate.
func resolveLine(line Line, rules []Rule, applied AppliedFixed, sign int64) LineResult {
	result := LineResult{
		LineID:  line.ID,
		PreTax:  line.PreTax,
		PostTax: line.PreTax,
	}

	running := line.PreTax
	for _, rule := range orderRules(activeRules(rules)) {
		switch rule.Kind {
		case KindFixed:
			if rule.ID != 0 && applied != nil {
				if applied.seen(rule.ID) {
					continue
				}
				applied.record(rule.ID)
			}
			amount := sign * rule.Amount
			result.Breakdown = append(result.Breakdown, TaxLine{
				RuleID: rule.ID,
				Name:   rule.Name,
				Amount: amount,
			})
			running += amount

		case KindPercentage:
			base := line.PreTax
			if rule.Base == BaseRunningTotal {
				base = running
			}
			amount := ApplyPercentage(base, rule.Rate)
			rate := rule.Rate
			result.Breakdown = append(result.Breakdown, TaxLine{
				RuleID: rule.ID,
				Name:   rule.Name,
				Rate:   &rate,
				Base:   base,
				Amount: amount,
			})
			running += amount
		}
	}

	for _, t := range result.Breakdown {
		result.PostTax += t.Amount
	}
	return result
}

func activeRules(rules []Rule) []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.Active {
			out = append(out, r)
		}
	}
	return out
}
