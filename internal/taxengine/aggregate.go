package taxengine

import "sort"

// Tax summary sources. Product-level entries come from merging line
// breakdowns; document-level entries from rules applied to the document
// subtotal.
const (
	SourceProduct  = "product"
	SourceDocument = "document"
)

// TaxSummaryEntry is one row of a document's tax summary, grouped by
// (name, rate) across lines. Rate is nil for fixed taxes.
type TaxSummaryEntry struct {
	Name       string   `json:"name"`
	Rate       *float64 `json:"rate,omitempty"`
	BaseAmount int64    `json:"base_amount"`
	Amount     int64    `json:"amount"`
	Source     string   `json:"source"`
}

// DocumentTotals is the final totals object consumed by every document
// type. GrandTotal always equals Subtotal plus TotalTaxes, and TotalTaxes
// the sum of the summary amounts.
type DocumentTotals struct {
	Subtotal   int64             `json:"subtotal"`
	TaxSummary []TaxSummaryEntry `json:"tax_summary"`
	TotalTaxes int64             `json:"total_taxes"`
	GrandTotal int64             `json:"grand_total"`
}

// Result is the full outcome of one aggregation pass: per-line results,
// document totals and any configuration warnings hit along the way.
type Result struct {
	Lines    []LineResult   `json:"lines"`
	Totals   DocumentTotals `json:"totals"`
	Warnings []Warning      `json:"warnings,omitempty"`
}

// Aggregate resolves every line against the snapshot, merges the line
// breakdowns grouped by (name, rate), applies document-level rules in
// their configured order against the document subtotal, and produces the
// document totals. Each call is independent and side-effect free; calling
// it twice with identical inputs yields identical results.
func Aggregate(lines []Line, docType DocumentType, snap Snapshot, docRules []Rule) Result {
	return aggregate(lines, docType, snap, docRules, 1)
}

// ComputeTotals is the recomputation entry point callers use after every
// line mutation or configuration reload. It is a pure projection over
// Aggregate: no caching, no memoization.
func ComputeTotals(lines []Line, docType DocumentType, snap Snapshot, docRules []Rule) Result {
	return Aggregate(lines, docType, snap, docRules)
}

func aggregate(lines []Line, docType DocumentType, snap Snapshot, docRules []Rule, sign int64) Result {
	var result Result
	applied := NewAppliedFixed()

	var subtotal int64
	for _, line := range lines {
		var rules []Rule
		if line.TaxGroupID != 0 {
			groupRules, warnings := snap.GroupRules(line.TaxGroupID)
			result.Warnings = append(result.Warnings, warnings...)
			rules = groupRules
		} else {
			rules = DefaultRateRules(line.DefaultRate)
		}
		lineResult := resolveLine(line, activeRulesFor(rules, docType), applied, sign)
		result.Lines = append(result.Lines, lineResult)
		subtotal += line.PreTax
	}

	summary := mergeLineTaxes(result.Lines)
	summary = append(summary, documentTaxes(subtotal, docType, docRules, applied, sign)...)

	var totalTaxes int64
	for _, entry := range summary {
		totalTaxes += entry.Amount
	}

	result.Totals = DocumentTotals{
		Subtotal:   subtotal,
		TaxSummary: summary,
		TotalTaxes: totalTaxes,
		GrandTotal: subtotal + totalTaxes,
	}
	return result
}

// mergeLineTaxes groups line breakdown entries by (name, rate): two lines
// both charging "VAT 19%" contribute to a single summary row, while
// "VAT 7%" stays separate. Rows are ordered ascending by rate then name;
// the ordering is cosmetic and never affects the numbers.
func mergeLineTaxes(lines []LineResult) []TaxSummaryEntry {
	type key struct {
		name string
		rate float64
		pct  bool
	}
	sums := make(map[key]*TaxSummaryEntry)
	var keys []key

	for _, line := range lines {
		for _, tax := range line.Breakdown {
			k := key{name: tax.Name}
			if tax.Rate != nil {
				k.rate = *tax.Rate
				k.pct = true
			}
			entry, ok := sums[k]
			if !ok {
				entry = &TaxSummaryEntry{Name: tax.Name, Rate: tax.Rate, Source: SourceProduct}
				sums[k] = entry
				keys = append(keys, k)
			}
			entry.BaseAmount += tax.Base
			entry.Amount += tax.Amount
		}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].rate != keys[j].rate {
			return keys[i].rate < keys[j].rate
		}
		return keys[i].name < keys[j].name
	})

	out := make([]TaxSummaryEntry, 0, len(keys))
	for _, k := range keys {
		out = append(out, *sums[k])
	}
	return out
}

// documentTaxes applies document-scoped rules in configured order as a
// cascade over the document subtotal. These typically represent
// non-product charges such as a stamp duty layered on the whole document.
func documentTaxes(subtotal int64, docType DocumentType, docRules []Rule, applied AppliedFixed, sign int64) []TaxSummaryEntry {
	var entries []TaxSummaryEntry
	running := subtotal
	for _, rule := range activeRulesFor(docRules, docType) {
		switch rule.Kind {
		case KindFixed:
			if rule.ID != 0 {
				if applied.seen(rule.ID) {
					continue
				}
				applied.record(rule.ID)
			}
			amount := sign * rule.Amount
			entries = append(entries, TaxSummaryEntry{
				Name:   rule.Name,
				Amount: amount,
				Source: SourceDocument,
			})
			running += amount

		case KindPercentage:
			base := subtotal
			if rule.Base == BaseRunningTotal {
				base = running
			}
			amount := ApplyPercentage(base, rule.Rate)
			rate := rule.Rate
			entries = append(entries, TaxSummaryEntry{
				Name:       rule.Name,
				Rate:       &rate,
				BaseAmount: base,
				Amount:     amount,
				Source:     SourceDocument,
			})
			running += amount
		}
	}
	return entries
}
