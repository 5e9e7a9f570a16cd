package taxengine

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Snapshot is a read-only view of the active tax configuration, passed
// explicitly to every computation so the engine never depends on ambient
// state. The engine never mutates a snapshot.
type Snapshot struct {
	Rules  map[snowflake.ID]Rule
	Groups map[snowflake.ID]Group
}

// GroupRules resolves a group into its ordered member rules, applying
// per-group order and base overrides. Members referencing a missing or
// inactive rule are skipped with a warning; a missing or inactive group
// yields no rules and a warning.
func (s Snapshot) GroupRules(groupID snowflake.ID) ([]Rule, []Warning) {
	group, ok := s.Groups[groupID]
	if !ok {
		return nil, []Warning{{
			Code:    WarnGroupNotFound,
			GroupID: groupID,
			Message: fmt.Sprintf("tax group %s not found", groupID),
		}}
	}
	if !group.Active {
		return nil, []Warning{{
			Code:    WarnGroupInactive,
			GroupID: groupID,
			Message: fmt.Sprintf("tax group %q is inactive", group.Name),
		}}
	}

	var warnings []Warning
	rules := make([]Rule, 0, len(group.Members))
	for _, member := range group.Members {
		rule, ok := s.Rules[member.RuleID]
		if !ok {
			warnings = append(warnings, Warning{
				Code:    WarnRuleNotFound,
				GroupID: groupID,
				RuleID:  member.RuleID,
				Message: fmt.Sprintf("tax group %q references missing rule %s", group.Name, member.RuleID),
			})
			continue
		}
		if !rule.Active {
			warnings = append(warnings, Warning{
				Code:    WarnRuleInactive,
				GroupID: groupID,
				RuleID:  rule.ID,
				Message: fmt.Sprintf("tax group %q references inactive rule %q", group.Name, rule.Name),
			})
			continue
		}
		if member.OrderOverride != nil {
			rule.Order = *member.OrderOverride
		}
		if member.BaseOverride != nil {
			rule.Base = *member.BaseOverride
		}
		rules = append(rules, rule)
	}
	return rules, warnings
}

// DefaultRateRules builds the implicit single-rule cascade for a product
// that carries a legacy default percentage instead of a tax group. A zero
// rate yields no rules, so the line's post-tax amount equals its pre-tax
// amount.
func DefaultRateRules(rate float64) []Rule {
	if rate == 0 {
		return nil
	}
	return []Rule{{
		Name:   fmt.Sprintf("VAT %g%%", rate),
		Kind:   KindPercentage,
		Rate:   rate,
		Base:   BaseRawSubtotal,
		Active: true,
	}}
}
