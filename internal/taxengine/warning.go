package taxengine

import "github.com/bwmarrin/snowflake"

// Warning codes for configuration gaps discovered during a computation.
// They are diagnostics, never fatal: the document still computes a usable
// total with whatever valid rules remain.
const (
	WarnGroupNotFound = "tax_group_not_found"
	WarnGroupInactive = "tax_group_inactive"
	WarnRuleNotFound  = "tax_rule_not_found"
	WarnRuleInactive  = "tax_rule_inactive"
)

// Warning signals a configuration inconsistency hit while resolving taxes.
type Warning struct {
	Code    string       `json:"code"`
	GroupID snowflake.ID `json:"group_id,omitempty"`
	RuleID  snowflake.ID `json:"rule_id,omitempty"`
	Message string       `json:"message"`
}
