package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	CreateRule(ctx context.Context, rule *TaxRule) error
	FindRuleByID(ctx context.Context, id snowflake.ID) (*TaxRule, error)
	ListRules(ctx context.Context, filter ListRulesRequest) ([]TaxRule, error)
	UpdateRule(ctx context.Context, rule *TaxRule) error

	CreateGroup(ctx context.Context, group *TaxGroup) error
	FindGroupByID(ctx context.Context, id snowflake.ID) (*TaxGroup, error)
	ListGroups(ctx context.Context, filter ListGroupsRequest) ([]TaxGroup, error)
	UpdateGroup(ctx context.Context, group *TaxGroup) error
	ReplaceGroupMembers(ctx context.Context, groupID snowflake.ID, members []TaxGroupMember) error

	// LoadConfiguration returns every rule and every group (members
	// preloaded, ordered by position) in one read, for snapshot building.
	LoadConfiguration(ctx context.Context) ([]TaxRule, []TaxGroup, error)
}
