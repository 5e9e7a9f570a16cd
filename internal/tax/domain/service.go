package domain

import (
	"context"
	"time"

	"github.com/facturio/facturio/internal/taxengine"
)

// ConfigSnapshot is one consistent read of the active tax configuration,
// ready to be handed to the engine. DocumentRules carries the
// document-scoped rules separately since they never attach to lines.
type ConfigSnapshot struct {
	Snapshot      taxengine.Snapshot
	DocumentRules []taxengine.Rule
}

// SnapshotProvider loads the current tax configuration for a computation.
// Every totals recomputation asks for a fresh snapshot so the engine never
// reads ambient state.
type SnapshotProvider interface {
	Load(ctx context.Context) (*ConfigSnapshot, error)
}

type Service interface {
	CreateRule(ctx context.Context, req CreateRuleRequest) (*RuleResponse, error)
	ListRules(ctx context.Context, req ListRulesRequest) ([]RuleResponse, error)
	UpdateRule(ctx context.Context, req UpdateRuleRequest) (*RuleResponse, error)
	DisableRule(ctx context.Context, id string) (*RuleResponse, error)

	CreateGroup(ctx context.Context, req CreateGroupRequest) (*GroupResponse, error)
	ListGroups(ctx context.Context, req ListGroupsRequest) ([]GroupResponse, error)
	UpdateGroup(ctx context.Context, req UpdateGroupRequest) (*GroupResponse, error)
	DisableGroup(ctx context.Context, id string) (*GroupResponse, error)
}

type ListRulesRequest struct {
	Name      string
	Code      string
	Scope     string
	IsEnabled *bool
}

type CreateRuleRequest struct {
	Code          string                     `json:"code"`
	Name          string                     `json:"name"`
	Kind          taxengine.Kind             `json:"kind"`
	Rate          *float64                   `json:"rate,omitempty"`
	Amount        *int64                     `json:"amount,omitempty"`
	Base          taxengine.Base             `json:"base"`
	Scope         TaxScope                   `json:"scope"`
	ApplyOrder    int                        `json:"apply_order"`
	DocumentTypes []taxengine.DocumentType   `json:"document_types,omitempty"`
	Description   *string                    `json:"description,omitempty"`
	IsEnabled     *bool                      `json:"is_enabled,omitempty"`
}

type UpdateRuleRequest struct {
	ID            string                    `json:"id"`
	Name          *string                   `json:"name,omitempty"`
	Rate          *float64                  `json:"rate,omitempty"`
	Amount        *int64                    `json:"amount,omitempty"`
	Base          *taxengine.Base           `json:"base,omitempty"`
	ApplyOrder    *int                      `json:"apply_order,omitempty"`
	DocumentTypes *[]taxengine.DocumentType `json:"document_types,omitempty"`
	Description   *string                   `json:"description,omitempty"`
}

type RuleResponse struct {
	ID            string                   `json:"id"`
	Code          string                   `json:"code"`
	Name          string                   `json:"name"`
	Kind          taxengine.Kind           `json:"kind"`
	Rate          *float64                 `json:"rate,omitempty"`
	Amount        *int64                   `json:"amount,omitempty"`
	Base          taxengine.Base           `json:"base"`
	Scope         TaxScope                 `json:"scope"`
	ApplyOrder    int                      `json:"apply_order"`
	DocumentTypes []taxengine.DocumentType `json:"document_types,omitempty"`
	Description   *string                  `json:"description,omitempty"`
	IsEnabled     bool                     `json:"is_enabled"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

type ListGroupsRequest struct {
	Name      string
	IsEnabled *bool
}

type GroupMemberRequest struct {
	RuleID        string          `json:"rule_id"`
	OrderOverride *int            `json:"order_override,omitempty"`
	BaseOverride  *taxengine.Base `json:"base_override,omitempty"`
}

type CreateGroupRequest struct {
	Name      string               `json:"name"`
	Members   []GroupMemberRequest `json:"members"`
	IsEnabled *bool                `json:"is_enabled,omitempty"`
}

type UpdateGroupRequest struct {
	ID      string                `json:"id"`
	Name    *string               `json:"name,omitempty"`
	Members *[]GroupMemberRequest `json:"members,omitempty"`
}

type GroupMemberResponse struct {
	RuleID        string          `json:"rule_id"`
	RuleName      string          `json:"rule_name,omitempty"`
	Position      int             `json:"position"`
	OrderOverride *int            `json:"order_override,omitempty"`
	BaseOverride  *taxengine.Base `json:"base_override,omitempty"`
}

type GroupResponse struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	Members   []GroupMemberResponse `json:"members"`
	IsEnabled bool                  `json:"is_enabled"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}
