package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"

	"github.com/facturio/facturio/internal/taxengine"
)

// TaxScope says where a rule attaches: to products (directly or through a
// group) or to whole documents as a global charge.
type TaxScope string

const (
	TaxScopeProduct  TaxScope = "product"
	TaxScopeDocument TaxScope = "document"
)

// TaxRule is a persisted tax rule.
// NOTE:
// - code is a stable, engine-facing identifier (immutable once created)
// - name/description are UI-facing and editable
type TaxRule struct {
	ID snowflake.ID `gorm:"primaryKey"`

	Code string `gorm:"type:text;not null;uniqueIndex"`
	Name string `gorm:"type:text;not null"`

	Kind   taxengine.Kind `gorm:"type:text;not null"`
	Rate   *float64       `gorm:"type:numeric(8,4)"` // percentage (19 means 19%), set iff kind = percentage
	Amount *int64         `gorm:""`                  // cents, set iff kind = fixed
	Base   taxengine.Base `gorm:"type:text;not null;default:'raw_subtotal'"`

	Scope         TaxScope                                    `gorm:"type:text;not null;default:'product'"`
	ApplyOrder    int                                         `gorm:"column:apply_order;not null;default:0"`
	DocumentTypes datatypes.JSONSlice[taxengine.DocumentType] `gorm:"column:document_types"`

	Description *string `gorm:"type:text"`
	IsEnabled   bool    `gorm:"column:is_enabled;not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (TaxRule) TableName() string { return "tax_rules" }

func (r *TaxRule) Validate() error {
	if r.Code == "" {
		return ErrInvalidTaxCode
	}
	if r.Name == "" {
		return ErrInvalidName
	}
	switch r.Kind {
	case taxengine.KindPercentage:
		if r.Rate == nil || *r.Rate < 0 {
			return ErrInvalidTaxRate
		}
		if r.Amount != nil {
			return ErrInvalidTaxAmount
		}
	case taxengine.KindFixed:
		if r.Amount == nil || *r.Amount < 0 {
			return ErrInvalidTaxAmount
		}
		if r.Rate != nil {
			return ErrInvalidTaxRate
		}
	default:
		return ErrInvalidTaxKind
	}
	if r.Base != taxengine.BaseRawSubtotal && r.Base != taxengine.BaseRunningTotal {
		return ErrInvalidTaxBase
	}
	if r.Scope != TaxScopeProduct && r.Scope != TaxScopeDocument {
		return ErrInvalidTaxScope
	}
	return nil
}

// EngineRule projects the persisted rule into the engine's rule shape.
func (r *TaxRule) EngineRule() taxengine.Rule {
	rule := taxengine.Rule{
		ID:            r.ID,
		Name:          r.Name,
		Kind:          r.Kind,
		Base:          r.Base,
		Order:         r.ApplyOrder,
		DocumentTypes: r.DocumentTypes,
		Active:        r.IsEnabled,
	}
	if r.Rate != nil {
		rule.Rate = *r.Rate
	}
	if r.Amount != nil {
		rule.Amount = *r.Amount
	}
	return rule
}

// TaxGroup is a reusable, ordered cascade of rules attachable to a
// product.
type TaxGroup struct {
	ID snowflake.ID `gorm:"primaryKey"`

	Name      string `gorm:"type:text;not null"`
	IsEnabled bool   `gorm:"column:is_enabled;not null;default:true"`

	Members []TaxGroupMember `gorm:"foreignKey:GroupID"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (TaxGroup) TableName() string { return "tax_groups" }

// TaxGroupMember binds a rule into a group. Position fixes the member's
// place in the cascade; the optional overrides let the rule behave
// differently inside this group than its own defaults.
type TaxGroupMember struct {
	ID      snowflake.ID `gorm:"primaryKey"`
	GroupID snowflake.ID `gorm:"not null;index"`
	RuleID  snowflake.ID `gorm:"not null;index"`

	Position      int             `gorm:"not null;default:0"`
	OrderOverride *int            `gorm:""`
	BaseOverride  *taxengine.Base `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (TaxGroupMember) TableName() string { return "tax_group_members" }

// EngineGroup projects the persisted group into the engine's group shape.
// Members are assumed ordered by Position.
func (g *TaxGroup) EngineGroup() taxengine.Group {
	group := taxengine.Group{
		ID:     g.ID,
		Name:   g.Name,
		Active: g.IsEnabled,
	}
	for _, m := range g.Members {
		group.Members = append(group.Members, taxengine.GroupMember{
			RuleID:        m.RuleID,
			OrderOverride: m.OrderOverride,
			BaseOverride:  m.BaseOverride,
		})
	}
	return group
}
