// Package seed bootstraps a usable tax configuration on first start.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	taxdomain "github.com/facturio/facturio/internal/tax/domain"
	"github.com/facturio/facturio/internal/taxengine"
)

const defaultGroupName = "FODEC + TVA 19%"

// EnsureDefaultTaxConfiguration seeds the standard Tunisian setup: the
// three VAT rates, the FODEC levy cascading into VAT, and the per-invoice
// stamp duty. Safe to run on every startup; existing codes are left
// untouched.
func EnsureDefaultTaxConfiguration(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rules, err := ensureDefaultRulesTx(ctx, tx, node)
		if err != nil {
			return err
		}
		return ensureDefaultGroupTx(ctx, tx, node, rules)
	})
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int64) *int64       { return &i }

func defaultRules() []taxdomain.TaxRule {
	timbreTypes := datatypes.NewJSONSlice([]taxengine.DocumentType{
		taxengine.DocumentTypeInvoice,
	})
	return []taxdomain.TaxRule{
		{
			Code:       "TVA19",
			Name:       "TVA 19%",
			Kind:       taxengine.KindPercentage,
			Rate:       floatPtr(19),
			Base:       taxengine.BaseRawSubtotal,
			Scope:      taxdomain.TaxScopeProduct,
			ApplyOrder: 20,
		},
		{
			Code:       "TVA13",
			Name:       "TVA 13%",
			Kind:       taxengine.KindPercentage,
			Rate:       floatPtr(13),
			Base:       taxengine.BaseRawSubtotal,
			Scope:      taxdomain.TaxScopeProduct,
			ApplyOrder: 20,
		},
		{
			Code:       "TVA7",
			Name:       "TVA 7%",
			Kind:       taxengine.KindPercentage,
			Rate:       floatPtr(7),
			Base:       taxengine.BaseRawSubtotal,
			Scope:      taxdomain.TaxScopeProduct,
			ApplyOrder: 20,
		},
		{
			Code:       "FODEC",
			Name:       "FODEC 1%",
			Kind:       taxengine.KindPercentage,
			Rate:       floatPtr(1),
			Base:       taxengine.BaseRawSubtotal,
			Scope:      taxdomain.TaxScopeProduct,
			ApplyOrder: 10,
		},
		{
			Code:          "TIMBRE",
			Name:          "Droit de timbre",
			Kind:          taxengine.KindFixed,
			Amount:        intPtr(100),
			Base:          taxengine.BaseRawSubtotal,
			Scope:         taxdomain.TaxScopeDocument,
			ApplyOrder:    100,
			DocumentTypes: timbreTypes,
		},
	}
}

func ensureDefaultRulesTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) (map[string]taxdomain.TaxRule, error) {
	byCode := make(map[string]taxdomain.TaxRule)
	now := time.Now().UTC()

	for _, rule := range defaultRules() {
		var existing taxdomain.TaxRule
		err := tx.WithContext(ctx).First(&existing, "code = ?", rule.Code).Error
		if err == nil {
			byCode[existing.Code] = existing
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		rule.ID = node.Generate()
		rule.IsEnabled = true
		rule.CreatedAt = now
		rule.UpdatedAt = now
		if err := tx.WithContext(ctx).Create(&rule).Error; err != nil {
			return nil, err
		}
		byCode[rule.Code] = rule
	}
	return byCode, nil
}

// ensureDefaultGroupTx builds the cascading FODEC group: FODEC applies on
// the raw subtotal first, then TVA 19% on the running total so the levy
// itself is taxed.
func ensureDefaultGroupTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, rules map[string]taxdomain.TaxRule) error {
	var existing taxdomain.TaxGroup
	err := tx.WithContext(ctx).First(&existing, "name = ?", defaultGroupName).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	fodec, ok := rules["FODEC"]
	if !ok {
		return errors.New("seed rule FODEC missing")
	}
	tva19, ok := rules["TVA19"]
	if !ok {
		return errors.New("seed rule TVA19 missing")
	}

	now := time.Now().UTC()
	runningTotal := taxengine.BaseRunningTotal
	group := taxdomain.TaxGroup{
		ID:        node.Generate(),
		Name:      defaultGroupName,
		IsEnabled: true,
		Members: []taxdomain.TaxGroupMember{
			{
				ID:        node.Generate(),
				RuleID:    fodec.ID,
				Position:  0,
				CreatedAt: now,
			},
			{
				ID:           node.Generate(),
				RuleID:       tva19.ID,
				Position:     1,
				BaseOverride: &runningTotal,
				CreatedAt:    now,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	return tx.WithContext(ctx).Create(&group).Error
}
