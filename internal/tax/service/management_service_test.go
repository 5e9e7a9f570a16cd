package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	taxdomain "github.com/facturio/facturio/internal/tax/domain"
	"github.com/facturio/facturio/internal/tax/repository"
	"github.com/facturio/facturio/internal/taxengine"
)

func newTestService(t *testing.T) (*Service, taxdomain.SnapshotProvider) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&taxdomain.TaxRule{},
		&taxdomain.TaxGroup{},
		&taxdomain.TaxGroupMember{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	repo := repository.NewRepository(db)
	log := zaptest.NewLogger(t)
	svc := &Service{
		log:   log,
		genID: node,
		repo:  repo,
	}
	provider := &snapshotProvider{log: log, repo: repo}
	return svc, provider
}

func ratePtr(f float64) *float64 { return &f }
func amountPtr(i int64) *int64   { return &i }

func TestCreateRuleValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	resp, err := svc.CreateRule(ctx, taxdomain.CreateRuleRequest{
		Code:       "TVA19",
		Name:       "TVA 19%",
		Kind:       taxengine.KindPercentage,
		Rate:       ratePtr(19),
		ApplyOrder: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, taxengine.BaseRawSubtotal, resp.Base)
	assert.Equal(t, taxdomain.TaxScopeProduct, resp.Scope)
	assert.True(t, resp.IsEnabled)

	// Same code again collides.
	_, err = svc.CreateRule(ctx, taxdomain.CreateRuleRequest{
		Code: "TVA19",
		Name: "TVA 19% bis",
		Kind: taxengine.KindPercentage,
		Rate: ratePtr(19),
	})
	assert.ErrorIs(t, err, taxdomain.ErrDuplicateTaxCode)

	// A percentage rule needs a rate, not an amount.
	_, err = svc.CreateRule(ctx, taxdomain.CreateRuleRequest{
		Code: "BROKEN1",
		Name: "Broken",
		Kind: taxengine.KindPercentage,
	})
	assert.ErrorIs(t, err, taxdomain.ErrInvalidTaxRate)

	_, err = svc.CreateRule(ctx, taxdomain.CreateRuleRequest{
		Code:   "BROKEN2",
		Name:   "Broken",
		Kind:   taxengine.KindPercentage,
		Rate:   ratePtr(19),
		Amount: amountPtr(100),
	})
	assert.ErrorIs(t, err, taxdomain.ErrInvalidTaxAmount)

	// A fixed rule needs an amount, not a rate.
	_, err = svc.CreateRule(ctx, taxdomain.CreateRuleRequest{
		Code: "BROKEN3",
		Name: "Broken",
		Kind: taxengine.KindFixed,
	})
	assert.ErrorIs(t, err, taxdomain.ErrInvalidTaxAmount)

	_, err = svc.CreateRule(ctx, taxdomain.CreateRuleRequest{
		Code: "BROKEN4",
		Name: "Broken",
		Kind: "flat",
	})
	assert.ErrorIs(t, err, taxdomain.ErrInvalidTaxKind)
}

func TestDisableRule(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRule(ctx, taxdomain.CreateRuleRequest{
		Code: "FODEC",
		Name: "FODEC 1%",
		Kind: taxengine.KindPercentage,
		Rate: ratePtr(1),
	})
	require.NoError(t, err)

	disabled, err := svc.DisableRule(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, disabled.IsEnabled)

	// The rule row survives; stored documents keep referencing it.
	enabled := false
	rules, err := svc.ListRules(ctx, taxdomain.ListRulesRequest{IsEnabled: &enabled})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "FODEC", rules[0].Code)

	_, err = svc.DisableRule(ctx, "not-a-snowflake")
	assert.ErrorIs(t, err, taxdomain.ErrInvalidID)
}

func TestGroupLifecycleAndSnapshot(t *testing.T) {
	svc, provider := newTestService(t)
	ctx := context.Background()

	fodec, err := svc.CreateRule(ctx, taxdomain.CreateRuleRequest{
		Code:       "FODEC",
		Name:       "FODEC 1%",
		Kind:       taxengine.KindPercentage,
		Rate:       ratePtr(1),
		ApplyOrder: 10,
	})
	require.NoError(t, err)

	tva, err := svc.CreateRule(ctx, taxdomain.CreateRuleRequest{
		Code:       "TVA19",
		Name:       "TVA 19%",
		Kind:       taxengine.KindPercentage,
		Rate:       ratePtr(19),
		ApplyOrder: 20,
	})
	require.NoError(t, err)

	stamp, err := svc.CreateRule(ctx, taxdomain.CreateRuleRequest{
		Code:          "TIMBRE",
		Name:          "Droit de timbre",
		Kind:          taxengine.KindFixed,
		Amount:        amountPtr(100),
		Scope:         taxdomain.TaxScopeDocument,
		ApplyOrder:    100,
		DocumentTypes: []taxengine.DocumentType{taxengine.DocumentTypeInvoice},
	})
	require.NoError(t, err)

	runningTotal := taxengine.BaseRunningTotal
	group, err := svc.CreateGroup(ctx, taxdomain.CreateGroupRequest{
		Name: "FODEC + TVA 19%",
		Members: []taxdomain.GroupMemberRequest{
			{RuleID: fodec.ID},
			{RuleID: tva.ID, BaseOverride: &runningTotal},
		},
	})
	require.NoError(t, err)
	require.Len(t, group.Members, 2)
	assert.Equal(t, 0, group.Members[0].Position)
	assert.Equal(t, "FODEC 1%", group.Members[0].RuleName)

	// An unknown member rule is rejected.
	_, err = svc.CreateGroup(ctx, taxdomain.CreateGroupRequest{
		Name:    "Broken",
		Members: []taxdomain.GroupMemberRequest{{RuleID: "123456789"}},
	})
	assert.ErrorIs(t, err, taxdomain.ErrInvalidMember)

	// The snapshot carries the group with its overrides and splits
	// document-scope rules out for the aggregation pass.
	snap, err := provider.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Snapshot.Rules, 3)
	require.Len(t, snap.DocumentRules, 1)
	assert.Equal(t, stamp.ID, snap.DocumentRules[0].ID.String())
	assert.Equal(t, "Droit de timbre", snap.DocumentRules[0].Name)

	groupID, err := snowflake.ParseString(group.ID)
	require.NoError(t, err)
	rules, warnings := snap.Snapshot.GroupRules(groupID)
	require.Empty(t, warnings)
	require.Len(t, rules, 2)
	assert.Equal(t, taxengine.BaseRawSubtotal, rules[0].Base)
	assert.Equal(t, taxengine.BaseRunningTotal, rules[1].Base)

	// Disabling the group makes it warn instead of resolving.
	_, err = svc.DisableGroup(ctx, group.ID)
	require.NoError(t, err)

	snap, err = provider.Load(ctx)
	require.NoError(t, err)
	_, warnings = snap.Snapshot.GroupRules(groupID)
	require.Len(t, warnings, 1)
	assert.Equal(t, taxengine.WarnGroupInactive, warnings[0].Code)
}

func TestUpdateGroupReplacesMembers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tva, err := svc.CreateRule(ctx, taxdomain.CreateRuleRequest{
		Code: "TVA19",
		Name: "TVA 19%",
		Kind: taxengine.KindPercentage,
		Rate: ratePtr(19),
	})
	require.NoError(t, err)
	tva7, err := svc.CreateRule(ctx, taxdomain.CreateRuleRequest{
		Code: "TVA7",
		Name: "TVA 7%",
		Kind: taxengine.KindPercentage,
		Rate: ratePtr(7),
	})
	require.NoError(t, err)

	group, err := svc.CreateGroup(ctx, taxdomain.CreateGroupRequest{
		Name:    "Standard",
		Members: []taxdomain.GroupMemberRequest{{RuleID: tva.ID}},
	})
	require.NoError(t, err)

	newMembers := []taxdomain.GroupMemberRequest{{RuleID: tva7.ID}}
	updated, err := svc.UpdateGroup(ctx, taxdomain.UpdateGroupRequest{
		ID:      group.ID,
		Members: &newMembers,
	})
	require.NoError(t, err)
	require.Len(t, updated.Members, 1)
	assert.Equal(t, tva7.ID, updated.Members[0].RuleID)

	groups, err := svc.ListGroups(ctx, taxdomain.ListGroupsRequest{Name: "Standard"})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Members, 1)
	assert.Equal(t, tva7.ID, groups[0].Members[0].RuleID)
}
