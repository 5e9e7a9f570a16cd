package service

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/facturio/facturio/internal/config"
	"github.com/facturio/facturio/internal/document/domain"
	"github.com/facturio/facturio/internal/document/repository"
	"github.com/facturio/facturio/internal/metrics"
	productdomain "github.com/facturio/facturio/internal/product/domain"
	productrepo "github.com/facturio/facturio/internal/product/repository"
	taxdomain "github.com/facturio/facturio/internal/tax/domain"
	"github.com/facturio/facturio/internal/taxengine"
)

// Registering prometheus collectors twice panics, so all tests share one
// metrics set.
var testMetrics = metrics.NewBilling()

const (
	vatRuleID   = snowflake.ID(1001)
	stampRuleID = snowflake.ID(1002)
	vatGroupID  = snowflake.ID(2001)
)

type staticProvider struct {
	cfg *taxdomain.ConfigSnapshot
}

func (p *staticProvider) Load(ctx context.Context) (*taxdomain.ConfigSnapshot, error) {
	return p.cfg, nil
}

// testConfig is a Tunisian-flavoured setup: a 19% VAT group plus a fixed
// stamp duty of 100 cents charged once per invoice.
func testConfig() *taxdomain.ConfigSnapshot {
	stamp := taxengine.Rule{
		ID:            stampRuleID,
		Name:          "Stamp duty",
		Kind:          taxengine.KindFixed,
		Amount:        100,
		Order:         100,
		DocumentTypes: []taxengine.DocumentType{taxengine.DocumentTypeInvoice},
		Active:        true,
	}
	return &taxdomain.ConfigSnapshot{
		Snapshot: taxengine.Snapshot{
			Rules: map[snowflake.ID]taxengine.Rule{
				vatRuleID: {
					ID:     vatRuleID,
					Name:   "VAT 19%",
					Kind:   taxengine.KindPercentage,
					Rate:   19,
					Base:   taxengine.BaseRawSubtotal,
					Order:  10,
					Active: true,
				},
				stampRuleID: stamp,
			},
			Groups: map[snowflake.ID]taxengine.Group{
				vatGroupID: {
					ID:      vatGroupID,
					Name:    "VAT 19",
					Active:  true,
					Members: []taxengine.GroupMember{{RuleID: vatRuleID}},
				},
			},
		},
		DocumentRules: []taxengine.Rule{stamp},
	}
}

func newTestService(t *testing.T, cfg *taxdomain.ConfigSnapshot) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Document{},
		&domain.DocumentLine{},
		&domain.DocumentLineTax{},
		&domain.DocumentTaxLine{},
		&productdomain.Product{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	defaults, err := config.NewBillingDefaultsHolder()
	require.NoError(t, err)

	return &Service{
		log:       zaptest.NewLogger(t),
		genID:     node,
		db:        db,
		repo:      repository.NewRepository(),
		products:  productrepo.Provide(db),
		snapshots: &staticProvider{cfg: cfg},
		defaults:  defaults,
		metrics:   testMetrics,
	}, db
}

func seedProduct(t *testing.T, db *gorm.DB, unitPrice int64, groupID *snowflake.ID) productdomain.Product {
	t.Helper()
	node, _ := snowflake.NewNode(2)
	product := productdomain.Product{
		ID:         node.Generate(),
		Name:       "Widget",
		Reference:  fmt.Sprintf("SKU-%s", node.Generate()),
		UnitPrice:  unitPrice,
		TaxGroupID: groupID,
		Metadata:   datatypes.JSONMap{},
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func strptr(s string) *string { return &s }

func TestInvoiceLifecycle(t *testing.T) {
	svc, db := newTestService(t, testConfig())
	ctx := context.Background()

	groupID := vatGroupID
	product := seedProduct(t, db, 50000, &groupID)

	doc, err := svc.Create(ctx, domain.CreateDocumentRequest{Type: taxengine.DocumentTypeInvoice})
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentStatusDraft, doc.Status)
	assert.Equal(t, "TND", doc.Currency)
	assert.NotNil(t, doc.DueAt)

	doc, err = svc.AddLine(ctx, domain.AddLineRequest{
		DocumentID: doc.ID,
		ProductID:  strptr(product.ID.String()),
		Quantity:   2,
	})
	require.NoError(t, err)
	require.Len(t, doc.Lines, 1)

	line := doc.Lines[0]
	assert.Equal(t, int64(50000), line.UnitPrice)
	assert.Equal(t, "Widget", line.Description)
	assert.Equal(t, int64(100000), line.PreTaxAmount)
	require.Len(t, line.TaxBreakdown, 1)
	assert.Equal(t, int64(19000), line.TaxBreakdown[0].Amount)
	assert.Equal(t, int64(119000), line.PostTaxAmount)

	// Subtotal 100000, VAT 19000 plus the fixed stamp duty once.
	assert.Equal(t, int64(100000), doc.Totals.Subtotal)
	assert.Equal(t, int64(19100), doc.Totals.TotalTaxes)
	assert.Equal(t, int64(119100), doc.Totals.GrandTotal)
	require.Len(t, doc.Totals.TaxSummary, 2)
	assert.Equal(t, taxengine.SourceProduct, doc.Totals.TaxSummary[0].Source)
	assert.Equal(t, taxengine.SourceDocument, doc.Totals.TaxSummary[1].Source)
	assert.Equal(t, "Stamp duty", doc.Totals.TaxSummary[1].Name)

	doc, err = svc.UpdateLine(ctx, domain.UpdateLineRequest{
		DocumentID: doc.ID,
		LineID:     line.ID,
		Quantity:   float64ptr(1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(50000), doc.Totals.Subtotal)
	assert.Equal(t, int64(59600), doc.Totals.GrandTotal)

	doc, err = svc.UpdateStatus(ctx, domain.UpdateStatusRequest{ID: doc.ID, Status: domain.DocumentStatusIssued})
	require.NoError(t, err)
	assert.NotNil(t, doc.IssuedAt)

	doc, err = svc.UpdateStatus(ctx, domain.UpdateStatusRequest{ID: doc.ID, Status: domain.DocumentStatusPaid})
	require.NoError(t, err)
	assert.NotNil(t, doc.PaidAt)

	_, err = svc.AddLine(ctx, domain.AddLineRequest{
		DocumentID: doc.ID,
		ProductID:  strptr(product.ID.String()),
		Quantity:   1,
	})
	assert.ErrorIs(t, err, domain.ErrDocumentImmutable)

	_, err = svc.UpdateStatus(ctx, domain.UpdateStatusRequest{ID: doc.ID, Status: domain.DocumentStatusIssued})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestRemoveLineRecomputes(t *testing.T) {
	svc, db := newTestService(t, testConfig())
	ctx := context.Background()

	groupID := vatGroupID
	product := seedProduct(t, db, 10000, &groupID)

	doc, err := svc.Create(ctx, domain.CreateDocumentRequest{Type: taxengine.DocumentTypeInvoice})
	require.NoError(t, err)
	doc, err = svc.AddLine(ctx, domain.AddLineRequest{
		DocumentID: doc.ID,
		ProductID:  strptr(product.ID.String()),
		Quantity:   1,
	})
	require.NoError(t, err)
	require.Len(t, doc.Lines, 1)

	doc, err = svc.RemoveLine(ctx, doc.ID, doc.Lines[0].ID)
	require.NoError(t, err)
	assert.Empty(t, doc.Lines)
	assert.Equal(t, int64(0), doc.Totals.Subtotal)
	// Document-level fixed taxes still apply to an empty invoice.
	assert.Equal(t, int64(100), doc.Totals.GrandTotal)
}

func TestAddLineValidation(t *testing.T) {
	svc, _ := newTestService(t, testConfig())
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateDocumentRequest{Type: taxengine.DocumentTypeCreditNote})
	assert.ErrorIs(t, err, domain.ErrInvalidDocumentType)

	doc, err := svc.Create(ctx, domain.CreateDocumentRequest{Type: taxengine.DocumentTypeInvoice})
	require.NoError(t, err)

	unit := int64(1000)
	_, err = svc.AddLine(ctx, domain.AddLineRequest{DocumentID: doc.ID, UnitPrice: &unit, Quantity: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = svc.AddLine(ctx, domain.AddLineRequest{DocumentID: doc.ID, UnitPrice: &unit, Quantity: math.NaN()})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = svc.AddLine(ctx, domain.AddLineRequest{DocumentID: doc.ID, UnitPrice: &unit, Quantity: 1, DiscountPercent: 150})
	assert.ErrorIs(t, err, domain.ErrInvalidDiscount)

	_, err = svc.AddLine(ctx, domain.AddLineRequest{DocumentID: doc.ID, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidUnitPrice)

	negative := int64(-5)
	_, err = svc.AddLine(ctx, domain.AddLineRequest{DocumentID: doc.ID, UnitPrice: &negative, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidUnitPrice)

	_, err = svc.AddLine(ctx, domain.AddLineRequest{DocumentID: "999999999999", UnitPrice: &unit, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductSnapshotIsFrozen(t *testing.T) {
	svc, db := newTestService(t, testConfig())
	ctx := context.Background()

	groupID := vatGroupID
	product := seedProduct(t, db, 10000, &groupID)

	doc, err := svc.Create(ctx, domain.CreateDocumentRequest{Type: taxengine.DocumentTypeInvoice})
	require.NoError(t, err)
	doc, err = svc.AddLine(ctx, domain.AddLineRequest{
		DocumentID: doc.ID,
		ProductID:  strptr(product.ID.String()),
		Quantity:   1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10000), doc.Totals.Subtotal)

	// A later product price change never retro-applies to the document.
	require.NoError(t, db.Model(&productdomain.Product{}).
		Where("id = ?", product.ID).
		Update("unit_price", 99999).Error)

	doc, err = svc.RefreshTotals(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), doc.Totals.Subtotal)
	assert.Equal(t, int64(10000), doc.Lines[0].UnitPrice)
}

func TestCreateCreditNote(t *testing.T) {
	svc, db := newTestService(t, testConfig())
	ctx := context.Background()

	groupID := vatGroupID
	product := seedProduct(t, db, 10000, &groupID)

	invoice, err := svc.Create(ctx, domain.CreateDocumentRequest{Type: taxengine.DocumentTypeInvoice})
	require.NoError(t, err)
	invoice, err = svc.AddLine(ctx, domain.AddLineRequest{
		DocumentID: invoice.ID,
		ProductID:  strptr(product.ID.String()),
		Quantity:   3,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(35800), invoice.Totals.GrandTotal)

	// Draft invoices cannot be credited.
	_, err = svc.CreateCreditNote(ctx, invoice.ID)
	assert.ErrorIs(t, err, domain.ErrNotCreditable)

	invoice, err = svc.UpdateStatus(ctx, domain.UpdateStatusRequest{ID: invoice.ID, Status: domain.DocumentStatusIssued})
	require.NoError(t, err)

	creditNote, err := svc.CreateCreditNote(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, taxengine.DocumentTypeCreditNote, creditNote.Type)
	assert.Equal(t, domain.DocumentStatusDraft, creditNote.Status)
	require.NotNil(t, creditNote.SourceDocumentID)
	assert.Equal(t, invoice.ID, *creditNote.SourceDocumentID)

	// The credit note is the exact negation, fixed stamp duty included.
	assert.Equal(t, int64(-30000), creditNote.Totals.Subtotal)
	assert.Equal(t, int64(-5800), creditNote.Totals.TotalTaxes)
	assert.Equal(t, int64(-35800), creditNote.Totals.GrandTotal)
	require.Len(t, creditNote.Lines, 1)
	assert.Equal(t, float64(-3), creditNote.Lines[0].Quantity)
	assert.NotEqual(t, invoice.Lines[0].ID, creditNote.Lines[0].ID)

	// The source invoice is untouched.
	invoice, err = svc.GetByID(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(35800), invoice.Totals.GrandTotal)

	// Quotes cannot be credited.
	quote, err := svc.Create(ctx, domain.CreateDocumentRequest{Type: taxengine.DocumentTypeQuote})
	require.NoError(t, err)
	_, err = svc.CreateCreditNote(ctx, quote.ID)
	assert.ErrorIs(t, err, domain.ErrNotCreditable)
}

func TestConvertQuote(t *testing.T) {
	svc, db := newTestService(t, testConfig())
	ctx := context.Background()

	groupID := vatGroupID
	product := seedProduct(t, db, 25000, &groupID)

	quote, err := svc.Create(ctx, domain.CreateDocumentRequest{Type: taxengine.DocumentTypeQuote})
	require.NoError(t, err)
	quote, err = svc.AddLine(ctx, domain.AddLineRequest{
		DocumentID: quote.ID,
		ProductID:  strptr(product.ID.String()),
		Quantity:   2,
	})
	require.NoError(t, err)
	// Stamp duty is invoice-only, so the quote carries VAT alone.
	assert.Equal(t, int64(59500), quote.Totals.GrandTotal)

	invoice, err := svc.ConvertQuote(ctx, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, taxengine.DocumentTypeInvoice, invoice.Type)
	assert.Equal(t, domain.DocumentStatusDraft, invoice.Status)
	require.NotNil(t, invoice.SourceDocumentID)
	assert.Equal(t, quote.ID, *invoice.SourceDocumentID)
	assert.NotNil(t, invoice.DueAt)

	// Same lines with fresh identifiers, invoice-only rules now apply.
	require.Len(t, invoice.Lines, 1)
	assert.NotEqual(t, quote.Lines[0].ID, invoice.Lines[0].ID)
	assert.Equal(t, int64(59600), invoice.Totals.GrandTotal)

	cancelled, err := svc.Create(ctx, domain.CreateDocumentRequest{Type: taxengine.DocumentTypeQuote})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, domain.UpdateStatusRequest{ID: cancelled.ID, Status: domain.DocumentStatusCancelled})
	require.NoError(t, err)
	_, err = svc.ConvertQuote(ctx, cancelled.ID)
	assert.ErrorIs(t, err, domain.ErrNotConvertible)

	_, err = svc.ConvertQuote(ctx, invoice.ID)
	assert.ErrorIs(t, err, domain.ErrNotConvertible)
}

func TestRefreshTotalsAfterConfigChange(t *testing.T) {
	cfg := testConfig()
	svc, db := newTestService(t, cfg)
	ctx := context.Background()

	groupID := vatGroupID
	product := seedProduct(t, db, 10000, &groupID)

	doc, err := svc.Create(ctx, domain.CreateDocumentRequest{Type: taxengine.DocumentTypeInvoice})
	require.NoError(t, err)
	doc, err = svc.AddLine(ctx, domain.AddLineRequest{
		DocumentID: doc.ID,
		ProductID:  strptr(product.ID.String()),
		Quantity:   1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12000), doc.Totals.GrandTotal)

	vat := cfg.Snapshot.Rules[vatRuleID]
	vat.Rate = 7
	vat.Name = "VAT 7%"
	cfg.Snapshot.Rules[vatRuleID] = vat

	doc, err = svc.RefreshTotals(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10800), doc.Totals.GrandTotal)
	assert.Empty(t, doc.Warnings)

	// A vanished group degrades to a warning, never an error.
	delete(cfg.Snapshot.Groups, vatGroupID)
	doc, err = svc.RefreshTotals(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, doc.Warnings, 1)
	assert.Equal(t, taxengine.WarnGroupNotFound, doc.Warnings[0].Code)
	assert.Equal(t, int64(10100), doc.Totals.GrandTotal)
}

func float64ptr(f float64) *float64 { return &f }
