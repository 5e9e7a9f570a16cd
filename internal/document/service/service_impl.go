package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/facturio/facturio/internal/config"
	"github.com/facturio/facturio/internal/document/domain"
	"github.com/facturio/facturio/internal/metrics"
	productdomain "github.com/facturio/facturio/internal/product/domain"
	taxdomain "github.com/facturio/facturio/internal/tax/domain"
	"github.com/facturio/facturio/internal/taxengine"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	GenID     *snowflake.Node
	DB        *gorm.DB
	Repo      domain.Repository
	Products  productdomain.Repository
	Snapshots taxdomain.SnapshotProvider
	Defaults  *config.BillingDefaultsHolder
	Metrics   *metrics.Billing
}

type Service struct {
	log       *zap.Logger
	genID     *snowflake.Node
	db        *gorm.DB
	repo      domain.Repository
	products  productdomain.Repository
	snapshots taxdomain.SnapshotProvider
	defaults  *config.BillingDefaultsHolder
	metrics   *metrics.Billing
}

func New(p Params) domain.Service {
	return &Service{
		log:       p.Log.Named("document.service"),
		genID:     p.GenID,
		db:        p.DB,
		repo:      p.Repo,
		products:  p.Products,
		snapshots: p.Snapshots,
		defaults:  p.Defaults,
		metrics:   p.Metrics,
	}
}

var creatableTypes = map[taxengine.DocumentType]struct{}{
	taxengine.DocumentTypeInvoice:       {},
	taxengine.DocumentTypeQuote:         {},
	taxengine.DocumentTypeDeliveryNote:  {},
	taxengine.DocumentTypePurchaseOrder: {},
}

func (s *Service) Create(ctx context.Context, req domain.CreateDocumentRequest) (*domain.DocumentResponse, error) {
	// Credit notes are derived from invoices, never created directly.
	if _, ok := creatableTypes[req.Type]; !ok {
		return nil, domain.ErrInvalidDocumentType
	}

	customerID, err := parseOptionalID(req.CustomerID)
	if err != nil {
		return nil, err
	}
	supplierID, err := parseOptionalID(req.SupplierID)
	if err != nil {
		return nil, err
	}

	defaults := s.defaults.Get()
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = defaults.Currency
	}

	now := time.Now().UTC()
	doc := domain.Document{
		ID:         s.genID.Generate(),
		Type:       req.Type,
		Status:     domain.DocumentStatusDraft,
		Currency:   currency,
		CustomerID: customerID,
		SupplierID: supplierID,
		Metadata:   datatypes.JSONMap{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	switch req.Type {
	case taxengine.DocumentTypeInvoice:
		due := now.AddDate(0, 0, defaults.InvoiceDueDays)
		doc.DueAt = &due
	case taxengine.DocumentTypeQuote:
		due := now.AddDate(0, 0, defaults.QuoteValidityDays)
		doc.DueAt = &due
	}

	if err := s.repo.Insert(ctx, s.db, &doc); err != nil {
		return nil, err
	}

	s.metrics.DocumentsCreated.WithLabelValues(string(doc.Type)).Inc()
	s.log.Info("document created",
		zap.String("document_id", doc.ID.String()),
		zap.String("document_type", string(doc.Type)),
	)
	return s.respond(ctx, &doc, nil)
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.DocumentResponse, error) {
	doc, err := s.findDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, doc, nil)
}

func (s *Service) List(ctx context.Context, req domain.ListDocumentRequest) ([]domain.DocumentResponse, error) {
	docs, err := s.repo.List(ctx, s.db, req)
	if err != nil {
		return nil, err
	}

	out := make([]domain.DocumentResponse, 0, len(docs))
	for i := range docs {
		resp, err := s.respond(ctx, &docs[i], nil)
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return out, nil
}

func (s *Service) AddLine(ctx context.Context, req domain.AddLineRequest) (*domain.DocumentResponse, error) {
	doc, err := s.findDocument(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}
	if doc.Status.Terminal() {
		return nil, domain.ErrDocumentImmutable
	}
	if err := validateQuantity(req.Quantity, doc.Type); err != nil {
		return nil, err
	}
	if err := validateDiscount(req.DiscountPercent); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	line := domain.DocumentLine{
		ID:              s.genID.Generate(),
		DocumentID:      doc.ID,
		Description:     strings.TrimSpace(req.Description),
		Quantity:        req.Quantity,
		DiscountPercent: req.DiscountPercent,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if req.ProductID != nil {
		productID, err := parseOptionalID(req.ProductID)
		if err != nil {
			return nil, err
		}
		if productID == nil {
			return nil, domain.ErrInvalidID
		}
		product, err := s.products.FindByID(ctx, *productID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, productdomain.ErrNotFound
		}
		// Snapshot the fiscal attributes at the time the line is added;
		// later product edits never retro-apply to existing documents.
		line.ProductID = &product.ID
		line.UnitAmount = product.UnitPrice
		line.TaxGroupID = product.TaxGroupID
		line.DefaultRate = product.DefaultRate
		if line.Description == "" {
			line.Description = product.Name
		}
	}
	if req.UnitPrice != nil {
		line.UnitAmount = *req.UnitPrice
	}
	if line.UnitAmount < 0 {
		return nil, domain.ErrInvalidUnitPrice
	}
	if req.ProductID == nil && req.UnitPrice == nil {
		return nil, domain.ErrInvalidUnitPrice
	}

	var result *taxengine.Result
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count := tx.Model(&domain.DocumentLine{}).Where("document_id = ?", doc.ID)
		var n int64
		if err := count.Count(&n).Error; err != nil {
			return err
		}
		line.Position = int(n)

		if err := s.repo.InsertLine(ctx, tx, &line); err != nil {
			return err
		}
		result, err = s.recompute(ctx, tx, doc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, doc, result)
}

func (s *Service) UpdateLine(ctx context.Context, req domain.UpdateLineRequest) (*domain.DocumentResponse, error) {
	doc, err := s.findDocument(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}
	if doc.Status.Terminal() {
		return nil, domain.ErrDocumentImmutable
	}

	lineID, err := snowflake.ParseString(strings.TrimSpace(req.LineID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	line, err := s.repo.FindLine(ctx, s.db, doc.ID, lineID)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, domain.ErrLineNotFound
	}

	if req.Quantity != nil {
		if err := validateQuantity(*req.Quantity, doc.Type); err != nil {
			return nil, err
		}
		line.Quantity = *req.Quantity
	}
	if req.UnitPrice != nil {
		if *req.UnitPrice < 0 {
			return nil, domain.ErrInvalidUnitPrice
		}
		line.UnitAmount = *req.UnitPrice
	}
	if req.DiscountPercent != nil {
		if err := validateDiscount(*req.DiscountPercent); err != nil {
			return nil, err
		}
		line.DiscountPercent = *req.DiscountPercent
	}
	line.UpdatedAt = time.Now().UTC()

	var result *taxengine.Result
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.UpdateLine(ctx, tx, line); err != nil {
			return err
		}
		result, err = s.recompute(ctx, tx, doc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, doc, result)
}

func (s *Service) RemoveLine(ctx context.Context, documentID, lineID string) (*domain.DocumentResponse, error) {
	doc, err := s.findDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status.Terminal() {
		return nil, domain.ErrDocumentImmutable
	}

	parsedLineID, err := snowflake.ParseString(strings.TrimSpace(lineID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	line, err := s.repo.FindLine(ctx, s.db, doc.ID, parsedLineID)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, domain.ErrLineNotFound
	}

	var result *taxengine.Result
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.DeleteLine(ctx, tx, doc.ID, parsedLineID); err != nil {
			return err
		}
		result, err = s.recompute(ctx, tx, doc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, doc, result)
}

func (s *Service) RefreshTotals(ctx context.Context, id string) (*domain.DocumentResponse, error) {
	doc, err := s.findDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status.Terminal() {
		return nil, domain.ErrDocumentImmutable
	}

	var result *taxengine.Result
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result, err = s.recompute(ctx, tx, doc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, doc, result)
}

func (s *Service) UpdateStatus(ctx context.Context, req domain.UpdateStatusRequest) (*domain.DocumentResponse, error) {
	doc, err := s.findDocument(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if !validTransition(doc.Status, req.Status) {
		return nil, domain.ErrInvalidTransition
	}

	now := time.Now().UTC()
	doc.Status = req.Status
	doc.UpdatedAt = now
	switch req.Status {
	case domain.DocumentStatusIssued:
		doc.IssuedAt = &now
	case domain.DocumentStatusPaid:
		doc.PaidAt = &now
	}

	if err := s.repo.Update(ctx, s.db, doc); err != nil {
		return nil, err
	}
	s.log.Info("document status changed",
		zap.String("document_id", doc.ID.String()),
		zap.String("status", string(doc.Status)),
	)
	return s.respond(ctx, doc, nil)
}

func validTransition(from, to domain.DocumentStatus) bool {
	switch from {
	case domain.DocumentStatusDraft:
		return to == domain.DocumentStatusIssued || to == domain.DocumentStatusCancelled
	case domain.DocumentStatusIssued:
		return to == domain.DocumentStatusPaid || to == domain.DocumentStatusCancelled
	default:
		return false
	}
}

func validateQuantity(q float64, dt taxengine.DocumentType) error {
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return domain.ErrInvalidQuantity
	}
	if q < 0 && dt != taxengine.DocumentTypeCreditNote {
		return domain.ErrInvalidQuantity
	}
	return nil
}

func validateDiscount(d float64) error {
	if math.IsNaN(d) || d < 0 || d > 100 {
		return domain.ErrInvalidDiscount
	}
	return nil
}

func (s *Service) findDocument(ctx context.Context, raw string) (*domain.Document, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	doc, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func parseOptionalID(raw *string) (*snowflake.ID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(strings.TrimSpace(*raw))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	return &id, nil
}
