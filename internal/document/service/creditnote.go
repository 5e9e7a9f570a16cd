package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/facturio/facturio/internal/document/domain"
	"github.com/facturio/facturio/internal/taxengine"
)

// CreateCreditNote derives a credit note (avoir) from an issued or paid
// invoice. Every source line is copied with a fresh identifier and a
// negated quantity, then the tax pipeline re-runs over the negated lines
// with the invoice's rule sets, so fixed taxes negate instead of
// vanishing. The credit note records its own tax state; the source
// invoice is never touched.
func (s *Service) CreateCreditNote(ctx context.Context, sourceID string) (*domain.DocumentResponse, error) {
	source, err := s.findDocument(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if source.Type != taxengine.DocumentTypeInvoice {
		return nil, domain.ErrNotCreditable
	}
	if source.Status != domain.DocumentStatusIssued && source.Status != domain.DocumentStatusPaid {
		return nil, domain.ErrNotCreditable
	}

	sourceLines, err := s.repo.ListLines(ctx, s.db, source.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	creditNote := domain.Document{
		ID:                 s.genID.Generate(),
		Type:               taxengine.DocumentTypeCreditNote,
		Status:             domain.DocumentStatusDraft,
		Currency:           source.Currency,
		CustomerID:         source.CustomerID,
		SupplierID:         source.SupplierID,
		SourceDocumentID:   &source.ID,
		SourceDocumentType: source.Type,
		Metadata:           datatypes.JSONMap{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	var result *taxengine.Result
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &creditNote); err != nil {
			return err
		}
		for i := range sourceLines {
			src := &sourceLines[i]
			line := domain.DocumentLine{
				ID:              s.genID.Generate(),
				DocumentID:      creditNote.ID,
				ProductID:       src.ProductID,
				Description:     src.Description,
				Quantity:        -src.Quantity,
				UnitAmount:      src.UnitAmount,
				DiscountPercent: src.DiscountPercent,
				TaxGroupID:      src.TaxGroupID,
				DefaultRate:     src.DefaultRate,
				Position:        src.Position,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := s.repo.InsertLine(ctx, tx, &line); err != nil {
				return err
			}
		}
		result, err = s.recompute(ctx, tx, &creditNote)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.DocumentsCreated.WithLabelValues(string(creditNote.Type)).Inc()
	s.log.Info("credit note created",
		zap.String("document_id", creditNote.ID.String()),
		zap.String("source_document_id", source.ID.String()),
	)
	return s.respond(ctx, &creditNote, result)
}

// ConvertQuote materializes a draft invoice from a quote. Lines are
// copied with fresh identifiers and totals are recomputed against the
// current configuration, which may differ from what the quote was priced
// with.
func (s *Service) ConvertQuote(ctx context.Context, quoteID string) (*domain.DocumentResponse, error) {
	quote, err := s.findDocument(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.Type != taxengine.DocumentTypeQuote || quote.Status == domain.DocumentStatusCancelled {
		return nil, domain.ErrNotConvertible
	}

	quoteLines, err := s.repo.ListLines(ctx, s.db, quote.ID)
	if err != nil {
		return nil, err
	}

	defaults := s.defaults.Get()
	now := time.Now().UTC()
	due := now.AddDate(0, 0, defaults.InvoiceDueDays)
	invoice := domain.Document{
		ID:                 s.genID.Generate(),
		Type:               taxengine.DocumentTypeInvoice,
		Status:             domain.DocumentStatusDraft,
		Currency:           quote.Currency,
		CustomerID:         quote.CustomerID,
		SupplierID:         quote.SupplierID,
		SourceDocumentID:   &quote.ID,
		SourceDocumentType: quote.Type,
		DueAt:              &due,
		Metadata:           datatypes.JSONMap{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	var result *taxengine.Result
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &invoice); err != nil {
			return err
		}
		for i := range quoteLines {
			src := &quoteLines[i]
			line := domain.DocumentLine{
				ID:              s.genID.Generate(),
				DocumentID:      invoice.ID,
				ProductID:       src.ProductID,
				Description:     src.Description,
				Quantity:        src.Quantity,
				UnitAmount:      src.UnitAmount,
				DiscountPercent: src.DiscountPercent,
				TaxGroupID:      src.TaxGroupID,
				DefaultRate:     src.DefaultRate,
				Position:        src.Position,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := s.repo.InsertLine(ctx, tx, &line); err != nil {
				return err
			}
		}
		result, err = s.recompute(ctx, tx, &invoice)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.DocumentsCreated.WithLabelValues(string(invoice.Type)).Inc()
	s.log.Info("quote converted",
		zap.String("document_id", invoice.ID.String()),
		zap.String("source_document_id", quote.ID.String()),
	)
	return s.respond(ctx, &invoice, result)
}
