package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/facturio/facturio/internal/document/domain"
	"github.com/facturio/facturio/internal/taxengine"
)

// recompute runs the full tax pipeline over a document's current lines
// and persists the derived state: per-line amounts, per-line breakdown
// rows, the document tax summary and the document totals. It must run
// inside the transaction that performed the triggering mutation so a
// failed computation rolls the mutation back too.
func (s *Service) recompute(ctx context.Context, tx *gorm.DB, doc *domain.Document) (*taxengine.Result, error) {
	lines, err := s.repo.ListLines(ctx, tx, doc.ID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.snapshots.Load(ctx)
	if err != nil {
		return nil, err
	}

	engineLines := make([]taxengine.Line, 0, len(lines))
	for i := range lines {
		line := &lines[i]
		var groupID snowflake.ID
		if line.TaxGroupID != nil {
			groupID = *line.TaxGroupID
		}
		engineLines = append(engineLines, taxengine.Line{
			ID:          line.ID,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitAmount,
			Discount:    line.DiscountPercent,
			PreTax:      taxengine.LinePreTax(line.Quantity, line.UnitAmount, line.DiscountPercent),
			TaxGroupID:  groupID,
			DefaultRate: line.DefaultRate,
		})
	}

	var result taxengine.Result
	if doc.Type == taxengine.DocumentTypeCreditNote {
		// Stored credit note lines are already negated; re-aggregate them
		// against the source document's rule sets.
		sourceType := doc.SourceDocumentType
		if sourceType == "" {
			sourceType = taxengine.DocumentTypeInvoice
		}
		result = taxengine.AggregateCreditNote(engineLines, sourceType, cfg.Snapshot, cfg.DocumentRules)
	} else {
		result = taxengine.ComputeTotals(engineLines, doc.Type, cfg.Snapshot, cfg.DocumentRules)
	}

	if err := s.persistComputed(ctx, tx, doc, lines, result); err != nil {
		return nil, err
	}

	s.metrics.Recomputations.WithLabelValues(string(doc.Type)).Inc()
	if len(result.Warnings) > 0 {
		s.metrics.ConfigWarnings.Add(float64(len(result.Warnings)))
		for _, w := range result.Warnings {
			s.log.Warn("tax configuration gap",
				zap.String("document_id", doc.ID.String()),
				zap.String("code", w.Code),
				zap.String("message", w.Message),
			)
		}
	}
	return &result, nil
}

func (s *Service) persistComputed(ctx context.Context, tx *gorm.DB, doc *domain.Document, lines []domain.DocumentLine, result taxengine.Result) error {
	now := time.Now().UTC()

	byLine := make(map[snowflake.ID]taxengine.LineResult, len(result.Lines))
	for _, lr := range result.Lines {
		byLine[lr.LineID] = lr
	}

	var lineTaxes []domain.DocumentLineTax
	for i := range lines {
		line := &lines[i]
		lr, ok := byLine[line.ID]
		if !ok {
			continue
		}
		line.PreTaxAmount = lr.PreTax
		line.PostTaxAmount = lr.PostTax
		line.UpdatedAt = now
		if err := s.repo.UpdateLine(ctx, tx, line); err != nil {
			return err
		}

		for pos, bt := range lr.Breakdown {
			var ruleID *snowflake.ID
			if bt.RuleID != 0 {
				id := bt.RuleID
				ruleID = &id
			}
			lineTaxes = append(lineTaxes, domain.DocumentLineTax{
				ID:         s.genID.Generate(),
				DocumentID: doc.ID,
				LineID:     line.ID,
				RuleID:     ruleID,
				TaxName:    bt.Name,
				TaxRate:    bt.Rate,
				BaseAmount: bt.Base,
				Amount:     bt.Amount,
				Position:   pos,
				CreatedAt:  now,
			})
		}
	}

	taxLines := make([]domain.DocumentTaxLine, 0, len(result.Totals.TaxSummary))
	for pos, entry := range result.Totals.TaxSummary {
		taxLines = append(taxLines, domain.DocumentTaxLine{
			ID:         s.genID.Generate(),
			DocumentID: doc.ID,
			TaxName:    entry.Name,
			TaxRate:    entry.Rate,
			Source:     entry.Source,
			BaseAmount: entry.BaseAmount,
			Amount:     entry.Amount,
			Position:   pos,
			CreatedAt:  now,
		})
	}

	if err := s.repo.ReplaceComputedState(ctx, tx, doc.ID, lineTaxes, taxLines); err != nil {
		return err
	}

	doc.SubtotalAmount = result.Totals.Subtotal
	doc.TaxAmount = result.Totals.TotalTaxes
	doc.TotalAmount = result.Totals.GrandTotal
	doc.UpdatedAt = now
	return s.repo.Update(ctx, tx, doc)
}

// respond assembles the API view of a document from its stored derived
// state. Warnings are attached only on the operation that produced them;
// plain reads return the persisted amounts without re-running the engine.
func (s *Service) respond(ctx context.Context, doc *domain.Document, result *taxengine.Result) (*domain.DocumentResponse, error) {
	lines, err := s.repo.ListLines(ctx, s.db, doc.ID)
	if err != nil {
		return nil, err
	}
	lineTaxes, err := s.repo.ListLineTaxes(ctx, s.db, doc.ID)
	if err != nil {
		return nil, err
	}
	taxLines, err := s.repo.ListTaxLines(ctx, s.db, doc.ID)
	if err != nil {
		return nil, err
	}

	breakdown := make(map[snowflake.ID][]taxengine.TaxLine, len(lines))
	for _, lt := range lineTaxes {
		var ruleID snowflake.ID
		if lt.RuleID != nil {
			ruleID = *lt.RuleID
		}
		breakdown[lt.LineID] = append(breakdown[lt.LineID], taxengine.TaxLine{
			RuleID: ruleID,
			Name:   lt.TaxName,
			Rate:   lt.TaxRate,
			Base:   lt.BaseAmount,
			Amount: lt.Amount,
		})
	}

	lineResponses := make([]domain.LineResponse, 0, len(lines))
	for i := range lines {
		line := &lines[i]
		lineResponses = append(lineResponses, domain.LineResponse{
			ID:              line.ID.String(),
			ProductID:       idString(line.ProductID),
			Description:     line.Description,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitAmount,
			DiscountPercent: line.DiscountPercent,
			TaxGroupID:      idString(line.TaxGroupID),
			DefaultRate:     line.DefaultRate,
			PreTaxAmount:    line.PreTaxAmount,
			TaxBreakdown:    breakdown[line.ID],
			PostTaxAmount:   line.PostTaxAmount,
		})
	}

	summary := make([]taxengine.TaxSummaryEntry, 0, len(taxLines))
	for _, tl := range taxLines {
		summary = append(summary, taxengine.TaxSummaryEntry{
			Name:       tl.TaxName,
			Rate:       tl.TaxRate,
			BaseAmount: tl.BaseAmount,
			Amount:     tl.Amount,
			Source:     tl.Source,
		})
	}

	resp := &domain.DocumentResponse{
		ID:               doc.ID.String(),
		Type:             doc.Type,
		Status:           doc.Status,
		Currency:         doc.Currency,
		CustomerID:       idString(doc.CustomerID),
		SupplierID:       idString(doc.SupplierID),
		SourceDocumentID: idString(doc.SourceDocumentID),
		Lines:            lineResponses,
		Totals: domain.TotalsResponse{
			Subtotal:   doc.SubtotalAmount,
			TaxSummary: summary,
			TotalTaxes: doc.TaxAmount,
			GrandTotal: doc.TotalAmount,
		},
		IssuedAt:  doc.IssuedAt,
		DueAt:     doc.DueAt,
		PaidAt:    doc.PaidAt,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	if result != nil {
		resp.Warnings = result.Warnings
	}
	return resp, nil
}

func idString(id *snowflake.ID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
