package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/facturio/facturio/internal/document/domain"
)

type repository struct{}

func NewRepository() domain.Repository {
	return &repository{}
}

func (r *repository) Insert(ctx context.Context, db *gorm.DB, doc *domain.Document) error {
	return db.WithContext(ctx).Create(doc).Error
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Document, error) {
	var doc domain.Document
	err := db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func (r *repository) List(ctx context.Context, db *gorm.DB, filter domain.ListDocumentRequest) ([]domain.Document, error) {
	var items []domain.Document
	stmt := db.WithContext(ctx).Model(&domain.Document{})

	if filter.Type != "" {
		stmt = stmt.Where("document_type = ?", filter.Type)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}

	if err := stmt.Order("created_at DESC, id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Update(ctx context.Context, db *gorm.DB, doc *domain.Document) error {
	return db.WithContext(ctx).Exec(
		`UPDATE documents
		 SET status = ?, currency = ?, subtotal_amount = ?, tax_amount = ?, total_amount = ?,
		     issued_at = ?, due_at = ?, paid_at = ?, updated_at = ?
		 WHERE id = ?`,
		doc.Status,
		doc.Currency,
		doc.SubtotalAmount,
		doc.TaxAmount,
		doc.TotalAmount,
		doc.IssuedAt,
		doc.DueAt,
		doc.PaidAt,
		doc.UpdatedAt,
		doc.ID,
	).Error
}

func (r *repository) InsertLine(ctx context.Context, db *gorm.DB, line *domain.DocumentLine) error {
	return db.WithContext(ctx).Create(line).Error
}

func (r *repository) FindLine(ctx context.Context, db *gorm.DB, documentID, lineID snowflake.ID) (*domain.DocumentLine, error) {
	var line domain.DocumentLine
	err := db.WithContext(ctx).
		First(&line, "id = ? AND document_id = ?", lineID, documentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &line, nil
}

func (r *repository) ListLines(ctx context.Context, db *gorm.DB, documentID snowflake.ID) ([]domain.DocumentLine, error) {
	var lines []domain.DocumentLine
	err := db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("position ASC, id ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repository) UpdateLine(ctx context.Context, db *gorm.DB, line *domain.DocumentLine) error {
	return db.WithContext(ctx).Exec(
		`UPDATE document_lines
		 SET description = ?, quantity = ?, unit_amount = ?, discount_percent = ?,
		     pre_tax_amount = ?, post_tax_amount = ?, updated_at = ?
		 WHERE id = ? AND document_id = ?`,
		line.Description,
		line.Quantity,
		line.UnitAmount,
		line.DiscountPercent,
		line.PreTaxAmount,
		line.PostTaxAmount,
		line.UpdatedAt,
		line.ID,
		line.DocumentID,
	).Error
}

func (r *repository) DeleteLine(ctx context.Context, db *gorm.DB, documentID, lineID snowflake.ID) error {
	return db.WithContext(ctx).
		Where("id = ? AND document_id = ?", lineID, documentID).
		Delete(&domain.DocumentLine{}).Error
}

func (r *repository) ListLineTaxes(ctx context.Context, db *gorm.DB, documentID snowflake.ID) ([]domain.DocumentLineTax, error) {
	var taxes []domain.DocumentLineTax
	err := db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("line_id ASC, position ASC").
		Find(&taxes).Error
	if err != nil {
		return nil, err
	}
	return taxes, nil
}

func (r *repository) ListTaxLines(ctx context.Context, db *gorm.DB, documentID snowflake.ID) ([]domain.DocumentTaxLine, error) {
	var taxes []domain.DocumentTaxLine
	err := db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("position ASC").
		Find(&taxes).Error
	if err != nil {
		return nil, err
	}
	return taxes, nil
}

// ReplaceComputedState swaps all derived tax rows of a document in one
// shot. Callers run it inside the same transaction that updates the line
// and document amounts.
func (r *repository) ReplaceComputedState(ctx context.Context, db *gorm.DB, documentID snowflake.ID, lineTaxes []domain.DocumentLineTax, taxLines []domain.DocumentTaxLine) error {
	tx := db.WithContext(ctx)
	if err := tx.Where("document_id = ?", documentID).Delete(&domain.DocumentLineTax{}).Error; err != nil {
		return err
	}
	if err := tx.Where("document_id = ?", documentID).Delete(&domain.DocumentTaxLine{}).Error; err != nil {
		return err
	}
	if len(lineTaxes) > 0 {
		if err := tx.Create(&lineTaxes).Error; err != nil {
			return err
		}
	}
	if len(taxLines) > 0 {
		if err := tx.Create(&taxLines).Error; err != nil {
			return err
		}
	}
	return nil
}
