// Package domain contains persistence models for commercial documents.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"

	"github.com/facturio/facturio/internal/taxengine"
)

// DocumentStatus represents document lifecycle states.
type DocumentStatus string

const (
	DocumentStatusDraft     DocumentStatus = "DRAFT"
	DocumentStatusIssued    DocumentStatus = "ISSUED"
	DocumentStatusPaid      DocumentStatus = "PAID"
	DocumentStatusCancelled DocumentStatus = "CANCELLED"
)

// Terminal reports whether the status freezes the document: terminal
// documents reject line mutations and totals refreshes.
func (s DocumentStatus) Terminal() bool {
	return s == DocumentStatusPaid || s == DocumentStatusCancelled
}

// Document is a commercial document: invoice, quote, delivery note,
// purchase order or credit note. It owns its lines and computed tax
// state exclusively; nothing here is shared across documents.
type Document struct {
	ID   snowflake.ID           `gorm:"primaryKey"`
	Type taxengine.DocumentType `gorm:"column:document_type;type:text;not null;index"`

	Status   DocumentStatus `gorm:"type:text;not null;default:'DRAFT'"`
	Currency string         `gorm:"type:text;not null"`

	CustomerID *snowflake.ID `gorm:"index"`
	SupplierID *snowflake.ID `gorm:"index"`

	// SourceDocumentID links a credit note or a converted document back
	// to its origin. SourceDocumentType keeps the origin's type so a
	// credit note recomputes against the same rule sets as its source.
	SourceDocumentID   *snowflake.ID          `gorm:"index"`
	SourceDocumentType taxengine.DocumentType `gorm:"column:source_document_type;type:text"`

	SubtotalAmount int64 `gorm:"not null;default:0"`
	TaxAmount      int64 `gorm:"not null;default:0"`
	TotalAmount    int64 `gorm:"not null;default:0"`

	IssuedAt *time.Time `gorm:""`
	DueAt    *time.Time `gorm:""`
	PaidAt   *time.Time `gorm:""`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Document) TableName() string { return "documents" }

// DocumentLine is one line on a document. Pre- and post-tax amounts are
// derived by the tax engine, never set directly by callers. The tax
// group reference and default rate are snapshotted from the product at
// the time the line was added.
type DocumentLine struct {
	ID         snowflake.ID  `gorm:"primaryKey"`
	DocumentID snowflake.ID  `gorm:"not null;index"`
	ProductID  *snowflake.ID `gorm:"index"`

	Description     string  `gorm:"type:text"`
	Quantity        float64 `gorm:"not null"`
	UnitAmount      int64   `gorm:"not null"` // cents
	DiscountPercent float64 `gorm:"not null;default:0"`

	TaxGroupID  *snowflake.ID `gorm:"index"`
	DefaultRate float64       `gorm:"not null;default:0"`

	PreTaxAmount  int64 `gorm:"not null;default:0"`
	PostTaxAmount int64 `gorm:"not null;default:0"`

	Position  int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (DocumentLine) TableName() string { return "document_lines" }

// DocumentLineTax is one entry of a line's tax breakdown as last
// computed. Rows are replaced wholesale on every recomputation.
type DocumentLineTax struct {
	ID         snowflake.ID  `gorm:"primaryKey"`
	DocumentID snowflake.ID  `gorm:"not null;index"`
	LineID     snowflake.ID  `gorm:"not null;index"`
	RuleID     *snowflake.ID `gorm:"index"`

	TaxName    string   `gorm:"type:text;not null"`
	TaxRate    *float64 `gorm:""` // percentage, nil for fixed taxes
	BaseAmount int64    `gorm:"not null;default:0"`
	Amount     int64    `gorm:"not null"`

	Position  int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (DocumentLineTax) TableName() string { return "document_line_taxes" }

// DocumentTaxLine is one row of the document's tax summary, grouped by
// (name, rate). Source says whether it came from product-level rules or
// document-level rules.
type DocumentTaxLine struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	DocumentID snowflake.ID `gorm:"not null;index"`

	TaxName    string   `gorm:"type:text;not null"`
	TaxRate    *float64 `gorm:""`
	Source     string   `gorm:"type:text;not null"`
	BaseAmount int64    `gorm:"not null;default:0"`
	Amount     int64    `gorm:"not null"`

	Position  int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (DocumentTaxLine) TableName() string { return "document_tax_lines" }
