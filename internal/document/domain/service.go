package domain

import (
	"context"
	"time"

	"github.com/facturio/facturio/internal/taxengine"
)

type CreateDocumentRequest struct {
	Type       taxengine.DocumentType `json:"document_type"`
	CustomerID *string                `json:"customer_id,omitempty"`
	SupplierID *string                `json:"supplier_id,omitempty"`
	Currency   string                 `json:"currency,omitempty"`
}

type ListDocumentRequest struct {
	Type   string
	Status string
}

type AddLineRequest struct {
	DocumentID      string  `json:"-"`
	ProductID       *string `json:"product_id,omitempty"`
	Description     string  `json:"description,omitempty"`
	Quantity        float64 `json:"quantity"`
	UnitPrice       *int64  `json:"unit_price,omitempty"`
	DiscountPercent float64 `json:"discount_percent"`
}

type UpdateLineRequest struct {
	DocumentID      string   `json:"-"`
	LineID          string   `json:"-"`
	Quantity        *float64 `json:"quantity,omitempty"`
	UnitPrice       *int64   `json:"unit_price,omitempty"`
	DiscountPercent *float64 `json:"discount_percent,omitempty"`
}

type UpdateStatusRequest struct {
	ID     string         `json:"-"`
	Status DocumentStatus `json:"status"`
}

// LineResponse is a document line with its derived tax state.
type LineResponse struct {
	ID              string              `json:"id"`
	ProductID       *string             `json:"product_id,omitempty"`
	Description     string              `json:"description,omitempty"`
	Quantity        float64             `json:"quantity"`
	UnitPrice       int64               `json:"unit_price"`
	DiscountPercent float64             `json:"discount_percent"`
	TaxGroupID      *string             `json:"tax_group_id,omitempty"`
	DefaultRate     float64             `json:"default_rate"`
	PreTaxAmount    int64               `json:"pre_tax_amount"`
	TaxBreakdown    []taxengine.TaxLine `json:"tax_breakdown"`
	PostTaxAmount   int64               `json:"post_tax_amount"`
}

// TotalsResponse mirrors the engine's totals with the stored summary.
type TotalsResponse struct {
	Subtotal   int64                       `json:"subtotal"`
	TaxSummary []taxengine.TaxSummaryEntry `json:"tax_summary"`
	TotalTaxes int64                       `json:"total_taxes"`
	GrandTotal int64                       `json:"grand_total"`
}

type DocumentResponse struct {
	ID                 string                 `json:"id"`
	Type               taxengine.DocumentType `json:"document_type"`
	Status             DocumentStatus         `json:"status"`
	Currency           string                 `json:"currency"`
	CustomerID         *string                `json:"customer_id,omitempty"`
	SupplierID         *string                `json:"supplier_id,omitempty"`
	SourceDocumentID   *string                `json:"source_document_id,omitempty"`
	Lines              []LineResponse         `json:"lines"`
	Totals             TotalsResponse         `json:"totals"`
	Warnings           []taxengine.Warning    `json:"warnings,omitempty"`
	IssuedAt           *time.Time             `json:"issued_at,omitempty"`
	DueAt              *time.Time             `json:"due_at,omitempty"`
	PaidAt             *time.Time             `json:"paid_at,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

type Service interface {
	Create(ctx context.Context, req CreateDocumentRequest) (*DocumentResponse, error)
	GetByID(ctx context.Context, id string) (*DocumentResponse, error)
	List(ctx context.Context, req ListDocumentRequest) ([]DocumentResponse, error)

	AddLine(ctx context.Context, req AddLineRequest) (*DocumentResponse, error)
	UpdateLine(ctx context.Context, req UpdateLineRequest) (*DocumentResponse, error)
	RemoveLine(ctx context.Context, documentID, lineID string) (*DocumentResponse, error)

	// RefreshTotals recomputes a document against the current tax
	// configuration, e.g. after rules changed.
	RefreshTotals(ctx context.Context, id string) (*DocumentResponse, error)

	UpdateStatus(ctx context.Context, req UpdateStatusRequest) (*DocumentResponse, error)

	// CreateCreditNote derives a credit note (avoir) from an invoice by
	// negating its lines and re-running the tax pipeline.
	CreateCreditNote(ctx context.Context, sourceID string) (*DocumentResponse, error)

	// ConvertQuote materializes an invoice from an accepted quote.
	ConvertQuote(ctx context.Context, quoteID string) (*DocumentResponse, error)
}
