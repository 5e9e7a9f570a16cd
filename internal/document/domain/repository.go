package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository methods take the *gorm.DB handle explicitly so the service
// can run line mutation + recomputation + persistence inside one
// transaction.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, doc *Document) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Document, error)
	List(ctx context.Context, db *gorm.DB, filter ListDocumentRequest) ([]Document, error)
	Update(ctx context.Context, db *gorm.DB, doc *Document) error

	InsertLine(ctx context.Context, db *gorm.DB, line *DocumentLine) error
	FindLine(ctx context.Context, db *gorm.DB, documentID, lineID snowflake.ID) (*DocumentLine, error)
	ListLines(ctx context.Context, db *gorm.DB, documentID snowflake.ID) ([]DocumentLine, error)
	UpdateLine(ctx context.Context, db *gorm.DB, line *DocumentLine) error
	DeleteLine(ctx context.Context, db *gorm.DB, documentID, lineID snowflake.ID) error

	ListLineTaxes(ctx context.Context, db *gorm.DB, documentID snowflake.ID) ([]DocumentLineTax, error)
	ListTaxLines(ctx context.Context, db *gorm.DB, documentID snowflake.ID) ([]DocumentTaxLine, error)
	ReplaceComputedState(ctx context.Context, db *gorm.DB, documentID snowflake.ID, lineTaxes []DocumentLineTax, taxLines []DocumentTaxLine) error
}
