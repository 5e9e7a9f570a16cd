package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Insert(ctx context.Context, supplier *Supplier) error
	FindByID(ctx context.Context, id snowflake.ID) (*Supplier, error)
	List(ctx context.Context, filter ListSupplierRequest) ([]Supplier, error)
}
