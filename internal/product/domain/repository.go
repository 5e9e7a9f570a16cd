package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Insert(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id snowflake.ID) (*Product, error)
	List(ctx context.Context, filter ListProductRequest) ([]Product, error)
	Update(ctx context.Context, product *Product) error
}
