package domain

import (
	"context"
	"errors"
)

type ListProductRequest struct {
	Name      string
	Reference string
}

type CreateProductRequest struct {
	Name        string  `json:"name"`
	Reference   string  `json:"reference"`
	UnitPrice   int64   `json:"unit_price"`
	DefaultRate float64 `json:"default_rate"`
	TaxGroupID  *string `json:"tax_group_id,omitempty"`
}

type UpdateProductRequest struct {
	ID          string   `json:"id"`
	Name        *string  `json:"name,omitempty"`
	UnitPrice   *int64   `json:"unit_price,omitempty"`
	DefaultRate *float64 `json:"default_rate,omitempty"`
	TaxGroupID  *string  `json:"tax_group_id,omitempty"`
}

type GetProductRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateProductRequest) (Product, error)
	List(context.Context, ListProductRequest) ([]Product, error)
	GetByID(context.Context, GetProductRequest) (Product, error)
	Update(context.Context, UpdateProductRequest) (Product, error)
}

var (
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidUnitPrice = errors.New("invalid_unit_price")
	ErrInvalidRate      = errors.New("invalid_rate")
	ErrInvalidID        = errors.New("invalid_id")
	ErrNotFound         = errors.New("not_found")
)
