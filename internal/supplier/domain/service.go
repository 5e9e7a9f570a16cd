package domain

import (
	"context"
	"errors"
)

type ListSupplierRequest struct {
	Name  string
	Email string
}

type CreateSupplierRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	FiscalID string `json:"fiscal_id"`
	Address  string `json:"address"`
}

type GetSupplierRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateSupplierRequest) (Supplier, error)
	List(context.Context, ListSupplierRequest) ([]Supplier, error)
	GetByID(context.Context, GetSupplierRequest) (Supplier, error)
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("not_found")
)
