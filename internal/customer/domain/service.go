package domain

import (
	"context"
	"errors"
)

type ListCustomerRequest struct {
	Name  string
	Email string
}

type CreateCustomerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	FiscalID string `json:"fiscal_id"`
	Address  string `json:"address"`
}

type GetCustomerRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	List(context.Context, ListCustomerRequest) ([]Customer, error)
	GetByID(context.Context, GetCustomerRequest) (Customer, error)
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("not_found")
)
