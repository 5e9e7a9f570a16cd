package domain

import "errors"

var (
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidID        = errors.New("invalid_id")
	ErrNotFound         = errors.New("not_found")
	ErrInvalidTaxCode   = errors.New("invalid_tax_code")
	ErrInvalidTaxKind   = errors.New("invalid_tax_kind")
	ErrInvalidTaxRate   = errors.New("invalid_tax_rate")
	ErrInvalidTaxAmount = errors.New("invalid_tax_amount")
	ErrInvalidTaxBase   = errors.New("invalid_tax_base")
	ErrInvalidTaxScope  = errors.New("invalid_tax_scope")
	ErrInvalidMember    = errors.New("invalid_group_member")
	ErrDuplicateTaxCode = errors.New("duplicate_tax_code")
)
