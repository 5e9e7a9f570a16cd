package domain

import "errors"

var (
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
	ErrLineNotFound        = errors.New("line_not_found")
	ErrInvalidDocumentType = errors.New("invalid_document_type")
	ErrInvalidQuantity     = errors.New("invalid_quantity")
	ErrInvalidUnitPrice    = errors.New("invalid_unit_price")
	ErrInvalidDiscount     = errors.New("invalid_discount")
	ErrDocumentImmutable   = errors.New("document_immutable")
	ErrInvalidTransition   = errors.New("invalid_status_transition")
	ErrNotCreditable       = errors.New("document_not_creditable")
	ErrNotConvertible      = errors.New("document_not_convertible")
)
