package domain

import "errors"

var (
	ErrInvalidStore   = errors.New("invalid_store")
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidID      = errors.New("invalid_id")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidTaxCode = errors.New("invalid_tax_code")
	ErrInvalidTaxKind = errors.New("invalid_tax_kind")
	ErrInvalidTaxRate = errors.New("invalid_tax_rate")
	ErrTaxCodeTaken   = errors.New("tax_code_taken")
)
