package domain

import "errors"

var (
	ErrInvalidStore   = errors.New("invalid_store")
	ErrInvalidID      = errors.New("invalid_id")
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidCountry = errors.New("invalid_country")
	ErrInvalidPrice   = errors.New("invalid_price")
	ErrNotFound       = errors.New("not_found")
)
