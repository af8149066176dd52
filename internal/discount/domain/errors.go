package domain

import "errors"

var (
	ErrInvalidStore = errors.New("invalid_store")
	ErrInvalidID    = errors.New("invalid_id")
	ErrInvalidName  = errors.New("invalid_name")
	ErrNotFound     = errors.New("not_found")
)
