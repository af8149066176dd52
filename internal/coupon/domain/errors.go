package domain

import "errors"

var (
	ErrInvalidStore      = errors.New("invalid_store")
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidCode       = errors.New("invalid_code")
	ErrInvalidUsageLimit = errors.New("invalid_usage_limit")
	ErrCodeTaken         = errors.New("code_taken")
	ErrNotFound          = errors.New("not_found")
)
