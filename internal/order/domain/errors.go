package domain

import "errors"

var (
	ErrInvalidStore          = errors.New("invalid_store")
	ErrInvalidID             = errors.New("invalid_id")
	ErrInvalidStatus         = errors.New("invalid_status")
	ErrInvalidComment        = errors.New("invalid_comment")
	ErrInvalidIdempotencyKey = errors.New("invalid_idempotency_key")
	ErrCheckoutInProgress    = errors.New("checkout_in_progress")
	ErrNotFound              = errors.New("not_found")
)
