package ruledata

import "errors"

var (
	ErrInvalidScope         = errors.New("invalid_scope")
	ErrInvalidScopeID       = errors.New("invalid_scope_id")
	ErrInvalidWindow        = errors.New("invalid_window")
	ErrInvalidAmountKind    = errors.New("invalid_amount_kind")
	ErrInvalidValue         = errors.New("invalid_value")
	ErrInvalidMinOrderValue = errors.New("invalid_min_order_value")
)
