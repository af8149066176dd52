package domain

import "errors"

var (
	ErrInvalidStore    = errors.New("invalid_store")
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidSlug     = errors.New("invalid_slug")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidParent   = errors.New("invalid_parent")
	ErrInvalidCategory = errors.New("invalid_category")
	ErrSlugTaken       = errors.New("slug_taken")
	ErrCategoryCycle   = errors.New("category_cycle")
	ErrNotFound        = errors.New("not_found")
)
