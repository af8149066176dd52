package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	CreateCategory(ctx context.Context, category *Category) error
	FindCategory(ctx context.Context, storeID, id snowflake.ID) (*Category, error)
	ListCategories(ctx context.Context, storeID snowflake.ID) ([]Category, error)
	UpdateCategory(ctx context.Context, category *Category) error

	CreateProduct(ctx context.Context, product *Product) error
	FindProduct(ctx context.Context, storeID, id snowflake.ID) (*Product, error)
	ListProducts(ctx context.Context, storeID snowflake.ID, filter ProductFilter) ([]Product, error)
	FindProducts(ctx context.Context, storeID snowflake.ID, ids []snowflake.ID) ([]Product, error)
}

type ProductFilter struct {
	CategoryID *snowflake.ID
	IsActive   *bool
	SortBy     string
	OrderBy    string
}
