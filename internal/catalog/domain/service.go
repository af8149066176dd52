package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
)

type Service interface {
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*CategoryResponse, error)
	ListCategories(ctx context.Context) ([]CategoryResponse, error)
	CategoryTree(ctx context.Context) ([]TreeEntry, error)
	MoveCategory(ctx context.Context, req MoveCategoryRequest) (*CategoryResponse, error)

	CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductResponse, error)
	GetProduct(ctx context.Context, id string) (*ProductResponse, error)
	ListProducts(ctx context.Context, req ListProductsRequest) ([]ProductResponse, error)
}

// PricingReader feeds the quote path: the category hierarchy in the shape
// the pricing engine consumes, and the products a cart references.
type PricingReader interface {
	Hierarchy(ctx context.Context, storeID int64) ([]pricingdomain.Category, error)
	ProductsForPricing(ctx context.Context, storeID int64, ids []int64) (map[int64]Product, error)
}

type CreateCategoryRequest struct {
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	ParentID *string `json:"parent_id"`
}

type MoveCategoryRequest struct {
	ID       string  `json:"id"`
	ParentID *string `json:"parent_id"`
}

type CategoryResponse struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"store_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	ParentID  *string   `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TreeEntry is one row of the pre-order flattened hierarchy.
type TreeEntry struct {
	CategoryResponse
	Depth int `json:"depth"`
}

type CreateProductRequest struct {
	Name       string          `json:"name"`
	SKU        *string         `json:"sku"`
	CategoryID *string         `json:"category_id"`
	Price      decimal.Decimal `json:"price"`
	IsActive   *bool           `json:"is_active"`
}

type ListProductsRequest struct {
	CategoryID string
	IsActive   *bool
	SortBy     string
	OrderBy    string
}

type ProductResponse struct {
	ID         string          `json:"id"`
	StoreID    string          `json:"store_id"`
	CategoryID *string         `json:"category_id,omitempty"`
	Name       string          `json:"name"`
	SKU        *string         `json:"sku,omitempty"`
	Price      decimal.Decimal `json:"price"`
	IsActive   bool            `json:"is_active"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
