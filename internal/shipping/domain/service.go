package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
}

// RateSource lists a store's active shipping rates for pricing.
type RateSource interface {
	ActiveRates(ctx context.Context, storeID int64) ([]pricingdomain.ShippingRate, error)
}

type ListRequest struct {
	Country  string
	IsActive *bool
	SortBy   string
	OrderBy  string
}

type CreateRequest struct {
	Name          string           `json:"name"`
	Country       string           `json:"country"`
	Region        *string          `json:"region"`
	Price         decimal.Decimal  `json:"price"`
	MinOrderValue *decimal.Decimal `json:"min_order_value"`
	AcceptsCOD    bool             `json:"accepts_cod"`
	IsActive      *bool            `json:"is_active"`
}

type UpdateRequest struct {
	ID            string           `json:"id"`
	Name          *string          `json:"name,omitempty"`
	Region        *string          `json:"region,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	MinOrderValue *decimal.Decimal `json:"min_order_value,omitempty"`
	AcceptsCOD    *bool            `json:"accepts_cod,omitempty"`
	IsActive      *bool            `json:"is_active,omitempty"`
}

type Response struct {
	ID            string           `json:"id"`
	StoreID       string           `json:"store_id"`
	Name          string           `json:"name"`
	Country       string           `json:"country"`
	Region        *string          `json:"region,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	MinOrderValue *decimal.Decimal `json:"min_order_value,omitempty"`
	AcceptsCOD    bool             `json:"accepts_cod"`
	IsActive      bool             `json:"is_active"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}
