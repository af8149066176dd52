package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
	"github.com/smallbiznis/storefront/internal/pricing/ruledata"
	"gorm.io/gorm"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Disable(ctx context.Context, id string) (*Response, error)
}

// Lookup resolves the coupon a cart names, for pricing.
type Lookup interface {
	LookupRules(ctx context.Context, storeID int64, code string) ([]pricingdomain.Coupon, error)
}

// Redeemer consumes one use of a coupon for an order inside tx.
type Redeemer interface {
	Redeem(ctx context.Context, tx *gorm.DB, storeID, couponID, orderID int64) error
}

type ListRequest struct {
	Code     string
	IsActive *bool
	SortBy   string
	OrderBy  string
}

type CreateRequest struct {
	Code          string                `json:"code"`
	Scope         ruledata.ScopeRequest `json:"scope"`
	AmountKind    string                `json:"amount_kind"`
	Value         decimal.Decimal       `json:"value"`
	StartsAt      *time.Time            `json:"starts_at"`
	EndsAt        *time.Time            `json:"ends_at"`
	MinOrderValue *decimal.Decimal      `json:"min_order_value"`
	UsageLimit    *int64                `json:"usage_limit"`
	IsActive      *bool                 `json:"is_active"`
}

type UpdateRequest struct {
	ID            string                 `json:"id"`
	Scope         *ruledata.ScopeRequest `json:"scope,omitempty"`
	AmountKind    *string                `json:"amount_kind,omitempty"`
	Value         *decimal.Decimal       `json:"value,omitempty"`
	StartsAt      *time.Time             `json:"starts_at,omitempty"`
	EndsAt        *time.Time             `json:"ends_at,omitempty"`
	MinOrderValue *decimal.Decimal       `json:"min_order_value,omitempty"`
	UsageLimit    *int64                 `json:"usage_limit,omitempty"`
	IsActive      *bool                  `json:"is_active,omitempty"`
}

type Response struct {
	ID            string                   `json:"id"`
	StoreID       string                   `json:"store_id"`
	Code          string                   `json:"code"`
	Scope         ruledata.ScopeResponse   `json:"scope"`
	AmountKind    pricingdomain.AmountKind `json:"amount_kind"`
	Value         decimal.Decimal          `json:"value"`
	StartsAt      *time.Time               `json:"starts_at,omitempty"`
	EndsAt        *time.Time               `json:"ends_at,omitempty"`
	MinOrderValue *decimal.Decimal         `json:"min_order_value,omitempty"`
	UsageLimit    *int64                   `json:"usage_limit,omitempty"`
	UsageCount    int64                    `json:"usage_count"`
	IsActive      bool                     `json:"is_active"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}
