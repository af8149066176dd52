package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
	"github.com/smallbiznis/storefront/internal/pricing/ruledata"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
}

// RuleSource lists a store's active discounts for pricing.
type RuleSource interface {
	ActiveRules(ctx context.Context, storeID int64) ([]pricingdomain.Discount, error)
}

type ListRequest struct {
	Name     string
	IsActive *bool
	SortBy   string
	OrderBy  string
}

type CreateRequest struct {
	Name          string                `json:"name"`
	Scope         ruledata.ScopeRequest `json:"scope"`
	AmountKind    string                `json:"amount_kind"`
	Value         decimal.Decimal       `json:"value"`
	StartsAt      *time.Time            `json:"starts_at"`
	EndsAt        *time.Time            `json:"ends_at"`
	MinOrderValue *decimal.Decimal      `json:"min_order_value"`
	IsActive      *bool                 `json:"is_active"`
}

type UpdateRequest struct {
	ID            string                 `json:"id"`
	Name          *string                `json:"name,omitempty"`
	Scope         *ruledata.ScopeRequest `json:"scope,omitempty"`
	AmountKind    *string                `json:"amount_kind,omitempty"`
	Value         *decimal.Decimal       `json:"value,omitempty"`
	StartsAt      *time.Time             `json:"starts_at,omitempty"`
	EndsAt        *time.Time             `json:"ends_at,omitempty"`
	MinOrderValue *decimal.Decimal       `json:"min_order_value,omitempty"`
	IsActive      *bool                  `json:"is_active,omitempty"`
}

type Response struct {
	ID            string                   `json:"id"`
	StoreID       string                   `json:"store_id"`
	Name          string                   `json:"name"`
	Scope         ruledata.ScopeResponse   `json:"scope"`
	AmountKind    pricingdomain.AmountKind `json:"amount_kind"`
	Value         decimal.Decimal          `json:"value"`
	StartsAt      *time.Time               `json:"starts_at,omitempty"`
	EndsAt        *time.Time               `json:"ends_at,omitempty"`
	MinOrderValue *decimal.Decimal         `json:"min_order_value,omitempty"`
	IsActive      bool                     `json:"is_active"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}
