package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
	"github.com/smallbiznis/storefront/internal/pricing/ruledata"
)

// TaxResolver returns the taxes that may apply to a store's orders.
type TaxResolver interface {
	ActiveRules(ctx context.Context, storeID int64) ([]pricingdomain.Tax, error)
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Disable(ctx context.Context, id string) (*Response, error)
}

type ListRequest struct {
	Name     string
	Code     string
	IsActive *bool
	SortBy   string
	OrderBy  string
}

type CreateRequest struct {
	Code          string                `json:"code"`
	Name          string                `json:"name"`
	Description   *string               `json:"description"`
	Scope         ruledata.ScopeRequest `json:"scope"`
	TaxKind       pricingdomain.TaxKind `json:"tax_kind"`
	Value         decimal.Decimal       `json:"value"`
	ApplyPerItem  bool                  `json:"apply_per_item"`
	StartsAt      *time.Time            `json:"starts_at"`
	EndsAt        *time.Time            `json:"ends_at"`
	MinOrderValue *decimal.Decimal      `json:"min_order_value"`
	IsActive      *bool                 `json:"is_active"`
}

type UpdateRequest struct {
	ID            string                 `json:"id"`
	Name          *string                `json:"name,omitempty"`
	Description   *string                `json:"description,omitempty"`
	Scope         *ruledata.ScopeRequest `json:"scope,omitempty"`
	TaxKind       *pricingdomain.TaxKind `json:"tax_kind,omitempty"`
	Value         *decimal.Decimal       `json:"value,omitempty"`
	ApplyPerItem  *bool                  `json:"apply_per_item,omitempty"`
	StartsAt      *time.Time             `json:"starts_at,omitempty"`
	EndsAt        *time.Time             `json:"ends_at,omitempty"`
	MinOrderValue *decimal.Decimal       `json:"min_order_value,omitempty"`
}

type Response struct {
	ID            string                 `json:"id"`
	StoreID       string                 `json:"store_id"`
	Code          string                 `json:"code"`
	Name          string                 `json:"name"`
	Description   *string                `json:"description,omitempty"`
	Scope         ruledata.ScopeResponse `json:"scope"`
	TaxKind       pricingdomain.TaxKind  `json:"tax_kind"`
	Value         decimal.Decimal        `json:"value"`
	ApplyPerItem  bool                   `json:"apply_per_item"`
	StartsAt      *time.Time             `json:"starts_at,omitempty"`
	EndsAt        *time.Time             `json:"ends_at,omitempty"`
	MinOrderValue *decimal.Decimal       `json:"min_order_value,omitempty"`
	IsActive      bool                   `json:"is_active"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}
