package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RuleKind tags the variants of the pricing rule union.
type RuleKind string

const (
	RuleKindCoupon   RuleKind = "coupon"
	RuleKindDiscount RuleKind = "discount"
	RuleKindTax      RuleKind = "tax"
	RuleKindShipping RuleKind = "shipping"
)

// ScopeKind selects which line items a rule is eligible for.
type ScopeKind string

const (
	ScopeAll                ScopeKind = "all"
	ScopeSpecificProducts   ScopeKind = "specific_products"
	ScopeSpecificCategories ScopeKind = "specific_categories"
)

func (k ScopeKind) Valid() bool {
	switch k {
	case ScopeAll, ScopeSpecificProducts, ScopeSpecificCategories:
		return true
	default:
		return false
	}
}

// AmountKind is the amount semantics of coupons and discounts.
type AmountKind string

const (
	AmountPercentage  AmountKind = "percentage"
	AmountFixedAmount AmountKind = "fixed_amount"
)

func (k AmountKind) Valid() bool {
	return k == AmountPercentage || k == AmountFixedAmount
}

// TaxKind is the amount semantics of taxes.
type TaxKind string

const (
	TaxPercentage TaxKind = "percentage"
	TaxFixed      TaxKind = "fixed"
)

func (k TaxKind) Valid() bool {
	return k == TaxPercentage || k == TaxFixed
}

// Scope is the eligibility descriptor shared by scoped rules.
type Scope struct {
	Kind               ScopeKind
	ProductIDs         []int64
	CategoryIDs        []int64
	ExcludedProductIDs []int64
}

// Effective returns the scope with every set the kind does not select
// emptied. Stored data may carry stale selections from a previous scope.
func (s Scope) Effective() Scope {
	switch s.Kind {
	case ScopeAll:
		return Scope{Kind: ScopeAll, ExcludedProductIDs: s.ExcludedProductIDs}
	case ScopeSpecificProducts:
		return Scope{Kind: ScopeSpecificProducts, ProductIDs: s.ProductIDs}
	case ScopeSpecificCategories:
		return Scope{Kind: ScopeSpecificCategories, CategoryIDs: s.CategoryIDs, ExcludedProductIDs: s.ExcludedProductIDs}
	default:
		return Scope{Kind: s.Kind}
	}
}

// Window is an inclusive activation window; nil bounds are open.
type Window struct {
	StartsAt *time.Time
	EndsAt   *time.Time
}

// Rule is implemented by every variant of the union.
type Rule interface {
	Kind() RuleKind
	RuleID() int64
}

// Scoped rules expose an eligibility scope to the matcher.
type Scoped interface {
	Rule
	RuleScope() Scope
}

// Gated rules expose the inputs of the validity gate.
type Gated interface {
	Rule
	Active() bool
	ActivationWindow() Window
	MinimumOrderValue() *decimal.Decimal
}

// Capped rules carry a usage counter. Only coupons do.
type Capped interface {
	UsageCap() (limit *int64, count int64)
}

type Coupon struct {
	ID            int64
	Code          string
	Scope         Scope
	AmountKind    AmountKind
	Value         decimal.Decimal
	Window        Window
	MinOrderValue *decimal.Decimal
	UsageLimit    *int64
	UsageCount    int64
	IsActive      bool
}

func (c Coupon) Kind() RuleKind                      { return RuleKindCoupon }
func (c Coupon) RuleID() int64                       { return c.ID }
func (c Coupon) RuleScope() Scope                    { return c.Scope }
func (c Coupon) Active() bool                        { return c.IsActive }
func (c Coupon) ActivationWindow() Window            { return c.Window }
func (c Coupon) MinimumOrderValue() *decimal.Decimal { return c.MinOrderValue }
func (c Coupon) UsageCap() (*int64, int64)           { return c.UsageLimit, c.UsageCount }

type Discount struct {
	ID            int64
	Name          string
	Scope         Scope
	AmountKind    AmountKind
	Value         decimal.Decimal
	Window        Window
	MinOrderValue *decimal.Decimal
	IsActive      bool
}

func (d Discount) Kind() RuleKind                      { return RuleKindDiscount }
func (d Discount) RuleID() int64                       { return d.ID }
func (d Discount) RuleScope() Scope                    { return d.Scope }
func (d Discount) Active() bool                        { return d.IsActive }
func (d Discount) ActivationWindow() Window            { return d.Window }
func (d Discount) MinimumOrderValue() *decimal.Decimal { return d.MinOrderValue }

type Tax struct {
	ID            int64
	Code          string
	Name          string
	Scope         Scope
	TaxKind       TaxKind
	Value         decimal.Decimal
	ApplyPerItem  bool
	Window        Window
	MinOrderValue *decimal.Decimal
	IsActive      bool
}

func (t Tax) Kind() RuleKind                      { return RuleKindTax }
func (t Tax) RuleID() int64                       { return t.ID }
func (t Tax) RuleScope() Scope                    { return t.Scope }
func (t Tax) Active() bool                        { return t.IsActive }
func (t Tax) ActivationWindow() Window            { return t.Window }
func (t Tax) MinimumOrderValue() *decimal.Decimal { return t.MinOrderValue }

// ShippingRate is a flat rate for a country, optionally narrowed to a region.
type ShippingRate struct {
	ID            int64
	Name          string
	Country       string
	Region        *string
	Price         decimal.Decimal
	MinOrderValue *decimal.Decimal
	AcceptsCOD    bool
	IsActive      bool
}

func (r ShippingRate) Kind() RuleKind                      { return RuleKindShipping }
func (r ShippingRate) RuleID() int64                       { return r.ID }
func (r ShippingRate) Active() bool                        { return r.IsActive }
func (r ShippingRate) ActivationWindow() Window            { return Window{} }
func (r ShippingRate) MinimumOrderValue() *decimal.Decimal { return r.MinOrderValue }
