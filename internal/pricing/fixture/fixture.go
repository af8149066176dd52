// Package fixture loads pricing scenarios written in YAML. Each scenario
// carries a cart, a rule snapshot, a policy, a pricing timestamp and the
// totals the engine is expected to produce.
package fixture

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storefront/internal/pricing/domain"
	"github.com/smallbiznis/storefront/internal/pricing/engine"
	"gopkg.in/yaml.v3"
)

type Scenario struct {
	Name     string   `yaml:"name"`
	Now      string   `yaml:"now"`
	Policy   Policy   `yaml:"policy"`
	Cart     Cart     `yaml:"cart"`
	Snapshot Snapshot `yaml:"snapshot"`
	Expect   Expect   `yaml:"expect"`
}

type Policy struct {
	CascadeToSubcategories bool   `yaml:"cascade_to_subcategories"`
	TaxBase                string `yaml:"tax_base"`
}

type Cart struct {
	Currency       string     `yaml:"currency"`
	CouponCode     string     `yaml:"coupon_code"`
	CashOnDelivery bool       `yaml:"cash_on_delivery"`
	Country        string     `yaml:"country"`
	Region         string     `yaml:"region"`
	Items          []LineItem `yaml:"items"`
}

type LineItem struct {
	ProductID  int64  `yaml:"product_id"`
	CategoryID *int64 `yaml:"category_id"`
	Name       string `yaml:"name"`
	UnitPrice  string `yaml:"unit_price"`
	Quantity   int64  `yaml:"quantity"`
}

type Scope struct {
	Kind               string  `yaml:"kind"`
	ProductIDs         []int64 `yaml:"product_ids"`
	CategoryIDs        []int64 `yaml:"category_ids"`
	ExcludedProductIDs []int64 `yaml:"excluded_product_ids"`
}

type Rule struct {
	ID            int64   `yaml:"id"`
	Code          string  `yaml:"code"`
	Name          string  `yaml:"name"`
	Scope         Scope   `yaml:"scope"`
	Kind          string  `yaml:"kind"`
	Value         string  `yaml:"value"`
	ApplyPerItem  bool    `yaml:"apply_per_item"`
	StartsAt      string  `yaml:"starts_at"`
	EndsAt        string  `yaml:"ends_at"`
	MinOrderValue string  `yaml:"min_order_value"`
	UsageLimit    *int64  `yaml:"usage_limit"`
	UsageCount    int64   `yaml:"usage_count"`
	Inactive      bool    `yaml:"inactive"`
	Country       string  `yaml:"country"`
	Region        *string `yaml:"region"`
	AcceptsCOD    bool    `yaml:"accepts_cod"`
}

type Snapshot struct {
	Categories    []domain.Category `yaml:"categories"`
	Coupons       []Rule            `yaml:"coupons"`
	Discounts     []Rule            `yaml:"discounts"`
	Taxes         []Rule            `yaml:"taxes"`
	ShippingRates []Rule            `yaml:"shipping_rates"`
}

// Expect lists amounts as two-decimal strings. Empty fields are not checked.
type Expect struct {
	Error              string            `yaml:"error"`
	Subtotal           string            `yaml:"subtotal"`
	DiscountTotal      string            `yaml:"discount_total"`
	DiscountedSubtotal string            `yaml:"discounted_subtotal"`
	ShippingCost       string            `yaml:"shipping_cost"`
	TaxTotal           string            `yaml:"tax_total"`
	Total              string            `yaml:"total"`
	CouponRejection    string            `yaml:"coupon_rejection"`
	CouponAmount       string            `yaml:"coupon_amount"`
	ShippingRateID     int64             `yaml:"shipping_rate_id"`
	Taxes              map[string]string `yaml:"taxes"`
	LineDiscounts      []string          `yaml:"line_discounts"`
}

// Load decodes a YAML list of scenarios.
func Load(r io.Reader) ([]Scenario, error) {
	var scenarios []Scenario
	if err := yaml.NewDecoder(r).Decode(&scenarios); err != nil {
		return nil, fmt.Errorf("decode scenarios: %w", err)
	}
	if len(scenarios) == 0 {
		return nil, errors.New("no scenarios")
	}
	return scenarios, nil
}

// Build converts the scenario into engine inputs.
func (s Scenario) Build() (domain.Cart, domain.Snapshot, engine.Policy, time.Time, error) {
	var (
		cart domain.Cart
		snap domain.Snapshot
	)

	now, err := time.Parse(time.RFC3339, s.Now)
	if err != nil {
		return cart, snap, engine.Policy{}, time.Time{}, fmt.Errorf("%s: now: %w", s.Name, err)
	}

	policy := engine.Policy{
		CascadeToSubcategories: s.Policy.CascadeToSubcategories,
		TaxBase:                engine.TaxBase(s.Policy.TaxBase),
	}

	cart = domain.Cart{
		Currency:       s.Cart.Currency,
		CouponCode:     s.Cart.CouponCode,
		CashOnDelivery: s.Cart.CashOnDelivery,
		Destination:    domain.Destination{Country: s.Cart.Country, Region: s.Cart.Region},
	}
	for _, item := range s.Cart.Items {
		price, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			return cart, snap, policy, now, fmt.Errorf("%s: unit_price: %w", s.Name, err)
		}
		cart.Items = append(cart.Items, domain.LineItem{
			ProductID:  item.ProductID,
			CategoryID: item.CategoryID,
			Name:       item.Name,
			UnitPrice:  price,
			Quantity:   item.Quantity,
		})
	}

	snap.Categories = s.Snapshot.Categories
	for _, r := range s.Snapshot.Coupons {
		common, err := r.common()
		if err != nil {
			return cart, snap, policy, now, fmt.Errorf("%s: coupon %d: %w", s.Name, r.ID, err)
		}
		snap.Coupons = append(snap.Coupons, domain.Coupon{
			ID:            r.ID,
			Code:          r.Code,
			Scope:         r.Scope.toDomain(),
			AmountKind:    domain.AmountKind(r.Kind),
			Value:         common.value,
			Window:        common.window,
			MinOrderValue: common.minOrder,
			UsageLimit:    r.UsageLimit,
			UsageCount:    r.UsageCount,
			IsActive:      !r.Inactive,
		})
	}
	for _, r := range s.Snapshot.Discounts {
		common, err := r.common()
		if err != nil {
			return cart, snap, policy, now, fmt.Errorf("%s: discount %d: %w", s.Name, r.ID, err)
		}
		snap.Discounts = append(snap.Discounts, domain.Discount{
			ID:            r.ID,
			Name:          r.Name,
			Scope:         r.Scope.toDomain(),
			AmountKind:    domain.AmountKind(r.Kind),
			Value:         common.value,
			Window:        common.window,
			MinOrderValue: common.minOrder,
			IsActive:      !r.Inactive,
		})
	}
	for _, r := range s.Snapshot.Taxes {
		common, err := r.common()
		if err != nil {
			return cart, snap, policy, now, fmt.Errorf("%s: tax %d: %w", s.Name, r.ID, err)
		}
		snap.Taxes = append(snap.Taxes, domain.Tax{
			ID:            r.ID,
			Code:          r.Code,
			Name:          r.Name,
			Scope:         r.Scope.toDomain(),
			TaxKind:       domain.TaxKind(r.Kind),
			Value:         common.value,
			ApplyPerItem:  r.ApplyPerItem,
			Window:        common.window,
			MinOrderValue: common.minOrder,
			IsActive:      !r.Inactive,
		})
	}
	for _, r := range s.Snapshot.ShippingRates {
		common, err := r.common()
		if err != nil {
			return cart, snap, policy, now, fmt.Errorf("%s: shipping rate %d: %w", s.Name, r.ID, err)
		}
		snap.ShippingRates = append(snap.ShippingRates, domain.ShippingRate{
			ID:            r.ID,
			Name:          r.Name,
			Country:       r.Country,
			Region:        r.Region,
			Price:         common.value,
			MinOrderValue: common.minOrder,
			AcceptsCOD:    r.AcceptsCOD,
			IsActive:      !r.Inactive,
		})
	}

	return cart, snap, policy, now, nil
}

type ruleCommon struct {
	value    decimal.Decimal
	window   domain.Window
	minOrder *decimal.Decimal
}

func (r Rule) common() (ruleCommon, error) {
	var out ruleCommon

	value, err := decimal.NewFromString(r.Value)
	if err != nil {
		return out, fmt.Errorf("value: %w", err)
	}
	out.value = value

	if out.window.StartsAt, err = parseOptionalTime(r.StartsAt); err != nil {
		return out, fmt.Errorf("starts_at: %w", err)
	}
	if out.window.EndsAt, err = parseOptionalTime(r.EndsAt); err != nil {
		return out, fmt.Errorf("ends_at: %w", err)
	}

	if r.MinOrderValue != "" {
		min, err := decimal.NewFromString(r.MinOrderValue)
		if err != nil {
			return out, fmt.Errorf("min_order_value: %w", err)
		}
		out.minOrder = &min
	}
	return out, nil
}

func (s Scope) toDomain() domain.Scope {
	kind := domain.ScopeKind(s.Kind)
	if kind == "" {
		kind = domain.ScopeAll
	}
	return domain.Scope{
		Kind:               kind,
		ProductIDs:         s.ProductIDs,
		CategoryIDs:        s.CategoryIDs,
		ExcludedProductIDs: s.ExcludedProductIDs,
	}
}

func parseOptionalTime(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
