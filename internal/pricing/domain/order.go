package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Category is the minimal category shape the matcher needs.
type Category struct {
	ID       int64  `json:"id" yaml:"id"`
	ParentID *int64 `json:"parent_id,omitempty" yaml:"parent_id"`
}

func (c Category) NodeID() int64        { return c.ID }
func (c Category) ParentNodeID() *int64 { return c.ParentID }

type LineItem struct {
	ProductID  int64           `json:"product_id,string"`
	CategoryID *int64          `json:"category_id,omitempty"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int64           `json:"quantity"`
}

func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

type Destination struct {
	Country string `json:"country"`
	Region  string `json:"region,omitempty"`
}

type Cart struct {
	Items          []LineItem
	Destination    Destination
	CouponCode     string
	CashOnDelivery bool
	Currency       string
}

// Snapshot is the store's rule set at pricing time. Coupons is usually the
// single coupon looked up by code, but any number is accepted.
type Snapshot struct {
	Coupons       []Coupon
	Discounts     []Discount
	Taxes         []Tax
	ShippingRates []ShippingRate
	Categories    []Category
}

// NormalizeCouponCode trims and lowercases a code for comparison.
func NormalizeCouponCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// OrderContext is what the validity gate evaluates rules against.
type OrderContext struct {
	PreDiscountSubtotal decimal.Decimal
}

// AppliedRule is the effect a coupon or discount contributed.
type AppliedRule struct {
	Kind   RuleKind        `json:"kind"`
	RuleID int64           `json:"rule_id,string"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
	Basis  decimal.Decimal `json:"basis"`
}

// TaxLine is one itemized entry of the tax breakdown.
type TaxLine struct {
	TaxID        int64           `json:"tax_id,string"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Kind         TaxKind         `json:"kind"`
	Rate         decimal.Decimal `json:"rate"`
	ApplyPerItem bool            `json:"apply_per_item"`
	MatchedUnits int64           `json:"matched_units"`
	Basis        decimal.Decimal `json:"basis"`
	Amount       decimal.Decimal `json:"amount"`
}

type ShippingSelection struct {
	RateID int64           `json:"rate_id,string"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}

type PricedLine struct {
	LineItem
	LineTotal decimal.Decimal `json:"line_total"`
	Discount  decimal.Decimal `json:"discount"`
	Net       decimal.Decimal `json:"net"`
}

type OrderTotals struct {
	Currency           string            `json:"currency"`
	Lines              []PricedLine      `json:"lines"`
	Subtotal           decimal.Decimal   `json:"subtotal"`
	DiscountTotal      decimal.Decimal   `json:"discount_total"`
	DiscountedSubtotal decimal.Decimal   `json:"discounted_subtotal"`
	ShippingCost       decimal.Decimal   `json:"shipping_cost"`
	TaxTotal           decimal.Decimal   `json:"tax_total"`
	Total              decimal.Decimal   `json:"total"`
	Coupon             *AppliedRule      `json:"coupon,omitempty"`
	CouponRejection    *Rejection        `json:"coupon_rejection,omitempty"`
	Discounts          []AppliedRule     `json:"discounts"`
	Shipping           ShippingSelection `json:"shipping"`
	TaxBreakdown       []TaxLine         `json:"tax_breakdown"`
}

// TaxBreakdownByCode sums the breakdown per tax code.
func (t OrderTotals) TaxBreakdownByCode() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(t.TaxBreakdown))
	for _, line := range t.TaxBreakdown {
		out[line.Code] = out[line.Code].Add(line.Amount)
	}
	return out
}

// Round2 rounds a currency amount to two decimal places.
func Round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// settleLineDiscounts moves the rounding remainder onto the last line that
// can take it without its discount leaving [0, line total], so persisted
// line discounts add up to the persisted discount total.
func settleLineDiscounts(lines []PricedLine, remainder decimal.Decimal) {
	if remainder.IsZero() {
		return
	}
	for i := len(lines) - 1; i >= 0; i-- {
		next := lines[i].Discount.Add(remainder)
		if next.IsNegative() || next.GreaterThan(lines[i].LineTotal) {
			continue
		}
		lines[i].Discount = next
		return
	}
}

// Rounded returns a copy with every monetary field rounded for persistence
// or display. The discounted subtotal, total and line discounts are derived
// from rounded parts so the copy adds up. Pricing itself never rounds
// intermediate amounts.
func (t OrderTotals) Rounded() OrderTotals {
	out := t
	out.Subtotal = Round2(t.Subtotal)
	out.DiscountTotal = Round2(t.DiscountTotal)
	out.ShippingCost = Round2(t.ShippingCost)
	out.TaxTotal = Round2(t.TaxTotal)
	out.Shipping.Price = Round2(t.Shipping.Price)

	out.DiscountedSubtotal = out.Subtotal.Sub(out.DiscountTotal)
	out.Total = out.DiscountedSubtotal.Add(out.ShippingCost).Add(out.TaxTotal)

	out.Lines = make([]PricedLine, len(t.Lines))
	booked := decimal.Zero
	for i, line := range t.Lines {
		line.LineTotal = Round2(line.LineTotal)
		line.Discount = Round2(line.Discount)
		booked = booked.Add(line.Discount)
		out.Lines[i] = line
	}
	settleLineDiscounts(out.Lines, out.DiscountTotal.Sub(booked))
	for i := range out.Lines {
		out.Lines[i].Net = out.Lines[i].LineTotal.Sub(out.Lines[i].Discount)
	}

	if t.Coupon != nil {
		c := *t.Coupon
		c.Amount = Round2(c.Amount)
		c.Basis = Round2(c.Basis)
		out.Coupon = &c
	}

	out.Discounts = make([]AppliedRule, len(t.Discounts))
	for i, d := range t.Discounts {
		d.Amount = Round2(d.Amount)
		d.Basis = Round2(d.Basis)
		out.Discounts[i] = d
	}

	out.TaxBreakdown = make([]TaxLine, len(t.TaxBreakdown))
	for i, line := range t.TaxBreakdown {
		line.Amount = Round2(line.Amount)
		line.Basis = Round2(line.Basis)
		out.TaxBreakdown[i] = line
	}
	return out
}
