package engine

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storefront/internal/pricing/domain"
)

var hundred = decimal.NewFromInt(100)

// MatchedLine is a matched line item with the amount percentage rules
// apply to. Base is the line total unless taxes are levied after discounts.
type MatchedLine struct {
	Item domain.LineItem
	Base decimal.Decimal
}

// Effect is the monetary contribution of a single rule.
type Effect struct {
	Amount       decimal.Decimal
	Basis        decimal.Decimal
	MatchedUnits int64
}

// ComputeEffect converts a validated rule and its matched lines into an
// amount. Nothing is rounded here.
func ComputeEffect(rule domain.Rule, matched []MatchedLine) Effect {
	basis := decimal.Zero
	var units int64
	for _, line := range matched {
		basis = basis.Add(line.Base)
		units += line.Item.Quantity
	}
	effect := Effect{Amount: decimal.Zero, Basis: basis, MatchedUnits: units}
	if len(matched) == 0 {
		return effect
	}

	switch r := rule.(type) {
	case domain.Coupon:
		effect.Amount = reduction(r.AmountKind, r.Value, basis)
	case domain.Discount:
		effect.Amount = reduction(r.AmountKind, r.Value, basis)
	case domain.Tax:
		effect.Amount = levy(r, basis, units)
	}
	return effect
}

func reduction(kind domain.AmountKind, value, basis decimal.Decimal) decimal.Decimal {
	if value.IsNegative() || !basis.IsPositive() {
		return decimal.Zero
	}
	switch kind {
	case domain.AmountPercentage:
		amount := value.Div(hundred).Mul(basis)
		return decimal.Min(amount, basis)
	case domain.AmountFixedAmount:
		return decimal.Min(value, basis)
	default:
		return decimal.Zero
	}
}

func levy(tax domain.Tax, basis decimal.Decimal, units int64) decimal.Decimal {
	if tax.Value.IsNegative() {
		return decimal.Zero
	}
	switch tax.TaxKind {
	case domain.TaxPercentage:
		if !basis.IsPositive() {
			return decimal.Zero
		}
		return tax.Value.Div(hundred).Mul(basis)
	case domain.TaxFixed:
		if tax.ApplyPerItem {
			return tax.Value.Mul(decimal.NewFromInt(units))
		}
		return tax.Value
	default:
		return decimal.Zero
	}
}
