package ruledata

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
)

var hundred = decimal.NewFromInt(100)

// ValidateWindow rejects windows that end before they start.
func ValidateWindow(startsAt, endsAt *time.Time) error {
	if startsAt != nil && endsAt != nil && endsAt.Before(*startsAt) {
		return ErrInvalidWindow
	}
	return nil
}

func ToWindow(startsAt, endsAt *time.Time) pricingdomain.Window {
	return pricingdomain.Window{StartsAt: startsAt, EndsAt: endsAt}
}

// NormalizeAmountKind lowercases and validates a coupon or discount kind.
func NormalizeAmountKind(value string) (pricingdomain.AmountKind, error) {
	kind := pricingdomain.AmountKind(strings.ToLower(strings.TrimSpace(value)))
	if !kind.Valid() {
		return "", ErrInvalidAmountKind
	}
	return kind, nil
}

// ValidatePercentOrAmount checks a rule value: non-negative, and at most
// 100 when it is a percentage.
func ValidatePercentOrAmount(percentage bool, value decimal.Decimal) error {
	if value.IsNegative() {
		return ErrInvalidValue
	}
	if percentage && value.GreaterThan(hundred) {
		return ErrInvalidValue
	}
	return nil
}

func ValidateMinOrderValue(value *decimal.Decimal) error {
	if value != nil && value.IsNegative() {
		return ErrInvalidMinOrderValue
	}
	return nil
}
