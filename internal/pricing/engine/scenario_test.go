package engine_test

import (
	"os"
	"testing"

	"github.com/smallbiznis/storefront/internal/pricing/domain"
	"github.com/smallbiznis/storefront/internal/pricing/engine"
	"github.com/smallbiznis/storefront/internal/pricing/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios(t *testing.T) {
	f, err := os.Open("testdata/scenarios.yaml")
	require.NoError(t, err)
	defer f.Close()

	scenarios, err := fixture.Load(f)
	require.NoError(t, err)

	for _, sc := range scenarios {
		sc := sc
		t.Run(sc.Name, func(t *testing.T) {
			cart, snap, policy, now, err := sc.Build()
			require.NoError(t, err)

			totals, err := engine.New(policy).Price(cart, snap, now)
			if sc.Expect.Error != "" {
				require.Error(t, err)
				rej, ok := domain.AsRejection(err)
				require.True(t, ok, "expected a rejection, got %v", err)
				assert.Equal(t, sc.Expect.Error, rej.Code())
				assert.Nil(t, totals)
				return
			}
			require.NoError(t, err)

			rounded := totals.Rounded()
			checkAmount(t, "subtotal", sc.Expect.Subtotal, rounded.Subtotal.StringFixed(2))
			checkAmount(t, "discount_total", sc.Expect.DiscountTotal, rounded.DiscountTotal.StringFixed(2))
			checkAmount(t, "discounted_subtotal", sc.Expect.DiscountedSubtotal, rounded.DiscountedSubtotal.StringFixed(2))
			checkAmount(t, "shipping_cost", sc.Expect.ShippingCost, rounded.ShippingCost.StringFixed(2))
			checkAmount(t, "tax_total", sc.Expect.TaxTotal, rounded.TaxTotal.StringFixed(2))
			checkAmount(t, "total", sc.Expect.Total, rounded.Total.StringFixed(2))

			if sc.Expect.CouponRejection != "" {
				require.NotNil(t, totals.CouponRejection)
				assert.Equal(t, sc.Expect.CouponRejection, totals.CouponRejection.Code())
				assert.Nil(t, totals.Coupon)
			} else {
				assert.Nil(t, totals.CouponRejection)
			}
			if sc.Expect.CouponAmount != "" {
				require.NotNil(t, rounded.Coupon)
				assert.Equal(t, sc.Expect.CouponAmount, rounded.Coupon.Amount.StringFixed(2))
			}
			if sc.Expect.ShippingRateID != 0 {
				assert.Equal(t, sc.Expect.ShippingRateID, totals.Shipping.RateID)
			}
			for code, want := range sc.Expect.Taxes {
				got, ok := totals.TaxBreakdownByCode()[code]
				require.True(t, ok, "missing tax %s", code)
				assert.Equal(t, want, got.StringFixed(2), "tax %s", code)
			}
			if sc.Expect.LineDiscounts != nil {
				require.Len(t, rounded.Lines, len(sc.Expect.LineDiscounts))
				for i, want := range sc.Expect.LineDiscounts {
					assert.Equal(t, want, rounded.Lines[i].Discount.StringFixed(2), "line %d", i)
				}
			}

			assert.False(t, totals.Total.IsNegative())
			assert.False(t, totals.DiscountedSubtotal.IsNegative())
		})
	}
}

func checkAmount(t *testing.T, field, want, got string) {
	t.Helper()
	if want == "" {
		return
	}
	assert.Equal(t, want, got, field)
}
