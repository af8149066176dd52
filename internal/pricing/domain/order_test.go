package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func thirdsTotals() OrderTotals {
	third := decimal.NewFromInt(10).Div(decimal.NewFromInt(3))
	line := func(discount decimal.Decimal) PricedLine {
		ten := decimal.NewFromInt(10)
		return PricedLine{
			LineItem:  LineItem{ProductID: 1, UnitPrice: ten, Quantity: 1},
			LineTotal: ten,
			Discount:  discount,
			Net:       ten.Sub(discount),
		}
	}
	last := decimal.NewFromInt(10).Sub(third).Sub(third)
	return OrderTotals{
		Lines:              []PricedLine{line(third), line(third), line(last)},
		Subtotal:           decimal.NewFromInt(30),
		DiscountTotal:      decimal.NewFromInt(10),
		DiscountedSubtotal: decimal.NewFromInt(20),
		Total:              decimal.NewFromInt(20),
	}
}

func TestRoundedLineDiscountsAddUpToDiscountTotal(t *testing.T) {
	rounded := thirdsTotals().Rounded()

	require.Len(t, rounded.Lines, 3)
	assert.Equal(t, "3.33", rounded.Lines[0].Discount.StringFixed(2))
	assert.Equal(t, "3.33", rounded.Lines[1].Discount.StringFixed(2))
	assert.Equal(t, "3.34", rounded.Lines[2].Discount.StringFixed(2))
	assert.Equal(t, "6.66", rounded.Lines[2].Net.StringFixed(2))

	sum := decimal.Zero
	for _, line := range rounded.Lines {
		sum = sum.Add(line.Discount)
	}
	assert.True(t, sum.Equal(rounded.DiscountTotal), "lines %s, discount_total %s", sum, rounded.DiscountTotal)
	assert.Equal(t, "20.00", rounded.DiscountedSubtotal.StringFixed(2))
}

func TestRoundedRemainderSkipsLinesItCannotFit(t *testing.T) {
	totals := OrderTotals{
		Lines: []PricedLine{
			{LineTotal: decimal.NewFromInt(5), Discount: decimal.RequireFromString("2.004")},
			{LineTotal: decimal.RequireFromString("0.004"), Discount: decimal.RequireFromString("0.004")},
		},
		Subtotal:      decimal.RequireFromString("5.004"),
		DiscountTotal: decimal.RequireFromString("2.008"),
	}

	rounded := totals.Rounded()
	assert.Equal(t, "2.01", rounded.DiscountTotal.StringFixed(2))
	assert.Equal(t, "0.00", rounded.Lines[1].Discount.StringFixed(2))
	assert.Equal(t, "2.01", rounded.Lines[0].Discount.StringFixed(2))
}

func TestRoundedTotalIsSumOfRoundedParts(t *testing.T) {
	totals := OrderTotals{
		Subtotal:           decimal.RequireFromString("10"),
		DiscountTotal:      decimal.RequireFromString("0.005"),
		DiscountedSubtotal: decimal.RequireFromString("9.995"),
		ShippingCost:       decimal.RequireFromString("1"),
		TaxTotal:           decimal.RequireFromString("0.004"),
		Total:              decimal.RequireFromString("10.999"),
	}

	rounded := totals.Rounded()
	assert.Equal(t, "0.01", rounded.DiscountTotal.StringFixed(2))
	assert.Equal(t, "9.99", rounded.DiscountedSubtotal.StringFixed(2))
	assert.Equal(t, "10.99", rounded.Total.StringFixed(2))
}
