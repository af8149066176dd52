// Package pdf renders order documents with maroto.
package pdf

import (
	"fmt"
	"strconv"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
)

const dateLayout = "2006-01-02"

type InvoiceRenderer struct {
	storeName string
}

func NewInvoiceRenderer() orderdomain.InvoiceRenderer {
	return &InvoiceRenderer{storeName: "Storefront"}
}

// RenderInvoice lays out the order's stored totals. Nothing is recomputed;
// the document shows exactly what was charged.
func (r *InvoiceRenderer) RenderInvoice(order orderdomain.Order) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(8, r.storeName, props.Text{Size: 16, Style: fontstyle.Bold}),
		text.NewCol(4, "Invoice", props.Text{Size: 20, Style: fontstyle.Bold, Align: align.Right}),
	)

	shipTo := order.ShippingCountry
	if order.ShippingRegion != nil {
		shipTo = *order.ShippingRegion + ", " + shipTo
	}
	payment := "Prepaid"
	if order.CashOnDelivery {
		payment = "Cash on delivery"
	}

	m.AddRow(22,
		col.New(6).Add(
			text.New("Order number: "+order.Number, props.Text{Top: 0}),
			text.New("Date: "+order.CreatedAt.Format(dateLayout), props.Text{Top: 5}),
			text.New("Status: "+string(order.Status), props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New("Ship to", props.Text{Style: fontstyle.Bold, Align: align.Right}),
			text.New(shipTo, props.Text{Top: 5, Align: align.Right}),
			text.New(payment, props.Text{Top: 10, Align: align.Right}),
		),
	)

	m.AddRow(8,
		text.NewCol(5, "Item", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(1, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Discount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))

	for _, item := range order.Items {
		m.AddRow(7,
			text.NewCol(5, item.Name, props.Text{Size: 9}),
			text.NewCol(1, strconv.FormatInt(item.Quantity, 10), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, money(item.UnitPrice), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, money(item.Discount.Neg()), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, money(item.Net), props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(2, line.NewCol(12))

	totalRow := func(label string, amount decimal.Decimal, bold bool) {
		style := fontstyle.Normal
		if bold {
			style = fontstyle.Bold
		}
		m.AddRow(6,
			col.New(7),
			text.NewCol(3, label, props.Text{Size: 9, Style: style}),
			text.NewCol(2, money(amount), props.Text{Size: 9, Style: style, Align: align.Right}),
		)
	}

	totalRow("Subtotal", order.Subtotal, false)
	for _, d := range order.Discounts {
		label := d.Label
		if d.Kind == pricingdomain.RuleKindCoupon {
			label = "Coupon " + label
		}
		totalRow(label, d.Amount.Neg(), false)
	}
	totalRow("Shipping", order.ShippingCost, false)
	for _, tax := range order.TaxBreakdown {
		totalRow(taxLabel(tax), tax.Amount, false)
	}
	totalRow(fmt.Sprintf("Total (%s)", order.Currency), order.Total, true)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate invoice %s: %w", order.Number, err)
	}
	return doc.GetBytes(), nil
}

func money(v decimal.Decimal) string {
	return v.StringFixed(2)
}

func taxLabel(tax pricingdomain.TaxLine) string {
	name := tax.Name
	if name == "" {
		name = tax.Code
	}
	if tax.Kind == pricingdomain.TaxPercentage {
		return fmt.Sprintf("%s (%s%%)", name, tax.Rate.String())
	}
	return name
}
