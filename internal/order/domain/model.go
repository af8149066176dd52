package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
	"gorm.io/datatypes"
)

// Item is a priced order line as it was at checkout.
type Item struct {
	ProductID  int64           `json:"product_id,string"`
	CategoryID *int64          `json:"category_id,omitempty"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int64           `json:"quantity"`
	LineTotal  decimal.Decimal `json:"line_total"`
	Discount   decimal.Decimal `json:"discount"`
	Net        decimal.Decimal `json:"net"`
}

// Order is the persisted result of a checkout. Monetary columns hold the
// rounded totals; nothing is recomputed after creation.
type Order struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	StoreID        snowflake.ID `gorm:"column:store_id;not null;index;uniqueIndex:orders_store_idempotency_key,priority:1"`
	Number         string       `gorm:"type:text;not null;uniqueIndex"`
	IdempotencyKey *string      `gorm:"column:idempotency_key;type:text;uniqueIndex:orders_store_idempotency_key,priority:2"`
	Status         Status       `gorm:"type:text;not null"`
	Currency       string       `gorm:"type:text;not null"`

	Items datatypes.JSONSlice[Item] `gorm:"column:items;not null"`

	Subtotal           decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	DiscountTotal      decimal.Decimal `gorm:"column:discount_total;type:numeric(18,2);not null"`
	DiscountedSubtotal decimal.Decimal `gorm:"column:discounted_subtotal;type:numeric(18,2);not null"`
	ShippingCost       decimal.Decimal `gorm:"column:shipping_cost;type:numeric(18,2);not null"`
	TaxTotal           decimal.Decimal `gorm:"column:tax_total;type:numeric(18,2);not null"`
	Total              decimal.Decimal `gorm:"type:numeric(18,2);not null"`

	TaxBreakdown datatypes.JSONSlice[pricingdomain.TaxLine]     `gorm:"column:tax_breakdown;not null"`
	Discounts    datatypes.JSONSlice[pricingdomain.AppliedRule] `gorm:"column:discounts;not null"`

	CouponID        *snowflake.ID `gorm:"column:coupon_id"`
	CouponCode      *string       `gorm:"column:coupon_code;type:text"`
	ShippingRateID  snowflake.ID  `gorm:"column:shipping_rate_id;not null"`
	ShippingCountry string        `gorm:"column:shipping_country;type:text;not null"`
	ShippingRegion  *string       `gorm:"column:shipping_region;type:text"`
	CashOnDelivery  bool          `gorm:"column:cash_on_delivery;not null;default:false"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Order) TableName() string { return "orders" }

// StatusEvent is one append-only entry of an order's status history.
type StatusEvent struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	StoreID    snowflake.ID `gorm:"column:store_id;not null"`
	OrderID    snowflake.ID `gorm:"column:order_id;not null;index"`
	FromStatus Status       `gorm:"column:from_status;type:text;not null"`
	ToStatus   Status       `gorm:"column:to_status;type:text;not null"`
	OnPath     bool         `gorm:"column:on_path;not null"`
	Note       *string      `gorm:"type:text"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (StatusEvent) TableName() string { return "order_status_events" }

type Comment struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	StoreID   snowflake.ID `gorm:"column:store_id;not null"`
	OrderID   snowflake.ID `gorm:"column:order_id;not null;index"`
	Author    string       `gorm:"type:text;not null"`
	Body      string       `gorm:"type:text;not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Comment) TableName() string { return "order_comments" }

func (c *Comment) Validate() error {
	if strings.TrimSpace(c.Author) == "" || strings.TrimSpace(c.Body) == "" {
		return ErrInvalidComment
	}
	return nil
}

// NewOrder snapshots rounded totals into an order row.
func NewOrder(id, storeID snowflake.ID, number string, cart pricingdomain.Cart, totals pricingdomain.OrderTotals, now time.Time) *Order {
	rounded := totals.Rounded()

	items := make(datatypes.JSONSlice[Item], 0, len(rounded.Lines))
	for _, line := range rounded.Lines {
		items = append(items, Item{
			ProductID:  line.ProductID,
			CategoryID: line.CategoryID,
			Name:       line.Name,
			UnitPrice:  line.UnitPrice,
			Quantity:   line.Quantity,
			LineTotal:  line.LineTotal,
			Discount:   line.Discount,
			Net:        line.Net,
		})
	}

	// The coupon, when applied, is stored first among the discounts.
	discounts := make(datatypes.JSONSlice[pricingdomain.AppliedRule], 0, len(rounded.Discounts)+1)
	if rounded.Coupon != nil {
		discounts = append(discounts, *rounded.Coupon)
	}
	discounts = append(discounts, rounded.Discounts...)

	order := &Order{
		ID:                 id,
		StoreID:            storeID,
		Number:             number,
		Status:             StatusPending,
		Currency:           rounded.Currency,
		Items:              items,
		Subtotal:           rounded.Subtotal,
		DiscountTotal:      rounded.DiscountTotal,
		DiscountedSubtotal: rounded.DiscountedSubtotal,
		ShippingCost:       rounded.ShippingCost,
		TaxTotal:           rounded.TaxTotal,
		Total:              rounded.Total,
		TaxBreakdown:       append(datatypes.JSONSlice[pricingdomain.TaxLine]{}, rounded.TaxBreakdown...),
		Discounts:          discounts,
		ShippingRateID:     snowflake.ID(rounded.Shipping.RateID),
		ShippingCountry:    cart.Destination.Country,
		CashOnDelivery:     cart.CashOnDelivery,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if region := strings.TrimSpace(cart.Destination.Region); region != "" {
		order.ShippingRegion = &region
	}
	if rounded.Coupon != nil {
		couponID := snowflake.ID(rounded.Coupon.RuleID)
		code := rounded.Coupon.Label
		order.CouponID = &couponID
		order.CouponCode = &code
	}
	return order
}
