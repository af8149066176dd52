package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
)

type Service interface {
	Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
	UpdateStatus(ctx context.Context, req UpdateStatusRequest) (*Response, error)
	History(ctx context.Context, id string) ([]StatusEventResponse, error)
	AddComment(ctx context.Context, req AddCommentRequest) (*CommentResponse, error)
	ListComments(ctx context.Context, id string) ([]CommentResponse, error)
	Invoice(ctx context.Context, id string) ([]byte, error)
}

// InvoiceRenderer turns a persisted order into a printable document.
type InvoiceRenderer interface {
	RenderInvoice(order Order) ([]byte, error)
}

// CheckoutRequest is a quote request plus an optional client idempotency
// key. Repeating a key returns the order created by the first request.
type CheckoutRequest struct {
	pricingdomain.QuoteRequest
	IdempotencyKey string `json:"idempotency_key"`
}

type CheckoutResponse struct {
	Order           Response                 `json:"order"`
	CouponRejection *pricingdomain.Rejection `json:"coupon_rejection,omitempty"`
	Replayed        bool                     `json:"replayed"`
}

type ListRequest struct {
	pagination.Pagination
	Status string
}

type ListResponse struct {
	pagination.PageInfo
	Orders []Response `json:"orders"`
}

type UpdateStatusRequest struct {
	ID     string  `json:"id"`
	Status string  `json:"status"`
	Note   *string `json:"note"`
}

type AddCommentRequest struct {
	OrderID string `json:"order_id"`
	Author  string `json:"author"`
	Body    string `json:"body"`
}

type Response struct {
	ID                 string                      `json:"id"`
	StoreID            string                      `json:"store_id"`
	Number             string                      `json:"number"`
	Status             Status                      `json:"status"`
	NextStatuses       []Status                    `json:"next_statuses"`
	Currency           string                      `json:"currency"`
	Items              []Item                      `json:"items"`
	Subtotal           decimal.Decimal             `json:"subtotal"`
	DiscountTotal      decimal.Decimal             `json:"discount_total"`
	DiscountedSubtotal decimal.Decimal             `json:"discounted_subtotal"`
	ShippingCost       decimal.Decimal             `json:"shipping_cost"`
	TaxTotal           decimal.Decimal             `json:"tax_total"`
	Total              decimal.Decimal             `json:"total"`
	TaxBreakdown       []pricingdomain.TaxLine     `json:"tax_breakdown"`
	Discounts          []pricingdomain.AppliedRule `json:"discounts"`
	CouponID           *string                     `json:"coupon_id,omitempty"`
	CouponCode         *string                     `json:"coupon_code,omitempty"`
	ShippingRateID     string                      `json:"shipping_rate_id"`
	ShippingCountry    string                      `json:"shipping_country"`
	ShippingRegion     *string                     `json:"shipping_region,omitempty"`
	CashOnDelivery     bool                        `json:"cash_on_delivery"`
	CreatedAt          time.Time                   `json:"created_at"`
	UpdatedAt          time.Time                   `json:"updated_at"`
}

type StatusEventResponse struct {
	ID         string    `json:"id"`
	FromStatus Status    `json:"from_status"`
	ToStatus   Status    `json:"to_status"`
	OnPath     bool      `json:"on_path"`
	Note       *string   `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type CommentResponse struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// CheckoutLocker serializes checkouts that share an idempotency key.
type CheckoutLocker interface {
	AcquireCheckout(ctx context.Context, storeID, idempotencyKey string) (string, bool, error)
	ReleaseCheckout(ctx context.Context, storeID, idempotencyKey, token string) error
}
