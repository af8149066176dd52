package domain

import (
	"context"
	"errors"
)

var (
	ErrEmptyCart       = errors.New("empty_cart")
	ErrUnknownProduct  = errors.New("unknown_product")
	ErrInactiveProduct = errors.New("inactive_product")
	ErrInvalidQuantity = errors.New("invalid_quantity")
)

// Service prices carts for the calling store.
type Service interface {
	Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error)
	BuildCart(ctx context.Context, storeID int64, req QuoteRequest) (Cart, error)
	Price(ctx context.Context, storeID int64, cart Cart) (*OrderTotals, error)
	Invalidate(storeID int64)
}

type LineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type QuoteRequest struct {
	Items          []LineRequest `json:"items"`
	Destination    Destination   `json:"destination"`
	CouponCode     string        `json:"coupon_code"`
	CashOnDelivery bool          `json:"cash_on_delivery"`
	Currency       string        `json:"currency"`
}

// QuoteResponse carries the rounded totals of a priced cart.
type QuoteResponse struct {
	OrderTotals
}
