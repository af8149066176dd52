package service

import (
	"bytes"
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/coupon"
	coupondomain "github.com/smallbiznis/storefront/internal/coupon/domain"
	"github.com/smallbiznis/storefront/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	"github.com/smallbiznis/storefront/internal/order/repository"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
	"github.com/smallbiznis/storefront/internal/pricing/engine"
	"github.com/smallbiznis/storefront/internal/pricing/ruledata"
	"github.com/smallbiznis/storefront/internal/providers/pdf"
	"github.com/smallbiznis/storefront/internal/storecontext"
	"github.com/smallbiznis/storefront/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var unitPrice = decimal.RequireFromString("19.99")

// fakePricing prices every product at unitPrice against one US flat rate.
// With stale set it keeps serving the first coupon it looked up.
type fakePricing struct {
	lookup coupondomain.Lookup
	clock  clock.Clock

	mu     sync.Mutex
	stale  bool
	cached map[string][]pricingdomain.Coupon
}

func (p *fakePricing) Quote(context.Context, pricingdomain.QuoteRequest) (*pricingdomain.QuoteResponse, error) {
	return nil, nil
}

func (p *fakePricing) Invalidate(int64) {}

func (p *fakePricing) BuildCart(_ context.Context, _ int64, req pricingdomain.QuoteRequest) (pricingdomain.Cart, error) {
	if len(req.Items) == 0 {
		return pricingdomain.Cart{}, pricingdomain.ErrEmptyCart
	}
	cart := pricingdomain.Cart{
		Destination:    req.Destination,
		CouponCode:     req.CouponCode,
		CashOnDelivery: req.CashOnDelivery,
		Currency:       "USD",
	}
	for _, item := range req.Items {
		id, err := strconv.ParseInt(item.ProductID, 10, 64)
		if err != nil {
			return pricingdomain.Cart{}, pricingdomain.ErrUnknownProduct
		}
		cart.Items = append(cart.Items, pricingdomain.LineItem{
			ProductID: id, Name: "Product " + item.ProductID, UnitPrice: unitPrice, Quantity: item.Quantity,
		})
	}
	return cart, nil
}

func (p *fakePricing) Price(ctx context.Context, storeID int64, cart pricingdomain.Cart) (*pricingdomain.OrderTotals, error) {
	coupons, err := p.coupons(ctx, storeID, cart.CouponCode)
	if err != nil {
		return nil, err
	}
	snap := pricingdomain.Snapshot{
		Coupons: coupons,
		Taxes: []pricingdomain.Tax{{
			ID: 1, Code: "VAT", Name: "VAT", TaxKind: pricingdomain.TaxPercentage, Value: decimal.NewFromInt(10),
			Scope: pricingdomain.Scope{Kind: pricingdomain.ScopeAll}, IsActive: true,
		}},
		ShippingRates: []pricingdomain.ShippingRate{{ID: 1, Name: "Flat", Country: "US", Price: decimal.NewFromInt(5), IsActive: true}},
	}
	return engine.New(engine.DefaultPolicy()).Price(cart, snap, p.clock.Now())
}

func (p *fakePricing) coupons(ctx context.Context, storeID int64, code string) ([]pricingdomain.Coupon, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stale {
		if cached, ok := p.cached[code]; ok {
			return cached, nil
		}
	}
	coupons, err := p.lookup.LookupRules(ctx, storeID, code)
	if err != nil {
		return nil, err
	}
	if p.cached == nil {
		p.cached = map[string][]pricingdomain.Coupon{}
	}
	p.cached[code] = coupons
	return coupons, nil
}

type fakeLocker struct{ busy bool }

func (l *fakeLocker) AcquireCheckout(context.Context, string, string) (string, bool, error) {
	if l.busy {
		return "", false, nil
	}
	return "token", true, nil
}

func (l *fakeLocker) ReleaseCheckout(context.Context, string, string, string) error { return nil }

type fixture struct {
	svc     *Service
	db      *gorm.DB
	coupons coupondomain.Service
	pricing *fakePricing
	locker  *fakeLocker
	ctx     context.Context
	storeID snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := testutil.OpenSQLite(t)
	node := testutil.NewNode(t)
	fake := clock.NewFakeClock(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))

	var (
		couponSvc coupondomain.Service
		redeemer  coupondomain.Redeemer
		lookup    coupondomain.Lookup
	)
	app := fxtest.New(t,
		fx.Supply(conn, node, zap.NewNop()),
		fx.Provide(func() clock.Clock { return fake }),
		coupon.Module,
		fx.Populate(&couponSvc, &redeemer, &lookup),
	)
	app.RequireStart()
	t.Cleanup(app.RequireStop)

	pricing := &fakePricing{lookup: lookup, clock: fake}
	locker := &fakeLocker{}
	ctx, storeID := testutil.StoreContext(node)

	svc := NewService(serviceParams{
		Log:      zap.NewNop(),
		DB:       conn,
		GenID:    node,
		Clock:    fake,
		Repo:     repository.NewRepository(conn),
		Pricing:  pricing,
		Redeemer: redeemer,
		Locker:   locker,
		Renderer: pdf.NewInvoiceRenderer(),
		Metrics:  metrics.NewNop(),
	})
	return &fixture{svc: svc, db: conn, coupons: couponSvc, pricing: pricing, locker: locker, ctx: ctx, storeID: storeID}
}

func checkoutRequest(key, coupon string) orderdomain.CheckoutRequest {
	return orderdomain.CheckoutRequest{
		QuoteRequest: pricingdomain.QuoteRequest{
			Items:       []pricingdomain.LineRequest{{ProductID: "11", Quantity: 3}},
			Destination: pricingdomain.Destination{Country: "US", Region: "CA"},
			CouponCode:  coupon,
		},
		IdempotencyKey: key,
	}
}

func (f *fixture) countOrders(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&orderdomain.Order{}).Where("store_id = ?", f.storeID).Count(&n).Error)
	return n
}

func (f *fixture) createCoupon(t *testing.T, code string, limit int64) *coupondomain.Response {
	t.Helper()
	resp, err := f.coupons.Create(f.ctx, coupondomain.CreateRequest{
		Code:       code,
		Scope:      ruledata.ScopeRequest{Kind: "all"},
		AmountKind: "fixed_amount",
		Value:      decimal.NewFromInt(5),
		UsageLimit: &limit,
	})
	require.NoError(t, err)
	return resp
}

func TestCheckoutPersistsRoundedTotals(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Checkout(f.ctx, checkoutRequest("", ""))
	require.NoError(t, err)
	assert.False(t, resp.Replayed)

	order := resp.Order
	assert.Len(t, order.Number, 26)
	assert.Equal(t, orderdomain.StatusPending, order.Status)
	assert.Equal(t, "59.97", order.Subtotal.StringFixed(2))
	assert.Equal(t, "6.00", order.TaxTotal.StringFixed(2))
	assert.Equal(t, "5.00", order.ShippingCost.StringFixed(2))
	assert.Equal(t, "70.97", order.Total.StringFixed(2))
	require.NotNil(t, order.ShippingRegion)
	assert.Equal(t, "CA", *order.ShippingRegion)

	stored, err := f.svc.Get(f.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "70.97", stored.Total.StringFixed(2))
	require.Len(t, stored.Items, 1)
	assert.Equal(t, int64(3), stored.Items[0].Quantity)
	require.Len(t, stored.TaxBreakdown, 1)
	assert.Equal(t, "VAT", stored.TaxBreakdown[0].Code)
	assert.Equal(t, []orderdomain.Status{orderdomain.StatusPaymentPending, orderdomain.StatusCancelled, orderdomain.StatusRefunded}, stored.NextStatuses)
}

func TestCheckoutIsIdempotentPerKey(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.Checkout(f.ctx, checkoutRequest("cart-1", ""))
	require.NoError(t, err)
	second, err := f.svc.Checkout(f.ctx, checkoutRequest("cart-1", ""))
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.EqualValues(t, 1, f.countOrders(t))

	_, err = f.svc.Checkout(f.ctx, checkoutRequest("cart-2", ""))
	require.NoError(t, err)
	assert.EqualValues(t, 2, f.countOrders(t))
}

func TestCheckoutRejectsWhileKeyLocked(t *testing.T) {
	f := newFixture(t)
	f.locker.busy = true

	_, err := f.svc.Checkout(f.ctx, checkoutRequest("cart-1", ""))
	assert.ErrorIs(t, err, orderdomain.ErrCheckoutInProgress)

	_, err = f.svc.Checkout(f.ctx, checkoutRequest("", ""))
	assert.NoError(t, err)
}

func TestCheckoutRedeemsCoupon(t *testing.T) {
	f := newFixture(t)
	c := f.createCoupon(t, "FIVE", 1)

	resp, err := f.svc.Checkout(f.ctx, checkoutRequest("", "five"))
	require.NoError(t, err)
	require.NotNil(t, resp.Order.CouponID)
	assert.Equal(t, c.ID, *resp.Order.CouponID)
	assert.Equal(t, "5.00", resp.Order.DiscountTotal.StringFixed(2))
	require.NotEmpty(t, resp.Order.Discounts)
	assert.Equal(t, pricingdomain.RuleKindCoupon, resp.Order.Discounts[0].Kind)

	got, err := f.coupons.Get(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.UsageCount)

	// A fresh lookup sees the coupon used up: the order goes through without it.
	resp, err = f.svc.Checkout(f.ctx, checkoutRequest("", "FIVE"))
	require.NoError(t, err)
	require.NotNil(t, resp.CouponRejection)
	assert.Equal(t, "coupon_exhausted", resp.CouponRejection.Code())
	assert.Nil(t, resp.Order.CouponID)
}

func TestCheckoutRollsBackWhenRedemptionFails(t *testing.T) {
	f := newFixture(t)
	c := f.createCoupon(t, "LAST", 1)
	f.pricing.stale = true

	_, err := f.svc.Checkout(f.ctx, checkoutRequest("", "LAST"))
	require.NoError(t, err)

	_, err = f.svc.Checkout(f.ctx, checkoutRequest("", "LAST"))
	rej, ok := pricingdomain.AsRejection(err)
	require.True(t, ok, "expected rejection, got %v", err)
	assert.Equal(t, "coupon_exhausted", rej.Code())
	assert.EqualValues(t, 1, f.countOrders(t))

	got, err := f.coupons.Get(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.UsageCount)
}

func TestCheckoutUnshippable(t *testing.T) {
	f := newFixture(t)
	req := checkoutRequest("", "")
	req.Destination = pricingdomain.Destination{Country: "FR"}

	_, err := f.svc.Checkout(f.ctx, req)
	rej, ok := pricingdomain.AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, pricingdomain.ReasonUnshippable, rej.Reason)
	assert.EqualValues(t, 0, f.countOrders(t))
}

func TestUpdateStatusRecordsHistory(t *testing.T) {
	f := newFixture(t)
	created, err := f.svc.Checkout(f.ctx, checkoutRequest("", ""))
	require.NoError(t, err)
	id := created.Order.ID

	updated, err := f.svc.UpdateStatus(f.ctx, orderdomain.UpdateStatusRequest{ID: id, Status: "payment_pending"})
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusPaymentPending, updated.Status)

	note := "customer asked to skip ahead"
	updated, err = f.svc.UpdateStatus(f.ctx, orderdomain.UpdateStatusRequest{ID: id, Status: "SHIPPED", Note: &note})
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusShipped, updated.Status)

	_, err = f.svc.UpdateStatus(f.ctx, orderdomain.UpdateStatusRequest{ID: id, Status: "lost"})
	assert.ErrorIs(t, err, orderdomain.ErrInvalidStatus)

	history, err := f.svc.History(f.ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].OnPath)
	assert.Equal(t, orderdomain.StatusPending, history[0].FromStatus)
	assert.False(t, history[1].OnPath)
	require.NotNil(t, history[1].Note)
	assert.Equal(t, note, *history[1].Note)

	stored, err := f.svc.Get(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusShipped, stored.Status)
}

func TestComments(t *testing.T) {
	f := newFixture(t)
	created, err := f.svc.Checkout(f.ctx, checkoutRequest("", ""))
	require.NoError(t, err)

	_, err = f.svc.AddComment(f.ctx, orderdomain.AddCommentRequest{OrderID: created.Order.ID, Author: "ops", Body: "  "})
	assert.ErrorIs(t, err, orderdomain.ErrInvalidComment)

	for _, body := range []string{"packed", "handed to courier"} {
		_, err := f.svc.AddComment(f.ctx, orderdomain.AddCommentRequest{OrderID: created.Order.ID, Author: "ops", Body: body})
		require.NoError(t, err)
	}

	comments, err := f.svc.ListComments(f.ctx, created.Order.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "packed", comments[0].Body)
	assert.Equal(t, "handed to courier", comments[1].Body)
}

func TestListPaginates(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		_, err := f.svc.Checkout(f.ctx, checkoutRequest("", ""))
		require.NoError(t, err)
	}

	req := orderdomain.ListRequest{}
	req.PageSize = 2
	page, err := f.svc.List(f.ctx, req)
	require.NoError(t, err)
	require.Len(t, page.Orders, 2)
	assert.True(t, page.HasMore)

	req.PageToken = page.NextPageToken
	next, err := f.svc.List(f.ctx, req)
	require.NoError(t, err)
	require.Len(t, next.Orders, 1)
	assert.False(t, next.HasMore)
	assert.NotEqual(t, page.Orders[1].ID, next.Orders[0].ID)

	_, err = f.svc.List(f.ctx, orderdomain.ListRequest{Status: "nope"})
	assert.ErrorIs(t, err, orderdomain.ErrInvalidStatus)

	filtered, err := f.svc.List(f.ctx, orderdomain.ListRequest{Status: "completed"})
	require.NoError(t, err)
	assert.Empty(t, filtered.Orders)
}

func TestGetScopedToStore(t *testing.T) {
	f := newFixture(t)
	created, err := f.svc.Checkout(f.ctx, checkoutRequest("", ""))
	require.NoError(t, err)

	otherCtx := storecontext.WithStoreID(context.Background(), f.storeID.Int64()+1)
	_, err = f.svc.Get(otherCtx, created.Order.ID)
	assert.ErrorIs(t, err, orderdomain.ErrNotFound)

	_, err = f.svc.Get(f.ctx, "not-an-id")
	assert.ErrorIs(t, err, orderdomain.ErrInvalidID)
}

func TestInvoice(t *testing.T) {
	f := newFixture(t)
	created, err := f.svc.Checkout(f.ctx, checkoutRequest("", ""))
	require.NoError(t, err)

	doc, err := f.svc.Invoice(f.ctx, created.Order.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}
