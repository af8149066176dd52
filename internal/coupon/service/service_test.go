package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storefront/internal/clock"
	coupondomain "github.com/smallbiznis/storefront/internal/coupon/domain"
	"github.com/smallbiznis/storefront/internal/coupon/repository"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
	"github.com/smallbiznis/storefront/internal/pricing/ruledata"
	"github.com/smallbiznis/storefront/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc     *Service
	db      *gorm.DB
	ctx     context.Context
	storeID int64
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := testutil.OpenSQLite(t)
	node := testutil.NewNode(t)
	svc := NewService(serviceParams{
		Log:   zap.NewNop(),
		DB:    conn,
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)),
		Repo:  repository.NewRepository(conn),
	})
	ctx, storeID := testutil.StoreContext(node)
	return fixture{svc: svc, db: conn, ctx: ctx, storeID: storeID.Int64()}
}

func int64Ptr(v int64) *int64 { return &v }

func (f fixture) createCoupon(t *testing.T, code string, limit *int64) *coupondomain.Response {
	t.Helper()
	resp, err := f.svc.Create(f.ctx, coupondomain.CreateRequest{
		Code:       code,
		Scope:      ruledata.ScopeRequest{Kind: "all"},
		AmountKind: "percentage",
		Value:      decimal.NewFromInt(10),
		UsageLimit: limit,
	})
	require.NoError(t, err)
	return resp
}

func mustID(t *testing.T, raw string) int64 {
	t.Helper()
	id, err := snowflake.ParseString(raw)
	require.NoError(t, err)
	return id.Int64()
}

func TestCreateNormalizesCodeAndRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	f.createCoupon(t, " Summer10 ", nil)

	_, err := f.svc.Create(f.ctx, coupondomain.CreateRequest{
		Code:       "SUMMER10",
		AmountKind: "fixed_amount",
		Value:      decimal.NewFromInt(5),
	})
	assert.ErrorIs(t, err, coupondomain.ErrCodeTaken)

	rules, err := f.svc.LookupRules(f.ctx, f.storeID, "summer10")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "Summer10", rules[0].Code)
	assert.True(t, rules[0].IsActive)

	none, err := f.svc.LookupRules(f.ctx, f.storeID, "winter")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(f.ctx, coupondomain.CreateRequest{Code: "A", AmountKind: "percentage", Value: decimal.NewFromInt(150)})
	assert.ErrorIs(t, err, ruledata.ErrInvalidValue)

	_, err = f.svc.Create(f.ctx, coupondomain.CreateRequest{Code: "B", AmountKind: "bogus", Value: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ruledata.ErrInvalidAmountKind)

	_, err = f.svc.Create(f.ctx, coupondomain.CreateRequest{Code: "C", AmountKind: "percentage", Value: decimal.NewFromInt(1), UsageLimit: int64Ptr(-1)})
	assert.ErrorIs(t, err, coupondomain.ErrInvalidUsageLimit)

	_, err = f.svc.Create(f.ctx, coupondomain.CreateRequest{Code: " ", AmountKind: "percentage"})
	assert.ErrorIs(t, err, coupondomain.ErrInvalidCode)
}

func TestUpdateKeepsUsageCount(t *testing.T) {
	f := newFixture(t)
	c := f.createCoupon(t, "KEEP", int64Ptr(5))
	couponID := mustID(t, c.ID)

	require.NoError(t, f.svc.Redeem(f.ctx, f.db, f.storeID, couponID, 1))

	value := decimal.NewFromInt(20)
	updated, err := f.svc.Update(f.ctx, coupondomain.UpdateRequest{
		ID:    c.ID,
		Value: &value,
		Scope: &ruledata.ScopeRequest{Kind: "specific_products", ProductIDs: []string{"42"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.UsageCount)
	assert.True(t, updated.Value.Equal(value))
	assert.Equal(t, []string{"42"}, updated.Scope.ProductIDs)

	disabled, err := f.svc.Disable(f.ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, disabled.IsActive)
}

func TestRedeemIsIdempotentPerOrder(t *testing.T) {
	f := newFixture(t)
	c := f.createCoupon(t, "ONCE", int64Ptr(3))
	couponID := mustID(t, c.ID)

	for i := 0; i < 3; i++ {
		require.NoError(t, f.svc.Redeem(f.ctx, f.db, f.storeID, couponID, 777))
	}

	got, err := f.svc.Get(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.UsageCount)
}

func TestRedeemRefusesWhenExhaustedOrInactive(t *testing.T) {
	f := newFixture(t)
	c := f.createCoupon(t, "TWO", int64Ptr(2))
	couponID := mustID(t, c.ID)

	require.NoError(t, f.svc.Redeem(f.ctx, f.db, f.storeID, couponID, 1))
	require.NoError(t, f.svc.Redeem(f.ctx, f.db, f.storeID, couponID, 2))

	err := f.db.Transaction(func(tx *gorm.DB) error {
		return f.svc.Redeem(f.ctx, tx, f.storeID, couponID, 3)
	})
	rej, ok := pricingdomain.AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, "coupon_exhausted", rej.Code())

	var redemptions int64
	require.NoError(t, f.db.Model(&coupondomain.Redemption{}).Where("coupon_id = ?", couponID).Count(&redemptions).Error)
	assert.Equal(t, int64(2), redemptions)

	other := f.createCoupon(t, "OFF", nil)
	_, err = f.svc.Disable(f.ctx, other.ID)
	require.NoError(t, err)
	err = f.db.Transaction(func(tx *gorm.DB) error {
		return f.svc.Redeem(f.ctx, tx, f.storeID, mustID(t, other.ID), 9)
	})
	rej, ok = pricingdomain.AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, "coupon_inactive", rej.Code())
}

func TestConcurrentRedemptionsNeverExceedLimit(t *testing.T) {
	f := newFixture(t)
	const (
		limit    = 5
		attempts = 20
	)
	c := f.createCoupon(t, "RUSH", int64Ptr(limit))
	couponID := mustID(t, c.ID)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		refused   int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(orderID int64) {
			defer wg.Done()
			err := f.db.Transaction(func(tx *gorm.DB) error {
				return f.svc.Redeem(f.ctx, tx, f.storeID, couponID, orderID)
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			if rej, ok := pricingdomain.AsRejection(err); ok && rej.Reason == pricingdomain.ReasonExhausted {
				refused++
			}
		}(int64(1000 + i))
	}
	wg.Wait()

	assert.Equal(t, limit, succeeded)
	assert.Equal(t, attempts-limit, refused)

	got, err := f.svc.Get(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(limit), got.UsageCount)
}
