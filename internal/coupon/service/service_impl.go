package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/clock"
	coupondomain "github.com/smallbiznis/storefront/internal/coupon/domain"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
	"github.com/smallbiznis/storefront/internal/pricing/ruledata"
	"github.com/smallbiznis/storefront/internal/storecontext"
	"github.com/smallbiznis/storefront/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type serviceParams struct {
	fx.In

	Log   *zap.Logger
	DB    *gorm.DB
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  coupondomain.Repository
}

type Service struct {
	log   *zap.Logger
	db    *gorm.DB
	genID *snowflake.Node
	clock clock.Clock
	repo  coupondomain.Repository
}

func NewService(p serviceParams) *Service {
	return &Service{
		log:   p.Log.Named("coupon.service"),
		db:    p.DB,
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req coupondomain.CreateRequest) (*coupondomain.Response, error) {
	storeID, ok := storecontext.StoreIDFromContext(ctx)
	if !ok {
		return nil, coupondomain.ErrInvalidStore
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, coupondomain.ErrInvalidCode
	}

	scope, err := ruledata.ParseScope(req.Scope)
	if err != nil {
		return nil, err
	}
	kind, err := ruledata.NormalizeAmountKind(req.AmountKind)
	if err != nil {
		return nil, err
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	now := s.clock.Now()
	record := &coupondomain.Coupon{
		ID:             s.genID.Generate(),
		StoreID:        storeID,
		Code:           code,
		NormalizedCode: pricingdomain.NormalizeCouponCode(code),
		ScopeColumns:   scope,
		AmountKind:     kind,
		Value:          req.Value,
		StartsAt:       utc(req.StartsAt),
		EndsAt:         utc(req.EndsAt),
		MinOrderValue:  req.MinOrderValue,
		UsageLimit:     req.UsageLimit,
		IsActive:       isActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, record); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, coupondomain.ErrCodeTaken
		}
		return nil, err
	}

	resp := toResponse(record)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*coupondomain.Response, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req coupondomain.ListRequest) ([]coupondomain.Response, error) {
	storeID, ok := storecontext.StoreIDFromContext(ctx)
	if !ok {
		return nil, coupondomain.ErrInvalidStore
	}

	filter := coupondomain.ListRequest{
		Code:     pricingdomain.NormalizeCouponCode(req.Code),
		IsActive: req.IsActive,
		SortBy:   strings.TrimSpace(req.SortBy),
		OrderBy:  strings.TrimSpace(req.OrderBy),
	}

	items, err := s.repo.List(ctx, storeID, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]coupondomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

// Update edits everything but the code and the usage counter.
func (s *Service) Update(ctx context.Context, req coupondomain.UpdateRequest) (*coupondomain.Response, error) {
	item, err := s.find(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Scope != nil {
		scope, err := ruledata.ParseScope(*req.Scope)
		if err != nil {
			return nil, err
		}
		item.ScopeColumns = scope
	}
	if req.AmountKind != nil {
		kind, err := ruledata.NormalizeAmountKind(*req.AmountKind)
		if err != nil {
			return nil, err
		}
		item.AmountKind = kind
	}
	if req.Value != nil {
		item.Value = *req.Value
	}
	if req.StartsAt != nil {
		item.StartsAt = utc(req.StartsAt)
	}
	if req.EndsAt != nil {
		item.EndsAt = utc(req.EndsAt)
	}
	if req.MinOrderValue != nil {
		item.MinOrderValue = req.MinOrderValue
	}
	if req.UsageLimit != nil {
		item.UsageLimit = req.UsageLimit
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}

	item.UpdatedAt = s.clock.Now()
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Disable(ctx context.Context, id string) (*coupondomain.Response, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	item.IsActive = false
	item.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}

	resp := toResponse(item)
	return &resp, nil
}

// LookupRules returns the coupon matching code, or nothing. Coupons are read
// fresh on every call so usage counts are never served from a cache.
func (s *Service) LookupRules(ctx context.Context, storeID int64, code string) ([]pricingdomain.Coupon, error) {
	normalized := pricingdomain.NormalizeCouponCode(code)
	if normalized == "" {
		return nil, nil
	}
	item, err := s.repo.FindByCode(ctx, snowflake.ID(storeID), normalized)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	return []pricingdomain.Coupon{item.ToRule()}, nil
}

// Redeem consumes one use of the coupon for orderID. It must run inside the
// transaction that persists the order. Redeeming the same pair twice is a
// no-op. When the coupon is inactive or used up, a *pricingdomain.Rejection
// is returned and the caller is expected to roll back.
func (s *Service) Redeem(ctx context.Context, tx *gorm.DB, storeID, couponID, orderID int64) error {
	if tx == nil {
		tx = s.db
	}
	now := s.clock.Now()

	inserted, err := s.repo.InsertRedemption(ctx, tx, &coupondomain.Redemption{
		CouponID:   snowflake.ID(couponID),
		OrderID:    snowflake.ID(orderID),
		StoreID:    snowflake.ID(storeID),
		RedeemedAt: now,
	})
	if err != nil {
		return err
	}
	if !inserted {
		s.log.Info("coupon already redeemed for order",
			zap.Int64("coupon_id", couponID),
			zap.Int64("order_id", orderID),
		)
		return nil
	}

	updated, err := s.repo.IncrementUsage(ctx, tx, snowflake.ID(storeID), snowflake.ID(couponID), now)
	if err != nil {
		return err
	}
	if updated {
		return nil
	}

	reason := pricingdomain.ReasonExhausted
	current, err := s.repo.FindByIDTx(ctx, tx, snowflake.ID(storeID), snowflake.ID(couponID))
	if err != nil {
		return err
	}
	switch {
	case current == nil:
		reason = pricingdomain.ReasonNotFound
	case !current.IsActive:
		reason = pricingdomain.ReasonInactive
	}

	s.log.Warn("coupon redemption refused",
		zap.Int64("coupon_id", couponID),
		zap.Int64("order_id", orderID),
		zap.String("reason", string(reason)),
	)
	return &pricingdomain.Rejection{Kind: pricingdomain.RuleKindCoupon, RuleID: couponID, Reason: reason}
}

func (s *Service) find(ctx context.Context, id string) (*coupondomain.Coupon, error) {
	storeID, ok := storecontext.StoreIDFromContext(ctx)
	if !ok {
		return nil, coupondomain.ErrInvalidStore
	}

	couponID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, coupondomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, storeID, couponID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, coupondomain.ErrNotFound
	}
	return item, nil
}

func toResponse(c *coupondomain.Coupon) coupondomain.Response {
	return coupondomain.Response{
		ID:            c.ID.String(),
		StoreID:       c.StoreID.String(),
		Code:          c.Code,
		Scope:         c.ScopeColumns.ToResponse(),
		AmountKind:    c.AmountKind,
		Value:         c.Value,
		StartsAt:      c.StartsAt,
		EndsAt:        c.EndsAt,
		MinOrderValue: c.MinOrderValue,
		UsageLimit:    c.UsageLimit,
		UsageCount:    c.UsageCount,
		IsActive:      c.IsActive,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
