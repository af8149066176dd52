package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/clock"
	discountdomain "github.com/smallbiznis/storefront/internal/discount/domain"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
	"github.com/smallbiznis/storefront/internal/pricing/ruledata"
	"github.com/smallbiznis/storefront/internal/storecontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type serviceParams struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  discountdomain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  discountdomain.Repository
}

func NewService(p serviceParams) *Service {
	return &Service{
		log:   p.Log.Named("discount.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req discountdomain.CreateRequest) (*discountdomain.Response, error) {
	storeID, ok := storecontext.StoreIDFromContext(ctx)
	if !ok {
		return nil, discountdomain.ErrInvalidStore
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, discountdomain.ErrInvalidName
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
	record := &discountdomain.Discount{
		ID:            s.genID.Generate(),
		StoreID:       storeID,
		Name:          name,
		ScopeColumns:  scope,
		AmountKind:    kind,
		Value:         req.Value,
		StartsAt:      utc(req.StartsAt),
		EndsAt:        utc(req.EndsAt),
		MinOrderValue: req.MinOrderValue,
		IsActive:      isActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}

	resp := toResponse(record)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req discountdomain.ListRequest) ([]discountdomain.Response, error) {
	storeID, ok := storecontext.StoreIDFromContext(ctx)
	if !ok {
		return nil, discountdomain.ErrInvalidStore
	}

	items, err := s.repo.List(ctx, storeID, discountdomain.ListRequest{
		Name:     strings.TrimSpace(req.Name),
		IsActive: req.IsActive,
		SortBy:   strings.TrimSpace(req.SortBy),
		OrderBy:  strings.TrimSpace(req.OrderBy),
	})
	if err != nil {
		return nil, err
	}

	resp := make([]discountdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Update(ctx context.Context, req discountdomain.UpdateRequest) (*discountdomain.Response, error) {
	storeID, ok := storecontext.StoreIDFromContext(ctx)
	if !ok {
		return nil, discountdomain.ErrInvalidStore
	}

	discountID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, discountdomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, storeID, discountID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, discountdomain.ErrNotFound
	}

	if req.Name != nil {
		item.Name = strings.TrimSpace(*req.Name)
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

// ActiveRules returns active discounts in id order, the order they are
// applied in. Windows and minimums are left to the pricing gate.
func (s *Service) ActiveRules(ctx context.Context, storeID int64) ([]pricingdomain.Discount, error) {
	active := true
	items, err := s.repo.List(ctx, snowflake.ID(storeID), discountdomain.ListRequest{IsActive: &active})
	if err != nil {
		return nil, err
	}
	out := make([]pricingdomain.Discount, 0, len(items))
	for _, item := range items {
		out = append(out, item.ToRule())
	}
	return out, nil
}

func toResponse(d *discountdomain.Discount) discountdomain.Response {
	return discountdomain.Response{
		ID:            d.ID.String(),
		StoreID:       d.StoreID.String(),
		Name:          d.Name,
		Scope:         d.ScopeColumns.ToResponse(),
		AmountKind:    d.AmountKind,
		Value:         d.Value,
		StartsAt:      d.StartsAt,
		EndsAt:        d.EndsAt,
		MinOrderValue: d.MinOrderValue,
		IsActive:      d.IsActive,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
