package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/clock"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
	shippingdomain "github.com/smallbiznis/storefront/internal/shipping/domain"
	"github.com/smallbiznis/storefront/internal/storecontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type serviceParams struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  shippingdomain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  shippingdomain.Repository
}

func NewService(p serviceParams) *Service {
	return &Service{
		log:   p.Log.Named("shipping.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req shippingdomain.CreateRequest) (*shippingdomain.Response, error) {
	storeID, ok := storecontext.StoreIDFromContext(ctx)
	if !ok {
		return nil, shippingdomain.ErrInvalidStore
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	now := s.clock.Now()
	record := &shippingdomain.Rate{
		ID:            s.genID.Generate(),
		StoreID:       storeID,
		Name:          strings.TrimSpace(req.Name),
		Country:       shippingdomain.NormalizeCountry(req.Country),
		Region:        shippingdomain.NormalizeRegion(req.Region),
		Price:         req.Price,
		MinOrderValue: req.MinOrderValue,
		AcceptsCOD:    req.AcceptsCOD,
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

func (s *Service) List(ctx context.Context, req shippingdomain.ListRequest) ([]shippingdomain.Response, error) {
	storeID, ok := storecontext.StoreIDFromContext(ctx)
	if !ok {
		return nil, shippingdomain.ErrInvalidStore
	}

	items, err := s.repo.List(ctx, storeID, shippingdomain.ListRequest{
		Country:  shippingdomain.NormalizeCountry(req.Country),
		IsActive: req.IsActive,
		SortBy:   strings.TrimSpace(req.SortBy),
		OrderBy:  strings.TrimSpace(req.OrderBy),
	})
	if err != nil {
		return nil, err
	}

	resp := make([]shippingdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Update(ctx context.Context, req shippingdomain.UpdateRequest) (*shippingdomain.Response, error) {
	storeID, ok := storecontext.StoreIDFromContext(ctx)
	if !ok {
		return nil, shippingdomain.ErrInvalidStore
	}

	rateID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, shippingdomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, storeID, rateID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, shippingdomain.ErrNotFound
	}

	if req.Name != nil {
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.Region != nil {
		item.Region = shippingdomain.NormalizeRegion(req.Region)
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.MinOrderValue != nil {
		item.MinOrderValue = req.MinOrderValue
	}
	if req.AcceptsCOD != nil {
		item.AcceptsCOD = *req.AcceptsCOD
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

func (s *Service) ActiveRates(ctx context.Context, storeID int64) ([]pricingdomain.ShippingRate, error) {
	active := true
	items, err := s.repo.List(ctx, snowflake.ID(storeID), shippingdomain.ListRequest{IsActive: &active})
	if err != nil {
		return nil, err
	}
	out := make([]pricingdomain.ShippingRate, 0, len(items))
	for _, item := range items {
		out = append(out, item.ToRule())
	}
	return out, nil
}

func toResponse(r *shippingdomain.Rate) shippingdomain.Response {
	return shippingdomain.Response{
		ID:            r.ID.String(),
		StoreID:       r.StoreID.String(),
		Name:          r.Name,
		Country:       r.Country,
		Region:        r.Region,
		Price:         r.Price,
		MinOrderValue: r.MinOrderValue,
		AcceptsCOD:    r.AcceptsCOD,
		IsActive:      r.IsActive,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
