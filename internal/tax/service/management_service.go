package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/clock"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
	"github.com/smallbiznis/storefront/internal/pricing/ruledata"
	"github.com/smallbiznis/storefront/internal/storecontext"
	taxdomain "github.com/smallbiznis/storefront/internal/tax/domain"
	"github.com/smallbiznis/storefront/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type serviceParams struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  taxdomain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  taxdomain.Repository
}

func NewService(p serviceParams) taxdomain.Service {
	return &Service{
		log:   p.Log.Named("tax.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) List(ctx context.Context, req taxdomain.ListRequest) ([]taxdomain.Response, error) {
	storeID, ok := storecontext.StoreIDFromContext(ctx)
	if !ok {
		return nil, taxdomain.ErrInvalidStore
	}

	filter := taxdomain.ListRequest{
		Name:     strings.TrimSpace(req.Name),
		Code:     normalizeTaxCode(req.Code),
		IsActive: req.IsActive,
		SortBy:   strings.TrimSpace(req.SortBy),
		OrderBy:  strings.TrimSpace(req.OrderBy),
	}

	items, err := s.repo.List(ctx, storeID, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]taxdomain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, toResponse(&item))
	}

	return resp, nil
}

func (s *Service) Create(ctx context.Context, req taxdomain.CreateRequest) (*taxdomain.Response, error) {
	storeID, ok := storecontext.StoreIDFromContext(ctx)
	if !ok {
		return nil, taxdomain.ErrInvalidStore
	}

	code := normalizeTaxCode(req.Code)
	if code == "" {
		return nil, taxdomain.ErrInvalidTaxCode
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, taxdomain.ErrInvalidName
	}

	scope, err := ruledata.ParseScope(req.Scope)
	if err != nil {
		return nil, err
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	now := s.clock.Now()
	record := &taxdomain.TaxRate{
		ID:            s.genID.Generate(),
		StoreID:       storeID,
		Code:          code,
		Name:          name,
		Description:   trimToNil(req.Description),
		ScopeColumns:  scope,
		TaxKind:       normalizeTaxKind(req.TaxKind),
		Value:         req.Value,
		ApplyPerItem:  req.ApplyPerItem,
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
		if db.IsDuplicateKeyErr(err) {
			return nil, taxdomain.ErrTaxCodeTaken
		}
		return nil, err
	}

	resp := toResponse(record)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req taxdomain.UpdateRequest) (*taxdomain.Response, error) {
	item, err := s.find(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, taxdomain.ErrInvalidName
		}
		item.Name = name
	}
	if req.Description != nil {
		item.Description = trimToNil(req.Description)
	}
	if req.Scope != nil {
		scope, err := ruledata.ParseScope(*req.Scope)
		if err != nil {
			return nil, err
		}
		item.ScopeColumns = scope
	}
	if req.TaxKind != nil {
		item.TaxKind = normalizeTaxKind(*req.TaxKind)
	}
	if req.Value != nil {
		item.Value = *req.Value
	}
	if req.ApplyPerItem != nil {
		item.ApplyPerItem = *req.ApplyPerItem
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

func (s *Service) Disable(ctx context.Context, id string) (*taxdomain.Response, error) {
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

func (s *Service) find(ctx context.Context, id string) (*taxdomain.TaxRate, error) {
	storeID, ok := storecontext.StoreIDFromContext(ctx)
	if !ok {
		return nil, taxdomain.ErrInvalidStore
	}

	rateID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, taxdomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, storeID, rateID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, taxdomain.ErrNotFound
	}
	return item, nil
}

func toResponse(rate *taxdomain.TaxRate) taxdomain.Response {
	return taxdomain.Response{
		ID:            rate.ID.String(),
		StoreID:       rate.StoreID.String(),
		Code:          rate.Code,
		Name:          rate.Name,
		Description:   rate.Description,
		Scope:         rate.ScopeColumns.ToResponse(),
		TaxKind:       rate.TaxKind,
		Value:         rate.Value,
		ApplyPerItem:  rate.ApplyPerItem,
		StartsAt:      rate.StartsAt,
		EndsAt:        rate.EndsAt,
		MinOrderValue: rate.MinOrderValue,
		IsActive:      rate.IsActive,
		CreatedAt:     rate.CreatedAt,
		UpdatedAt:     rate.UpdatedAt,
	}
}

func normalizeTaxKind(value pricingdomain.TaxKind) pricingdomain.TaxKind {
	return pricingdomain.TaxKind(strings.ToLower(strings.TrimSpace(string(value))))
}

func normalizeTaxCode(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

func trimToNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
