package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/internal/catalog/tree"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
	"github.com/smallbiznis/storefront/internal/storecontext"
	"github.com/smallbiznis/storefront/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type serviceParams struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  catalogdomain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  catalogdomain.Repository
}

func NewService(p serviceParams) *Service {
	return &Service{
		log:   p.Log.Named("catalog.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) CreateCategory(ctx context.Context, req catalogdomain.CreateCategoryRequest) (*catalogdomain.CategoryResponse, error) {
	storeID, ok := storecontext.StoreIDFromContext(ctx)
	if !ok {
		return nil, catalogdomain.ErrInvalidStore
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, catalogdomain.ErrInvalidName
	}

	categorySlug := slug.Make(strings.TrimSpace(req.Slug))
	if categorySlug == "" {
		categorySlug = slug.Make(name)
	}

	parentID, err := s.resolveParent(ctx, storeID, req.ParentID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := &catalogdomain.Category{
		ID:        s.genID.Generate(),
		StoreID:   storeID,
		Name:      name,
		Slug:      categorySlug,
		ParentID:  parentID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.CreateCategory(ctx, record); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, catalogdomain.ErrSlugTaken
		}
		return nil, err
	}

	resp := toCategoryResponse(record)
	return &resp, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]catalogdomain.CategoryResponse, error) {
	storeID, ok := storecontext.StoreIDFromContext(ctx)
	if !ok {
		return nil, catalogdomain.ErrInvalidStore
	}

	items, err := s.repo.ListCategories(ctx, storeID)
	if err != nil {
		return nil, err
	}

	resp := make([]catalogdomain.CategoryResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toCategoryResponse(&items[i]))
	}
	return resp, nil
}

// CategoryTree returns the hierarchy flattened in pre-order with depths,
// ready for an indented checklist.
func (s *Service) CategoryTree(ctx context.Context) ([]catalogdomain.TreeEntry, error) {
	storeID, ok := storecontext.StoreIDFromContext(ctx)
	if !ok {
		return nil, catalogdomain.ErrInvalidStore
	}

	items, err := s.repo.ListCategories(ctx, storeID)
	if err != nil {
		return nil, err
	}

	forest := tree.Build(items)
	entries := forest.Flatten()
	if len(entries) < len(items) {
		s.log.Warn("category hierarchy has unreachable nodes",
			zap.String("store_id", storeID.String()),
			zap.Int("categories", len(items)),
			zap.Int("reachable", len(entries)),
		)
	}

	resp := make([]catalogdomain.TreeEntry, 0, len(entries))
	for _, entry := range entries {
		category := entry.Item
		resp = append(resp, catalogdomain.TreeEntry{
			CategoryResponse: toCategoryResponse(&category),
			Depth:            entry.Depth,
		})
	}
	return resp, nil
}

// MoveCategory re-parents a category. Moving a node under one of its own
// descendants is refused so stored data stays acyclic.
func (s *Service) MoveCategory(ctx context.Context, req catalogdomain.MoveCategoryRequest) (*catalogdomain.CategoryResponse, error) {
	storeID, ok := storecontext.StoreIDFromContext(ctx)
	if !ok {
		return nil, catalogdomain.ErrInvalidStore
	}

	categoryID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, catalogdomain.ErrInvalidID
	}

	item, err := s.repo.FindCategory(ctx, storeID, categoryID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, catalogdomain.ErrNotFound
	}

	parentID, err := s.resolveParent(ctx, storeID, req.ParentID)
	if err != nil {
		return nil, err
	}

	if parentID != nil {
		if *parentID == item.ID {
			return nil, catalogdomain.ErrCategoryCycle
		}
		all, err := s.repo.ListCategories(ctx, storeID)
		if err != nil {
			return nil, err
		}
		ancestors := tree.Build(all).Ancestors(parentID.Int64())
		if slices.Contains(ancestors, item.ID.Int64()) {
			return nil, catalogdomain.ErrCategoryCycle
		}
	}

	item.ParentID = parentID
	item.UpdatedAt = time.Now().UTC()
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateCategory(ctx, item); err != nil {
		return nil, err
	}

	resp := toCategoryResponse(item)
	return &resp, nil
}

// Hierarchy lists the store's categories as pricing-engine nodes.
func (s *Service) Hierarchy(ctx context.Context, storeID int64) ([]pricingdomain.Category, error) {
	items, err := s.repo.ListCategories(ctx, snowflake.ID(storeID))
	if err != nil {
		return nil, err
	}
	out := make([]pricingdomain.Category, 0, len(items))
	for _, item := range items {
		out = append(out, pricingdomain.Category{ID: item.NodeID(), ParentID: item.ParentNodeID()})
	}
	return out, nil
}

// ProductsForPricing loads the referenced products keyed by id. Missing ids
// are simply absent from the map.
func (s *Service) ProductsForPricing(ctx context.Context, storeID int64, ids []int64) (map[int64]catalogdomain.Product, error) {
	keys := make([]snowflake.ID, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, snowflake.ID(id))
	}
	items, err := s.repo.FindProducts(ctx, snowflake.ID(storeID), keys)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]catalogdomain.Product, len(items))
	for _, item := range items {
		out[item.ID.Int64()] = item
	}
	return out, nil
}

func (s *Service) CreateProduct(ctx context.Context, req catalogdomain.CreateProductRequest) (*catalogdomain.ProductResponse, error) {
	storeID, ok := storecontext.StoreIDFromContext(ctx)
	if !ok {
		return nil, catalogdomain.ErrInvalidStore
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, catalogdomain.ErrInvalidName
	}

	var categoryID *snowflake.ID
	if req.CategoryID != nil && strings.TrimSpace(*req.CategoryID) != "" {
		id, err := snowflake.ParseString(strings.TrimSpace(*req.CategoryID))
		if err != nil {
			return nil, catalogdomain.ErrInvalidCategory
		}
		category, err := s.repo.FindCategory(ctx, storeID, id)
		if err != nil {
			return nil, err
		}
		if category == nil {
			return nil, catalogdomain.ErrInvalidCategory
		}
		categoryID = &id
	}

	var sku *string
	if req.SKU != nil {
		if trimmed := strings.TrimSpace(*req.SKU); trimmed != "" {
			sku = &trimmed
		}
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	now := time.Now().UTC()
	record := &catalogdomain.Product{
		ID:         s.genID.Generate(),
		StoreID:    storeID,
		CategoryID: categoryID,
		Name:       name,
		SKU:        sku,
		Price:      req.Price,
		IsActive:   isActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.CreateProduct(ctx, record); err != nil {
		return nil, err
	}

	resp := toProductResponse(record)
	return &resp, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (*catalogdomain.ProductResponse, error) {
	storeID, ok := storecontext.StoreIDFromContext(ctx)
	if !ok {
		return nil, catalogdomain.ErrInvalidStore
	}

	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, catalogdomain.ErrInvalidID
	}

	item, err := s.repo.FindProduct(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, catalogdomain.ErrNotFound
	}

	resp := toProductResponse(item)
	return &resp, nil
}

func (s *Service) ListProducts(ctx context.Context, req catalogdomain.ListProductsRequest) ([]catalogdomain.ProductResponse, error) {
	storeID, ok := storecontext.StoreIDFromContext(ctx)
	if !ok {
		return nil, catalogdomain.ErrInvalidStore
	}

	filter := catalogdomain.ProductFilter{
		IsActive: req.IsActive,
		SortBy:   strings.TrimSpace(req.SortBy),
		OrderBy:  strings.TrimSpace(req.OrderBy),
	}
	if raw := strings.TrimSpace(req.CategoryID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, catalogdomain.ErrInvalidCategory
		}
		filter.CategoryID = &id
	}

	items, err := s.repo.ListProducts(ctx, storeID, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]catalogdomain.ProductResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toProductResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) resolveParent(ctx context.Context, storeID snowflake.ID, raw *string) (*snowflake.ID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parentID, err := snowflake.ParseString(strings.TrimSpace(*raw))
	if err != nil {
		return nil, catalogdomain.ErrInvalidParent
	}
	parent, err := s.repo.FindCategory(ctx, storeID, parentID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, catalogdomain.ErrInvalidParent
	}
	return &parentID, nil
}

func toCategoryResponse(c *catalogdomain.Category) catalogdomain.CategoryResponse {
	resp := catalogdomain.CategoryResponse{
		ID:        c.ID.String(),
		StoreID:   c.StoreID.String(),
		Name:      c.Name,
		Slug:      c.Slug,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.ParentID != nil {
		parent := c.ParentID.String()
		resp.ParentID = &parent
	}
	return resp
}

func toProductResponse(p *catalogdomain.Product) catalogdomain.ProductResponse {
	resp := catalogdomain.ProductResponse{
		ID:        p.ID.String(),
		StoreID:   p.StoreID.String(),
		Name:      p.Name,
		SKU:       p.SKU,
		Price:     p.Price,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.CategoryID != nil {
		category := p.CategoryID.String()
		resp.CategoryID = &category
	}
	return resp
}
