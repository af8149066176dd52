// Package seed bootstraps a demo store so a fresh deployment can quote and
// check out without any manual setup.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
	"github.com/smallbiznis/storefront/internal/pricing/ruledata"
	shippingdomain "github.com/smallbiznis/storefront/internal/shipping/domain"
	"github.com/smallbiznis/storefront/internal/storecontext"
	taxdomain "github.com/smallbiznis/storefront/internal/tax/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type demoCategory struct {
	name     string
	parent   string
	products []demoProduct
}

type demoProduct struct {
	name  string
	sku   string
	price string
}

var demoCatalog = []demoCategory{
	{name: "Apparel"},
	{name: "Shoes", parent: "Apparel", products: []demoProduct{
		{name: "Trail Runner", sku: "SHOE-TRAIL", price: "89.90"},
		{name: "City Sneaker", sku: "SHOE-CITY", price: "64.50"},
	}},
	{name: "Shirts", parent: "Apparel", products: []demoProduct{
		{name: "Linen Shirt", sku: "SHIRT-LINEN", price: "39.00"},
	}},
	{name: "Accessories", products: []demoProduct{
		{name: "Canvas Tote", sku: "ACC-TOTE", price: "15.00"},
	}},
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Catalog  catalogdomain.Service
	Taxes    taxdomain.Service
	Shipping shippingdomain.Service
}

type Seeder struct {
	log      *zap.Logger
	catalog  catalogdomain.Service
	taxes    taxdomain.Service
	shipping shippingdomain.Service
}

func NewSeeder(p Params) *Seeder {
	return &Seeder{
		log:      p.Log.Named("seed"),
		catalog:  p.Catalog,
		taxes:    p.Taxes,
		shipping: p.Shipping,
	}
}

// EnsureDemoStore fills an empty store with a small category tree, products,
// a VAT rate and two shipping rates. A store that already has categories is
// left untouched.
func (s *Seeder) EnsureDemoStore(ctx context.Context, storeID int64) error {
	if storeID <= 0 {
		return errors.New("seed store id is required")
	}
	ctx = storecontext.WithStoreID(ctx, storeID)

	existing, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	if len(existing) > 0 {
		s.log.Info("store already seeded", zap.Int64("store_id", storeID))
		return nil
	}

	categoryIDs := make(map[string]string, len(demoCatalog))
	products := 0
	for _, item := range demoCatalog {
		req := catalogdomain.CreateCategoryRequest{Name: item.name}
		if item.parent != "" {
			parentID := categoryIDs[item.parent]
			req.ParentID = &parentID
		}
		category, err := s.catalog.CreateCategory(ctx, req)
		if err != nil {
			return fmt.Errorf("create category %q: %w", item.name, err)
		}
		categoryIDs[item.name] = category.ID

		for _, p := range item.products {
			sku := p.sku
			categoryID := category.ID
			if _, err := s.catalog.CreateProduct(ctx, catalogdomain.CreateProductRequest{
				Name:       p.name,
				SKU:        &sku,
				CategoryID: &categoryID,
				Price:      decimal.RequireFromString(p.price),
			}); err != nil {
				return fmt.Errorf("create product %q: %w", p.name, err)
			}
			products++
		}
	}

	if _, err := s.taxes.Create(ctx, taxdomain.CreateRequest{
		Code:    "VAT",
		Name:    "Value added tax",
		Scope:   ruledata.ScopeRequest{Kind: string(pricingdomain.ScopeAll)},
		TaxKind: pricingdomain.TaxPercentage,
		Value:   decimal.NewFromInt(10),
	}); err != nil {
		return fmt.Errorf("create tax: %w", err)
	}

	region := "CA"
	rates := []shippingdomain.CreateRequest{
		{Name: "Domestic", Country: "US", Price: decimal.NewFromInt(5)},
		{Name: "California", Country: "US", Region: &region, Price: decimal.NewFromInt(7), AcceptsCOD: true},
	}
	for _, rate := range rates {
		if _, err := s.shipping.Create(ctx, rate); err != nil {
			return fmt.Errorf("create shipping rate %q: %w", rate.Name, err)
		}
	}

	s.log.Info("seeded demo store",
		zap.Int64("store_id", storeID),
		zap.Int("categories", len(demoCatalog)),
		zap.Int("products", products),
	)
	return nil
}
