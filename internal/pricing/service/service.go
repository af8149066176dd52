package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/cache"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	coupondomain "github.com/smallbiznis/storefront/internal/coupon/domain"
	discountdomain "github.com/smallbiznis/storefront/internal/discount/domain"
	"github.com/smallbiznis/storefront/internal/observability/metrics"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
	"github.com/smallbiznis/storefront/internal/pricing/engine"
	shippingdomain "github.com/smallbiznis/storefront/internal/shipping/domain"
	"github.com/smallbiznis/storefront/internal/storecontext"
	taxdomain "github.com/smallbiznis/storefront/internal/tax/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultCurrency = "USD"

type serviceParams struct {
	fx.In

	Log       *zap.Logger
	Clock     clock.Clock
	Policy    *config.PricingPolicyHolder
	Catalog   catalogdomain.PricingReader
	Coupons   coupondomain.Lookup
	Discounts discountdomain.RuleSource
	Taxes     taxdomain.TaxResolver
	Shipping  shippingdomain.RateSource
	Cache     cache.SnapshotCache
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	log       *zap.Logger
	clock     clock.Clock
	policy    *config.PricingPolicyHolder
	catalog   catalogdomain.PricingReader
	coupons   coupondomain.Lookup
	discounts discountdomain.RuleSource
	taxes     taxdomain.TaxResolver
	shipping  shippingdomain.RateSource
	cache     cache.SnapshotCache
	metrics   *metrics.Metrics
}

func NewService(p serviceParams) *Service {
	return &Service{
		log:       p.Log.Named("pricing.service"),
		clock:     p.Clock,
		policy:    p.Policy,
		catalog:   p.Catalog,
		coupons:   p.Coupons,
		discounts: p.Discounts,
		taxes:     p.Taxes,
		shipping:  p.Shipping,
		cache:     p.Cache,
		metrics:   p.Metrics,
	}
}

var tracer = otel.Tracer("storefront/pricing")

// Quote prices a cart for the store in ctx and returns rounded totals.
func (s *Service) Quote(ctx context.Context, req pricingdomain.QuoteRequest) (*pricingdomain.QuoteResponse, error) {
	storeID, ok := storecontext.StoreIDFromContext(ctx)
	if !ok {
		return nil, pricingdomain.ErrInvalidStore
	}
	storeLabel := strconv.FormatInt(storeID.Int64(), 10)

	ctx, span := tracer.Start(ctx, "pricing.Quote")
	defer span.End()

	cart, err := s.BuildCart(ctx, storeID.Int64(), req)
	if err != nil {
		s.metrics.RecordQuote(ctx, storeLabel, "invalid")
		return nil, err
	}

	totals, err := s.Price(ctx, storeID.Int64(), cart)
	if err != nil {
		if rej, ok := pricingdomain.AsRejection(err); ok {
			s.metrics.RecordQuote(ctx, storeLabel, rej.Code())
			return nil, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.RecordQuote(ctx, storeLabel, "error")
		return nil, err
	}

	if totals.CouponRejection != nil {
		s.metrics.RecordCouponRejection(ctx, storeLabel, string(totals.CouponRejection.Reason))
	}
	s.metrics.RecordQuote(ctx, storeLabel, "priced")

	return &pricingdomain.QuoteResponse{OrderTotals: totals.Rounded()}, nil
}

// BuildCart resolves the requested products into priced line items. Every
// product must exist in the store and be active.
func (s *Service) BuildCart(ctx context.Context, storeID int64, req pricingdomain.QuoteRequest) (pricingdomain.Cart, error) {
	var cart pricingdomain.Cart
	if len(req.Items) == 0 {
		return cart, pricingdomain.ErrEmptyCart
	}
	if strings.TrimSpace(req.Destination.Country) == "" {
		return cart, pricingdomain.ErrMissingDestination
	}

	ids := make([]int64, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return cart, pricingdomain.ErrInvalidQuantity
		}
		id, err := snowflake.ParseString(strings.TrimSpace(item.ProductID))
		if err != nil {
			return cart, pricingdomain.ErrUnknownProduct
		}
		ids = append(ids, id.Int64())
	}

	products, err := s.catalog.ProductsForPricing(ctx, storeID, ids)
	if err != nil {
		return cart, err
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	cart = pricingdomain.Cart{
		Destination: pricingdomain.Destination{
			Country: strings.ToUpper(strings.TrimSpace(req.Destination.Country)),
			Region:  strings.ToUpper(strings.TrimSpace(req.Destination.Region)),
		},
		CouponCode:     req.CouponCode,
		CashOnDelivery: req.CashOnDelivery,
		Currency:       currency,
		Items:          make([]pricingdomain.LineItem, 0, len(ids)),
	}
	for i, id := range ids {
		product, ok := products[id]
		if !ok {
			return pricingdomain.Cart{}, pricingdomain.ErrUnknownProduct
		}
		if !product.IsActive {
			return pricingdomain.Cart{}, pricingdomain.ErrInactiveProduct
		}
		var categoryID *int64
		if product.CategoryID != nil {
			v := product.CategoryID.Int64()
			categoryID = &v
		}
		cart.Items = append(cart.Items, pricingdomain.LineItem{
			ProductID:  id,
			CategoryID: categoryID,
			Name:       product.Name,
			UnitPrice:  product.Price,
			Quantity:   req.Items[i].Quantity,
		})
	}
	return cart, nil
}

// Price runs the engine over the store's current rule snapshot.
func (s *Service) Price(ctx context.Context, storeID int64, cart pricingdomain.Cart) (*pricingdomain.OrderTotals, error) {
	policy := s.policy.Get()

	snapshot, err := s.snapshot(ctx, storeID, policy)
	if err != nil {
		return nil, err
	}

	if code := strings.TrimSpace(cart.CouponCode); code != "" {
		coupons, err := s.coupons.LookupRules(ctx, storeID, code)
		if err != nil {
			return nil, err
		}
		snapshot.Coupons = coupons
	}

	now := s.clock.Now()
	totals, err := engine.New(policy.EnginePolicy()).Price(cart, snapshot, now)
	if err != nil {
		return nil, err
	}

	if totals.CouponRejection != nil {
		s.log.Info("coupon rejected",
			zap.Int64("store_id", storeID),
			zap.String("code", cart.CouponCode),
			zap.String("reason", totals.CouponRejection.Code()),
		)
	}
	return totals, nil
}

// Invalidate drops the cached snapshot after a rule write.
func (s *Service) Invalidate(storeID int64) {
	s.cache.Invalidate(storeID)
}

func (s *Service) snapshot(ctx context.Context, storeID int64, policy config.PricingPolicy) (pricingdomain.Snapshot, error) {
	if cached, ok := s.cache.Get(storeID); ok {
		return cached, nil
	}

	ctx, span := tracer.Start(ctx, "pricing.LoadSnapshot")
	span.SetAttributes(attribute.Int64("store_id", storeID))
	defer span.End()

	var snap pricingdomain.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Categories, err = s.catalog.Hierarchy(gctx, storeID)
		return err
	})
	g.Go(func() (err error) {
		snap.Discounts, err = s.discounts.ActiveRules(gctx, storeID)
		return err
	})
	g.Go(func() (err error) {
		snap.Taxes, err = s.taxes.ActiveRules(gctx, storeID)
		return err
	})
	g.Go(func() (err error) {
		snap.ShippingRates, err = s.shipping.ActiveRates(gctx, storeID)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return pricingdomain.Snapshot{}, err
	}

	s.cache.Set(storeID, snap, policy.SnapshotTTL())
	return snap, nil
}
