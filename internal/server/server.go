package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/storefront/internal/cache"
	"github.com/smallbiznis/storefront/internal/catalog"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/coupon"
	coupondomain "github.com/smallbiznis/storefront/internal/coupon/domain"
	"github.com/smallbiznis/storefront/internal/discount"
	discountdomain "github.com/smallbiznis/storefront/internal/discount/domain"
	"github.com/smallbiznis/storefront/internal/observability"
	obsmiddleware "github.com/smallbiznis/storefront/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/storefront/internal/observability/metrics"
	obstracing "github.com/smallbiznis/storefront/internal/observability/tracing"
	"github.com/smallbiznis/storefront/internal/order"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	"github.com/smallbiznis/storefront/internal/pricing"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
	"github.com/smallbiznis/storefront/internal/providers"
	"github.com/smallbiznis/storefront/internal/ratelimit"
	"github.com/smallbiznis/storefront/internal/shipping"
	shippingdomain "github.com/smallbiznis/storefront/internal/shipping/domain"
	"github.com/smallbiznis/storefront/internal/storecontext"
	"github.com/smallbiznis/storefront/internal/tax"
	taxdomain "github.com/smallbiznis/storefront/internal/tax/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	catalog.Module,
	coupon.Module,
	discount.Module,
	tax.Module,
	shipping.Module,
	cache.Module,
	pricing.Module,
	ratelimit.Module,
	providers.Module,
	order.Module,
	fx.Provide(NewServer),
	fx.Invoke(func(*Server) {}),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	log         *zap.Logger
	catalogSvc  catalogdomain.Service
	couponSvc   coupondomain.Service
	discountSvc discountdomain.Service
	taxSvc      taxdomain.Service
	shippingSvc shippingdomain.Service
	pricingSvc  pricingdomain.Service
	orderSvc    orderdomain.Service
	limiter     *ratelimit.Limiter
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Log         *zap.Logger
	CatalogSvc  catalogdomain.Service
	CouponSvc   coupondomain.Service
	DiscountSvc discountdomain.Service
	TaxSvc      taxdomain.Service
	ShippingSvc shippingdomain.Service
	PricingSvc  pricingdomain.Service
	OrderSvc    orderdomain.Service
	Limiter     *ratelimit.Limiter
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		log:         p.Log.Named("http.server"),
		catalogSvc:  p.CatalogSvc,
		couponSvc:   p.CouponSvc,
		discountSvc: p.DiscountSvc,
		taxSvc:      p.TaxSvc,
		shippingSvc: p.ShippingSvc,
		pricingSvc:  p.PricingSvc,
		orderSvc:    p.OrderSvc,
		limiter:     p.Limiter,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(StoreContext())

	api.POST("/categories", s.CreateCategory)
	api.GET("/categories", s.ListCategories)
	api.GET("/categories/tree", s.CategoryTree)
	api.POST("/categories/:id/move", s.MoveCategory)

	api.POST("/products", s.CreateProduct)
	api.GET("/products", s.ListProducts)
	api.GET("/products/:id", s.GetProductByID)

	api.POST("/coupons", s.CreateCoupon)
	api.GET("/coupons", s.ListCoupons)
	api.GET("/coupons/:id", s.GetCouponByID)
	api.PATCH("/coupons/:id", s.UpdateCoupon)
	api.POST("/coupons/:id/disable", s.DisableCoupon)

	api.POST("/discounts", s.CreateDiscount)
	api.GET("/discounts", s.ListDiscounts)
	api.PATCH("/discounts/:id", s.UpdateDiscount)

	api.POST("/taxes", s.CreateTax)
	api.GET("/taxes", s.ListTaxes)
	api.PATCH("/taxes/:id", s.UpdateTax)
	api.POST("/taxes/:id/disable", s.DisableTax)

	api.POST("/shipping-rates", s.CreateShippingRate)
	api.GET("/shipping-rates", s.ListShippingRates)
	api.PATCH("/shipping-rates/:id", s.UpdateShippingRate)

	api.POST("/quote", s.RateLimit(s.limiter.AllowQuote), s.Quote)
	api.POST("/checkout", s.RateLimit(s.limiter.AllowCheckout), s.Checkout)

	api.GET("/orders", s.ListOrders)
	api.GET("/orders/:id", s.GetOrderByID)
	api.POST("/orders/:id/status", s.UpdateOrderStatus)
	api.GET("/orders/:id/history", s.ListOrderHistory)
	api.POST("/orders/:id/comments", s.AddOrderComment)
	api.GET("/orders/:id/comments", s.ListOrderComments)
	api.GET("/orders/:id/invoice.pdf", s.RenderOrderInvoice)
}

// invalidatePricing drops the cached rule snapshot of the request's store
// after any rule write.
func (s *Server) invalidatePricing(c *gin.Context) {
	if storeID, ok := storecontext.StoreIDFromContext(c.Request.Context()); ok {
		s.pricingSvc.Invalidate(storeID.Int64())
	}
}
