package order

import (
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	"github.com/smallbiznis/storefront/internal/order/repository"
	"github.com/smallbiznis/storefront/internal/order/service"
	"github.com/smallbiznis/storefront/internal/ratelimit"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
	fx.Provide(
		func(s *service.Service) orderdomain.Service { return s },
		func(l *ratelimit.Limiter) orderdomain.CheckoutLocker { return l },
	),
)
