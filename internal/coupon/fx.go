package coupon

import (
	coupondomain "github.com/smallbiznis/storefront/internal/coupon/domain"
	"github.com/smallbiznis/storefront/internal/coupon/repository"
	"github.com/smallbiznis/storefront/internal/coupon/service"
	"go.uber.org/fx"
)

var Module = fx.Module("coupon.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
	fx.Provide(
		func(s *service.Service) coupondomain.Service { return s },
		func(s *service.Service) coupondomain.Lookup { return s },
		func(s *service.Service) coupondomain.Redeemer { return s },
	),
)
