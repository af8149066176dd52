package shipping

import (
	shippingdomain "github.com/smallbiznis/storefront/internal/shipping/domain"
	"github.com/smallbiznis/storefront/internal/shipping/repository"
	"github.com/smallbiznis/storefront/internal/shipping/service"
	"go.uber.org/fx"
)

var Module = fx.Module("shipping.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
	fx.Provide(
		func(s *service.Service) shippingdomain.Service { return s },
		func(s *service.Service) shippingdomain.RateSource { return s },
	),
)
