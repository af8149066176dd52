package discount

import (
	discountdomain "github.com/smallbiznis/storefront/internal/discount/domain"
	"github.com/smallbiznis/storefront/internal/discount/repository"
	"github.com/smallbiznis/storefront/internal/discount/service"
	"go.uber.org/fx"
)

var Module = fx.Module("discount.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
	fx.Provide(
		func(s *service.Service) discountdomain.Service { return s },
		func(s *service.Service) discountdomain.RuleSource { return s },
	),
)
