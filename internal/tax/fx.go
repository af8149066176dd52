package tax

import (
	"github.com/smallbiznis/storefront/internal/tax/repository"
	"github.com/smallbiznis/storefront/internal/tax/service"
	"go.uber.org/fx"
)

// Module provides the tax management service and the active-rate resolver
// the quote path reads from.
var Module = fx.Module("tax.service",
	fx.Provide(
		repository.NewRepository,
		service.NewService,
		service.NewResolver,
	),
)
