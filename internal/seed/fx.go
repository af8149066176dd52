package seed

import (
	"context"

	"github.com/smallbiznis/storefront/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("seed",
	fx.Provide(NewSeeder),
	fx.Invoke(func(cfg config.Config, s *Seeder) error {
		if cfg.SeedStoreID == 0 {
			return nil
		}
		return s.EnsureDemoStore(context.Background(), cfg.SeedStoreID)
	}),
)
