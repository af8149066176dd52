package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
	taxdomain "github.com/smallbiznis/storefront/internal/tax/domain"
	"go.uber.org/fx"
)

type resolverParam struct {
	fx.In

	Repository taxdomain.Repository
}

type resolver struct {
	repo taxdomain.Repository
}

func NewResolver(p resolverParam) taxdomain.TaxResolver {
	return &resolver{repo: p.Repository}
}

// ActiveRules returns the store's active taxes in id order. Windows and
// minimum order values are evaluated by the pricing gate at quote time.
func (r *resolver) ActiveRules(ctx context.Context, storeID int64) ([]pricingdomain.Tax, error) {
	items, err := r.repo.ListActive(ctx, snowflake.ID(storeID))
	if err != nil {
		return nil, err
	}
	out := make([]pricingdomain.Tax, 0, len(items))
	for _, item := range items {
		out = append(out, item.ToRule())
	}
	return out, nil
}
