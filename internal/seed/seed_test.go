package seed

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/storefront/internal/catalog"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/shipping"
	shippingdomain "github.com/smallbiznis/storefront/internal/shipping/domain"
	"github.com/smallbiznis/storefront/internal/storecontext"
	"github.com/smallbiznis/storefront/internal/tax"
	taxdomain "github.com/smallbiznis/storefront/internal/tax/domain"
	"github.com/smallbiznis/storefront/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func TestEnsureDemoStoreIsIdempotent(t *testing.T) {
	conn := testutil.OpenSQLite(t)
	node := testutil.NewNode(t)
	fake := clock.NewFakeClock(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))

	var (
		seeder      *Seeder
		catalogSvc  catalogdomain.Service
		taxSvc      taxdomain.Service
		shippingSvc shippingdomain.Service
	)
	fxtest.New(t,
		fx.Supply(conn, node, zap.NewNop()),
		fx.Provide(func() clock.Clock { return fake }),
		catalog.Module,
		tax.Module,
		shipping.Module,
		fx.Provide(NewSeeder),
		fx.Populate(&seeder, &catalogSvc, &taxSvc, &shippingSvc),
	)

	storeID := node.Generate().Int64()
	require.NoError(t, seeder.EnsureDemoStore(context.Background(), storeID))
	require.NoError(t, seeder.EnsureDemoStore(context.Background(), storeID))

	ctx := storecontext.WithStoreID(context.Background(), storeID)
	categories, err := catalogSvc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, len(demoCatalog))

	tree, err := catalogSvc.CategoryTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, len(demoCatalog))

	products, err := catalogSvc.ListProducts(ctx, catalogdomain.ListProductsRequest{})
	require.NoError(t, err)
	assert.Len(t, products, 4)

	taxes, err := taxSvc.List(ctx, taxdomain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, taxes, 1)

	rates, err := shippingSvc.List(ctx, shippingdomain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, rates, 2)
}

func TestEnsureDemoStoreRequiresStore(t *testing.T) {
	s := &Seeder{log: zap.NewNop()}
	assert.Error(t, s.EnsureDemoStore(context.Background(), 0))
}
