package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storefront/internal/clock"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
	"github.com/smallbiznis/storefront/internal/pricing/ruledata"
	taxdomain "github.com/smallbiznis/storefront/internal/tax/domain"
	"github.com/smallbiznis/storefront/internal/tax/repository"
	"github.com/smallbiznis/storefront/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTaxRateManagementAndResolver(t *testing.T) {
	conn := testutil.OpenSQLite(t)
	node := testutil.NewNode(t)
	repo := repository.NewRepository(conn)
	svc := NewService(serviceParams{
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)),
		Repo:  repo,
	})
	resolver := NewResolver(resolverParam{Repository: repo})
	ctx, storeID := testutil.StoreContext(node)

	vat, err := svc.Create(ctx, taxdomain.CreateRequest{
		Code:    " vat ",
		Name:    "VAT",
		TaxKind: "Percentage",
		Value:   decimal.NewFromInt(11),
	})
	require.NoError(t, err)
	assert.Equal(t, "VAT", vat.Code)
	assert.Equal(t, pricingdomain.TaxPercentage, vat.TaxKind)
	assert.Equal(t, pricingdomain.ScopeAll, vat.Scope.Kind)

	_, err = svc.Create(ctx, taxdomain.CreateRequest{Code: "VAT", Name: "Again", TaxKind: "fixed", Value: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, taxdomain.ErrTaxCodeTaken)

	_, err = svc.Create(ctx, taxdomain.CreateRequest{Code: "BAD", Name: "Bad", TaxKind: "percentage", Value: decimal.NewFromInt(120)})
	assert.ErrorIs(t, err, taxdomain.ErrInvalidTaxRate)

	_, err = svc.Create(ctx, taxdomain.CreateRequest{Code: "ODD", Name: "Odd", TaxKind: "compound", Value: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, taxdomain.ErrInvalidTaxKind)

	eco, err := svc.Create(ctx, taxdomain.CreateRequest{
		Code:         "ECO",
		Name:         "Eco fee",
		TaxKind:      "fixed",
		Value:        decimal.RequireFromString("0.50"),
		ApplyPerItem: true,
		Scope:        ruledata.ScopeRequest{Kind: "specific_products", ProductIDs: []string{"77"}},
	})
	require.NoError(t, err)

	rules, err := resolver.ActiveRules(ctx, storeID.Int64())
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "VAT", rules[0].Code)
	assert.True(t, rules[1].ApplyPerItem)
	assert.Equal(t, []int64{77}, rules[1].Scope.ProductIDs)

	_, err = svc.Disable(ctx, eco.ID)
	require.NoError(t, err)

	rules, err = resolver.ActiveRules(ctx, storeID.Int64())
	require.NoError(t, err)
	require.Len(t, rules, 1)

	desc := "  Value added tax  "
	updated, err := svc.Update(ctx, taxdomain.UpdateRequest{ID: vat.ID, Description: &desc})
	require.NoError(t, err)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "Value added tax", *updated.Description)

	listed, err := svc.List(ctx, taxdomain.ListRequest{Code: "eco"})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.False(t, listed[0].IsActive)
}
