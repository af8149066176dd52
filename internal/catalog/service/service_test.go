package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/internal/catalog/repository"
	"github.com/smallbiznis/storefront/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (*Service, context.Context) {
	t.Helper()
	db := testutil.OpenSQLite(t)
	node := testutil.NewNode(t)
	svc := NewService(serviceParams{
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.NewRepository(db),
	})
	ctx, _ := testutil.StoreContext(node)
	return svc, ctx
}

func strPtr(v string) *string { return &v }

func TestCreateCategoryDerivesSlug(t *testing.T) {
	svc, ctx := newTestService(t)

	cat, err := svc.CreateCategory(ctx, catalogdomain.CreateCategoryRequest{Name: "Shoes & Boots"})
	require.NoError(t, err)
	assert.Equal(t, "shoes-and-boots", cat.Slug)
	assert.Nil(t, cat.ParentID)

	_, err = svc.CreateCategory(ctx, catalogdomain.CreateCategoryRequest{Name: "Other", Slug: "Shoes and Boots"})
	assert.ErrorIs(t, err, catalogdomain.ErrSlugTaken)
}

func TestCreateCategoryRequiresStore(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateCategory(context.Background(), catalogdomain.CreateCategoryRequest{Name: "x"})
	assert.ErrorIs(t, err, catalogdomain.ErrInvalidStore)
}

func TestCreateCategoryUnknownParent(t *testing.T) {
	svc, ctx := newTestService(t)
	_, err := svc.CreateCategory(ctx, catalogdomain.CreateCategoryRequest{Name: "x", ParentID: strPtr("12345")})
	assert.ErrorIs(t, err, catalogdomain.ErrInvalidParent)
}

func TestCategoryTreeIsPreOrder(t *testing.T) {
	svc, ctx := newTestService(t)

	apparel, err := svc.CreateCategory(ctx, catalogdomain.CreateCategoryRequest{Name: "Apparel"})
	require.NoError(t, err)
	home, err := svc.CreateCategory(ctx, catalogdomain.CreateCategoryRequest{Name: "Home"})
	require.NoError(t, err)
	shirts, err := svc.CreateCategory(ctx, catalogdomain.CreateCategoryRequest{Name: "Shirts", ParentID: &apparel.ID})
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, catalogdomain.CreateCategoryRequest{Name: "Polos", ParentID: &shirts.ID})
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, catalogdomain.CreateCategoryRequest{Name: "Lamps", ParentID: &home.ID})
	require.NoError(t, err)

	entries, err := svc.CategoryTree(ctx)
	require.NoError(t, err)

	var names []string
	var depths []int
	for _, e := range entries {
		names = append(names, e.Name)
		depths = append(depths, e.Depth)
	}
	assert.Equal(t, []string{"Apparel", "Shirts", "Polos", "Home", "Lamps"}, names)
	assert.Equal(t, []int{0, 1, 2, 0, 1}, depths)
}

func TestMoveCategoryRefusesCycles(t *testing.T) {
	svc, ctx := newTestService(t)

	root, err := svc.CreateCategory(ctx, catalogdomain.CreateCategoryRequest{Name: "Root"})
	require.NoError(t, err)
	child, err := svc.CreateCategory(ctx, catalogdomain.CreateCategoryRequest{Name: "Child", ParentID: &root.ID})
	require.NoError(t, err)
	leaf, err := svc.CreateCategory(ctx, catalogdomain.CreateCategoryRequest{Name: "Leaf", ParentID: &child.ID})
	require.NoError(t, err)

	_, err = svc.MoveCategory(ctx, catalogdomain.MoveCategoryRequest{ID: root.ID, ParentID: &leaf.ID})
	assert.ErrorIs(t, err, catalogdomain.ErrCategoryCycle)

	_, err = svc.MoveCategory(ctx, catalogdomain.MoveCategoryRequest{ID: root.ID, ParentID: &root.ID})
	assert.ErrorIs(t, err, catalogdomain.ErrCategoryCycle)

	moved, err := svc.MoveCategory(ctx, catalogdomain.MoveCategoryRequest{ID: leaf.ID})
	require.NoError(t, err)
	assert.Nil(t, moved.ParentID)
}

func TestHierarchyFeedsPricing(t *testing.T) {
	svc, ctx := newTestService(t)

	root, err := svc.CreateCategory(ctx, catalogdomain.CreateCategoryRequest{Name: "Root"})
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, catalogdomain.CreateCategoryRequest{Name: "Child", ParentID: &root.ID})
	require.NoError(t, err)

	cats, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)

	nodes, err := svc.Hierarchy(ctx, mustParse(t, cats[0].StoreID))
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Nil(t, nodes[0].ParentID)
	require.NotNil(t, nodes[1].ParentID)
	assert.Equal(t, nodes[0].ID, *nodes[1].ParentID)
}

func TestProducts(t *testing.T) {
	svc, ctx := newTestService(t)

	shoes, err := svc.CreateCategory(ctx, catalogdomain.CreateCategoryRequest{Name: "Shoes"})
	require.NoError(t, err)

	runner, err := svc.CreateProduct(ctx, catalogdomain.CreateProductRequest{
		Name:       "Runner",
		CategoryID: &shoes.ID,
		Price:      decimal.RequireFromString("89.90"),
	})
	require.NoError(t, err)
	assert.True(t, runner.IsActive)

	_, err = svc.CreateProduct(ctx, catalogdomain.CreateProductRequest{Name: "Mug", Price: decimal.NewFromInt(12)})
	require.NoError(t, err)

	_, err = svc.CreateProduct(ctx, catalogdomain.CreateProductRequest{Name: "Broken", Price: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, catalogdomain.ErrInvalidPrice)

	got, err := svc.GetProduct(ctx, runner.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("89.90")))

	inShoes, err := svc.ListProducts(ctx, catalogdomain.ListProductsRequest{CategoryID: shoes.ID})
	require.NoError(t, err)
	require.Len(t, inShoes, 1)
	assert.Equal(t, "Runner", inShoes[0].Name)

	byID, err := svc.ProductsForPricing(ctx, mustParse(t, runner.StoreID), []int64{mustParse(t, runner.ID), 42})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, "Runner", byID[mustParse(t, runner.ID)].Name)

	_, err = svc.GetProduct(ctx, "999")
	assert.ErrorIs(t, err, catalogdomain.ErrNotFound)
}

func mustParse(t *testing.T, raw string) int64 {
	t.Helper()
	id, err := snowflake.ParseString(raw)
	require.NoError(t, err)
	return id.Int64()
}
