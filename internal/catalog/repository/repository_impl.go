package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/pkg/db/option"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) catalogdomain.Repository {
	return &repository{db: db}
}

func (r *repository) CreateCategory(ctx context.Context, category *catalogdomain.Category) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO categories (id, store_id, name, slug, parent_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		category.ID,
		category.StoreID,
		category.Name,
		category.Slug,
		category.ParentID,
		category.CreatedAt,
		category.UpdatedAt,
	).Error
}

func (r *repository) FindCategory(ctx context.Context, storeID, id snowflake.ID) (*catalogdomain.Category, error) {
	var category catalogdomain.Category
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, store_id, name, slug, parent_id, created_at, updated_at
		 FROM categories
		 WHERE store_id = ? AND id = ?`,
		storeID,
		id,
	).Scan(&category).Error
	if err != nil {
		return nil, err
	}
	if category.ID == 0 {
		return nil, nil
	}
	return &category, nil
}

func (r *repository) ListCategories(ctx context.Context, storeID snowflake.ID) ([]catalogdomain.Category, error) {
	var items []catalogdomain.Category
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, store_id, name, slug, parent_id, created_at, updated_at
		 FROM categories
		 WHERE store_id = ?
		 ORDER BY id ASC`,
		storeID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) UpdateCategory(ctx context.Context, category *catalogdomain.Category) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE categories
		 SET name = ?, slug = ?, parent_id = ?, updated_at = ?
		 WHERE store_id = ? AND id = ?`,
		category.Name,
		category.Slug,
		category.ParentID,
		category.UpdatedAt,
		category.StoreID,
		category.ID,
	).Error
}

func (r *repository) CreateProduct(ctx context.Context, product *catalogdomain.Product) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO products (id, store_id, category_id, name, sku, price, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		product.ID,
		product.StoreID,
		product.CategoryID,
		product.Name,
		product.SKU,
		product.Price,
		product.IsActive,
		product.CreatedAt,
		product.UpdatedAt,
	).Error
}

func (r *repository) FindProduct(ctx context.Context, storeID, id snowflake.ID) (*catalogdomain.Product, error) {
	var product catalogdomain.Product
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, store_id, category_id, name, sku, price, is_active, created_at, updated_at
		 FROM products
		 WHERE store_id = ? AND id = ?`,
		storeID,
		id,
	).Scan(&product).Error
	if err != nil {
		return nil, err
	}
	if product.ID == 0 {
		return nil, nil
	}
	return &product, nil
}

func (r *repository) ListProducts(ctx context.Context, storeID snowflake.ID, filter catalogdomain.ProductFilter) ([]catalogdomain.Product, error) {
	var items []catalogdomain.Product
	stmt := r.db.WithContext(ctx).
		Model(&catalogdomain.Product{}).
		Where("store_id = ?", storeID)

	if filter.CategoryID != nil {
		stmt = stmt.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.IsActive != nil {
		stmt = stmt.Where("is_active = ?", *filter.IsActive)
	}

	stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
		"created_at": true,
		"name":       true,
		"price":      true,
	})).Apply(stmt)

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) FindProducts(ctx context.Context, storeID snowflake.ID, ids []snowflake.ID) ([]catalogdomain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []catalogdomain.Product
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, store_id, category_id, name, sku, price, is_active, created_at, updated_at
		 FROM products
		 WHERE store_id = ? AND id IN ?`,
		storeID,
		ids,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
