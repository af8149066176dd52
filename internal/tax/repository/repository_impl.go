package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	taxdomain "github.com/smallbiznis/storefront/internal/tax/domain"
	"github.com/smallbiznis/storefront/pkg/db/option"
	"gorm.io/gorm"
)

const taxColumns = `id, store_id, code, name, description, scope_kind, product_ids, category_ids,
	excluded_product_ids, tax_kind, value, apply_per_item, starts_at, ends_at, min_order_value,
	is_active, created_at, updated_at`

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) taxdomain.Repository {
	return &repository{db: db}
}

func (r *repository) ListActive(ctx context.Context, storeID snowflake.ID) ([]taxdomain.TaxRate, error) {
	var items []taxdomain.TaxRate
	err := r.db.WithContext(ctx).Raw(
		`SELECT `+taxColumns+`
		 FROM tax_rates
		 WHERE store_id = ? AND is_active = ?
		 ORDER BY id ASC`,
		storeID,
		true,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Create(ctx context.Context, rate *taxdomain.TaxRate) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO tax_rates (`+taxColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rate.ID,
		rate.StoreID,
		rate.Code,
		rate.Name,
		rate.Description,
		rate.ScopeKind,
		rate.ProductIDs,
		rate.CategoryIDs,
		rate.ExcludedProductIDs,
		rate.TaxKind,
		rate.Value,
		rate.ApplyPerItem,
		rate.StartsAt,
		rate.EndsAt,
		rate.MinOrderValue,
		rate.IsActive,
		rate.CreatedAt,
		rate.UpdatedAt,
	).Error
}

func (r *repository) FindByID(ctx context.Context, storeID, id snowflake.ID) (*taxdomain.TaxRate, error) {
	var rate taxdomain.TaxRate
	err := r.db.WithContext(ctx).Raw(
		`SELECT `+taxColumns+`
		 FROM tax_rates
		 WHERE store_id = ? AND id = ?`,
		storeID,
		id,
	).Scan(&rate).Error
	if err != nil {
		return nil, err
	}
	if rate.ID == 0 {
		return nil, nil
	}
	return &rate, nil
}

func (r *repository) List(ctx context.Context, storeID snowflake.ID, filter taxdomain.ListRequest) ([]taxdomain.TaxRate, error) {
	var items []taxdomain.TaxRate
	stmt := r.db.WithContext(ctx).
		Model(&taxdomain.TaxRate{}).
		Where("store_id = ?", storeID)

	if filter.Name != "" {
		stmt = stmt.Where("name = ?", filter.Name)
	}
	if filter.Code != "" {
		stmt = stmt.Where("code = ?", filter.Code)
	}
	if filter.IsActive != nil {
		stmt = stmt.Where("is_active = ?", *filter.IsActive)
	}

	stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
		"created_at": true,
		"updated_at": true,
		"name":       true,
		"code":       true,
	})).Apply(stmt)

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Update(ctx context.Context, rate *taxdomain.TaxRate) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE tax_rates
		 SET name = ?, description = ?, scope_kind = ?, product_ids = ?, category_ids = ?,
		     excluded_product_ids = ?, tax_kind = ?, value = ?, apply_per_item = ?, starts_at = ?,
		     ends_at = ?, min_order_value = ?, is_active = ?, updated_at = ?
		 WHERE store_id = ? AND id = ?`,
		rate.Name,
		rate.Description,
		rate.ScopeKind,
		rate.ProductIDs,
		rate.CategoryIDs,
		rate.ExcludedProductIDs,
		rate.TaxKind,
		rate.Value,
		rate.ApplyPerItem,
		rate.StartsAt,
		rate.EndsAt,
		rate.MinOrderValue,
		rate.IsActive,
		rate.UpdatedAt,
		rate.StoreID,
		rate.ID,
	).Error
}
