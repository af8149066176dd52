package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	discountdomain "github.com/smallbiznis/storefront/internal/discount/domain"
	"github.com/smallbiznis/storefront/pkg/db/option"
	"gorm.io/gorm"
)

const discountColumns = `id, store_id, name, scope_kind, product_ids, category_ids, excluded_product_ids,
	amount_kind, value, starts_at, ends_at, min_order_value, is_active, created_at, updated_at`

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) discountdomain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, d *discountdomain.Discount) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO discounts (`+discountColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID,
		d.StoreID,
		d.Name,
		d.ScopeKind,
		d.ProductIDs,
		d.CategoryIDs,
		d.ExcludedProductIDs,
		d.AmountKind,
		d.Value,
		d.StartsAt,
		d.EndsAt,
		d.MinOrderValue,
		d.IsActive,
		d.CreatedAt,
		d.UpdatedAt,
	).Error
}

func (r *repository) FindByID(ctx context.Context, storeID, id snowflake.ID) (*discountdomain.Discount, error) {
	var d discountdomain.Discount
	err := r.db.WithContext(ctx).Raw(
		`SELECT `+discountColumns+`
		 FROM discounts
		 WHERE store_id = ? AND id = ?`,
		storeID,
		id,
	).Scan(&d).Error
	if err != nil {
		return nil, err
	}
	if d.ID == 0 {
		return nil, nil
	}
	return &d, nil
}

func (r *repository) List(ctx context.Context, storeID snowflake.ID, filter discountdomain.ListRequest) ([]discountdomain.Discount, error) {
	var items []discountdomain.Discount
	stmt := r.db.WithContext(ctx).
		Model(&discountdomain.Discount{}).
		Where("store_id = ?", storeID)

	if filter.Name != "" {
		stmt = stmt.Where("name = ?", filter.Name)
	}
	if filter.IsActive != nil {
		stmt = stmt.Where("is_active = ?", *filter.IsActive)
	}

	stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
		"created_at": true,
		"updated_at": true,
		"name":       true,
	})).Apply(stmt)

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Update(ctx context.Context, d *discountdomain.Discount) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE discounts
		 SET name = ?, scope_kind = ?, product_ids = ?, category_ids = ?, excluded_product_ids = ?,
		     amount_kind = ?, value = ?, starts_at = ?, ends_at = ?, min_order_value = ?,
		     is_active = ?, updated_at = ?
		 WHERE store_id = ? AND id = ?`,
		d.Name,
		d.ScopeKind,
		d.ProductIDs,
		d.CategoryIDs,
		d.ExcludedProductIDs,
		d.AmountKind,
		d.Value,
		d.StartsAt,
		d.EndsAt,
		d.MinOrderValue,
		d.IsActive,
		d.UpdatedAt,
		d.StoreID,
		d.ID,
	).Error
}
