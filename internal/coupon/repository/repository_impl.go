package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	coupondomain "github.com/smallbiznis/storefront/internal/coupon/domain"
	"github.com/smallbiznis/storefront/pkg/db/option"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const couponColumns = `id, store_id, code, normalized_code, scope_kind, product_ids, category_ids,
	excluded_product_ids, amount_kind, value, starts_at, ends_at, min_order_value, usage_limit,
	usage_count, is_active, created_at, updated_at`

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) coupondomain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, c *coupondomain.Coupon) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO coupons (`+couponColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.StoreID,
		c.Code,
		c.NormalizedCode,
		c.ScopeKind,
		c.ProductIDs,
		c.CategoryIDs,
		c.ExcludedProductIDs,
		c.AmountKind,
		c.Value,
		c.StartsAt,
		c.EndsAt,
		c.MinOrderValue,
		c.UsageLimit,
		c.UsageCount,
		c.IsActive,
		c.CreatedAt,
		c.UpdatedAt,
	).Error
}

func (r *repository) FindByID(ctx context.Context, storeID, id snowflake.ID) (*coupondomain.Coupon, error) {
	return r.FindByIDTx(ctx, r.db, storeID, id)
}

func (r *repository) FindByIDTx(ctx context.Context, tx *gorm.DB, storeID, id snowflake.ID) (*coupondomain.Coupon, error) {
	var c coupondomain.Coupon
	err := tx.WithContext(ctx).Raw(
		`SELECT `+couponColumns+`
		 FROM coupons
		 WHERE store_id = ? AND id = ?`,
		storeID,
		id,
	).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

func (r *repository) FindByCode(ctx context.Context, storeID snowflake.ID, normalizedCode string) (*coupondomain.Coupon, error) {
	var c coupondomain.Coupon
	err := r.db.WithContext(ctx).Raw(
		`SELECT `+couponColumns+`
		 FROM coupons
		 WHERE store_id = ? AND normalized_code = ?`,
		storeID,
		normalizedCode,
	).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

func (r *repository) List(ctx context.Context, storeID snowflake.ID, filter coupondomain.ListRequest) ([]coupondomain.Coupon, error) {
	var items []coupondomain.Coupon
	stmt := r.db.WithContext(ctx).
		Model(&coupondomain.Coupon{}).
		Where("store_id = ?", storeID)

	if filter.Code != "" {
		stmt = stmt.Where("normalized_code = ?", filter.Code)
	}
	if filter.IsActive != nil {
		stmt = stmt.Where("is_active = ?", *filter.IsActive)
	}

	stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
		"created_at":  true,
		"updated_at":  true,
		"code":        true,
		"usage_count": true,
	})).Apply(stmt)

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Update(ctx context.Context, c *coupondomain.Coupon) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE coupons
		 SET scope_kind = ?, product_ids = ?, category_ids = ?, excluded_product_ids = ?,
		     amount_kind = ?, value = ?, starts_at = ?, ends_at = ?, min_order_value = ?,
		     usage_limit = ?, is_active = ?, updated_at = ?
		 WHERE store_id = ? AND id = ?`,
		c.ScopeKind,
		c.ProductIDs,
		c.CategoryIDs,
		c.ExcludedProductIDs,
		c.AmountKind,
		c.Value,
		c.StartsAt,
		c.EndsAt,
		c.MinOrderValue,
		c.UsageLimit,
		c.IsActive,
		c.UpdatedAt,
		c.StoreID,
		c.ID,
	).Error
}

func (r *repository) InsertRedemption(ctx context.Context, tx *gorm.DB, redemption *coupondomain.Redemption) (bool, error) {
	res := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "coupon_id"}, {Name: "order_id"}},
			DoNothing: true,
		}).
		Create(redemption)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) IncrementUsage(ctx context.Context, tx *gorm.DB, storeID, couponID snowflake.ID, at time.Time) (bool, error) {
	res := tx.WithContext(ctx).Exec(
		`UPDATE coupons
		 SET usage_count = usage_count + 1, updated_at = ?
		 WHERE store_id = ? AND id = ? AND is_active = ?
		   AND (usage_limit IS NULL OR usage_count < usage_limit)`,
		at,
		storeID,
		couponID,
		true,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
