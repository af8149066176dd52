package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	shippingdomain "github.com/smallbiznis/storefront/internal/shipping/domain"
	"github.com/smallbiznis/storefront/pkg/db/option"
	"gorm.io/gorm"
)

const rateColumns = `id, store_id, name, country, region, price, min_order_value, accepts_cod,
	is_active, created_at, updated_at`

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) shippingdomain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, rate *shippingdomain.Rate) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO shipping_rates (`+rateColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rate.ID,
		rate.StoreID,
		rate.Name,
		rate.Country,
		rate.Region,
		rate.Price,
		rate.MinOrderValue,
		rate.AcceptsCOD,
		rate.IsActive,
		rate.CreatedAt,
		rate.UpdatedAt,
	).Error
}

func (r *repository) FindByID(ctx context.Context, storeID, id snowflake.ID) (*shippingdomain.Rate, error) {
	var rate shippingdomain.Rate
	err := r.db.WithContext(ctx).Raw(
		`SELECT `+rateColumns+`
		 FROM shipping_rates
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

func (r *repository) List(ctx context.Context, storeID snowflake.ID, filter shippingdomain.ListRequest) ([]shippingdomain.Rate, error) {
	var items []shippingdomain.Rate
	stmt := r.db.WithContext(ctx).
		Model(&shippingdomain.Rate{}).
		Where("store_id = ?", storeID)

	if filter.Country != "" {
		stmt = stmt.Where("country = ?", filter.Country)
	}
	if filter.IsActive != nil {
		stmt = stmt.Where("is_active = ?", *filter.IsActive)
	}

	stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
		"created_at": true,
		"name":       true,
		"country":    true,
		"price":      true,
	})).Apply(stmt)

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Update(ctx context.Context, rate *shippingdomain.Rate) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE shipping_rates
		 SET name = ?, region = ?, price = ?, min_order_value = ?, accepts_cod = ?, is_active = ?, updated_at = ?
		 WHERE store_id = ? AND id = ?`,
		rate.Name,
		rate.Region,
		rate.Price,
		rate.MinOrderValue,
		rate.AcceptsCOD,
		rate.IsActive,
		rate.UpdatedAt,
		rate.StoreID,
		rate.ID,
	).Error
}
