package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, coupon *Coupon) error
	FindByID(ctx context.Context, storeID, id snowflake.ID) (*Coupon, error)
	FindByCode(ctx context.Context, storeID snowflake.ID, normalizedCode string) (*Coupon, error)
	List(ctx context.Context, storeID snowflake.ID, filter ListRequest) ([]Coupon, error)
	Update(ctx context.Context, coupon *Coupon) error

	// InsertRedemption reports false when the pair was already recorded.
	InsertRedemption(ctx context.Context, tx *gorm.DB, redemption *Redemption) (bool, error)
	// IncrementUsage bumps usage_count only while the coupon is active and
	// under its limit. It reports whether a row was updated.
	IncrementUsage(ctx context.Context, tx *gorm.DB, storeID, couponID snowflake.ID, at time.Time) (bool, error)
	FindByIDTx(ctx context.Context, tx *gorm.DB, storeID, id snowflake.ID) (*Coupon, error)
}
