package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
	"github.com/smallbiznis/storefront/internal/pricing/ruledata"
)

// Coupon is a store-scoped code that customers enter at checkout.
// UsageCount is only ever changed by Repository.IncrementUsage, called from
// Service.Redeem.
type Coupon struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	StoreID        snowflake.ID `gorm:"column:store_id;not null;uniqueIndex:coupons_store_code_key,priority:1"`
	Code           string       `gorm:"type:text;not null"`
	NormalizedCode string       `gorm:"column:normalized_code;type:text;not null;uniqueIndex:coupons_store_code_key,priority:2"`

	ruledata.ScopeColumns `gorm:"embedded"`

	AmountKind    pricingdomain.AmountKind `gorm:"column:amount_kind;type:text;not null"`
	Value         decimal.Decimal          `gorm:"type:numeric(18,4);not null"`
	StartsAt      *time.Time               `gorm:"column:starts_at"`
	EndsAt        *time.Time               `gorm:"column:ends_at"`
	MinOrderValue *decimal.Decimal         `gorm:"column:min_order_value;type:numeric(18,4)"`
	UsageLimit    *int64                   `gorm:"column:usage_limit"`
	UsageCount    int64                    `gorm:"column:usage_count;not null;default:0"`
	IsActive      bool                     `gorm:"column:is_active;not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Coupon) TableName() string { return "coupons" }

func (c *Coupon) Validate() error {
	if strings.TrimSpace(c.Code) == "" || c.NormalizedCode == "" {
		return ErrInvalidCode
	}
	if !c.ScopeKind.Valid() {
		return ruledata.ErrInvalidScope
	}
	if !c.AmountKind.Valid() {
		return ruledata.ErrInvalidAmountKind
	}
	if err := ruledata.ValidatePercentOrAmount(c.AmountKind == pricingdomain.AmountPercentage, c.Value); err != nil {
		return err
	}
	if err := ruledata.ValidateWindow(c.StartsAt, c.EndsAt); err != nil {
		return err
	}
	if err := ruledata.ValidateMinOrderValue(c.MinOrderValue); err != nil {
		return err
	}
	if c.UsageLimit != nil && *c.UsageLimit < 0 {
		return ErrInvalidUsageLimit
	}
	return nil
}

// ToRule converts the row into the pricing engine's coupon variant.
func (c Coupon) ToRule() pricingdomain.Coupon {
	return pricingdomain.Coupon{
		ID:            c.ID.Int64(),
		Code:          c.Code,
		Scope:         c.ScopeColumns.ToScope(),
		AmountKind:    c.AmountKind,
		Value:         c.Value,
		Window:        ruledata.ToWindow(c.StartsAt, c.EndsAt),
		MinOrderValue: c.MinOrderValue,
		UsageLimit:    c.UsageLimit,
		UsageCount:    c.UsageCount,
		IsActive:      c.IsActive,
	}
}

// Redemption records that an order consumed one use of a coupon. The
// (coupon_id, order_id) pair is unique so a retried order never counts twice.
type Redemption struct {
	CouponID   snowflake.ID `gorm:"column:coupon_id;primaryKey;autoIncrement:false"`
	OrderID    snowflake.ID `gorm:"column:order_id;primaryKey;autoIncrement:false"`
	StoreID    snowflake.ID `gorm:"column:store_id;not null"`
	RedeemedAt time.Time    `gorm:"column:redeemed_at;not null"`
}

func (Redemption) TableName() string { return "coupon_redemptions" }
