package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
	"github.com/smallbiznis/storefront/internal/pricing/ruledata"
)

// Discount is an automatic, code-less price reduction.
type Discount struct {
	ID      snowflake.ID `gorm:"primaryKey"`
	StoreID snowflake.ID `gorm:"column:store_id;not null;index"`
	Name    string       `gorm:"type:text;not null"`

	ruledata.ScopeColumns `gorm:"embedded"`

	AmountKind    pricingdomain.AmountKind `gorm:"column:amount_kind;type:text;not null"`
	Value         decimal.Decimal          `gorm:"type:numeric(18,4);not null"`
	StartsAt      *time.Time               `gorm:"column:starts_at"`
	EndsAt        *time.Time               `gorm:"column:ends_at"`
	MinOrderValue *decimal.Decimal         `gorm:"column:min_order_value;type:numeric(18,4)"`
	IsActive      bool                     `gorm:"column:is_active;not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Discount) TableName() string { return "discounts" }

func (d *Discount) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrInvalidName
	}
	if !d.ScopeKind.Valid() {
		return ruledata.ErrInvalidScope
	}
	if !d.AmountKind.Valid() {
		return ruledata.ErrInvalidAmountKind
	}
	if err := ruledata.ValidatePercentOrAmount(d.AmountKind == pricingdomain.AmountPercentage, d.Value); err != nil {
		return err
	}
	if err := ruledata.ValidateWindow(d.StartsAt, d.EndsAt); err != nil {
		return err
	}
	return ruledata.ValidateMinOrderValue(d.MinOrderValue)
}

func (d Discount) ToRule() pricingdomain.Discount {
	return pricingdomain.Discount{
		ID:            d.ID.Int64(),
		Name:          d.Name,
		Scope:         d.ScopeColumns.ToScope(),
		AmountKind:    d.AmountKind,
		Value:         d.Value,
		Window:        ruledata.ToWindow(d.StartsAt, d.EndsAt),
		MinOrderValue: d.MinOrderValue,
		IsActive:      d.IsActive,
	}
}
