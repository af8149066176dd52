package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
	"github.com/smallbiznis/storefront/internal/pricing/ruledata"
)

// TaxRate is a store-scoped tax levied at checkout.
// NOTE:
// - code is the identifier printed on invoices and is immutable once created
// - name/description are editable
type TaxRate struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	StoreID     snowflake.ID `gorm:"column:store_id;not null;uniqueIndex:tax_rates_store_code_key,priority:1"`
	Code        string       `gorm:"type:text;not null;uniqueIndex:tax_rates_store_code_key,priority:2"`
	Name        string       `gorm:"type:text;not null"`
	Description *string      `gorm:"type:text"`

	ruledata.ScopeColumns `gorm:"embedded"`

	TaxKind       pricingdomain.TaxKind `gorm:"column:tax_kind;type:text;not null"`
	Value         decimal.Decimal       `gorm:"type:numeric(18,4);not null"` // whole percent, or a flat amount
	ApplyPerItem  bool                  `gorm:"column:apply_per_item;not null;default:false"`
	StartsAt      *time.Time            `gorm:"column:starts_at"`
	EndsAt        *time.Time            `gorm:"column:ends_at"`
	MinOrderValue *decimal.Decimal      `gorm:"column:min_order_value;type:numeric(18,4)"`
	IsActive      bool                  `gorm:"column:is_active;not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TaxRate) TableName() string { return "tax_rates" }

func (t *TaxRate) Validate() error {
	if t.Code == "" {
		return ErrInvalidTaxCode
	}
	if strings.TrimSpace(t.Name) == "" {
		return ErrInvalidName
	}
	if !t.TaxKind.Valid() {
		return ErrInvalidTaxKind
	}
	if !t.ScopeKind.Valid() {
		return ruledata.ErrInvalidScope
	}
	if err := ruledata.ValidatePercentOrAmount(t.TaxKind == pricingdomain.TaxPercentage, t.Value); err != nil {
		return ErrInvalidTaxRate
	}
	if err := ruledata.ValidateWindow(t.StartsAt, t.EndsAt); err != nil {
		return err
	}
	return ruledata.ValidateMinOrderValue(t.MinOrderValue)
}

func (t TaxRate) ToRule() pricingdomain.Tax {
	return pricingdomain.Tax{
		ID:            t.ID.Int64(),
		Code:          t.Code,
		Name:          t.Name,
		Scope:         t.ScopeColumns.ToScope(),
		TaxKind:       t.TaxKind,
		Value:         t.Value,
		ApplyPerItem:  t.ApplyPerItem,
		Window:        ruledata.ToWindow(t.StartsAt, t.EndsAt),
		MinOrderValue: t.MinOrderValue,
		IsActive:      t.IsActive,
	}
}
