package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
	"github.com/smallbiznis/storefront/internal/pricing/ruledata"
)

// Rate is a flat shipping price for a country, optionally narrowed to one
// region of it.
type Rate struct {
	ID            snowflake.ID     `gorm:"primaryKey"`
	StoreID       snowflake.ID     `gorm:"column:store_id;not null;index:shipping_rates_store_country_idx,priority:1"`
	Name          string           `gorm:"type:text;not null"`
	Country       string           `gorm:"type:text;not null;index:shipping_rates_store_country_idx,priority:2"`
	Region        *string          `gorm:"type:text"`
	Price         decimal.Decimal  `gorm:"type:numeric(18,4);not null"`
	MinOrderValue *decimal.Decimal `gorm:"column:min_order_value;type:numeric(18,4)"`
	AcceptsCOD    bool             `gorm:"column:accepts_cod;not null;default:false"`
	IsActive      bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Rate) TableName() string { return "shipping_rates" }

func (r *Rate) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if len(r.Country) != 2 {
		return ErrInvalidCountry
	}
	if r.Price.IsNegative() {
		return ErrInvalidPrice
	}
	return ruledata.ValidateMinOrderValue(r.MinOrderValue)
}

func (r Rate) ToRule() pricingdomain.ShippingRate {
	return pricingdomain.ShippingRate{
		ID:            r.ID.Int64(),
		Name:          r.Name,
		Country:       r.Country,
		Region:        r.Region,
		Price:         r.Price,
		MinOrderValue: r.MinOrderValue,
		AcceptsCOD:    r.AcceptsCOD,
		IsActive:      r.IsActive,
	}
}

// NormalizeCountry upper-cases an ISO 3166-1 alpha-2 code.
func NormalizeCountry(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// NormalizeRegion upper-cases a region code; blank means country-wide.
func NormalizeRegion(value *string) *string {
	if value == nil {
		return nil
	}
	region := strings.ToUpper(strings.TrimSpace(*value))
	if region == "" {
		return nil
	}
	return &region
}
