package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Category is a node of a store's self-referencing category hierarchy.
type Category struct {
	ID        snowflake.ID  `gorm:"primaryKey"`
	StoreID   snowflake.ID  `gorm:"column:store_id;not null;uniqueIndex:categories_store_slug_key,priority:1"`
	Name      string        `gorm:"type:text;not null"`
	Slug      string        `gorm:"type:text;not null;uniqueIndex:categories_store_slug_key,priority:2"`
	ParentID  *snowflake.ID `gorm:"column:parent_id"`
	CreatedAt time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Category) TableName() string { return "categories" }

func (c Category) NodeID() int64 { return c.ID.Int64() }

func (c Category) ParentNodeID() *int64 {
	if c.ParentID == nil {
		return nil
	}
	id := c.ParentID.Int64()
	return &id
}

func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrInvalidName
	}
	if strings.TrimSpace(c.Slug) == "" {
		return ErrInvalidSlug
	}
	if c.ParentID != nil && *c.ParentID == c.ID {
		return ErrCategoryCycle
	}
	return nil
}

type Product struct {
	ID         snowflake.ID    `gorm:"primaryKey"`
	StoreID    snowflake.ID    `gorm:"column:store_id;not null;index"`
	CategoryID *snowflake.ID   `gorm:"column:category_id"`
	Name       string          `gorm:"type:text;not null"`
	SKU        *string         `gorm:"column:sku;type:text"`
	Price      decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	IsActive   bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Product) TableName() string { return "products" }

func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidName
	}
	if p.Price.IsNegative() {
		return ErrInvalidPrice
	}
	return nil
}
