package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	ListActive(ctx context.Context, storeID snowflake.ID) ([]TaxRate, error)
	Create(ctx context.Context, rate *TaxRate) error
	FindByID(ctx context.Context, storeID, id snowflake.ID) (*TaxRate, error)
	List(ctx context.Context, storeID snowflake.ID, filter ListRequest) ([]TaxRate, error)
	Update(ctx context.Context, rate *TaxRate) error
}
