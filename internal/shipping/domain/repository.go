package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, rate *Rate) error
	FindByID(ctx context.Context, storeID, id snowflake.ID) (*Rate, error)
	List(ctx context.Context, storeID snowflake.ID, filter ListRequest) ([]Rate, error)
	Update(ctx context.Context, rate *Rate) error
}
