package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, tx *gorm.DB, order *Order) error
	FindByID(ctx context.Context, storeID, id snowflake.ID) (*Order, error)
	FindByIdempotencyKey(ctx context.Context, storeID snowflake.ID, key string) (*Order, error)
	// List returns up to limit orders with ids below afterID (zero for the first page), newest first.
	List(ctx context.Context, storeID snowflake.ID, status *Status, afterID snowflake.ID, limit int) ([]Order, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, storeID, id snowflake.ID, status Status, at time.Time) error

	InsertStatusEvent(ctx context.Context, tx *gorm.DB, event *StatusEvent) error
	ListStatusEvents(ctx context.Context, storeID, orderID snowflake.ID) ([]StatusEvent, error)
	InsertComment(ctx context.Context, comment *Comment) error
	ListComments(ctx context.Context, storeID, orderID snowflake.ID) ([]Comment, error)
}
