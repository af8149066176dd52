package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) orderdomain.Repository {
	return &repository{db: db}
}

func (r *repository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *repository) Insert(ctx context.Context, tx *gorm.DB, order *orderdomain.Order) error {
	return r.conn(tx).WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, storeID, id snowflake.ID) (*orderdomain.Order, error) {
	var order orderdomain.Order
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND id = ?", storeID, id).
		Limit(1).
		Find(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repository) FindByIdempotencyKey(ctx context.Context, storeID snowflake.ID, key string) (*orderdomain.Order, error) {
	var order orderdomain.Order
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND idempotency_key = ?", storeID, key).
		Limit(1).
		Find(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, storeID snowflake.ID, status *orderdomain.Status, afterID snowflake.ID, limit int) ([]orderdomain.Order, error) {
	var items []orderdomain.Order
	stmt := r.db.WithContext(ctx).
		Model(&orderdomain.Order{}).
		Where("store_id = ?", storeID)

	if status != nil {
		stmt = stmt.Where("status = ?", *status)
	}
	if afterID != 0 {
		stmt = stmt.Where("id < ?", afterID)
	}

	if err := stmt.Order("id DESC").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) UpdateStatus(ctx context.Context, tx *gorm.DB, storeID, id snowflake.ID, status orderdomain.Status, at time.Time) error {
	return r.conn(tx).WithContext(ctx).Exec(
		`UPDATE orders SET status = ?, updated_at = ? WHERE store_id = ? AND id = ?`,
		status,
		at,
		storeID,
		id,
	).Error
}

func (r *repository) InsertStatusEvent(ctx context.Context, tx *gorm.DB, event *orderdomain.StatusEvent) error {
	return r.conn(tx).WithContext(ctx).Exec(
		`INSERT INTO order_status_events (id, store_id, order_id, from_status, to_status, on_path, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.StoreID,
		event.OrderID,
		event.FromStatus,
		event.ToStatus,
		event.OnPath,
		event.Note,
		event.CreatedAt,
	).Error
}

func (r *repository) ListStatusEvents(ctx context.Context, storeID, orderID snowflake.ID) ([]orderdomain.StatusEvent, error) {
	var items []orderdomain.StatusEvent
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, store_id, order_id, from_status, to_status, on_path, note, created_at
		 FROM order_status_events
		 WHERE store_id = ? AND order_id = ?
		 ORDER BY id ASC`,
		storeID,
		orderID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) InsertComment(ctx context.Context, comment *orderdomain.Comment) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO order_comments (id, store_id, order_id, author, body, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		comment.ID,
		comment.StoreID,
		comment.OrderID,
		comment.Author,
		comment.Body,
		comment.CreatedAt,
	).Error
}

func (r *repository) ListComments(ctx context.Context, storeID, orderID snowflake.ID) ([]orderdomain.Comment, error) {
	var items []orderdomain.Comment
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, store_id, order_id, author, body, created_at
		 FROM order_comments
		 WHERE store_id = ? AND order_id = ?
		 ORDER BY id ASC`,
		storeID,
		orderID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
