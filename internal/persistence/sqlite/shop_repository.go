package sqlite

import (
	"context"

	"github.com/example/statusboard/internal/persistence"
)

// ShopRepository implements persistence.ShopRepository using SQLite
type ShopRepository struct {
	pool *ConnectionPool
}

// NewShopRepository creates a new SQLite shop repository
func NewShopRepository(pool *ConnectionPool) *ShopRepository {
	return &ShopRepository{pool: pool}
}

// GetActiveEventTime returns the active event window of shop.
func (r *ShopRepository) GetActiveEventTime(ctx context.Context, shop string) (persistence.EventTime, error) {
	var et persistence.EventTime
	err := r.pool.QueryRow(ctx, `
		SELECT id, shop_name, start_time, end_time, is_active
		FROM event_times
		WHERE shop_name = ? AND is_active = 1`,
		shop,
	).Scan(&et.ID, &et.ShopName, &et.StartTime, &et.EndTime, &et.IsActive)
	if err != nil {
		return persistence.EventTime{}, MapError(err)
	}
	return et, nil
}

// UpsertEventTime replaces the event window of a shop.
func (r *ShopRepository) UpsertEventTime(ctx context.Context, et persistence.EventTime) error {
	if et.ID == "" || et.ShopName == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_times (id, shop_name, start_time, end_time, is_active)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (shop_name) DO UPDATE SET
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			is_active = excluded.is_active`,
		et.ID, et.ShopName, et.StartTime, et.EndTime, et.IsActive,
	)
	return err
}

// GetClosingTime returns the business hours override of shop.
func (r *ShopRepository) GetClosingTime(ctx context.Context, shop string) (persistence.ShopClosingTime, error) {
	var ct persistence.ShopClosingTime
	err := r.pool.QueryRow(ctx, `
		SELECT shop_name, open_time, close_time, updated_at
		FROM shop_closing_times
		WHERE shop_name = ?`,
		shop,
	).Scan(&ct.ShopName, &ct.OpenTime, &ct.CloseTime, &ct.UpdatedAt)
	if err != nil {
		return persistence.ShopClosingTime{}, MapError(err)
	}
	return ct, nil
}

// UpsertClosingTime replaces the business hours override of a shop.
func (r *ShopRepository) UpsertClosingTime(ctx context.Context, ct persistence.ShopClosingTime) error {
	if ct.ShopName == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO shop_closing_times (shop_name, open_time, close_time, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (shop_name) DO UPDATE SET
			open_time = excluded.open_time,
			close_time = excluded.close_time,
			updated_at = excluded.updated_at`,
		ct.ShopName, ct.OpenTime, ct.CloseTime, ct.UpdatedAt,
	)
	return err
}
