package sqlite

import (
	"context"
	"fmt"

	"github.com/example/statusboard/internal/localtime"
	"github.com/example/statusboard/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository using SQLite
type RoomRepository struct {
	pool *ConnectionPool
}

// NewRoomRepository creates a new SQLite room repository
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{pool: pool}
}

const roomColumns = `id, shop_name, room_number, open_time, close_time, room_start_time, room_end_time, is_active, created_at, updated_at`

// CreateRoom inserts a room. A second active room for the same shop and
// number is rejected with persistence.ErrDuplicate.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.RoomNumber == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO rooms (`+roomColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		room.ID,
		room.ShopName,
		room.RoomNumber,
		room.OpenTime,
		room.CloseTime,
		room.StartTime,
		room.EndTime,
		room.IsActive,
		room.CreatedAt,
		room.UpdatedAt,
	)
	return err
}

// FindActiveRoom returns the open room for shop and number.
func (r *RoomRepository) FindActiveRoom(ctx context.Context, shop, number string) (persistence.Room, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+roomColumns+`
		FROM rooms
		WHERE shop_name = ? AND room_number = ? AND is_active = 1`,
		shop, number,
	)
	room, err := scanRoom(row)
	if err != nil {
		return persistence.Room{}, MapError(err)
	}
	return room, nil
}

// ListActiveRooms returns open rooms ordered by shop and number. An empty
// shop lists all shops.
func (r *RoomRepository) ListActiveRooms(ctx context.Context, shop string) ([]persistence.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE is_active = 1`
	var args []any
	if shop != "" {
		query += ` AND shop_name = ?`
		args = append(args, shop)
	}
	query += ` ORDER BY shop_name ASC, room_number ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, MapError(err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return rooms, nil
}

// CloseRoom deactivates an open room. Closing a closed room changes nothing
// and reports false; an unknown id is persistence.ErrNotFound.
func (r *RoomRepository) CloseRoom(ctx context.Context, id string, at localtime.Time) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE rooms
		SET is_active = 0, room_end_time = ?, updated_at = ?
		WHERE id = ? AND is_active = 1`,
		at, at, id,
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected > 0 {
		return true, nil
	}

	var exists int
	if err := r.pool.QueryRow(ctx, `SELECT 1 FROM rooms WHERE id = ?`, id).Scan(&exists); err != nil {
		return false, MapError(err)
	}
	return false, nil
}

func scanRoom(row rowScanner) (persistence.Room, error) {
	var room persistence.Room
	err := row.Scan(
		&room.ID,
		&room.ShopName,
		&room.RoomNumber,
		&room.OpenTime,
		&room.CloseTime,
		&room.StartTime,
		&room.EndTime,
		&room.IsActive,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	return room, err
}
