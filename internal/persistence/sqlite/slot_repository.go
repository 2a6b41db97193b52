package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/statusboard/internal/localtime"
	"github.com/example/statusboard/internal/persistence"
)

// SlotRepository implements persistence.SlotRepository using SQLite.
type SlotRepository struct {
	pool *ConnectionPool
}

// NewSlotRepository creates a new SQLite slot repository
func NewSlotRepository(pool *ConnectionPool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

const slotColumns = `id, owner_id, subject_name, shop_name, contact_id, target_room, is_active, expires_at, created_at, updated_at`

// CreateSlot inserts a slot. Slots are normally owned by the account
// surface; the store accepts them for seeding and tests.
func (r *SlotRepository) CreateSlot(ctx context.Context, slot persistence.Slot) error {
	if slot.ID == "" || slot.SubjectName == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO slots (`+slotColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		slot.ID,
		slot.OwnerID,
		slot.SubjectName,
		optionalString(slot.ShopName),
		slot.ContactID,
		slot.TargetRoom,
		slot.IsActive,
		slot.ExpiresAt,
		slot.CreatedAt,
		slot.UpdatedAt,
	)
	return err
}

// GetSlot retrieves a slot by ID.
func (r *SlotRepository) GetSlot(ctx context.Context, id string) (persistence.Slot, error) {
	if id == "" {
		return persistence.Slot{}, persistence.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+slotColumns+` FROM slots WHERE id = ?`, id)
	slot, err := scanSlot(row)
	if err != nil {
		return persistence.Slot{}, MapError(err)
	}
	return slot, nil
}

// ListActiveSlots returns active slots of shop, including slots bound to no
// shop, that have not expired at the given time.
func (r *SlotRepository) ListActiveSlots(ctx context.Context, shop string, at localtime.Time) ([]persistence.Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM slots
		WHERE is_active = 1
		  AND (shop_name = ? OR shop_name IS NULL)
		  AND (expires_at IS NULL OR expires_at > ?)
		ORDER BY subject_name ASC, id ASC`,
		shop, at,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []persistence.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, MapError(err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return slots, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSlot(row rowScanner) (persistence.Slot, error) {
	var (
		slot persistence.Slot
		shop sql.NullString
	)
	err := row.Scan(
		&slot.ID,
		&slot.OwnerID,
		&slot.SubjectName,
		&shop,
		&slot.ContactID,
		&slot.TargetRoom,
		&slot.IsActive,
		&slot.ExpiresAt,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Slot{}, persistence.ErrNotFound
		}
		return persistence.Slot{}, err
	}
	if shop.Valid {
		name := shop.String
		slot.ShopName = &name
	}
	return slot, nil
}

// nullString stores an empty string as NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func optionalString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func optionalFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func optionalInt(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}
