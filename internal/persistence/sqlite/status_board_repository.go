package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/statusboard/internal/persistence"
)

// StatusBoardRepository implements persistence.StatusBoardRepository using SQLite
type StatusBoardRepository struct {
	pool *ConnectionPool
}

// NewStatusBoardRepository creates a new SQLite status board repository
func NewStatusBoardRepository(pool *ConnectionPool) *StatusBoardRepository {
	return &StatusBoardRepository{pool: pool}
}

const recordColumns = `id, slot_id, owner_id, subject_name, shop_name, contact_id, target_room,
	room_number, current_room, is_in_progress, start_time, end_time, usage_duration,
	usage_explicit, event_count, fare_tickets, trigger_type, is_designated, is_event,
	source_log_id, data_changed, created_at, updated_at`

// CreateRecord inserts a new session record.
func (r *StatusBoardRepository) CreateRecord(ctx context.Context, record persistence.StatusBoardRecord) error {
	if record.ID == "" || record.SlotID == "" || record.TriggerType == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO status_board (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.SlotID,
		record.OwnerID,
		record.SubjectName,
		record.ShopName,
		record.ContactID,
		record.TargetRoom,
		record.RoomNumber,
		record.CurrentRoom,
		record.IsInProgress,
		record.StartTime,
		record.EndTime,
		optionalFloat(record.UsageDuration),
		record.UsageExplicit,
		optionalInt(record.EventCount),
		optionalFloat(record.FareTickets),
		string(record.TriggerType),
		record.IsDesignated,
		record.IsEvent,
		nullString(record.SourceLogID),
		record.DataChanged,
		record.CreatedAt,
		record.UpdatedAt,
	)
	return err
}

// GetRecord retrieves a record by ID.
func (r *StatusBoardRepository) GetRecord(ctx context.Context, id string) (persistence.StatusBoardRecord, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM status_board WHERE id = ?`, id)
	record, err := scanRecord(row)
	if err != nil {
		return persistence.StatusBoardRecord{}, MapError(err)
	}
	return record, nil
}

// ListRecords returns the records matching filter, most recently inserted
// first. created_at follows the message receipt time, which delayed
// deliveries can put out of order.
func (r *StatusBoardRepository) ListRecords(ctx context.Context, filter persistence.RecordFilter) ([]persistence.StatusBoardRecord, error) {
	var (
		where []string
		args  []any
	)
	if filter.SlotID != "" {
		where = append(where, "slot_id = ?")
		args = append(args, filter.SlotID)
	}
	if filter.ShopName != "" {
		where = append(where, "shop_name = ?")
		args = append(args, filter.ShopName)
	}
	if filter.CurrentRoom != "" {
		where = append(where, "current_room = ?")
		args = append(args, filter.CurrentRoom)
	}
	if filter.InProgress != nil {
		where = append(where, "is_in_progress = ?")
		args = append(args, *filter.InProgress)
	}
	if filter.Trigger != "" {
		where = append(where, "trigger_type = ?")
		args = append(args, string(filter.Trigger))
	}
	if filter.IsEvent != nil {
		where = append(where, "is_event = ?")
		args = append(args, *filter.IsEvent)
	}
	if !filter.StartFrom.IsZero() {
		where = append(where, "start_time >= ?")
		args = append(args, filter.StartFrom)
	}
	if !filter.StartBefore.IsZero() {
		where = append(where, "start_time < ?")
		args = append(args, filter.StartBefore)
	}

	query := `SELECT ` + recordColumns + ` FROM status_board`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY rowid DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, int64(filter.Limit))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []persistence.StatusBoardRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, MapError(err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return records, nil
}

// UpdateRecord writes the columns named by updates plus the bookkeeping
// columns of meta in one statement.
func (r *StatusBoardRepository) UpdateRecord(ctx context.Context, id string, meta persistence.UpdateMeta, updates ...persistence.RecordUpdate) error {
	var cols []persistence.Column
	for _, u := range updates {
		cols = append(cols, u.Columns()...)
	}
	cols = append(cols, meta.Columns()...)

	assignments := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for _, c := range cols {
		assignments = append(assignments, c.Name+" = ?")
		args = append(args, c.Value)
	}
	args = append(args, id)

	result, err := r.pool.Exec(ctx,
		`UPDATE status_board SET `+strings.Join(assignments, ", ")+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func scanRecord(row rowScanner) (persistence.StatusBoardRecord, error) {
	var (
		record      persistence.StatusBoardRecord
		usage       sql.NullFloat64
		eventCount  sql.NullInt64
		fare        sql.NullFloat64
		trigger     string
		sourceLogID sql.NullString
	)
	err := row.Scan(
		&record.ID,
		&record.SlotID,
		&record.OwnerID,
		&record.SubjectName,
		&record.ShopName,
		&record.ContactID,
		&record.TargetRoom,
		&record.RoomNumber,
		&record.CurrentRoom,
		&record.IsInProgress,
		&record.StartTime,
		&record.EndTime,
		&usage,
		&record.UsageExplicit,
		&eventCount,
		&fare,
		&trigger,
		&record.IsDesignated,
		&record.IsEvent,
		&sourceLogID,
		&record.DataChanged,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return persistence.StatusBoardRecord{}, err
	}
	if usage.Valid {
		v := usage.Float64
		record.UsageDuration = &v
	}
	if eventCount.Valid {
		v := int(eventCount.Int64)
		record.EventCount = &v
	}
	if fare.Valid {
		v := fare.Float64
		record.FareTickets = &v
	}
	record.TriggerType = persistence.TriggerType(trigger)
	record.SourceLogID = sourceLogID.String
	return record, nil
}
