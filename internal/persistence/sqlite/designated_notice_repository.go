package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/statusboard/internal/localtime"
	"github.com/example/statusboard/internal/persistence"
)

// DesignatedNoticeRepository implements persistence.DesignatedNoticeRepository using SQLite
type DesignatedNoticeRepository struct {
	pool *ConnectionPool
}

// NewDesignatedNoticeRepository creates a new SQLite designated notice repository
func NewDesignatedNoticeRepository(pool *ConnectionPool) *DesignatedNoticeRepository {
	return &DesignatedNoticeRepository{pool: pool}
}

const noticeColumns = `id, slot_id, shop_name, manager_name, subject_name, source_log_id, created_at`

// ListNotices returns the current designated list of shop.
func (r *DesignatedNoticeRepository) ListNotices(ctx context.Context, shop string) ([]persistence.DesignatedNotice, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+noticeColumns+`
		FROM designated_notices
		WHERE shop_name = ?
		ORDER BY created_at ASC, id ASC`,
		shop,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notices []persistence.DesignatedNotice
	for rows.Next() {
		var (
			n      persistence.DesignatedNotice
			source sql.NullString
		)
		if err := rows.Scan(&n.ID, &n.SlotID, &n.ShopName, &n.ManagerName, &n.SubjectName, &source, &n.CreatedAt); err != nil {
			return nil, MapError(err)
		}
		n.SourceLogID = source.String
		notices = append(notices, n)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return notices, nil
}

// CreateNotice lists a slot as designated. A slot appears at most once.
func (r *DesignatedNoticeRepository) CreateNotice(ctx context.Context, n persistence.DesignatedNotice) error {
	if n.ID == "" || n.SlotID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO designated_notices (`+noticeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.SlotID, n.ShopName, n.ManagerName, n.SubjectName, nullString(n.SourceLogID), n.CreatedAt,
	)
	return err
}

// ArchiveNotice copies a notice into the history table and removes it from
// the current list in one transaction.
func (r *DesignatedNoticeRepository) ArchiveNotice(ctx context.Context, id string, removedAt localtime.Time) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO designated_notice_history (`+noticeColumns+`, removed_at)
			SELECT `+noticeColumns+`, ?
			FROM designated_notices
			WHERE id = ?`,
			removedAt, id,
		)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM designated_notices WHERE id = ?`, id)
		return err
	})
}
