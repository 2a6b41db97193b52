package sqlite

import (
	"context"

	"github.com/example/statusboard/internal/persistence"
)

// MessageLogRepository implements persistence.MessageLogRepository using SQLite
type MessageLogRepository struct {
	pool *ConnectionPool
}

// NewMessageLogRepository creates a new SQLite message log repository
func NewMessageLogRepository(pool *ConnectionPool) *MessageLogRepository {
	return &MessageLogRepository{pool: pool}
}

// CreateMessageLog appends a receipt. The unique source log id turns a
// replayed message into persistence.ErrDuplicate.
func (r *MessageLogRepository) CreateMessageLog(ctx context.Context, log persistence.MessageLog) error {
	if log.ID == "" || log.SourceLogID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO message_logs (id, source_log_id, room, sender, message, received_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		log.ID,
		log.SourceLogID,
		log.Room,
		log.Sender,
		log.Message,
		log.ReceivedAt,
		log.CreatedAt,
	)
	return err
}

// GetMessageLogBySource retrieves a receipt by its source log id.
func (r *MessageLogRepository) GetMessageLogBySource(ctx context.Context, sourceLogID string) (persistence.MessageLog, error) {
	var log persistence.MessageLog
	err := r.pool.QueryRow(ctx, `
		SELECT id, source_log_id, room, sender, message, received_at, created_at
		FROM message_logs
		WHERE source_log_id = ?`,
		sourceLogID,
	).Scan(
		&log.ID,
		&log.SourceLogID,
		&log.Room,
		&log.Sender,
		&log.Message,
		&log.ReceivedAt,
		&log.CreatedAt,
	)
	if err != nil {
		return persistence.MessageLog{}, MapError(err)
	}
	return log, nil
}
