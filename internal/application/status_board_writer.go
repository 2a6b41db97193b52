package application

import (
	"context"
	"log/slog"

	"github.com/example/statusboard/internal/persistence"
)

// StatusBoardWriter applies session mutations to the ledger. Every write
// marks the record for re-delivery.
type StatusBoardWriter struct {
	records persistence.StatusBoardRepository
	logger  *slog.Logger
}

// NewStatusBoardWriter constructs a writer over records.
func NewStatusBoardWriter(records persistence.StatusBoardRepository, logger *slog.Logger) *StatusBoardWriter {
	return &StatusBoardWriter{records: records, logger: defaultLogger(logger)}
}

// Create inserts a new session record.
func (w *StatusBoardWriter) Create(ctx context.Context, record persistence.StatusBoardRecord) (err error) {
	logger := serviceLogger(ctx, w.logger, "StatusBoardWriter", "Create",
		"record_id", record.ID,
		"slot_id", record.SlotID,
		"trigger_type", record.TriggerType,
	)
	defer func() { logResult(ctx, logger, err, "status board record created") }()

	record.DataChanged = true
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}
	err = mapStoreError("create record", w.records.CreateRecord(ctx, record))
	return err
}

// Apply performs updates on one record keyed by id.
func (w *StatusBoardWriter) Apply(ctx context.Context, id string, meta persistence.UpdateMeta, updates ...persistence.RecordUpdate) (err error) {
	logger := serviceLogger(ctx, w.logger, "StatusBoardWriter", "Apply",
		"record_id", id,
		"updates", len(updates),
	)
	defer func() { logResult(ctx, logger, err, "status board record updated") }()

	err = mapStoreError("update record", w.records.UpdateRecord(ctx, id, meta, updates...))
	return err
}
