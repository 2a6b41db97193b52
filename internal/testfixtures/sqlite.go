package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/statusboard/internal/persistence"
	"github.com/example/statusboard/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite store
// for integration-style tests.
type SQLiteHarness struct {
	Store *sqlite.Store

	Slots       persistence.SlotRepository
	Rooms       persistence.RoomRepository
	Records     persistence.StatusBoardRepository
	MessageLogs persistence.MessageLogRepository
	Shops       persistence.ShopRepository
	Notices     persistence.DesignatedNoticeRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// will also register a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "statusboard.db")
	store, err := sqlite.Open(path)
	if err != nil {
		tb.Fatalf("failed to open store: %v", err)
	}

	if err := store.Migrate(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		_ = store.Close()
		tb.Fatalf("failed to migrate store: %v", err)
	}

	harness := &SQLiteHarness{
		Store:       store,
		Slots:       store.Slots,
		Rooms:       store.Rooms,
		Records:     store.Records,
		MessageLogs: store.MessageLogs,
		Shops:       store.Shops,
		Notices:     store.Notices,
		cleanup: func() {
			_ = store.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// SeedSlots inserts the slots, failing the test on error.
func (h *SQLiteHarness) SeedSlots(tb testing.TB, slots ...persistence.Slot) {
	tb.Helper()
	for _, slot := range slots {
		if err := h.Slots.CreateSlot(context.Background(), slot); err != nil {
			tb.Fatalf("failed to seed slot %s: %v", slot.ID, err)
		}
	}
}

// SeedRecords inserts the records, failing the test on error.
func (h *SQLiteHarness) SeedRecords(tb testing.TB, records ...persistence.StatusBoardRecord) {
	tb.Helper()
	for _, record := range records {
		if err := h.Records.CreateRecord(context.Background(), record); err != nil {
			tb.Fatalf("failed to seed record %s: %v", record.ID, err)
		}
	}
}

// Record loads one record, failing the test on error.
func (h *SQLiteHarness) Record(tb testing.TB, id string) persistence.StatusBoardRecord {
	tb.Helper()
	record, err := h.Records.GetRecord(context.Background(), id)
	if err != nil {
		tb.Fatalf("failed to load record %s: %v", id, err)
	}
	return record
}

// SlotRecords lists the records of a slot, most recently inserted first.
func (h *SQLiteHarness) SlotRecords(tb testing.TB, slotID string) []persistence.StatusBoardRecord {
	tb.Helper()
	records, err := h.Records.ListRecords(context.Background(), persistence.RecordFilter{SlotID: slotID})
	if err != nil {
		tb.Fatalf("failed to list records of %s: %v", slotID, err)
	}
	return records
}
