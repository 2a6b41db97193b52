package persistence

import (
	"context"

	"github.com/example/statusboard/internal/localtime"
)

// SlotRepository reads tracked slots.
type SlotRepository interface {
	CreateSlot(ctx context.Context, slot Slot) error
	GetSlot(ctx context.Context, id string) (Slot, error)
	// ListActiveSlots returns active, unexpired slots bound to shop or to no
	// shop at all.
	ListActiveSlots(ctx context.Context, shop string, at localtime.Time) ([]Slot, error)
}

// RoomRepository stores chat room lifecycles.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	// FindActiveRoom returns the open room for (shop, number) or ErrNotFound.
	FindActiveRoom(ctx context.Context, shop, number string) (Room, error)
	// ListActiveRooms lists open rooms; an empty shop lists every shop.
	ListActiveRooms(ctx context.Context, shop string) ([]Room, error)
	// CloseRoom deactivates a room and reports whether it was open.
	CloseRoom(ctx context.Context, id string, at localtime.Time) (bool, error)
}

// RecordFilter narrows status board queries. Zero fields do not filter.
type RecordFilter struct {
	SlotID      string
	ShopName    string
	CurrentRoom string
	InProgress  *bool
	Trigger     TriggerType
	IsEvent     *bool
	StartFrom   localtime.Time
	StartBefore localtime.Time
	// Limit caps the result; records are returned newest first.
	Limit int
}

// StatusBoardRepository stores session records.
type StatusBoardRepository interface {
	CreateRecord(ctx context.Context, record StatusBoardRecord) error
	GetRecord(ctx context.Context, id string) (StatusBoardRecord, error)
	ListRecords(ctx context.Context, filter RecordFilter) ([]StatusBoardRecord, error)
	// UpdateRecord applies the updates and meta to one record in a single write.
	UpdateRecord(ctx context.Context, id string, meta UpdateMeta, updates ...RecordUpdate) error
}

// MessageLogRepository stores inbound message receipts.
type MessageLogRepository interface {
	// CreateMessageLog returns ErrDuplicate when the source log id exists.
	CreateMessageLog(ctx context.Context, log MessageLog) error
	GetMessageLogBySource(ctx context.Context, sourceLogID string) (MessageLog, error)
}

// ShopRepository reads per-shop configuration rows.
type ShopRepository interface {
	GetActiveEventTime(ctx context.Context, shop string) (EventTime, error)
	UpsertEventTime(ctx context.Context, eventTime EventTime) error
	GetClosingTime(ctx context.Context, shop string) (ShopClosingTime, error)
	UpsertClosingTime(ctx context.Context, closing ShopClosingTime) error
}

// DesignatedNoticeRepository stores the designated list of each shop.
type DesignatedNoticeRepository interface {
	ListNotices(ctx context.Context, shop string) ([]DesignatedNotice, error)
	CreateNotice(ctx context.Context, notice DesignatedNotice) error
	// ArchiveNotice moves a notice to the history table.
	ArchiveNotice(ctx context.Context, id string, removedAt localtime.Time) error
}
