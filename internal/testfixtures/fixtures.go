package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/statusboard/internal/localtime"
	"github.com/example/statusboard/internal/persistence"
)

var (
	slotCounter   uint64
	roomCounter   uint64
	recordCounter uint64
)

// referenceTime is a Friday evening, inside a shop's business hours.
var referenceTime = time.Date(2025, time.March, 14, 18, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceLocal returns ReferenceTime as a wall-clock timestamp.
func ReferenceLocal() localtime.Time {
	return localtime.FromTime(referenceTime, time.UTC)
}

// ----------------------------- Slot fixtures -----------------------------

// SlotFixture represents a deterministic tracked slot.
type SlotFixture struct {
	ID          string
	OwnerID     string
	SubjectName string
	ShopName    *string
	ContactID   string
	TargetRoom  string
	IsActive    bool
	ExpiresAt   localtime.Time
	CreatedAt   localtime.Time
}

// SlotOption configures the generated slot fixture.
type SlotOption func(*SlotFixture)

// NewSlotFixture returns an active, unbound slot fixture with optional overrides.
func NewSlotFixture(opts ...SlotOption) SlotFixture {
	idx := atomic.AddUint64(&slotCounter, 1)
	fixture := SlotFixture{
		ID:          fmt.Sprintf("slot-%03d", idx),
		OwnerID:     fmt.Sprintf("owner-%03d", idx),
		SubjectName: fmt.Sprintf("이름%03d", idx),
		ContactID:   fmt.Sprintf("contact-%03d", idx),
		TargetRoom:  fmt.Sprintf("target-%03d", idx),
		IsActive:    true,
		CreatedAt:   ReferenceLocal().AddDate(0, 0, -7),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSlotID overrides the generated slot ID.
func WithSlotID(id string) SlotOption {
	return func(f *SlotFixture) {
		f.ID = id
	}
}

// WithSlotSubject overrides the subject name matched in messages.
func WithSlotSubject(name string) SlotOption {
	return func(f *SlotFixture) {
		f.SubjectName = name
	}
}

// WithSlotShop binds the slot to one shop.
func WithSlotShop(shop string) SlotOption {
	return func(f *SlotFixture) {
		f.ShopName = &shop
	}
}

// WithSlotInactive marks the slot inactive.
func WithSlotInactive() SlotOption {
	return func(f *SlotFixture) {
		f.IsActive = false
	}
}

// WithSlotExpiresAt sets the slot expiry.
func WithSlotExpiresAt(t localtime.Time) SlotOption {
	return func(f *SlotFixture) {
		f.ExpiresAt = t
	}
}

// Persistence returns the fixture as a persistence.Slot value.
func (f SlotFixture) Persistence() persistence.Slot {
	return persistence.Slot{
		ID:          f.ID,
		OwnerID:     f.OwnerID,
		SubjectName: f.SubjectName,
		ShopName:    f.ShopName,
		ContactID:   f.ContactID,
		TargetRoom:  f.TargetRoom,
		IsActive:    f.IsActive,
		ExpiresAt:   f.ExpiresAt,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.CreatedAt,
	}
}

// ----------------------------- Room fixtures -----------------------------

// RoomFixture represents a deterministic chat room.
type RoomFixture struct {
	ID         string
	ShopName   string
	RoomNumber string
	OpenTime   string
	CloseTime  string
	StartTime  localtime.Time
}

// RoomOption configures the generated room fixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns an open room fixture with optional overrides.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	fixture := RoomFixture{
		ID:         fmt.Sprintf("room-%03d", idx),
		ShopName:   "shop",
		RoomNumber: fmt.Sprintf("%d", 700+idx%100),
		OpenTime:   "15:00",
		CloseTime:  "06:00",
		StartTime:  ReferenceLocal(),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) {
		f.ID = id
	}
}

// WithRoomKey sets the shop and room number.
func WithRoomKey(shop, number string) RoomOption {
	return func(f *RoomFixture) {
		f.ShopName = shop
		f.RoomNumber = number
	}
}

// WithRoomHours sets the business hours.
func WithRoomHours(open, close string) RoomOption {
	return func(f *RoomFixture) {
		f.OpenTime = open
		f.CloseTime = close
	}
}

// WithRoomStart sets the time the room opened.
func WithRoomStart(t localtime.Time) RoomOption {
	return func(f *RoomFixture) {
		f.StartTime = t
	}
}

// Persistence returns the fixture as a persistence.Room value.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		ID:         f.ID,
		ShopName:   f.ShopName,
		RoomNumber: f.RoomNumber,
		OpenTime:   f.OpenTime,
		CloseTime:  f.CloseTime,
		StartTime:  f.StartTime,
		IsActive:   true,
		CreatedAt:  f.StartTime,
		UpdatedAt:  f.StartTime,
	}
}

// ---------------------------- Record fixtures ----------------------------

// RecordOption configures a generated status board record.
type RecordOption func(*persistence.StatusBoardRecord)

// NewRecordFixture returns an in-progress record started at ReferenceTime.
func NewRecordFixture(opts ...RecordOption) persistence.StatusBoardRecord {
	idx := atomic.AddUint64(&recordCounter, 1)
	start := ReferenceLocal()
	record := persistence.StatusBoardRecord{
		ID:           fmt.Sprintf("record-%03d", idx),
		SlotID:       "slot-001",
		SubjectName:  "도아",
		ShopName:     "shop",
		RoomNumber:   "703",
		CurrentRoom:  "703",
		IsInProgress: true,
		StartTime:    start,
		TriggerType:  persistence.TriggerStart,
		DataChanged:  true,
		CreatedAt:    start,
		UpdatedAt:    start,
	}
	for _, opt := range opts {
		opt(&record)
	}
	return record
}

// WithRecordID overrides the generated record ID.
func WithRecordID(id string) RecordOption {
	return func(r *persistence.StatusBoardRecord) {
		r.ID = id
	}
}

// WithRecordSlot copies the slot identity onto the record.
func WithRecordSlot(slot persistence.Slot) RecordOption {
	return func(r *persistence.StatusBoardRecord) {
		r.SlotID = slot.ID
		r.OwnerID = slot.OwnerID
		r.SubjectName = slot.SubjectName
		r.ContactID = slot.ContactID
		r.TargetRoom = slot.TargetRoom
	}
}

// WithRecordShop sets the shop of the record.
func WithRecordShop(shop string) RecordOption {
	return func(r *persistence.StatusBoardRecord) {
		r.ShopName = shop
	}
}

// WithRecordRoom sets both the historical and the current room.
func WithRecordRoom(room string) RecordOption {
	return func(r *persistence.StatusBoardRecord) {
		r.RoomNumber = room
		r.CurrentRoom = room
	}
}

// WithRecordStart sets the start time; creation follows it.
func WithRecordStart(t localtime.Time) RecordOption {
	return func(r *persistence.StatusBoardRecord) {
		r.StartTime = t
		r.CreatedAt = t
		r.UpdatedAt = t
	}
}

// WithRecordEnded closes the record at end with the measured usage.
func WithRecordEnded(end localtime.Time, usage float64) RecordOption {
	return func(r *persistence.StatusBoardRecord) {
		count := int(usage)
		r.IsInProgress = false
		r.EndTime = end
		r.UsageDuration = &usage
		r.EventCount = &count
		r.TriggerType = persistence.TriggerEnd
	}
}

// WithRecordCanceled marks the record canceled.
func WithRecordCanceled() RecordOption {
	return func(r *persistence.StatusBoardRecord) {
		r.IsInProgress = false
		r.TriggerType = persistence.TriggerCanceled
	}
}

// WithRecordEvent sets the is_event flag.
func WithRecordEvent(isEvent bool) RecordOption {
	return func(r *persistence.StatusBoardRecord) {
		r.IsEvent = isEvent
	}
}
