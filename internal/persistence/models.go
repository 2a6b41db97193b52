package persistence

import "github.com/example/statusboard/internal/localtime"

// Slot is a tracked subject registered by an account owner. The core only
// reads slots.
type Slot struct {
	ID          string
	OwnerID     string
	SubjectName string
	// ShopName restricts the slot to one inbound chat room; nil matches any.
	ShopName   *string
	ContactID  string
	TargetRoom string
	IsActive   bool
	ExpiresAt  localtime.Time
	CreatedAt  localtime.Time
	UpdatedAt  localtime.Time
}

// Expired reports whether the slot has an expiry at or before at.
func (s Slot) Expired(at localtime.Time) bool {
	return !s.ExpiresAt.IsZero() && !s.ExpiresAt.After(at)
}

// Room is a chat room runtime entity keyed by shop and room number. Only
// one active room exists per key; a closed room is reopened as a new row.
type Room struct {
	ID         string
	ShopName   string
	RoomNumber string
	// OpenTime and CloseTime are HH:MM business-hour bounds.
	OpenTime  string
	CloseTime string
	StartTime localtime.Time
	EndTime   localtime.Time
	IsActive  bool
	CreatedAt localtime.Time
	UpdatedAt localtime.Time
}

// TriggerType is the last transition applied to a status board record.
type TriggerType string

const (
	TriggerStart      TriggerType = "start"
	TriggerEnd        TriggerType = "end"
	TriggerCanceled   TriggerType = "canceled"
	TriggerCorrection TriggerType = "correction"
	TriggerResume     TriggerType = "resume"
)

// StatusBoardRecord is one session instance of a slot.
type StatusBoardRecord struct {
	ID          string
	SlotID      string
	OwnerID     string
	SubjectName string
	ShopName    string
	ContactID   string
	TargetRoom  string
	// RoomNumber is the room the session started in and never changes.
	RoomNumber string
	// CurrentRoom follows transfers and is used to match later signals.
	CurrentRoom   string
	IsInProgress  bool
	StartTime     localtime.Time
	EndTime       localtime.Time
	UsageDuration *float64
	// UsageExplicit is set when the duration was given in the message
	// rather than measured.
	UsageExplicit bool
	EventCount    *int
	FareTickets   *float64
	TriggerType   TriggerType
	IsDesignated  bool
	IsEvent       bool
	SourceLogID   string
	DataChanged   bool
	CreatedAt     localtime.Time
	UpdatedAt     localtime.Time
}

// Canceled reports whether the record reached the terminal canceled state.
func (r StatusBoardRecord) Canceled() bool { return r.TriggerType == TriggerCanceled }

// MessageLog is the append-only receipt of one inbound message.
type MessageLog struct {
	ID          string
	SourceLogID string
	Room        string
	Sender      string
	Message     string
	ReceivedAt  localtime.Time
	CreatedAt   localtime.Time
}

// EventTime is a shop's daily event window, HH:MM bounds.
type EventTime struct {
	ID        string
	ShopName  string
	StartTime string
	EndTime   string
	IsActive  bool
}

// ShopClosingTime overrides the default room business hours for a shop.
type ShopClosingTime struct {
	ShopName  string
	OpenTime  string
	CloseTime string
	UpdatedAt localtime.Time
}

// DesignatedNotice lists a slot as designated for its shop.
type DesignatedNotice struct {
	ID          string
	SlotID      string
	ShopName    string
	ManagerName string
	SubjectName string
	SourceLogID string
	CreatedAt   localtime.Time
}
