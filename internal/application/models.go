package application

import (
	"fmt"
	"strings"

	"github.com/example/statusboard/internal/localtime"
	"github.com/example/statusboard/internal/persistence"
)

// Repositories groups the store dependencies of the services.
type Repositories struct {
	Slots       persistence.SlotRepository
	Rooms       persistence.RoomRepository
	Records     persistence.StatusBoardRepository
	MessageLogs persistence.MessageLogRepository
	Shops       persistence.ShopRepository
	Notices     persistence.DesignatedNoticeRepository
}

// InboundMessage is one notification forwarded from a chat client. Room is
// the chat room name and doubles as the shop name.
type InboundMessage struct {
	Room       string `json:"room"`
	Sender     string `json:"sender"`
	Message    string `json:"message"`
	ReceivedAt string `json:"receivedAt"`
}

// StartPolicy decides what a start signal does while the slot already has a
// session in progress.
type StartPolicy string

const (
	// StartPolicyIgnore keeps the open session and reports the signal as ignored.
	StartPolicyIgnore StartPolicy = "ignore"
	// StartPolicySupersede closes the open session as stale and opens a new one.
	StartPolicySupersede StartPolicy = "supersede"
	// StartPolicyReject reports the signal as rejected with ErrSessionInProgress.
	StartPolicyReject StartPolicy = "reject"
)

// ParseStartPolicy parses a policy name. An empty name is StartPolicyIgnore.
func ParseStartPolicy(value string) (StartPolicy, error) {
	switch policy := StartPolicy(strings.ToLower(strings.TrimSpace(value))); policy {
	case "":
		return StartPolicyIgnore, nil
	case StartPolicyIgnore, StartPolicySupersede, StartPolicyReject:
		return policy, nil
	default:
		return "", fmt.Errorf("unknown start policy %q", value)
	}
}

// RoomHours are the default business hours of a new room.
type RoomHours struct {
	Open  string
	Close string
}

// DefaultRoomHours returns the hours used when neither the shop nor the
// configuration provides any.
func DefaultRoomHours() RoomHours {
	return RoomHours{Open: "15:00", Close: "06:00"}
}

// Outcome types of an ingested message.
const (
	OutcomeProcessed = "processed"
	OutcomeDuplicate = "duplicate"
	OutcomeNoSignal  = "no_signal"
	OutcomeIgnored   = "ignored"
)

// Result types of one subject within a message.
const (
	ResultStart           = "start"
	ResultNewSession      = "new_session"
	ResultResume          = "resume"
	ResultEnd             = "end"
	ResultDurationUpdate  = "duration_update"
	ResultCancel          = "cancel"
	ResultCorrectionTime  = "correction_time"
	ResultCorrection      = "correction"
	ResultIgnored         = "ignored"
	ResultRejected        = "rejected"
	ResultNoActiveSession = "no_active_session"
	ResultNoSignal        = "no_signal"
)

// SubjectResult describes what one matched subject did to the status board.
type SubjectResult struct {
	Type        string `json:"type"`
	SlotID      string `json:"slotId"`
	SubjectName string `json:"girlName"`
	RoomNumber  string `json:"roomNumber,omitempty"`
	RecordID    string `json:"recordId,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// TransferResult describes one room transfer.
type TransferResult struct {
	FromRoom      string   `json:"fromRoom"`
	ToRoom        string   `json:"toRoom"`
	MovedSessions int      `json:"movedSessions"`
	RecordIDs     []string `json:"recordIds,omitempty"`
}

// DesignatedResult summarises one designated list sync.
type DesignatedResult struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Deduped   int `json:"deduped"`
	Removed   int `json:"removed"`
	Flagged   int `json:"flagged"`
}

// Outcome is the structured result of one ingested message.
type Outcome struct {
	Type         string            `json:"type"`
	MessageLogID string            `json:"messageLogId,omitempty"`
	SourceLogID  string            `json:"sourceLogId,omitempty"`
	Results      []SubjectResult   `json:"results"`
	Transfers    []TransferResult  `json:"transfers,omitempty"`
	ClosedRooms  []string          `json:"closedRooms,omitempty"`
	Unresolved   []string          `json:"unresolved,omitempty"`
	Designated   *DesignatedResult `json:"designated,omitempty"`
}

// RoomRegistration is the result of registering the rooms of a message.
type RoomRegistration struct {
	Shop    string   `json:"shop"`
	Rooms   []string `json:"rooms"`
	Created []string `json:"created"`
}

// BoardView is the read-only view of one slot's current event day.
type BoardView struct {
	SlotID       string                          `json:"slotId"`
	SubjectName  string                          `json:"girlName"`
	From         localtime.Time                  `json:"from"`
	To           localtime.Time                  `json:"to"`
	Records      []persistence.StatusBoardRecord `json:"records"`
	TotalTickets float64                         `json:"totalTickets"`
	Footer       string                          `json:"footer"`
}
