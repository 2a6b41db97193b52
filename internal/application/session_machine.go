package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/statusboard/internal/localtime"
	"github.com/example/statusboard/internal/parser"
	"github.com/example/statusboard/internal/persistence"
	"github.com/example/statusboard/internal/ticket"
)

// Signal is one parsed subject matched to its slot.
type Signal struct {
	Slot        persistence.Slot
	Shop        string
	Parsed      parser.ParsedMessage
	ReceivedAt  localtime.Time
	SourceLogID string
	// ListedDesignated is set when the slot is on the shop's designated list.
	ListedDesignated bool
}

func (s Signal) meta() persistence.UpdateMeta {
	return persistence.UpdateMeta{At: s.ReceivedAt, SourceLogID: s.SourceLogID}
}

// startTime is the manual time of the signal when given, else its receipt time.
func (s Signal) startTime() localtime.Time {
	if s.Parsed.ManualTime != nil {
		return *s.Parsed.ManualTime
	}
	return s.ReceivedAt
}

// explicitRoom returns the room read on the subject's own line.
func (s Signal) explicitRoom() string {
	if s.Parsed.InheritedRoom {
		return ""
	}
	return s.Parsed.RoomNumber
}

func (s Signal) result(kind, reason string) SubjectResult {
	return SubjectResult{
		Type:        kind,
		SlotID:      s.Slot.ID,
		SubjectName: s.Slot.SubjectName,
		RoomNumber:  s.Parsed.RoomNumber,
		Reason:      reason,
	}
}

// SessionMachine decides, per signal, how a slot's session moves and writes
// the resulting mutation through the StatusBoardWriter.
type SessionMachine struct {
	records     persistence.StatusBoardRepository
	writer      *StatusBoardWriter
	events      *EventChecker
	tickets     *ticket.Calculator
	policy      StartPolicy
	idGenerator func() string
	logger      *slog.Logger
}

// NewSessionMachine constructs a session machine.
func NewSessionMachine(records persistence.StatusBoardRepository, writer *StatusBoardWriter, events *EventChecker, tickets *ticket.Calculator, policy StartPolicy, idGenerator func() string, logger *slog.Logger) *SessionMachine {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if policy == "" {
		policy = StartPolicyIgnore
	}
	if writer == nil {
		writer = NewStatusBoardWriter(records, logger)
	}
	if tickets == nil {
		tickets = ticket.New(nil)
	}
	return &SessionMachine{
		records:     records,
		writer:      writer,
		events:      events,
		tickets:     tickets,
		policy:      policy,
		idGenerator: idGenerator,
		logger:      defaultLogger(logger),
	}
}

// Policy returns the start policy in force.
func (m *SessionMachine) Policy() StartPolicy { return m.policy }

// Dispatch routes a signal to the handler of its kind.
func (m *SessionMachine) Dispatch(ctx context.Context, sig Signal) (result SubjectResult, err error) {
	logger := serviceLogger(ctx, m.logger, "SessionMachine", "Dispatch",
		"slot_id", sig.Slot.ID,
		"kind", sig.Parsed.Kind,
		"room_number", sig.Parsed.RoomNumber,
	)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "signal not applied", "error", err, "error_kind", ErrorKind(err), "result", result.Type)
			return
		}
		logger.InfoContext(ctx, "signal applied", "result", result.Type, "record_id", result.RecordID, "reason", result.Reason)
	}()

	switch sig.Parsed.Kind {
	case parser.KindCancel:
		return m.Cancel(ctx, sig)
	case parser.KindNewSession:
		return m.NewSession(ctx, sig)
	case parser.KindResume:
		return m.Resume(ctx, sig)
	case parser.KindEnd:
		return m.End(ctx, sig)
	case parser.KindCorrectionWithTime:
		return m.CorrectionWithTime(ctx, sig)
	case parser.KindStart:
		return m.Start(ctx, sig)
	case parser.KindCorrection:
		return m.CorrectionCatchAll(ctx, sig)
	default:
		return sig.result(ResultNoSignal, ""), nil
	}
}

// Start opens a session. While another session of the slot is in progress
// the start policy decides.
func (m *SessionMachine) Start(ctx context.Context, sig Signal) (SubjectResult, error) {
	current, err := m.inProgress(ctx, sig.Slot.ID)
	if err != nil {
		return SubjectResult{}, err
	}
	if current != nil {
		switch m.policy {
		case StartPolicyReject:
			result := sig.result(ResultRejected, "session in progress in room "+current.CurrentRoom)
			result.RecordID = current.ID
			return result, fmt.Errorf("start %s: %w", sig.Slot.ID, ErrSessionInProgress)
		case StartPolicySupersede:
			if err := m.closeStale(ctx, sig, *current); err != nil {
				return SubjectResult{}, err
			}
		default:
			if sig.Parsed.IsDesignated && !current.IsDesignated {
				designated := true
				if err := m.writer.Apply(ctx, current.ID, sig.meta(), persistence.CorrectionUpdate{IsDesignated: &designated}); err != nil {
					return SubjectResult{}, err
				}
				result := sig.result(ResultCorrection, "designated")
				result.RecordID = current.ID
				return result, nil
			}
			result := sig.result(ResultIgnored, "session in progress in room "+current.CurrentRoom)
			result.RecordID = current.ID
			return result, nil
		}
	}

	record, err := m.open(ctx, sig, persistence.TriggerStart)
	if err != nil {
		return SubjectResult{}, err
	}
	result := sig.result(ResultStart, "")
	result.RecordID = record.ID
	return result, nil
}

// NewSession always opens a fresh session, closing an open one as stale.
func (m *SessionMachine) NewSession(ctx context.Context, sig Signal) (SubjectResult, error) {
	if !sig.Parsed.HasRoom() {
		return sig.result(ResultIgnored, "new session without room"), nil
	}
	current, err := m.inProgress(ctx, sig.Slot.ID)
	if err != nil {
		return SubjectResult{}, err
	}
	if current != nil {
		if err := m.closeStale(ctx, sig, *current); err != nil {
			return SubjectResult{}, err
		}
	}
	record, err := m.open(ctx, sig, persistence.TriggerStart)
	if err != nil {
		return SubjectResult{}, err
	}
	result := sig.result(ResultNewSession, "")
	result.RecordID = record.ID
	return result, nil
}

// Resume reopens the most recent session of the slot when it ended and no
// other session of the slot is open. Canceled sessions are never reopened.
func (m *SessionMachine) Resume(ctx context.Context, sig Signal) (SubjectResult, error) {
	current, err := m.inProgress(ctx, sig.Slot.ID)
	if err != nil {
		return SubjectResult{}, err
	}
	if current != nil {
		result := sig.result(ResultIgnored, "session already in progress")
		result.RecordID = current.ID
		return result, nil
	}
	latest, err := m.latest(ctx, persistence.RecordFilter{SlotID: sig.Slot.ID})
	if err != nil {
		return SubjectResult{}, err
	}
	if latest == nil {
		return sig.result(ResultNoActiveSession, "no record to resume"), nil
	}
	result := sig.result(ResultIgnored, "")
	result.RecordID = latest.ID
	switch {
	case latest.Canceled():
		result.Reason = ErrRecordCanceled.Error()
		return result, nil
	case latest.TriggerType != persistence.TriggerEnd:
		result.Reason = "latest record is " + string(latest.TriggerType)
		return result, nil
	}

	updates := []persistence.RecordUpdate{persistence.ResumeUpdate{}}
	if room := sig.explicitRoom(); room != "" && room != latest.CurrentRoom {
		updates = append(updates, persistence.RoomPointerUpdate{CurrentRoom: room})
	}
	if err := m.writer.Apply(ctx, latest.ID, sig.meta(), updates...); err != nil {
		return SubjectResult{}, err
	}
	result.Type = ResultResume
	result.Reason = ""
	result.RoomNumber = latest.CurrentRoom
	return result, nil
}

// End closes the slot's open session. Without one, an explicit duration is
// added to the latest ended session.
func (m *SessionMachine) End(ctx context.Context, sig Signal) (SubjectResult, error) {
	if sig.Parsed.IsCorrection {
		return m.correctionEnd(ctx, sig)
	}

	current, err := m.inProgress(ctx, sig.Slot.ID)
	if err != nil {
		return SubjectResult{}, err
	}
	if current == nil {
		return m.addDuration(ctx, sig)
	}
	if room := sig.explicitRoom(); room != "" && room != current.CurrentRoom {
		result := sig.result(ResultIgnored, "session in progress in room "+current.CurrentRoom)
		result.RecordID = current.ID
		return result, nil
	}

	end := sig.startTime()
	update := m.endUpdate(current.StartTime, end, sig.Parsed.UsageDuration)
	if err := m.writer.Apply(ctx, current.ID, sig.meta(), update); err != nil {
		return SubjectResult{}, err
	}
	result := sig.result(ResultEnd, "")
	result.RecordID = current.ID
	result.RoomNumber = current.CurrentRoom
	return result, nil
}

func (m *SessionMachine) addDuration(ctx context.Context, sig Signal) (SubjectResult, error) {
	if sig.Parsed.UsageDuration == nil {
		return sig.result(ResultNoActiveSession, "no session in progress"), nil
	}
	ended, err := m.latest(ctx, persistence.RecordFilter{
		SlotID:      sig.Slot.ID,
		CurrentRoom: sig.explicitRoom(),
		Trigger:     persistence.TriggerEnd,
	})
	if err != nil {
		return SubjectResult{}, err
	}
	if ended == nil {
		return sig.result(ResultNoActiveSession, "no ended session"), nil
	}

	usage := *sig.Parsed.UsageDuration
	explicit := true
	count := ticket.EventCount(usage)
	update := persistence.CorrectionUpdate{UsageDuration: &usage, UsageExplicit: &explicit, EventCount: &count}
	if err := m.writer.Apply(ctx, ended.ID, sig.meta(), update); err != nil {
		return SubjectResult{}, err
	}
	result := sig.result(ResultDurationUpdate, "")
	result.RecordID = ended.ID
	return result, nil
}

// correctionEnd applies a corrected end to the latest session of the slot in
// the line's room, correcting its start when a manual time is given.
func (m *SessionMachine) correctionEnd(ctx context.Context, sig Signal) (SubjectResult, error) {
	record, err := m.latest(ctx, persistence.RecordFilter{SlotID: sig.Slot.ID, CurrentRoom: sig.Parsed.RoomNumber})
	if err != nil {
		return SubjectResult{}, err
	}
	if record == nil {
		return sig.result(ResultNoActiveSession, "no record to correct"), nil
	}
	if record.Canceled() {
		result := sig.result(ResultIgnored, ErrRecordCanceled.Error())
		result.RecordID = record.ID
		return result, nil
	}

	var updates []persistence.RecordUpdate
	start := record.StartTime
	if sig.Parsed.ManualTime != nil {
		start = *sig.Parsed.ManualTime
		isEvent, err := m.checkIsEvent(ctx, sig, start)
		if err != nil {
			return SubjectResult{}, err
		}
		updates = append(updates, persistence.StartUpdate{StartTime: start, IsEvent: isEvent})
	}
	end := record.EndTime
	if record.IsInProgress || end.IsZero() {
		end = sig.ReceivedAt
	}
	updates = append(updates, m.endUpdate(start, end, sig.Parsed.UsageDuration))

	if err := m.writer.Apply(ctx, record.ID, sig.meta(), updates...); err != nil {
		return SubjectResult{}, err
	}
	result := sig.result(ResultEnd, "correction")
	result.RecordID = record.ID
	return result, nil
}

// Cancel terminates the slot's open session.
func (m *SessionMachine) Cancel(ctx context.Context, sig Signal) (SubjectResult, error) {
	current, err := m.inProgress(ctx, sig.Slot.ID)
	if err != nil {
		return SubjectResult{}, err
	}
	if current == nil {
		return sig.result(ResultNoActiveSession, "no session to cancel"), nil
	}
	if room := sig.explicitRoom(); room != "" && room != current.CurrentRoom {
		result := sig.result(ResultIgnored, "session in progress in room "+current.CurrentRoom)
		result.RecordID = current.ID
		return result, nil
	}

	if err := m.writer.Apply(ctx, current.ID, sig.meta(), persistence.CancelUpdate{}); err != nil {
		return SubjectResult{}, err
	}
	result := sig.result(ResultCancel, "")
	result.RecordID = current.ID
	result.RoomNumber = current.CurrentRoom
	return result, nil
}

// CorrectionWithTime moves the start of the latest session of the slot to
// the manual time. Ended sessions whose duration was measured get their
// usage and event count recomputed.
func (m *SessionMachine) CorrectionWithTime(ctx context.Context, sig Signal) (SubjectResult, error) {
	if sig.Parsed.ManualTime == nil {
		return sig.result(ResultIgnored, "no manual time"), nil
	}
	record, err := m.latest(ctx, persistence.RecordFilter{SlotID: sig.Slot.ID, CurrentRoom: sig.Parsed.RoomNumber})
	if err != nil {
		return SubjectResult{}, err
	}
	if record == nil {
		return sig.result(ResultIgnored, "no record to correct"), nil
	}
	if record.Canceled() {
		result := sig.result(ResultIgnored, ErrRecordCanceled.Error())
		result.RecordID = record.ID
		return result, nil
	}

	start := *sig.Parsed.ManualTime
	isEvent, err := m.checkIsEvent(ctx, sig, start)
	if err != nil {
		return SubjectResult{}, err
	}
	updates := []persistence.RecordUpdate{persistence.StartUpdate{StartTime: start, IsEvent: isEvent}}

	correction := m.fareAndDesignation(sig)
	if !record.IsInProgress && !record.EndTime.IsZero() && !record.UsageExplicit {
		usage := ticket.UsageHours(start, record.EndTime)
		count := ticket.EventCount(usage)
		correction.UsageDuration = &usage
		correction.EventCount = &count
	}
	updates = append(updates, correction)

	if err := m.writer.Apply(ctx, record.ID, sig.meta(), updates...); err != nil {
		return SubjectResult{}, err
	}
	result := sig.result(ResultCorrectionTime, "")
	result.RecordID = record.ID
	result.RoomNumber = record.CurrentRoom
	return result, nil
}

// CorrectionCatchAll handles a correction line without a manual time: it
// opens a session when none is in progress, else re-applies fare and
// designation values to the open one.
func (m *SessionMachine) CorrectionCatchAll(ctx context.Context, sig Signal) (SubjectResult, error) {
	current, err := m.inProgress(ctx, sig.Slot.ID)
	if err != nil {
		return SubjectResult{}, err
	}
	if current == nil {
		if !sig.Parsed.HasRoom() {
			return sig.result(ResultIgnored, "correction without room"), nil
		}
		record, err := m.open(ctx, sig, persistence.TriggerCorrection)
		if err != nil {
			return SubjectResult{}, err
		}
		result := sig.result(ResultCorrection, "opened")
		result.RecordID = record.ID
		return result, nil
	}

	correction := m.fareAndDesignation(sig)
	if len(correction.Columns()) == 0 {
		result := sig.result(ResultIgnored, "no manual time")
		result.RecordID = current.ID
		return result, nil
	}
	if err := m.writer.Apply(ctx, current.ID, sig.meta(), correction); err != nil {
		return SubjectResult{}, err
	}
	result := sig.result(ResultCorrection, "")
	result.RecordID = current.ID
	return result, nil
}

// open creates an in-progress record for the signal.
func (m *SessionMachine) open(ctx context.Context, sig Signal, trigger persistence.TriggerType) (persistence.StatusBoardRecord, error) {
	start := sig.startTime()
	isEvent, err := m.checkIsEvent(ctx, sig, start)
	if err != nil {
		return persistence.StatusBoardRecord{}, err
	}

	record := persistence.StatusBoardRecord{
		ID:           m.idGenerator(),
		SlotID:       sig.Slot.ID,
		OwnerID:      sig.Slot.OwnerID,
		SubjectName:  sig.Slot.SubjectName,
		ShopName:     sig.Shop,
		ContactID:    sig.Slot.ContactID,
		TargetRoom:   sig.Slot.TargetRoom,
		RoomNumber:   sig.Parsed.RoomNumber,
		CurrentRoom:  sig.Parsed.RoomNumber,
		IsInProgress: true,
		StartTime:    start,
		TriggerType:  trigger,
		IsDesignated: sig.Parsed.IsDesignated || sig.ListedDesignated,
		IsEvent:      isEvent,
		SourceLogID:  sig.SourceLogID,
		DataChanged:  true,
		CreatedAt:    sig.ReceivedAt,
		UpdatedAt:    sig.ReceivedAt,
	}
	if sig.Parsed.FareToken != "" {
		if fare, ok := m.tickets.ComputeTickets(sig.Parsed.FareToken); ok {
			record.FareTickets = &fare
		}
	}
	if err := m.writer.Create(ctx, record); err != nil {
		return persistence.StatusBoardRecord{}, err
	}
	return record, nil
}

// closeStale ends an open record at the signal's receipt time so that a new
// one can be opened.
func (m *SessionMachine) closeStale(ctx context.Context, sig Signal, record persistence.StatusBoardRecord) error {
	update := m.endUpdate(record.StartTime, sig.ReceivedAt, nil)
	return m.writer.Apply(ctx, record.ID, sig.meta(), update)
}

func (m *SessionMachine) endUpdate(start, end localtime.Time, explicit *float64) persistence.EndUpdate {
	update := persistence.EndUpdate{EndTime: end}
	if explicit != nil {
		update.UsageDuration = *explicit
		update.UsageExplicit = true
	} else {
		update.UsageDuration = ticket.UsageHours(start, end)
	}
	update.EventCount = ticket.EventCount(update.UsageDuration)
	return update
}

func (m *SessionMachine) fareAndDesignation(sig Signal) persistence.CorrectionUpdate {
	var correction persistence.CorrectionUpdate
	if sig.Parsed.FareToken != "" {
		if fare, ok := m.tickets.ComputeTickets(sig.Parsed.FareToken); ok {
			correction.FareTickets = &fare
		}
	}
	if sig.Parsed.IsDesignated {
		designated := true
		correction.IsDesignated = &designated
	}
	return correction
}

func (m *SessionMachine) checkIsEvent(ctx context.Context, sig Signal, start localtime.Time) (bool, error) {
	if m.events == nil {
		return false, nil
	}
	return m.events.CheckIsEvent(ctx, sig.Slot.ID, sig.Shop, start)
}

func (m *SessionMachine) inProgress(ctx context.Context, slotID string) (*persistence.StatusBoardRecord, error) {
	inProgress := true
	return m.latest(ctx, persistence.RecordFilter{SlotID: slotID, InProgress: &inProgress})
}

func (m *SessionMachine) latest(ctx context.Context, filter persistence.RecordFilter) (*persistence.StatusBoardRecord, error) {
	filter.Limit = 1
	records, err := m.records.ListRecords(ctx, filter)
	if err != nil {
		return nil, mapStoreError("load records", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}
