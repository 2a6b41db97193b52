package persistence

import "github.com/example/statusboard/internal/localtime"

// Column is one assignment of a partial update.
type Column struct {
	Name  string
	Value any
}

// RecordUpdate is a partial update of a status board record. The variants
// are closed: each names exactly the columns its handler may change, so no
// write ever replaces a whole record.
type RecordUpdate interface {
	// Columns returns the assignments in a stable order.
	Columns() []Column
	// Apply performs the same assignments on an in-memory record.
	Apply(r *StatusBoardRecord)
	recordUpdate()
}

// UpdateMeta is attached to every update of one request.
type UpdateMeta struct {
	At          localtime.Time
	SourceLogID string
}

// Columns returns the bookkeeping assignments. Every update marks the record
// for re-delivery.
func (m UpdateMeta) Columns() []Column {
	cols := []Column{{"data_changed", true}, {"updated_at", m.At}}
	if m.SourceLogID != "" {
		cols = append(cols, Column{"source_log_id", m.SourceLogID})
	}
	return cols
}

// Apply performs the bookkeeping assignments on r.
func (m UpdateMeta) Apply(r *StatusBoardRecord) {
	r.DataChanged = true
	r.UpdatedAt = m.At
	if m.SourceLogID != "" {
		r.SourceLogID = m.SourceLogID
	}
}

// StartUpdate moves the start time of a session. IsEvent is recomputed for
// the new start by the caller.
type StartUpdate struct {
	StartTime localtime.Time
	IsEvent   bool
}

func (u StartUpdate) Columns() []Column {
	return []Column{{"start_time", u.StartTime}, {"is_event", u.IsEvent}}
}

func (u StartUpdate) Apply(r *StatusBoardRecord) {
	r.StartTime = u.StartTime
	r.IsEvent = u.IsEvent
}

// EndUpdate closes an in-progress session.
type EndUpdate struct {
	EndTime       localtime.Time
	UsageDuration float64
	UsageExplicit bool
	EventCount    int
}

func (u EndUpdate) Columns() []Column {
	return []Column{
		{"is_in_progress", false},
		{"end_time", u.EndTime},
		{"usage_duration", u.UsageDuration},
		{"usage_explicit", u.UsageExplicit},
		{"event_count", int64(u.EventCount)},
		{"trigger_type", string(TriggerEnd)},
	}
}

func (u EndUpdate) Apply(r *StatusBoardRecord) {
	usage, count := u.UsageDuration, u.EventCount
	r.IsInProgress = false
	r.EndTime = u.EndTime
	r.UsageDuration = &usage
	r.UsageExplicit = u.UsageExplicit
	r.EventCount = &count
	r.TriggerType = TriggerEnd
}

// CancelUpdate terminates a session without touching its times.
type CancelUpdate struct{}

func (CancelUpdate) Columns() []Column {
	return []Column{{"is_in_progress", false}, {"trigger_type", string(TriggerCanceled)}}
}

func (CancelUpdate) Apply(r *StatusBoardRecord) {
	r.IsInProgress = false
	r.TriggerType = TriggerCanceled
}

// CorrectionUpdate re-applies usage, fare or designation values. Nil fields
// are left unchanged; the trigger type is never touched.
type CorrectionUpdate struct {
	UsageDuration *float64
	UsageExplicit *bool
	EventCount    *int
	FareTickets   *float64
	IsDesignated  *bool
}

func (u CorrectionUpdate) Columns() []Column {
	var cols []Column
	if u.UsageDuration != nil {
		cols = append(cols, Column{"usage_duration", *u.UsageDuration})
	}
	if u.UsageExplicit != nil {
		cols = append(cols, Column{"usage_explicit", *u.UsageExplicit})
	}
	if u.EventCount != nil {
		cols = append(cols, Column{"event_count", int64(*u.EventCount)})
	}
	if u.FareTickets != nil {
		cols = append(cols, Column{"fare_tickets", *u.FareTickets})
	}
	if u.IsDesignated != nil {
		cols = append(cols, Column{"is_designated", *u.IsDesignated})
	}
	return cols
}

func (u CorrectionUpdate) Apply(r *StatusBoardRecord) {
	if u.UsageDuration != nil {
		usage := *u.UsageDuration
		r.UsageDuration = &usage
	}
	if u.UsageExplicit != nil {
		r.UsageExplicit = *u.UsageExplicit
	}
	if u.EventCount != nil {
		count := *u.EventCount
		r.EventCount = &count
	}
	if u.FareTickets != nil {
		fare := *u.FareTickets
		r.FareTickets = &fare
	}
	if u.IsDesignated != nil {
		r.IsDesignated = *u.IsDesignated
	}
}

// ResumeUpdate reopens an ended session.
type ResumeUpdate struct{}

func (ResumeUpdate) Columns() []Column {
	return []Column{
		{"is_in_progress", true},
		{"end_time", nil},
		{"usage_duration", nil},
		{"usage_explicit", false},
		{"event_count", nil},
		{"trigger_type", string(TriggerResume)},
	}
}

func (ResumeUpdate) Apply(r *StatusBoardRecord) {
	r.IsInProgress = true
	r.EndTime = localtime.Time{}
	r.UsageDuration = nil
	r.UsageExplicit = false
	r.EventCount = nil
	r.TriggerType = TriggerResume
}

// RoomPointerUpdate moves a session to another room. The historical room
// number is kept.
type RoomPointerUpdate struct {
	CurrentRoom string
}

func (u RoomPointerUpdate) Columns() []Column {
	return []Column{{"current_room", u.CurrentRoom}}
}

func (u RoomPointerUpdate) Apply(r *StatusBoardRecord) { r.CurrentRoom = u.CurrentRoom }

func (StartUpdate) recordUpdate()       {}
func (EndUpdate) recordUpdate()         {}
func (CancelUpdate) recordUpdate()      {}
func (CorrectionUpdate) recordUpdate()  {}
func (ResumeUpdate) recordUpdate()      {}
func (RoomPointerUpdate) recordUpdate() {}

// ApplyUpdates performs meta and updates on r in order.
func ApplyUpdates(r *StatusBoardRecord, meta UpdateMeta, updates ...RecordUpdate) {
	for _, u := range updates {
		u.Apply(r)
	}
	meta.Apply(r)
}
