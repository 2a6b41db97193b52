package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/example/statusboard/internal/localtime"
	"github.com/example/statusboard/internal/persistence"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// recordRepoStub keeps records in insertion order and lists the newest
// insertion first.
type recordRepoStub struct {
	mu      sync.Mutex
	records []persistence.StatusBoardRecord

	listErr   error
	updateErr error
	updates   int
}

func (r *recordRepoStub) CreateRecord(ctx context.Context, record persistence.StatusBoardRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.records {
		if existing.ID == record.ID {
			return persistence.ErrDuplicate
		}
	}
	r.records = append(r.records, record)
	return nil
}

func (r *recordRepoStub) GetRecord(ctx context.Context, id string) (persistence.StatusBoardRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range r.records {
		if record.ID == id {
			return record, nil
		}
	}
	return persistence.StatusBoardRecord{}, persistence.ErrNotFound
}

func (r *recordRepoStub) ListRecords(ctx context.Context, filter persistence.RecordFilter) ([]persistence.StatusBoardRecord, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []persistence.StatusBoardRecord
	for i := len(r.records) - 1; i >= 0; i-- {
		if matchesFilter(r.records[i], filter) {
			out = append(out, r.records[i])
		}
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *recordRepoStub) UpdateRecord(ctx context.Context, id string, meta persistence.UpdateMeta, updates ...persistence.RecordUpdate) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.records {
		if r.records[i].ID == id {
			persistence.ApplyUpdates(&r.records[i], meta, updates...)
			r.updates++
			return nil
		}
	}
	return persistence.ErrNotFound
}

func (r *recordRepoStub) get(id string) persistence.StatusBoardRecord {
	record, _ := r.GetRecord(context.Background(), id)
	return record
}

func (r *recordRepoStub) inProgress(slotID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, record := range r.records {
		if record.SlotID == slotID && record.IsInProgress {
			count++
		}
	}
	return count
}

func matchesFilter(record persistence.StatusBoardRecord, filter persistence.RecordFilter) bool {
	switch {
	case filter.SlotID != "" && record.SlotID != filter.SlotID:
		return false
	case filter.ShopName != "" && record.ShopName != filter.ShopName:
		return false
	case filter.CurrentRoom != "" && record.CurrentRoom != filter.CurrentRoom:
		return false
	case filter.InProgress != nil && record.IsInProgress != *filter.InProgress:
		return false
	case filter.Trigger != "" && record.TriggerType != filter.Trigger:
		return false
	case filter.IsEvent != nil && record.IsEvent != *filter.IsEvent:
		return false
	case !filter.StartFrom.IsZero() && record.StartTime.Before(filter.StartFrom):
		return false
	case !filter.StartBefore.IsZero() && !record.StartTime.Before(filter.StartBefore):
		return false
	}
	return true
}

type shopRepoStub struct {
	eventTime *persistence.EventTime
	closing   *persistence.ShopClosingTime
	err       error
}

func (s *shopRepoStub) GetActiveEventTime(ctx context.Context, shop string) (persistence.EventTime, error) {
	if s.err != nil {
		return persistence.EventTime{}, s.err
	}
	if s.eventTime == nil || s.eventTime.ShopName != shop || !s.eventTime.IsActive {
		return persistence.EventTime{}, persistence.ErrNotFound
	}
	return *s.eventTime, nil
}

func (s *shopRepoStub) UpsertEventTime(ctx context.Context, eventTime persistence.EventTime) error {
	s.eventTime = &eventTime
	return nil
}

func (s *shopRepoStub) GetClosingTime(ctx context.Context, shop string) (persistence.ShopClosingTime, error) {
	if s.closing == nil || s.closing.ShopName != shop {
		return persistence.ShopClosingTime{}, persistence.ErrNotFound
	}
	return *s.closing, nil
}

func (s *shopRepoStub) UpsertClosingTime(ctx context.Context, closing persistence.ShopClosingTime) error {
	s.closing = &closing
	return nil
}

type roomRepoStub struct {
	mu    sync.Mutex
	rooms []persistence.Room

	createErr error
}

func (r *roomRepoStub) CreateRoom(ctx context.Context, room persistence.Room) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rooms {
		if existing.IsActive && existing.ShopName == room.ShopName && existing.RoomNumber == room.RoomNumber {
			return persistence.ErrDuplicate
		}
	}
	r.rooms = append(r.rooms, room)
	return nil
}

func (r *roomRepoStub) FindActiveRoom(ctx context.Context, shop, number string) (persistence.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, room := range r.rooms {
		if room.IsActive && room.ShopName == shop && room.RoomNumber == number {
			return room, nil
		}
	}
	return persistence.Room{}, persistence.ErrNotFound
}

func (r *roomRepoStub) ListActiveRooms(ctx context.Context, shop string) ([]persistence.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []persistence.Room
	for _, room := range r.rooms {
		if room.IsActive && (shop == "" || room.ShopName == shop) {
			out = append(out, room)
		}
	}
	return out, nil
}

func (r *roomRepoStub) CloseRoom(ctx context.Context, id string, at localtime.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rooms {
		if r.rooms[i].ID != id {
			continue
		}
		if !r.rooms[i].IsActive {
			return false, nil
		}
		r.rooms[i].IsActive = false
		r.rooms[i].EndTime = at
		return true, nil
	}
	return false, persistence.ErrNotFound
}

type noticeRepoStub struct {
	notices  []persistence.DesignatedNotice
	archived []string
}

func (n *noticeRepoStub) ListNotices(ctx context.Context, shop string) ([]persistence.DesignatedNotice, error) {
	var out []persistence.DesignatedNotice
	for _, notice := range n.notices {
		if notice.ShopName == shop {
			out = append(out, notice)
		}
	}
	return out, nil
}

func (n *noticeRepoStub) CreateNotice(ctx context.Context, notice persistence.DesignatedNotice) error {
	for _, existing := range n.notices {
		if existing.SlotID == notice.SlotID {
			return persistence.ErrDuplicate
		}
	}
	n.notices = append(n.notices, notice)
	return nil
}

func (n *noticeRepoStub) ArchiveNotice(ctx context.Context, id string, removedAt localtime.Time) error {
	for i, notice := range n.notices {
		if notice.ID == id {
			n.notices = append(n.notices[:i], n.notices[i+1:]...)
			n.archived = append(n.archived, id)
			return nil
		}
	}
	return persistence.ErrNotFound
}
