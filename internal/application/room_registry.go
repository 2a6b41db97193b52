package application

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/example/statusboard/internal/localtime"
	"github.com/example/statusboard/internal/persistence"
)

// KeepAliveSet holds the room numbers of a shop that must stay open.
type KeepAliveSet map[string]struct{}

// Has reports whether room is kept alive.
func (k KeepAliveSet) Has(room string) bool {
	_, ok := k[room]
	return ok
}

// Add marks rooms as kept alive.
func (k KeepAliveSet) Add(rooms ...string) {
	for _, room := range rooms {
		if room != "" {
			k[room] = struct{}{}
		}
	}
}

// Rooms returns the room numbers in order.
func (k KeepAliveSet) Rooms() []string {
	rooms := make([]string, 0, len(k))
	for room := range k {
		rooms = append(rooms, room)
	}
	sort.Strings(rooms)
	return rooms
}

// RoomRegistry owns the lifecycle of chat rooms. No other component writes
// rooms.
type RoomRegistry struct {
	rooms       persistence.RoomRepository
	records     persistence.StatusBoardRepository
	shops       persistence.ShopRepository
	writer      *StatusBoardWriter
	hours       RoomHours
	idGenerator func() string
	logger      *slog.Logger
}

// NewRoomRegistry constructs a room registry.
func NewRoomRegistry(repos Repositories, writer *StatusBoardWriter, hours RoomHours, idGenerator func() string, logger *slog.Logger) *RoomRegistry {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if hours.Open == "" || hours.Close == "" {
		hours = DefaultRoomHours()
	}
	if writer == nil {
		writer = NewStatusBoardWriter(repos.Records, logger)
	}
	return &RoomRegistry{
		rooms:       repos.Rooms,
		records:     repos.Records,
		shops:       repos.Shops,
		writer:      writer,
		hours:       hours,
		idGenerator: idGenerator,
		logger:      defaultLogger(logger),
	}
}

func (r *RoomRegistry) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, r.logger, "RoomRegistry", operation, attrs...)
}

// GetOrCreateRoom returns the active room for (shop, number), opening it at
// the given time when none is active. The second result reports whether the
// room was created.
func (r *RoomRegistry) GetOrCreateRoom(ctx context.Context, shop, number string, at localtime.Time) (persistence.Room, bool, error) {
	room, err := r.rooms.FindActiveRoom(ctx, shop, number)
	if err == nil {
		return room, false, nil
	}
	if !errors.Is(err, persistence.ErrNotFound) {
		return persistence.Room{}, false, mapStoreError("find room", err)
	}

	hours, err := r.shopHours(ctx, shop)
	if err != nil {
		return persistence.Room{}, false, err
	}
	room = persistence.Room{
		ID:         r.idGenerator(),
		ShopName:   shop,
		RoomNumber: number,
		OpenTime:   hours.Open,
		CloseTime:  hours.Close,
		StartTime:  at,
		IsActive:   true,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
	err = r.rooms.CreateRoom(ctx, room)
	if errors.Is(err, persistence.ErrDuplicate) {
		// Another request opened the room first.
		existing, findErr := r.rooms.FindActiveRoom(ctx, shop, number)
		return existing, false, mapStoreError("find room", findErr)
	}
	if err != nil {
		return persistence.Room{}, false, mapStoreError("create room", err)
	}

	r.loggerWith(ctx, "GetOrCreateRoom", "shop", shop, "room_number", number, "room_id", room.ID).
		InfoContext(ctx, "room opened")
	return room, true, nil
}

func (r *RoomRegistry) shopHours(ctx context.Context, shop string) (RoomHours, error) {
	if r.shops == nil {
		return r.hours, nil
	}
	closing, err := r.shops.GetClosingTime(ctx, shop)
	if errors.Is(err, persistence.ErrNotFound) {
		return r.hours, nil
	}
	if err != nil {
		return RoomHours{}, mapStoreError("load closing time", err)
	}
	hours := r.hours
	if _, err := localtime.ParseClock(closing.OpenTime); err == nil {
		hours.Open = closing.OpenTime
	}
	if _, err := localtime.ParseClock(closing.CloseTime); err == nil {
		hours.Close = closing.CloseTime
	}
	return hours, nil
}

// BuildKeepAliveSet returns the rooms of shop hosting an in-progress session,
// plus the hinted rooms. It is recomputed on every call.
func (r *RoomRegistry) BuildKeepAliveSet(ctx context.Context, shop string, hints ...string) (KeepAliveSet, error) {
	set := KeepAliveSet{}
	set.Add(hints...)

	inProgress := true
	records, err := r.records.ListRecords(ctx, persistence.RecordFilter{ShopName: shop, InProgress: &inProgress})
	if err != nil {
		return nil, mapStoreError("load in-progress records", err)
	}
	for _, record := range records {
		set.Add(record.CurrentRoom)
	}
	return set, nil
}

// CloseDeadline returns the first occurrence of the room's closing time
// strictly after it opened.
func CloseDeadline(room persistence.Room) localtime.Time {
	closeMinute, err := localtime.ParseClock(room.CloseTime)
	if err != nil {
		closeMinute, _ = localtime.ParseClock(DefaultRoomHours().Close)
	}
	deadline := room.StartTime.AtMinuteOfDay(closeMinute)
	if !deadline.After(room.StartTime) {
		deadline = deadline.AddDate(0, 0, 1)
	}
	return deadline
}

// CheckAndCloseRoom closes room when it is past its deadline and not kept
// alive. Closing a closed room is a no-op.
func (r *RoomRegistry) CheckAndCloseRoom(ctx context.Context, room persistence.Room, keepAlive KeepAliveSet, now localtime.Time) (bool, error) {
	if !room.IsActive || keepAlive.Has(room.RoomNumber) {
		return false, nil
	}
	if now.Before(CloseDeadline(room)) {
		return false, nil
	}

	closed, err := r.rooms.CloseRoom(ctx, room.ID, now)
	if err != nil {
		return false, mapStoreError("close room", err)
	}
	if closed {
		r.loggerWith(ctx, "CheckAndCloseRoom", "shop", room.ShopName, "room_number", room.RoomNumber, "room_id", room.ID).
			InfoContext(ctx, "room closed")
	}
	return closed, nil
}

// CloseIdleRooms re-evaluates the named rooms of shop and returns the numbers
// of the rooms it closed.
func (r *RoomRegistry) CloseIdleRooms(ctx context.Context, shop string, numbers []string, keepAlive KeepAliveSet, now localtime.Time) ([]string, error) {
	var closed []string
	for _, number := range numbers {
		room, err := r.rooms.FindActiveRoom(ctx, shop, number)
		if errors.Is(err, persistence.ErrNotFound) {
			continue
		}
		if err != nil {
			return closed, mapStoreError("find room", err)
		}
		ok, err := r.CheckAndCloseRoom(ctx, room, keepAlive, now)
		if err != nil {
			return closed, err
		}
		if ok {
			closed = append(closed, number)
		}
	}
	return closed, nil
}

// Transfer moves every in-progress session of shop in fromRoom to toRoom.
// Only the live room pointer changes; start times and the historical room
// number are kept.
func (r *RoomRegistry) Transfer(ctx context.Context, shop, fromRoom, toRoom string, meta persistence.UpdateMeta) (result TransferResult, err error) {
	result = TransferResult{FromRoom: fromRoom, ToRoom: toRoom}
	logger := r.loggerWith(ctx, "Transfer", "shop", shop, "from_room", fromRoom, "to_room", toRoom)
	defer func() { logResult(ctx, logger, err, "sessions transferred", "moved", result.MovedSessions) }()

	if fromRoom == toRoom {
		return result, nil
	}
	if _, _, err = r.GetOrCreateRoom(ctx, shop, toRoom, meta.At); err != nil {
		return result, err
	}

	inProgress := true
	records, err := r.records.ListRecords(ctx, persistence.RecordFilter{
		ShopName:    shop,
		CurrentRoom: fromRoom,
		InProgress:  &inProgress,
	})
	if err != nil {
		return result, mapStoreError("load transferred records", err)
	}
	for _, record := range records {
		if err = r.writer.Apply(ctx, record.ID, meta, persistence.RoomPointerUpdate{CurrentRoom: toRoom}); err != nil {
			return result, err
		}
		result.MovedSessions++
		result.RecordIDs = append(result.RecordIDs, record.ID)
	}
	return result, nil
}

// SweepRooms re-evaluates every active room and closes the ones past their
// deadline that host no in-progress session. It returns the closed rooms.
func (r *RoomRegistry) SweepRooms(ctx context.Context, now localtime.Time) (closed []persistence.Room, err error) {
	logger := r.loggerWith(ctx, "SweepRooms")
	defer func() { logResult(ctx, logger, err, "room sweep finished", "closed", len(closed)) }()

	rooms, err := r.rooms.ListActiveRooms(ctx, "")
	if err != nil {
		return nil, mapStoreError("list active rooms", err)
	}

	keepAlive := make(map[string]KeepAliveSet)
	for _, room := range rooms {
		set, ok := keepAlive[room.ShopName]
		if !ok {
			set, err = r.BuildKeepAliveSet(ctx, room.ShopName)
			if err != nil {
				return closed, err
			}
			keepAlive[room.ShopName] = set
		}
		ok, err = r.CheckAndCloseRoom(ctx, room, set, now)
		if err != nil {
			return closed, err
		}
		if ok {
			room.IsActive = false
			room.EndTime = now
			closed = append(closed, room)
		}
	}
	return closed, nil
}
