package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/statusboard/internal/localtime"
	"github.com/example/statusboard/internal/persistence"
	"github.com/example/statusboard/internal/ticket"
)

// EventChecker decides the is_event flag of a new session.
type EventChecker struct {
	shops   persistence.ShopRepository
	records persistence.StatusBoardRepository
	logger  *slog.Logger
}

// NewEventChecker constructs an event checker.
func NewEventChecker(shops persistence.ShopRepository, records persistence.StatusBoardRepository, logger *slog.Logger) *EventChecker {
	return &EventChecker{shops: shops, records: records, logger: defaultLogger(logger)}
}

// CheckIsEvent reports whether a session of slotID starting at start in shop
// is an event session. A start inside the shop's active window is an event;
// outside it the flag carries over from any event session of the slot in the
// same event day (15:00 to 15:00). Shops without an active window have no
// events.
func (c *EventChecker) CheckIsEvent(ctx context.Context, slotID, shop string, start localtime.Time) (bool, error) {
	if c == nil || c.shops == nil || shop == "" || start.IsZero() {
		return false, nil
	}

	et, err := c.shops.GetActiveEventTime(ctx, shop)
	if errors.Is(err, persistence.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, mapStoreError("load event window", err)
	}

	window, err := ticket.ParseWindow(et.StartTime, et.EndTime)
	if err != nil {
		serviceLogger(ctx, c.logger, "EventChecker", "CheckIsEvent", "shop", shop).
			WarnContext(ctx, "ignoring malformed event window", "error", err)
		return false, nil
	}
	if window.Contains(start) {
		return true, nil
	}

	if c.records == nil {
		return false, nil
	}
	from, to := ticket.EventDay(start)
	isEvent := true
	earlier, err := c.records.ListRecords(ctx, persistence.RecordFilter{
		SlotID:      slotID,
		ShopName:    shop,
		IsEvent:     &isEvent,
		StartFrom:   from,
		StartBefore: to,
		Limit:       1,
	})
	if err != nil {
		return false, mapStoreError("load event records", err)
	}
	return len(earlier) > 0, nil
}
