package ticket

import (
	"fmt"

	"github.com/example/statusboard/internal/localtime"
)

// EventDayBoundary is the time of day at which one event day ends and the next begins.
const EventDayBoundary = 15 * 60

// Window is a daily time-of-day range [Start, End). When End is not after
// Start the window spans midnight.
type Window struct {
	StartMinute int
	EndMinute   int
}

// ParseWindow builds a window from HH:MM or HH:MM:SS bounds.
func ParseWindow(start, end string) (Window, error) {
	s, err := localtime.ParseClock(start)
	if err != nil {
		return Window{}, fmt.Errorf("event window start: %w", err)
	}
	e, err := localtime.ParseClock(end)
	if err != nil {
		return Window{}, fmt.Errorf("event window end: %w", err)
	}
	return Window{StartMinute: s, EndMinute: e}, nil
}

// Contains reports whether t's time of day falls inside the window. A window
// whose bounds are equal contains nothing.
func (w Window) Contains(t localtime.Time) bool {
	if t.IsZero() || w.StartMinute == w.EndMinute {
		return false
	}
	minute := t.MinuteOfDay()
	if w.StartMinute < w.EndMinute {
		return minute >= w.StartMinute && minute < w.EndMinute
	}
	return minute >= w.StartMinute || minute < w.EndMinute
}

// String formats the window as HH:MM-HH:MM.
func (w Window) String() string {
	return localtime.FormatClock(w.StartMinute) + "-" + localtime.FormatClock(w.EndMinute)
}

// EventDay returns the [from, to) range of the event day containing t.
// Event days run from 15:00 to 15:00 the next calendar day.
func EventDay(t localtime.Time) (from, to localtime.Time) {
	from = t.AtMinuteOfDay(EventDayBoundary)
	if t.MinuteOfDay() < EventDayBoundary {
		from = from.AddDate(0, 0, -1)
	}
	return from, from.AddDate(0, 0, 1)
}
