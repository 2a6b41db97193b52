// Package localtime provides the wall-clock timestamp type shared by the
// parser, the session handlers and the store.
//
// Chat messages, shop opening hours and event windows are all expressed in the
// shop's local time without a zone suffix. Time keeps only those wall-clock
// digits so that values read back from the store compare correctly with values
// produced by the clock, regardless of the host's zone.
package localtime

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Layout is the canonical serialization of a local timestamp.
const Layout = "2006-01-02 15:04:05"

// MinutesPerDay is the length of a day in minutes.
const MinutesPerDay = 24 * 60

var parseLayouts = []string{
	Layout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// ErrInvalidTimestamp is returned when a value cannot be interpreted as a local timestamp.
var ErrInvalidTimestamp = errors.New("localtime: invalid timestamp")

// Time is a local wall-clock timestamp with second precision.
// The zero value represents an absent timestamp.
type Time struct {
	wall time.Time
}

// Date returns the local timestamp for the given wall-clock fields.
func Date(year int, month time.Month, day, hour, minute, second int) Time {
	return Time{wall: time.Date(year, month, day, hour, minute, second, 0, time.UTC)}
}

// FromTime converts an instant into the wall clock of loc.
func FromTime(t time.Time, loc *time.Location) Time {
	if t.IsZero() {
		return Time{}
	}
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second())
}

// Parse interprets value as a local timestamp. Zone-qualified values
// (RFC 3339) are converted into loc first; zone-less values are taken as-is.
func Parse(value string, loc *time.Location) (Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Time{}, fmt.Errorf("%w: empty value", ErrInvalidTimestamp)
	}
	for _, layout := range parseLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return Time{wall: parsed.Truncate(time.Second)}, nil
		}
	}
	if parsed, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return FromTime(parsed, loc), nil
	}
	return Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, value)
}

// MustParse is Parse for fixed literals; it panics on malformed input.
func MustParse(value string) Time {
	t, err := Parse(value, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

// IsZero reports whether t is the absent timestamp.
func (t Time) IsZero() bool { return t.wall.IsZero() }

// String formats t using Layout. The zero value formats as an empty string.
func (t Time) String() string {
	if t.IsZero() {
		return ""
	}
	return t.wall.Format(Layout)
}

// Format formats the wall-clock digits with a time package layout.
func (t Time) Format(layout string) string { return t.wall.Format(layout) }

// Add returns t shifted by d.
func (t Time) Add(d time.Duration) Time { return Time{wall: t.wall.Add(d)} }

// AddDate returns t shifted by whole calendar units.
func (t Time) AddDate(years, months, days int) Time {
	return Time{wall: t.wall.AddDate(years, months, days)}
}

// Sub returns the duration t-u.
func (t Time) Sub(u Time) time.Duration { return t.wall.Sub(u.wall) }

// Before reports whether t is earlier than u.
func (t Time) Before(u Time) bool { return t.wall.Before(u.wall) }

// After reports whether t is later than u.
func (t Time) After(u Time) bool { return t.wall.After(u.wall) }

// Equal reports whether t and u carry the same wall-clock digits.
func (t Time) Equal(u Time) bool { return t.wall.Equal(u.wall) }

// Hour returns the hour of day.
func (t Time) Hour() int { return t.wall.Hour() }

// Minute returns the minute within the hour.
func (t Time) Minute() int { return t.wall.Minute() }

// MinuteOfDay returns the minutes elapsed since midnight.
func (t Time) MinuteOfDay() int { return t.wall.Hour()*60 + t.wall.Minute() }

// Midnight returns the start of t's calendar day.
func (t Time) Midnight() Time {
	y, m, d := t.wall.Date()
	return Date(y, m, d, 0, 0, 0)
}

// AtMinuteOfDay returns the timestamp on t's calendar day at the given minute of day.
func (t Time) AtMinuteOfDay(minute int) Time {
	return t.Midnight().Add(time.Duration(minute) * time.Minute)
}

// ClockString formats the time of day as HH:MM.
func (t Time) ClockString() string { return t.wall.Format("15:04") }

// MarshalJSON encodes t as a Layout string, or null when zero.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts null, an empty string or any format accepted by Parse.
func (t *Time) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)
	}
	if strings.TrimSpace(raw) == "" {
		*t = Time{}
		return nil
	}
	parsed, err := Parse(raw, time.Local)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value stores t as Layout text, or NULL when zero.
func (t Time) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.String(), nil
}

// Scan reads a Layout text column. NULL and empty text yield the zero value.
func (t *Time) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = Time{}
		return nil
	case string:
		return t.scanString(v)
	case []byte:
		return t.scanString(string(v))
	case time.Time:
		*t = Date(v.Year(), v.Month(), v.Day(), v.Hour(), v.Minute(), v.Second())
		return nil
	default:
		return fmt.Errorf("%w: unsupported column type %T", ErrInvalidTimestamp, src)
	}
}

func (t *Time) scanString(value string) error {
	if strings.TrimSpace(value) == "" {
		*t = Time{}
		return nil
	}
	parsed, err := Parse(value, time.UTC)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// clockLayouts are the accepted time-of-day forms. SQL TIME columns carry
// seconds, which are dropped.
var clockLayouts = []string{"15:04", "15:04:05"}

// ParseClock parses an HH:MM or HH:MM:SS time of day into minutes since
// midnight.
func ParseClock(value string) (int, error) {
	value = strings.TrimSpace(value)
	for _, layout := range clockLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.Hour()*60 + parsed.Minute(), nil
		}
	}
	return 0, fmt.Errorf("%w: time of day %q", ErrInvalidTimestamp, value)
}

// FormatClock formats minutes since midnight as HH:MM.
func FormatClock(minute int) string {
	minute = ((minute % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
