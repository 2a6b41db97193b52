package localtime

import "time"

// Clock produces the current local timestamp for a fixed location.
type Clock struct {
	now func() time.Time
	loc *time.Location
}

// NewClock returns a clock reading instants from now and converting them into loc.
// A nil now uses time.Now and a nil loc uses time.Local.
func NewClock(now func() time.Time, loc *time.Location) Clock {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return Clock{now: now, loc: loc}
}

// Now returns the current local timestamp.
func (c Clock) Now() Time {
	if c.now == nil {
		return FromTime(time.Now(), c.Location())
	}
	return FromTime(c.now(), c.Location())
}

// Location returns the clock's location.
func (c Clock) Location() *time.Location {
	if c.loc == nil {
		return time.Local
	}
	return c.loc
}

// Parse interprets value in the clock's location.
func (c Clock) Parse(value string) (Time, error) {
	return Parse(value, c.Location())
}
