package conflict

import (
	"fmt"
	"time"

	"fleetbook/pkg/model"
)

// Calendar resolves calendar days in the business time zone.
type Calendar struct {
	loc *time.Location
}

func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{loc: loc}
}

func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// DayOf returns local midnight of the day t falls on.
func (c Calendar) DayOf(t time.Time) time.Time {
	t = t.In(c.Location())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.Location())
}

func (c Calendar) StartOfDay(day time.Time) time.Time {
	return c.DayOf(day)
}

// EndOfDay is the next local midnight, so a DST day is 23 or 25 hours long.
func (c Calendar) EndOfDay(day time.Time) time.Time {
	start := c.DayOf(day)
	return time.Date(start.Year(), start.Month(), start.Day()+1, 0, 0, 0, 0, c.Location())
}

func (c Calendar) SameDay(a, b time.Time) bool {
	return c.DayOf(a).Equal(c.DayOf(b))
}

// At places clock on the calendar day of day.
func (c Calendar) At(day time.Time, clock Clock) time.Time {
	d := c.DayOf(day)
	return time.Date(d.Year(), d.Month(), d.Day(), clock.Hour, clock.Minute, 0, 0, c.Location())
}

// ParseDay parses a YYYY-MM-DD date as local midnight.
func (c Calendar) ParseDay(s string) (time.Time, error) {
	d, err := time.ParseInLocation(time.DateOnly, s, c.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q: %w", s, err)
	}
	return d, nil
}

// lastDay is the final day r occupies. A return exactly at local midnight
// ends on the previous day.
func (c Calendar) lastDay(r model.Reservation) time.Time {
	returnDay := c.DayOf(r.ReturnAt)
	if r.ReturnAt.Equal(returnDay) && r.ReturnAt.After(r.PickupAt) {
		return c.DayOf(r.ReturnAt.Add(-time.Nanosecond))
	}
	return returnDay
}

// EffectiveWindowForDay returns the slice of r that occupies the resource on
// day. ok is false when r does not touch day at all, including the day a
// reservation returns on at exactly midnight.
func (c Calendar) EffectiveWindowForDay(r model.Reservation, day time.Time) (w Window, ok bool) {
	d := c.DayOf(day)
	pickupDay := c.DayOf(r.PickupAt)
	returnDay := c.lastDay(r)
	if d.Before(pickupDay) || d.After(returnDay) {
		return Window{}, false
	}

	isPickupDay := d.Equal(pickupDay)
	isReturnDay := d.Equal(returnDay)
	switch {
	case isPickupDay && isReturnDay:
		return Window{Start: r.PickupAt, End: r.ReturnAt}, true
	case isPickupDay:
		return Window{Start: r.PickupAt, End: c.EndOfDay(d)}, true
	case isReturnDay:
		return Window{Start: d, End: r.ReturnAt}, true
	default:
		return Window{Start: d, End: c.EndOfDay(d)}, true
	}
}

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c Clock) Validate() error {
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 {
		return fmt.Errorf("%w: %02d:%02d", ErrInvalidClock, c.Hour, c.Minute)
	}
	return nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}
