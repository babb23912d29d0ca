// Package opday computes operating-day windows: the trading day of the stand,
// which starts at a configurable hour in a fixed timezone rather than at UTC
// midnight.
package opday

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout formats the calendar date of an operating day.
const DateLayout = "2006-01-02"

var ErrInvalidStartHour = errors.New("start hour must be between 0 and 23")

// Window is the half-open interval [StartUTC, EndUTC).
type Window struct {
	StartUTC   time.Time `json:"start"`
	EndUTC     time.Time `json:"end"`
	LocalStart time.Time `json:"localStart"`
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.StartUTC) && t.Before(w.EndUTC)
}

// Date is the local calendar date the window started on.
func (w Window) Date() string {
	return w.LocalStart.Format(DateLayout)
}

// Reset is the next operating-day boundary and the time left until it.
type Reset struct {
	NextResetUTC time.Time `json:"nextReset"`
	Hours        int       `json:"hours"`
	Minutes      int       `json:"minutes"`
}

func startOn(local time.Time, dayOffset, startHour int, loc *time.Location) time.Time {
	y, m, d := local.Date()
	return time.Date(y, m, d+dayOffset, startHour, 0, 0, 0, loc)
}

func newWindow(start, end time.Time) Window {
	return Window{
		StartUTC:   start.UTC(),
		EndUTC:     end.UTC(),
		LocalStart: start,
	}
}

// WindowAt returns the operating day containing now.
func WindowAt(now time.Time, loc *time.Location, startHour int) Window {
	local := now.In(loc)
	start := startOn(local, 0, startHour, loc)
	if local.Before(start) {
		start = startOn(local, -1, startHour, loc)
	}
	end := startOn(start, 1, startHour, loc)
	return newWindow(start, end)
}

// NextResetAt returns the next operating-day start strictly after now, or at
// now's own day when the start hour has not been reached yet.
func NextResetAt(now time.Time, loc *time.Location, startHour int) Reset {
	local := now.In(loc)
	next := startOn(local, 0, startHour, loc)
	if !local.Before(next) {
		next = startOn(local, 1, startHour, loc)
	}
	remaining := next.Sub(now)
	return Reset{
		NextResetUTC: next.UTC(),
		Hours:        int(remaining.Hours()),
		Minutes:      int(remaining.Minutes()) % 60,
	}
}

// WeekWindowAt returns the operating week containing now. Weeks start on
// Monday at startHour.
func WeekWindowAt(now time.Time, loc *time.Location, startHour int) Window {
	day := WindowAt(now, loc, startHour).LocalStart
	back := (int(day.Weekday()) + 6) % 7
	start := startOn(day, -back, startHour, loc)
	end := startOn(start, 7, startHour, loc)
	return newWindow(start, end)
}

// MonthWindowAt returns the operating month containing now.
func MonthWindowAt(now time.Time, loc *time.Location, startHour int) Window {
	day := WindowAt(now, loc, startHour).LocalStart
	start := time.Date(day.Year(), day.Month(), 1, startHour, 0, 0, 0, loc)
	end := time.Date(day.Year(), day.Month()+1, 1, startHour, 0, 0, 0, loc)
	return newWindow(start, end)
}

// Clock binds the window functions to a timezone, a start hour and a source
// of the current instant.
type Clock struct {
	loc       *time.Location
	startHour int
	now       func() time.Time
}

// NewClock validates startHour and returns a Clock reading the system time.
func NewClock(loc *time.Location, startHour int) (*Clock, error) {
	if loc == nil {
		return nil, fmt.Errorf("opday: nil location")
	}
	if startHour < 0 || startHour > 23 {
		return nil, ErrInvalidStartHour
	}
	return &Clock{loc: loc, startHour: startHour, now: time.Now}, nil
}

// LoadClock is NewClock with the location looked up by IANA name.
func LoadClock(timezone string, startHour int) (*Clock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("opday: load timezone %q: %w", timezone, err)
	}
	return NewClock(loc, startHour)
}

// WithNow returns a copy of c using now as its time source.
func (c *Clock) WithNow(now func() time.Time) *Clock {
	cp := *c
	cp.now = now
	return &cp
}

func (c *Clock) Now() time.Time {
	return c.now().UTC()
}

func (c *Clock) Location() *time.Location {
	return c.loc
}

func (c *Clock) StartHour() int {
	return c.startHour
}

func (c *Clock) Window() Window {
	return WindowAt(c.now(), c.loc, c.startHour)
}

func (c *Clock) WindowFor(t time.Time) Window {
	return WindowAt(t, c.loc, c.startHour)
}

func (c *Clock) NextReset() Reset {
	return NextResetAt(c.now(), c.loc, c.startHour)
}

func (c *Clock) Week() Window {
	return WeekWindowAt(c.now(), c.loc, c.startHour)
}

func (c *Clock) Month() Window {
	return MonthWindowAt(c.now(), c.loc, c.startHour)
}

// DayWindow returns the operating day that started on the given local date.
func (c *Clock) DayWindow(date string) (Window, error) {
	d, err := time.ParseInLocation(DateLayout, date, c.loc)
	if err != nil {
		return Window{}, fmt.Errorf("opday: parse date %q: %w", date, err)
	}
	start := startOn(d, 0, c.startHour, c.loc)
	return newWindow(start, startOn(start, 1, c.startHour, c.loc)), nil
}
