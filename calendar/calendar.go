// Package calendar provides weekend-and-holiday business-day calendars.
package calendar

import (
	"time"
)

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	TARGET CalendarID = "TARGET"
	JPN    CalendarID = "JPN"
	USD    CalendarID = "USD"
	KRW    CalendarID = "KRW"
	// Weekends has no holidays.
	Weekends CalendarID = "WEEKENDS"
)

const dateKey = "2006-01-02"

// Calendar treats Saturdays, Sundays and its holiday set as non-business days.
// A Calendar is read-only once built and safe for concurrent use.
type Calendar struct {
	id       CalendarID
	holidays map[string]struct{}
}

// New builds a calendar from a holiday list.
func New(id CalendarID, holidays ...time.Time) *Calendar {
	c := &Calendar{id: id, holidays: make(map[string]struct{}, len(holidays))}
	for _, h := range holidays {
		c.holidays[h.Format(dateKey)] = struct{}{}
	}
	return c
}

// WeekendsOnly has no holidays.
func WeekendsOnly() *Calendar { return New(Weekends) }

func (c *Calendar) ID() CalendarID { return c.id }

func (c *Calendar) isHoliday(t time.Time) bool {
	_, ok := c.holidays[t.Format(dateKey)]
	return ok
}

// IsBusinessDay checks weekends and the holiday set.
func (c *Calendar) IsBusinessDay(t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !c.isHoliday(t)
}

// Adjust applies Modified Following.
func (c *Calendar) Adjust(t time.Time) time.Time {
	origMonth := t.Month()
	for !c.IsBusinessDay(t) {
		t = t.AddDate(0, 0, 1)
	}
	if t.Month() != origMonth {
		t = t.AddDate(0, 0, -1)
		for !c.IsBusinessDay(t) {
			t = t.AddDate(0, 0, -1)
		}
	}
	return t
}

// AdjustFollowing applies Following without month preservation.
func (c *Calendar) AdjustFollowing(t time.Time) time.Time {
	for !c.IsBusinessDay(t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func (c *Calendar) AddBusinessDays(t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if c.IsBusinessDay(t) {
			n -= step
		}
	}
	return t
}

// LastBusinessDayOfMonth returns the last business day of the month containing t.
func (c *Calendar) LastBusinessDayOfMonth(t time.Time) time.Time {
	nextMonth := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	return c.AddBusinessDays(nextMonth, -1)
}

// IsEndOfMonth checks if t is the last business day of its month.
func (c *Calendar) IsEndOfMonth(t time.Time) bool {
	return t.Equal(c.LastBusinessDayOfMonth(t))
}
