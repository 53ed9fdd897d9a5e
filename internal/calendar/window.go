// Package calendar computes the four-week date windows shown by the habit grid.
//
// Every function is pure. Dates are time.Time values truncated to midnight in
// their own location; wire dates are parsed and formatted as YYYY-MM-DD in UTC.
package calendar

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the wire format for calendar dates.
	DateLayout = "2006-01-02"

	// WindowDays is the length of a window and the paging step.
	WindowDays = 28

	// WeeksPerWindow is the number of Monday-aligned weeks in a window.
	WeeksPerWindow = WindowDays / 7

	// defaultLeadDays places today inside the last week of the default window.
	defaultLeadDays = (WeeksPerWindow - 1) * 7
)

// Window is a derived, never stored, 28-day range.
type Window struct {
	Start time.Time
	End   time.Time
	Dates []time.Time
}

// NewWindow expands start into a Window.
func NewWindow(start time.Time) Window {
	start = Midnight(start)
	return Window{
		Start: start,
		End:   WindowEnd(start),
		Dates: WindowDates(start),
	}
}

// Midnight zeroes the time of day of t, keeping its location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfWeekMonday returns the Monday on or before date, at midnight.
func StartOfWeekMonday(date time.Time) time.Time {
	d := Midnight(date)
	// time.Sunday == 0, so Sunday is six days after Monday.
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// DefaultWindowStart returns the window start that shows today in the fourth week.
func DefaultWindowStart(today time.Time) time.Time {
	return StartOfWeekMonday(today).AddDate(0, 0, -defaultLeadDays)
}

// WindowDates returns start, start+1, ..., start+27.
func WindowDates(start time.Time) []time.Time {
	start = Midnight(start)
	dates := make([]time.Time, WindowDays)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	return dates
}

// WindowEnd returns the last date of the window beginning at start.
func WindowEnd(start time.Time) time.Time {
	return Midnight(start).AddDate(0, 0, WindowDays-1)
}

// WeekStarts returns the first day of each week in the window.
func WeekStarts(start time.Time) []time.Time {
	start = Midnight(start)
	weeks := make([]time.Time, WeeksPerWindow)
	for i := range weeks {
		weeks[i] = start.AddDate(0, 0, i*7)
	}
	return weeks
}

// ShiftWindow moves start by deltaDays; paging uses ±WindowDays.
func ShiftWindow(start time.Time, deltaDays int) time.Time {
	return Midnight(start).AddDate(0, 0, deltaDays)
}

// ParseDate parses a strict YYYY-MM-DD calendar date in UTC.
// Out-of-range months and days are rejected.
func ParseDate(s string) (time.Time, error) {
	if len(s) != len(DateLayout) {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatDates renders each date as YYYY-MM-DD.
func FormatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = FormatDate(d)
	}
	return out
}
