// Package grid keeps a client-side view of the four-week habit grid.
//
// The cell map is a projection of confirmed server state: it is replaced
// wholesale after a successful load and a cell changes only after the server
// acknowledged the write.
package grid

import (
	"context"
	"fmt"
	"time"

	"habitgrid/internal/calendar"
	"habitgrid/internal/model"
)

// Backend is implemented by apiclient.Client.
type Backend interface {
	ListHabits(ctx context.Context) ([]model.Habit, error)
	ListLogs(ctx context.Context, start, end time.Time) ([]model.LogEntry, error)
	SetStatus(ctx context.Context, habitID int64, date time.Time, status model.Status) error
}

type cellKey struct {
	habitID int64
	date    string
}

type Board struct {
	backend Backend
	now     func() time.Time

	start  time.Time
	habits []model.Habit
	cells  map[cellKey]model.Status
}

// NewBoard starts at the default window for now(). Call Load before reading.
func NewBoard(backend Backend, now func() time.Time) *Board {
	if now == nil {
		now = time.Now
	}
	return &Board{
		backend: backend,
		now:     now,
		start:   defaultStart(now()),
		cells:   map[cellKey]model.Status{},
	}
}

func defaultStart(now time.Time) time.Time {
	y, m, d := now.Date()
	return calendar.DefaultWindowStart(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// Load fetches habits and the window's logs. On failure the board keeps its
// previous state.
func (b *Board) Load(ctx context.Context) error {
	return b.loadAt(ctx, b.start)
}

// Next pages forward one window.
func (b *Board) Next(ctx context.Context) error {
	return b.loadAt(ctx, calendar.ShiftWindow(b.start, calendar.WindowDays))
}

// Prev pages back one window.
func (b *Board) Prev(ctx context.Context) error {
	return b.loadAt(ctx, calendar.ShiftWindow(b.start, -calendar.WindowDays))
}

// Today jumps back to the window containing today.
func (b *Board) Today(ctx context.Context) error {
	return b.loadAt(ctx, defaultStart(b.now()))
}

func (b *Board) loadAt(ctx context.Context, start time.Time) error {
	habits, err := b.backend.ListHabits(ctx)
	if err != nil {
		return fmt.Errorf("load habits: %w", err)
	}
	logs, err := b.backend.ListLogs(ctx, start, calendar.WindowEnd(start))
	if err != nil {
		return fmt.Errorf("load logs: %w", err)
	}

	cells := make(map[cellKey]model.Status, len(logs))
	for _, e := range logs {
		if e.Status.Stored() {
			cells[key(e.HabitID, e.LogDate)] = e.Status
		}
	}

	b.start = start
	b.habits = habits
	b.cells = cells
	return nil
}

func key(habitID int64, date time.Time) cellKey {
	return cellKey{habitID: habitID, date: calendar.FormatDate(date)}
}

func (b *Board) Start() time.Time { return b.start }

func (b *Board) End() time.Time { return calendar.WindowEnd(b.start) }

func (b *Board) Days() []time.Time { return calendar.WindowDates(b.start) }

func (b *Board) WeekStarts() []time.Time { return calendar.WeekStarts(b.start) }

// Status returns the confirmed status of a cell.
func (b *Board) Status(habitID int64, date time.Time) model.Status {
	return b.cells[key(habitID, date)]
}

// HabitByKey finds a loaded habit by its habit_key.
func (b *Board) HabitByKey(key string) (model.Habit, bool) {
	for _, h := range b.habits {
		if h.HabitKey == key {
			return h, true
		}
	}
	return model.Habit{}, false
}

func (b *Board) DailyHabits() []model.Habit {
	return b.byFrequency(model.FrequencyDaily)
}

func (b *Board) WeeklyHabits() []model.Habit {
	return b.byFrequency(model.FrequencyWeekly)
}

func (b *Board) byFrequency(f model.Frequency) []model.Habit {
	var out []model.Habit
	for _, h := range b.habits {
		if h.Frequency == f {
			out = append(out, h)
		}
	}
	return out
}

// Toggle advances a daily cell one step through the status cycle.
func (b *Board) Toggle(ctx context.Context, habitID int64, date time.Time) (model.Status, error) {
	return b.set(ctx, habitID, date, b.Status(habitID, date).Next())
}

// ToggleWeek flips a weekly habit between done (ok) and not done for the
// weekIndex-th week of the window. The entry lives on the week's Monday.
func (b *Board) ToggleWeek(ctx context.Context, habitID int64, weekIndex int) (model.Status, error) {
	if weekIndex < 0 || weekIndex >= calendar.WeeksPerWindow {
		return model.StatusUnmarked, fmt.Errorf("week index %d out of range", weekIndex)
	}
	weekStart := b.WeekStarts()[weekIndex]

	target := model.StatusOK
	if b.Status(habitID, weekStart) == model.StatusOK {
		target = model.StatusUnmarked
	}
	return b.set(ctx, habitID, weekStart, target)
}

// WeekDone reports whether a weekly habit is done for the weekIndex-th week.
func (b *Board) WeekDone(habitID int64, weekIndex int) bool {
	if weekIndex < 0 || weekIndex >= calendar.WeeksPerWindow {
		return false
	}
	return b.Status(habitID, b.WeekStarts()[weekIndex]) == model.StatusOK
}

func (b *Board) set(ctx context.Context, habitID int64, date time.Time, st model.Status) (model.Status, error) {
	k := key(habitID, date)
	if err := b.backend.SetStatus(ctx, habitID, date, st); err != nil {
		return b.cells[k], err
	}

	if st.Stored() {
		b.cells[k] = st
	} else {
		delete(b.cells, k)
	}
	return st, nil
}
