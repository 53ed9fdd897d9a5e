package habit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"habitgrid/internal/calendar"
	"habitgrid/internal/model"
)

type logKey struct {
	user, habit int64
	date        string
}

// memStore keeps rows keyed like the unique index on habit_logs.
type memStore struct {
	habits    []model.Habit
	rows      map[logKey]model.Status
	upserts   int
	deletes   int
	failWrite error
	listCalls int
}

func newMemStore(habits ...model.Habit) *memStore {
	return &memStore{habits: habits, rows: map[logKey]model.Status{}}
}

func (m *memStore) ListActive(context.Context) ([]model.Habit, error) {
	m.listCalls++
	var out []model.Habit
	for _, h := range m.habits {
		if h.Active {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memStore) Exists(_ context.Context, id int64) (bool, error) {
	for _, h := range m.habits {
		if h.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListRange(_ context.Context, userID int64, start, end time.Time) ([]model.LogEntry, error) {
	var out []model.LogEntry
	for k, st := range m.rows {
		d, _ := calendar.ParseDate(k.date)
		if k.user == userID && !d.Before(start) && !d.After(end) {
			out = append(out, model.LogEntry{UserID: k.user, HabitID: k.habit, LogDate: d, Status: st})
		}
	}
	return out, nil
}

func (m *memStore) Upsert(_ context.Context, userID, habitID int64, date time.Time, st model.Status) error {
	if m.failWrite != nil {
		return m.failWrite
	}
	m.upserts++
	m.rows[logKey{userID, habitID, calendar.FormatDate(date)}] = st
	return nil
}

func (m *memStore) Delete(_ context.Context, userID, habitID int64, date time.Time) error {
	if m.failWrite != nil {
		return m.failWrite
	}
	m.deletes++
	delete(m.rows, logKey{userID, habitID, calendar.FormatDate(date)})
	return nil
}

func (m *memStore) rowsFor(habitID int64, date string) int {
	n := 0
	for k := range m.rows {
		if k.habit == habitID && k.date == date {
			n++
		}
	}
	return n
}

var (
	wake     = model.Habit{ID: 1, HabitKey: "wake_fixed", Label: "Fixed wake-up time", Frequency: model.FrequencyDaily, SortOrder: 10, Active: true}
	retired  = model.Habit{ID: 2, HabitKey: "old", Label: "Retired", Frequency: model.FrequencyDaily, SortOrder: 20, Active: false}
	strength = model.Habit{ID: 8, HabitKey: "strength_2", Label: "Strength training", Frequency: model.FrequencyWeekly, SortOrder: 110, Active: true}
)

func newTestService(store *memStore, opts ...Option) *Service {
	return NewService(store, store, 1, zap.NewNop(), opts...)
}

func TestSetStatusUpsertKeepsSingleRow(t *testing.T) {
	store := newMemStore(wake)
	svc := newTestService(store)
	ctx := context.Background()

	require.NoError(t, svc.SetStatus(ctx, 1, "2024-01-03", "ok"))
	require.NoError(t, svc.SetStatus(ctx, 1, "2024-01-03", "partial"))

	assert.Equal(t, 1, store.rowsFor(1, "2024-01-03"))
	assert.Equal(t, model.StatusPartial, store.rows[logKey{1, 1, "2024-01-03"}])
}

func TestSetStatusClearIsIdempotent(t *testing.T) {
	store := newMemStore(wake)
	svc := newTestService(store)
	ctx := context.Background()

	require.NoError(t, svc.SetStatus(ctx, 1, "2024-01-03", "no"))
	require.NoError(t, svc.SetStatus(ctx, 1, "2024-01-03", ""))
	require.NoError(t, svc.SetStatus(ctx, 1, "2024-01-03", ""))

	assert.Equal(t, 0, store.rowsFor(1, "2024-01-03"))
	assert.Equal(t, 2, store.deletes)
}

func TestSetStatusChecksExistenceNotActiveness(t *testing.T) {
	store := newMemStore(wake, retired)
	svc := newTestService(store)

	require.NoError(t, svc.SetStatus(context.Background(), 2, "2024-01-03", "ok"))
	assert.Equal(t, 1, store.rowsFor(2, "2024-01-03"))
}

func TestSetStatusUnknownHabit(t *testing.T) {
	store := newMemStore(wake)
	svc := newTestService(store)

	err := svc.SetStatus(context.Background(), 3, "2024-01-01", "ok")
	assert.ErrorIs(t, err, ErrHabitNotFound)
	assert.Zero(t, store.upserts)
}

func TestSetStatusUnknownHabitWinsOverBadStatus(t *testing.T) {
	svc := newTestService(newMemStore(wake))

	err := svc.SetStatus(context.Background(), 3, "2024-01-01", "maybe")
	assert.ErrorIs(t, err, ErrHabitNotFound)
}

func TestSetStatusInvalidStatus(t *testing.T) {
	store := newMemStore(wake)
	svc := newTestService(store)

	err := svc.SetStatus(context.Background(), 1, "2024-01-01", "done")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.False(t, errors.Is(err, ErrHabitNotFound))
	assert.Zero(t, store.upserts)
}

func TestSetStatusInvalidDate(t *testing.T) {
	svc := newTestService(newMemStore(wake))

	for _, d := range []string{"2024-13-01", "2024-1-1", "yesterday", ""} {
		err := svc.SetStatus(context.Background(), 1, d, "ok")
		assert.ErrorIs(t, err, ErrInvalidDate, d)
	}
}

func TestSetStatusStorageFailurePropagates(t *testing.T) {
	boom := errors.New("db down")
	store := newMemStore(wake)
	store.failWrite = boom
	svc := newTestService(store)

	err := svc.SetStatus(context.Background(), 1, "2024-01-01", "ok")
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, ErrHabitNotFound))

	err = svc.SetStatus(context.Background(), 1, "2024-01-01", "")
	assert.ErrorIs(t, err, boom)
}

func TestListHabitsOnlyActive(t *testing.T) {
	svc := newTestService(newMemStore(wake, retired, strength))

	habits, err := svc.ListHabits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Habit{wake, strength}, habits)
}

func TestListLogsScopedToRange(t *testing.T) {
	store := newMemStore(wake)
	svc := newTestService(store)
	ctx := context.Background()

	require.NoError(t, svc.SetStatus(ctx, 1, "2024-01-01", "ok"))
	require.NoError(t, svc.SetStatus(ctx, 1, "2024-01-28", "no"))
	require.NoError(t, svc.SetStatus(ctx, 1, "2024-01-29", "partial"))

	start, _ := calendar.ParseDate("2024-01-01")
	logs, err := svc.ListLogs(ctx, start, calendar.WindowEnd(start))
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

type fakeCache struct {
	habits []model.Habit
	ok     bool
	getErr error
	sets   int
}

func (f *fakeCache) GetActive(context.Context) ([]model.Habit, bool, error) {
	return f.habits, f.ok, f.getErr
}

func (f *fakeCache) SetActive(_ context.Context, habits []model.Habit) error {
	f.sets++
	f.habits, f.ok = habits, true
	return nil
}

func TestListHabitsReadThroughCache(t *testing.T) {
	store := newMemStore(wake)
	cache := &fakeCache{}
	svc := newTestService(store, WithCache(cache))
	ctx := context.Background()

	first, err := svc.ListHabits(ctx)
	require.NoError(t, err)
	second, err := svc.ListHabits(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.listCalls)
	assert.Equal(t, 1, cache.sets)
}

func TestListHabitsCacheErrorFallsBack(t *testing.T) {
	store := newMemStore(wake)
	svc := newTestService(store, WithCache(&fakeCache{getErr: errors.New("redis down")}))

	habits, err := svc.ListHabits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Habit{wake}, habits)
	assert.Equal(t, 1, store.listCalls)
}

func TestWindowDefaultsToCurrentWindow(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 2024-05-15 20:00 UTC is already Thursday 2024-05-16 in Tokyo.
	now := time.Date(2024, 5, 15, 20, 0, 0, 0, time.UTC)
	svc := newTestService(newMemStore(), WithLocation(tokyo), WithClock(func() time.Time { return now }))

	w := svc.Window(time.Time{}, 0)
	assert.Equal(t, "2024-04-22", calendar.FormatDate(w.Start))
	assert.Equal(t, "2024-05-19", calendar.FormatDate(w.End))

	next := svc.Window(w.Start, calendar.WindowDays)
	assert.Equal(t, "2024-05-20", calendar.FormatDate(next.Start))
}

func TestWindowShiftFromExplicitStart(t *testing.T) {
	svc := newTestService(newMemStore())
	start, _ := calendar.ParseDate("2024-01-01")

	assert.Equal(t, "2024-01-29", calendar.FormatDate(svc.Window(start, 28).Start))
	assert.Equal(t, "2023-12-04", calendar.FormatDate(svc.Window(start, -28).Start))
}
