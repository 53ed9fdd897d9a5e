// Package habit records habit statuses and serves the grid's read paths.
package habit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"habitgrid/internal/calendar"
	"habitgrid/internal/model"
	"habitgrid/pkg/logger"
	"habitgrid/pkg/metrics"
)

var (
	// ErrHabitNotFound is returned when a habit id does not exist.
	ErrHabitNotFound = errors.New("habit not found")
	// ErrInvalidDate is returned for dates that are not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidStatus is model.ErrInvalidStatus, re-exported for callers.
	ErrInvalidStatus = model.ErrInvalidStatus
)

type HabitStore interface {
	ListActive(ctx context.Context) ([]model.Habit, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

type LogStore interface {
	ListRange(ctx context.Context, userID int64, start, end time.Time) ([]model.LogEntry, error)
	Upsert(ctx context.Context, userID, habitID int64, date time.Time, status model.Status) error
	Delete(ctx context.Context, userID, habitID int64, date time.Time) error
}

// HabitCache is optional; a nil cache reads straight from the store.
type HabitCache interface {
	GetActive(ctx context.Context) ([]model.Habit, bool, error)
	SetActive(ctx context.Context, habits []model.Habit) error
}

type Service struct {
	habits HabitStore
	logs   LogStore
	cache  HabitCache
	userID int64
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

type Option func(*Service)

// WithCache enables the read-through habit cache.
func WithCache(c HabitCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithLocation sets the zone "today" is computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(habits HabitStore, logs LogStore, userID int64, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		habits: habits,
		logs:   logs,
		userID: userID,
		loc:    time.Local,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListHabits returns the active habits ordered by sort order.
func (s *Service) ListHabits(ctx context.Context) ([]model.Habit, error) {
	log := logger.WithTrace(ctx, s.logger)

	if s.cache != nil {
		habits, ok, err := s.cache.GetActive(ctx)
		switch {
		case err != nil:
			// Redis 不可用时直接查库
			metrics.IncrementHabitCache("error")
			log.Warn("Habit cache lookup failed, falling back to database", zap.Error(err))
		case ok:
			metrics.IncrementHabitCache("hit")
			return habits, nil
		default:
			metrics.IncrementHabitCache("miss")
		}
	}

	habits, err := s.habits.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetActive(ctx, habits); err != nil {
			log.Warn("Failed to populate habit cache", zap.Error(err))
		}
	}
	return habits, nil
}

// ListLogs returns the configured user's entries in [start, end].
func (s *Service) ListLogs(ctx context.Context, start, end time.Time) ([]model.LogEntry, error) {
	logs, err := s.logs.ListRange(ctx, s.userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list logs %s..%s: %w", calendar.FormatDate(start), calendar.FormatDate(end), err)
	}
	return logs, nil
}

// SetStatus records status for (habitID, date). An empty status clears the
// entry; clearing an absent entry succeeds. Checks run in order: date format,
// habit existence, status value.
func (s *Service) SetStatus(ctx context.Context, habitID int64, date, status string) error {
	log := logger.WithTrace(ctx, s.logger).With(
		zap.Int64("habit_id", habitID),
		zap.String("date", date),
		zap.String("status", status),
	)

	day, err := calendar.ParseDate(date)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}

	exists, err := s.habits.Exists(ctx, habitID)
	if err != nil {
		return fmt.Errorf("check habit %d: %w", habitID, err)
	}
	if !exists {
		log.Info("SetStatus: habit not found")
		return fmt.Errorf("habit %d: %w", habitID, ErrHabitNotFound)
	}

	if status == "" {
		if err := s.logs.Delete(ctx, s.userID, habitID, day); err != nil {
			return fmt.Errorf("clear habit %d on %s: %w", habitID, date, err)
		}
		metrics.IncrementStatusSet("")
		log.Info("SetStatus: cleared")
		return nil
	}

	st, err := model.ParseStatus(status)
	if err != nil {
		return err
	}

	if err := s.logs.Upsert(ctx, s.userID, habitID, day, st); err != nil {
		return fmt.Errorf("record habit %d on %s: %w", habitID, date, err)
	}
	metrics.IncrementStatusSet(st.String())
	log.Info("SetStatus: recorded")
	return nil
}

// Today returns the current date in the service's zone.
func (s *Service) Today() time.Time {
	return calendar.Midnight(s.now().In(s.loc))
}

// Window resolves the window beginning at start (or the default window when
// start is zero) shifted by shiftDays.
func (s *Service) Window(start time.Time, shiftDays int) calendar.Window {
	if start.IsZero() {
		today := s.Today()
		y, m, d := today.Date()
		start = calendar.DefaultWindowStart(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	}
	return calendar.NewWindow(calendar.ShiftWindow(start, shiftDays))
}
