package repository

import (
	"context"

	"go.uber.org/zap"

	"habitgrid/internal/model"
)

type HabitRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewHabitRepository(db DBTX, logger *zap.Logger) *HabitRepository {
	return &HabitRepository{
		db:     db,
		logger: logger,
	}
}

// ListActive returns active habits by sort order.
func (r *HabitRepository) ListActive(ctx context.Context) ([]model.Habit, error) {
	r.logger.Debug("Listing active habits")

	query := `
        SELECT id, habit_key, label, frequency, sort_order, active
        FROM habits
        WHERE active = TRUE
        ORDER BY sort_order ASC, id ASC
    `

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list active habits", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	habits := make([]model.Habit, 0)
	for rows.Next() {
		var (
			h         model.Habit
			frequency string
		)
		if err := rows.Scan(
			&h.ID,
			&h.HabitKey,
			&h.Label,
			&frequency,
			&h.SortOrder,
			&h.Active,
		); err != nil {
			r.logger.Error("Failed to scan habit", zap.Error(err))
			return nil, err
		}
		h.Frequency = model.Frequency(frequency)
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Failed to iterate habits", zap.Error(err))
		return nil, err
	}

	r.logger.Debug("Listed active habits", zap.Int("count", len(habits)))
	return habits, nil
}

// Exists reports whether a habit with id exists, active or not.
func (r *HabitRepository) Exists(ctx context.Context, id int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM habits WHERE id = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		r.logger.Error("Failed to check habit existence", zap.Int64("habit_id", id), zap.Error(err))
		return false, err
	}
	return exists, nil
}
