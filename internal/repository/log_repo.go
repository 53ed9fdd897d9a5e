package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"habitgrid/internal/model"
)

type LogRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewLogRepository(db DBTX, logger *zap.Logger) *LogRepository {
	return &LogRepository{
		db:     db,
		logger: logger,
	}
}

// ListRange returns the user's entries with start <= log_date <= end.
func (r *LogRepository) ListRange(ctx context.Context, userID int64, start, end time.Time) ([]model.LogEntry, error) {
	r.logger.Debug("Listing habit logs",
		zap.Int64("user_id", userID),
		zap.Time("start", start),
		zap.Time("end", end),
	)

	query := `
        SELECT habit_id, log_date, status
        FROM habit_logs
        WHERE user_id = $1 AND log_date BETWEEN $2 AND $3
        ORDER BY log_date ASC, habit_id ASC
    `

	rows, err := r.db.Query(ctx, query, userID, start, end)
	if err != nil {
		r.logger.Error("Failed to list habit logs", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	logs := make([]model.LogEntry, 0)
	for rows.Next() {
		var (
			e      model.LogEntry
			status string
		)
		if err := rows.Scan(&e.HabitID, &e.LogDate, &status); err != nil {
			r.logger.Error("Failed to scan habit log", zap.Error(err))
			return nil, err
		}
		st, err := model.ParseStatus(status)
		if err != nil || !st.Stored() {
			return nil, fmt.Errorf("habit log %d/%s: unexpected status %q: %w", e.HabitID, e.LogDate.Format("2006-01-02"), status, model.ErrInvalidStatus)
		}
		e.UserID = userID
		e.Status = st
		logs = append(logs, e)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Failed to iterate habit logs", zap.Error(err))
		return nil, err
	}

	r.logger.Debug("Listed habit logs", zap.Int("count", len(logs)))
	return logs, nil
}

// Upsert inserts the entry or, on a (user, habit, date) conflict, overwrites
// its status. The last write wins.
func (r *LogRepository) Upsert(ctx context.Context, userID, habitID int64, date time.Time, status model.Status) error {
	if !status.Stored() {
		return fmt.Errorf("upsert habit log: %w: %q", model.ErrInvalidStatus, status.String())
	}

	query := `
        INSERT INTO habit_logs (user_id, habit_id, log_date, status)
        VALUES ($1, $2, $3, $4::habit_status)
        ON CONFLICT (user_id, habit_id, log_date)
        DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()
    `
	if _, err := r.db.Exec(ctx, query, userID, habitID, date, status.String()); err != nil {
		r.logger.Error("Failed to upsert habit log",
			zap.Int64("habit_id", habitID),
			zap.Error(err),
		)
		return err
	}

	r.logger.Debug("Habit log upserted",
		zap.Int64("habit_id", habitID),
		zap.String("status", status.String()),
	)
	return nil
}

// Delete removes the entry if present. Deleting an absent entry succeeds.
func (r *LogRepository) Delete(ctx context.Context, userID, habitID int64, date time.Time) error {
	query := `
        DELETE FROM habit_logs
        WHERE user_id = $1 AND habit_id = $2 AND log_date = $3
    `
	tag, err := r.db.Exec(ctx, query, userID, habitID, date)
	if err != nil {
		r.logger.Error("Failed to delete habit log",
			zap.Int64("habit_id", habitID),
			zap.Error(err),
		)
		return err
	}

	r.logger.Debug("Habit log deleted",
		zap.Int64("habit_id", habitID),
		zap.Int64("rows", tag.RowsAffected()),
	)
	return nil
}
