// Package migrate creates the habit schema and seeds the single user and the
// fixed habit list. Every statement is idempotent.
package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"habitgrid/internal/model"
)

// SeedUserEmail identifies the one user the service records for.
const SeedUserEmail = "me@local"

var schema = []string{
	`DO $$ BEGIN
        CREATE TYPE habit_frequency AS ENUM ('daily', 'weekly');
    EXCEPTION WHEN duplicate_object THEN NULL;
    END $$`,
	`DO $$ BEGIN
        CREATE TYPE habit_status AS ENUM ('ok', 'partial', 'no');
    EXCEPTION WHEN duplicate_object THEN NULL;
    END $$`,
	`CREATE TABLE IF NOT EXISTS users (
        id SERIAL PRIMARY KEY,
        email VARCHAR(190) NOT NULL UNIQUE,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS habits (
        id SERIAL PRIMARY KEY,
        habit_key VARCHAR(64) NOT NULL UNIQUE,
        label VARCHAR(255) NOT NULL,
        frequency habit_frequency NOT NULL DEFAULT 'daily',
        sort_order INTEGER NOT NULL DEFAULT 0,
        active BOOLEAN NOT NULL DEFAULT TRUE
    )`,
	`CREATE TABLE IF NOT EXISTS habit_logs (
        id SERIAL PRIMARY KEY,
        user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
        habit_id INTEGER NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
        log_date DATE NOT NULL,
        status habit_status NOT NULL,
        note TEXT,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_user_habit_date
        ON habit_logs (user_id, habit_id, log_date)`,
}

// SeedHabits is the fixed habit list.
var SeedHabits = []model.Habit{
	{HabitKey: "wake_fixed", Label: "Fixed wake-up time (±30 min)", Frequency: model.FrequencyDaily, SortOrder: 10},
	{HabitKey: "sleep_7_9", Label: "Sleep 7-9h (or keep bedtime)", Frequency: model.FrequencyDaily, SortOrder: 20},
	{HabitKey: "aerobic_20", Label: "Aerobic exercise 20 min (total)", Frequency: model.FrequencyDaily, SortOrder: 30},
	{HabitKey: "break_sit", Label: "Break up sitting (stand once an hour)", Frequency: model.FrequencyDaily, SortOrder: 40},
	{HabitKey: "veg_protein", Label: "Vegetables + protein (2+ meals)", Frequency: model.FrequencyDaily, SortOrder: 50},
	{HabitKey: "recall_10", Label: "Study: 10 min recall practice", Frequency: model.FrequencyDaily, SortOrder: 60},
	{HabitKey: "social_5", Label: "Talk to someone / go outside (even 5 min)", Frequency: model.FrequencyDaily, SortOrder: 70},

	{HabitKey: "strength_2", Label: "Strength training (2x a week)", Frequency: model.FrequencyWeekly, SortOrder: 110},
	{HabitKey: "fish_2", Label: "Fish (2x a week)", Frequency: model.FrequencyWeekly, SortOrder: 120},
	{HabitKey: "alcohol_control", Label: "2+ alcohol-free days (or half the amount)", Frequency: model.FrequencyWeekly, SortOrder: 130},
	{HabitKey: "measure_bp", Label: "Measurements (blood pressure 3x / weight 3x)", Frequency: model.FrequencyWeekly, SortOrder: 140},
}

const (
	seedUserSQL  = `INSERT INTO users (email) VALUES ($1) ON CONFLICT DO NOTHING`
	seedHabitSQL = `
        INSERT INTO habits (habit_key, label, frequency, sort_order)
        VALUES ($1, $2, $3::habit_frequency, $4)
        ON CONFLICT DO NOTHING
    `
)

// CacheInvalidator drops cached habit data after a reseed.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type Migrator struct {
	db     *sql.DB
	logger *zap.Logger
	cache  CacheInvalidator
}

func New(db *sql.DB, logger *zap.Logger) *Migrator {
	return &Migrator{db: db, logger: logger}
}

// WithCache makes Seed invalidate c once the seed transaction commits.
func (m *Migrator) WithCache(c CacheInvalidator) *Migrator {
	m.cache = c
	return m
}

// Up creates the schema in a single transaction.
func (m *Migrator) Up(ctx context.Context) error {
	return m.inTx(ctx, func(tx *sql.Tx) error {
		for i, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("schema statement %d: %w", i+1, err)
			}
		}
		m.logger.Info("Schema up to date", zap.Int("statements", len(schema)))
		return nil
	})
}

// Seed inserts the seed user and habits, leaving existing rows untouched.
// A failed cache invalidation is logged, not returned.
func (m *Migrator) Seed(ctx context.Context) error {
	if err := m.seed(ctx); err != nil {
		return err
	}
	if m.cache != nil {
		if err := m.cache.Invalidate(ctx); err != nil {
			m.logger.Warn("Failed to invalidate habit cache", zap.Error(err))
		}
	}
	return nil
}

func (m *Migrator) seed(ctx context.Context) error {
	return m.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, seedUserSQL, SeedUserEmail); err != nil {
			return fmt.Errorf("seed user: %w", err)
		}

		inserted := int64(0)
		for _, h := range SeedHabits {
			res, err := tx.ExecContext(ctx, seedHabitSQL, h.HabitKey, h.Label, string(h.Frequency), h.SortOrder)
			if err != nil {
				return fmt.Errorf("seed habit %s: %w", h.HabitKey, err)
			}
			if n, err := res.RowsAffected(); err == nil {
				inserted += n
			}
		}

		m.logger.Info("Seed done",
			zap.Int("habits", len(SeedHabits)),
			zap.Int64("inserted", inserted),
		)
		return nil
	})
}

func (m *Migrator) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			m.logger.Error("Rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
