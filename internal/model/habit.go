package model

import "time"

// Frequency is how often a habit is tracked.
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// Habit is seeded once and read-only afterwards.
type Habit struct {
	ID        int64     `json:"id"`
	HabitKey  string    `json:"habitKey"`
	Label     string    `json:"label"`
	Frequency Frequency `json:"frequency"`
	SortOrder int       `json:"sortOrder"`
	Active    bool      `json:"active"`
}

// LogEntry records the status of one habit on one date for one user.
// At most one entry exists per (UserID, HabitID, LogDate).
type LogEntry struct {
	UserID    int64
	HabitID   int64
	LogDate   time.Time
	Status    Status
	Note      *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type User struct {
	ID        int64
	Email     string
	CreatedAt time.Time
}
