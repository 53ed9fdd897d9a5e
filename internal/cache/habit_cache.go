package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"habitgrid/internal/model"
	"habitgrid/pkg/circuitbreaker"
)

const activeHabitsKey = "habitgrid:habits:active"

// HabitCache stores the active habit list in Redis. Habits are seeded once,
// so the TTL only bounds staleness after a manual reseed.
type HabitCache struct {
	rdb     redis.Cmdable
	ttl     time.Duration
	breaker *circuitbreaker.Breaker
}

func NewHabitCache(rdb redis.Cmdable, ttl time.Duration) *HabitCache {
	return &HabitCache{rdb: rdb, ttl: ttl}
}

// WithBreaker guards every Redis call. While the breaker is open calls fail
// with circuitbreaker.ErrOpen without touching Redis.
func (c *HabitCache) WithBreaker(b *circuitbreaker.Breaker) *HabitCache {
	c.breaker = b
	return c
}

func (c *HabitCache) guard(fn func() error) error {
	if c.breaker == nil {
		return fn()
	}
	return c.breaker.Do(fn)
}

// GetActive returns the cached list. ok is false on a miss.
func (c *HabitCache) GetActive(ctx context.Context) (habits []model.Habit, ok bool, err error) {
	var raw []byte
	err = c.guard(func() error {
		var gerr error
		raw, gerr = c.rdb.Get(ctx, activeHabitsKey).Bytes()
		if errors.Is(gerr, redis.Nil) {
			return nil
		}
		return gerr
	})
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", activeHabitsKey, err)
	}
	if raw == nil {
		return nil, false, nil
	}

	if err := json.Unmarshal(raw, &habits); err != nil {
		return nil, false, fmt.Errorf("decode cached habits: %w", err)
	}
	return habits, true, nil
}

func (c *HabitCache) SetActive(ctx context.Context, habits []model.Habit) error {
	raw, err := json.Marshal(habits)
	if err != nil {
		return fmt.Errorf("encode habits: %w", err)
	}
	err = c.guard(func() error {
		return c.rdb.Set(ctx, activeHabitsKey, raw, c.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("redis set %s: %w", activeHabitsKey, err)
	}
	return nil
}

// Invalidate drops the cached list.
func (c *HabitCache) Invalidate(ctx context.Context) error {
	return c.guard(func() error {
		return c.rdb.Del(ctx, activeHabitsKey).Err()
	})
}
