package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"habitgrid/pkg/config"
)

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Connect 创建客户端并检查连通性
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := NewRedisClient(cfg)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// TTL parses cfg.TTL, falling back to def when empty or malformed.
func TTL(cfg config.RedisConfig, def time.Duration) time.Duration {
	if cfg.TTL == "" {
		return def
	}
	d, err := time.ParseDuration(cfg.TTL)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
