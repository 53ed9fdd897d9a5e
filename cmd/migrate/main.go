package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"habitgrid/internal/cache"
	"habitgrid/internal/config"
	"habitgrid/internal/migrate"
	pkgconfig "habitgrid/pkg/config"
	"habitgrid/pkg/db"
	"habitgrid/pkg/logger"
	pkgredis "habitgrid/pkg/redis"
)

func main() {
	configDir := flag.String("config-dir", "config", "directory holding base.yaml and overlays")
	env := flag.String("env", "", "config environment (default $CONFIG_ENV or local)")
	seed := flag.Bool("seed", true, "insert the seed user and habits")
	flag.Parse()

	_ = godotenv.Load()

	if *env == "" {
		*env = pkgconfig.GetConfigEnv()
	}

	log := logger.ForEnv(*env)
	defer log.Sync()

	cfg, err := config.Load(*env, *configDir)
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	pool, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer pool.Close()

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	m := migrate.New(sqlDB, log)
	if cfg.Redis.Addr != "" {
		// 重新 seed 后清掉服务端缓存的习惯列表
		rdb, err := pkgredis.Connect(ctx, cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, habit cache not invalidated", zap.Error(err))
		} else {
			defer rdb.Close()
			m.WithCache(cache.NewHabitCache(rdb, pkgredis.TTL(cfg.Redis, 10*time.Minute)))
		}
	}
	if err := m.Up(ctx); err != nil {
		log.Fatal("Migration failed", zap.Error(err))
	}
	if *seed {
		if err := m.Seed(ctx); err != nil {
			log.Fatal("Seed failed", zap.Error(err))
		}
	}
	log.Info("migrate done", zap.Bool("seeded", *seed))
}
