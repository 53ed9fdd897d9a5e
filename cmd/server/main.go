package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"habitgrid/internal/cache"
	"habitgrid/internal/config"
	"habitgrid/internal/handler"
	"habitgrid/internal/httpserver"
	"habitgrid/internal/repository"
	"habitgrid/internal/service/habit"
	"habitgrid/pkg/circuitbreaker"
	pkgconfig "habitgrid/pkg/config"
	"habitgrid/pkg/db"
	"habitgrid/pkg/logger"
	pkgredis "habitgrid/pkg/redis"
)

func main() {
	configDir := flag.String("config-dir", "config", "directory holding base.yaml and overlays")
	env := flag.String("env", "", "config environment (default $CONFIG_ENV or local)")
	flag.Parse()

	// .env 可选
	_ = godotenv.Load()

	if *env == "" {
		*env = pkgconfig.GetConfigEnv()
	}

	log := logger.ForEnv(*env)
	defer log.Sync()

	// 1. Load config
	cfg, err := config.Load(*env, *configDir)
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}
	loc, _ := cfg.Location()

	log.Info("Starting habitgrid server...",
		zap.String("env", *env),
		zap.String("db_host", cfg.DB.Host),
		zap.Int("db_port", cfg.DB.Port),
		zap.Bool("auth_enabled", cfg.Auth.Enabled()),
		zap.Bool("cache_enabled", cfg.Redis.Addr != ""),
	)

	// 2. Init DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	userID, err := resolveUserID(context.Background(), cfg, dbConn)
	if err != nil {
		log.Fatal("Failed to resolve user", zap.String("email", cfg.App.UserEmail), zap.Error(err))
	}

	// 3. Init repositories
	habitRepo := repository.NewHabitRepository(dbConn, log)
	logRepo := repository.NewLogRepository(dbConn, log)

	// 4. Init service
	opts := []habit.Option{habit.WithLocation(loc)}
	if cfg.Redis.Addr != "" {
		rdb, err := pkgredis.Connect(context.Background(), cfg.Redis)
		if err != nil {
			// 缓存不可用不影响启动
			log.Warn("Redis unavailable, habit cache disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			habitCache := cache.NewHabitCache(rdb, pkgredis.TTL(cfg.Redis, 10*time.Minute)).
				WithBreaker(circuitbreaker.New(circuitbreaker.DefaultConfig(), nil))
			opts = append(opts, habit.WithCache(habitCache))
		}
	}
	habitService := habit.NewService(habitRepo, logRepo, userID, log, opts...)

	// 5. Init handlers + router
	habitHandler := handler.NewHabitHandler(habitService, log)
	router := httpserver.NewRouter(habitHandler, cfg.Auth, log, dbConn)

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Server.Port), zap.Int64("user_id", userID))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 优雅退出处理
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down HTTP server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	log.Info("habitgrid server shutdown complete")
}

// resolveUserID returns app.user_id, or looks up app.user_email when it is unset.
func resolveUserID(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (int64, error) {
	if cfg.App.UserID > 0 {
		return int64(cfg.App.UserID), nil
	}
	u, err := repository.NewUserRepository(pool).FindByEmail(ctx, cfg.App.UserEmail)
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}
