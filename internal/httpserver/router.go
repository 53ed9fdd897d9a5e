package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"habitgrid/internal/handler"
	"habitgrid/pkg/config"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	habitHandler *handler.HabitHandler,
	authCfg config.AuthConfig,
	logger *zap.Logger,
	db Pinger,
) *Router {
	r := gin.New()
	r.Use(gin.Recovery(), TraceMiddleware(), RequestLogger(logger))

	// Health endpoints (放在最前面)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected
	api := r.Group("/api")
	api.Use(BasicAuthMiddleware(authCfg, logger))
	{
		api.GET("/habits", habitHandler.ListHabits)
		api.GET("/logs", habitHandler.ListLogs)
		api.POST("/logs", habitHandler.SetLog)
		api.GET("/window", habitHandler.Window)
	}

	return &Router{Engine: r}
}

func (r *Router) Handler() http.Handler {
	return r.Engine
}
