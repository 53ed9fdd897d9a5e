package logger

import (
	"context"

	"go.uber.org/zap"

	"habitgrid/pkg/trace"
)

var Log *zap.Logger

func NewLogger() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	Log = l
	return l
}

// NewDevelopment 本地调试使用（彩色输出，Debug 级别）
func NewDevelopment() *zap.Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	Log = l
	return l
}

// ForEnv picks the development logger for the local config environment.
func ForEnv(env string) *zap.Logger {
	if env == "local" {
		return NewDevelopment()
	}
	return NewLogger()
}

// WithTrace 从 context 中提取 trace_id 并添加到 logger
func WithTrace(ctx context.Context, logger *zap.Logger) *zap.Logger {
	traceID := trace.FromContext(ctx)
	if traceID != "" {
		return logger.With(zap.String("trace_id", traceID))
	}
	return logger
}
