package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 数据库查询延迟（秒）
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation", "table"},
	)

	// 慢查询计数
	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Total number of queries slower than the configured threshold",
		},
		[]string{"sql"},
	)

	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// 状态切换计数
	StatusSetCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habit_status_set_count",
			Help: "Total number of persisted habit status changes",
		},
		[]string{"status"}, // status: ok, partial, no, cleared
	)

	// 习惯列表缓存命中
	HabitCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habit_cache_lookups_total",
			Help: "Habit list cache lookups by result",
		},
		[]string{"result"}, // result: hit, miss, error
	)
)

// RecordDBQueryDuration 记录数据库查询延迟
func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// IncrementSlowQuery 记录慢查询
func IncrementSlowQuery(sql string, duration time.Duration) {
	SlowQueryCount.WithLabelValues(sql).Inc()
	RecordDBQueryDuration("slow", "unknown", duration)
}

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementStatusSet 增加状态切换计数
func IncrementStatusSet(status string) {
	if status == "" {
		status = "cleared"
	}
	StatusSetCount.WithLabelValues(status).Inc()
}

// IncrementHabitCache 记录缓存查询结果
func IncrementHabitCache(result string) {
	HabitCacheLookups.WithLabelValues(result).Inc()
}
