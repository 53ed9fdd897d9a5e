// Package circuitbreaker 保护可选依赖（Redis 缓存），在其不可用时快速失败，
// 让调用方直接回退到主存储。
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen 熔断器打开时返回
var ErrOpen = errors.New("circuit breaker is open")

// State 熔断器状态
type State int

const (
	StateClosed   State = iota // 正常放行
	StateOpen                  // 直接拒绝
	StateHalfOpen              // 试探恢复
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Config 熔断器配置
type Config struct {
	FailureThreshold    int           // 连续失败多少次后打开
	SuccessThreshold    int           // 半开状态下成功多少次后关闭
	Cooldown            time.Duration // 打开多久后进入半开
	HalfOpenMaxRequests int           // 半开状态下同时允许的请求数
}

// DefaultConfig 缓存场景的默认值
func DefaultConfig() Config {
	return Config{
		FailureThreshold:    3,
		SuccessThreshold:    1,
		Cooldown:            30 * time.Second,
		HalfOpenMaxRequests: 1,
	}
}

type Breaker struct {
	cfg Config
	now func() time.Time

	mu        sync.Mutex
	state     State
	gen       uint64 // 每次状态切换加一，旧状态下放行的调用结果被忽略
	failures  int
	successes int
	inFlight  int
	changedAt time.Time
}

// New 创建熔断器；now 为 nil 时使用 time.Now
func New(cfg Config, now func() time.Time) *Breaker {
	if now == nil {
		now = time.Now
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 1
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 1
	}
	if cfg.HalfOpenMaxRequests <= 0 {
		cfg.HalfOpenMaxRequests = 1
	}
	return &Breaker{cfg: cfg, now: now, state: StateClosed, changedAt: now()}
}

// Do 在熔断保护下执行 fn。熔断打开时不调用 fn，返回 ErrOpen。
func (b *Breaker) Do(fn func() error) error {
	gen, ok := b.admit()
	if !ok {
		return ErrOpen
	}

	err := fn()
	b.record(gen, err)
	return err
}

func (b *Breaker) admit() (uint64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && b.now().Sub(b.changedAt) >= b.cfg.Cooldown {
		b.transition(StateHalfOpen)
	}

	switch b.state {
	case StateOpen:
		return b.gen, false
	case StateHalfOpen:
		if b.inFlight >= b.cfg.HalfOpenMaxRequests {
			return b.gen, false
		}
		b.inFlight++
	}
	return b.gen, true
}

func (b *Breaker) record(gen uint64, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if gen != b.gen {
		return
	}

	if b.state == StateHalfOpen {
		b.inFlight--
		if err != nil {
			// 半开试探失败，重新打开
			b.transition(StateOpen)
			return
		}
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.transition(StateClosed)
		}
		return
	}

	if err == nil {
		b.failures = 0
		return
	}
	b.failures++
	if b.state == StateClosed && b.failures >= b.cfg.FailureThreshold {
		b.transition(StateOpen)
	}
}

func (b *Breaker) transition(to State) {
	b.state = to
	b.gen++
	b.failures = 0
	b.successes = 0
	b.inFlight = 0
	b.changedAt = b.now()
}

// State 当前状态（会先处理冷却到期）
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.changedAt) >= b.cfg.Cooldown {
		b.transition(StateHalfOpen)
	}
	return b.state
}

// Reset 回到关闭状态
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transition(StateClosed)
}
