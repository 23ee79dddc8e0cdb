package embedding

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/metrics"
)

// ResilientConfig 熔断与限流配置。
type ResilientConfig struct {
	// RatePerSecond <= 0 表示不限流
	RatePerSecond float64
	Burst         int

	// 半开状态允许的探测请求数
	MaxRequests uint32
	// 关闭状态下计数清零周期
	Interval time.Duration
	// 打开状态持续时间
	Timeout time.Duration
	// 连续失败多少次后打开
	ConsecutiveFailures uint32
}

func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		RatePerSecond:       10,
		Burst:               5,
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// ResilientProvider 为任意 EmbeddingProvider 增加熔断与限流。
// 无效输入不计入熔断失败；熔断打开时返回 UNAVAILABLE。
type ResilientProvider struct {
	inner   core.EmbeddingProvider
	cb      *gobreaker.CircuitBreaker[[]float64]
	limiter *rate.Limiter
	logger  zerolog.Logger
}

func NewResilientProvider(inner core.EmbeddingProvider, cfg ResilientConfig, logger zerolog.Logger) *ResilientProvider {
	name := "embedding-" + inner.Name()
	logger = logger.With().Str("component", "embedding").Str("provider", inner.Name()).Logger()

	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]float64](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || core.IsInvalidInput(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("embedding circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	return &ResilientProvider{
		inner:   inner,
		cb:      cb,
		limiter: limiter,
		logger:  logger,
	}
}

func (p *ResilientProvider) Name() string   { return p.inner.Name() }
func (p *ResilientProvider) Dimension() int { return p.inner.Dimension() }

// State 返回当前熔断状态
func (p *ResilientProvider) State() gobreaker.State { return p.cb.State() }

func (p *ResilientProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, core.WrapDomainError(core.ModuleEmbedding, core.ErrorCodeUnavailable, "embedding rate limiter", err)
		}
	}

	start := time.Now()
	vec, err := p.cb.Execute(func() ([]float64, error) {
		return p.inner.Embed(ctx, text)
	})
	metrics.ObserveEmbedding(p.inner.Name(), start, err)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, core.WrapDomainError(core.ModuleEmbedding, core.ErrorCodeUnavailable, "embedding provider circuit open", err)
		}
		if core.IsDomainError(err) {
			return nil, err
		}
		return nil, core.WrapDomainError(core.ModuleEmbedding, core.ErrorCodeUnavailable, "embedding provider failed", err)
	}
	return vec, nil
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

var _ core.EmbeddingProvider = (*ResilientProvider)(nil)
