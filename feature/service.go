// Package feature 提供推荐打分使用的统计特征：评价聚合与近期成交数。
package feature

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/logging"
	"github.com/rushteam/roomrec/metrics"
)

// StatsCacheKey 是统计快照在 core.Store 中的 key
const StatsCacheKey = "stats:snapshot"

// StatsService 读取聚合统计，并可选地把快照缓存到 core.Store（内存或 Redis）。
// 统计只随预约/评价缓慢变化，短 TTL 的快照足以支撑高频推荐请求。
type StatsService struct {
	source   core.StatsSource
	cache    core.Store
	cacheTTL time.Duration
	window   time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// ServiceOption 是统计服务的配置选项，采用函数式选项模式。
type ServiceOption func(*StatsService)

// WithCache 启用快照缓存
func WithCache(cache core.Store, ttl time.Duration) ServiceOption {
	return func(s *StatsService) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// WithWindow 设置近期成交的统计窗口
func WithWindow(window time.Duration) ServiceOption {
	return func(s *StatsService) {
		s.window = window
	}
}

// WithClock 替换时钟（测试用）
func WithClock(now func() time.Time) ServiceOption {
	return func(s *StatsService) {
		s.now = now
	}
}

func WithLogger(l zerolog.Logger) ServiceOption {
	return func(s *StatsService) {
		s.log = l
	}
}

// NewStatsService 创建统计服务
func NewStatsService(source core.StatsSource, opts ...ServiceOption) *StatsService {
	s := &StatsService{
		source:   source,
		cacheTTL: time.Minute,
		window:   30 * 24 * time.Hour,
		now:      time.Now,
		log:      logging.WithComponent("feature.stats"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *StatsService) Name() string { return "feature.stats" }

// Snapshot 返回当前统计快照。
// 缓存读写失败只记录日志，不影响结果。
func (s *StatsService) Snapshot(ctx context.Context) (*core.AggregateStats, error) {
	if s.cache != nil {
		if snap, ok := s.fromCache(ctx); ok {
			metrics.StatsCacheRequests.WithLabelValues("hit").Inc()
			return snap, nil
		}
	}

	ratings, err := s.source.RatingStats(ctx)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleFeature, core.ErrorCodeUnavailable, "load rating stats", err)
	}
	counts, err := s.source.RecentTransactionCounts(ctx, s.now().Add(-s.window))
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleFeature, core.ErrorCodeUnavailable, "load transaction counts", err)
	}
	snap := &core.AggregateStats{Ratings: ratings, RecentTransactions: counts}

	if s.cache != nil {
		s.toCache(ctx, snap)
	}
	return snap, nil
}

// Invalidate 删除缓存的快照，新预约/评价写入后调用。
func (s *StatsService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, StatsCacheKey)
}

func (s *StatsService) fromCache(ctx context.Context) (*core.AggregateStats, bool) {
	data, err := s.cache.Get(ctx, StatsCacheKey)
	if err != nil {
		if !core.IsStoreNotFound(err) {
			metrics.StatsCacheRequests.WithLabelValues("error").Inc()
			s.log.Warn().Err(err).Str("store", s.cache.Name()).Msg("stats cache read failed")
		} else {
			metrics.StatsCacheRequests.WithLabelValues("miss").Inc()
		}
		return nil, false
	}
	var snap core.AggregateStats
	if err := json.Unmarshal(data, &snap); err != nil {
		metrics.StatsCacheRequests.WithLabelValues("error").Inc()
		s.log.Warn().Err(err).Msg("stats cache entry corrupted")
		return nil, false
	}
	return &snap, true
}

func (s *StatsService) toCache(ctx context.Context, snap *core.AggregateStats) {
	data, err := json.Marshal(snap)
	if err != nil {
		s.log.Warn().Err(err).Msg("encode stats snapshot")
		return
	}
	if err := s.cache.Set(ctx, StatsCacheKey, data, int(s.cacheTTL/time.Second)); err != nil {
		s.log.Warn().Err(err).Str("store", s.cache.Name()).Msg("stats cache write failed")
	}
}
