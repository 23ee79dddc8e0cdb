// Package engine 是推荐核心的编排入口：记录行为、生成推荐、重建房间向量。
//
// 推荐请求的状态机：
//
//	匿名 / 行为数不足                     -> TRENDING
//	有行为 -> 计算用户向量 -> 无信号      -> TRENDING
//	                    -> 有向量        -> 相似度召回 -> 可用性过滤 -> 多信号重排
package engine

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/embedding"
	"github.com/rushteam/roomrec/feature"
	"github.com/rushteam/roomrec/filter"
	"github.com/rushteam/roomrec/logging"
	"github.com/rushteam/roomrec/recall"
)

// Deps 是引擎依赖的协作方。
type Deps struct {
	Catalog      core.Catalog
	Events       core.EventStore
	Embeddings   core.EmbeddingStore
	Stats        core.StatsSource
	Reservations core.ReservationChecker

	// Index 用于相似度召回；若同时实现 core.VectorDatabaseService，重建向量后会同步写入
	Index core.VectorService

	// Provider 用于重建房间向量
	Provider core.EmbeddingProvider

	// StatsService 可选；为空时直接读取 Stats（不缓存）
	StatsService *feature.StatsService

	// Filters 是额外的候选过滤器（例如 CEL 表达式），两条路径都会应用
	Filters []filter.Filter
}

// Engine 是推荐引擎，可并发使用，不持有请求级可变状态。
type Engine struct {
	deps     Deps
	cfg      core.RecommendConfig
	stats    *feature.StatsService
	vectors  *recall.UserVectorBuilder
	profiles *embedding.ProfileBuilder
	now      func() time.Time
	log      zerolog.Logger

	// indexMu 串行化召回索引集合的惰性创建
	indexMu sync.Mutex
}

// Option 配置 Engine
type Option func(*Engine)

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithClock 替换时钟（测试用）
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithProfileBuilder 替换房间画像生成器
func WithProfileBuilder(b *embedding.ProfileBuilder) Option {
	return func(e *Engine) {
		e.profiles = b
	}
}

// New 创建推荐引擎，配置非法或缺少必要协作方时返回 INVALID_INPUT。
func New(deps Deps, cfg core.RecommendConfig, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Catalog == nil || deps.Events == nil || deps.Embeddings == nil || deps.Stats == nil ||
		deps.Reservations == nil || deps.Index == nil {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput,
			"catalog, events, embeddings, stats, reservations and index are required")
	}

	e := &Engine{
		deps:     deps,
		cfg:      cfg,
		profiles: embedding.NewProfileBuilder(embedding.DefaultCurrency),
		now:      time.Now,
		log:      logging.WithComponent("recommend"),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.stats = deps.StatsService
	if e.stats == nil {
		e.stats = feature.NewStatsService(deps.Stats,
			feature.WithWindow(cfg.TrendingWindow),
			feature.WithClock(e.now),
			feature.WithLogger(e.log),
		)
	}
	e.vectors = &recall.UserVectorBuilder{
		Events:       deps.Events,
		Embeddings:   deps.Embeddings,
		Weights:      cfg.EventWeights,
		HistoryLimit: cfg.HistoryLimit,
	}
	return e, nil
}

// Config 返回引擎使用的配置副本
func (e *Engine) Config() core.RecommendConfig { return e.cfg }
