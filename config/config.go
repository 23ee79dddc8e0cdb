// Package config 分层加载运行配置：内置默认值 -> 可选 YAML 文件 -> ROOMREC_ 环境变量。
//
// 环境变量用双下划线表示层级，例如：
//
//	ROOMREC_STORE__DRIVER=postgres
//	ROOMREC_RECOMMEND__WEIGHTS__SIMILARITY=0.6
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/embedding"
	"github.com/rushteam/roomrec/logging"
)

// EnvPrefix 是环境变量前缀
const EnvPrefix = "ROOMREC_"

// DefaultConfigPaths 未显式指定配置文件时按顺序查找
var DefaultConfigPaths = []string{
	"roomrec.yaml",
	"roomrec.yml",
	"/etc/roomrec/config.yaml",
}

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config 是进程级配置。
type Config struct {
	Log       logging.Config  `koanf:"log"`
	Recommend RecommendConfig `koanf:"recommend"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Store     StoreConfig     `koanf:"store"`
	Filter    FilterConfig    `koanf:"filter"`
	Schedule  ScheduleConfig  `koanf:"schedule"`
}

type WeightsConfig struct {
	Similarity float64 `koanf:"similarity"`
	Rating     float64 `koanf:"rating"`
	Popularity float64 `koanf:"popularity"`
	PriceMatch float64 `koanf:"price_match"`
	Freshness  float64 `koanf:"freshness"`
}

type EventWeightsConfig struct {
	View        float64 `koanf:"view"`
	Click       float64 `koanf:"click"`
	Book        float64 `koanf:"book"`
	Rate        float64 `koanf:"rate"`
	RatingPivot float64 `koanf:"rating_pivot"`
}

type TrendingConfig struct {
	PopularityWeight float64       `koanf:"popularity_weight"`
	RatingWeight     float64       `koanf:"rating_weight"`
	Window           time.Duration `koanf:"window"`
}

// RecommendConfig 对应 core.RecommendConfig 的可配置部分。
type RecommendConfig struct {
	Weights      WeightsConfig      `koanf:"weights"`
	EventWeights EventWeightsConfig `koanf:"event_weights"`
	Trending     TrendingConfig     `koanf:"trending"`

	ColdStartThreshold    int           `koanf:"cold_start_threshold"`
	HistoryLimit          int           `koanf:"history_limit"`
	CandidatePool         int           `koanf:"candidate_pool"`
	DefaultLimit          int           `koanf:"default_limit"`
	MaxLimit              int           `koanf:"max_limit"`
	PriceTolerance        float64       `koanf:"price_tolerance"`
	FreshnessHorizon      time.Duration `koanf:"freshness_horizon"`
	ExplainHistory        int           `koanf:"explain_history"`
	ExplainPriceDelta     float64       `koanf:"explain_price_delta"`
	RegenerateConcurrency int           `koanf:"regenerate_concurrency"`
	MaxReportedFailures   int           `koanf:"max_reported_failures"`
}

type ResilientConfig struct {
	Enabled             bool          `koanf:"enabled"`
	RatePerSecond       float64       `koanf:"rate_per_second"`
	Burst               int           `koanf:"burst"`
	Timeout             time.Duration `koanf:"timeout"`
	ConsecutiveFailures uint32        `koanf:"consecutive_failures"`
}

// EmbeddingConfig 向量化配置；Provider 取值见 SupportedProviders。
type EmbeddingConfig struct {
	Provider          string          `koanf:"provider"`
	Model             string          `koanf:"model"`
	BaseURL           string          `koanf:"base_url"`
	APIKey            string          `koanf:"api_key"`
	Dimension         int             `koanf:"dimension"`
	RequestDimensions bool            `koanf:"request_dimensions"`
	Seed              uint64          `koanf:"seed"`
	Currency          string          `koanf:"currency"`
	VectorsPath       string          `koanf:"vectors_path"` // word2vec 词向量表（JSON）
	Resilient         ResilientConfig `koanf:"resilient"`
}

type RedisConfig struct {
	Addr   string `koanf:"addr"`
	DB     int    `koanf:"db"`
	Prefix string `koanf:"prefix"`
}

// StoreConfig 存储配置。memory 驱动从 Fixture 加载演示数据；
// Redis.Addr 非空时统计快照缓存到 Redis，否则缓存在进程内。
type StoreConfig struct {
	Driver   string        `koanf:"driver"`
	DSN      string        `koanf:"dsn"`
	Fixture  string        `koanf:"fixture"`
	StatsTTL time.Duration `koanf:"stats_ttl"`
	Redis    RedisConfig   `koanf:"redis"`
}

// FilterConfig 候选过滤表达式（CEL），为空表示不过滤。
type FilterConfig struct {
	Expr string `koanf:"expr"`
}

// ScheduleConfig 周期性重建向量的 cron 表达式。
type ScheduleConfig struct {
	Regenerate string `koanf:"regenerate"`
}

// Default 返回内置默认配置。
func Default() *Config {
	d := core.DefaultRecommendConfig()
	return &Config{
		Log: logging.Config{Level: "info", Format: "json"},
		Recommend: RecommendConfig{
			Weights: WeightsConfig{
				Similarity: d.Weights.Similarity,
				Rating:     d.Weights.Rating,
				Popularity: d.Weights.Popularity,
				PriceMatch: d.Weights.PriceMatch,
				Freshness:  d.Weights.Freshness,
			},
			EventWeights: EventWeightsConfig{
				View:        d.EventWeights.View,
				Click:       d.EventWeights.Click,
				Book:        d.EventWeights.Book,
				Rate:        d.EventWeights.Rate,
				RatingPivot: d.EventWeights.RatingPivot,
			},
			Trending: TrendingConfig{
				PopularityWeight: d.TrendingPopularityWeight,
				RatingWeight:     d.TrendingRatingWeight,
				Window:           d.TrendingWindow,
			},
			ColdStartThreshold:    d.ColdStartThreshold,
			HistoryLimit:          d.HistoryLimit,
			CandidatePool:         d.CandidatePool,
			DefaultLimit:          d.DefaultLimit,
			MaxLimit:              d.MaxLimit,
			PriceTolerance:        d.PriceTolerance,
			FreshnessHorizon:      d.FreshnessHorizon,
			ExplainHistory:        d.ExplainHistory,
			ExplainPriceDelta:     d.ExplainPriceDelta,
			RegenerateConcurrency: d.RegenerateConcurrency,
			MaxReportedFailures:   d.MaxReportedFailures,
		},
		Embedding: EmbeddingConfig{
			Provider:  ProviderHash,
			Dimension: core.DefaultEmbeddingDimension,
			Seed:      42,
			Currency:  embedding.DefaultCurrency,
			Resilient: ResilientConfig{
				Enabled:             true,
				RatePerSecond:       10,
				Burst:               5,
				Timeout:             30 * time.Second,
				ConsecutiveFailures: 5,
			},
		},
		Store: StoreConfig{
			Driver:   DriverMemory,
			Fixture:  "fixtures/demo.yaml",
			StatsTTL: time.Minute,
			Redis:    RedisConfig{Prefix: "roomrec:"},
		},
		Schedule: ScheduleConfig{Regenerate: "0 3 * * *"},
	}
}

// Load 依次叠加默认值、配置文件与环境变量并校验。
// path 为空时在 DefaultConfigPaths 中查找，找不到则只用默认值与环境变量。
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// envKey: ROOMREC_STORE__REDIS__ADDR -> store.redis.addr
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func findConfigFile() string {
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Validate 校验配置，错误码为 INVALID_INPUT。
func (c *Config) Validate() error {
	if err := c.ToRecommendConfig().Validate(); err != nil {
		return err
	}
	invalid := func(msg string) error {
		return core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput, msg)
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Store.DSN == "" {
			return invalid("store.dsn is required for the postgres driver")
		}
	default:
		return invalid(fmt.Sprintf("unknown store driver %q (supported: memory, postgres)", c.Store.Driver))
	}
	if c.Store.StatsTTL < 0 {
		return invalid("store.stats_ttl must not be negative")
	}

	if !HasProvider(c.Embedding.Provider) {
		return invalid(fmt.Sprintf("unknown embedding provider %q (supported: %v)", c.Embedding.Provider, SupportedProviders()))
	}
	if c.Embedding.Dimension <= 0 {
		return invalid("embedding.dimension must be positive")
	}
	return nil
}

// ToRecommendConfig 转换为引擎使用的不可变配置。
func (c *Config) ToRecommendConfig() core.RecommendConfig {
	r := c.Recommend
	out := core.DefaultRecommendConfig()
	out.Weights = core.ScoreWeights{
		Similarity: r.Weights.Similarity,
		Rating:     r.Weights.Rating,
		Popularity: r.Weights.Popularity,
		PriceMatch: r.Weights.PriceMatch,
		Freshness:  r.Weights.Freshness,
	}
	out.EventWeights = core.EventWeights{
		View:        r.EventWeights.View,
		Click:       r.EventWeights.Click,
		Book:        r.EventWeights.Book,
		Rate:        r.EventWeights.Rate,
		RatingPivot: r.EventWeights.RatingPivot,
	}
	out.TrendingPopularityWeight = r.Trending.PopularityWeight
	out.TrendingRatingWeight = r.Trending.RatingWeight
	out.TrendingWindow = r.Trending.Window
	out.ColdStartThreshold = r.ColdStartThreshold
	out.HistoryLimit = r.HistoryLimit
	out.CandidatePool = r.CandidatePool
	out.DefaultLimit = r.DefaultLimit
	out.MaxLimit = r.MaxLimit
	out.PriceTolerance = r.PriceTolerance
	out.FreshnessHorizon = r.FreshnessHorizon
	out.ExplainHistory = r.ExplainHistory
	out.ExplainPriceDelta = r.ExplainPriceDelta
	out.RegenerateConcurrency = r.RegenerateConcurrency
	out.MaxReportedFailures = r.MaxReportedFailures
	return out
}
