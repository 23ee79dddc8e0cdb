package core

import (
	"fmt"
	"math"
	"time"
)

// ScoreWeights 是重排分数的权重，五项之和必须为 1。
type ScoreWeights struct {
	Similarity float64
	Rating     float64
	Popularity float64
	PriceMatch float64
	Freshness  float64
}

func (w ScoreWeights) Sum() float64 {
	return w.Similarity + w.Rating + w.Popularity + w.PriceMatch + w.Freshness
}

// EventWeights 是计算用户向量时各行为的权重。
// 带评分的 RATE 事件权重为 Rate + (rating - RatingPivot)。
type EventWeights struct {
	View        float64
	Click       float64
	Book        float64
	Rate        float64
	RatingPivot float64
}

// Weight 返回单条行为的权重。
func (w EventWeights) Weight(kind EventKind, rating *int) float64 {
	switch kind {
	case EventView:
		return w.View
	case EventClick:
		return w.Click
	case EventBook:
		return w.Book
	case EventRate:
		if rating != nil {
			return w.Rate + (float64(*rating) - w.RatingPivot)
		}
		return w.Rate
	}
	return w.View
}

// RecommendConfig 是推荐引擎的不可变配置，按值传入各组件。
type RecommendConfig struct {
	Weights      ScoreWeights
	EventWeights EventWeights

	// 冷启动热门分 = PopularityWeight*popularity + RatingWeight*rating
	TrendingPopularityWeight float64
	TrendingRatingWeight     float64
	TrendingWindow           time.Duration

	ColdStartThreshold int // 行为数低于该值走冷启动
	HistoryLimit       int // 计算用户向量时读取的最近行为数
	CandidatePool      int // 相似度召回的候选池大小
	DefaultLimit       int
	MaxLimit           int

	MaxRating        float64
	PriceTolerance   float64       // 价格匹配的相对容忍度（0.5 = 50%）
	FreshnessHorizon time.Duration // 新鲜度线性衰减到 0 的时长

	ExplainHistory    int     // 生成解释时扫描的历史房间数
	ExplainPriceDelta float64 // 解释中“价格相近”的绝对差值

	RegenerateConcurrency int
	MaxReportedFailures   int
}

// DefaultRecommendConfig 返回默认配置。
func DefaultRecommendConfig() RecommendConfig {
	return RecommendConfig{
		Weights: ScoreWeights{
			Similarity: 0.65,
			Rating:     0.10,
			Popularity: 0.10,
			PriceMatch: 0.10,
			Freshness:  0.05,
		},
		EventWeights: EventWeights{
			View:        1,
			Click:       2,
			Book:        5,
			Rate:        4,
			RatingPivot: 3,
		},
		TrendingPopularityWeight: 0.5,
		TrendingRatingWeight:     0.5,
		TrendingWindow:           30 * 24 * time.Hour,
		ColdStartThreshold:       3,
		HistoryLimit:             50,
		CandidatePool:            50,
		DefaultLimit:             8,
		MaxLimit:                 50,
		MaxRating:                5,
		PriceTolerance:           0.5,
		FreshnessHorizon:         365 * 24 * time.Hour,
		ExplainHistory:           10,
		ExplainPriceDelta:        5000,
		RegenerateConcurrency:    4,
		MaxReportedFailures:      10,
	}
}

// Validate 校验配置。
func (c RecommendConfig) Validate() error {
	invalid := func(msg string) error {
		return NewDomainError(ModuleRecommend, ErrorCodeInvalidInput, msg)
	}
	if math.Abs(c.Weights.Sum()-1) > 1e-9 {
		return invalid(fmt.Sprintf("score weights must sum to 1, got %.6f", c.Weights.Sum()))
	}
	if math.Abs(c.TrendingPopularityWeight+c.TrendingRatingWeight-1) > 1e-9 {
		return invalid("trending weights must sum to 1")
	}
	if c.ColdStartThreshold < 0 {
		return invalid("cold start threshold must not be negative")
	}
	if c.HistoryLimit <= 0 || c.CandidatePool <= 0 {
		return invalid("history limit and candidate pool must be positive")
	}
	if c.DefaultLimit <= 0 || c.MaxLimit < c.DefaultLimit {
		return invalid("default limit must be positive and not exceed max limit")
	}
	if c.MaxRating <= 0 || c.PriceTolerance <= 0 || c.FreshnessHorizon <= 0 {
		return invalid("max rating, price tolerance and freshness horizon must be positive")
	}
	if c.TrendingWindow <= 0 {
		return invalid("trending window must be positive")
	}
	if c.RegenerateConcurrency <= 0 {
		return invalid("regenerate concurrency must be positive")
	}
	return nil
}
