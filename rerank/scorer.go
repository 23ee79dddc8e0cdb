package rerank

import (
	"math"
	"time"

	"github.com/rushteam/roomrec/core"
)

// Scorer 计算重排分数：五个归一化分量的加权和。
// 配置按值持有，不依赖任何全局状态。
type Scorer struct {
	Weights          core.ScoreWeights
	MaxRating        float64
	PriceTolerance   float64
	FreshnessHorizon time.Duration
}

// NewScorer 从推荐配置构造 Scorer。
func NewScorer(cfg core.RecommendConfig) Scorer {
	return Scorer{
		Weights:          cfg.Weights,
		MaxRating:        cfg.MaxRating,
		PriceTolerance:   cfg.PriceTolerance,
		FreshnessHorizon: cfg.FreshnessHorizon,
	}
}

// Signals 是单个候选的打分输入。
type Signals struct {
	Similarity   float64
	AvgRating    float64 // 无评价时为 0
	Transactions int
	MaxTx        int // 候选池内的最大近期成交数
	Price        float64
	UserAvgPrice *float64
	CreatedAt    time.Time
	Now          time.Time
}

// RatingScore = avg / MaxRating，无评价为 0。
func (s Scorer) RatingScore(avg float64) float64 {
	if avg <= 0 || s.MaxRating <= 0 {
		return 0
	}
	return avg / s.MaxRating
}

// PopularityScore = count / max，max 为 0 时为 0。
func PopularityScore(count, maxCount int) float64 {
	if maxCount <= 0 {
		return 0
	}
	return float64(count) / float64(maxCount)
}

// PriceMatch 在价格等于用户平均价格时为 1，偏离达到 PriceTolerance 比例时线性降到 0。
// 没有价格偏好时为 1。
func (s Scorer) PriceMatch(price float64, userAvg *float64) float64 {
	if userAvg == nil {
		return 1
	}
	maxDiff := *userAvg * s.PriceTolerance
	if maxDiff <= 0 {
		return 1
	}
	return math.Max(0, 1-math.Abs(price-*userAvg)/maxDiff)
}

// Freshness 按创建天数（向下取整）在 FreshnessHorizon 内线性衰减到 0；未来时间按 0 天计。
func (s Scorer) Freshness(createdAt, now time.Time) float64 {
	if createdAt.IsZero() {
		return 0
	}
	day := 24 * time.Hour
	days := math.Floor(float64(now.Sub(createdAt)) / float64(day))
	if days < 0 {
		days = 0
	}
	horizon := float64(s.FreshnessHorizon) / float64(day)
	if horizon <= 0 {
		return 0
	}
	return math.Max(0, 1-days/horizon)
}

// Breakdown 计算五个分量。
func (s Scorer) Breakdown(sig Signals) core.ScoreBreakdown {
	return core.ScoreBreakdown{
		Similarity: sig.Similarity,
		Rating:     s.RatingScore(sig.AvgRating),
		Popularity: PopularityScore(sig.Transactions, sig.MaxTx),
		PriceMatch: s.PriceMatch(sig.Price, sig.UserAvgPrice),
		Freshness:  s.Freshness(sig.CreatedAt, sig.Now),
	}
}

// Combine 按权重合成最终分数。
func (s Scorer) Combine(b core.ScoreBreakdown) float64 {
	w := s.Weights
	return w.Similarity*b.Similarity +
		w.Rating*b.Rating +
		w.Popularity*b.Popularity +
		w.PriceMatch*b.PriceMatch +
		w.Freshness*b.Freshness
}

// Score 返回最终分数及分量。
func (s Scorer) Score(sig Signals) (float64, core.ScoreBreakdown) {
	b := s.Breakdown(sig)
	return s.Combine(b), b
}
