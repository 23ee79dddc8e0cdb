package rerank

import (
	"context"
	"sort"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/pipeline"
	"github.com/rushteam/roomrec/pkg/utils"
)

// TrendingReason 是冷启动结果的推荐理由
const TrendingReason = "Trending room: Popular choice with high ratings"

// TrendingNode 计算冷启动热门分：PopularityWeight*popularity + RatingWeight*rating。
// popularity 的分母是全部房间中的最大近期成交数，不限于本批候选。
type TrendingNode struct {
	PopularityWeight float64
	RatingWeight     float64
	MaxRating        float64
}

// NewTrendingNode 从推荐配置构造 TrendingNode。
func NewTrendingNode(cfg core.RecommendConfig) *TrendingNode {
	return &TrendingNode{
		PopularityWeight: cfg.TrendingPopularityWeight,
		RatingWeight:     cfg.TrendingRatingWeight,
		MaxRating:        cfg.MaxRating,
	}
}

func (n *TrendingNode) Name() string        { return "rerank.trending" }
func (n *TrendingNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *TrendingNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	var stats *core.AggregateStats
	if rctx != nil {
		stats = rctx.Stats
	}
	maxTx := stats.MaxRecentTransactions()
	scorer := Scorer{MaxRating: n.MaxRating}

	for _, it := range items {
		popularity := PopularityScore(int(it.Feature(core.FeatureTransactions)), maxTx)
		rating := scorer.RatingScore(it.Feature(core.FeatureAvgRating))
		it.Score = n.PopularityWeight*popularity + n.RatingWeight*rating
		it.SetFeature(core.FeatureSimilarity, 0)
		it.SetFeature(core.FeaturePopularity, popularity)
		it.SetFeature(core.FeatureRatingScore, rating)
		it.SetLabel(core.LabelReason, utils.Label{Value: TrendingReason, Source: "rerank"})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	return items, nil
}
