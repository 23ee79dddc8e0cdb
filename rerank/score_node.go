package rerank

import (
	"context"
	"sort"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/pipeline"
)

// ScoreNode 对相似度召回的候选做多信号重排。
// 依赖 recall.ANN 写入的相似度与 feature.EnrichNode 写入的统计特征；
// 人气分母取本批候选中的最大近期成交数。
// 排序为稳定排序：分数相同保持召回顺序。
type ScoreNode struct {
	Scorer Scorer
}

func (n *ScoreNode) Name() string        { return "rerank.score" }
func (n *ScoreNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *ScoreNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	maxTx := 0
	for _, it := range items {
		if c := int(it.Feature(core.FeatureTransactions)); c > maxTx {
			maxTx = c
		}
	}

	var userAvg *float64
	if profile := rctx.GetUserProfile(); profile != nil {
		userAvg = profile.AvgPrice
	}
	now := rctx.Clock()

	for _, it := range items {
		sig := Signals{
			Similarity:   it.Feature(core.FeatureSimilarity),
			AvgRating:    it.Feature(core.FeatureAvgRating),
			Transactions: int(it.Feature(core.FeatureTransactions)),
			MaxTx:        maxTx,
			UserAvgPrice: userAvg,
			Now:          now,
		}
		if it.Room != nil {
			sig.Price = it.Room.PricePerHour
			sig.CreatedAt = it.Room.CreatedAt
		}
		score, b := n.Scorer.Score(sig)
		it.Score = score
		putBreakdown(it, b)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	return items, nil
}

func putBreakdown(it *core.Item, b core.ScoreBreakdown) {
	it.SetFeature(core.FeatureSimilarity, b.Similarity)
	it.SetFeature(core.FeatureRatingScore, b.Rating)
	it.SetFeature(core.FeaturePopularity, b.Popularity)
	it.SetFeature(core.FeaturePriceMatch, b.PriceMatch)
	it.SetFeature(core.FeatureFreshness, b.Freshness)
}

// BreakdownOf 从 Item 特征还原打分分量。
func BreakdownOf(it *core.Item) core.ScoreBreakdown {
	return core.ScoreBreakdown{
		Similarity: it.Feature(core.FeatureSimilarity),
		Rating:     it.Feature(core.FeatureRatingScore),
		Popularity: it.Feature(core.FeaturePopularity),
		PriceMatch: it.Feature(core.FeaturePriceMatch),
		Freshness:  it.Feature(core.FeatureFreshness),
	}
}
