package feature

import (
	"context"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/pipeline"
)

// EnrichNode 把请求统计快照中的评价与成交数注入到 Item.Features。
// 下游的 TrendingNode 与 ScoreNode 只读取特征，不直接访问统计源。
type EnrichNode struct{}

func (n *EnrichNode) Name() string {
	return "feature.enrich"
}

func (n *EnrichNode) Kind() pipeline.Kind {
	return pipeline.KindRank
}

func (n *EnrichNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	var stats *core.AggregateStats
	if rctx != nil {
		stats = rctx.Stats
	}

	for _, item := range items {
		if item == nil {
			continue
		}
		if st, ok := stats.Rating(item.ID); ok {
			item.SetFeature(core.FeatureAvgRating, st.AvgRating)
			item.SetFeature(core.FeatureReviewCount, float64(st.ReviewCount))
		}
		item.SetFeature(core.FeatureTransactions, float64(stats.Transactions(item.ID)))
	}
	return items, nil
}
