package rerank

import (
	"context"
	"fmt"
	"math"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/pipeline"
	"github.com/rushteam/roomrec/pkg/utils"
)

// Explainer 基于用户最近交互过的房间生成推荐理由。
type Explainer struct {
	// History 最多比较的历史房间数，默认 10
	History int

	// PriceDelta 判定“价格相近”的绝对差值
	PriceDelta float64
}

// NewExplainer 从推荐配置构造 Explainer。
func NewExplainer(cfg core.RecommendConfig) Explainer {
	return Explainer{History: cfg.ExplainHistory, PriceDelta: cfg.ExplainPriceDelta}
}

// Explain 为候选房间生成理由。
// 依次扫描历史房间（跳过候选自身），第一个满足任一条件的房间胜出，条件优先级：
// 同类别、价格相近、同容量。
func (e Explainer) Explain(room *core.Room, history []*core.Room) string {
	if len(history) == 0 {
		return fmt.Sprintf("Recommended based on popularity in %s category", room.Category)
	}

	limit := e.History
	if limit <= 0 {
		limit = 10
	}
	if len(history) > limit {
		history = history[:limit]
	}

	for _, past := range history {
		if past == nil || past.ID == room.ID {
			continue
		}
		if attr := e.sharedAttribute(room, past); attr != "" {
			return fmt.Sprintf("Similar to %s because of %s", past.Name, attr)
		}
	}
	return fmt.Sprintf("Recommended for you based on your interest in %s rooms", room.Category)
}

func (e Explainer) sharedAttribute(room, past *core.Room) string {
	switch {
	case past.Category == room.Category:
		return fmt.Sprintf("same category (%s)", room.Category)
	case math.Abs(past.PricePerHour-room.PricePerHour) <= e.PriceDelta:
		return "similar price range"
	case past.Capacity == room.Capacity:
		return fmt.Sprintf("same capacity (%d people)", room.Capacity)
	}
	return ""
}

// ExplainNode 为最终结果写入 reason 标签；已有理由（例如热门）的物品不覆盖。
type ExplainNode struct {
	Explainer Explainer
}

func (n *ExplainNode) Name() string        { return "rerank.explain" }
func (n *ExplainNode) Kind() pipeline.Kind { return pipeline.KindPostProcess }

func (n *ExplainNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	var history []*core.Room
	if profile := rctx.GetUserProfile(); profile.HasHistory() {
		history = profile.RecentRooms
	}

	for _, it := range items {
		if it.Room == nil || it.Label(core.LabelReason) != "" {
			continue
		}
		it.SetLabel(core.LabelReason, utils.Label{
			Value:  n.Explainer.Explain(it.Room, history),
			Source: "rerank",
		})
	}
	return items, nil
}
