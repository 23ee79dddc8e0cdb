package core

import "github.com/rushteam/roomrec/pkg/utils"

// Item.Features 中使用的特征名。
const (
	FeatureSimilarity   = "similarity"
	FeatureAvgRating    = "avg_rating"
	FeatureReviewCount  = "review_count"
	FeatureTransactions = "recent_transactions"

	// 打分分量，均已归一化到 [0,1]
	FeatureRatingScore = "score_rating"
	FeaturePopularity  = "score_popularity"
	FeaturePriceMatch  = "score_price_match"
	FeatureFreshness   = "score_freshness"
)

// Item.Labels 中使用的标签名。
const (
	LabelRecallSource = "recall_source"
	LabelReason       = "reason"
	LabelPath         = "path"
)

// Item 是推荐链路中的统一承载结构：房间、特征、分数、元信息、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策。
type Item struct {
	ID       string
	Score    float64
	Features map[string]float64
	Meta     map[string]any
	Labels   map[string]utils.Label

	// Room 为召回阶段解析出的房间记录，过滤/打分节点均依赖它
	Room *Room
}

func NewItem(id string) *Item {
	return &Item{
		ID:       id,
		Score:    0,
		Features: make(map[string]float64),
		Meta:     make(map[string]any),
		Labels:   make(map[string]utils.Label),
	}
}

// NewRoomItem 以房间记录构造 Item。
func NewRoomItem(room *Room) *Item {
	it := NewItem(room.ID)
	it.Room = room
	return it
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// SetLabel 覆盖写入 Label（用于 reason 这类只保留最终值的字段）。
func (it *Item) SetLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	it.Labels[key] = lbl
}

// Label 读取 Label 的值，不存在时返回空字符串。
func (it *Item) Label(key string) string {
	if it.Labels == nil {
		return ""
	}
	return it.Labels[key].Value
}

// Feature 读取数值特征，不存在时返回 0。
func (it *Item) Feature(key string) float64 {
	if it.Features == nil {
		return 0
	}
	return it.Features[key]
}

// SetFeature 写入数值特征。
func (it *Item) SetFeature(key string, v float64) {
	if it.Features == nil {
		it.Features = make(map[string]float64)
	}
	it.Features[key] = v
}
