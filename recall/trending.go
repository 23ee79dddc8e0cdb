package recall

import (
	"context"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/pipeline"
	"github.com/rushteam/roomrec/pkg/utils"
)

// Trending 是冷启动召回源：返回满足请求筛选条件的全部 ACTIVE 房间（按 ID 升序）。
// 热门分由 rerank.TrendingNode 基于评价与近期成交计算，不依赖任何向量。
type Trending struct {
	Catalog core.Catalog
}

func (r *Trending) Name() string        { return "recall.trending" }
func (r *Trending) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Trending) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *Trending) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	var filter core.RoomFilter
	if rctx != nil {
		filter = rctx.Filter
	}

	rooms, err := r.Catalog.ActiveRooms(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(rooms))
	for _, room := range rooms {
		it := core.NewRoomItem(room)
		it.PutLabel(core.LabelRecallSource, utils.Label{Value: "trending", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
