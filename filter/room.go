package filter

import (
	"context"

	"github.com/rushteam/roomrec/core"
)

// ActiveFilter 过滤掉未解析到房间或房间不是 ACTIVE 的候选。
type ActiveFilter struct{}

func (f *ActiveFilter) Name() string { return "filter.active" }

func (f *ActiveFilter) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	return item.Room == nil || !item.Room.IsActive(), nil
}

// RoomFilter 按请求的筛选条件（类别、最小容量、最高价格）过滤。
type RoomFilter struct{}

func (f *RoomFilter) Name() string { return "filter.room" }

func (f *RoomFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if rctx == nil || rctx.Filter.IsZero() {
		return false, nil
	}
	return !rctx.Filter.Match(item.Room), nil
}
