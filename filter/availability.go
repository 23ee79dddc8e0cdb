package filter

import (
	"context"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/pipeline"
	"github.com/rushteam/roomrec/pkg/utils"
)

// AvailabilityNode 剔除在请求时间窗口内存在 CONFIRMED 预约的房间。
// 区间按左闭右开处理：[s1,e1) 与 [s2,e2) 重叠当且仅当 s1 < e2 且 e1 > s2，首尾相接不算冲突。
// 请求没有完整时间窗口时原样透传；有窗口但未配置 Checker 时返回 INVALID_INPUT。
//
// 与逐个判断的 Filter 不同，它对整批候选只发起一次冲突查询。
type AvailabilityNode struct {
	Checker core.ReservationChecker
}

func (n *AvailabilityNode) Name() string        { return "filter.availability" }
func (n *AvailabilityNode) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *AvailabilityNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if rctx == nil || rctx.Window == nil || len(items) == 0 {
		return items, nil
	}
	if n.Checker == nil {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput,
			"availability window given but no reservation checker configured")
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	conflicts, err := n.Checker.ConflictingRooms(ctx, ids, rctx.Window.Start, rctx.Window.End)
	if err != nil {
		return nil, err
	}
	if len(conflicts) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if _, busy := conflicts[it.ID]; busy {
			it.PutLabel("filtered", utils.Label{Value: "true", Source: n.Name()})
			continue
		}
		out = append(out, it)
	}
	return out, nil
}
