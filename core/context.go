package core

import (
	"time"

	"github.com/rushteam/roomrec/pkg/utils"
)

// RecommendContext 承载用户/场景/请求信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string // 为空表示匿名请求

	// Window 为可选的预约时间窗口；为空时不做可用性过滤
	Window *TimeWindow

	// Filter 为请求级房间筛选条件（类别、容量、价格）
	Filter RoomFilter

	// User 是本次请求构建的用户画像（冷启动路径下可能为空）
	User *UserProfile

	// Stats 是本次请求使用的统计快照（评价 + 近期成交）
	Stats *AggregateStats

	// Now 是请求时刻，新鲜度等时间相关分量以它为基准
	Now time.Time

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	// 例如：cold_start、path 等
	Labels map[string]utils.Label

	// Params 请求级上下文参数
	Params map[string]any
}

// GetUserProfile 获取用户画像，未构建时返回 nil。
func (rctx *RecommendContext) GetUserProfile() *UserProfile {
	if rctx == nil {
		return nil
	}
	return rctx.User
}

// Clock 返回请求时刻，未设置时使用当前时间。
func (rctx *RecommendContext) Clock() time.Time {
	if rctx == nil || rctx.Now.IsZero() {
		return time.Now()
	}
	return rctx.Now
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
