package recall

import (
	"context"

	"github.com/rushteam/roomrec/core"
)

// Source 表示一个可复用的召回源（相似度 / 热门）。
// 召回源同时实现 pipeline.Node，可直接作为 Pipeline 的第一个节点。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}
