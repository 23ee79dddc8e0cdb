package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/metrics"
)

// Pipeline 把推荐逻辑拆成可组合的 Node 链，按顺序执行。
// 每个 Node 的耗时与输出数量都会记录到 Prometheus。
type Pipeline struct {
	Name  string
	Nodes []Node

	// Logger 为空时不输出节点日志
	Logger *zerolog.Logger
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		metrics.ObserveNode(node.Name(), string(node.Kind()), start, len(next))
		if err != nil {
			if p.Logger != nil {
				p.Logger.Error().Err(err).
					Str("pipeline", p.Name).
					Str("node", node.Name()).
					Msg("pipeline node failed")
			}
			return nil, err
		}

		if p.Logger != nil {
			p.Logger.Debug().
				Str("pipeline", p.Name).
				Str("node", node.Name()).
				Str("kind", string(node.Kind())).
				Int("in", len(cur)).
				Int("out", len(next)).
				Dur("took", time.Since(start)).
				Msg("pipeline node done")
		}
		cur = next
	}
	return cur, nil
}
