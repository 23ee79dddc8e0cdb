package rerank

import (
	"context"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，在打分排序之后截取前 N 个房间。
//
// 示例：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &rerank.ScoreNode{...},  // 打分排序
//	        &rerank.TopNNode{N: 8},  // 截取 Top 8
//	        &rerank.ExplainNode{...},
//	    },
//	}
type TopNNode struct {
	// N 要保留的物品数量
	// 如果 N <= 0，则返回所有物品（不截断）
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.N <= 0 || len(items) <= n.N {
		return items, nil
	}
	return items[:n.N], nil
}
