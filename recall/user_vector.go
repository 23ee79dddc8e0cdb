package recall

import (
	"context"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/pkg/vecmath"
)

// UserVectorBuilder 把用户最近的行为聚合成偏好向量：
// 按行为类型加权平均所交互房间的向量，再做 L2 归一化。
type UserVectorBuilder struct {
	Events     core.EventStore
	Embeddings core.EmbeddingStore
	Weights    core.EventWeights

	// HistoryLimit 读取的最近行为数，默认 50
	HistoryLimit int
}

// Compute 计算用户向量。
// 没有行为、行为涉及的房间都没有向量或总权重为 0 时返回 ok=false，调用方据此走冷启动。
func (b *UserVectorBuilder) Compute(ctx context.Context, userID string) ([]float64, bool, error) {
	limit := b.HistoryLimit
	if limit <= 0 {
		limit = 50
	}

	events, err := b.Events.RecentEvents(ctx, userID, limit)
	if err != nil {
		return nil, false, err
	}
	return b.Aggregate(ctx, events)
}

// Aggregate 对给定行为（新的在前）做加权平均。
func (b *UserVectorBuilder) Aggregate(ctx context.Context, events []*core.InteractionEvent) ([]float64, bool, error) {
	if len(events) == 0 {
		return nil, false, nil
	}

	ids := make([]string, 0, len(events))
	seen := make(map[string]struct{}, len(events))
	for _, e := range events {
		if _, ok := seen[e.RoomID]; ok {
			continue
		}
		seen[e.RoomID] = struct{}{}
		ids = append(ids, e.RoomID)
	}

	embeddings, err := b.Embeddings.GetEmbeddings(ctx, ids)
	if err != nil {
		return nil, false, err
	}

	var sum []float64
	var total float64
	for _, e := range events {
		vec, ok := embeddings[e.RoomID]
		if !ok || len(vec) == 0 {
			continue
		}
		if sum == nil {
			sum = make([]float64, len(vec))
		}
		if len(vec) != len(sum) {
			continue
		}
		w := b.Weights.Weight(e.Kind, e.Rating)
		vecmath.AXPY(sum, w, vec)
		total += w
	}

	if sum == nil || total == 0 {
		return nil, false, nil
	}

	for i := range sum {
		sum[i] /= total
	}
	// 范数为 0 时 Normalize 原样返回
	return vecmath.Normalize(sum), true, nil
}
