package core

import (
	"context"
	"time"
)

// DefaultEmbeddingDimension 默认向量维度（MiniLM 系列模型）。
const DefaultEmbeddingDimension = 384

// ItemEmbedding 是房间画像文本的单位向量，每个房间一条，重新生成时覆盖。
type ItemEmbedding struct {
	RoomID    string    `json:"room_id"`
	Vector    []float64 `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EmbeddingProvider 把文本映射为固定维度的单位向量。
//
// 实现：
//   - embedding.OpenAIProvider：OpenAI 兼容的向量化服务
//   - embedding.HashProvider：确定性实现，用于测试/离线
//   - embedding.ResilientProvider：熔断 + 限流包装
//
// 空文本返回 INVALID_INPUT；后端不可用返回 UNAVAILABLE。
type EmbeddingProvider interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}
