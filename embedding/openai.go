package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/pkg/vecmath"
)

// OpenAIConfig 是 OpenAI 兼容向量化服务的配置。
// 任何兼容 /v1/embeddings 的服务（OpenAI、SiliconFlow、HF TEI 等）都可使用。
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Dimension int

	// RequestDimensions 是否在请求中携带 dimensions 参数（text-embedding-3 系列支持）
	RequestDimensions bool
}

// OpenAIProvider 是基于模型服务的向量化实现。
type OpenAIProvider struct {
	client    *openai.Client
	model     string
	dimension int
	sendDims  bool
}

// NewOpenAIProvider 创建模型向量化实现。
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.Model == "" {
		return nil, core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeInvalidInput, "embedding model is required")
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = core.DefaultEmbeddingDimension
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIProvider{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     cfg.Model,
		dimension: cfg.Dimension,
		sendDims:  cfg.RequestDimensions,
	}, nil
}

func (p *OpenAIProvider) Name() string   { return "openai:" + p.model }
func (p *OpenAIProvider) Dimension() int { return p.dimension }

// Embed 调用向量化服务并把结果归一化为单位向量。
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(p.model),
	}
	if p.sendDims {
		req.Dimensions = p.dimension
	}

	resp, err := p.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleEmbedding, core.ErrorCodeUnavailable, "create embeddings failed", err)
	}
	if len(resp.Data) == 0 {
		return nil, core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeUnavailable, "empty embedding response")
	}

	raw := resp.Data[0].Embedding
	if len(raw) != p.dimension {
		return nil, core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeUnavailable,
			fmt.Sprintf("embedding dimension mismatch: want %d, got %d", p.dimension, len(raw)))
	}

	vec := make([]float64, len(raw))
	for i, v := range raw {
		vec[i] = float64(v)
	}
	return vecmath.Normalize(vec), nil
}

var _ core.EmbeddingProvider = (*OpenAIProvider)(nil)
