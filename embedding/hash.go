package embedding

import (
	"context"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/pkg/vecmath"
)

// ErrEmptyText 空文本不能向量化
var ErrEmptyText = core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeInvalidInput, "embedding: text must not be empty")

// HashProvider 是确定性的向量化实现，用于测试与离线环境。
//
// 向量 = 词袋特征哈希（xxhash 决定桶和符号）+ 整段文本派生的伪随机分量，最后 L2 归一化。
// 相同文本得到相同向量；共享词越多的文本余弦相似度越高。
type HashProvider struct {
	dim  int
	seed uint64

	// TextWeight 为整段文本分量的权重
	TextWeight float64
}

// NewHashProvider 创建确定性向量化实现，dim <= 0 时使用默认维度。
func NewHashProvider(dim int, seed uint64) *HashProvider {
	if dim <= 0 {
		dim = core.DefaultEmbeddingDimension
	}
	return &HashProvider{dim: dim, seed: seed, TextWeight: 0.5}
}

func (p *HashProvider) Name() string   { return "hash" }
func (p *HashProvider) Dimension() int { return p.dim }

func (p *HashProvider) Embed(_ context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	vec := make([]float64, p.dim)
	for _, tok := range tokenize(text) {
		h := splitmix64(xxhash.Sum64String(tok) ^ p.seed)
		idx := h % uint64(p.dim)
		if h>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	// 整段文本分量：保证不同文本（包括只有标点差异的文本）得到不同向量
	state := xxhash.Sum64String(text) ^ p.seed
	scale := p.TextWeight
	for i := range vec {
		state = splitmix64(state)
		vec[i] += scale * (float64(state>>11)/float64(1<<53)*2 - 1)
	}

	return vecmath.Normalize(vec), nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	z := x
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

var _ core.EmbeddingProvider = (*HashProvider)(nil)
