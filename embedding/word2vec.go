package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/pkg/vecmath"
)

// Word2VecProvider 用预训练词向量表向量化：画像文本中已知词向量取平均后归一化。
// 适合无法访问模型服务、但有离线词表的部署；未登录词忽略。
type Word2VecProvider struct {
	vectors map[string][]float64
	dim     int
}

// NewWord2VecProvider 用词向量表构造，所有向量维度必须一致。
func NewWord2VecProvider(vectors map[string][]float64) (*Word2VecProvider, error) {
	dim := 0
	for word, vec := range vectors {
		if dim == 0 {
			dim = len(vec)
		}
		if len(vec) == 0 || len(vec) != dim {
			return nil, core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeInvalidInput,
				fmt.Sprintf("inconsistent vector dimension for %q: got %d, want %d", word, len(vec), dim))
		}
	}
	if dim == 0 {
		return nil, core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeInvalidInput, "word vector table is empty")
	}
	return &Word2VecProvider{vectors: vectors, dim: dim}, nil
}

// LoadWord2Vec 从 JSON 对象 {"word": [0.1, ...]} 读取词向量表。
func LoadWord2Vec(r io.Reader) (*Word2VecProvider, error) {
	var table map[string][]float64
	if err := json.NewDecoder(r).Decode(&table); err != nil {
		return nil, core.WrapDomainError(core.ModuleEmbedding, core.ErrorCodeInvalidInput, "decode word vectors", err)
	}
	return NewWord2VecProvider(table)
}

// LoadWord2VecFile 从文件读取词向量表。
func LoadWord2VecFile(path string) (*Word2VecProvider, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word vectors: %w", err)
	}
	defer fh.Close()
	return LoadWord2Vec(fh)
}

func (p *Word2VecProvider) Name() string   { return "word2vec" }
func (p *Word2VecProvider) Dimension() int { return p.dim }

// Embed 没有任何已知词，或已知词向量相互抵消为零向量时返回 INVALID_INPUT。
func (p *Word2VecProvider) Embed(_ context.Context, text string) ([]float64, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil, ErrEmptyText
	}

	sum := make([]float64, p.dim)
	n := 0
	for _, tok := range tokens {
		vec, ok := p.vectors[tok]
		if !ok {
			continue
		}
		vecmath.AXPY(sum, 1, vec)
		n++
	}
	if n == 0 {
		return nil, core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeInvalidInput, "no known tokens in text")
	}
	for i := range sum {
		sum[i] /= float64(n)
	}
	if vecmath.Norm(sum) == 0 {
		return nil, core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeInvalidInput, "known token vectors cancel out")
	}
	return vecmath.Normalize(sum), nil
}
