package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/embedding"
)

const (
	ProviderHash     = "hash"
	ProviderOpenAI   = "openai"
	ProviderWord2Vec = "word2vec"
)

// ProviderBuilder 根据配置构建向量化实现。
// 新的实现在 init 中调用 RegisterProvider 即可被配置驱动。
type ProviderBuilder func(cfg EmbeddingConfig) (core.EmbeddingProvider, error)

var (
	providers   = make(map[string]ProviderBuilder)
	providersMu sync.RWMutex
)

func init() {
	RegisterProvider(ProviderHash, func(cfg EmbeddingConfig) (core.EmbeddingProvider, error) {
		return embedding.NewHashProvider(cfg.Dimension, cfg.Seed), nil
	})
	RegisterProvider(ProviderOpenAI, func(cfg EmbeddingConfig) (core.EmbeddingProvider, error) {
		return embedding.NewOpenAIProvider(embedding.OpenAIConfig{
			APIKey:            cfg.APIKey,
			BaseURL:           cfg.BaseURL,
			Model:             cfg.Model,
			Dimension:         cfg.Dimension,
			RequestDimensions: cfg.RequestDimensions,
		})
	})
	RegisterProvider(ProviderWord2Vec, func(cfg EmbeddingConfig) (core.EmbeddingProvider, error) {
		if cfg.VectorsPath == "" {
			return nil, core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeInvalidInput, "embedding.vectors_path is required for word2vec")
		}
		return embedding.LoadWord2VecFile(cfg.VectorsPath)
	})
}

// RegisterProvider 注册一种向量化实现，重复注册时覆盖。
func RegisterProvider(name string, builder ProviderBuilder) {
	if name == "" || builder == nil {
		return
	}
	providersMu.Lock()
	defer providersMu.Unlock()
	providers[name] = builder
}

// HasProvider 判断名称是否已注册
func HasProvider(name string) bool {
	providersMu.RLock()
	defer providersMu.RUnlock()
	_, ok := providers[name]
	return ok
}

// SupportedProviders 返回已注册的实现名称（排序），用于错误提示。
func SupportedProviders() []string {
	providersMu.RLock()
	defer providersMu.RUnlock()
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildProvider 构建配置指定的向量化实现；Resilient.Enabled 时外层包裹熔断与限流。
func BuildProvider(cfg EmbeddingConfig, logger zerolog.Logger) (core.EmbeddingProvider, error) {
	providersMu.RLock()
	builder, ok := providers[cfg.Provider]
	providersMu.RUnlock()
	if !ok {
		return nil, core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeNotSupported,
			fmt.Sprintf("unknown embedding provider %q (supported: %v)", cfg.Provider, SupportedProviders()))
	}

	p, err := builder(cfg)
	if err != nil {
		return nil, err
	}
	if !cfg.Resilient.Enabled {
		return p, nil
	}

	rc := embedding.DefaultResilientConfig()
	rc.RatePerSecond = cfg.Resilient.RatePerSecond
	if cfg.Resilient.Burst > 0 {
		rc.Burst = cfg.Resilient.Burst
	}
	if cfg.Resilient.Timeout > 0 {
		rc.Timeout = cfg.Resilient.Timeout
	}
	if cfg.Resilient.ConsecutiveFailures > 0 {
		rc.ConsecutiveFailures = cfg.Resilient.ConsecutiveFailures
	}
	return embedding.NewResilientProvider(p, rc, logger), nil
}
