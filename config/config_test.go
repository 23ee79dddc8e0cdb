package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/embedding"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roomrec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultMatchesEngineDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, core.DefaultRecommendConfig(), cfg.ToRecommendConfig())
}

func TestLoad_FileAndEnvLayers(t *testing.T) {
	path := writeFile(t, `
log:
  level: debug
recommend:
  default_limit: 5
  trending:
    window: 168h
store:
  stats_ttl: 30s
filter:
  expr: room.capacity >= 2
`)
	t.Setenv("ROOMREC_RECOMMEND__DEFAULT_LIMIT", "6")
	t.Setenv("ROOMREC_STORE__REDIS__ADDR", "localhost:6379")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 6, cfg.Recommend.DefaultLimit)
	assert.Equal(t, 7*24*time.Hour, cfg.Recommend.Trending.Window)
	assert.Equal(t, 30*time.Second, cfg.Store.StatsTTL)
	assert.Equal(t, "localhost:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, "roomrec:", cfg.Store.Redis.Prefix)
	assert.Equal(t, "room.capacity >= 2", cfg.Filter.Expr)
	assert.Equal(t, ProviderHash, cfg.Embedding.Provider)

	rc := cfg.ToRecommendConfig()
	assert.Equal(t, 6, rc.DefaultLimit)
	assert.Equal(t, 50, rc.MaxLimit)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "weights do not sum to one", body: "recommend:\n  weights:\n    similarity: 0.9\n"},
		{name: "unknown driver", body: "store:\n  driver: sqlite\n"},
		{name: "postgres without dsn", body: "store:\n  driver: postgres\n"},
		{name: "unknown provider", body: "embedding:\n  provider: bert\n"},
		{name: "zero dimension", body: "embedding:\n  dimension: 0\n"},
		{name: "default above max", body: "recommend:\n  default_limit: 80\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			require.Error(t, err)
			assert.True(t, core.IsInvalidInput(err))
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestBuildProvider(t *testing.T) {
	cfg := Default().Embedding
	cfg.Dimension = 16
	cfg.Resilient.Enabled = false

	p, err := BuildProvider(cfg, zerolog.Nop())
	require.NoError(t, err)
	_, ok := p.(*embedding.HashProvider)
	assert.True(t, ok)
	assert.Equal(t, 16, p.Dimension())

	cfg.Resilient.Enabled = true
	p, err = BuildProvider(cfg, zerolog.Nop())
	require.NoError(t, err)
	_, ok = p.(*embedding.ResilientProvider)
	assert.True(t, ok)
	assert.Equal(t, "hash", p.Name())

	cfg.Provider = ProviderOpenAI
	_, err = BuildProvider(cfg, zerolog.Nop())
	assert.True(t, core.IsInvalidInput(err), "openai requires a model")

	cfg.Provider = "bert"
	_, err = BuildProvider(cfg, zerolog.Nop())
	assert.True(t, core.IsNotSupported(err))

	cfg.Provider = ProviderWord2Vec
	_, err = BuildProvider(cfg, zerolog.Nop())
	assert.True(t, core.IsInvalidInput(err), "word2vec requires a vectors file")

	cfg.VectorsPath = writeFile(t, `{"vip": [1, 0], "room": [0, 1]}`)
	p, err = BuildProvider(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 2, p.Dimension())

	assert.Equal(t, []string{"hash", "openai", "word2vec"}, SupportedProviders())
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "store.redis.addr", envKey("ROOMREC_STORE__REDIS__ADDR"))
	assert.Equal(t, "recommend.cold_start_threshold", envKey("ROOMREC_RECOMMEND__COLD_START_THRESHOLD"))
}
