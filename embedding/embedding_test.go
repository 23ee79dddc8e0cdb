package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/pkg/vecmath"
)

func TestProfileBuilder(t *testing.T) {
	room := &core.Room{
		Name:         "VIP ROOM 1",
		Category:     core.CategoryVIP,
		Capacity:     6,
		PricePerHour: 50000,
		Description:  "  Premium room  ",
		Units: []core.Unit{
			{ConsoleType: core.ConsolePS5Pro, Controllers: 4},
			{ConsoleType: core.ConsoleNintendoSwitch, Controllers: 2},
		},
	}
	want := "Room: VIP ROOM 1 | Category: VIP | Capacity: 6 people | Price: 50000.00 IDR per hour" +
		" | Description: Premium room | Consoles: PS5_PRO, NINTENDO_SWITCH | Controllers: 6 total"
	assert.Equal(t, want, BuildProfile(room))

	bare := &core.Room{Name: "R", Category: core.CategoryRegular, Capacity: 2, PricePerHour: 1.5}
	assert.Equal(t, "Room: R | Category: REGULER | Capacity: 2 people | Price: 1.50 USD per hour",
		NewProfileBuilder("USD").Build(bare))
}

func TestHashProvider(t *testing.T) {
	ctx := context.Background()
	p := NewHashProvider(128, 7)

	a, err := p.Embed(ctx, "VIP room with PS5 Pro")
	require.NoError(t, err)
	b, err := p.Embed(ctx, "VIP room with PS5 Pro")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 128)
	assert.InDelta(t, 1.0, vecmath.Norm(a), 1e-9)

	near, err := p.Embed(ctx, "VIP room with PS5 Slim")
	require.NoError(t, err)
	far, err := p.Embed(ctx, "racing simulator steering wheel")
	require.NoError(t, err)
	assert.Greater(t, vecmath.Cosine(a, near), vecmath.Cosine(a, far))

	_, err = p.Embed(ctx, "   ")
	assert.True(t, core.IsInvalidInput(err))

	other, err := NewHashProvider(128, 8).Embed(ctx, "VIP room with PS5 Pro")
	require.NoError(t, err)
	assert.NotEqual(t, a, other)

	assert.Equal(t, core.DefaultEmbeddingDimension, NewHashProvider(0, 1).Dimension())
}

func TestHashProvider_RandomTexts(t *testing.T) {
	ctx := context.Background()
	p := NewHashProvider(64, 3)
	rng := rand.New(rand.NewPCG(42, 7))
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789 |-."

	randomText := func() string {
		n := 1 + rng.IntN(40)
		b := make([]byte, n)
		for i := range b {
			b[i] = alphabet[rng.IntN(len(alphabet))]
		}
		// 保证非空白
		b[0] = alphabet[rng.IntN(26)]
		return string(b)
	}

	seen := make(map[string][]float64)
	for i := 0; i < 200; i++ {
		text := randomText()
		vec, err := p.Embed(ctx, text)
		require.NoError(t, err)
		assert.Len(t, vec, 64)
		assert.InDelta(t, 1.0, vecmath.Norm(vec), 1e-9, text)

		again, err := p.Embed(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, vec, again, text)

		for other, ov := range seen {
			if other != text {
				assert.NotEqual(t, ov, vec, "%q vs %q", other, text)
			}
		}
		seen[text] = vec
	}
}

func TestWord2VecProvider(t *testing.T) {
	ctx := context.Background()
	p, err := LoadWord2Vec(strings.NewReader(`{"vip": [1, 0, 0], "room": [0, 1, 0], "ps5": [0, 0, 2]}`))
	require.NoError(t, err)
	assert.Equal(t, 3, p.Dimension())

	vec, err := p.Embed(ctx, "VIP Room | unknown")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.7071067811865475, 0.7071067811865475, 0}, vec, 1e-12)

	_, err = p.Embed(ctx, "nothing known here")
	assert.True(t, core.IsInvalidInput(err))

	opposite, err := NewWord2VecProvider(map[string][]float64{"up": {1, 0}, "down": {-1, 0}})
	require.NoError(t, err)
	_, err = opposite.Embed(ctx, "up down")
	assert.True(t, core.IsInvalidInput(err))

	_, err = NewWord2VecProvider(map[string][]float64{"a": {1}, "b": {1, 2}})
	assert.True(t, core.IsInvalidInput(err))
	_, err = LoadWord2Vec(strings.NewReader(`{}`))
	assert.True(t, core.IsInvalidInput(err))
	_, err = LoadWord2Vec(strings.NewReader(`not json`))
	assert.True(t, core.IsInvalidInput(err))
}

type scriptedProvider struct {
	calls int
	err   error
}

func (p *scriptedProvider) Name() string   { return "scripted" }
func (p *scriptedProvider) Dimension() int { return 2 }
func (p *scriptedProvider) Embed(context.Context, string) ([]float64, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return []float64{1, 0}, nil
}

func TestResilientProvider(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultResilientConfig()
	cfg.RatePerSecond = 0
	cfg.ConsecutiveFailures = 2
	cfg.Timeout = time.Hour

	inner := &scriptedProvider{err: errors.New("connection refused")}
	p := NewResilientProvider(inner, cfg, zerolog.Nop())

	for i := 0; i < 2; i++ {
		_, err := p.Embed(ctx, "text")
		assert.True(t, core.IsUnavailable(err))
	}
	assert.Equal(t, gobreaker.StateOpen, p.State())

	_, err := p.Embed(ctx, "text")
	assert.True(t, core.IsUnavailable(err))
	assert.Equal(t, 2, inner.calls, "open breaker must not call the provider")

	_, err = p.Embed(ctx, "")
	assert.True(t, core.IsInvalidInput(err))
}

func TestResilientProvider_InvalidInputKeepsBreakerClosed(t *testing.T) {
	cfg := DefaultResilientConfig()
	cfg.RatePerSecond = 0
	cfg.ConsecutiveFailures = 1

	inner := &scriptedProvider{err: core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeInvalidInput, "too long")}
	p := NewResilientProvider(inner, cfg, zerolog.Nop())

	for i := 0; i < 3; i++ {
		_, err := p.Embed(context.Background(), "text")
		assert.True(t, core.IsInvalidInput(err))
	}
	assert.Equal(t, gobreaker.StateClosed, p.State())
	assert.Equal(t, 3, inner.calls)
}

func TestOpenAIProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
			return
		}
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["model"] == "broken" {
			http.Error(w, `{"error":{"message":"model not loaded"}}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"m","data":[{"object":"embedding","index":0,"embedding":[3,4]}]}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	p, err := NewOpenAIProvider(OpenAIConfig{BaseURL: srv.URL + "/v1", Model: "m", Dimension: 2})
	require.NoError(t, err)
	assert.Equal(t, "openai:m", p.Name())

	vec, err := p.Embed(ctx, "VIP room")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.6, 0.8}, vec, 1e-6)

	wrongDim, err := NewOpenAIProvider(OpenAIConfig{BaseURL: srv.URL + "/v1", Model: "m", Dimension: 3})
	require.NoError(t, err)
	_, err = wrongDim.Embed(ctx, "VIP room")
	assert.True(t, core.IsUnavailable(err))

	broken, err := NewOpenAIProvider(OpenAIConfig{BaseURL: srv.URL + "/v1", Model: "broken", Dimension: 2})
	require.NoError(t, err)
	_, err = broken.Embed(ctx, "VIP room")
	assert.True(t, core.IsUnavailable(err))

	_, err = NewOpenAIProvider(OpenAIConfig{})
	assert.True(t, core.IsInvalidInput(err))
}
