package feature

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/store"
)

type countingSource struct {
	calls int
	since time.Time
	err   error
}

func (s *countingSource) RatingStats(context.Context) (map[string]core.RatingStat, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return map[string]core.RatingStat{"a": {AvgRating: 4.5, ReviewCount: 2}}, nil
}

func (s *countingSource) RecentTransactionCounts(_ context.Context, since time.Time) (map[string]int, error) {
	s.since = since
	return map[string]int{"a": 3, "b": 1}, nil
}

func (s *countingSource) UserAveragePrice(context.Context, string) (*float64, error) {
	return nil, nil
}

func TestStatsService_Snapshot(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	src := &countingSource{}
	cache := store.NewMemoryStore()
	defer cache.Close()

	svc := NewStatsService(src,
		WithCache(cache, time.Minute),
		WithWindow(30*24*time.Hour),
		WithClock(func() time.Time { return now }),
	)

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Transactions("a"))
	assert.Equal(t, now.Add(-30*24*time.Hour), src.since)

	// 第二次命中缓存
	snap, err = svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)
	st, ok := snap.Rating("a")
	require.True(t, ok)
	assert.InDelta(t, 4.5, st.AvgRating, 1e-9)

	require.NoError(t, svc.Invalidate(ctx))
	_, err = svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestStatsService_SourceError(t *testing.T) {
	svc := NewStatsService(&countingSource{err: errors.New("db down")})
	_, err := svc.Snapshot(context.Background())
	require.Error(t, err)
	assert.True(t, core.IsUnavailable(err))
}

func TestEnrichNode(t *testing.T) {
	rctx := &core.RecommendContext{Stats: &core.AggregateStats{
		Ratings:            map[string]core.RatingStat{"a": {AvgRating: 4, ReviewCount: 3}},
		RecentTransactions: map[string]int{"a": 2},
	}}
	items := []*core.Item{core.NewItem("a"), core.NewItem("b")}

	out, err := (&EnrichNode{}).Process(context.Background(), rctx, items)
	require.NoError(t, err)
	assert.Equal(t, 4.0, out[0].Feature(core.FeatureAvgRating))
	assert.Equal(t, 3.0, out[0].Feature(core.FeatureReviewCount))
	assert.Equal(t, 2.0, out[0].Feature(core.FeatureTransactions))

	_, ok := out[1].Features[core.FeatureAvgRating]
	assert.False(t, ok)
	assert.Equal(t, 0.0, out[1].Feature(core.FeatureTransactions))
}
