package eval

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/engine"
)

type stubRecommender map[string][]string

func (s stubRecommender) Recommend(_ context.Context, req engine.Request) (*core.Recommendation, error) {
	res := &core.Recommendation{}
	for _, id := range s[req.UserID] {
		res.Recommendations = append(res.Recommendations, core.RecommendedRoom{RoomID: id})
	}
	return res, nil
}

type stubBookings map[string][]string

func (s stubBookings) BookedRooms(context.Context) (map[string][]string, error) {
	return s, nil
}

func set(ids ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func TestHitRateAndMRR(t *testing.T) {
	tests := []struct {
		name     string
		rec      []string
		relevant map[string]struct{}
		k        int
		hit      float64
		mrr      float64
	}{
		{name: "first position", rec: []string{"a", "b"}, relevant: set("a"), k: 2, hit: 1, mrr: 1},
		{name: "third position", rec: []string{"a", "b", "c"}, relevant: set("c", "z"), k: 3, hit: 1, mrr: 1.0 / 3},
		{name: "beyond k", rec: []string{"a", "b", "c"}, relevant: set("c"), k: 2, hit: 0, mrr: 0},
		{name: "no recommendations", rec: nil, relevant: set("a"), k: 5, hit: 0, mrr: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.hit, HitRateAtK(tt.rec, tt.relevant, tt.k))
			assert.InDelta(t, tt.mrr, MRRAtK(tt.rec, tt.relevant, tt.k), 1e-12)
		})
	}
}

func TestEvaluatorRun(t *testing.T) {
	ev := &Evaluator{
		Recommender: stubRecommender{
			"alice": {"r1", "r2", "r3"},
			"bob":   {"r4", "r5"},
			"carol": {"r9"},
		},
		Bookings: stubBookings{
			"bob":   {"r5"},
			"alice": {"r1"},
			"carol": {"r7"},
			"dave":  {},
		},
		Logger: zerolog.Nop(),
	}

	report, err := ev.Run(context.Background(), 8)
	require.NoError(t, err)
	require.Len(t, report.Users, 3)
	assert.Equal(t, []string{"alice", "bob", "carol"},
		[]string{report.Users[0].UserID, report.Users[1].UserID, report.Users[2].UserID})

	assert.InDelta(t, 2.0/3, report.HitRateMean, 1e-12)
	assert.InDelta(t, (1+0.5+0)/3.0, report.MRRMean, 1e-12)
	assert.InDelta(t, 0.4714045207910317, report.HitRateStd, 1e-9)
	assert.Equal(t, 8, report.K)
}

func TestEvaluatorRun_InvalidK(t *testing.T) {
	ev := &Evaluator{Recommender: stubRecommender{}, Bookings: stubBookings{}}
	_, err := ev.Run(context.Background(), 0)
	assert.True(t, core.IsInvalidInput(err))

	// 超过推荐入口上限的 K 在评估前就拒绝
	_, err = ev.Run(context.Background(), 51)
	assert.True(t, core.IsInvalidInput(err))
	bounded := &Evaluator{Recommender: stubRecommender{}, Bookings: stubBookings{}, MaxLimit: 5}
	_, err = bounded.Run(context.Background(), 6)
	assert.True(t, core.IsInvalidInput(err))
	_, err = bounded.Run(context.Background(), 5)
	require.NoError(t, err)

	report, err := ev.Run(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, report.Users)
	assert.Zero(t, report.HitRateMean)
}
