package rerank

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/roomrec/core"
)

func floatPtr(v float64) *float64 { return &v }

func TestScorer_Components(t *testing.T) {
	s := NewScorer(core.DefaultRecommendConfig())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("price match", func(t *testing.T) {
		tests := []struct {
			name  string
			price float64
			avg   *float64
			want  float64
		}{
			{"no affinity", 90000, nil, 1},
			{"exact match", 40000, floatPtr(40000), 1},
			{"half tolerance", 50000, floatPtr(40000), 0.5},
			{"at tolerance edge", 60000, floatPtr(40000), 0},
			{"beyond tolerance floored", 90000, floatPtr(40000), 0},
			{"cheaper side", 30000, floatPtr(40000), 0.5},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.InDelta(t, tt.want, s.PriceMatch(tt.price, tt.avg), 1e-9)
			})
		}
	})

	t.Run("freshness", func(t *testing.T) {
		tests := []struct {
			name    string
			created time.Time
			want    float64
		}{
			{"brand new", now, 1},
			{"partial day floors", now.Add(-36 * time.Hour), 1 - 1.0/365},
			{"half year", now.AddDate(0, 0, -73), 1 - 73.0/365},
			{"older than a year", now.AddDate(-2, 0, 0), 0},
			{"future date", now.Add(48 * time.Hour), 1},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.InDelta(t, tt.want, s.Freshness(tt.created, now), 1e-9)
			})
		}
	})

	t.Run("rating and popularity", func(t *testing.T) {
		assert.InDelta(t, 0.9, s.RatingScore(4.5), 1e-9)
		assert.Equal(t, 0.0, s.RatingScore(0))
		assert.InDelta(t, 0.5, PopularityScore(2, 4), 1e-9)
		assert.Equal(t, 0.0, PopularityScore(3, 0))
	})

	t.Run("combined", func(t *testing.T) {
		score, b := s.Score(Signals{
			Similarity: 1, AvgRating: 5, Transactions: 4, MaxTx: 4,
			Price: 40000, UserAvgPrice: floatPtr(40000), CreatedAt: now, Now: now,
		})
		assert.InDelta(t, 1.0, score, 1e-9)
		assert.Equal(t, core.ScoreBreakdown{Similarity: 1, Rating: 1, Popularity: 1, PriceMatch: 1, Freshness: 1}, b)
	})
}

func TestScoreNode_Ordering(t *testing.T) {
	now := time.Now()
	mk := func(id string, sim float64) *core.Item {
		it := core.NewRoomItem(&core.Room{ID: id, Name: id, CreatedAt: now, PricePerHour: 10000})
		it.SetFeature(core.FeatureSimilarity, sim)
		return it
	}

	node := &ScoreNode{Scorer: NewScorer(core.DefaultRecommendConfig())}
	items := []*core.Item{mk("a", 0.9), mk("b", 0.7), mk("c", 0.8), mk("d", 0.7)}

	out, err := node.Process(context.Background(), &core.RecommendContext{Now: now}, items)
	require.NoError(t, err)

	var got []string
	for _, it := range out {
		got = append(got, it.ID)
	}
	// 分数相同的 b、d 保持输入顺序
	assert.Equal(t, []string{"a", "c", "b", "d"}, got)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].Score, out[i].Score)
	}
	assert.InDelta(t, 0.9, BreakdownOf(out[0]).Similarity, 1e-9)
}

func TestScoreNode_PopularityUsesCandidateMax(t *testing.T) {
	now := time.Now()
	a := core.NewRoomItem(&core.Room{ID: "a", CreatedAt: now})
	a.SetFeature(core.FeatureTransactions, 2)
	b := core.NewRoomItem(&core.Room{ID: "b", CreatedAt: now})
	b.SetFeature(core.FeatureTransactions, 1)

	node := &ScoreNode{Scorer: NewScorer(core.DefaultRecommendConfig())}
	out, err := node.Process(context.Background(), &core.RecommendContext{Now: now}, []*core.Item{b, a})
	require.NoError(t, err)
	assert.Equal(t, "a", out[0].ID)
	assert.InDelta(t, 1.0, out[0].Feature(core.FeaturePopularity), 1e-9)
	assert.InDelta(t, 0.5, out[1].Feature(core.FeaturePopularity), 1e-9)
}

func TestTrendingNode(t *testing.T) {
	rctx := &core.RecommendContext{Stats: &core.AggregateStats{
		RecentTransactions: map[string]int{"a": 4, "b": 2, "inactive": 8},
	}}
	mk := func(id string, tx, rating float64) *core.Item {
		it := core.NewItem(id)
		it.SetFeature(core.FeatureTransactions, tx)
		if rating > 0 {
			it.SetFeature(core.FeatureAvgRating, rating)
		}
		return it
	}
	items := []*core.Item{mk("a", 4, 0), mk("b", 2, 5), mk("c", 0, 0), mk("d", 0, 0)}

	out, err := NewTrendingNode(core.DefaultRecommendConfig()).Process(context.Background(), rctx, items)
	require.NoError(t, err)

	// 分母取全局最大值 8
	// a: 0.5*0.5 = 0.25；b: 0.5*0.25 + 0.5*1 = 0.625
	assert.Equal(t, []string{"b", "a", "c", "d"}, []string{out[0].ID, out[1].ID, out[2].ID, out[3].ID})
	assert.InDelta(t, 0.625, out[0].Score, 1e-9)
	assert.InDelta(t, 0.25, out[1].Score, 1e-9)
	for _, it := range out {
		assert.Contains(t, it.Label(core.LabelReason), "Trending")
	}
}

func TestExplainer(t *testing.T) {
	e := NewExplainer(core.DefaultRecommendConfig())
	candidate := &core.Room{ID: "c", Name: "Cand", Category: core.CategoryVIP, Capacity: 4, PricePerHour: 40000}

	tests := []struct {
		name    string
		history []*core.Room
		want    string
	}{
		{
			name: "no history",
			want: "Recommended based on popularity in VIP category",
		},
		{
			name: "same category",
			history: []*core.Room{
				{ID: "p", Name: "VIP ROOM 1", Category: core.CategoryVIP, Capacity: 6, PricePerHour: 90000},
			},
			want: "Similar to VIP ROOM 1 because of same category (VIP)",
		},
		{
			name: "price before capacity",
			history: []*core.Room{
				{ID: "p", Name: "REG", Category: core.CategoryRegular, Capacity: 4, PricePerHour: 36000},
			},
			want: "Similar to REG because of similar price range",
		},
		{
			name: "capacity",
			history: []*core.Room{
				{ID: "p", Name: "SIM", Category: core.CategorySimulator, Capacity: 4, PricePerHour: 10000},
			},
			want: "Similar to SIM because of same capacity (4 people)",
		},
		{
			name: "first matching room wins",
			history: []*core.Room{
				{ID: "x", Name: "NOPE", Category: core.CategorySimulator, Capacity: 2, PricePerHour: 10000},
				{ID: "p", Name: "CHEAP", Category: core.CategoryRegular, Capacity: 4, PricePerHour: 10000},
				{ID: "q", Name: "VIP2", Category: core.CategoryVIP, Capacity: 2, PricePerHour: 10000},
			},
			want: "Similar to CHEAP because of same capacity (4 people)",
		},
		{
			name:    "skips the candidate itself",
			history: []*core.Room{candidate},
			want:    "Recommended for you based on your interest in VIP rooms",
		},
		{
			name: "no match",
			history: []*core.Room{
				{ID: "x", Name: "NOPE", Category: core.CategorySimulator, Capacity: 2, PricePerHour: 10000},
			},
			want: "Recommended for you based on your interest in VIP rooms",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Explain(candidate, tt.history))
		})
	}
}

func TestExplainNode_KeepsExistingReason(t *testing.T) {
	it := core.NewRoomItem(&core.Room{ID: "a", Category: core.CategoryVIP})
	node := &ExplainNode{Explainer: NewExplainer(core.DefaultRecommendConfig())}

	out, err := node.Process(context.Background(), &core.RecommendContext{}, []*core.Item{it})
	require.NoError(t, err)
	assert.Equal(t, "Recommended based on popularity in VIP category", out[0].Label(core.LabelReason))

	out, err = (&TopNNode{N: 0}).Process(context.Background(), nil, out)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestTopNNode(t *testing.T) {
	items := []*core.Item{core.NewItem("a"), core.NewItem("b"), core.NewItem("c")}
	for _, tt := range []struct {
		n, want int
	}{{0, 3}, {2, 2}, {5, 3}} {
		out, err := (&TopNNode{N: tt.n}).Process(context.Background(), nil, items)
		require.NoError(t, err)
		assert.Len(t, out, tt.want)
	}
}
