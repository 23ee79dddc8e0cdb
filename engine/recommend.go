package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/feature"
	"github.com/rushteam/roomrec/filter"
	"github.com/rushteam/roomrec/metrics"
	"github.com/rushteam/roomrec/pipeline"
	"github.com/rushteam/roomrec/pkg/utils"
	"github.com/rushteam/roomrec/recall"
	"github.com/rushteam/roomrec/rerank"
)

const (
	pathTrending     = "trending"
	pathPersonalized = "personalized"
)

// Request 是一次推荐请求。
type Request struct {
	// UserID 为空表示匿名请求
	UserID string

	// Limit 为空时使用默认值；给出时必须在 1..MaxLimit 之间
	Limit *int

	// Start / End 同时给出时做可用性过滤
	Start *time.Time
	End   *time.Time

	Filter core.RoomFilter
}

// Recommend 生成推荐列表。
// 数据不足永远不是错误：匿名、行为不足或没有可用向量时返回热门结果。
func (e *Engine) Recommend(ctx context.Context, req Request) (*core.Recommendation, error) {
	start := time.Now()

	limit, window, err := e.validate(req)
	if err != nil {
		metrics.RecommendationErrors.WithLabelValues(core.ErrorCodeInvalidInput).Inc()
		return nil, err
	}

	rctx := &core.RecommendContext{
		UserID: req.UserID,
		Window: window,
		Filter: req.Filter,
		Now:    e.now(),
		Params: map[string]any{"limit": limit},
	}

	res, path, err := e.recommend(ctx, rctx, limit)
	if err != nil {
		code := core.ErrorCodeInternalError
		if de := core.GetDomainError(err); de != nil {
			code = de.Code
		}
		metrics.RecommendationErrors.WithLabelValues(code).Inc()
		e.log.Error().Err(err).Str("user_id", req.UserID).Msg("recommendation failed")
		return nil, err
	}

	metrics.ObserveRecommendation(path, start)
	e.log.Debug().
		Str("user_id", req.UserID).
		Str("path", path).
		Int("events", res.UserEventCount).
		Int("returned", len(res.Recommendations)).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Msg("recommendation served")
	return res, nil
}

func (e *Engine) validate(req Request) (int, *core.TimeWindow, error) {
	limit := e.cfg.DefaultLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	if limit < 1 || limit > e.cfg.MaxLimit {
		return 0, nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput,
			fmt.Sprintf("limit must be between 1 and %d", e.cfg.MaxLimit))
	}
	if req.Filter.MinCapacity < 0 || req.Filter.MaxPrice < 0 {
		return 0, nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput,
			"filter bounds must not be negative")
	}
	window, err := core.NewTimeWindow(req.Start, req.End)
	if err != nil {
		return 0, nil, err
	}
	return limit, window, nil
}

func (e *Engine) recommend(ctx context.Context, rctx *core.RecommendContext, limit int) (*core.Recommendation, string, error) {
	if rctx.UserID == "" {
		return e.trending(ctx, rctx, limit, 0)
	}

	count, err := e.deps.Events.CountEvents(ctx, rctx.UserID)
	if err != nil {
		return nil, "", fmt.Errorf("count events: %w", err)
	}
	if count < e.cfg.ColdStartThreshold {
		return e.trending(ctx, rctx, limit, count)
	}

	vector, ok, err := e.vectors.Compute(ctx, rctx.UserID)
	if err != nil {
		return nil, "", fmt.Errorf("compute user vector: %w", err)
	}
	if !ok {
		return e.trending(ctx, rctx, limit, count)
	}

	profile := core.NewUserProfile(rctx.UserID)
	profile.EventCount = count
	profile.Vector = vector
	profile.UpdateTime = rctx.Now
	rctx.User = profile

	if err := e.loadUserContext(ctx, rctx); err != nil {
		return nil, "", err
	}
	rctx.PutLabel(core.LabelPath, utils.Label{Value: pathPersonalized, Source: "engine"})

	p := &pipeline.Pipeline{
		Name:   pathPersonalized,
		Logger: &e.log,
		Nodes: []pipeline.Node{
			&recall.ANN{Index: e.deps.Index, Catalog: e.deps.Catalog, TopK: e.cfg.CandidatePool},
			e.filterNode(),
			&filter.AvailabilityNode{Checker: e.deps.Reservations},
			&feature.EnrichNode{},
			&rerank.ScoreNode{Scorer: rerank.NewScorer(e.cfg)},
			&rerank.TopNNode{N: limit},
			&rerank.ExplainNode{Explainer: rerank.NewExplainer(e.cfg)},
		},
	}
	items, err := p.Run(ctx, rctx, nil)
	if err != nil {
		return nil, "", err
	}

	return &core.Recommendation{
		Recommendations: toRecommended(items),
		IsColdStart:     false,
		UserEventCount:  count,
	}, pathPersonalized, nil
}

// loadUserContext 并发读取解释用的历史房间、用户平均价格与统计快照。
func (e *Engine) loadUserContext(ctx context.Context, rctx *core.RecommendContext) error {
	g, gctx := errgroup.WithContext(ctx)

	var history []*core.Room
	g.Go(func() error {
		ids, err := e.deps.Events.InteractedRoomIDs(gctx, rctx.UserID, e.cfg.ExplainHistory)
		if err != nil {
			return fmt.Errorf("load interacted rooms: %w", err)
		}
		rooms, err := e.deps.Catalog.GetRooms(gctx, ids)
		if err != nil {
			return fmt.Errorf("load interacted rooms: %w", err)
		}
		for _, id := range ids {
			if r, ok := rooms[id]; ok {
				history = append(history, r)
			}
		}
		return nil
	})

	var avgPrice *float64
	g.Go(func() error {
		var err error
		avgPrice, err = e.deps.Stats.UserAveragePrice(gctx, rctx.UserID)
		if err != nil {
			return fmt.Errorf("load user average price: %w", err)
		}
		return nil
	})

	var stats *core.AggregateStats
	g.Go(func() error {
		var err error
		stats, err = e.stats.Snapshot(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	if history != nil {
		rctx.User.RecentRooms = history
	}
	rctx.User.AvgPrice = avgPrice
	rctx.Stats = stats
	return nil
}

func (e *Engine) trending(ctx context.Context, rctx *core.RecommendContext, limit, count int) (*core.Recommendation, string, error) {
	stats, err := e.stats.Snapshot(ctx)
	if err != nil {
		return nil, "", err
	}
	rctx.Stats = stats
	rctx.PutLabel(core.LabelPath, utils.Label{Value: pathTrending, Source: "engine"})

	p := &pipeline.Pipeline{
		Name:   pathTrending,
		Logger: &e.log,
		Nodes: []pipeline.Node{
			&recall.Trending{Catalog: e.deps.Catalog},
			e.filterNode(),
			&filter.AvailabilityNode{Checker: e.deps.Reservations},
			&feature.EnrichNode{},
			rerank.NewTrendingNode(e.cfg),
			&rerank.TopNNode{N: limit},
		},
	}
	items, err := p.Run(ctx, rctx, nil)
	if err != nil {
		return nil, "", err
	}

	return &core.Recommendation{
		Recommendations: toRecommended(items),
		IsColdStart:     true,
		UserEventCount:  count,
	}, pathTrending, nil
}

func (e *Engine) filterNode() *filter.FilterNode {
	filters := make([]filter.Filter, 0, 2+len(e.deps.Filters))
	filters = append(filters, &filter.ActiveFilter{}, &filter.RoomFilter{})
	filters = append(filters, e.deps.Filters...)
	return &filter.FilterNode{Filters: filters, Logger: &e.log}
}

func toRecommended(items []*core.Item) []core.RecommendedRoom {
	out := make([]core.RecommendedRoom, 0, len(items))
	for _, it := range items {
		if it.Room == nil {
			continue
		}
		rec := core.RecommendedRoom{
			RoomID:          it.Room.ID,
			Name:            it.Room.Name,
			Category:        it.Room.Category,
			Capacity:        it.Room.Capacity,
			PricePerHour:    it.Room.PricePerHour,
			ReviewCount:     int(it.Feature(core.FeatureReviewCount)),
			SimilarityScore: it.Feature(core.FeatureSimilarity),
			FinalScore:      it.Score,
			Reason:          it.Label(core.LabelReason),
			Breakdown:       rerank.BreakdownOf(it),
		}
		if avg, ok := it.Features[core.FeatureAvgRating]; ok {
			rec.AvgRating = &avg
		}
		out = append(out, rec)
	}
	return out
}
