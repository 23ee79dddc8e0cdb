package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/metrics"
)

// RegenerateEmbedding 重新生成单个房间的向量并写入存储。
// 房间不存在返回 NOT_FOUND；向量化失败原样返回给调用方。
func (e *Engine) RegenerateEmbedding(ctx context.Context, roomID string) (*core.ItemEmbedding, error) {
	room, err := e.deps.Catalog.GetRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	if room == nil {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeNotFound, "room not found: "+roomID)
	}
	return e.regenerate(ctx, room)
}

// RegenerateAllEmbeddings 为全部 ACTIVE 房间重建向量。
// 单个房间失败不会中断批次；报告中的失败明细按目录顺序最多保留 MaxReportedFailures 条。
func (e *Engine) RegenerateAllEmbeddings(ctx context.Context) (*core.RegenerationReport, error) {
	rooms, err := e.deps.Catalog.ActiveRooms(ctx, core.RoomFilter{})
	if err != nil {
		return nil, fmt.Errorf("list active rooms: %w", err)
	}

	errs := make([]error, len(rooms))
	var g errgroup.Group
	g.SetLimit(e.cfg.RegenerateConcurrency)
	for i, room := range rooms {
		g.Go(func() error {
			_, errs[i] = e.regenerate(ctx, room)
			return nil
		})
	}
	_ = g.Wait()

	report := &core.RegenerationReport{
		Total:    len(rooms),
		Failures: []core.RegenerationFailure{},
	}
	for i, room := range rooms {
		if errs[i] == nil {
			report.SuccessCount++
			continue
		}
		report.FailureCount++
		e.log.Warn().Err(errs[i]).Str("room_id", room.ID).Msg("embedding regeneration failed")
		if len(report.Failures) < e.cfg.MaxReportedFailures {
			report.Failures = append(report.Failures, core.RegenerationFailure{
				RoomID:   room.ID,
				RoomName: room.Name,
				Error:    errs[i].Error(),
			})
		}
	}

	e.log.Info().
		Int("total", report.Total).
		Int("success", report.SuccessCount).
		Int("failed", report.FailureCount).
		Msg("embedding regeneration finished")
	return report, nil
}

func (e *Engine) regenerate(ctx context.Context, room *core.Room) (*core.ItemEmbedding, error) {
	emb, err := e.embedRoom(ctx, room)
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.EmbeddingRegenerations.WithLabelValues(result).Inc()
	return emb, err
}

func (e *Engine) embedRoom(ctx context.Context, room *core.Room) (*core.ItemEmbedding, error) {
	if e.deps.Provider == nil {
		return nil, core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeNotSupported, "no embedding provider configured")
	}

	vec, err := e.deps.Provider.Embed(ctx, e.profiles.Build(room))
	if err != nil {
		return nil, err
	}

	emb := &core.ItemEmbedding{RoomID: room.ID, Vector: vec, UpdatedAt: e.now()}
	if err := e.deps.Embeddings.UpsertEmbedding(ctx, emb); err != nil {
		return nil, fmt.Errorf("upsert embedding: %w", err)
	}
	if err := e.syncIndex(ctx, room, vec); err != nil {
		return nil, fmt.Errorf("sync vector index: %w", err)
	}
	return emb, nil
}

// syncIndex 在召回索引独立于向量存储时同步写入，集合不存在时先创建。
func (e *Engine) syncIndex(ctx context.Context, room *core.Room, vec []float64) error {
	db, ok := e.deps.Index.(core.VectorDatabaseService)
	if !ok {
		return nil
	}

	req := &core.VectorUpdateRequest{
		Collection: core.RoomCollection,
		ID:         room.ID,
		Vector:     vec,
		Metadata: map[string]interface{}{
			"status":   string(room.Status),
			"category": string(room.Category),
		},
	}
	err := db.Update(ctx, req)
	if err == nil || !core.IsNotFound(err) {
		return err
	}

	e.indexMu.Lock()
	exists, err := db.HasCollection(ctx, core.RoomCollection)
	if err == nil && !exists {
		err = db.CreateCollection(ctx, &core.VectorCreateCollectionRequest{
			Name:      core.RoomCollection,
			Dimension: len(vec),
			Metric:    string(core.MetricCosine),
		})
	}
	e.indexMu.Unlock()
	if err != nil {
		return err
	}
	return db.Update(ctx, req)
}
