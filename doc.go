// Package roomrec 是游戏房间的混合推荐引擎。
//
// 设计要点：
//   - Pipeline-first: 推荐逻辑由 Node 串联（Recall → Filter → Rank → ReRank）
//   - 冷启动不是错误：匿名或行为不足的用户得到热门结果
//   - 协作方都是接口：目录、行为、向量、统计、预约各自可替换（内存 / PostgreSQL / Milvus）
//
// 最小用法：
//
//	repo := store.NewMemoryRepository()
//	eng, _ := roomrec.New(roomrec.Deps{
//		Catalog: repo, Events: repo, Embeddings: repo, Stats: repo, Reservations: repo,
//		Index:    store.NewMemoryVectorService(),
//		Provider: embedding.NewHashProvider(0, 42),
//	}, core.DefaultRecommendConfig())
//	res, _ := eng.Recommend(ctx, roomrec.Request{UserID: "u1"})
package roomrec

import (
	"github.com/rushteam/roomrec/engine"
	"github.com/rushteam/roomrec/pipeline"
)

// 轻量 facade：便于直接 import "roomrec" 使用核心入口。
type (
	Engine     = engine.Engine
	Deps       = engine.Deps
	Request    = engine.Request
	EventInput = engine.EventInput
	Option     = engine.Option

	Pipeline = pipeline.Pipeline
	Node     = pipeline.Node
	Kind     = pipeline.Kind
)

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

// New 创建推荐引擎，见 engine.New。
var New = engine.New
