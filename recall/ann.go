package recall

import (
	"context"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/pipeline"
	"github.com/rushteam/roomrec/pkg/utils"
)

// ANN 是向量相似度召回源：以用户向量检索最相似的 ACTIVE 房间。
// 召回池（TopK）通常大于最终返回数，留给重排调整顺序。
type ANN struct {
	Index   core.VectorService
	Catalog core.Catalog

	// Collection 向量集合名称，默认 core.RoomCollection
	Collection string

	// TopK 候选池大小，默认 50
	TopK int

	// Metric 距离度量，默认 cosine（房间向量与用户向量均已归一化，等价于内积）
	Metric string

	// UserVectorExtractor 从 RecommendContext 提取用户向量（可选，默认读取 rctx.User.Vector）
	UserVectorExtractor func(rctx *core.RecommendContext) []float64
}

func (r *ANN) Name() string        { return "recall.ann" }
func (r *ANN) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *ANN) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。
// 结果按相似度降序、房间 ID 升序。房间状态以目录为准（索引元数据可能过期），
// 命中后回查目录剔除非 ACTIVE 房间。
func (r *ANN) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Index == nil {
		return nil, nil
	}

	var userVector []float64
	if r.UserVectorExtractor != nil {
		userVector = r.UserVectorExtractor(rctx)
	} else if profile := rctx.GetUserProfile(); profile.HasVector() {
		userVector = profile.Vector
	}
	if len(userVector) == 0 {
		return nil, nil
	}

	collection := r.Collection
	if collection == "" {
		collection = core.RoomCollection
	}
	topK := r.TopK
	if topK <= 0 {
		topK = 50
	}
	metric := r.Metric
	if metric == "" {
		metric = string(core.MetricCosine)
	}

	res, err := r.Index.Search(ctx, &core.VectorSearchRequest{
		Collection: collection,
		Vector:     userVector,
		TopK:       topK,
		Metric:     metric,
	})
	if err != nil {
		return nil, err
	}
	if len(res.Items) == 0 {
		return []*core.Item{}, nil
	}

	ids := make([]string, 0, len(res.Items))
	for _, hit := range res.Items {
		ids = append(ids, hit.ID)
	}
	rooms, err := r.Catalog.GetRooms(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(res.Items))
	for _, hit := range res.Items {
		room, ok := rooms[hit.ID]
		if !ok || !room.IsActive() {
			continue
		}
		it := core.NewRoomItem(room)
		it.Score = hit.Score
		it.SetFeature(core.FeatureSimilarity, hit.Score)
		it.PutLabel(core.LabelRecallSource, utils.Label{Value: "ann", Source: "recall"})
		it.PutLabel("ann_metric", utils.Label{Value: metric, Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
