package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/rushteam/roomrec/core"
)

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func (r *Repository) GetEmbeddings(ctx context.Context, roomIDs []string) (map[string][]float64, error) {
	out := make(map[string][]float64, len(roomIDs))
	if len(roomIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT room_id::text, embedding
		FROM room_embeddings
		WHERE room_id::text = ANY($1)`, pq.Array(roomIDs))
	if err != nil {
		return nil, errors.Wrap(err, "failed to list room embeddings")
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var vector pgvector.Vector
		if err := rows.Scan(&id, &vector); err != nil {
			return nil, errors.Wrap(err, "failed to scan room embedding")
		}
		out[id] = toFloat64(vector.Slice())
	}
	return out, rows.Err()
}

// UpsertEmbedding inserts or updates a room embedding.
func (r *Repository) UpsertEmbedding(ctx context.Context, emb *core.ItemEmbedding) error {
	stmt := `
		INSERT INTO room_embeddings (room_id, embedding, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (room_id)
		DO UPDATE SET
			embedding = EXCLUDED.embedding,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, stmt, emb.RoomID, pgvector.NewVector(toFloat32(emb.Vector)), emb.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to upsert room embedding")
	}
	return nil
}

// buildSearchQuery 生成 pgvector 检索语句；$1 为查询向量，$2 为 TopK
func buildSearchQuery(req *core.VectorSearchRequest) (string, []any, error) {
	var scoreExpr, orderExpr string
	switch req.Metric {
	case "", string(core.MetricCosine):
		// <=> 为余弦距离（1 - cosine_similarity）
		scoreExpr = "1 - (e.embedding <=> $1)"
		orderExpr = "e.embedding <=> $1"
	case string(core.MetricInnerProduct):
		// <#> 为负内积
		scoreExpr = "(e.embedding <#> $1) * -1"
		orderExpr = "e.embedding <#> $1"
	case string(core.MetricEuclidean):
		scoreExpr = "1 / (1 + (e.embedding <-> $1))"
		orderExpr = "e.embedding <-> $1"
	default:
		return "", nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeNotSupported, "unsupported metric: "+req.Metric)
	}

	topK := req.TopK
	if topK <= 0 {
		topK = 10
	}
	args := []any{pgvector.NewVector(toFloat32(req.Vector)), topK}
	where := []string{"1 = 1"}
	for key, value := range req.Filter {
		switch key {
		case "status":
			args = append(args, fmt.Sprint(value))
			where = append(where, "r.status::text = "+placeholder(len(args)))
		case "category":
			args = append(args, fmt.Sprint(value))
			where = append(where, "r.category::text = "+placeholder(len(args)))
		default:
			return "", nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeNotSupported, "unsupported filter key: "+key)
		}
	}

	query := `
		SELECT r.id::text, ` + scoreExpr + ` AS score
		FROM rooms r
		INNER JOIN room_embeddings e ON r.id = e.room_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY ` + orderExpr + `, r.id
		LIMIT $2`
	return query, args, nil
}

// Search 实现 core.VectorService 接口
func (r *Repository) Search(ctx context.Context, req *core.VectorSearchRequest) (*core.VectorSearchResult, error) {
	if req == nil || len(req.Vector) == 0 {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector is required")
	}
	query, args, err := buildSearchQuery(req)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search room embeddings")
	}
	defer rows.Close()

	items := []core.VectorSearchItem{}
	for rows.Next() {
		var item core.VectorSearchItem
		if err := rows.Scan(&item.ID, &item.Score); err != nil {
			return nil, errors.Wrap(err, "failed to scan search result")
		}
		item.Distance = 1 - item.Score
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &core.VectorSearchResult{Items: items}, nil
}
