package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/roomrec/core"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	_, err := s.Get(ctx, "missing")
	assert.True(t, core.IsStoreNotFound(err))

	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	// Close 可重复调用
	require.NoError(t, s.Close())
}

func TestMemoryStoreExpired(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	s.data["old"] = &entry{value: []byte("x"), expire: time.Now().Add(-time.Second)}

	_, err := s.Get(context.Background(), "old")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryVectorService_Search(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryVectorService()

	require.NoError(t, svc.CreateCollection(ctx, &core.VectorCreateCollectionRequest{
		Name: core.RoomCollection, Dimension: 2, Metric: "cosine",
	}))
	require.NoError(t, svc.Insert(ctx, &core.VectorInsertRequest{
		Collection: core.RoomCollection,
		IDs:        []string{"b", "a", "c", "d"},
		Vectors:    [][]float64{{1, 0}, {1, 0}, {0, 1}, {1, 1}},
		Metadata: []map[string]any{
			{"status": "ACTIVE"}, {"status": "ACTIVE"}, {"status": "ACTIVE"}, {"status": "MAINTENANCE"},
		},
	}))

	tests := []struct {
		name    string
		req     *core.VectorSearchRequest
		wantIDs []string
		wantErr bool
	}{
		{
			name:    "ties ordered by id",
			req:     &core.VectorSearchRequest{Collection: core.RoomCollection, Vector: []float64{1, 0}, TopK: 3},
			wantIDs: []string{"a", "b", "d"},
		},
		{
			name: "metadata filter",
			req: &core.VectorSearchRequest{Collection: core.RoomCollection, Vector: []float64{1, 0}, TopK: 10,
				Filter: map[string]interface{}{"status": "ACTIVE"}},
			wantIDs: []string{"a", "b", "c"},
		},
		{
			name:    "topk truncates",
			req:     &core.VectorSearchRequest{Collection: core.RoomCollection, Vector: []float64{0, 1}, TopK: 1},
			wantIDs: []string{"c"},
		},
		{
			name:    "unknown collection is empty",
			req:     &core.VectorSearchRequest{Collection: "nope", Vector: []float64{0, 1}},
			wantIDs: []string{},
		},
		{
			name:    "dimension mismatch",
			req:     &core.VectorSearchRequest{Collection: core.RoomCollection, Vector: []float64{1, 0, 0}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Search(ctx, tt.req)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, core.IsInvalidInput(err))
				return
			}
			require.NoError(t, err)
			ids := make([]string, 0, len(res.Items))
			for _, it := range res.Items {
				ids = append(ids, it.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestMemoryVectorService_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryVectorService()

	err := svc.Update(ctx, &core.VectorUpdateRequest{Collection: "x", ID: "a", Vector: []float64{1}})
	assert.True(t, core.IsNotFound(err))

	require.NoError(t, svc.CreateCollection(ctx, &core.VectorCreateCollectionRequest{Name: "x", Dimension: 1}))
	require.NoError(t, svc.Update(ctx, &core.VectorUpdateRequest{Collection: "x", ID: "a", Vector: []float64{1}}))

	res, err := svc.Search(ctx, &core.VectorSearchRequest{Collection: "x", Vector: []float64{1}})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)

	require.NoError(t, svc.Delete(ctx, &core.VectorDeleteRequest{Collection: "x", IDs: []string{"a"}}))
	res, err = svc.Search(ctx, &core.VectorSearchRequest{Collection: "x", Vector: []float64{1}})
	require.NoError(t, err)
	assert.Empty(t, res.Items)

	ok, err := svc.HasCollection(ctx, "x")
	require.NoError(t, err)
	assert.True(t, ok)
}
