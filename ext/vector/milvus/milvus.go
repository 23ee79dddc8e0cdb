// Package milvus 提供基于 Milvus 的房间向量索引，适合目录规模较大、需要 ANN 的部署。
//
// 独立模块，需要单独引入：
//
//	go get github.com/rushteam/roomrec/ext/vector/milvus
//
// 集合结构：id(varchar 主键) / vector(float vector) / status / category，
// 后两列与引擎写入的元数据对应，可在检索时按等值过滤。
package milvus

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/rushteam/roomrec/core"
)

const (
	fieldID       = "id"
	fieldVector   = "vector"
	fieldStatus   = "status"
	fieldCategory = "category"
)

// metadataFields 是集合中的标量列，写入时缺失的值以空字符串填充
var metadataFields = []string{fieldStatus, fieldCategory}

// Service 是 Milvus 实现的 core.VectorDatabaseService。
type Service struct {
	Address  string
	Username string
	Password string
	Database string
	client   *milvusclient.Client
}

type Option func(*Service)

func WithAuth(username, password string) Option {
	return func(s *Service) {
		s.Username = username
		s.Password = password
	}
}

func WithDatabase(database string) Option {
	return func(s *Service) {
		s.Database = database
	}
}

// New 连接 Milvus。
func New(ctx context.Context, address string, opts ...Option) (*Service, error) {
	s := &Service{Address: address, Database: "default"}
	for _, opt := range opts {
		opt(s)
	}

	client, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address:  s.Address,
		Username: s.Username,
		Password: s.Password,
		DBName:   s.Database,
	})
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleVector, core.ErrorCodeUnavailable, "connect milvus", err)
	}
	s.client = client
	return s, nil
}

func (s *Service) Name() string { return "milvus" }

// Search 实现 core.VectorService 接口；结果按分数降序、ID 升序排列。
func (s *Service) Search(ctx context.Context, req *core.VectorSearchRequest) (*core.VectorSearchResult, error) {
	if req == nil || req.Collection == "" {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "collection name is required")
	}
	if len(req.Vector) == 0 {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "query vector is empty")
	}
	topK := req.TopK
	if topK <= 0 {
		topK = 10
	}
	metric := req.Metric
	if !core.ValidateVectorMetric(metric) {
		metric = string(core.MetricCosine)
	}

	// 度量在建集合时确定，检索时不再指定
	opt := milvusclient.NewSearchOption(req.Collection, topK,
		[]entity.Vector{entity.FloatVector(toFloat32(req.Vector))}).
		WithOutputFields(fieldID)

	expr, params, err := buildFilter(req.Filter)
	if err != nil {
		return nil, err
	}
	if expr != "" {
		opt = opt.WithFilter(expr)
		for name, v := range params {
			opt = opt.WithTemplateParam(name, v)
		}
	}

	if ef, ok := req.Params["ef"].(int); ok {
		opt = opt.WithAnnParam(index.NewCustomAnnParam().WithExtraParam("ef", ef))
	}

	results, err := s.client.Search(ctx, opt)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleVector, core.ErrorCodeUnavailable, "milvus search", err)
	}

	items := make([]core.VectorSearchItem, 0, topK)
	for _, rs := range results {
		if rs.Err != nil {
			return nil, core.WrapDomainError(core.ModuleVector, core.ErrorCodeUnavailable, "milvus search", rs.Err)
		}
		for i := 0; i < rs.Len(); i++ {
			id, err := rs.IDs.Get(i)
			if err != nil {
				return nil, fmt.Errorf("read result id: %w", err)
			}
			var raw float64
			if i < len(rs.Scores) {
				raw = float64(rs.Scores[i])
			}
			items = append(items, toItem(fmt.Sprint(id), raw, metric))
		}
	}
	sortItems(items)
	return &core.VectorSearchResult{Items: items}, nil
}

// toItem 把 Milvus 原始分数换算为统一语义：Score 越大越相似。
func toItem(id string, raw float64, metric string) core.VectorSearchItem {
	switch metric {
	case string(core.MetricEuclidean):
		return core.VectorSearchItem{ID: id, Score: 1 / (1 + raw), Distance: raw}
	case string(core.MetricInnerProduct):
		return core.VectorSearchItem{ID: id, Score: raw, Distance: -raw}
	default:
		return core.VectorSearchItem{ID: id, Score: raw, Distance: 1 - raw}
	}
}

func sortItems(items []core.VectorSearchItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
}

// buildFilter 把等值过滤转成模板表达式，只支持集合中的标量列。
func buildFilter(filter map[string]any) (string, map[string]any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	exprs := make([]string, 0, len(keys))
	params := make(map[string]any, len(keys))
	for _, k := range keys {
		if !isMetadataField(k) {
			return "", nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeNotSupported, "unsupported filter key: "+k)
		}
		name := "f_" + k
		exprs = append(exprs, fmt.Sprintf("%s == {%s}", k, name))
		params[name] = fmt.Sprint(filter[k])
	}
	return strings.Join(exprs, " && "), params, nil
}

func isMetadataField(k string) bool {
	for _, f := range metadataFields {
		if f == k {
			return true
		}
	}
	return false
}

// Insert 实现 core.VectorDatabaseService 接口
func (s *Service) Insert(ctx context.Context, req *core.VectorInsertRequest) error {
	if req == nil || req.Collection == "" {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "collection name is required")
	}
	if len(req.Vectors) == 0 || len(req.Vectors) != len(req.IDs) {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vectors and ids length mismatch")
	}

	vectors := make([][]float32, len(req.Vectors))
	for i, v := range req.Vectors {
		vectors[i] = toFloat32(v)
	}
	columns := []column.Column{
		column.NewColumnVarChar(fieldID, req.IDs),
		column.NewColumnFloatVector(fieldVector, len(vectors[0]), vectors),
	}
	for _, f := range metadataFields {
		columns = append(columns, column.NewColumnVarChar(f, metadataColumn(req.Metadata, f, len(req.IDs))))
	}

	if _, err := s.client.Insert(ctx, milvusclient.NewColumnBasedInsertOption(req.Collection, columns...)); err != nil {
		return core.WrapDomainError(core.ModuleVector, core.ErrorCodeUnavailable, "milvus insert", err)
	}
	return nil
}

func metadataColumn(metadata []map[string]any, field string, n int) []string {
	out := make([]string, n)
	for i := 0; i < n && i < len(metadata); i++ {
		if v, ok := metadata[i][field]; ok && v != nil {
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

// Update 以先删后插实现；集合不存在时返回 NOT_FOUND，调用方据此建集合。
func (s *Service) Update(ctx context.Context, req *core.VectorUpdateRequest) error {
	if req == nil {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "update request is nil")
	}
	exists, err := s.HasCollection(ctx, req.Collection)
	if err != nil {
		return err
	}
	if !exists {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeNotFound, "collection not found: "+req.Collection)
	}

	if err := s.Delete(ctx, &core.VectorDeleteRequest{Collection: req.Collection, IDs: []string{req.ID}}); err != nil {
		return err
	}
	return s.Insert(ctx, &core.VectorInsertRequest{
		Collection: req.Collection,
		Vectors:    [][]float64{req.Vector},
		IDs:        []string{req.ID},
		Metadata:   []map[string]any{req.Metadata},
	})
}

// Delete 实现 core.VectorDatabaseService 接口
func (s *Service) Delete(ctx context.Context, req *core.VectorDeleteRequest) error {
	if req == nil || req.Collection == "" || len(req.IDs) == 0 {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "collection and ids are required")
	}
	if _, err := s.client.Delete(ctx, milvusclient.NewDeleteOption(req.Collection).WithStringIDs(fieldID, req.IDs)); err != nil {
		return core.WrapDomainError(core.ModuleVector, core.ErrorCodeUnavailable, "milvus delete", err)
	}
	return nil
}

// CreateCollection 建集合并使用 AUTOINDEX。
func (s *Service) CreateCollection(ctx context.Context, req *core.VectorCreateCollectionRequest) error {
	if req == nil || req.Name == "" {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "collection name is required")
	}
	if req.Dimension <= 0 {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "dimension must be greater than 0")
	}

	schema := entity.NewSchema().
		WithName(req.Name).
		WithField(entity.NewField().
			WithName(fieldID).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(64).
			WithIsPrimaryKey(true)).
		WithField(entity.NewField().
			WithName(fieldVector).
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(req.Dimension)))
	for _, f := range metadataFields {
		schema = schema.WithField(entity.NewField().
			WithName(f).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(32))
	}

	indexOpt := milvusclient.NewCreateIndexOption(req.Name, fieldVector, index.NewAutoIndex(metricType(req.Metric)))
	opt := milvusclient.NewCreateCollectionOption(req.Name, schema).WithIndexOptions(indexOpt)
	if err := s.client.CreateCollection(ctx, opt); err != nil {
		return core.WrapDomainError(core.ModuleVector, core.ErrorCodeUnavailable, "milvus create collection", err)
	}
	return nil
}

func (s *Service) DropCollection(ctx context.Context, collection string) error {
	if err := s.client.DropCollection(ctx, milvusclient.NewDropCollectionOption(collection)); err != nil {
		return core.WrapDomainError(core.ModuleVector, core.ErrorCodeUnavailable, "milvus drop collection", err)
	}
	return nil
}

func (s *Service) HasCollection(ctx context.Context, collection string) (bool, error) {
	exists, err := s.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(collection))
	if err != nil {
		return false, core.WrapDomainError(core.ModuleVector, core.ErrorCodeUnavailable, "milvus has collection", err)
	}
	return exists, nil
}

func (s *Service) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close(context.Background())
}

func metricType(metric string) entity.MetricType {
	switch metric {
	case string(core.MetricEuclidean):
		return entity.L2
	case string(core.MetricInnerProduct):
		return entity.IP
	default:
		return entity.COSINE
	}
}

func toFloat32(vec []float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}

var (
	_ core.VectorService         = (*Service)(nil)
	_ core.VectorDatabaseService = (*Service)(nil)
)
