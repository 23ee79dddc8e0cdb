// Package metrics 汇总推荐引擎的 Prometheus 指标。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 推荐请求
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomrec_recommendations_total",
			Help: "Total number of recommendation requests by serving path",
		},
		[]string{"path"}, // "personalized", "trending"
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roomrec_recommendation_duration_seconds",
			Help:    "Duration of recommendation requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	RecommendationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomrec_recommendation_errors_total",
			Help: "Total number of failed recommendation requests",
		},
		[]string{"code"},
	)

	// Pipeline 节点
	PipelineNodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roomrec_pipeline_node_duration_seconds",
			Help:    "Duration of a single pipeline node in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"node", "kind"},
	)

	PipelineNodeItems = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roomrec_pipeline_node_items",
			Help:    "Number of items emitted by a pipeline node",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		},
		[]string{"node"},
	)

	// 行为与向量
	EventsLogged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomrec_events_logged_total",
			Help: "Total number of interaction events appended",
		},
		[]string{"kind"},
	)

	EmbeddingRegenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomrec_embedding_regenerations_total",
			Help: "Total number of room embedding regenerations by result",
		},
		[]string{"result"}, // "success", "failure"
	)

	EmbeddingRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roomrec_embedding_request_duration_seconds",
			Help:    "Duration of embedding provider calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "roomrec_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// 统计快照缓存
	StatsCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomrec_stats_cache_requests_total",
			Help: "Aggregate stats cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss", "error"
	)
)

// ObserveRecommendation 记录一次推荐请求
func ObserveRecommendation(path string, start time.Time) {
	RecommendationsTotal.WithLabelValues(path).Inc()
	RecommendationDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
}

// ObserveNode 记录一次 Pipeline 节点执行
func ObserveNode(node, kind string, start time.Time, items int) {
	PipelineNodeDuration.WithLabelValues(node, kind).Observe(time.Since(start).Seconds())
	PipelineNodeItems.WithLabelValues(node).Observe(float64(items))
}

// ObserveEmbedding 记录一次向量化调用
func ObserveEmbedding(provider string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	EmbeddingRequestDuration.WithLabelValues(provider, result).Observe(time.Since(start).Seconds())
}
