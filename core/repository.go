package core

import (
	"context"
	"time"
)

// 以下为推荐核心消费的协作方接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store、store/postgres）实现
//   - “不存在”用零值表达（nil / 空 map），只有后端故障才返回 error
//
// 实现：
//   - store.MemoryRepository：内存实现，用于测试/演示
//   - postgres.Repository：PostgreSQL + pgvector 实现

// Catalog 是房间目录。
type Catalog interface {
	// ActiveRooms 返回满足筛选条件的 ACTIVE 房间，按 ID 升序
	ActiveRooms(ctx context.Context, filter RoomFilter) ([]*Room, error)

	// GetRoom 读取单个房间，不存在时返回 nil, nil
	GetRoom(ctx context.Context, roomID string) (*Room, error)

	// GetRooms 批量读取房间，缺失的 ID 不出现在结果中
	GetRooms(ctx context.Context, roomIDs []string) (map[string]*Room, error)
}

// EventStore 是只追加的用户行为日志。
type EventStore interface {
	AppendEvent(ctx context.Context, event *InteractionEvent) error

	// RecentEvents 返回用户最近 limit 条行为，新的在前
	RecentEvents(ctx context.Context, userID string, limit int) ([]*InteractionEvent, error)

	CountEvents(ctx context.Context, userID string) (int, error)

	// InteractedRoomIDs 返回用户交互过的去重房间 ID，最近交互的在前
	InteractedRoomIDs(ctx context.Context, userID string, limit int) ([]string, error)
}

// EmbeddingStore 是房间向量存储。
type EmbeddingStore interface {
	// GetEmbeddings 批量读取向量，缺失的 ID 不出现在结果中
	GetEmbeddings(ctx context.Context, roomIDs []string) (map[string][]float64, error)

	// UpsertEmbedding 覆盖写入房间向量
	UpsertEmbedding(ctx context.Context, emb *ItemEmbedding) error
}

// StatsSource 提供聚合统计。
type StatsSource interface {
	// RatingStats 返回有评价房间的评分聚合
	RatingStats(ctx context.Context) (map[string]RatingStat, error)

	// RecentTransactionCounts 返回 since 之后创建的 CONFIRMED/COMPLETED 预约数
	RecentTransactionCounts(ctx context.Context, since time.Time) (map[string]int, error)

	// UserAveragePrice 返回用户预约过房间的平均小时价格，无预约时返回 nil
	UserAveragePrice(ctx context.Context, userID string) (*float64, error)
}

// ReservationChecker 检查预约冲突。
type ReservationChecker interface {
	// ConflictingRooms 返回在 [start,end) 内存在阻塞预约的房间 ID 集合
	ConflictingRooms(ctx context.Context, roomIDs []string, start, end time.Time) (map[string]struct{}, error)
}

// BookingSource 提供用户真实预约，用于离线评估。
type BookingSource interface {
	// BookedRooms 返回每个用户 CONFIRMED/COMPLETED 预约过的房间 ID（去重）
	BookedRooms(ctx context.Context) (map[string][]string, error)
}

// ReservationStatus 预约状态。
type ReservationStatus string

const (
	ReservationPendingPayment ReservationStatus = "PENDING_PAYMENT"
	ReservationConfirmed      ReservationStatus = "CONFIRMED"
	ReservationCancelled      ReservationStatus = "CANCELLED"
	ReservationCompleted      ReservationStatus = "COMPLETED"
)

// Blocking 该状态的预约是否占用房间。
func (s ReservationStatus) Blocking() bool {
	return s == ReservationConfirmed
}

// Counted 该状态的预约是否计入成交。
func (s ReservationStatus) Counted() bool {
	return s == ReservationConfirmed || s == ReservationCompleted
}
