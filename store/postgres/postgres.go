// Package postgres 基于 PostgreSQL + pgvector 实现推荐核心的协作方接口。
//
// 读取的表（由业务侧迁移维护）：
//
//	rooms(id uuid, name, description, category, capacity, base_price_per_hour, status, created_at)
//	units(id, room_id, console_type, jumlah_stick, status)
//	user_events(id, user_id, room_id, event_type, rating_value, created_at)
//	room_embeddings(room_id pk, embedding vector(384), updated_at)
//	reviews(room_id, rating)
//	reservations(room_id, user_id, start_time, end_time, status, created_at)
package postgres

import (
	"context"
	"database/sql"
	"time"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/rushteam/roomrec/core"
)

// Repository 是 PostgreSQL 实现，同时提供 pgvector 相似度检索。
type Repository struct {
	db *sql.DB
}

// Open 连接数据库并校验连通性
func Open(ctx context.Context, dsn string) (*Repository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open db with dsn")
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, core.WrapDomainError(core.ModuleStore, core.ErrorCodeUnavailable, "postgres ping", err)
	}
	return New(db), nil
}

// New 使用已有连接池构造
func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Name() string { return "postgres" }

// Close 实现 core.VectorService 接口，关闭连接池
func (r *Repository) Close() error {
	return r.db.Close()
}

var (
	_ core.Catalog            = (*Repository)(nil)
	_ core.EventStore         = (*Repository)(nil)
	_ core.EmbeddingStore     = (*Repository)(nil)
	_ core.StatsSource        = (*Repository)(nil)
	_ core.ReservationChecker = (*Repository)(nil)
	_ core.BookingSource      = (*Repository)(nil)
	_ core.VectorService      = (*Repository)(nil)
)
