package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rushteam/roomrec/core"
)

// Reservation 是预约记录（只保留推荐需要的字段）。
type Reservation struct {
	ID        string
	UserID    string
	RoomID    string
	Start     time.Time
	End       time.Time
	Status    core.ReservationStatus
	CreatedAt time.Time
}

// Review 是用户评价。
type Review struct {
	UserID string
	RoomID string
	Rating int
}

// MemoryRepository 是推荐核心全部协作方接口的内存实现，用于测试/演示/离线评估。
type MemoryRepository struct {
	mu           sync.RWMutex
	rooms        map[string]*core.Room
	events       map[string][]*core.InteractionEvent // user -> 按追加顺序
	embeddings   map[string]*core.ItemEmbedding
	reviews      []Review
	reservations []Reservation
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		rooms:      make(map[string]*core.Room),
		events:     make(map[string][]*core.InteractionEvent),
		embeddings: make(map[string]*core.ItemEmbedding),
	}
}

func (r *MemoryRepository) Name() string { return "memory" }

// PutRoom 写入或覆盖房间
func (r *MemoryRepository) PutRoom(room *core.Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *room
	cp.Units = append([]core.Unit(nil), room.Units...)
	r.rooms[room.ID] = &cp
}

// AddReview 追加评价
func (r *MemoryRepository) AddReview(rv Review) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reviews = append(r.reviews, rv)
}

// AddReservation 追加预约
func (r *MemoryRepository) AddReservation(res Reservation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reservations = append(r.reservations, res)
}

// ========== core.Catalog ==========

func (r *MemoryRepository) ActiveRooms(_ context.Context, filter core.RoomFilter) ([]*core.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*core.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		if room.IsActive() && filter.Match(room) {
			out = append(out, room)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepository) GetRoom(_ context.Context, roomID string) (*core.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[roomID], nil
}

func (r *MemoryRepository) GetRooms(_ context.Context, roomIDs []string) (map[string]*core.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*core.Room, len(roomIDs))
	for _, id := range roomIDs {
		if room, ok := r.rooms[id]; ok {
			out[id] = room
		}
	}
	return out, nil
}

// ========== core.EventStore ==========

func (r *MemoryRepository) AppendEvent(_ context.Context, event *core.InteractionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *event
	r.events[event.UserID] = append(r.events[event.UserID], &cp)
	return nil
}

// newestFirst 返回按时间倒序的行为；时间相同时后追加的在前
func (r *MemoryRepository) newestFirst(userID string) []*core.InteractionEvent {
	src := r.events[userID]
	out := make([]*core.InteractionEvent, len(src))
	for i, e := range src {
		out[len(src)-1-i] = e
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *MemoryRepository) RecentEvents(_ context.Context, userID string, limit int) ([]*core.InteractionEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := r.newestFirst(userID)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) CountEvents(_ context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.events[userID]), nil
}

func (r *MemoryRepository) InteractedRoomIDs(_ context.Context, userID string, limit int) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, e := range r.newestFirst(userID) {
		if _, ok := seen[e.RoomID]; ok {
			continue
		}
		seen[e.RoomID] = struct{}{}
		out = append(out, e.RoomID)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// ========== core.EmbeddingStore ==========

func (r *MemoryRepository) GetEmbeddings(_ context.Context, roomIDs []string) (map[string][]float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]float64, len(roomIDs))
	for _, id := range roomIDs {
		if emb, ok := r.embeddings[id]; ok {
			out[id] = emb.Vector
		}
	}
	return out, nil
}

func (r *MemoryRepository) UpsertEmbedding(_ context.Context, emb *core.ItemEmbedding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.embeddings[emb.RoomID] = &core.ItemEmbedding{
		RoomID:    emb.RoomID,
		Vector:    clone(emb.Vector),
		UpdatedAt: emb.UpdatedAt,
	}
	return nil
}

// ========== core.StatsSource ==========

func (r *MemoryRepository) RatingStats(_ context.Context) (map[string]core.RatingStat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sums := make(map[string]int)
	counts := make(map[string]int)
	for _, rv := range r.reviews {
		sums[rv.RoomID] += rv.Rating
		counts[rv.RoomID]++
	}
	out := make(map[string]core.RatingStat, len(counts))
	for id, n := range counts {
		out[id] = core.RatingStat{AvgRating: float64(sums[id]) / float64(n), ReviewCount: n}
	}
	return out, nil
}

func (r *MemoryRepository) RecentTransactionCounts(_ context.Context, since time.Time) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]int)
	for _, res := range r.reservations {
		if res.Status.Counted() && !res.CreatedAt.Before(since) {
			out[res.RoomID]++
		}
	}
	return out, nil
}

func (r *MemoryRepository) UserAveragePrice(_ context.Context, userID string) (*float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sum float64
	n := 0
	for _, res := range r.reservations {
		if res.UserID != userID {
			continue
		}
		room, ok := r.rooms[res.RoomID]
		if !ok {
			continue
		}
		sum += room.PricePerHour
		n++
	}
	if n == 0 {
		return nil, nil
	}
	avg := sum / float64(n)
	return &avg, nil
}

// ========== core.ReservationChecker ==========

func (r *MemoryRepository) ConflictingRooms(_ context.Context, roomIDs []string, start, end time.Time) (map[string]struct{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	want := make(map[string]struct{}, len(roomIDs))
	for _, id := range roomIDs {
		want[id] = struct{}{}
	}
	out := make(map[string]struct{})
	for _, res := range r.reservations {
		if _, ok := want[res.RoomID]; !ok || !res.Status.Blocking() {
			continue
		}
		if core.Overlaps(res.Start, res.End, start, end) {
			out[res.RoomID] = struct{}{}
		}
	}
	return out, nil
}

// ========== core.BookingSource ==========

func (r *MemoryRepository) BookedRooms(_ context.Context) (map[string][]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]map[string]struct{})
	out := make(map[string][]string)
	for _, res := range r.reservations {
		if !res.Status.Counted() {
			continue
		}
		if seen[res.UserID] == nil {
			seen[res.UserID] = make(map[string]struct{})
		}
		if _, ok := seen[res.UserID][res.RoomID]; ok {
			continue
		}
		seen[res.UserID][res.RoomID] = struct{}{}
		out[res.UserID] = append(out[res.UserID], res.RoomID)
	}
	return out, nil
}

var (
	_ core.Catalog            = (*MemoryRepository)(nil)
	_ core.EventStore         = (*MemoryRepository)(nil)
	_ core.EmbeddingStore     = (*MemoryRepository)(nil)
	_ core.StatsSource        = (*MemoryRepository)(nil)
	_ core.ReservationChecker = (*MemoryRepository)(nil)
	_ core.BookingSource      = (*MemoryRepository)(nil)
)
