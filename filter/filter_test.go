package filter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/store"
)

func ids(items []*core.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func roomItem(id string, cat core.RoomCategory, capacity int, price float64, status core.RoomStatus) *core.Item {
	return core.NewRoomItem(&core.Room{
		ID: id, Name: id, Category: cat, Capacity: capacity, PricePerHour: price, Status: status,
	})
}

func TestAvailabilityNode_Boundary(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return base.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	repo := store.NewMemoryRepository()
	repo.AddReservation(store.Reservation{RoomID: "busy", Start: at(12, 0), End: at(14, 0), Status: core.ReservationConfirmed})
	repo.AddReservation(store.Reservation{RoomID: "pending", Start: at(12, 0), End: at(14, 0), Status: core.ReservationPendingPayment})

	node := &AvailabilityNode{Checker: repo}

	tests := []struct {
		name   string
		window *core.TimeWindow
		want   []string
	}{
		{name: "no window passes through", window: nil, want: []string{"busy", "free", "pending"}},
		{name: "adjacent is available", window: &core.TimeWindow{Start: at(10, 0), End: at(12, 0)}, want: []string{"busy", "free", "pending"}},
		{name: "overlap is unavailable", window: &core.TimeWindow{Start: at(11, 59), End: at(12, 1)}, want: []string{"free", "pending"}},
		{name: "after end is available", window: &core.TimeWindow{Start: at(14, 0), End: at(15, 0)}, want: []string{"busy", "free", "pending"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := []*core.Item{core.NewItem("busy"), core.NewItem("free"), core.NewItem("pending")}
			out, err := node.Process(ctx, &core.RecommendContext{Window: tt.window}, items)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(out))
		})
	}

	// 没有 Checker 时不能静默跳过窗口
	unchecked := &AvailabilityNode{}
	items := []*core.Item{core.NewItem("busy")}
	out, err := unchecked.Process(ctx, &core.RecommendContext{}, items)
	require.NoError(t, err)
	assert.Len(t, out, 1)
	_, err = unchecked.Process(ctx, &core.RecommendContext{Window: &core.TimeWindow{Start: at(10, 0), End: at(11, 0)}}, items)
	require.Error(t, err)
	assert.True(t, core.IsInvalidInput(err))
}

func TestFilterNode(t *testing.T) {
	items := func() []*core.Item {
		return []*core.Item{
			roomItem("vip", core.CategoryVIP, 6, 50000, core.RoomActive),
			roomItem("reg", core.CategoryRegular, 2, 20000, core.RoomActive),
			roomItem("sim", core.CategorySimulator, 2, 45000, core.RoomMaintenance),
			core.NewItem("orphan"),
		}
	}

	expr, err := NewExprFilter(`room.price <= 45000.0`)
	require.NoError(t, err)

	tests := []struct {
		name    string
		filters []Filter
		rctx    *core.RecommendContext
		want    []string
	}{
		{name: "no filters", filters: nil, rctx: &core.RecommendContext{}, want: []string{"vip", "reg", "sim", "orphan"}},
		{name: "active only", filters: []Filter{&ActiveFilter{}}, rctx: &core.RecommendContext{}, want: []string{"vip", "reg"}},
		{
			name:    "request filter",
			filters: []Filter{&ActiveFilter{}, &RoomFilter{}},
			rctx:    &core.RecommendContext{Filter: core.RoomFilter{MinCapacity: 4}},
			want:    []string{"vip"},
		},
		{
			name:    "expression filter",
			filters: []Filter{&ActiveFilter{}, expr},
			rctx:    &core.RecommendContext{},
			want:    []string{"reg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &FilterNode{Filters: tt.filters}
			out, err := node.Process(context.Background(), tt.rctx, items())
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(out))
		})
	}
}

func TestNewExprFilter_Invalid(t *testing.T) {
	_, err := NewExprFilter(`room.capacity >=`)
	require.Error(t, err)
	assert.True(t, core.IsInvalidInput(err))
}
