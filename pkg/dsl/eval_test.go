package dsl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/pkg/utils"
)

func TestProgram_Eval(t *testing.T) {
	now := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	item := core.NewRoomItem(&core.Room{
		ID:           "vip-1",
		Name:         "VIP ROOM 1",
		Category:     core.CategoryVIP,
		Capacity:     6,
		PricePerHour: 50000,
		Status:       core.RoomActive,
		CreatedAt:    now.AddDate(0, 0, -30),
		Units:        []core.Unit{{ConsoleType: "PS5_PRO", Controllers: 4}},
	})
	item.SetFeature(core.FeatureSimilarity, 0.8)
	item.PutLabel(core.LabelRecallSource, utils.Label{Value: "ann", Source: "recall"})
	rctx := &core.RecommendContext{UserID: "u1", Now: now}

	tests := []struct {
		expr string
		want bool
	}{
		{`room.category == "VIP"`, true},
		{`room.capacity >= 4 && room.price <= 50000.0`, true},
		{`"PS5_PRO" in room.consoles`, true},
		{`room.controllers > 4`, false},
		{`room.age_days == 30`, true},
		{`item.features["similarity"] > 0.5`, true},
		{`label.recall_source == "ann"`, true},
		{`rctx.user_id == "u2"`, false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p, err := Compile(tt.expr)
			require.NoError(t, err)
			got, err := p.Eval(item, rctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	for _, expr := range []string{"", "room.capacity >=", "unknown_var == 1"} {
		_, err := Compile(expr)
		assert.Error(t, err, expr)
	}
}

func TestProgram_NonBool(t *testing.T) {
	p, err := Compile(`room.capacity`)
	if err != nil {
		// 编译期即可识别非布尔表达式
		assert.True(t, core.IsInvalidInput(err))
		return
	}
	_, err = p.Eval(core.NewRoomItem(&core.Room{ID: "a", Capacity: 2}), nil)
	assert.Error(t, err)
}
