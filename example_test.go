package roomrec_test

import (
	"context"
	"fmt"

	"github.com/rushteam/roomrec"
	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/embedding"
	"github.com/rushteam/roomrec/store"
)

func ExampleNew() {
	ctx := context.Background()
	repo := store.NewMemoryRepository()
	repo.PutRoom(&core.Room{ID: "vip-1", Name: "VIP ROOM 1", Category: core.CategoryVIP, Capacity: 6, PricePerHour: 50000, Status: core.RoomActive})
	repo.PutRoom(&core.Room{ID: "reg-1", Name: "REGULER 1", Category: core.CategoryRegular, Capacity: 4, PricePerHour: 25000, Status: core.RoomActive})

	eng, err := roomrec.New(roomrec.Deps{
		Catalog: repo, Events: repo, Embeddings: repo, Stats: repo, Reservations: repo,
		Index:    store.NewMemoryVectorService(),
		Provider: embedding.NewHashProvider(32, 42),
	}, core.DefaultRecommendConfig())
	if err != nil {
		panic(err)
	}

	limit := 2
	res, err := eng.Recommend(ctx, roomrec.Request{Limit: &limit})
	if err != nil {
		panic(err)
	}
	fmt.Println(res.IsColdStart, len(res.Recommendations))
	// Output: true 2
}
