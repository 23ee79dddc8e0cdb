package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rushteam/roomrec/config"
	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/embedding"
	"github.com/rushteam/roomrec/engine"
	"github.com/rushteam/roomrec/feature"
	"github.com/rushteam/roomrec/filter"
	"github.com/rushteam/roomrec/logging"
	"github.com/rushteam/roomrec/store"
	"github.com/rushteam/roomrec/store/postgres"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "roomrec",
		Short:         "Hybrid room recommendation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env 可选，不存在时只使用进程环境变量
			_ = godotenv.Load()
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config file")

	root.AddCommand(
		newRecommendCmd(),
		newLogEventCmd(),
		newRegenerateCmd(),
		newEvaluateCmd(),
		newScheduleCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app 持有一次命令执行所需的全部协作方。
type app struct {
	cfg      *config.Config
	engine   *engine.Engine
	stats    *feature.StatsService
	events   core.EventStore
	bookings core.BookingSource
	log      zerolog.Logger
	closers  []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn().Err(err).Msg("close failed")
		}
	}
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logging.Init(cfg.Log)

	a := &app{cfg: cfg, log: logging.WithComponent("cli")}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	provider, err := config.BuildProvider(cfg.Embedding, logging.WithComponent("embedding"))
	if err != nil {
		return nil, err
	}

	var cache core.Store
	if cfg.Store.Redis.Addr != "" {
		rs, err := store.NewRedisStore(cfg.Store.Redis.Addr, cfg.Store.Redis.DB, store.WithKeyPrefix(cfg.Store.Redis.Prefix))
		if err != nil {
			return nil, err
		}
		cache = rs
	} else {
		cache = store.NewMemoryStore()
	}
	a.closers = append(a.closers, cache.Close)

	rc := cfg.ToRecommendConfig()
	var deps engine.Deps
	warmup := false
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		repo, err := postgres.Open(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, repo.Close)
		deps = engine.Deps{
			Catalog: repo, Events: repo, Embeddings: repo, Stats: repo, Reservations: repo,
			Index: repo,
		}
		a.bookings = repo
	default:
		repo := store.NewMemoryRepository()
		if cfg.Store.Fixture != "" {
			f, err := store.LoadFixtureFile(cfg.Store.Fixture)
			if err != nil {
				return nil, err
			}
			if err := f.Apply(repo, time.Now()); err != nil {
				return nil, err
			}
		}
		index := store.NewMemoryVectorService()
		a.closers = append(a.closers, index.Close)
		deps = engine.Deps{
			Catalog: repo, Events: repo, Embeddings: repo, Stats: repo, Reservations: repo,
			Index: index,
		}
		a.bookings = repo
		warmup = true
	}
	deps.Provider = provider
	a.events = deps.Events

	a.stats = feature.NewStatsService(deps.Stats,
		feature.WithCache(cache, cfg.Store.StatsTTL),
		feature.WithWindow(rc.TrendingWindow),
		feature.WithLogger(logging.WithComponent("feature")),
	)
	deps.StatsService = a.stats

	if cfg.Filter.Expr != "" {
		f, err := filter.NewExprFilter(cfg.Filter.Expr)
		if err != nil {
			return nil, err
		}
		deps.Filters = append(deps.Filters, f)
	}

	a.engine, err = engine.New(deps, rc,
		engine.WithLogger(logging.WithComponent("recommend")),
		engine.WithProfileBuilder(embedding.NewProfileBuilder(cfg.Embedding.Currency)),
	)
	if err != nil {
		return nil, err
	}

	// 内存索引进程内有效，启动时先建好
	if warmup {
		if _, err := a.engine.RegenerateAllEmbeddings(ctx); err != nil {
			return nil, err
		}
	}

	ok = true
	return a, nil
}
