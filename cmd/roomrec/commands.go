package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/engine"
	"github.com/rushteam/roomrec/eval"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput, "parse time "+s, err)
	}
	return &t, nil
}

func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func newRecommendCmd() *cobra.Command {
	var (
		userID      string
		limit       int
		start, end  string
		categories  []string
		minCapacity int
		maxPrice    float64
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Get room recommendations for a user (anonymous when --user is empty)",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseTime(start)
			if err != nil {
				return err
			}
			to, err := parseTime(end)
			if err != nil {
				return err
			}
			req := engine.Request{
				UserID: userID,
				Start:  from,
				End:    to,
				Filter: core.RoomFilter{MinCapacity: minCapacity, MaxPrice: maxPrice},
			}
			if cmd.Flags().Changed("limit") {
				req.Limit = &limit
			}
			for _, c := range categories {
				req.Filter.Categories = append(req.Filter.Categories, core.RoomCategory(c))
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				res, err := a.engine.Recommend(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(res)
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&userID, "user", "u", "", "user id")
	f.IntVarP(&limit, "limit", "n", 0, "number of rooms to return (default from config)")
	f.StringVar(&start, "start", "", "availability window start (RFC3339)")
	f.StringVar(&end, "end", "", "availability window end (RFC3339)")
	f.StringSliceVar(&categories, "category", nil, "only rooms in these categories")
	f.IntVar(&minCapacity, "min-capacity", 0, "minimum room capacity")
	f.Float64Var(&maxPrice, "max-price", 0, "maximum price per hour")
	return cmd
}

func newLogEventCmd() *cobra.Command {
	var (
		in     engine.EventInput
		rating int
	)
	cmd := &cobra.Command{
		Use:   "log-event",
		Short: "Record a user interaction (VIEW, CLICK, BOOK, RATE)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("rating") {
				in.Rating = &rating
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				ev, err := a.engine.LogEvent(ctx, in)
				if err != nil {
					return err
				}
				return printJSON(ev)
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&in.UserID, "user", "u", "", "user id")
	f.StringVarP(&in.RoomID, "room", "r", "", "room id")
	f.StringVarP(&in.Kind, "kind", "k", "VIEW", "event kind")
	f.IntVar(&rating, "rating", 0, "rating 1-5, RATE events only")
	return cmd
}

func newRegenerateCmd() *cobra.Command {
	var roomID string
	cmd := &cobra.Command{
		Use:   "regenerate",
		Short: "Regenerate the embedding of one room, or of every active room",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if roomID != "" {
					emb, err := a.engine.RegenerateEmbedding(ctx, roomID)
					if err != nil {
						return err
					}
					return printJSON(map[string]any{
						"room_id":    emb.RoomID,
						"dimension":  len(emb.Vector),
						"updated_at": emb.UpdatedAt,
					})
				}
				report, err := a.engine.RegenerateAllEmbeddings(ctx)
				if err != nil {
					return err
				}
				return printJSON(report)
			})
		},
	}
	cmd.Flags().StringVarP(&roomID, "room", "r", "", "room id (all active rooms when empty)")
	return cmd
}

func newEvaluateCmd() *cobra.Command {
	var k int
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate HitRate@K and MRR@K against actual bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				ev := &eval.Evaluator{
					Recommender: a.engine,
					Bookings:    a.bookings,
					Events:      a.events,
					MaxLimit:    a.engine.Config().MaxLimit,
					Logger:      a.log,
				}
				report, err := ev.Run(ctx, k)
				if err != nil {
					return err
				}
				return printJSON(report)
			})
		},
	}
	cmd.Flags().IntVar(&k, "k", 8, "cutoff")
	return cmd
}

func newScheduleCmd() *cobra.Command {
	var (
		spec        string
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Periodically regenerate all embeddings until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if spec == "" {
				spec = a.cfg.Schedule.Regenerate
			}

			c := cron.New(cron.WithLocation(time.UTC))
			if _, err := c.AddFunc(spec, func() {
				report, err := a.engine.RegenerateAllEmbeddings(ctx)
				if err != nil {
					a.log.Error().Err(err).Msg("scheduled regeneration failed")
					return
				}
				if err := a.stats.Invalidate(ctx); err != nil {
					a.log.Warn().Err(err).Msg("invalidate stats cache")
				}
				a.log.Info().
					Int("success", report.SuccessCount).
					Int("failed", report.FailureCount).
					Msg("scheduled regeneration done")
			}); err != nil {
				return core.WrapDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput, "invalid cron spec", err)
			}

			var srv *http.Server
			if metricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				srv = &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						a.log.Error().Err(err).Msg("metrics server stopped")
					}
				}()
			}

			c.Start()
			a.log.Info().Str("cron", spec).Msg("scheduler started")
			<-ctx.Done()

			<-c.Stop().Done()
			if srv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}
			a.log.Info().Msg("scheduler stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&spec, "cron", "", "cron spec (default from config schedule.regenerate)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}
