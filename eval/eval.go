// Package eval 用真实预约离线评估推荐质量（HitRate@K 与 MRR@K）。
package eval

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/engine"
)

// Recommender 是被评估的推荐入口，*engine.Engine 满足该接口。
type Recommender interface {
	Recommend(ctx context.Context, req engine.Request) (*core.Recommendation, error)
}

// UserResult 是单个用户的评估结果。
type UserResult struct {
	UserID          string  `json:"user_id"`
	ActualBookings  int     `json:"actual_bookings"`
	Recommendations int     `json:"recommendations"`
	IsColdStart     bool    `json:"is_cold_start"`
	HitRate         float64 `json:"hit_rate"`
	MRR             float64 `json:"mrr"`
}

// Report 是一次评估的汇总，Std 为总体标准差。
type Report struct {
	K           int          `json:"k"`
	Users       []UserResult `json:"users"`
	HitRateMean float64      `json:"hit_rate_mean"`
	HitRateStd  float64      `json:"hit_rate_std"`
	MRRMean     float64      `json:"mrr_mean"`
	MRRStd      float64      `json:"mrr_std"`
}

// Evaluator 对有预约的用户逐一请求推荐并计算命中指标。
type Evaluator struct {
	Recommender Recommender
	Bookings    core.BookingSource

	// Events 可选；设置后跳过没有任何行为的用户
	Events core.EventStore

	// MaxLimit 是推荐入口允许的最大返回数，0 表示使用默认配置
	MaxLimit int

	Logger zerolog.Logger
}

// Run 以 K 为截断评估，用户按 ID 升序处理。
func (e *Evaluator) Run(ctx context.Context, k int) (*Report, error) {
	maxK := e.MaxLimit
	if maxK <= 0 {
		maxK = core.DefaultRecommendConfig().MaxLimit
	}
	if k <= 0 || k > maxK {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput,
			fmt.Sprintf("k must be between 1 and %d", maxK))
	}

	booked, err := e.Bookings.BookedRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	users := make([]string, 0, len(booked))
	for u := range booked {
		users = append(users, u)
	}
	sort.Strings(users)

	report := &Report{K: k, Users: []UserResult{}}
	for _, userID := range users {
		actual := booked[userID]
		if len(actual) == 0 {
			continue
		}
		if e.Events != nil {
			n, err := e.Events.CountEvents(ctx, userID)
			if err != nil {
				return nil, fmt.Errorf("count events: %w", err)
			}
			if n == 0 {
				e.Logger.Debug().Str("user_id", userID).Msg("user has no events, skipped")
				continue
			}
		}

		res, err := e.Recommender.Recommend(ctx, engine.Request{UserID: userID, Limit: &k})
		if err != nil {
			return nil, fmt.Errorf("recommend for %s: %w", userID, err)
		}

		ids := make([]string, 0, len(res.Recommendations))
		for _, r := range res.Recommendations {
			ids = append(ids, r.RoomID)
		}
		relevant := make(map[string]struct{}, len(actual))
		for _, id := range actual {
			relevant[id] = struct{}{}
		}

		ur := UserResult{
			UserID:          userID,
			ActualBookings:  len(relevant),
			Recommendations: len(ids),
			IsColdStart:     res.IsColdStart,
			HitRate:         HitRateAtK(ids, relevant, k),
			MRR:             MRRAtK(ids, relevant, k),
		}
		report.Users = append(report.Users, ur)
		e.Logger.Debug().
			Str("user_id", userID).
			Bool("cold_start", ur.IsColdStart).
			Float64("hit_rate", ur.HitRate).
			Float64("mrr", ur.MRR).
			Msg("user evaluated")
	}

	hits := make([]float64, len(report.Users))
	mrrs := make([]float64, len(report.Users))
	for i, u := range report.Users {
		hits[i] = u.HitRate
		mrrs[i] = u.MRR
	}
	report.HitRateMean, report.HitRateStd = meanStd(hits)
	report.MRRMean, report.MRRStd = meanStd(mrrs)
	return report, nil
}

// HitRateAtK 前 K 个推荐中至少命中一个时为 1，否则为 0。
func HitRateAtK(recommended []string, relevant map[string]struct{}, k int) float64 {
	if MRRAtK(recommended, relevant, k) > 0 {
		return 1
	}
	return 0
}

// MRRAtK 返回前 K 个推荐中首个命中位置的倒数，未命中为 0。
func MRRAtK(recommended []string, relevant map[string]struct{}, k int) float64 {
	for i, id := range recommended {
		if i >= k {
			break
		}
		if _, ok := relevant[id]; ok {
			return 1 / float64(i+1)
		}
	}
	return 0
}

func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var sq float64
	for _, x := range xs {
		sq += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(sq / float64(len(xs)))
}
