package core

// RatingStat 是单个房间的评价聚合。
type RatingStat struct {
	AvgRating   float64
	ReviewCount int
}

// AggregateStats 是一次请求使用的统计快照：评价聚合 + 近期成交数。
type AggregateStats struct {
	Ratings            map[string]RatingStat
	RecentTransactions map[string]int
}

// Rating 返回房间评价；无评价时 ok 为 false。
func (s *AggregateStats) Rating(roomID string) (RatingStat, bool) {
	if s == nil || s.Ratings == nil {
		return RatingStat{}, false
	}
	st, ok := s.Ratings[roomID]
	if !ok || st.ReviewCount == 0 {
		return RatingStat{}, false
	}
	return st, true
}

// Transactions 返回房间近期成交数。
func (s *AggregateStats) Transactions(roomID string) int {
	if s == nil || s.RecentTransactions == nil {
		return 0
	}
	return s.RecentTransactions[roomID]
}

// MaxRecentTransactions 返回所有房间中的最大近期成交数。
func (s *AggregateStats) MaxRecentTransactions() int {
	maxCount := 0
	if s == nil {
		return maxCount
	}
	for _, c := range s.RecentTransactions {
		if c > maxCount {
			maxCount = c
		}
	}
	return maxCount
}
