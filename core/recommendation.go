package core

// ScoreBreakdown 是最终分数的五个归一化分量。
type ScoreBreakdown struct {
	Similarity float64 `json:"similarity"`
	Rating     float64 `json:"rating"`
	Popularity float64 `json:"popularity"`
	PriceMatch float64 `json:"price_match"`
	Freshness  float64 `json:"freshness"`
}

// RecommendedRoom 是对外返回的单条推荐结果。
type RecommendedRoom struct {
	RoomID          string         `json:"room_id"`
	Name            string         `json:"name"`
	Category        RoomCategory   `json:"category"`
	Capacity        int            `json:"capacity"`
	PricePerHour    float64        `json:"base_price_per_hour"`
	AvgRating       *float64       `json:"avg_rating"`
	ReviewCount     int            `json:"review_count"`
	SimilarityScore float64        `json:"similarity_score"`
	FinalScore      float64        `json:"final_score"`
	Reason          string         `json:"reason"`
	Breakdown       ScoreBreakdown `json:"breakdown"`
}

// Recommendation 是一次推荐请求的完整响应。
type Recommendation struct {
	Recommendations []RecommendedRoom `json:"recommendations"`
	IsColdStart     bool              `json:"is_cold_start"`
	UserEventCount  int               `json:"user_event_count"`
}

// RegenerationFailure 记录批量生成向量时单个房间的失败原因。
type RegenerationFailure struct {
	RoomID   string `json:"room_id"`
	RoomName string `json:"room_name"`
	Error    string `json:"error"`
}

// RegenerationReport 是批量生成向量的汇总；Failures 最多保留若干条，FailureCount 为真实失败数。
type RegenerationReport struct {
	Total        int                   `json:"total"`
	SuccessCount int                   `json:"success_count"`
	FailureCount int                   `json:"error_count"`
	Failures     []RegenerationFailure `json:"errors"`
}
