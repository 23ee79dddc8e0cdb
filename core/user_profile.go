package core

import "time"

// UserProfile 是单次请求内的用户画像。
//
// 它不是某一个 Node，而是：
//   - 被所有 Node 共享
//   - 驱动 Recall（用户向量）与 ReRank（价格偏好、解释）
//   - 随请求构建，请求结束即丢弃
//
// 设计要点：
//
//	字段          作用
//	EventCount    冷启动判定
//	Vector        相似度召回
//	AvgPrice      价格匹配打分
//	RecentRooms   推荐解释
type UserProfile struct {
	UserID string

	// 行为统计
	EventCount int

	// Vector 为行为加权平均后的单位向量；为空表示无信号
	Vector []float64

	// AvgPrice 为用户历史预约房间的平均小时价格；为空表示无价格偏好
	AvgPrice *float64

	// RecentRooms 为最近交互过的房间（去重，新的在前）
	RecentRooms []*Room

	UpdateTime time.Time
}

// NewUserProfile 创建一个新的用户画像。
func NewUserProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:      userID,
		RecentRooms: make([]*Room, 0),
		UpdateTime:  time.Now(),
	}
}

// HasVector 是否存在可用的用户向量。
func (p *UserProfile) HasVector() bool {
	return p != nil && len(p.Vector) > 0
}

// HasHistory 是否存在可用于解释的历史房间。
func (p *UserProfile) HasHistory() bool {
	return p != nil && len(p.RecentRooms) > 0
}
