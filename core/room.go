package core

import (
	"slices"
	"time"
)

// RoomCategory 房间类别。
type RoomCategory string

const (
	CategoryVIP       RoomCategory = "VIP"
	CategoryRegular   RoomCategory = "REGULER"
	CategoryPSSeries  RoomCategory = "PS_SERIES"
	CategorySimulator RoomCategory = "SIMULATOR"
)

// RoomStatus 房间状态，只有 ACTIVE 的房间可被推荐。
type RoomStatus string

const (
	RoomActive      RoomStatus = "ACTIVE"
	RoomMaintenance RoomStatus = "MAINTENANCE"
	RoomInactive    RoomStatus = "INACTIVE"
)

// ConsoleType 房间内主机类型。
type ConsoleType string

const (
	ConsolePS4Slim        ConsoleType = "PS4_SLIM"
	ConsolePS4Pro         ConsoleType = "PS4_PRO"
	ConsolePS5Slim        ConsoleType = "PS5_SLIM"
	ConsolePS5Pro         ConsoleType = "PS5_PRO"
	ConsoleNintendoSwitch ConsoleType = "NINTENDO_SWITCH"
)

// Unit 是房间内的一台主机。
type Unit struct {
	ConsoleType ConsoleType
	Controllers int
}

// Room 是目录中的房间记录，对推荐核心只读。
type Room struct {
	ID           string
	Name         string
	Description  string
	Category     RoomCategory
	Capacity     int
	PricePerHour float64
	Status       RoomStatus
	CreatedAt    time.Time
	Units        []Unit
}

func (r *Room) IsActive() bool {
	return r != nil && r.Status == RoomActive
}

// RoomFilter 是请求级房间筛选条件，零值表示不过滤。
type RoomFilter struct {
	Categories  []RoomCategory
	MinCapacity int
	MaxPrice    float64
}

func (f RoomFilter) IsZero() bool {
	return len(f.Categories) == 0 && f.MinCapacity <= 0 && f.MaxPrice <= 0
}

// Match 判断房间是否满足筛选条件。
func (f RoomFilter) Match(r *Room) bool {
	if r == nil {
		return false
	}
	if len(f.Categories) > 0 && !slices.Contains(f.Categories, r.Category) {
		return false
	}
	if f.MinCapacity > 0 && r.Capacity < f.MinCapacity {
		return false
	}
	if f.MaxPrice > 0 && r.PricePerHour > f.MaxPrice {
		return false
	}
	return true
}
