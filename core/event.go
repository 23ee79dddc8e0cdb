package core

import (
	"fmt"
	"strings"
	"time"
)

// EventKind 用户行为类型。
type EventKind string

const (
	EventView  EventKind = "VIEW_ROOM"
	EventClick EventKind = "CLICK_ROOM"
	EventBook  EventKind = "BOOK_ROOM"
	EventRate  EventKind = "RATE_ROOM"
)

const (
	MinRating = 1
	MaxRating = 5
)

func (k EventKind) Valid() bool {
	switch k {
	case EventView, EventClick, EventBook, EventRate:
		return true
	}
	return false
}

// ParseEventKind 解析行为类型，兼容 "VIEW" 与 "VIEW_ROOM" 两种写法，大小写不敏感。
func ParseEventKind(s string) (EventKind, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if v != "" && !strings.HasSuffix(v, "_ROOM") {
		v += "_ROOM"
	}
	k := EventKind(v)
	if !k.Valid() {
		return "", NewDomainError(ModuleRecommend, ErrorCodeInvalidInput, fmt.Sprintf("unknown event kind %q", s))
	}
	return k, nil
}

// InteractionEvent 是一条不可变的用户行为记录。
type InteractionEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	RoomID    string    `json:"room_id"`
	Kind      EventKind `json:"event_type"`
	Rating    *int      `json:"rating_value,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate 校验行为记录；评分只允许出现在 RATE 事件上且取值 1..5。
func (e *InteractionEvent) Validate() error {
	if e == nil {
		return NewDomainError(ModuleRecommend, ErrorCodeInvalidInput, "event is nil")
	}
	if strings.TrimSpace(e.UserID) == "" {
		return NewDomainError(ModuleRecommend, ErrorCodeInvalidInput, "user id is required")
	}
	if strings.TrimSpace(e.RoomID) == "" {
		return NewDomainError(ModuleRecommend, ErrorCodeInvalidInput, "room id is required")
	}
	if !e.Kind.Valid() {
		return NewDomainError(ModuleRecommend, ErrorCodeInvalidInput, fmt.Sprintf("unknown event kind %q", e.Kind))
	}
	if e.Rating != nil {
		if e.Kind != EventRate {
			return NewDomainError(ModuleRecommend, ErrorCodeInvalidInput, "rating value is only allowed on RATE_ROOM events")
		}
		if *e.Rating < MinRating || *e.Rating > MaxRating {
			return NewDomainError(ModuleRecommend, ErrorCodeInvalidInput, fmt.Sprintf("rating value %d out of range 1-5", *e.Rating))
		}
	}
	return nil
}
