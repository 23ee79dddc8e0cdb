package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/metrics"
)

// EventInput 是待记录的用户行为。
type EventInput struct {
	UserID string
	RoomID string

	// Kind 接受 VIEW / CLICK / BOOK / RATE 或完整的 *_ROOM 形式
	Kind string

	// Rating 只允许出现在 RATE 事件上，取值 1..5
	Rating *int
}

// LogEvent 校验并追加一条用户行为，返回落库后的记录。
// 房间不存在时返回 NOT_FOUND。
func (e *Engine) LogEvent(ctx context.Context, in EventInput) (*core.InteractionEvent, error) {
	kind, err := core.ParseEventKind(in.Kind)
	if err != nil {
		return nil, err
	}

	event := &core.InteractionEvent{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		RoomID:    in.RoomID,
		Kind:      kind,
		Rating:    in.Rating,
		CreatedAt: e.now(),
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}

	room, err := e.deps.Catalog.GetRoom(ctx, in.RoomID)
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	if room == nil {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeNotFound, "room not found: "+in.RoomID)
	}

	if err := e.deps.Events.AppendEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}
	metrics.EventsLogged.WithLabelValues(string(kind)).Inc()
	e.log.Debug().
		Str("user_id", event.UserID).
		Str("room_id", event.RoomID).
		Str("kind", string(kind)).
		Msg("event logged")
	return event, nil
}
