package postgres

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/rushteam/roomrec/core"
)

func (r *Repository) AppendEvent(ctx context.Context, event *core.InteractionEvent) error {
	var rating sql.NullInt64
	if event.Rating != nil {
		rating = sql.NullInt64{Int64: int64(*event.Rating), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_events (id, user_id, room_id, event_type, rating_value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.UserID, event.RoomID, string(event.Kind), rating, event.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to insert user event")
	}
	return nil
}

func (r *Repository) RecentEvents(ctx context.Context, userID string, limit int) ([]*core.InteractionEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id::text, user_id::text, room_id::text, event_type::text, rating_value, created_at
		FROM user_events
		WHERE user_id::text = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list user events")
	}
	defer rows.Close()

	list := []*core.InteractionEvent{}
	for rows.Next() {
		var e core.InteractionEvent
		var kind string
		var rating sql.NullInt64
		if err := rows.Scan(&e.ID, &e.UserID, &e.RoomID, &kind, &rating, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan user event")
		}
		e.Kind = core.EventKind(kind)
		if rating.Valid {
			v := int(rating.Int64)
			e.Rating = &v
		}
		list = append(list, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *Repository) CountEvents(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_events WHERE user_id::text = $1`, userID).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count user events")
	}
	return n, nil
}

func (r *Repository) InteractedRoomIDs(ctx context.Context, userID string, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT room_id::text
		FROM user_events
		WHERE user_id::text = $1
		GROUP BY room_id
		ORDER BY MAX(created_at) DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list interacted rooms")
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "failed to scan room id")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
