package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/rushteam/roomrec/core"
)

func (r *Repository) RatingStats(ctx context.Context) (map[string]core.RatingStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT room_id::text, AVG(rating)::float8, COUNT(*)
		FROM reviews
		GROUP BY room_id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to aggregate reviews")
	}
	defer rows.Close()

	out := make(map[string]core.RatingStat)
	for rows.Next() {
		var id string
		var st core.RatingStat
		if err := rows.Scan(&id, &st.AvgRating, &st.ReviewCount); err != nil {
			return nil, errors.Wrap(err, "failed to scan review stats")
		}
		out[id] = st
	}
	return out, rows.Err()
}

func (r *Repository) RecentTransactionCounts(ctx context.Context, since time.Time) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT room_id::text, COUNT(*)
		FROM reservations
		WHERE created_at >= $1 AND status::text IN ('CONFIRMED', 'COMPLETED')
		GROUP BY room_id`, since)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count reservations")
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, errors.Wrap(err, "failed to scan reservation count")
		}
		out[id] = n
	}
	return out, rows.Err()
}

func (r *Repository) UserAveragePrice(ctx context.Context, userID string) (*float64, error) {
	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx, `
		SELECT AVG(r.base_price_per_hour)::float8
		FROM rooms r
		INNER JOIN reservations res ON r.id = res.room_id
		WHERE res.user_id::text = $1`, userID).Scan(&avg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute user average price")
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}

func (r *Repository) ConflictingRooms(ctx context.Context, roomIDs []string, start, end time.Time) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	if len(roomIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT room_id::text
		FROM reservations
		WHERE room_id::text = ANY($1)
			AND status::text = 'CONFIRMED'
			AND start_time < $3
			AND end_time > $2`, pq.Array(roomIDs), start, end)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find conflicting reservations")
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "failed to scan room id")
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

func (r *Repository) BookedRooms(ctx context.Context) (map[string][]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT user_id::text, room_id::text
		FROM reservations
		WHERE status::text IN ('CONFIRMED', 'COMPLETED')
		ORDER BY 1, 2`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list booked rooms")
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var userID, roomID string
		if err := rows.Scan(&userID, &roomID); err != nil {
			return nil, errors.Wrap(err, "failed to scan booking")
		}
		out[userID] = append(out[userID], roomID)
	}
	return out, rows.Err()
}
