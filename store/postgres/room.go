package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/rushteam/roomrec/core"
)

const roomColumns = `id::text, name, COALESCE(description, ''), category::text, capacity,
	base_price_per_hour::float8, status::text, created_at`

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// buildActiveRoomsQuery 生成带筛选条件的 ACTIVE 房间查询
func buildActiveRoomsQuery(filter core.RoomFilter) (string, []any) {
	where, args := []string{"status = 'ACTIVE'"}, []any{}

	if len(filter.Categories) > 0 {
		cats := make([]string, len(filter.Categories))
		for i, c := range filter.Categories {
			cats[i] = string(c)
		}
		args = append(args, pq.Array(cats))
		where = append(where, "category::text = ANY("+placeholder(len(args))+")")
	}
	if filter.MinCapacity > 0 {
		args = append(args, filter.MinCapacity)
		where = append(where, "capacity >= "+placeholder(len(args)))
	}
	if filter.MaxPrice > 0 {
		args = append(args, filter.MaxPrice)
		where = append(where, "base_price_per_hour <= "+placeholder(len(args)))
	}

	query := `SELECT ` + roomColumns + ` FROM rooms WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id`
	return query, args
}

func (r *Repository) ActiveRooms(ctx context.Context, filter core.RoomFilter) ([]*core.Room, error) {
	query, args := buildActiveRoomsQuery(filter)
	return r.queryRooms(ctx, query, args...)
}

func (r *Repository) GetRoom(ctx context.Context, roomID string) (*core.Room, error) {
	rooms, err := r.GetRooms(ctx, []string{roomID})
	if err != nil {
		return nil, err
	}
	return rooms[roomID], nil
}

func (r *Repository) GetRooms(ctx context.Context, roomIDs []string) (map[string]*core.Room, error) {
	out := make(map[string]*core.Room, len(roomIDs))
	if len(roomIDs) == 0 {
		return out, nil
	}
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id::text = ANY($1)`
	rooms, err := r.queryRooms(ctx, query, pq.Array(roomIDs))
	if err != nil {
		return nil, err
	}
	for _, room := range rooms {
		out[room.ID] = room
	}
	return out, nil
}

func (r *Repository) queryRooms(ctx context.Context, query string, args ...any) ([]*core.Room, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list rooms")
	}
	defer rows.Close()

	list := []*core.Room{}
	byID := make(map[string]*core.Room)
	for rows.Next() {
		var room core.Room
		var category, status string
		if err := rows.Scan(
			&room.ID,
			&room.Name,
			&room.Description,
			&category,
			&room.Capacity,
			&room.PricePerHour,
			&status,
			&room.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan room")
		}
		room.Category = core.RoomCategory(category)
		room.Status = core.RoomStatus(status)
		list = append(list, &room)
		byID[room.ID] = &room
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachUnits(ctx, byID); err != nil {
		return nil, err
	}
	return list, nil
}

// attachUnits 批量加载房间的主机信息
func (r *Repository) attachUnits(ctx context.Context, rooms map[string]*core.Room) error {
	if len(rooms) == 0 {
		return nil
	}
	ids := make([]string, 0, len(rooms))
	for id := range rooms {
		ids = append(ids, id)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT room_id::text, console_type::text, jumlah_stick
		FROM units
		WHERE room_id::text = ANY($1) AND status = 'ACTIVE'
		ORDER BY room_id, id`, pq.Array(ids))
	if err != nil {
		return errors.Wrap(err, "failed to list units")
	}
	defer rows.Close()

	for rows.Next() {
		var roomID, consoleType string
		var controllers int
		if err := rows.Scan(&roomID, &consoleType, &controllers); err != nil {
			return errors.Wrap(err, "failed to scan unit")
		}
		if room, ok := rooms[roomID]; ok {
			room.Units = append(room.Units, core.Unit{ConsoleType: core.ConsoleType(consoleType), Controllers: controllers})
		}
	}
	return rows.Err()
}
