package store

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/roomrec/core"
)

// Fixture 是 YAML 格式的演示/测试数据集。
//
// 时间字段二选一：绝对时间（created_at / start）或相对加载时刻的偏移（age / starts_in）。
//
//	rooms:
//	  - id: vip-1
//	    name: VIP ROOM 1
//	    category: VIP
//	    capacity: 6
//	    price_per_hour: 50000
//	    age: 720h
//	    units: [{console_type: PS5_PRO, controllers: 4}]
//	events:
//	  - {user_id: demo, room_id: vip-1, kind: BOOK, age: 2h}
type Fixture struct {
	Rooms        []FixtureRoom        `yaml:"rooms"`
	Events       []FixtureEvent       `yaml:"events"`
	Reviews      []FixtureReview      `yaml:"reviews"`
	Reservations []FixtureReservation `yaml:"reservations"`
}

type FixtureUnit struct {
	ConsoleType string `yaml:"console_type"`
	Controllers int    `yaml:"controllers"`
}

type FixtureRoom struct {
	ID           string        `yaml:"id"`
	Name         string        `yaml:"name"`
	Description  string        `yaml:"description"`
	Category     string        `yaml:"category"`
	Capacity     int           `yaml:"capacity"`
	PricePerHour float64       `yaml:"price_per_hour"`
	Status       string        `yaml:"status"`
	CreatedAt    time.Time     `yaml:"created_at"`
	Age          time.Duration `yaml:"age"`
	Units        []FixtureUnit `yaml:"units"`
}

type FixtureEvent struct {
	UserID    string        `yaml:"user_id"`
	RoomID    string        `yaml:"room_id"`
	Kind      string        `yaml:"kind"`
	Rating    *int          `yaml:"rating"`
	CreatedAt time.Time     `yaml:"created_at"`
	Age       time.Duration `yaml:"age"`
}

type FixtureReview struct {
	UserID string `yaml:"user_id"`
	RoomID string `yaml:"room_id"`
	Rating int    `yaml:"rating"`
}

type FixtureReservation struct {
	ID        string        `yaml:"id"`
	UserID    string        `yaml:"user_id"`
	RoomID    string        `yaml:"room_id"`
	Status    string        `yaml:"status"`
	Start     time.Time     `yaml:"start"`
	StartsIn  time.Duration `yaml:"starts_in"`
	Duration  time.Duration `yaml:"duration"`
	CreatedAt time.Time     `yaml:"created_at"`
	Age       time.Duration `yaml:"age"`
}

// LoadFixture 解析 YAML 数据集。
func LoadFixture(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &f, nil
}

// LoadFixtureFile 从文件解析 YAML 数据集。
func LoadFixtureFile(path string) (*Fixture, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer fh.Close()
	return LoadFixture(fh)
}

func resolveTime(abs time.Time, age time.Duration, now time.Time) time.Time {
	if !abs.IsZero() {
		return abs
	}
	return now.Add(-age)
}

// Apply 把数据集写入内存仓库，相对时间以 now 为基准。
func (f *Fixture) Apply(repo *MemoryRepository, now time.Time) error {
	for _, fr := range f.Rooms {
		if fr.ID == "" || fr.Name == "" {
			return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "fixture room requires id and name")
		}
		status := core.RoomStatus(fr.Status)
		if status == "" {
			status = core.RoomActive
		}
		room := &core.Room{
			ID:           fr.ID,
			Name:         fr.Name,
			Description:  fr.Description,
			Category:     core.RoomCategory(fr.Category),
			Capacity:     fr.Capacity,
			PricePerHour: fr.PricePerHour,
			Status:       status,
			CreatedAt:    resolveTime(fr.CreatedAt, fr.Age, now),
		}
		for _, u := range fr.Units {
			room.Units = append(room.Units, core.Unit{ConsoleType: core.ConsoleType(u.ConsoleType), Controllers: u.Controllers})
		}
		repo.PutRoom(room)
	}

	for i, fe := range f.Events {
		kind, err := core.ParseEventKind(fe.Kind)
		if err != nil {
			return fmt.Errorf("fixture event %d: %w", i, err)
		}
		ev := &core.InteractionEvent{
			ID:        fmt.Sprintf("fixture-event-%d", i+1),
			UserID:    fe.UserID,
			RoomID:    fe.RoomID,
			Kind:      kind,
			Rating:    fe.Rating,
			CreatedAt: resolveTime(fe.CreatedAt, fe.Age, now),
		}
		if err := ev.Validate(); err != nil {
			return fmt.Errorf("fixture event %d: %w", i, err)
		}
		repo.mu.Lock()
		repo.events[ev.UserID] = append(repo.events[ev.UserID], ev)
		repo.mu.Unlock()
	}

	for i, rv := range f.Reviews {
		if rv.Rating < core.MinRating || rv.Rating > core.MaxRating {
			return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput,
				fmt.Sprintf("fixture review %d: rating %d out of range 1-5", i, rv.Rating))
		}
		repo.AddReview(Review{UserID: rv.UserID, RoomID: rv.RoomID, Rating: rv.Rating})
	}

	for i, fr := range f.Reservations {
		status := core.ReservationStatus(fr.Status)
		if status == "" {
			status = core.ReservationConfirmed
		}
		start := fr.Start
		if start.IsZero() {
			start = now.Add(fr.StartsIn)
		}
		duration := fr.Duration
		if duration <= 0 {
			duration = time.Hour
		}
		id := fr.ID
		if id == "" {
			id = fmt.Sprintf("fixture-reservation-%d", i+1)
		}
		repo.AddReservation(Reservation{
			ID:        id,
			UserID:    fr.UserID,
			RoomID:    fr.RoomID,
			Start:     start,
			End:       start.Add(duration),
			Status:    status,
			CreatedAt: resolveTime(fr.CreatedAt, fr.Age, now),
		})
	}
	return nil
}
