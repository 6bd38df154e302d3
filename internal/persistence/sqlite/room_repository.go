package sqlite

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/example/frontdesk/internal/engine"
	"github.com/example/frontdesk/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository using SQLite.
type RoomRepository struct {
	pool  *ConnectionPool
	retry *RetryHelper
}

// NewRoomRepository creates a new SQLite room repository.
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{pool: pool, retry: NewRetryHelper(DefaultRetryConfig())}
}

// UpsertRoom inserts a room or replaces its attributes and rate table.
func (r *RoomRepository) UpsertRoom(ctx context.Context, room engine.Room) error {
	if room.ID == "" || room.MaxOccupancy <= 0 {
		return persistence.ErrConstraintViolation
	}
	for _, rate := range room.Rates {
		if rate < 0 {
			return persistence.ErrConstraintViolation
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO rooms (id, floor, room_type, max_occupancy, premium, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					floor = excluded.floor,
					room_type = excluded.room_type,
					max_occupancy = excluded.max_occupancy,
					premium = excluded.premium,
					updated_at = excluded.updated_at`,
				room.ID, room.Floor, room.Type, room.MaxOccupancy, room.Premium, now, now)
			if err != nil {
				return mapError(err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM room_rates WHERE room_id = ?`, room.ID); err != nil {
				return mapError(err)
			}
			for tag, rate := range room.Rates {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO room_rates (room_id, period, rate) VALUES (?, ?, ?)`,
					room.ID, string(tag), rate); err != nil {
					return mapError(err)
				}
			}
			return nil
		})
	})
}

// GetRoom retrieves a room with its rate table.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (engine.Room, error) {
	if id == "" {
		return engine.Room{}, persistence.ErrNotFound
	}
	var room engine.Room
	err := r.pool.DB().QueryRowContext(ctx, `
		SELECT id, floor, room_type, max_occupancy, premium
		FROM rooms
		WHERE id = ?`, id).Scan(&room.ID, &room.Floor, &room.Type, &room.MaxOccupancy, &room.Premium)
	if err != nil {
		return engine.Room{}, mapError(err)
	}
	rates, err := r.loadRates(ctx, id)
	if err != nil {
		return engine.Room{}, err
	}
	room.Rates = rates[id]
	return room, nil
}

// ListRooms returns all rooms ordered by floor then id.
func (r *RoomRepository) ListRooms(ctx context.Context) ([]engine.Room, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `
		SELECT id, floor, room_type, max_occupancy, premium
		FROM rooms`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var rooms []engine.Room
	for rows.Next() {
		var room engine.Room
		if err := rows.Scan(&room.ID, &room.Floor, &room.Type, &room.MaxOccupancy, &room.Premium); err != nil {
			return nil, mapError(err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	rates, err := r.loadRates(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range rooms {
		rooms[i].Rates = rates[rooms[i].ID]
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Floor != rooms[j].Floor {
			return rooms[i].Floor < rooms[j].Floor
		}
		return rooms[i].ID < rooms[j].ID
	})
	return rooms, nil
}

// loadRates returns rate tables keyed by room id; an empty roomID loads all.
func (r *RoomRepository) loadRates(ctx context.Context, roomID string) (map[string]map[engine.PeriodTag]float64, error) {
	query := `SELECT room_id, period, rate FROM room_rates`
	var args []any
	if roomID != "" {
		query += ` WHERE room_id = ?`
		args = append(args, roomID)
	}
	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	rates := make(map[string]map[engine.PeriodTag]float64)
	for rows.Next() {
		var id, period string
		var rate float64
		if err := rows.Scan(&id, &period, &rate); err != nil {
			return nil, mapError(err)
		}
		if rates[id] == nil {
			rates[id] = make(map[engine.PeriodTag]float64)
		}
		rates[id][engine.PeriodTag(period)] = rate
	}
	return rates, rows.Err()
}
