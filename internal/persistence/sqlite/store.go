package sqlite

import (
	"context"

	"github.com/example/frontdesk/internal/persistence"
)

var (
	_ persistence.RoomRepository        = (*RoomRepository)(nil)
	_ persistence.ReservationRepository = (*ReservationRepository)(nil)
	_ persistence.RoomRepository        = (*Store)(nil)
	_ persistence.ReservationRepository = (*Store)(nil)
)

// Store bundles the SQLite-backed repositories over one connection pool.
type Store struct {
	*RoomRepository
	*ReservationRepository

	pool *ConnectionPool
}

// Open connects to the database described by config. Call Migrate before
// first use of a fresh database.
func Open(ctx context.Context, config Config) (*Store, error) {
	pool, err := NewConnectionPool(ctx, config)
	if err != nil {
		return nil, err
	}
	return &Store{
		RoomRepository:        NewRoomRepository(pool),
		ReservationRepository: NewReservationRepository(pool),
		pool:                  pool,
	}, nil
}

// Migrate applies pending schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	return s.pool.Migrate(ctx)
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}
