package persistence

import (
	"context"

	"github.com/example/frontdesk/internal/engine"
)

// RoomRepository stores the room catalog.
type RoomRepository interface {
	UpsertRoom(ctx context.Context, room engine.Room) error
	GetRoom(ctx context.Context, id string) (engine.Room, error)
	ListRooms(ctx context.Context) ([]engine.Room, error)
}

// ReservationRepository stores reservations and their daily details.
//
// CreateReservation and UpdateReservation re-check the room for overlapping
// blocking reservations inside the write transaction and fail with
// ErrConflictOnCommit instead of storing a double booking. A nil details
// slice on update leaves the stored daily details untouched.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation engine.Reservation, details []engine.DailyDetail) error
	UpdateReservation(ctx context.Context, reservation engine.Reservation, details []engine.DailyDetail) error
	GetReservation(ctx context.Context, id string) (engine.Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]engine.Reservation, error)
	ListDailyDetails(ctx context.Context, reservationID string) ([]engine.DailyDetail, error)
}
