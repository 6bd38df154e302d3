// Package notify carries "reservations changed" signals between the writer
// of a change and the holders of reservation snapshots.
package notify

import (
	"context"
	"time"
)

// Kind names what changed.
type Kind string

const (
	KindReservationCreated Kind = "reservation_created"
	KindReservationMoved   Kind = "reservation_moved"
	KindStatusChanged      Kind = "status_changed"
	KindDailyDetails       Kind = "daily_details_changed"
	KindRoomsChanged       Kind = "rooms_changed"
)

// Change tells subscribers to refresh their snapshot.
type Change struct {
	Kind          Kind      `json:"kind"`
	ReservationID string    `json:"reservation_id,omitempty"`
	RoomIDs       []string  `json:"room_ids,omitempty"`
	At            time.Time `json:"at"`
	// Origin identifies the publishing process so it can skip its own echoes.
	Origin string `json:"origin,omitempty"`
}

// Publisher sends change notifications.
type Publisher interface {
	Publish(ctx context.Context, change Change) error
}

// Subscriber receives change notifications until ctx is cancelled.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan Change, error)
}

// Channel is a publish/subscribe transport.
type Channel interface {
	Publisher
	Subscriber
}
