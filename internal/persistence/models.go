package persistence

import "time"

// ReservationFilter narrows reservation queries. Zero values do not filter.
// From and To select stays overlapping [From, To).
type ReservationFilter struct {
	RoomID       string
	From         time.Time
	To           time.Time
	BlockingOnly bool
}
