package engine

import (
	"fmt"
	"time"
)

// ValidateMove checks relocating or rescheduling an existing reservation to
// targetRoomID over [newCheckIn, newCheckOut). The reservation itself is
// excluded so it never conflicts with its own current placement.
func (d *Detector) ValidateMove(reservationID, targetRoomID string, newCheckIn, newCheckOut time.Time, rooms []Room, reservations []Reservation) (RangeValidation, error) {
	current, ok := findReservation(reservations, reservationID)
	if !ok {
		return RangeValidation{}, fmt.Errorf("move %s: %w", reservationID, ErrReservationNotFound)
	}
	if _, ok := FindRoom(rooms, current.RoomID); !ok {
		return RangeValidation{}, fmt.Errorf("move %s: source room %s: %w", reservationID, current.RoomID, ErrRoomNotFound)
	}
	if _, ok := FindRoom(rooms, targetRoomID); !ok {
		return RangeValidation{}, fmt.Errorf("move %s: target room %s: %w", reservationID, targetRoomID, ErrRoomNotFound)
	}

	conflicts, err := d.FindOverlaps(targetRoomID, newCheckIn, newCheckOut, reservations, reservationID)
	if err != nil {
		return RangeValidation{}, err
	}
	return RangeValidation{
		RoomID:    targetRoomID,
		CheckIn:   Day(newCheckIn),
		CheckOut:  Day(newCheckOut),
		IsValid:   len(conflicts) == 0,
		Conflicts: conflicts,
	}, nil
}

// FindRoom looks a room up by id.
func FindRoom(rooms []Room, id string) (Room, bool) {
	for _, room := range rooms {
		if room.ID == id {
			return room, true
		}
	}
	return Room{}, false
}

func findReservation(reservations []Reservation, id string) (Reservation, bool) {
	for _, r := range reservations {
		if r.ID == id {
			return r, true
		}
	}
	return Reservation{}, false
}
