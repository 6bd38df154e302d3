package engine

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRoomNotFound is returned when a room id is absent from the supplied catalog.
	ErrRoomNotFound = errors.New("engine: room not found")
	// ErrReservationNotFound is returned when a reservation id is absent from the supplied snapshot.
	ErrReservationNotFound = errors.New("engine: reservation not found")
	// ErrNoMatchingPeriod is returned when no seasonal period covers a date.
	ErrNoMatchingPeriod = errors.New("engine: no matching seasonal period")
	// ErrInvalidDateRange is returned when check-out is not after check-in.
	ErrInvalidDateRange = errors.New("engine: invalid date range")
	// ErrMissingRate is returned when a room has no base rate for a resolved period.
	ErrMissingRate = errors.New("engine: room has no rate for period")
	// ErrInvalidQuantity is returned for negative guest or service counts.
	ErrInvalidQuantity = errors.New("engine: invalid quantity")
	// ErrInvalidTariff is returned when a tariff fails validation.
	ErrInvalidTariff = errors.New("engine: invalid tariff")
	// ErrInvalidRules is returned when pricing rules fail validation.
	ErrInvalidRules = errors.New("engine: invalid pricing rules")
)

// DateRangeError reports a range whose check-out is not after its check-in.
type DateRangeError struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func (e *DateRangeError) Error() string {
	return fmt.Sprintf("engine: invalid date range [%s, %s)", e.CheckIn.Format(DateLayout), e.CheckOut.Format(DateLayout))
}

// Is makes errors.Is(err, ErrInvalidDateRange) hold.
func (e *DateRangeError) Is(target error) bool {
	return target == ErrInvalidDateRange
}

// OccupancyWarning is a soft outcome: the guests present exceed the room's
// maximum occupancy. Callers decide whether to block or merely warn.
type OccupancyWarning struct {
	RoomID       string
	Date         time.Time
	Present      int
	MaxOccupancy int
}

func (w OccupancyWarning) String() string {
	if w.Date.IsZero() {
		return fmt.Sprintf("room %s: %d guests exceed max occupancy %d", w.RoomID, w.Present, w.MaxOccupancy)
	}
	return fmt.Sprintf("room %s on %s: %d guests exceed max occupancy %d", w.RoomID, w.Date.Format(DateLayout), w.Present, w.MaxOccupancy)
}
