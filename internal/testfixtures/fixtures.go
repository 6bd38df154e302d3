package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/frontdesk/internal/config"
	"github.com/example/frontdesk/internal/engine"
)

var (
	roomCounter        uint64
	reservationCounter uint64
)

var referenceTime = time.Date(2025, time.July, 1, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures:
// the morning of 2025-07-01, in high season under the house tariff.
func ReferenceTime() time.Time {
	return referenceTime
}

// Date parses a YYYY-MM-DD literal and panics on malformed input.
func Date(value string) time.Time {
	d, err := engine.ParseDate(value)
	if err != nil {
		panic(fmt.Sprintf("testfixtures: bad date %q: %v", value, err))
	}
	return d
}

// Tariff returns the house four-period tariff.
func Tariff() engine.Tariff {
	return config.DefaultTariff()
}

// Rules returns the house pricing rules.
func Rules() engine.PricingRules {
	return engine.DefaultPricingRules()
}

// Engine builds an engine over Tariff and Rules.
func Engine() *engine.Engine {
	eng, err := engine.New(Tariff(), Rules())
	if err != nil {
		panic(fmt.Sprintf("testfixtures: build engine: %v", err))
	}
	return eng
}

// ----------------------------- Room fixtures -----------------------------

// RoomOption configures the generated room fixture.
type RoomOption func(*engine.Room)

// NewRoom returns a deterministic double room priced 50/65/75/90 for periods
// A to D, with optional overrides.
func NewRoom(opts ...RoomOption) engine.Room {
	idx := atomic.AddUint64(&roomCounter, 1)
	room := engine.Room{
		ID:           fmt.Sprintf("%d", 100+idx),
		Floor:        1,
		Type:         "double",
		MaxOccupancy: 3,
		Rates: map[engine.PeriodTag]float64{
			engine.PeriodA: 50,
			engine.PeriodB: 65,
			engine.PeriodC: 75,
			engine.PeriodD: 90,
		},
	}
	for _, opt := range opts {
		opt(&room)
	}
	return room
}

// WithRoomID overrides the generated room number.
func WithRoomID(id string) RoomOption {
	return func(r *engine.Room) {
		r.ID = id
	}
}

// WithFloor places the room on a floor.
func WithFloor(floor int) RoomOption {
	return func(r *engine.Room) {
		r.Floor = floor
	}
}

// WithMaxOccupancy overrides the room capacity.
func WithMaxOccupancy(n int) RoomOption {
	return func(r *engine.Room) {
		r.MaxOccupancy = n
	}
}

// WithRate sets the base rate of one period.
func WithRate(tag engine.PeriodTag, rate float64) RoomOption {
	return func(r *engine.Room) {
		rates := make(map[engine.PeriodTag]float64, len(r.Rates)+1)
		for k, v := range r.Rates {
			rates[k] = v
		}
		rates[tag] = rate
		r.Rates = rates
	}
}

// WithPremium marks the room as premium.
func WithPremium() RoomOption {
	return func(r *engine.Room) {
		r.Premium = true
	}
}

// -------------------------- Reservation fixtures --------------------------

// ReservationOption configures the generated reservation fixture.
type ReservationOption func(*engine.Reservation)

// NewReservation returns a confirmed two-adult stay in roomID over
// [checkIn, checkOut) with optional overrides.
func NewReservation(roomID, checkIn, checkOut string, opts ...ReservationOption) engine.Reservation {
	idx := atomic.AddUint64(&reservationCounter, 1)
	res := engine.Reservation{
		ID:        fmt.Sprintf("fixture-res-%03d", idx),
		RoomID:    roomID,
		Guest:     engine.RegisteredGuest(fmt.Sprintf("guest-%03d", idx)),
		CheckIn:   Date(checkIn),
		CheckOut:  Date(checkOut),
		Adults:    2,
		Status:    engine.StatusConfirmed,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&res)
	}
	return res
}

// WithReservationID overrides the generated identifier.
func WithReservationID(id string) ReservationOption {
	return func(r *engine.Reservation) {
		r.ID = id
	}
}

// WithStatus sets the lifecycle status.
func WithStatus(status engine.Status) ReservationOption {
	return func(r *engine.Reservation) {
		r.Status = status
	}
}

// WithGuests sets the nominal occupancy.
func WithGuests(adults int, childAges ...int) ReservationOption {
	return func(r *engine.Reservation) {
		r.Adults = adults
		r.ChildAges = childAges
	}
}

// WithPlaceholderGuest books the stay for an unregistered guest.
func WithPlaceholderGuest(ref string) ReservationOption {
	return func(r *engine.Reservation) {
		r.Guest = engine.PlaceholderGuest(ref)
	}
}

// WithServices sets the stay-level services.
func WithServices(services engine.StayServices) ReservationOption {
	return func(r *engine.Reservation) {
		r.Services = services
	}
}
