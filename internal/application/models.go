package application

import (
	"time"

	"github.com/example/frontdesk/internal/engine"
)

// GuestInput identifies who a reservation is for. Exactly one of GuestID
// and Placeholder may be set; when both are empty a placeholder reference
// is generated.
type GuestInput struct {
	GuestID     string
	Placeholder string
}

// AvailabilityParams asks whether a room is free over [CheckIn, CheckOut).
type AvailabilityParams struct {
	RoomID   string
	CheckIn  time.Time
	CheckOut time.Time
	// ExcludeID ignores one reservation, typically the one being edited.
	ExcludeID string
}

// AvailabilityResult reports per-night availability for a room.
type AvailabilityResult struct {
	RoomID    string
	CheckIn   time.Time
	CheckOut  time.Time
	Available bool
	Days      []engine.ConflictResult
	// DoubleBooked is set when any night is held by more than one
	// reservation, which indicates corrupted data rather than a normal
	// conflict.
	DoubleBooked bool
}

// SelectionParams carries a dragged timeline selection.
type SelectionParams struct {
	RoomID      string
	StartOffset int
	EndOffset   int
	// Origin is the date of timeline offset zero.
	Origin time.Time
}

// QuoteParams prices a stay without booking it.
type QuoteParams struct {
	RoomID    string
	CheckIn   time.Time
	CheckOut  time.Time
	Adults    int
	ChildAges []int
	Services  engine.StayServices
	// DailyDetails overrides individual nights. When nil and ReservationID
	// is set, the stored details of that reservation are used.
	DailyDetails  []engine.DailyDetail
	ReservationID string
}

// Quote is a priced stay.
type Quote struct {
	RoomID   string
	CheckIn  time.Time
	CheckOut time.Time
	Summary  engine.StayPricingSummary
}

// CreateReservationParams wraps the data required to book a room.
type CreateReservationParams struct {
	RoomID       string
	Guest        GuestInput
	CheckIn      time.Time
	CheckOut     time.Time
	Adults       int
	ChildAges    []int
	Services     engine.StayServices
	Status       engine.Status
	DailyDetails []engine.DailyDetail
}

// MoveReservationParams relocates or reschedules an existing reservation.
type MoveReservationParams struct {
	ReservationID string
	TargetRoomID  string
	CheckIn       time.Time
	CheckOut      time.Time
}

// UpdateStatusParams moves a reservation through its lifecycle.
type UpdateStatusParams struct {
	ReservationID string
	Status        engine.Status
}

// SetDailyDetailsParams replaces the per-night overrides of a reservation.
type SetDailyDetailsParams struct {
	ReservationID string
	Details       []engine.DailyDetail
}

// ReservationResult is a stored reservation together with its priced stay.
type ReservationResult struct {
	Reservation engine.Reservation
	Summary     engine.StayPricingSummary
	// Warnings are soft outcomes such as occupancy above the room maximum.
	Warnings []engine.OccupancyWarning
}

// TimelineParams selects the window rendered by the front-desk grid.
type TimelineParams struct {
	Start time.Time
	Days  int
}

// Timeline is the room by day grid.
type Timeline struct {
	Start   time.Time
	Days    int
	Version string
	Rows    []TimelineRow
}

// TimelineRow is one room's line on the grid.
type TimelineRow struct {
	Room  engine.Room
	Cells []TimelineCell
}

// TimelineCell is one night of one room.
type TimelineCell struct {
	Date           time.Time
	Level          engine.ConflictLevel
	ReservationIDs []string
}
