package engine

import "time"

// Room is immutable catalog data for a bookable room.
type Room struct {
	ID           string
	Floor        int
	Type         string
	MaxOccupancy int
	Rates        map[PeriodTag]float64
	Premium      bool
}

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusCheckedIn  Status = "checked_in"
	StatusCheckedOut Status = "checked_out"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Blocking reports whether a reservation in this status occupies its room.
// Cancelled and no-show reservations release their nights.
func (s Status) Blocking() bool {
	switch s {
	case StatusCancelled, StatusNoShow:
		return false
	}
	return s.Valid()
}

// GuestKind distinguishes registered guests from provisional placeholders.
type GuestKind uint8

const (
	GuestUnset GuestKind = iota
	GuestRegistered
	GuestPlaceholder
)

func (k GuestKind) String() string {
	switch k {
	case GuestRegistered:
		return "registered"
	case GuestPlaceholder:
		return "placeholder"
	default:
		return "unset"
	}
}

// GuestRef identifies the guest a reservation belongs to. It is either a
// registered guest id or a placeholder reference for a guest who has not been
// registered yet; the two never compare equal even when the strings match.
type GuestRef struct {
	kind GuestKind
	ref  string
}

// RegisteredGuest references a guest record owned by the guest directory.
func RegisteredGuest(id string) GuestRef {
	return GuestRef{kind: GuestRegistered, ref: id}
}

// PlaceholderGuest references a provisional guest by a local reference.
func PlaceholderGuest(localRef string) GuestRef {
	return GuestRef{kind: GuestPlaceholder, ref: localRef}
}

// Kind returns the variant held by g.
func (g GuestRef) Kind() GuestKind { return g.kind }

// Ref returns the raw identifier regardless of variant.
func (g GuestRef) Ref() string { return g.ref }

// Registered returns the guest id when g is a registered guest.
func (g GuestRef) Registered() (string, bool) {
	return g.ref, g.kind == GuestRegistered
}

// Placeholder returns the local reference when g is a placeholder.
func (g GuestRef) Placeholder() (string, bool) {
	return g.ref, g.kind == GuestPlaceholder
}

// IsZero reports whether no guest has been set.
func (g GuestRef) IsZero() bool { return g.kind == GuestUnset }

func (g GuestRef) String() string {
	if g.kind == GuestUnset {
		return ""
	}
	return g.kind.String() + ":" + g.ref
}

// StayServices are the stay-level service defaults applied to every night
// that has no DailyDetail override.
type StayServices struct {
	Parking      bool
	ParkingSpots int
	Pets         bool
	PetCount     int
}

// Spots returns the number of parking spots charged per night.
func (s StayServices) Spots() int {
	if !s.Parking {
		return 0
	}
	if s.ParkingSpots < 1 {
		return 1
	}
	return s.ParkingSpots
}

// StayTotals are the monetary totals stored with a reservation.
type StayTotals struct {
	Accommodation float64
	Services      float64
	TourismTax    float64
	VAT           float64
	Grand         float64
}

// Reservation is a read-model snapshot of a booking.
type Reservation struct {
	ID        string
	RoomID    string
	Guest     GuestRef
	CheckIn   time.Time
	CheckOut  time.Time
	Adults    int
	ChildAges []int
	Status    Status
	Services  StayServices
	Totals    StayTotals
	UpdatedAt time.Time
}

// Nights returns the length of the stay.
func (r Reservation) Nights() int {
	return NightsBetween(r.CheckIn, r.CheckOut)
}

// Guests returns the stay-level guest list.
func (r Reservation) Guests() GuestList {
	ages := make([]int, len(r.ChildAges))
	copy(ages, r.ChildAges)
	return GuestList{Adults: r.Adults, ChildAges: ages}
}

// GuestList is the nominal occupancy of a stay.
type GuestList struct {
	Adults    int
	ChildAges []int
}

// Count returns the number of guests.
func (g GuestList) Count() int {
	return g.Adults + len(g.ChildAges)
}

// DailyDetail overrides presence and service consumption for one night of a
// stay. Every field is explicit: a detail replaces the stay-level defaults
// for its date entirely.
type DailyDetail struct {
	Date         time.Time
	Adults       int
	ChildAges    []int
	ParkingSpots int
	Pets         bool
	Towels       int
	Note         string
}

// ConflictLevel qualifies how many blocking reservations cover a day.
type ConflictLevel string

const (
	ConflictNone    ConflictLevel = "none"
	ConflictPartial ConflictLevel = "partial"
	// ConflictFull means more than one reservation holds the same night,
	// which is a double booking upstream rather than a business conflict.
	ConflictFull ConflictLevel = "full"
)

// ConflictResult is the availability of one room on one night.
type ConflictResult struct {
	RoomID    string
	Date      time.Time
	Available bool
	Blocking  []Reservation
	Level     ConflictLevel
}

// RangeValidation is the uniform result of create and move validation.
type RangeValidation struct {
	RoomID    string
	CheckIn   time.Time
	CheckOut  time.Time
	IsValid   bool
	Conflicts []Reservation
}
