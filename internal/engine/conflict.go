package engine

import (
	"sort"
	"time"
)

// Detector answers availability questions over a caller-supplied snapshot.
// It holds no state and is safe for concurrent use.
type Detector struct{}

// NewDetector returns a Detector.
func NewDetector() *Detector { return &Detector{} }

// Overlaps is the single interval predicate used throughout the engine:
// [aIn, aOut) and [bIn, bOut) overlap iff aIn < bOut and aOut > bIn.
func Overlaps(aIn, aOut, bIn, bOut time.Time) bool {
	return Day(aIn).Before(Day(bOut)) && Day(aOut).After(Day(bIn))
}

// FindOverlaps returns the blocking reservations of roomID whose stay overlaps
// [checkIn, checkOut). A reservation whose id equals excludeID is ignored.
func (d *Detector) FindOverlaps(roomID string, checkIn, checkOut time.Time, reservations []Reservation, excludeID string) ([]Reservation, error) {
	if err := validRange(checkIn, checkOut); err != nil {
		return nil, err
	}
	var overlaps []Reservation
	for _, r := range reservations {
		if blocks(r, roomID, excludeID) && Overlaps(r.CheckIn, r.CheckOut, checkIn, checkOut) {
			overlaps = append(overlaps, r)
		}
	}
	return overlaps, nil
}

// CheckAvailability returns one result per night in [checkIn, checkOut).
func (d *Detector) CheckAvailability(roomID string, checkIn, checkOut time.Time, reservations []Reservation, excludeID string) ([]ConflictResult, error) {
	candidates, err := d.FindOverlaps(roomID, checkIn, checkOut, reservations, excludeID)
	if err != nil {
		return nil, err
	}
	return dailyResults(roomID, checkIn, checkOut, candidates), nil
}

func dailyResults(roomID string, checkIn, checkOut time.Time, candidates []Reservation) []ConflictResult {
	results := make([]ConflictResult, 0, NightsBetween(checkIn, checkOut))
	_ = eachNight(checkIn, checkOut, func(day time.Time) error {
		next := day.AddDate(0, 0, 1)
		result := ConflictResult{RoomID: roomID, Date: day}
		for _, r := range candidates {
			if Overlaps(r.CheckIn, r.CheckOut, day, next) {
				result.Blocking = append(result.Blocking, r)
			}
		}
		result.Level = levelFor(len(result.Blocking))
		result.Available = result.Level == ConflictNone
		results = append(results, result)
		return nil
	})
	return results
}

func levelFor(matches int) ConflictLevel {
	switch {
	case matches == 0:
		return ConflictNone
	case matches == 1:
		return ConflictPartial
	default:
		return ConflictFull
	}
}

func blocks(r Reservation, roomID, excludeID string) bool {
	if r.RoomID != roomID || !r.Status.Blocking() {
		return false
	}
	return excludeID == "" || r.ID != excludeID
}

// ReservationIndex keeps each room's blocking reservations sorted by
// check-in so overlap queries touch only the neighbourhood of the range.
// It is built once per snapshot and is read-only afterwards.
type ReservationIndex struct {
	rooms map[string]*roomIntervals
}

type roomIntervals struct {
	items []Reservation
	// longest stay in nights; bounds how far back an overlapping stay can start.
	maxNights int
}

// NewReservationIndex indexes the blocking reservations of the snapshot.
func NewReservationIndex(reservations []Reservation) *ReservationIndex {
	idx := &ReservationIndex{rooms: make(map[string]*roomIntervals)}
	for _, r := range reservations {
		if !r.Status.Blocking() || !Day(r.CheckOut).After(Day(r.CheckIn)) {
			continue
		}
		ri := idx.rooms[r.RoomID]
		if ri == nil {
			ri = &roomIntervals{}
			idx.rooms[r.RoomID] = ri
		}
		ri.items = append(ri.items, r)
		if n := r.Nights(); n > ri.maxNights {
			ri.maxNights = n
		}
	}
	for _, ri := range idx.rooms {
		sort.SliceStable(ri.items, func(i, j int) bool {
			return Day(ri.items[i].CheckIn).Before(Day(ri.items[j].CheckIn))
		})
	}
	return idx
}

// Len returns the number of indexed reservations for roomID.
func (idx *ReservationIndex) Len(roomID string) int {
	if ri := idx.rooms[roomID]; ri != nil {
		return len(ri.items)
	}
	return 0
}

// FindOverlaps returns the same reservations as Detector.FindOverlaps over
// the snapshot the index was built from, ordered by check-in.
func (idx *ReservationIndex) FindOverlaps(roomID string, checkIn, checkOut time.Time, excludeID string) ([]Reservation, error) {
	if err := validRange(checkIn, checkOut); err != nil {
		return nil, err
	}
	ri := idx.rooms[roomID]
	if ri == nil {
		return nil, nil
	}
	in, out := Day(checkIn), Day(checkOut)
	// First stay starting on or after checkOut cannot overlap, nor can any after it.
	hi := sort.Search(len(ri.items), func(i int) bool {
		return !Day(ri.items[i].CheckIn).Before(out)
	})
	// Stays starting more than maxNights before checkIn have ended by then.
	earliest := in.AddDate(0, 0, -ri.maxNights)
	lo := sort.Search(hi, func(i int) bool {
		return Day(ri.items[i].CheckIn).After(earliest)
	})
	var overlaps []Reservation
	for _, r := range ri.items[lo:hi] {
		if excludeID != "" && r.ID == excludeID {
			continue
		}
		if Overlaps(r.CheckIn, r.CheckOut, in, out) {
			overlaps = append(overlaps, r)
		}
	}
	return overlaps, nil
}

// CheckAvailability mirrors Detector.CheckAvailability using the index.
func (idx *ReservationIndex) CheckAvailability(roomID string, checkIn, checkOut time.Time, excludeID string) ([]ConflictResult, error) {
	candidates, err := idx.FindOverlaps(roomID, checkIn, checkOut, excludeID)
	if err != nil {
		return nil, err
	}
	return dailyResults(roomID, checkIn, checkOut, candidates), nil
}
