package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/frontdesk/internal/engine"
)

const maxChildAge = 17

func validateRoomID(field, roomID string, vErr *ValidationError) {
	if strings.TrimSpace(roomID) == "" {
		vErr.add(field, "room is required")
	}
}

func validateStay(checkIn, checkOut time.Time, maxNights int, vErr *ValidationError) {
	switch {
	case checkIn.IsZero():
		vErr.add("check_in", "check-in date is required")
	case checkOut.IsZero():
		vErr.add("check_out", "check-out date is required")
	case !engine.Day(checkOut).After(engine.Day(checkIn)):
		vErr.add("check_out", "check-out must be after check-in")
	case maxNights > 0 && engine.NightsBetween(checkIn, checkOut) > maxNights:
		vErr.add("check_out", fmt.Sprintf("stay cannot exceed %d nights", maxNights))
	}
}

func validateWindow(start time.Time, days, maxDays int, vErr *ValidationError) {
	if start.IsZero() {
		vErr.add("start", "start date is required")
	}
	switch {
	case days <= 0:
		vErr.add("days", "days must be positive")
	case maxDays > 0 && days > maxDays:
		vErr.add("days", fmt.Sprintf("days cannot exceed %d", maxDays))
	}
}

func validateGuests(prefix string, adults int, childAges []int, requireGuest bool, vErr *ValidationError) {
	if adults < 0 {
		vErr.add(prefix+"adults", "adults cannot be negative")
	} else if requireGuest && adults == 0 {
		vErr.add(prefix+"adults", "at least one adult is required")
	}
	for _, age := range childAges {
		if age < 0 || age > maxChildAge {
			vErr.add(prefix+"child_ages", fmt.Sprintf("child ages must be between 0 and %d", maxChildAge))
			break
		}
	}
}

func validateServices(services engine.StayServices, vErr *ValidationError) {
	if services.ParkingSpots < 0 {
		vErr.add("services.parking_spots", "parking spots cannot be negative")
	}
	if services.PetCount < 0 {
		vErr.add("services.pet_count", "pet count cannot be negative")
	}
}

// validateDailyDetails checks that every override falls inside the stay
// and that no night is overridden twice.
func validateDailyDetails(details []engine.DailyDetail, checkIn, checkOut time.Time, vErr *ValidationError) {
	in, out := engine.Day(checkIn), engine.Day(checkOut)
	seen := make(map[time.Time]bool, len(details))
	for i, d := range details {
		prefix := fmt.Sprintf("daily_details[%d].", i)
		date := engine.Day(d.Date)
		switch {
		case d.Date.IsZero():
			vErr.add(prefix+"date", "date is required")
		case date.Before(in) || !date.Before(out):
			vErr.add(prefix+"date", "date must fall within the stay")
		case seen[date]:
			vErr.add(prefix+"date", "date is listed more than once")
		}
		seen[date] = true
		validateGuests(prefix, d.Adults, d.ChildAges, false, vErr)
		if d.ParkingSpots < 0 {
			vErr.add(prefix+"parking_spots", "parking spots cannot be negative")
		}
		if d.Towels < 0 {
			vErr.add(prefix+"towels", "towels cannot be negative")
		}
	}
}

// validateRoom checks catalog data before it is stored. Every period of
// the tariff needs a rate or pricing the room fails later.
func validateRoom(prefix string, room engine.Room, tariff engine.Tariff, vErr *ValidationError) {
	validateRoomID(prefix+"id", room.ID, vErr)
	if room.MaxOccupancy <= 0 {
		vErr.add(prefix+"max_occupancy", "max occupancy must be positive")
	}
	for _, period := range tariff.Periods {
		rate, ok := room.Rates[period.Tag]
		if !ok {
			vErr.add(prefix+"rates", fmt.Sprintf("missing rate for period %s", period.Tag))
			return
		}
		if rate < 0 {
			vErr.add(prefix+"rates", fmt.Sprintf("rate for period %s cannot be negative", period.Tag))
			return
		}
	}
}

// normalizeDetails truncates dates to whole days and returns a non-nil
// slice so an empty list clears stored overrides.
func normalizeDetails(details []engine.DailyDetail) []engine.DailyDetail {
	out := make([]engine.DailyDetail, 0, len(details))
	for _, d := range details {
		d.Date = engine.Day(d.Date)
		d.ChildAges = append([]int(nil), d.ChildAges...)
		out = append(out, d)
	}
	return out
}

// detailsWithin keeps the overrides that still fall inside [checkIn, checkOut).
func detailsWithin(details []engine.DailyDetail, checkIn, checkOut time.Time) []engine.DailyDetail {
	in, out := engine.Day(checkIn), engine.Day(checkOut)
	kept := make([]engine.DailyDetail, 0, len(details))
	for _, d := range details {
		date := engine.Day(d.Date)
		if date.Before(in) || !date.Before(out) {
			continue
		}
		kept = append(kept, d)
	}
	return kept
}

var statusTransitions = map[engine.Status][]engine.Status{
	engine.StatusPending:   {engine.StatusConfirmed, engine.StatusCancelled},
	engine.StatusConfirmed: {engine.StatusCheckedIn, engine.StatusCancelled, engine.StatusNoShow},
	engine.StatusCheckedIn: {engine.StatusCheckedOut},
}

func canTransition(from, to engine.Status) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// sameRoom reports whether two catalog entries are identical.
func sameRoom(a, b engine.Room) bool {
	if a.ID != b.ID || a.Floor != b.Floor || a.Type != b.Type ||
		a.MaxOccupancy != b.MaxOccupancy || a.Premium != b.Premium || len(a.Rates) != len(b.Rates) {
		return false
	}
	for tag, rate := range a.Rates {
		if other, ok := b.Rates[tag]; !ok || other != rate {
			return false
		}
	}
	return true
}
