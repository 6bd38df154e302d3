package engine

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"
)

func TestOverlapsMatchesIntervalRule(t *testing.T) {
	t.Parallel()

	origin := date(t, "2025-07-01")
	day := func(n int) time.Time { return origin.AddDate(0, 0, n) }
	d := NewDetector()

	for a := 0; a < 6; a++ {
		for b := a + 1; b <= 6; b++ {
			for c := 0; c < 6; c++ {
				for e := c + 1; e <= 6; e++ {
					existing := []Reservation{{ID: "r1", RoomID: "R1", Status: StatusConfirmed, CheckIn: day(a), CheckOut: day(b)}}
					got, err := d.FindOverlaps("R1", day(c), day(e), existing, "")
					if err != nil {
						t.Fatalf("find overlaps: %v", err)
					}
					want := a < e && c < b
					if (len(got) == 1) != want {
						t.Fatalf("[%d,%d) vs [%d,%d): overlap=%v, want %v", a, b, c, e, len(got) == 1, want)
					}
				}
			}
		}
	}
}

func TestDetectorFindOverlaps(t *testing.T) {
	t.Parallel()

	d := NewDetector()

	t.Run("adjacent stays do not conflict", func(t *testing.T) {
		t.Parallel()
		existing := []Reservation{booking(t, "r1", "R1", "2025-07-10", "2025-07-13")}
		got, err := d.FindOverlaps("R1", date(t, "2025-07-13"), date(t, "2025-07-15"), existing, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected no overlaps, got %v", ids(got))
		}
		got, err = d.FindOverlaps("R1", date(t, "2025-07-08"), date(t, "2025-07-10"), existing, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected no overlaps before check-in, got %v", ids(got))
		}
	})

	t.Run("other rooms and released statuses are ignored", func(t *testing.T) {
		t.Parallel()
		cancelled := booking(t, "r2", "R1", "2025-07-10", "2025-07-13")
		cancelled.Status = StatusCancelled
		noShow := booking(t, "r3", "R1", "2025-07-10", "2025-07-13")
		noShow.Status = StatusNoShow
		existing := []Reservation{
			booking(t, "r1", "R2", "2025-07-10", "2025-07-13"),
			cancelled,
			noShow,
		}
		got, err := d.FindOverlaps("R1", date(t, "2025-07-11"), date(t, "2025-07-12"), existing, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected no overlaps, got %v", ids(got))
		}
	})

	t.Run("excluded id is skipped", func(t *testing.T) {
		t.Parallel()
		existing := []Reservation{booking(t, "r1", "R1", "2025-07-10", "2025-07-13")}
		got, err := d.FindOverlaps("R1", date(t, "2025-07-10"), date(t, "2025-07-13"), existing, "r1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected excluded reservation to be skipped, got %v", ids(got))
		}
	})

	t.Run("inverted or empty range is rejected", func(t *testing.T) {
		t.Parallel()
		for _, tc := range [][2]string{{"2025-07-13", "2025-07-10"}, {"2025-07-10", "2025-07-10"}} {
			_, err := d.FindOverlaps("R1", date(t, tc[0]), date(t, tc[1]), nil, "")
			if !errors.Is(err, ErrInvalidDateRange) {
				t.Fatalf("range %v: expected ErrInvalidDateRange, got %v", tc, err)
			}
			var rangeErr *DateRangeError
			if !errors.As(err, &rangeErr) {
				t.Fatalf("range %v: expected *DateRangeError, got %T", tc, err)
			}
		}
	})
}

func TestCheckAvailabilityPartialConflict(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	existing := []Reservation{booking(t, "r-july", "R1", "2025-07-10", "2025-07-13")}

	results, err := e.CheckAvailability("R1", date(t, "2025-07-12"), date(t, "2025-07-15"), existing, "")
	if err != nil {
		t.Fatalf("check availability: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected one result per night, got %d", len(results))
	}
	first := results[0]
	if !first.Date.Equal(date(t, "2025-07-12")) {
		t.Fatalf("expected first result on 2025-07-12, got %s", first.Date)
	}
	if first.Available || first.Level != ConflictPartial {
		t.Fatalf("expected partial conflict on 2025-07-12, got available=%v level=%s", first.Available, first.Level)
	}
	if got := ids(first.Blocking); !reflect.DeepEqual(got, []string{"r-july"}) {
		t.Fatalf("expected r-july blocking, got %v", got)
	}
	for _, res := range results[1:] {
		if !res.Available || res.Level != ConflictNone || len(res.Blocking) != 0 {
			t.Fatalf("expected %s to be free, got %+v", res.Date.Format(DateLayout), res)
		}
	}

	validation, err := e.ValidateCreate("R1", 11, 13, date(t, "2025-07-01"), existing)
	if err != nil {
		t.Fatalf("validate create: %v", err)
	}
	if validation.IsValid {
		t.Fatalf("expected July 12-15 request to be rejected")
	}
	if got := ids(validation.Conflicts); !reflect.DeepEqual(got, []string{"r-july"}) {
		t.Fatalf("expected one conflict r-july, got %v", got)
	}
}

func TestCheckAvailabilityFullConflict(t *testing.T) {
	t.Parallel()

	d := NewDetector()
	existing := []Reservation{
		booking(t, "a", "R1", "2025-03-01", "2025-03-04"),
		booking(t, "b", "R1", "2025-03-03", "2025-03-05"),
	}
	results, err := d.CheckAvailability("R1", date(t, "2025-03-01"), date(t, "2025-03-05"), existing, "")
	if err != nil {
		t.Fatalf("check availability: %v", err)
	}
	want := []ConflictLevel{ConflictPartial, ConflictPartial, ConflictFull, ConflictPartial}
	for i, res := range results {
		if res.Level != want[i] {
			t.Fatalf("night %d: expected %s, got %s", i, want[i], res.Level)
		}
	}
	if len(results[2].Blocking) != 2 {
		t.Fatalf("expected both reservations on the double-booked night, got %v", ids(results[2].Blocking))
	}
}

func TestReservationIndexMatchesLinearScan(t *testing.T) {
	t.Parallel()

	origin := date(t, "2025-01-01")
	var snapshot []Reservation
	// Deterministic pseudo-random layout with long and short stays, overlaps
	// and released reservations across three rooms.
	seed := uint32(7)
	next := func(n int) int {
		seed = seed*1664525 + 1013904223
		return int(seed>>16) % n
	}
	for i := 0; i < 120; i++ {
		start := next(90)
		r := Reservation{
			ID:       fmt.Sprintf("r%03d", i),
			RoomID:   fmt.Sprintf("R%d", next(3)),
			CheckIn:  origin.AddDate(0, 0, start),
			CheckOut: origin.AddDate(0, 0, start+1+next(14)),
			Status:   StatusConfirmed,
		}
		if next(5) == 0 {
			r.Status = StatusCancelled
		}
		snapshot = append(snapshot, r)
	}

	d := NewDetector()
	idx := NewReservationIndex(snapshot)
	for room := 0; room < 4; room++ {
		roomID := fmt.Sprintf("R%d", room)
		for start := -5; start < 100; start += 3 {
			for length := 1; length <= 10; length += 4 {
				in := origin.AddDate(0, 0, start)
				out := in.AddDate(0, 0, length)
				want, err := d.FindOverlaps(roomID, in, out, snapshot, "r010")
				if err != nil {
					t.Fatalf("linear scan: %v", err)
				}
				got, err := idx.FindOverlaps(roomID, in, out, "r010")
				if err != nil {
					t.Fatalf("index: %v", err)
				}
				if !sameIDs(ids(want), ids(got)) {
					t.Fatalf("%s [%s,%s): linear %v, index %v", roomID, in.Format(DateLayout), out.Format(DateLayout), ids(want), ids(got))
				}
			}
		}
	}

	if _, err := idx.FindOverlaps("R1", origin, origin, ""); !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange from index, got %v", err)
	}
}

func TestReservationIndexCheckAvailability(t *testing.T) {
	t.Parallel()

	existing := []Reservation{booking(t, "r1", "R1", "2025-07-10", "2025-07-13")}
	idx := NewReservationIndex(existing)
	if idx.Len("R1") != 1 || idx.Len("R9") != 0 {
		t.Fatalf("unexpected index sizes: R1=%d R9=%d", idx.Len("R1"), idx.Len("R9"))
	}
	results, err := idx.CheckAvailability("R1", date(t, "2025-07-12"), date(t, "2025-07-14"), "")
	if err != nil {
		t.Fatalf("check availability: %v", err)
	}
	if results[0].Level != ConflictPartial || results[1].Level != ConflictNone {
		t.Fatalf("unexpected levels %s %s", results[0].Level, results[1].Level)
	}
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		seen[id]--
		if seen[id] < 0 {
			return false
		}
	}
	return true
}
