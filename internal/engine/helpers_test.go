package engine

import (
	"testing"
	"time"
)

func date(t testing.TB, value string) time.Time {
	t.Helper()
	d, err := ParseDate(value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return d
}

// seasonTariff is the house schedule: A in winter, B in spring and October,
// C around early and late summer, D in high summer.
func seasonTariff() Tariff {
	return Tariff{Periods: []SeasonalPeriod{
		{Tag: PeriodA, Name: "Low", TourismTaxRate: 1.00, Spans: []DateSpan{
			RecurringSpan(time.January, 1, time.March, 31),
			RecurringSpan(time.November, 1, time.December, 31),
		}},
		{Tag: PeriodB, Name: "Mid", TourismTaxRate: 1.35, Spans: []DateSpan{
			RecurringSpan(time.April, 1, time.May, 25),
			RecurringSpan(time.October, 1, time.October, 31),
		}},
		{Tag: PeriodC, Name: "Shoulder", TourismTaxRate: 1.35, Spans: []DateSpan{
			RecurringSpan(time.May, 26, time.June, 30),
			RecurringSpan(time.September, 1, time.September, 30),
		}},
		{Tag: PeriodD, Name: "High", TourismTaxRate: 1.50, Spans: []DateSpan{
			RecurringSpan(time.July, 1, time.August, 31),
		}},
	}}
}

func testRules() PricingRules {
	return PricingRules{
		RateBasis:            RatePerPerson,
		ChildFreeAge:         3,
		ChildDiscountAge:     12,
		ChildDiscountPercent: 50,
		TourismTaxChildAge:   12,
		ParkingFee:           10,
		PetFee:               15,
		TowelFee:             2,
		VATRate:              0.10,
		VATIncluded:          true,
	}
}

func testRoom(id string) Room {
	return Room{
		ID:           id,
		Floor:        1,
		Type:         "double",
		MaxOccupancy: 3,
		Rates: map[PeriodTag]float64{
			PeriodA: 50,
			PeriodB: 65,
			PeriodC: 75,
			PeriodD: 90,
		},
	}
}

func newTestEngine(t testing.TB) *Engine {
	t.Helper()
	e, err := New(seasonTariff(), testRules())
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	return e
}

func booking(t testing.TB, id, roomID, in, out string) Reservation {
	t.Helper()
	return Reservation{
		ID:       id,
		RoomID:   roomID,
		Guest:    RegisteredGuest("guest-" + id),
		CheckIn:  date(t, in),
		CheckOut: date(t, out),
		Adults:   2,
		Status:   StatusConfirmed,
	}
}

func ids(reservations []Reservation) []string {
	out := make([]string, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, r.ID)
	}
	return out
}

func near(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}
