package engine

import (
	"fmt"
	"time"
)

// StayPricingSummary is the invoice view of a stay. Nights keep unrounded
// figures; every total is rounded to currency precision exactly once.
type StayPricingSummary struct {
	Nights             []PricingBreakdown
	TotalNights        int
	TotalAccommodation float64
	// TotalServices includes tourism tax.
	TotalServices   float64
	TotalTourismTax float64
	TotalVAT        float64
	VATIncluded     bool
	GrandTotal      float64
	Warnings        []OccupancyWarning
}

// Totals returns the summary in the shape stored with a reservation.
func (s StayPricingSummary) Totals() StayTotals {
	return StayTotals{
		Accommodation: s.TotalAccommodation,
		Services:      s.TotalServices,
		TourismTax:    s.TotalTourismTax,
		VAT:           s.TotalVAT,
		Grand:         s.GrandTotal,
	}
}

// Aggregator prices whole stays night by night.
type Aggregator struct {
	resolver   *Resolver
	calculator *Calculator
}

// NewAggregator combines a resolver and a calculator.
func NewAggregator(resolver *Resolver, calculator *Calculator) *Aggregator {
	return &Aggregator{resolver: resolver, calculator: calculator}
}

// Aggregate prices every night of [checkIn, checkOut) for room. A night with
// a DailyDetail uses that detail's presence and services verbatim; every other
// night assumes the full guest list and the stay-level services. Overrides
// dated outside the stay are ignored.
func (a *Aggregator) Aggregate(room Room, checkIn, checkOut time.Time, guests GuestList, services StayServices, overrides []DailyDetail) (StayPricingSummary, error) {
	if err := validRange(checkIn, checkOut); err != nil {
		return StayPricingSummary{}, err
	}
	byDate := make(map[time.Time]DailyDetail, len(overrides))
	for _, o := range overrides {
		byDate[Day(o.Date)] = o
	}
	defaults := NightServices{ParkingSpots: services.Spots(), Pets: services.Pets}

	var summary StayPricingSummary
	var accommodation, svc, tax, vat float64
	summary.VATIncluded = a.calculator.rules.VATIncluded
	err := eachNight(checkIn, checkOut, func(day time.Time) error {
		period, err := a.resolver.ResolvePeriod(day)
		if err != nil {
			return fmt.Errorf("aggregate room %s: %w", room.ID, err)
		}
		adults, children, night := guests.Adults, guests.ChildAges, defaults
		if o, ok := byDate[day]; ok {
			adults, children = o.Adults, o.ChildAges
			night = NightServices{ParkingSpots: o.ParkingSpots, Pets: o.Pets, Towels: o.Towels}
		}
		b, err := a.calculator.PriceNight(room, period, adults, children, night)
		if err != nil {
			return fmt.Errorf("aggregate %s: %w", day.Format(DateLayout), err)
		}
		b.Date = day
		for i := range b.Warnings {
			b.Warnings[i].Date = day
		}
		summary.Nights = append(summary.Nights, b)
		summary.Warnings = append(summary.Warnings, b.Warnings...)
		accommodation += b.Accommodation
		svc += b.Services
		tax += b.TourismTax
		vat += b.VAT
		return nil
	})
	if err != nil {
		return StayPricingSummary{}, err
	}

	summary.TotalNights = len(summary.Nights)
	summary.TotalAccommodation = RoundCurrency(accommodation)
	summary.TotalServices = RoundCurrency(svc)
	summary.TotalTourismTax = RoundCurrency(tax)
	summary.TotalVAT = RoundCurrency(vat)
	grand := summary.TotalAccommodation + summary.TotalServices
	if !summary.VATIncluded {
		grand += summary.TotalVAT
	}
	summary.GrandTotal = RoundCurrency(grand)
	return summary, nil
}
