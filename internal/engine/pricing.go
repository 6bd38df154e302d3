package engine

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// RateBasis says what a room's base rate is charged for.
type RateBasis string

const (
	// RatePerPerson charges the base rate for each paying guest present.
	RatePerPerson RateBasis = "per_person"
	// RatePerRoom charges the base rate once per occupied night.
	RatePerRoom RateBasis = "per_room"
)

// PricingRules is the business configuration the calculator applies on top
// of room rates and seasonal periods.
type PricingRules struct {
	RateBasis RateBasis
	// Children younger than ChildFreeAge pay nothing for accommodation.
	ChildFreeAge int
	// Children younger than ChildDiscountAge (and not free) pay the base rate
	// reduced by ChildDiscountPercent.
	ChildDiscountAge     int
	ChildDiscountPercent float64
	// Children younger than TourismTaxChildAge are exempt from tourism tax.
	TourismTaxChildAge int
	// PremiumSurchargePercent raises the base rate of premium rooms.
	PremiumSurchargePercent float64

	ParkingFee float64
	PetFee     float64
	TowelFee   float64

	VATRate     float64
	VATIncluded bool
}

// DefaultPricingRules returns the house rules used when nothing is configured.
func DefaultPricingRules() PricingRules {
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

// Validate reports inconsistent rules.
func (r PricingRules) Validate() error {
	var problems []string
	switch r.RateBasis {
	case RatePerPerson, RatePerRoom, "":
	default:
		problems = append(problems, fmt.Sprintf("unknown rate basis %q", r.RateBasis))
	}
	if r.ChildFreeAge < 0 || r.ChildDiscountAge < 0 || r.TourismTaxChildAge < 0 {
		problems = append(problems, "age thresholds must not be negative")
	}
	if r.ChildDiscountPercent < 0 || r.ChildDiscountPercent > 100 {
		problems = append(problems, "child discount must be between 0 and 100 percent")
	}
	if r.PremiumSurchargePercent < 0 {
		problems = append(problems, "premium surcharge must not be negative")
	}
	if r.ParkingFee < 0 || r.PetFee < 0 || r.TowelFee < 0 {
		problems = append(problems, "fees must not be negative")
	}
	if r.VATRate < 0 || r.VATRate >= 1 {
		problems = append(problems, "vat rate must be in [0, 1)")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRules, strings.Join(problems, "; "))
	}
	return nil
}

func (r PricingRules) basis() RateBasis {
	if r.RateBasis == "" {
		return RatePerPerson
	}
	return r.RateBasis
}

// NightServices is the service consumption of a single night.
type NightServices struct {
	ParkingSpots int
	Pets         bool
	Towels       int
}

// PricingBreakdown itemises one night. Figures are not rounded.
type PricingBreakdown struct {
	Date          time.Time
	Period        PeriodTag
	BaseRate      float64
	Adults        int
	Children      int
	Accommodation float64
	Parking       float64
	Pets          float64
	Towels        float64
	TourismTax    float64
	// Services is parking, pets, towels and tourism tax.
	Services    float64
	VAT         float64
	VATIncluded bool
	Total       float64
	Warnings    []OccupancyWarning
}

// Calculator prices single nights.
type Calculator struct {
	rules PricingRules
}

// NewCalculator returns a calculator applying rules.
func NewCalculator(rules PricingRules) *Calculator {
	return &Calculator{rules: rules}
}

// Rules returns the rules the calculator applies.
func (c *Calculator) Rules() PricingRules { return c.rules }

// PriceNight prices one night in room during period for the guests present.
// Exceeding the room's maximum occupancy is reported as a warning, never as
// an error.
func (c *Calculator) PriceNight(room Room, period SeasonalPeriod, adults int, childAges []int, services NightServices) (PricingBreakdown, error) {
	if adults < 0 || services.ParkingSpots < 0 || services.Towels < 0 {
		return PricingBreakdown{}, fmt.Errorf("price room %s: %w", room.ID, ErrInvalidQuantity)
	}
	for _, age := range childAges {
		if age < 0 {
			return PricingBreakdown{}, fmt.Errorf("price room %s: child age %d: %w", room.ID, age, ErrInvalidQuantity)
		}
	}
	rate, ok := room.Rates[period.Tag]
	if !ok {
		return PricingBreakdown{}, fmt.Errorf("price room %s period %s: %w", room.ID, period.Tag, ErrMissingRate)
	}
	if room.Premium {
		rate *= 1 + c.rules.PremiumSurchargePercent/100
	}

	b := PricingBreakdown{
		Period:      period.Tag,
		BaseRate:    rate,
		Adults:      adults,
		Children:    len(childAges),
		VATIncluded: c.rules.VATIncluded,
	}
	present := adults + len(childAges)
	if room.MaxOccupancy > 0 && present > room.MaxOccupancy {
		b.Warnings = append(b.Warnings, OccupancyWarning{RoomID: room.ID, Present: present, MaxOccupancy: room.MaxOccupancy})
	}

	b.Accommodation = c.accommodation(rate, adults, childAges)
	b.TourismTax = period.TourismTaxRate * float64(adults+c.taxableChildren(childAges))
	b.Parking = float64(services.ParkingSpots) * c.rules.ParkingFee
	if services.Pets {
		b.Pets = c.rules.PetFee
	}
	b.Towels = float64(services.Towels) * c.rules.TowelFee
	b.Services = b.Parking + b.Pets + b.Towels + b.TourismTax

	// Tourism tax is outside the VAT base.
	taxable := b.Accommodation + b.Parking + b.Pets + b.Towels
	b.VAT = c.vat(taxable)

	b.Total = b.Accommodation + b.Services
	if !c.rules.VATIncluded {
		b.Total += b.VAT
	}
	return b, nil
}

func (c *Calculator) accommodation(rate float64, adults int, childAges []int) float64 {
	if adults+len(childAges) == 0 {
		return 0
	}
	if c.rules.basis() == RatePerRoom {
		return rate
	}
	total := rate * float64(adults)
	for _, age := range childAges {
		total += rate * c.childShare(age)
	}
	return total
}

// childShare is the fraction of the per-person rate a child of age pays.
func (c *Calculator) childShare(age int) float64 {
	switch {
	case age < c.rules.ChildFreeAge:
		return 0
	case age < c.rules.ChildDiscountAge:
		return 1 - c.rules.ChildDiscountPercent/100
	default:
		return 1
	}
}

func (c *Calculator) taxableChildren(childAges []int) int {
	n := 0
	for _, age := range childAges {
		if age >= c.rules.TourismTaxChildAge {
			n++
		}
	}
	return n
}

func (c *Calculator) vat(taxable float64) float64 {
	if c.rules.VATRate == 0 || taxable == 0 {
		return 0
	}
	if c.rules.VATIncluded {
		return taxable - taxable/(1+c.rules.VATRate)
	}
	return taxable * c.rules.VATRate
}

// centEpsilon absorbs binary representation error in v*100, so decimal
// halves such as 1.005 round away from zero.
const centEpsilon = 1e-9

// RoundCurrency rounds v to cents, half away from zero.
func RoundCurrency(v float64) float64 {
	return math.Round(v*100+math.Copysign(centEpsilon, v)) / 100
}
