package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/example/frontdesk/internal/engine"
)

// DefaultTariff is the house schedule used when no tariff file is
// configured: A in winter, B in spring and October, C around early and late
// summer, D in high summer.
func DefaultTariff() engine.Tariff {
	return engine.Tariff{Periods: []engine.SeasonalPeriod{
		{Tag: engine.PeriodA, Name: "Low", TourismTaxRate: 1.00, Spans: []engine.DateSpan{
			engine.RecurringSpan(time.January, 1, time.March, 31),
			engine.RecurringSpan(time.November, 1, time.December, 31),
		}},
		{Tag: engine.PeriodB, Name: "Mid", TourismTaxRate: 1.35, Spans: []engine.DateSpan{
			engine.RecurringSpan(time.April, 1, time.May, 25),
			engine.RecurringSpan(time.October, 1, time.October, 31),
		}},
		{Tag: engine.PeriodC, Name: "Shoulder", TourismTaxRate: 1.35, Spans: []engine.DateSpan{
			engine.RecurringSpan(time.May, 26, time.June, 30),
			engine.RecurringSpan(time.September, 1, time.September, 30),
		}},
		{Tag: engine.PeriodD, Name: "High", TourismTaxRate: 1.50, Spans: []engine.DateSpan{
			engine.RecurringSpan(time.July, 1, time.August, 31),
		}},
	}}
}

type tariffFile struct {
	Year    int          `json:"year"`
	Periods []periodFile `json:"periods"`
}

type periodFile struct {
	Tag        string     `json:"tag"`
	Name       string     `json:"name"`
	TourismTax float64    `json:"tourism_tax"`
	Spans      []spanFile `json:"spans"`
}

// spanFile bounds are either "MM-DD" for a span recurring every year or
// "YYYY-MM-DD" for a fixed one. Both bounds must use the same form.
type spanFile struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// LoadTariff reads a JSON tariff file. An empty path yields DefaultTariff.
func LoadTariff(path string) (engine.Tariff, error) {
	if path == "" {
		return DefaultTariff(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return engine.Tariff{}, fmt.Errorf("config: open tariff: %w", err)
	}
	defer f.Close()
	tariff, err := ParseTariff(f)
	if err != nil {
		return engine.Tariff{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return tariff, nil
}

// ParseTariff decodes and validates a JSON tariff document.
func ParseTariff(r io.Reader) (engine.Tariff, error) {
	var doc tariffFile
	if err := decodeStrict(r, &doc); err != nil {
		return engine.Tariff{}, fmt.Errorf("decode tariff: %w", err)
	}

	tariff := engine.Tariff{Year: doc.Year, Periods: make([]engine.SeasonalPeriod, 0, len(doc.Periods))}
	for i, p := range doc.Periods {
		period := engine.SeasonalPeriod{
			Tag:            engine.PeriodTag(p.Tag),
			Name:           p.Name,
			TourismTaxRate: p.TourismTax,
		}
		for j, s := range p.Spans {
			span, err := parseSpan(s)
			if err != nil {
				return engine.Tariff{}, fmt.Errorf("periods[%d].spans[%d]: %w", i, j, err)
			}
			period.Spans = append(period.Spans, span)
		}
		tariff.Periods = append(tariff.Periods, period)
	}
	if err := tariff.Validate(); err != nil {
		return engine.Tariff{}, err
	}
	return tariff, nil
}

func parseSpan(s spanFile) (engine.DateSpan, error) {
	switch {
	case len(s.Start) == len("01-02") && len(s.End) == len("01-02"):
		// Parsed against a leap year so 02-29 is accepted.
		start, err := engine.ParseDate("2024-" + s.Start)
		if err != nil {
			return engine.DateSpan{}, fmt.Errorf("start %q: %w", s.Start, err)
		}
		end, err := engine.ParseDate("2024-" + s.End)
		if err != nil {
			return engine.DateSpan{}, fmt.Errorf("end %q: %w", s.End, err)
		}
		return engine.RecurringSpan(start.Month(), start.Day(), end.Month(), end.Day()), nil
	case len(s.Start) == len(engine.DateLayout) && len(s.End) == len(engine.DateLayout):
		start, err := engine.ParseDate(s.Start)
		if err != nil {
			return engine.DateSpan{}, fmt.Errorf("start %q: %w", s.Start, err)
		}
		end, err := engine.ParseDate(s.End)
		if err != nil {
			return engine.DateSpan{}, fmt.Errorf("end %q: %w", s.End, err)
		}
		return engine.FixedSpan(start, end), nil
	default:
		return engine.DateSpan{}, fmt.Errorf("span %q..%q must use MM-DD or YYYY-MM-DD on both ends", s.Start, s.End)
	}
}

type roomsFile struct {
	Rooms []roomFile `json:"rooms"`
}

type roomFile struct {
	ID           string             `json:"id"`
	Floor        int                `json:"floor"`
	Type         string             `json:"type"`
	MaxOccupancy int                `json:"max_occupancy"`
	Premium      bool               `json:"premium"`
	Rates        map[string]float64 `json:"rates"`
}

// LoadRooms reads the room catalog from a JSON file. An empty path yields
// no rooms.
func LoadRooms(path string) ([]engine.Room, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open rooms: %w", err)
	}
	defer f.Close()
	rooms, err := ParseRooms(f)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return rooms, nil
}

// ParseRooms decodes a JSON room catalog. Rates are checked against the
// tariff when rooms are imported, not here.
func ParseRooms(r io.Reader) ([]engine.Room, error) {
	var doc roomsFile
	if err := decodeStrict(r, &doc); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	rooms := make([]engine.Room, 0, len(doc.Rooms))
	seen := make(map[string]bool, len(doc.Rooms))
	for i, rf := range doc.Rooms {
		if rf.ID == "" {
			return nil, fmt.Errorf("rooms[%d]: id is required", i)
		}
		if seen[rf.ID] {
			return nil, fmt.Errorf("rooms[%d]: duplicate room %s", i, rf.ID)
		}
		seen[rf.ID] = true
		rates := make(map[engine.PeriodTag]float64, len(rf.Rates))
		for tag, rate := range rf.Rates {
			rates[engine.PeriodTag(tag)] = rate
		}
		rooms = append(rooms, engine.Room{
			ID:           rf.ID,
			Floor:        rf.Floor,
			Type:         rf.Type,
			MaxOccupancy: rf.MaxOccupancy,
			Premium:      rf.Premium,
			Rates:        rates,
		})
	}
	return rooms, nil
}

func decodeStrict(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
