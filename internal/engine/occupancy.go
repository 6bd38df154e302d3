package engine

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// DailyOccupancy is the number of occupied rooms on one date.
type DailyOccupancy struct {
	Date     time.Time
	Occupied int
}

// OccupancyReport summarises fleet occupancy over a window.
type OccupancyReport struct {
	Start           time.Time
	Days            int
	TotalRooms      int
	OccupiedRoomIDs []string
	// Rate is the share of rooms occupied at least one night in the window,
	// as a rounded whole percentage.
	Rate  int
	Daily []DailyOccupancy
}

// OccupancyStats reports which rooms are occupied at least one night within
// [start, start+days). It is a reporting query and never gates bookings.
func (d *Detector) OccupancyStats(start time.Time, days int, reservations []Reservation, rooms []Room) (OccupancyReport, error) {
	if days <= 0 {
		return OccupancyReport{}, fmt.Errorf("occupancy over %d days: %w", days, ErrInvalidDateRange)
	}
	start = Day(start)
	end := start.AddDate(0, 0, days)
	report := OccupancyReport{Start: start, Days: days, TotalRooms: len(rooms)}
	report.Daily = make([]DailyOccupancy, days)
	for i := range report.Daily {
		report.Daily[i].Date = start.AddDate(0, 0, i)
	}

	occupied := make(map[string]bool)
	for _, room := range rooms {
		results, err := d.CheckAvailability(room.ID, start, end, reservations, "")
		if err != nil {
			return OccupancyReport{}, err
		}
		for i, res := range results {
			if res.Available {
				continue
			}
			occupied[room.ID] = true
			report.Daily[i].Occupied++
		}
	}

	report.OccupiedRoomIDs = make([]string, 0, len(occupied))
	for id := range occupied {
		report.OccupiedRoomIDs = append(report.OccupiedRoomIDs, id)
	}
	sort.Strings(report.OccupiedRoomIDs)
	if report.TotalRooms > 0 {
		report.Rate = int(math.Round(100 * float64(len(occupied)) / float64(report.TotalRooms)))
	}
	return report, nil
}
