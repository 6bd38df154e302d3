package http

import (
	"time"

	"github.com/example/frontdesk/internal/application"
	"github.com/example/frontdesk/internal/engine"
)

// mustDate parses a date that already passed the datetime validator.
func mustDate(value string) time.Time {
	d, _ := engine.ParseDate(value)
	return d
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(engine.DateLayout)
}

type servicesDTO struct {
	Parking      bool `json:"parking"`
	ParkingSpots int  `json:"parking_spots" validate:"gte=0"`
	Pets         bool `json:"pets"`
	PetCount     int  `json:"pet_count" validate:"gte=0"`
}

func (s servicesDTO) toServices() engine.StayServices {
	return engine.StayServices{Parking: s.Parking, ParkingSpots: s.ParkingSpots, Pets: s.Pets, PetCount: s.PetCount}
}

func toServicesDTO(s engine.StayServices) servicesDTO {
	return servicesDTO{Parking: s.Parking, ParkingSpots: s.ParkingSpots, Pets: s.Pets, PetCount: s.PetCount}
}

type dailyDetailDTO struct {
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	Adults       int    `json:"adults" validate:"gte=0"`
	ChildAges    []int  `json:"child_ages" validate:"dive,gte=0,lte=17"`
	ParkingSpots int    `json:"parking_spots" validate:"gte=0"`
	Pets         bool   `json:"pets"`
	Towels       int    `json:"towels" validate:"gte=0"`
	Note         string `json:"note,omitempty" validate:"max=500"`
}

func toDailyDetails(in []dailyDetailDTO) []engine.DailyDetail {
	if in == nil {
		return nil
	}
	out := make([]engine.DailyDetail, 0, len(in))
	for _, d := range in {
		out = append(out, engine.DailyDetail{
			Date:         mustDate(d.Date),
			Adults:       d.Adults,
			ChildAges:    d.ChildAges,
			ParkingSpots: d.ParkingSpots,
			Pets:         d.Pets,
			Towels:       d.Towels,
			Note:         d.Note,
		})
	}
	return out
}

type selectionRequest struct {
	RoomID      string `json:"room_id" validate:"required"`
	StartOffset int    `json:"start_offset" validate:"gte=-366,lte=366"`
	EndOffset   int    `json:"end_offset" validate:"gte=-366,lte=366"`
	Origin      string `json:"origin" validate:"required,datetime=2006-01-02"`
}

type quoteRequest struct {
	RoomID        string           `json:"room_id" validate:"required"`
	CheckIn       string           `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut      string           `json:"check_out" validate:"required,datetime=2006-01-02"`
	Adults        int              `json:"adults" validate:"gte=0"`
	ChildAges     []int            `json:"child_ages" validate:"dive,gte=0,lte=17"`
	Services      servicesDTO      `json:"services"`
	DailyDetails  []dailyDetailDTO `json:"daily_details" validate:"dive"`
	ReservationID string           `json:"reservation_id"`
}

func (q quoteRequest) toParams() application.QuoteParams {
	return application.QuoteParams{
		RoomID:        q.RoomID,
		CheckIn:       mustDate(q.CheckIn),
		CheckOut:      mustDate(q.CheckOut),
		Adults:        q.Adults,
		ChildAges:     q.ChildAges,
		Services:      q.Services.toServices(),
		DailyDetails:  toDailyDetails(q.DailyDetails),
		ReservationID: q.ReservationID,
	}
}

type createReservationRequest struct {
	RoomID       string           `json:"room_id" validate:"required"`
	GuestID      string           `json:"guest_id"`
	Placeholder  string           `json:"placeholder"`
	CheckIn      string           `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut     string           `json:"check_out" validate:"required,datetime=2006-01-02"`
	Adults       int              `json:"adults" validate:"gte=1"`
	ChildAges    []int            `json:"child_ages" validate:"dive,gte=0,lte=17"`
	Services     servicesDTO      `json:"services"`
	Status       string           `json:"status" validate:"omitempty,oneof=pending confirmed"`
	DailyDetails []dailyDetailDTO `json:"daily_details" validate:"dive"`
}

func (c createReservationRequest) toParams() application.CreateReservationParams {
	return application.CreateReservationParams{
		RoomID:       c.RoomID,
		Guest:        application.GuestInput{GuestID: c.GuestID, Placeholder: c.Placeholder},
		CheckIn:      mustDate(c.CheckIn),
		CheckOut:     mustDate(c.CheckOut),
		Adults:       c.Adults,
		ChildAges:    c.ChildAges,
		Services:     c.Services.toServices(),
		Status:       engine.Status(c.Status),
		DailyDetails: toDailyDetails(c.DailyDetails),
	}
}

type moveReservationRequest struct {
	RoomID   string `json:"room_id" validate:"required"`
	CheckIn  string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut string `json:"check_out" validate:"required,datetime=2006-01-02"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed checked_in checked_out cancelled no_show"`
}

type dailyDetailsRequest struct {
	Details []dailyDetailDTO `json:"daily_details" validate:"dive"`
}

type roomDTO struct {
	ID           string             `json:"id"`
	Floor        int                `json:"floor"`
	Type         string             `json:"type"`
	MaxOccupancy int                `json:"max_occupancy"`
	Premium      bool               `json:"premium"`
	Rates        map[string]float64 `json:"rates"`
}

func toRoomDTO(room engine.Room) roomDTO {
	rates := make(map[string]float64, len(room.Rates))
	for tag, rate := range room.Rates {
		rates[string(tag)] = rate
	}
	return roomDTO{
		ID:           room.ID,
		Floor:        room.Floor,
		Type:         room.Type,
		MaxOccupancy: room.MaxOccupancy,
		Premium:      room.Premium,
		Rates:        rates,
	}
}

func toRoomDTOs(rooms []engine.Room) []roomDTO {
	out := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomDTO(room))
	}
	return out
}

type listRoomsResponse struct {
	Rooms []roomDTO `json:"rooms"`
}

type guestDTO struct {
	Kind string `json:"kind"`
	Ref  string `json:"ref"`
}

type totalsDTO struct {
	Accommodation float64 `json:"accommodation"`
	Services      float64 `json:"services"`
	TourismTax    float64 `json:"tourism_tax"`
	VAT           float64 `json:"vat"`
	Grand         float64 `json:"grand"`
}

type reservationDTO struct {
	ID        string      `json:"id"`
	RoomID    string      `json:"room_id"`
	Guest     guestDTO    `json:"guest"`
	CheckIn   string      `json:"check_in"`
	CheckOut  string      `json:"check_out"`
	Nights    int         `json:"nights"`
	Adults    int         `json:"adults"`
	ChildAges []int       `json:"child_ages,omitempty"`
	Status    string      `json:"status"`
	Services  servicesDTO `json:"services"`
	Totals    totalsDTO   `json:"totals"`
	UpdatedAt string      `json:"updated_at,omitempty"`
}

func toReservationDTO(r engine.Reservation) reservationDTO {
	dto := reservationDTO{
		ID:        r.ID,
		RoomID:    r.RoomID,
		Guest:     guestDTO{Kind: r.Guest.Kind().String(), Ref: r.Guest.Ref()},
		CheckIn:   formatDate(r.CheckIn),
		CheckOut:  formatDate(r.CheckOut),
		Nights:    r.Nights(),
		Adults:    r.Adults,
		ChildAges: r.ChildAges,
		Status:    string(r.Status),
		Services:  toServicesDTO(r.Services),
		Totals: totalsDTO{
			Accommodation: r.Totals.Accommodation,
			Services:      r.Totals.Services,
			TourismTax:    r.Totals.TourismTax,
			VAT:           r.Totals.VAT,
			Grand:         r.Totals.Grand,
		},
	}
	if !r.UpdatedAt.IsZero() {
		dto.UpdatedAt = r.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return dto
}

type conflictDTO struct {
	ID       string `json:"id"`
	RoomID   string `json:"room_id"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	Status   string `json:"status"`
}

func toConflictDTOs(reservations []engine.Reservation) []conflictDTO {
	if len(reservations) == 0 {
		return nil
	}
	out := make([]conflictDTO, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, conflictDTO{
			ID:       r.ID,
			RoomID:   r.RoomID,
			CheckIn:  formatDate(r.CheckIn),
			CheckOut: formatDate(r.CheckOut),
			Status:   string(r.Status),
		})
	}
	return out
}

type warningDTO struct {
	RoomID       string `json:"room_id"`
	Date         string `json:"date,omitempty"`
	Present      int    `json:"present"`
	MaxOccupancy int    `json:"max_occupancy"`
	Message      string `json:"message"`
}

func toWarningDTOs(warnings []engine.OccupancyWarning) []warningDTO {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]warningDTO, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, warningDTO{
			RoomID:       w.RoomID,
			Date:         formatDate(w.Date),
			Present:      w.Present,
			MaxOccupancy: w.MaxOccupancy,
			Message:      w.String(),
		})
	}
	return out
}

type nightDTO struct {
	Date          string  `json:"date"`
	Period        string  `json:"period"`
	BaseRate      float64 `json:"base_rate"`
	Adults        int     `json:"adults"`
	Children      int     `json:"children"`
	Accommodation float64 `json:"accommodation"`
	Parking       float64 `json:"parking"`
	Pets          float64 `json:"pets"`
	Towels        float64 `json:"towels"`
	TourismTax    float64 `json:"tourism_tax"`
	Services      float64 `json:"services"`
	VAT           float64 `json:"vat"`
	Total         float64 `json:"total"`
}

type summaryDTO struct {
	Nights             []nightDTO   `json:"nights"`
	TotalNights        int          `json:"total_nights"`
	TotalAccommodation float64      `json:"total_accommodation"`
	TotalServices      float64      `json:"total_services"`
	TotalTourismTax    float64      `json:"total_tourism_tax"`
	TotalVAT           float64      `json:"total_vat"`
	VATIncluded        bool         `json:"vat_included"`
	GrandTotal         float64      `json:"grand_total"`
	Warnings           []warningDTO `json:"warnings,omitempty"`
}

// toSummaryDTO rounds per-night figures for display only; the totals were
// computed from the unrounded values.
func toSummaryDTO(s engine.StayPricingSummary) summaryDTO {
	nights := make([]nightDTO, 0, len(s.Nights))
	for _, n := range s.Nights {
		nights = append(nights, nightDTO{
			Date:          formatDate(n.Date),
			Period:        string(n.Period),
			BaseRate:      engine.RoundCurrency(n.BaseRate),
			Adults:        n.Adults,
			Children:      n.Children,
			Accommodation: engine.RoundCurrency(n.Accommodation),
			Parking:       engine.RoundCurrency(n.Parking),
			Pets:          engine.RoundCurrency(n.Pets),
			Towels:        engine.RoundCurrency(n.Towels),
			TourismTax:    engine.RoundCurrency(n.TourismTax),
			Services:      engine.RoundCurrency(n.Services),
			VAT:           engine.RoundCurrency(n.VAT),
			Total:         engine.RoundCurrency(n.Total),
		})
	}
	return summaryDTO{
		Nights:             nights,
		TotalNights:        s.TotalNights,
		TotalAccommodation: s.TotalAccommodation,
		TotalServices:      s.TotalServices,
		TotalTourismTax:    s.TotalTourismTax,
		TotalVAT:           s.TotalVAT,
		VATIncluded:        s.VATIncluded,
		GrandTotal:         s.GrandTotal,
		Warnings:           toWarningDTOs(s.Warnings),
	}
}

type reservationResponse struct {
	Reservation reservationDTO `json:"reservation"`
	Summary     *summaryDTO    `json:"summary,omitempty"`
}

func toReservationResponse(result application.ReservationResult) reservationResponse {
	resp := reservationResponse{Reservation: toReservationDTO(result.Reservation)}
	if result.Summary.TotalNights > 0 {
		summary := toSummaryDTO(result.Summary)
		resp.Summary = &summary
	}
	return resp
}

type quoteResponse struct {
	RoomID   string     `json:"room_id"`
	CheckIn  string     `json:"check_in"`
	CheckOut string     `json:"check_out"`
	Summary  summaryDTO `json:"summary"`
}

type dayDTO struct {
	Date           string   `json:"date"`
	Available      bool     `json:"available"`
	Level          string   `json:"level"`
	ReservationIDs []string `json:"reservation_ids,omitempty"`
}

type availabilityResponse struct {
	RoomID       string   `json:"room_id"`
	CheckIn      string   `json:"check_in"`
	CheckOut     string   `json:"check_out"`
	Available    bool     `json:"available"`
	DoubleBooked bool     `json:"double_booked"`
	Days         []dayDTO `json:"days"`
}

func toAvailabilityResponse(result application.AvailabilityResult) availabilityResponse {
	days := make([]dayDTO, 0, len(result.Days))
	for _, d := range result.Days {
		day := dayDTO{Date: formatDate(d.Date), Available: d.Available, Level: string(d.Level)}
		for _, r := range d.Blocking {
			day.ReservationIDs = append(day.ReservationIDs, r.ID)
		}
		days = append(days, day)
	}
	return availabilityResponse{
		RoomID:       result.RoomID,
		CheckIn:      formatDate(result.CheckIn),
		CheckOut:     formatDate(result.CheckOut),
		Available:    result.Available,
		DoubleBooked: result.DoubleBooked,
		Days:         days,
	}
}

type rangeValidationResponse struct {
	RoomID    string        `json:"room_id"`
	CheckIn   string        `json:"check_in"`
	CheckOut  string        `json:"check_out"`
	IsValid   bool          `json:"is_valid"`
	Conflicts []conflictDTO `json:"conflicts,omitempty"`
}

func toRangeValidationResponse(v engine.RangeValidation) rangeValidationResponse {
	return rangeValidationResponse{
		RoomID:    v.RoomID,
		CheckIn:   formatDate(v.CheckIn),
		CheckOut:  formatDate(v.CheckOut),
		IsValid:   v.IsValid,
		Conflicts: toConflictDTOs(v.Conflicts),
	}
}

type occupancyDayDTO struct {
	Date     string `json:"date"`
	Occupied int    `json:"occupied"`
}

type occupancyResponse struct {
	Start           string            `json:"start"`
	Days            int               `json:"days"`
	TotalRooms      int               `json:"total_rooms"`
	OccupiedRoomIDs []string          `json:"occupied_room_ids"`
	Rate            int               `json:"rate"`
	Daily           []occupancyDayDTO `json:"daily"`
}

func toOccupancyResponse(r engine.OccupancyReport) occupancyResponse {
	daily := make([]occupancyDayDTO, 0, len(r.Daily))
	for _, d := range r.Daily {
		daily = append(daily, occupancyDayDTO{Date: formatDate(d.Date), Occupied: d.Occupied})
	}
	ids := r.OccupiedRoomIDs
	if ids == nil {
		ids = []string{}
	}
	return occupancyResponse{
		Start:           formatDate(r.Start),
		Days:            r.Days,
		TotalRooms:      r.TotalRooms,
		OccupiedRoomIDs: ids,
		Rate:            r.Rate,
		Daily:           daily,
	}
}

type timelineCellDTO struct {
	Date           string   `json:"date"`
	Level          string   `json:"level"`
	ReservationIDs []string `json:"reservation_ids,omitempty"`
}

type timelineRowDTO struct {
	Room  roomDTO           `json:"room"`
	Cells []timelineCellDTO `json:"cells"`
}

type timelineResponse struct {
	Start   string           `json:"start"`
	Days    int              `json:"days"`
	Version string           `json:"version"`
	Rows    []timelineRowDTO `json:"rows"`
}

func toTimelineResponse(t application.Timeline) timelineResponse {
	rows := make([]timelineRowDTO, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := make([]timelineCellDTO, 0, len(row.Cells))
		for _, c := range row.Cells {
			cells = append(cells, timelineCellDTO{Date: formatDate(c.Date), Level: string(c.Level), ReservationIDs: c.ReservationIDs})
		}
		rows = append(rows, timelineRowDTO{Room: toRoomDTO(row.Room), Cells: cells})
	}
	return timelineResponse{Start: formatDate(t.Start), Days: t.Days, Version: t.Version, Rows: rows}
}
