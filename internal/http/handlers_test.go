package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/frontdesk/internal/application"
	"github.com/example/frontdesk/internal/engine"
)

type bookingServiceStub struct {
	rooms        []engine.Room
	availability application.AvailabilityResult
	validation   engine.RangeValidation
	quote        application.Quote
	result       application.ReservationResult
	reservation  engine.Reservation
	report       engine.OccupancyReport
	timeline     application.Timeline
	err          error

	gotAvailability application.AvailabilityParams
	gotSelection    application.SelectionParams
	gotQuote        application.QuoteParams
	gotCreate       application.CreateReservationParams
	gotMove         application.MoveReservationParams
	gotStatus       application.UpdateStatusParams
	gotDetails      application.SetDailyDetailsParams
	gotWindow       application.TimelineParams
	gotID           string
}

func (s *bookingServiceStub) ListRooms(ctx context.Context) ([]engine.Room, error) {
	return s.rooms, s.err
}

func (s *bookingServiceStub) CheckAvailability(ctx context.Context, params application.AvailabilityParams) (application.AvailabilityResult, error) {
	s.gotAvailability = params
	return s.availability, s.err
}

func (s *bookingServiceStub) ValidateSelection(ctx context.Context, params application.SelectionParams) (engine.RangeValidation, error) {
	s.gotSelection = params
	return s.validation, s.err
}

func (s *bookingServiceStub) QuoteStay(ctx context.Context, params application.QuoteParams) (application.Quote, error) {
	s.gotQuote = params
	return s.quote, s.err
}

func (s *bookingServiceStub) CreateReservation(ctx context.Context, params application.CreateReservationParams) (application.ReservationResult, error) {
	s.gotCreate = params
	return s.result, s.err
}

func (s *bookingServiceStub) GetReservation(ctx context.Context, id string) (application.ReservationResult, error) {
	s.gotID = id
	return s.result, s.err
}

func (s *bookingServiceStub) MoveReservation(ctx context.Context, params application.MoveReservationParams) (application.ReservationResult, error) {
	s.gotMove = params
	return s.result, s.err
}

func (s *bookingServiceStub) UpdateStatus(ctx context.Context, params application.UpdateStatusParams) (engine.Reservation, error) {
	s.gotStatus = params
	return s.reservation, s.err
}

func (s *bookingServiceStub) SetDailyDetails(ctx context.Context, params application.SetDailyDetailsParams) (application.ReservationResult, error) {
	s.gotDetails = params
	return s.result, s.err
}

func (s *bookingServiceStub) OccupancyReport(ctx context.Context, params application.TimelineParams) (engine.OccupancyReport, error) {
	s.gotWindow = params
	return s.report, s.err
}

func (s *bookingServiceStub) Timeline(ctx context.Context, params application.TimelineParams) (application.Timeline, error) {
	s.gotWindow = params
	return s.timeline, s.err
}

type pingerStub struct{ err error }

func (p pingerStub) Ping(ctx context.Context) error { return p.err }

func testDate(value string) time.Time {
	d, err := engine.ParseDate(value)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestRouter(svc *bookingServiceStub) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(RouterConfig{
		Bookings: NewBookingHandler(svc, logger),
		Health:   NewHealthHandler(pingerStub{}, logger),
	})
}

func serve(t *testing.T, handler http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestBookingHandler_Availability(t *testing.T) {
	t.Parallel()

	t.Run("passes parsed query to the service", func(t *testing.T) {
		t.Parallel()

		svc := &bookingServiceStub{availability: application.AvailabilityResult{
			RoomID: "101", CheckIn: testDate("2024-07-12"), CheckOut: testDate("2024-07-14"),
			Days: []engine.ConflictResult{
				{Date: testDate("2024-07-12"), Level: engine.ConflictPartial, Blocking: []engine.Reservation{{ID: "r1"}}},
				{Date: testDate("2024-07-13"), Available: true, Level: engine.ConflictNone},
			},
		}}
		rec := serve(t, newTestRouter(svc), http.MethodGet, "/availability?room_id=101&check_in=2024-07-12&check_out=2024-07-14&exclude=r9", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if svc.gotAvailability.ExcludeID != "r9" || !svc.gotAvailability.CheckIn.Equal(testDate("2024-07-12")) {
			t.Fatalf("unexpected params %+v", svc.gotAvailability)
		}
		var resp availabilityResponse
		decodeBody(t, rec, &resp)
		if resp.Available || len(resp.Days) != 2 || resp.Days[0].Level != "partial" || resp.Days[0].ReservationIDs[0] != "r1" {
			t.Fatalf("unexpected response %+v", resp)
		}
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		t.Parallel()

		rec := serve(t, newTestRouter(&bookingServiceStub{}), http.MethodGet, "/availability?room_id=101&check_in=12/07/2024", "")
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		var resp errorResponse
		decodeBody(t, rec, &resp)
		if resp.Errors["check_in"] == "" || resp.Errors["check_out"] != "is required" {
			t.Fatalf("unexpected field errors %+v", resp.Errors)
		}
	})
}

func TestBookingHandler_CreateReservation(t *testing.T) {
	t.Parallel()

	t.Run("creates and returns the priced reservation", func(t *testing.T) {
		t.Parallel()

		svc := &bookingServiceStub{result: application.ReservationResult{
			Reservation: engine.Reservation{
				ID: "res-1", RoomID: "101", Guest: engine.RegisteredGuest("g-1"),
				CheckIn: testDate("2025-07-20"), CheckOut: testDate("2025-07-23"),
				Adults: 2, Status: engine.StatusConfirmed, Totals: engine.StayTotals{Grand: 714},
			},
			Summary: engine.StayPricingSummary{TotalNights: 3, GrandTotal: 714},
		}}
		body := `{"room_id":"101","guest_id":"g-1","check_in":"2025-07-20","check_out":"2025-07-23","adults":2,"child_ages":[8],
			"services":{"parking":true},"daily_details":[{"date":"2025-07-21","adults":1}]}`
		rec := serve(t, newTestRouter(svc), http.MethodPost, "/reservations", body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if rec.Header().Get("Location") != "/reservations/res-1" {
			t.Fatalf("unexpected location %q", rec.Header().Get("Location"))
		}
		got := svc.gotCreate
		if got.Guest.GuestID != "g-1" || !got.Services.Parking || len(got.DailyDetails) != 1 || !got.DailyDetails[0].Date.Equal(testDate("2025-07-21")) {
			t.Fatalf("unexpected params %+v", got)
		}
		var resp reservationResponse
		decodeBody(t, rec, &resp)
		if resp.Reservation.Nights != 3 || resp.Reservation.Guest.Kind != "registered" || resp.Summary == nil || resp.Summary.GrandTotal != 714 {
			t.Fatalf("unexpected response %+v", resp)
		}
	})

	t.Run("maps validator failures to field errors", func(t *testing.T) {
		t.Parallel()

		body := `{"check_in":"2025-07-20","check_out":"soon","adults":0,"child_ages":[20],"status":"checked_in",
			"daily_details":[{"date":"","adults":-1}]}`
		rec := serve(t, newTestRouter(&bookingServiceStub{}), http.MethodPost, "/reservations", body)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp errorResponse
		decodeBody(t, rec, &resp)
		for _, field := range []string{"room_id", "check_out", "adults", "child_ages[0]", "status", "daily_details[0].date", "daily_details[0].adults"} {
			if _, ok := resp.Errors[field]; !ok {
				t.Fatalf("expected error on %s, got %v", field, resp.Errors)
			}
		}
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		t.Parallel()

		rec := serve(t, newTestRouter(&bookingServiceStub{}), http.MethodPost, "/reservations", `{"room":"101"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("answers conflicts with the blocking stays", func(t *testing.T) {
		t.Parallel()

		svc := &bookingServiceStub{err: &application.ConflictError{RoomID: "101", Conflicts: []engine.Reservation{
			{ID: "existing", RoomID: "101", CheckIn: testDate("2024-07-10"), CheckOut: testDate("2024-07-13"), Status: engine.StatusConfirmed},
		}}}
		body := `{"room_id":"101","check_in":"2024-07-12","check_out":"2024-07-15","adults":2}`
		rec := serve(t, newTestRouter(svc), http.MethodPost, "/reservations", body)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		var resp errorResponse
		decodeBody(t, rec, &resp)
		if resp.ErrorCode != "RESERVATION_CONFLICT" || len(resp.Conflicts) != 1 || resp.Conflicts[0].CheckOut != "2024-07-13" {
			t.Fatalf("unexpected response %+v", resp)
		}
	})
}

func TestBookingHandler_ReservationRoutes(t *testing.T) {
	t.Parallel()

	res := engine.Reservation{ID: "r1", RoomID: "102", CheckIn: testDate("2024-07-10"), CheckOut: testDate("2024-07-12"), Status: engine.StatusCheckedIn}

	t.Run("get", func(t *testing.T) {
		t.Parallel()

		svc := &bookingServiceStub{result: application.ReservationResult{Reservation: res}}
		rec := serve(t, newTestRouter(svc), http.MethodGet, "/reservations/r1", "")
		if rec.Code != http.StatusOK || svc.gotID != "r1" {
			t.Fatalf("expected 200 for r1, got %d (%q)", rec.Code, svc.gotID)
		}
	})

	t.Run("move", func(t *testing.T) {
		t.Parallel()

		svc := &bookingServiceStub{result: application.ReservationResult{Reservation: res}}
		rec := serve(t, newTestRouter(svc), http.MethodPut, "/reservations/r1/move", `{"room_id":"102","check_in":"2024-07-10","check_out":"2024-07-12"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if svc.gotMove.ReservationID != "r1" || svc.gotMove.TargetRoomID != "102" {
			t.Fatalf("unexpected params %+v", svc.gotMove)
		}
	})

	t.Run("status", func(t *testing.T) {
		t.Parallel()

		svc := &bookingServiceStub{reservation: res}
		rec := serve(t, newTestRouter(svc), http.MethodPut, "/reservations/r1/status", `{"status":"checked_in"}`)
		if rec.Code != http.StatusOK || svc.gotStatus.Status != engine.StatusCheckedIn {
			t.Fatalf("expected 200 with status forwarded, got %d %+v", rec.Code, svc.gotStatus)
		}
		rec = serve(t, newTestRouter(svc), http.MethodPut, "/reservations/r1/status", `{"status":"gone"}`)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 for unknown status, got %d", rec.Code)
		}
	})

	t.Run("daily details clear with an empty list", func(t *testing.T) {
		t.Parallel()

		svc := &bookingServiceStub{result: application.ReservationResult{Reservation: res}}
		rec := serve(t, newTestRouter(svc), http.MethodPut, "/reservations/r1/daily-details", `{}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if svc.gotDetails.Details == nil || len(svc.gotDetails.Details) != 0 {
			t.Fatalf("expected empty non-nil details, got %+v", svc.gotDetails.Details)
		}
	})

	t.Run("not found and method checks", func(t *testing.T) {
		t.Parallel()

		svc := &bookingServiceStub{err: application.ErrNotFound}
		if rec := serve(t, newTestRouter(svc), http.MethodGet, "/reservations/missing", ""); rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		if rec := serve(t, newTestRouter(svc), http.MethodGet, "/reservations/r1/unknown", ""); rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404 for unknown action, got %d", rec.Code)
		}
		rec := serve(t, newTestRouter(svc), http.MethodPost, "/reservations/r1/move", `{}`)
		if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") != http.MethodPut {
			t.Fatalf("expected 405 with Allow PUT, got %d %q", rec.Code, rec.Header().Get("Allow"))
		}
	})
}

func TestBookingHandler_SelectionAndQuote(t *testing.T) {
	t.Parallel()

	svc := &bookingServiceStub{
		validation: engine.RangeValidation{RoomID: "101", CheckIn: testDate("2024-07-12"), CheckOut: testDate("2024-07-16"), IsValid: false,
			Conflicts: []engine.Reservation{{ID: "existing"}}},
		quote: application.Quote{RoomID: "101", CheckIn: testDate("2025-07-20"), CheckOut: testDate("2025-07-21"),
			Summary: engine.StayPricingSummary{TotalNights: 1, GrandTotal: 238, Nights: []engine.PricingBreakdown{
				{Date: testDate("2025-07-20"), Period: engine.PeriodD, Accommodation: 225.004, Total: 238.004},
			}}},
	}
	router := newTestRouter(svc)

	rec := serve(t, router, http.MethodPost, "/selections", `{"room_id":"101","start_offset":14,"end_offset":11,"origin":"2024-07-01"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var sel rangeValidationResponse
	decodeBody(t, rec, &sel)
	if sel.IsValid || sel.CheckOut != "2024-07-16" || len(sel.Conflicts) != 1 || svc.gotSelection.StartOffset != 14 {
		t.Fatalf("unexpected selection response %+v", sel)
	}

	rec = serve(t, router, http.MethodPost, "/selections", `{"room_id":"101","start_offset":-9223372036854775808,"end_offset":400,"origin":"2024-07-01"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for offsets outside the window, got %d: %s", rec.Code, rec.Body.String())
	}
	var rejected errorResponse
	decodeBody(t, rec, &rejected)
	if _, ok := rejected.Errors["start_offset"]; !ok {
		t.Fatalf("expected start_offset error, got %v", rejected.Errors)
	}
	if _, ok := rejected.Errors["end_offset"]; !ok {
		t.Fatalf("expected end_offset error, got %v", rejected.Errors)
	}
	if svc.gotSelection.StartOffset != 14 {
		t.Fatalf("expected the rejected selection not to reach the service, got %+v", svc.gotSelection)
	}

	rec = serve(t, router, http.MethodPost, "/quotes", `{"room_id":"101","check_in":"2025-07-20","check_out":"2025-07-21","adults":2,"reservation_id":"r1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var quote quoteResponse
	decodeBody(t, rec, &quote)
	if quote.Summary.GrandTotal != 238 || quote.Summary.Nights[0].Accommodation != 225 || quote.Summary.Nights[0].Period != "D" {
		t.Fatalf("unexpected quote %+v", quote)
	}
	if svc.gotQuote.ReservationID != "r1" || svc.gotQuote.DailyDetails != nil {
		t.Fatalf("expected stored details to be requested, got %+v", svc.gotQuote)
	}
}

func TestBookingHandler_TimelineAndOccupancy(t *testing.T) {
	t.Parallel()

	svc := &bookingServiceStub{
		timeline: application.Timeline{Start: testDate("2024-07-01"), Days: 2, Version: "abc123", Rows: []application.TimelineRow{{
			Room: engine.Room{ID: "101", MaxOccupancy: 2, Rates: map[engine.PeriodTag]float64{engine.PeriodD: 90}},
			Cells: []application.TimelineCell{
				{Date: testDate("2024-07-01"), Level: engine.ConflictPartial, ReservationIDs: []string{"r1"}},
				{Date: testDate("2024-07-02"), Level: engine.ConflictNone},
			},
		}}},
		report: engine.OccupancyReport{Start: testDate("2024-07-01"), Days: 7, TotalRooms: 4, OccupiedRoomIDs: []string{"101", "201"}, Rate: 50},
	}
	router := newTestRouter(svc)

	rec := serve(t, router, http.MethodGet, "/timeline?start=2024-07-01", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.gotWindow.Days != defaultWindowDays {
		t.Fatalf("expected default window, got %d", svc.gotWindow.Days)
	}
	etag := rec.Header().Get("ETag")
	if etag != `"abc123"` {
		t.Fatalf("unexpected etag %q", etag)
	}
	var tl timelineResponse
	decodeBody(t, rec, &tl)
	if len(tl.Rows) != 1 || tl.Rows[0].Room.Rates["D"] != 90 || tl.Rows[0].Cells[0].Level != "partial" {
		t.Fatalf("unexpected timeline %+v", tl)
	}

	rec = serve(t, router, http.MethodGet, "/timeline?start=2024-07-01&days=2", "", "If-None-Match", etag)
	if rec.Code != http.StatusNotModified || rec.Body.Len() != 0 {
		t.Fatalf("expected 304 without body, got %d", rec.Code)
	}

	rec = serve(t, router, http.MethodGet, "/occupancy?start=2024-07-01&days=7", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var occ occupancyResponse
	decodeBody(t, rec, &occ)
	if occ.Rate != 50 || len(occ.OccupiedRoomIDs) != 2 {
		t.Fatalf("unexpected occupancy %+v", occ)
	}

	rec = serve(t, router, http.MethodGet, "/occupancy?start=2024-07-01&days=many", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad days, got %d", rec.Code)
	}
}

func TestBookingHandler_ServiceErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: &application.ValidationError{FieldErrors: map[string]string{"room_id": "room is required"}}, want: http.StatusUnprocessableEntity},
		{name: "not found", err: application.ErrNotFound, want: http.StatusNotFound},
		{name: "bare conflict", err: application.ErrConflict, want: http.StatusConflict},
		{name: "canceled", err: context.Canceled, want: http.StatusServiceUnavailable},
		{name: "unexpected", err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := serve(t, newTestRouter(&bookingServiceStub{err: tc.err}), http.MethodGet, "/rooms", "")
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestHealthHandler(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := NewRouter(RouterConfig{Health: NewHealthHandler(pingerStub{}, logger)})
	if rec := serve(t, ok, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	down := NewRouter(RouterConfig{Health: NewHealthHandler(pingerStub{err: errors.New("closed")}, logger)})
	if rec := serve(t, down, http.MethodGet, "/healthz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
