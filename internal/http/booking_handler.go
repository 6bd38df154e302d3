package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/example/frontdesk/internal/application"
	"github.com/example/frontdesk/internal/engine"
)

const defaultWindowDays = 14

type bookingService interface {
	ListRooms(ctx context.Context) ([]engine.Room, error)
	CheckAvailability(ctx context.Context, params application.AvailabilityParams) (application.AvailabilityResult, error)
	ValidateSelection(ctx context.Context, params application.SelectionParams) (engine.RangeValidation, error)
	QuoteStay(ctx context.Context, params application.QuoteParams) (application.Quote, error)
	CreateReservation(ctx context.Context, params application.CreateReservationParams) (application.ReservationResult, error)
	GetReservation(ctx context.Context, id string) (application.ReservationResult, error)
	MoveReservation(ctx context.Context, params application.MoveReservationParams) (application.ReservationResult, error)
	UpdateStatus(ctx context.Context, params application.UpdateStatusParams) (engine.Reservation, error)
	SetDailyDetails(ctx context.Context, params application.SetDailyDetailsParams) (application.ReservationResult, error)
	OccupancyReport(ctx context.Context, params application.TimelineParams) (engine.OccupancyReport, error)
	Timeline(ctx context.Context, params application.TimelineParams) (application.Timeline, error)
}

// BookingHandler serves the availability, pricing and reservation endpoints.
type BookingHandler struct {
	service   bookingService
	validate  *validator.Validate
	responder responder
	logger    *slog.Logger
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{service: service, validate: newValidator(), responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

func (h *BookingHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

// decode reads and validates a JSON body, answering the request itself on failure.
func (h *BookingHandler) decode(w http.ResponseWriter, r *http.Request, operation string, req any) bool {
	if err := decodeJSON(r, req); err != nil {
		h.log(r.Context(), operation, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return false
	}
	if err := validateRequest(h.validate, req); err != nil {
		h.log(r.Context(), operation, "error_kind", application.ErrorKind(err)).InfoContext(r.Context(), "request rejected by validation")
		h.responder.handleServiceError(r.Context(), w, err)
		return false
	}
	return true
}

func (h *BookingHandler) fail(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	logger.WarnContext(ctx, msg, "error", err, "error_kind", application.ErrorKind(err))
	h.responder.handleServiceError(ctx, w, err)
}

func (h *BookingHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	logger := h.log(r.Context(), "ListRooms")
	rooms, err := h.service.ListRooms(r.Context())
	if err != nil {
		h.fail(r.Context(), w, logger, "room list failed", err)
		return
	}
	logger.With("result_count", len(rooms)).DebugContext(r.Context(), "rooms listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRoomsResponse{Rooms: toRoomDTOs(rooms)})
}

func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	q := r.URL.Query()
	vErr := &application.ValidationError{FieldErrors: map[string]string{}}
	roomID := strings.TrimSpace(q.Get("room_id"))
	if roomID == "" {
		vErr.FieldErrors["room_id"] = "is required"
	}
	checkIn := queryDate(q, "check_in", vErr)
	checkOut := queryDate(q, "check_out", vErr)
	if vErr.HasErrors() {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	logger := h.log(r.Context(), "Availability", "room_id", roomID)
	result, err := h.service.CheckAvailability(r.Context(), application.AvailabilityParams{
		RoomID:    roomID,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		ExcludeID: strings.TrimSpace(q.Get("exclude")),
	})
	if err != nil {
		h.fail(r.Context(), w, logger, "availability check failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAvailabilityResponse(result))
}

func (h *BookingHandler) ValidateSelection(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req selectionRequest
	if !h.decode(w, r, "ValidateSelection", &req) {
		return
	}
	logger := h.log(r.Context(), "ValidateSelection", "room_id", req.RoomID)
	validation, err := h.service.ValidateSelection(r.Context(), application.SelectionParams{
		RoomID:      req.RoomID,
		StartOffset: req.StartOffset,
		EndOffset:   req.EndOffset,
		Origin:      mustDate(req.Origin),
	})
	if err != nil {
		h.fail(r.Context(), w, logger, "selection validation failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRangeValidationResponse(validation))
}

func (h *BookingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req quoteRequest
	if !h.decode(w, r, "Quote", &req) {
		return
	}
	logger := h.log(r.Context(), "Quote", "room_id", req.RoomID)
	quote, err := h.service.QuoteStay(r.Context(), req.toParams())
	if err != nil {
		h.fail(r.Context(), w, logger, "quote failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, quoteResponse{
		RoomID:   quote.RoomID,
		CheckIn:  formatDate(quote.CheckIn),
		CheckOut: formatDate(quote.CheckOut),
		Summary:  toSummaryDTO(quote.Summary),
	})
}

func (h *BookingHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req createReservationRequest
	if !h.decode(w, r, "CreateReservation", &req) {
		return
	}
	logger := h.log(r.Context(), "CreateReservation", "room_id", req.RoomID)
	result, err := h.service.CreateReservation(r.Context(), req.toParams())
	if err != nil {
		h.fail(r.Context(), w, logger, "reservation creation failed", err)
		return
	}
	logger.With("reservation_id", result.Reservation.ID).InfoContext(r.Context(), "reservation created")
	w.Header().Set("Location", "/reservations/"+url.PathEscape(result.Reservation.ID))
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toReservationResponse(result))
}

func (h *BookingHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.reservationID(w, r, "GetReservation")
	if !ok {
		return
	}
	logger := h.log(r.Context(), "GetReservation")
	result, err := h.service.GetReservation(r.Context(), id)
	if err != nil {
		h.fail(r.Context(), w, logger, "reservation lookup failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationResponse(result))
}

func (h *BookingHandler) MoveReservation(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.reservationID(w, r, "MoveReservation")
	if !ok {
		return
	}
	var req moveReservationRequest
	if !h.decode(w, r, "MoveReservation", &req) {
		return
	}
	logger := h.log(r.Context(), "MoveReservation", "room_id", req.RoomID)
	result, err := h.service.MoveReservation(r.Context(), application.MoveReservationParams{
		ReservationID: id,
		TargetRoomID:  req.RoomID,
		CheckIn:       mustDate(req.CheckIn),
		CheckOut:      mustDate(req.CheckOut),
	})
	if err != nil {
		h.fail(r.Context(), w, logger, "reservation move failed", err)
		return
	}
	logger.InfoContext(r.Context(), "reservation moved")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationResponse(result))
}

func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.reservationID(w, r, "UpdateStatus")
	if !ok {
		return
	}
	var req updateStatusRequest
	if !h.decode(w, r, "UpdateStatus", &req) {
		return
	}
	logger := h.log(r.Context(), "UpdateStatus", "status", req.Status)
	res, err := h.service.UpdateStatus(r.Context(), application.UpdateStatusParams{ReservationID: id, Status: engine.Status(req.Status)})
	if err != nil {
		h.fail(r.Context(), w, logger, "status update failed", err)
		return
	}
	logger.InfoContext(r.Context(), "reservation status updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(res)})
}

func (h *BookingHandler) SetDailyDetails(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.reservationID(w, r, "SetDailyDetails")
	if !ok {
		return
	}
	var req dailyDetailsRequest
	if !h.decode(w, r, "SetDailyDetails", &req) {
		return
	}
	logger := h.log(r.Context(), "SetDailyDetails")
	details := toDailyDetails(req.Details)
	if details == nil {
		details = []engine.DailyDetail{}
	}
	result, err := h.service.SetDailyDetails(r.Context(), application.SetDailyDetailsParams{ReservationID: id, Details: details})
	if err != nil {
		h.fail(r.Context(), w, logger, "daily details update failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationResponse(result))
}

func (h *BookingHandler) Occupancy(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	params, vErr := windowParams(r.URL.Query())
	if vErr.HasErrors() {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}
	logger := h.log(r.Context(), "Occupancy")
	report, err := h.service.OccupancyReport(r.Context(), params)
	if err != nil {
		h.fail(r.Context(), w, logger, "occupancy report failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toOccupancyResponse(report))
}

// Timeline serves the room by day grid. The snapshot version doubles as
// ETag, so clients polling an unchanged grid receive 304.
func (h *BookingHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	params, vErr := windowParams(r.URL.Query())
	if vErr.HasErrors() {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}
	logger := h.log(r.Context(), "Timeline")
	timeline, err := h.service.Timeline(r.Context(), params)
	if err != nil {
		h.fail(r.Context(), w, logger, "timeline failed", err)
		return
	}

	etag := fmt.Sprintf("%q", timeline.Version)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && etagMatches(match, etag) {
		h.responder.writeJSON(r.Context(), w, http.StatusNotModified, nil)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTimelineResponse(timeline))
}

func (h *BookingHandler) reservationID(w http.ResponseWriter, r *http.Request, operation string) (string, bool) {
	id, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.log(r.Context(), operation, "error_kind", "bad_request").WarnContext(r.Context(), "missing reservation id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return "", false
	}
	return id, true
}

func queryDate(q url.Values, name string, vErr *application.ValidationError) time.Time {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		vErr.FieldErrors[name] = "is required"
		return time.Time{}
	}
	d, err := engine.ParseDate(raw)
	if err != nil {
		vErr.FieldErrors[name] = "must be a date in YYYY-MM-DD format"
		return time.Time{}
	}
	return d
}

func windowParams(q url.Values) (application.TimelineParams, *application.ValidationError) {
	vErr := &application.ValidationError{FieldErrors: map[string]string{}}
	start := queryDate(q, "start", vErr)
	days := defaultWindowDays
	if raw := strings.TrimSpace(q.Get("days")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			vErr.FieldErrors["days"] = "must be an integer"
		}
		days = n
	}
	return application.TimelineParams{Start: start, Days: days}, vErr
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

// Pinger reports store liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler answers liveness probes.
type HealthHandler struct {
	store     Pinger
	responder responder
}

func NewHealthHandler(store Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, responder: newResponder(defaultLogger(logger))}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			h.responder.writeError(r.Context(), w, http.StatusServiceUnavailable, errors.New("store unavailable"))
			return
		}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}
