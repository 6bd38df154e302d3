package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/example/frontdesk/internal/engine"
	"github.com/example/frontdesk/internal/notify"
	"github.com/example/frontdesk/internal/persistence"
)

// RoomCatalog exposes the room catalog.
type RoomCatalog interface {
	persistence.RoomRepository
}

// ReservationStore captures the persistence interactions needed by the booking service.
type ReservationStore interface {
	persistence.ReservationRepository
}

// BookingOptions tunes the booking service.
type BookingOptions struct {
	// CommitAttempts bounds how often a write that conflicts at commit time
	// is re-validated against a fresh snapshot.
	CommitAttempts int
	// SnapshotTTL is how long a loaded snapshot serves reads without a
	// change notification.
	SnapshotTTL time.Duration
	// Origin tags published changes so this process can skip its own echoes.
	Origin        string
	MaxStayNights int
	MaxWindowDays int
}

// DefaultBookingOptions returns the options used when none are configured.
func DefaultBookingOptions() BookingOptions {
	return BookingOptions{
		CommitAttempts: 3,
		SnapshotTTL:    30 * time.Second,
		MaxStayNights:  365,
		MaxWindowDays:  366,
	}
}

func (o BookingOptions) withDefaults() BookingOptions {
	def := DefaultBookingOptions()
	if o.CommitAttempts <= 0 {
		o.CommitAttempts = def.CommitAttempts
	}
	if o.SnapshotTTL <= 0 {
		o.SnapshotTTL = def.SnapshotTTL
	}
	if o.MaxStayNights <= 0 {
		o.MaxStayNights = def.MaxStayNights
	}
	if o.MaxWindowDays <= 0 {
		o.MaxWindowDays = def.MaxWindowDays
	}
	return o
}

const snapshotKey = "snapshot"

// BookingService orchestrates availability checks, pricing and persistence
// of reservations. Reads run against a cached snapshot; writes are
// re-checked by the store inside its transaction.
type BookingService struct {
	rooms        RoomCatalog
	reservations ReservationStore
	engine       *engine.Engine
	publisher    notify.Publisher
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
	options      BookingOptions

	snapshots  *ttlCache[Snapshot]
	timelines  *ttlCache[Timeline]
	loadMu     sync.Mutex
	// cacheMu orders snapshot stores against invalidations.
	cacheMu    sync.Mutex
	generation uint64
}

// NewBookingService wires dependencies for booking operations.
func NewBookingService(rooms RoomCatalog, reservations ReservationStore, eng *engine.Engine, publisher notify.Publisher, idGenerator func() string, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(rooms, reservations, eng, publisher, idGenerator, now, DefaultBookingOptions(), nil)
}

// NewBookingServiceWithLogger constructs a booking service with explicit options and logger.
func NewBookingServiceWithLogger(rooms RoomCatalog, reservations ReservationStore, eng *engine.Engine, publisher notify.Publisher, idGenerator func() string, now func() time.Time, options BookingOptions, logger *slog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	options = options.withDefaults()
	return &BookingService{
		rooms:        rooms,
		reservations: reservations,
		engine:       eng,
		publisher:    publisher,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
		options:      options,
		snapshots:    newTTLCache[Snapshot](options.SnapshotTTL, 1, now),
		timelines:    newTTLCache[Timeline](options.SnapshotTTL, 32, now),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// Snapshot returns the current rooms and reservations, loading them from
// the store when the cached copy has expired or been invalidated.
func (s *BookingService) Snapshot(ctx context.Context) (Snapshot, error) {
	if s == nil {
		return Snapshot{}, fmt.Errorf("BookingService is nil")
	}
	if snap, ok := s.snapshots.Get(snapshotKey); ok {
		return snap, nil
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if snap, ok := s.snapshots.Get(snapshotKey); ok {
		return snap, nil
	}

	s.cacheMu.Lock()
	generation := s.generation
	s.cacheMu.Unlock()

	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load rooms: %w", mapRepoError(err))
	}
	reservations, err := s.reservations.ListReservations(ctx, persistence.ReservationFilter{})
	if err != nil {
		return Snapshot{}, fmt.Errorf("load reservations: %w", mapRepoError(err))
	}
	snap := newSnapshot(rooms, reservations, s.now())
	// A change that landed while loading makes this copy stale already.
	s.cacheMu.Lock()
	if s.generation == generation {
		s.snapshots.Store(snapshotKey, snap)
	}
	s.cacheMu.Unlock()
	return snap, nil
}

// InvalidateSnapshot drops cached read models so the next read reloads.
func (s *BookingService) InvalidateSnapshot() {
	if s == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.generation++
	s.snapshots.Invalidate()
	s.timelines.Invalidate()
}

// WatchChanges invalidates the snapshot for every change notification
// published by other processes. It blocks until ctx is done or the
// subscription ends.
func (s *BookingService) WatchChanges(ctx context.Context, subscriber notify.Subscriber) error {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}
	logger := s.loggerWith(ctx, "WatchChanges")
	changes, err := subscriber.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to changes: %w", err)
	}
	logger.InfoContext(ctx, "watching reservation changes")
	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			if s.options.Origin != "" && change.Origin == s.options.Origin {
				continue
			}
			s.InvalidateSnapshot()
			logger.DebugContext(ctx, "snapshot invalidated", "kind", string(change.Kind), "reservation_id", change.ReservationID)
		}
	}
}

// ListRooms returns the room catalog ordered by floor.
func (s *BookingService) ListRooms(ctx context.Context) ([]engine.Room, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Rooms, nil
}

// ImportRooms validates and stores catalog entries, replacing existing
// rooms with the same id. Rooms already stored unchanged are left alone, and
// nothing is published when the whole catalog is unchanged.
func (s *BookingService) ImportRooms(ctx context.Context, rooms []engine.Room) (err error) {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}
	var (
		ids       []string
		unchanged int
	)
	logger := s.loggerWith(ctx, "ImportRooms", "rooms", len(rooms))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to import rooms", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "rooms imported", "changed", len(ids), "unchanged", unchanged)
	}()

	vErr := &ValidationError{}
	if len(rooms) == 0 {
		vErr.add("rooms", "at least one room is required")
	}
	seen := make(map[string]bool, len(rooms))
	for i, room := range rooms {
		prefix := fmt.Sprintf("rooms[%d].", i)
		validateRoom(prefix, room, s.engine.Tariff(), vErr)
		if seen[room.ID] {
			vErr.add(prefix+"id", "room id is listed more than once")
		}
		seen[room.ID] = true
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	for _, room := range rooms {
		room.ID = strings.TrimSpace(room.ID)
		stored, getErr := s.rooms.GetRoom(ctx, room.ID)
		switch {
		case getErr == nil && sameRoom(stored, room):
			unchanged++
			continue
		case getErr != nil && !errors.Is(getErr, persistence.ErrNotFound):
			err = fmt.Errorf("load room %s: %w", room.ID, mapRepoError(getErr))
			return
		}
		if err = s.rooms.UpsertRoom(ctx, room); err != nil {
			err = fmt.Errorf("store room %s: %w", room.ID, mapRepoError(err))
			return
		}
		ids = append(ids, room.ID)
	}
	if len(ids) == 0 {
		return nil
	}
	s.InvalidateSnapshot()
	s.publish(ctx, logger, notify.Change{Kind: notify.KindRoomsChanged, RoomIDs: ids})
	return nil
}

// CheckAvailability reports, night by night, whether a room is free.
func (s *BookingService) CheckAvailability(ctx context.Context, params AvailabilityParams) (result AvailabilityResult, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	vErr := &ValidationError{}
	validateRoomID("room_id", params.RoomID, vErr)
	validateStay(params.CheckIn, params.CheckOut, s.options.MaxStayNights, vErr)
	if vErr.HasErrors() {
		return AvailabilityResult{}, vErr
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return AvailabilityResult{}, err
	}
	if _, ok := snap.Room(params.RoomID); !ok {
		return AvailabilityResult{}, fmt.Errorf("room %s: %w", params.RoomID, ErrNotFound)
	}

	checkIn, checkOut := engine.Day(params.CheckIn), engine.Day(params.CheckOut)
	days, err := snap.reservationIndex().CheckAvailability(params.RoomID, checkIn, checkOut, params.ExcludeID)
	if err != nil {
		return AvailabilityResult{}, mapEngineError(err)
	}
	result = AvailabilityResult{RoomID: params.RoomID, CheckIn: checkIn, CheckOut: checkOut, Available: true, Days: days}
	for _, d := range days {
		if !d.Available {
			result.Available = false
		}
		if d.Level == engine.ConflictFull {
			result.DoubleBooked = true
		}
	}
	if result.DoubleBooked {
		s.loggerWith(ctx, "CheckAvailability", "room_id", params.RoomID).
			WarnContext(ctx, "double booking detected in stored reservations")
	}
	return result, nil
}

// ValidateSelection checks a dragged timeline selection for a new booking.
func (s *BookingService) ValidateSelection(ctx context.Context, params SelectionParams) (engine.RangeValidation, error) {
	if s == nil {
		return engine.RangeValidation{}, fmt.Errorf("BookingService is nil")
	}
	vErr := &ValidationError{}
	validateRoomID("room_id", params.RoomID, vErr)
	if params.Origin.IsZero() {
		vErr.add("origin", "timeline origin is required")
	}
	limit := s.options.MaxWindowDays
	if params.StartOffset < -limit || params.StartOffset > limit {
		vErr.add("start_offset", fmt.Sprintf("must be within %d days of the origin", limit))
	}
	if params.EndOffset < -limit || params.EndOffset > limit {
		vErr.add("end_offset", fmt.Sprintf("must be within %d days of the origin", limit))
	}
	if !vErr.HasErrors() {
		span := params.EndOffset - params.StartOffset
		if span < 0 {
			span = -span
		}
		if span+1 > s.options.MaxStayNights {
			vErr.add("end_offset", fmt.Sprintf("selection cannot exceed %d nights", s.options.MaxStayNights))
		}
	}
	if vErr.HasErrors() {
		return engine.RangeValidation{}, vErr
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return engine.RangeValidation{}, err
	}
	if _, ok := snap.Room(params.RoomID); !ok {
		return engine.RangeValidation{}, fmt.Errorf("room %s: %w", params.RoomID, ErrNotFound)
	}
	validation, err := s.engine.ValidateCreate(params.RoomID, params.StartOffset, params.EndOffset, params.Origin, snap.Reservations)
	if err != nil {
		return engine.RangeValidation{}, mapEngineError(err)
	}
	return validation, nil
}

// QuoteStay prices a stay without storing anything.
func (s *BookingService) QuoteStay(ctx context.Context, params QuoteParams) (quote Quote, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	logger := s.loggerWith(ctx, "QuoteStay", "room_id", params.RoomID)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "failed to quote stay", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	vErr := &ValidationError{}
	validateRoomID("room_id", params.RoomID, vErr)
	validateStay(params.CheckIn, params.CheckOut, s.options.MaxStayNights, vErr)
	validateGuests("", params.Adults, params.ChildAges, false, vErr)
	validateServices(params.Services, vErr)
	if !vErr.HasErrors() {
		validateDailyDetails(params.DailyDetails, params.CheckIn, params.CheckOut, vErr)
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var snap Snapshot
	snap, err = s.Snapshot(ctx)
	if err != nil {
		return
	}
	room, ok := snap.Room(params.RoomID)
	if !ok {
		err = fmt.Errorf("room %s: %w", params.RoomID, ErrNotFound)
		return
	}

	details := params.DailyDetails
	if details == nil && params.ReservationID != "" {
		details, err = s.reservations.ListDailyDetails(ctx, params.ReservationID)
		if err != nil {
			err = fmt.Errorf("load daily details: %w", mapRepoError(err))
			return
		}
	}

	checkIn, checkOut := engine.Day(params.CheckIn), engine.Day(params.CheckOut)
	var summary engine.StayPricingSummary
	summary, err = s.engine.Aggregate(room, checkIn, checkOut, engine.GuestList{Adults: params.Adults, ChildAges: params.ChildAges}, params.Services, details)
	if err != nil {
		err = mapEngineError(err)
		return
	}
	quote = Quote{RoomID: room.ID, CheckIn: checkIn, CheckOut: checkOut, Summary: summary}
	return
}

// GetReservation returns a stored reservation priced with its daily details.
func (s *BookingService) GetReservation(ctx context.Context, id string) (ReservationResult, error) {
	if s == nil {
		return ReservationResult{}, fmt.Errorf("BookingService is nil")
	}
	res, err := s.reservations.GetReservation(ctx, id)
	if err != nil {
		return ReservationResult{}, mapRepoError(err)
	}
	details, err := s.reservations.ListDailyDetails(ctx, id)
	if err != nil {
		return ReservationResult{}, fmt.Errorf("load daily details: %w", mapRepoError(err))
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return ReservationResult{}, err
	}
	room, ok := snap.Room(res.RoomID)
	if !ok {
		return ReservationResult{}, fmt.Errorf("room %s: %w", res.RoomID, ErrNotFound)
	}
	summary, err := s.engine.Aggregate(room, res.CheckIn, res.CheckOut, res.Guests(), res.Services, details)
	if err != nil {
		return ReservationResult{}, mapEngineError(err)
	}
	return ReservationResult{Reservation: res, Summary: summary, Warnings: summary.Warnings}, nil
}

// CreateReservation validates, prices and stores a new reservation. When
// the store detects an overlap at commit time the request is re-validated
// against a fresh snapshot, up to the configured number of attempts.
func (s *BookingService) CreateReservation(ctx context.Context, params CreateReservationParams) (result ReservationResult, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	logger := s.loggerWith(ctx, "CreateReservation",
		"room_id", params.RoomID,
		"check_in", params.CheckIn.Format(engine.DateLayout),
		"check_out", params.CheckOut.Format(engine.DateLayout),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("reservation_id", result.Reservation.ID).InfoContext(ctx, "reservation created")
	}()

	vErr := &ValidationError{}
	validateRoomID("room_id", params.RoomID, vErr)
	validateStay(params.CheckIn, params.CheckOut, s.options.MaxStayNights, vErr)
	validateGuests("", params.Adults, params.ChildAges, true, vErr)
	validateServices(params.Services, vErr)
	guest := s.resolveGuest(params.Guest, vErr)
	status := params.Status
	if status == "" {
		status = engine.StatusConfirmed
	}
	if status != engine.StatusPending && status != engine.StatusConfirmed {
		vErr.add("status", "new reservations must be pending or confirmed")
	}
	if !vErr.HasErrors() {
		validateDailyDetails(params.DailyDetails, params.CheckIn, params.CheckOut, vErr)
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	checkIn, checkOut := engine.Day(params.CheckIn), engine.Day(params.CheckOut)
	details := normalizeDetails(params.DailyDetails)
	id := s.idGenerator()

	for attempt := 1; ; attempt++ {
		var snap Snapshot
		snap, err = s.Snapshot(ctx)
		if err != nil {
			return
		}
		room, ok := snap.Room(params.RoomID)
		if !ok {
			err = fmt.Errorf("room %s: %w", params.RoomID, ErrNotFound)
			return
		}
		var conflicts []engine.Reservation
		conflicts, err = snap.reservationIndex().FindOverlaps(room.ID, checkIn, checkOut, "")
		if err != nil {
			err = mapEngineError(err)
			return
		}
		if len(conflicts) > 0 {
			err = &ConflictError{RoomID: room.ID, Conflicts: conflicts, Retried: attempt > 1}
			return
		}

		var summary engine.StayPricingSummary
		summary, err = s.engine.Aggregate(room, checkIn, checkOut, engine.GuestList{Adults: params.Adults, ChildAges: params.ChildAges}, params.Services, details)
		if err != nil {
			err = mapEngineError(err)
			return
		}

		res := engine.Reservation{
			ID:        id,
			RoomID:    room.ID,
			Guest:     guest,
			CheckIn:   checkIn,
			CheckOut:  checkOut,
			Adults:    params.Adults,
			ChildAges: append([]int(nil), params.ChildAges...),
			Status:    status,
			Services:  params.Services,
			Totals:    summary.Totals(),
			UpdatedAt: s.now(),
		}
		err = s.reservations.CreateReservation(ctx, res, details)
		if errors.Is(err, persistence.ErrConflictOnCommit) {
			s.InvalidateSnapshot()
			if attempt < s.options.CommitAttempts {
				logger.WarnContext(ctx, "reservation conflicted at commit, retrying", "attempt", attempt)
				continue
			}
			err = fmt.Errorf("commit after %d attempts: %w", attempt, &ConflictError{RoomID: room.ID, Retried: true})
			return
		}
		if err != nil {
			err = mapRepoError(err)
			return
		}

		s.InvalidateSnapshot()
		s.publish(ctx, logger, notify.Change{Kind: notify.KindReservationCreated, ReservationID: res.ID, RoomIDs: []string{res.RoomID}})
		result = ReservationResult{Reservation: res, Summary: summary, Warnings: summary.Warnings}
		return
	}
}

// MoveReservation relocates a reservation to another room, other dates, or
// both. Daily details outside the new range are dropped and the stay is
// re-priced.
func (s *BookingService) MoveReservation(ctx context.Context, params MoveReservationParams) (result ReservationResult, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	logger := s.loggerWith(ctx, "MoveReservation",
		"reservation_id", params.ReservationID,
		"room_id", params.TargetRoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to move reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation moved")
	}()

	vErr := &ValidationError{}
	if strings.TrimSpace(params.ReservationID) == "" {
		vErr.add("reservation_id", "reservation is required")
	}
	validateRoomID("room_id", params.TargetRoomID, vErr)
	validateStay(params.CheckIn, params.CheckOut, s.options.MaxStayNights, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}
	checkIn, checkOut := engine.Day(params.CheckIn), engine.Day(params.CheckOut)

	for attempt := 1; ; attempt++ {
		var current engine.Reservation
		current, err = s.reservations.GetReservation(ctx, params.ReservationID)
		if err != nil {
			err = mapRepoError(err)
			return
		}
		if !current.Status.Blocking() || current.Status == engine.StatusCheckedOut {
			err = fieldError("status", fmt.Sprintf("a %s reservation cannot be moved", current.Status))
			return
		}

		var snap Snapshot
		snap, err = s.Snapshot(ctx)
		if err != nil {
			return
		}
		reservations := snap.Reservations
		if _, ok := snap.Reservation(current.ID); !ok {
			reservations = append(append([]engine.Reservation(nil), reservations...), current)
		}
		var validation engine.RangeValidation
		validation, err = s.engine.ValidateMove(current.ID, params.TargetRoomID, checkIn, checkOut, snap.Rooms, reservations)
		if err != nil {
			err = mapEngineError(err)
			return
		}
		if !validation.IsValid {
			err = &ConflictError{RoomID: params.TargetRoomID, Conflicts: validation.Conflicts, Retried: attempt > 1}
			return
		}

		var details []engine.DailyDetail
		details, err = s.reservations.ListDailyDetails(ctx, current.ID)
		if err != nil {
			err = fmt.Errorf("load daily details: %w", mapRepoError(err))
			return
		}
		kept := detailsWithin(details, checkIn, checkOut)

		room, _ := snap.Room(params.TargetRoomID)
		var summary engine.StayPricingSummary
		summary, err = s.engine.Aggregate(room, checkIn, checkOut, current.Guests(), current.Services, kept)
		if err != nil {
			err = mapEngineError(err)
			return
		}

		moved := current
		moved.RoomID = room.ID
		moved.CheckIn = checkIn
		moved.CheckOut = checkOut
		moved.Totals = summary.Totals()
		moved.UpdatedAt = s.now()

		err = s.reservations.UpdateReservation(ctx, moved, kept)
		if errors.Is(err, persistence.ErrConflictOnCommit) {
			s.InvalidateSnapshot()
			if attempt < s.options.CommitAttempts {
				logger.WarnContext(ctx, "move conflicted at commit, retrying", "attempt", attempt)
				continue
			}
			err = fmt.Errorf("commit after %d attempts: %w", attempt, &ConflictError{RoomID: room.ID, Retried: true})
			return
		}
		if err != nil {
			err = mapRepoError(err)
			return
		}

		s.InvalidateSnapshot()
		rooms := []string{current.RoomID}
		if room.ID != current.RoomID {
			rooms = append(rooms, room.ID)
		}
		s.publish(ctx, logger, notify.Change{Kind: notify.KindReservationMoved, ReservationID: moved.ID, RoomIDs: rooms})
		result = ReservationResult{Reservation: moved, Summary: summary, Warnings: summary.Warnings}
		return
	}
}

// UpdateStatus moves a reservation through its lifecycle. Setting the
// current status again is a no-op.
func (s *BookingService) UpdateStatus(ctx context.Context, params UpdateStatusParams) (res engine.Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	logger := s.loggerWith(ctx, "UpdateStatus",
		"reservation_id", params.ReservationID,
		"status", string(params.Status),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update reservation status", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation status updated")
	}()

	if !params.Status.Valid() {
		err = fieldError("status", "unknown status")
		return
	}
	res, err = s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if res.Status == params.Status {
		return
	}
	if !canTransition(res.Status, params.Status) {
		err = fieldError("status", fmt.Sprintf("cannot change status from %s to %s", res.Status, params.Status))
		return
	}

	res.Status = params.Status
	res.UpdatedAt = s.now()
	err = s.reservations.UpdateReservation(ctx, res, nil)
	if errors.Is(err, persistence.ErrConflictOnCommit) {
		s.InvalidateSnapshot()
		err = &ConflictError{RoomID: res.RoomID, Retried: true}
		return
	}
	if err != nil {
		err = mapRepoError(err)
		return
	}

	s.InvalidateSnapshot()
	s.publish(ctx, logger, notify.Change{Kind: notify.KindStatusChanged, ReservationID: res.ID, RoomIDs: []string{res.RoomID}})
	return
}

// SetDailyDetails replaces the per-night overrides of a reservation and
// re-prices the stay. An empty list clears every override.
func (s *BookingService) SetDailyDetails(ctx context.Context, params SetDailyDetailsParams) (result ReservationResult, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	logger := s.loggerWith(ctx, "SetDailyDetails",
		"reservation_id", params.ReservationID,
		"details", len(params.Details),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to set daily details", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "daily details updated", "warnings", len(result.Warnings))
	}()

	var res engine.Reservation
	res, err = s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	vErr := &ValidationError{}
	if !res.Status.Blocking() {
		vErr.add("status", fmt.Sprintf("a %s reservation cannot be edited", res.Status))
	}
	validateDailyDetails(params.Details, res.CheckIn, res.CheckOut, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var snap Snapshot
	snap, err = s.Snapshot(ctx)
	if err != nil {
		return
	}
	room, ok := snap.Room(res.RoomID)
	if !ok {
		err = fmt.Errorf("room %s: %w", res.RoomID, ErrNotFound)
		return
	}

	details := normalizeDetails(params.Details)
	var summary engine.StayPricingSummary
	summary, err = s.engine.Aggregate(room, res.CheckIn, res.CheckOut, res.Guests(), res.Services, details)
	if err != nil {
		err = mapEngineError(err)
		return
	}
	res.Totals = summary.Totals()
	res.UpdatedAt = s.now()
	err = s.reservations.UpdateReservation(ctx, res, details)
	if errors.Is(err, persistence.ErrConflictOnCommit) {
		s.InvalidateSnapshot()
		err = &ConflictError{RoomID: res.RoomID, Retried: true}
		return
	}
	if err != nil {
		err = mapRepoError(err)
		return
	}

	s.InvalidateSnapshot()
	s.publish(ctx, logger, notify.Change{Kind: notify.KindDailyDetails, ReservationID: res.ID, RoomIDs: []string{res.RoomID}})
	result = ReservationResult{Reservation: res, Summary: summary, Warnings: summary.Warnings}
	return
}

// OccupancyReport summarises fleet occupancy over a window.
func (s *BookingService) OccupancyReport(ctx context.Context, params TimelineParams) (engine.OccupancyReport, error) {
	if s == nil {
		return engine.OccupancyReport{}, fmt.Errorf("BookingService is nil")
	}
	vErr := &ValidationError{}
	validateWindow(params.Start, params.Days, s.options.MaxWindowDays, vErr)
	if vErr.HasErrors() {
		return engine.OccupancyReport{}, vErr
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return engine.OccupancyReport{}, err
	}
	report, err := s.engine.OccupancyStats(params.Start, params.Days, snap.Reservations, snap.Rooms)
	if err != nil {
		return engine.OccupancyReport{}, mapEngineError(err)
	}
	return report, nil
}

// Timeline renders the room by day grid over a window. Grids are cached
// per snapshot version.
func (s *BookingService) Timeline(ctx context.Context, params TimelineParams) (Timeline, error) {
	if s == nil {
		return Timeline{}, fmt.Errorf("BookingService is nil")
	}
	vErr := &ValidationError{}
	validateWindow(params.Start, params.Days, s.options.MaxWindowDays, vErr)
	if vErr.HasErrors() {
		return Timeline{}, vErr
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return Timeline{}, err
	}

	start := engine.Day(params.Start)
	key := fmt.Sprintf("%s|%s|%d", snap.Version, start.Format(engine.DateLayout), params.Days)
	if cached, ok := s.timelines.Get(key); ok {
		return cached, nil
	}

	end := start.AddDate(0, 0, params.Days)
	idx := snap.reservationIndex()
	timeline := Timeline{Start: start, Days: params.Days, Version: snap.Version, Rows: make([]TimelineRow, 0, len(snap.Rooms))}
	for _, room := range snap.Rooms {
		days, err := idx.CheckAvailability(room.ID, start, end, "")
		if err != nil {
			return Timeline{}, mapEngineError(err)
		}
		row := TimelineRow{Room: room, Cells: make([]TimelineCell, len(days))}
		for i, d := range days {
			cell := TimelineCell{Date: d.Date, Level: d.Level}
			for _, r := range d.Blocking {
				cell.ReservationIDs = append(cell.ReservationIDs, r.ID)
			}
			row.Cells[i] = cell
		}
		timeline.Rows = append(timeline.Rows, row)
	}
	s.timelines.Store(key, timeline)
	return timeline, nil
}

func (s *BookingService) resolveGuest(input GuestInput, vErr *ValidationError) engine.GuestRef {
	guestID := strings.TrimSpace(input.GuestID)
	placeholder := strings.TrimSpace(input.Placeholder)
	switch {
	case guestID != "" && placeholder != "":
		vErr.add("guest", "either a guest id or a placeholder may be given, not both")
		return engine.GuestRef{}
	case guestID != "":
		return engine.RegisteredGuest(guestID)
	case placeholder != "":
		return engine.PlaceholderGuest(placeholder)
	}
	return engine.PlaceholderGuest("walk-in-" + s.idGenerator())
}

// publish announces a change. Delivery failures only delay other
// processes' refresh, so they are logged rather than returned.
func (s *BookingService) publish(ctx context.Context, logger *slog.Logger, change notify.Change) {
	if s.publisher == nil {
		return
	}
	change.At = s.now()
	change.Origin = s.options.Origin
	if err := s.publisher.Publish(ctx, change); err != nil {
		logger.WarnContext(ctx, "failed to publish change", "kind", string(change.Kind), "error", err)
	}
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, persistence.ErrConflictOnCommit):
		return fmt.Errorf("%v: %w", err, &ConflictError{Retried: true})
	case errors.Is(err, persistence.ErrDuplicate):
		return fieldError("id", "already exists")
	case errors.Is(err, persistence.ErrConstraintViolation):
		return fieldError("reservation", err.Error())
	}
	return err
}

func mapEngineError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, engine.ErrRoomNotFound), errors.Is(err, engine.ErrReservationNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, engine.ErrInvalidDateRange):
		return fieldError("check_out", "check-out must be after check-in")
	case errors.Is(err, engine.ErrInvalidQuantity):
		return fieldError("guests", err.Error())
	}
	return err
}
