package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/example/frontdesk/internal/engine"
	"github.com/example/frontdesk/internal/notify"
	"github.com/example/frontdesk/internal/persistence"
)

func day(value string) time.Time {
	d, err := engine.ParseDate(value)
	if err != nil {
		panic(err)
	}
	return d
}

func testTariff() engine.Tariff {
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

func testRoom(id string, floor int) engine.Room {
	return engine.Room{
		ID:           id,
		Floor:        floor,
		Type:         "double",
		MaxOccupancy: 3,
		Rates: map[engine.PeriodTag]float64{
			engine.PeriodA: 50,
			engine.PeriodB: 65,
			engine.PeriodC: 75,
			engine.PeriodD: 90,
		},
	}
}

func testBooking(id, roomID, in, out string, status engine.Status) engine.Reservation {
	return engine.Reservation{
		ID:       id,
		RoomID:   roomID,
		Guest:    engine.RegisteredGuest("guest-" + id),
		CheckIn:  day(in),
		CheckOut: day(out),
		Adults:   2,
		Status:   status,
	}
}

// memoryStore is an in-memory RoomCatalog and ReservationStore that
// rejects overlapping blocking reservations the way the SQLite store does.
type memoryStore struct {
	mu           sync.Mutex
	rooms        map[string]engine.Room
	reservations map[string]engine.Reservation
	details      map[string][]engine.DailyDetail
	listCalls    int
	// beforeCommit runs once, just before the next write is checked.
	beforeCommit func(s *memoryStore)
	// duringList runs once while reservations are being listed.
	duringList func()
	listErr    error
}

func newMemoryStore(rooms []engine.Room, reservations ...engine.Reservation) *memoryStore {
	s := &memoryStore{
		rooms:        make(map[string]engine.Room),
		reservations: make(map[string]engine.Reservation),
		details:      make(map[string][]engine.DailyDetail),
	}
	for _, r := range rooms {
		s.rooms[r.ID] = r
	}
	for _, r := range reservations {
		s.reservations[r.ID] = r
	}
	return s
}

func (s *memoryStore) ListRooms(ctx context.Context) ([]engine.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]engine.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	return out, nil
}

func (s *memoryStore) GetRoom(ctx context.Context, id string) (engine.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return engine.Room{}, fmt.Errorf("room %s: %w", id, persistence.ErrNotFound)
	}
	return room, nil
}

func (s *memoryStore) UpsertRoom(ctx context.Context, room engine.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room
	return nil
}

func (s *memoryStore) CreateReservation(ctx context.Context, res engine.Reservation, details []engine.DailyDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runHookLocked()
	if _, ok := s.reservations[res.ID]; ok {
		return persistence.ErrDuplicate
	}
	if err := s.checkOverlapLocked(res); err != nil {
		return err
	}
	s.reservations[res.ID] = res
	s.details[res.ID] = details
	return nil
}

func (s *memoryStore) UpdateReservation(ctx context.Context, res engine.Reservation, details []engine.DailyDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runHookLocked()
	if _, ok := s.reservations[res.ID]; !ok {
		return persistence.ErrNotFound
	}
	if err := s.checkOverlapLocked(res); err != nil {
		return err
	}
	s.reservations[res.ID] = res
	if details != nil {
		s.details[res.ID] = details
	}
	return nil
}

func (s *memoryStore) GetReservation(ctx context.Context, id string) (engine.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[id]
	if !ok {
		return engine.Reservation{}, fmt.Errorf("reservation %s: %w", id, persistence.ErrNotFound)
	}
	return res, nil
}

func (s *memoryStore) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]engine.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if hook := s.duringList; hook != nil {
		s.duringList = nil
		hook()
	}
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]engine.Reservation, 0, len(s.reservations))
	for _, r := range s.reservations {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memoryStore) ListDailyDetails(ctx context.Context, id string) ([]engine.DailyDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reservations[id]; !ok {
		return nil, persistence.ErrNotFound
	}
	return s.details[id], nil
}

func (s *memoryStore) get(id string) engine.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reservations[id]
}

func (s *memoryStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

func (s *memoryStore) runHookLocked() {
	if hook := s.beforeCommit; hook != nil {
		s.beforeCommit = nil
		hook(s)
	}
}

func (s *memoryStore) checkOverlapLocked(res engine.Reservation) error {
	if !res.Status.Blocking() {
		return nil
	}
	for _, other := range s.reservations {
		if other.ID == res.ID || other.RoomID != res.RoomID || !other.Status.Blocking() {
			continue
		}
		if engine.Overlaps(other.CheckIn, other.CheckOut, res.CheckIn, res.CheckOut) {
			return persistence.ErrConflictOnCommit
		}
	}
	return nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	changes []notify.Change
	err     error
}

func (p *recordingPublisher) Publish(ctx context.Context, change notify.Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, change)
	return p.err
}

func (p *recordingPublisher) published() []notify.Change {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notify.Change(nil), p.changes...)
}

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func fixedNow() time.Time {
	return time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T, store *memoryStore) (*BookingService, *recordingPublisher) {
	t.Helper()
	eng, err := engine.New(testTariff(), engine.PricingRules{
		RateBasis:            engine.RatePerPerson,
		ChildFreeAge:         3,
		ChildDiscountAge:     12,
		ChildDiscountPercent: 50,
		TourismTaxChildAge:   12,
		ParkingFee:           10,
		PetFee:               15,
		TowelFee:             2,
		VATRate:              0.10,
		VATIncluded:          true,
	})
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	publisher := &recordingPublisher{}
	svc := NewBookingServiceWithLogger(store, store, eng, publisher, sequentialIDs("res"), fixedNow,
		BookingOptions{Origin: "test-node"}, nil)
	return svc, publisher
}
