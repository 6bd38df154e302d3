package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/frontdesk/internal/application"
	"github.com/example/frontdesk/internal/engine"
	"github.com/example/frontdesk/internal/notify"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("res"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("res")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// BookingServiceDeps captures dependencies for constructing a booking
// service. Nil fields fall back to the factory defaults, the house engine
// and an in-process hub.
type BookingServiceDeps struct {
	Rooms        application.RoomCatalog
	Reservations application.ReservationStore
	Engine       *engine.Engine
	Publisher    notify.Publisher
	Options      application.BookingOptions
	IDGenerator  func() string
	Now          func() time.Time
	Logger       *slog.Logger
}

// NewBookingService builds a booking service using the supplied dependencies
// combined with the factory defaults.
func (f *ServiceFactory) NewBookingService(deps BookingServiceDeps) *application.BookingService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	eng := deps.Engine
	if eng == nil {
		eng = Engine()
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = notify.NewHub(16, deps.Logger)
	}
	return application.NewBookingServiceWithLogger(
		deps.Rooms,
		deps.Reservations,
		eng,
		publisher,
		idGen,
		now,
		deps.Options,
		deps.Logger,
	)
}

// NewSQLiteBookingService builds a booking service over the harness store.
func (f *ServiceFactory) NewSQLiteBookingService(h *SQLiteHarness, deps BookingServiceDeps) *application.BookingService {
	deps.Rooms = h.Store
	deps.Reservations = h.Store
	return f.NewBookingService(deps)
}
