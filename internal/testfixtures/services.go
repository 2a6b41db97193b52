package testfixtures

import (
	"io"
	"log/slog"
	"time"

	"github.com/example/statusboard/internal/application"
	"github.com/example/statusboard/internal/parser"
	"github.com/example/statusboard/internal/ticket"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Policy      application.StartPolicy
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Policy:      application.StartPolicyIgnore,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
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

// WithStartPolicy overrides the start policy of the session machine.
func WithStartPolicy(policy application.StartPolicy) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Policy = policy
	}
}

// WithLogger overrides the discarding logger.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// Services is the wired set of status board services.
type Services struct {
	Registry   *application.RoomRegistry
	Machine    *application.SessionMachine
	Designated *application.DesignatedService
	Ingestion  *application.IngestionService
	Board      *application.BoardService
}

// Repositories returns the harness repositories grouped for the services.
func (h *SQLiteHarness) Repositories() application.Repositories {
	return application.Repositories{
		Slots:       h.Slots,
		Rooms:       h.Rooms,
		Records:     h.Records,
		MessageLogs: h.MessageLogs,
		Shops:       h.Shops,
		Notices:     h.Notices,
	}
}

// NewServices wires every service over repos with the factory defaults.
func (f *ServiceFactory) NewServices(repos application.Repositories) Services {
	idGen := f.IDGenerator.NextFunc()
	clock := f.Clock.Local()
	tickets := ticket.New(nil)

	writer := application.NewStatusBoardWriter(repos.Records, f.Logger)
	events := application.NewEventChecker(repos.Shops, repos.Records, f.Logger)
	registry := application.NewRoomRegistry(repos, writer, application.DefaultRoomHours(), idGen, f.Logger)
	machine := application.NewSessionMachine(repos.Records, writer, events, tickets, f.Policy, idGen, f.Logger)
	designated := application.NewDesignatedService(repos.Notices, repos.Records, writer, idGen, f.Logger)
	ingestion := application.NewIngestionService(repos, parser.New(nil), clock, registry, machine, designated, idGen, f.Logger)
	board := application.NewBoardService(repos.Slots, repos.Records, tickets, clock, f.Logger)

	return Services{
		Registry:   registry,
		Machine:    machine,
		Designated: designated,
		Ingestion:  ingestion,
		Board:      board,
	}
}
