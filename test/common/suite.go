package common

import (
	"net/http/httptest"
	"testing"

	"resbook/internal/bookings/handler"
	"resbook/internal/bookings/recurrence"
	"resbook/internal/bookings/repository"
	"resbook/internal/bookings/service"
	"resbook/internal/bookings/validator"
	"resbook/pkg/app"
	"resbook/pkg/client"
	"resbook/pkg/config"
	"resbook/pkg/events"
	"resbook/pkg/logger"
	"resbook/pkg/sealer"
)

// slotTokenTestSecret seals suggestion tokens in tests. Any non-empty
// secret works; the sealer hashes it into a key.
const slotTokenTestSecret = "bookings-integration-test-secret"

// Suite runs the booking service in-process behind httptest so tests can
// drive the public HTTP surface, full middleware stack included, without
// Mongo or Kafka. Each suite owns isolated in-memory state.
type Suite struct {
	Config *config.Config
	Store  *repository.MemoryStore
	Server *httptest.Server
	Client *client.BookingClient
}

func NewSuite(t *testing.T) *Suite {
	t.Helper()

	cfg := config.Load("bookings-integration-tests")
	cfg.Log = logger.NewNop()

	store := repository.NewMemoryStore()
	engine := recurrence.NewEngine(cfg.UnboundedHorizon)

	slotSealer, err := sealer.New(slotTokenTestSecret, cfg.SlotTokenTTL)
	if err != nil {
		t.Fatalf("failed to build slot sealer: %v", err)
	}

	svc := service.NewBookingService(
		store.Series(),
		store.Instances(),
		store.Locks(),
		validator.NewBookingValidator(cfg.Log),
		engine,
		slotSealer,
		events.NewNopPublisher(),
		cfg,
	)

	application := app.NewApplication(cfg)
	application.SetApp(handler.NewBookingHandler(svc, cfg.Log))

	server := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		server.Close()
		application.Stop()
		cfg.GracefulShutdown()
	})

	return &Suite{
		Config: cfg,
		Store:  store,
		Server: server,
		Client: client.NewBookingClient(server.URL),
	}
}
