package main

import (
	"resbook/internal/bookings/handler"
	"resbook/internal/bookings/recurrence"
	"resbook/internal/bookings/repository"
	"resbook/internal/bookings/service"
	"resbook/internal/bookings/validator"
	"resbook/pkg/app"
	"resbook/pkg/config"
	"resbook/pkg/events"
	"resbook/pkg/kafka"
	kafka_config "resbook/pkg/kafka/config"
	kafka_middleware "resbook/pkg/kafka/middleware"
	"resbook/pkg/sealer"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Bookings service")

	publisher := initPublisher(cfg)
	defer publisher.Close()

	bookingService := initServices(cfg, publisher)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewBookingHandler(bookingService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config, publisher events.Publisher) service.BookingService {
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	seriesRepo := repository.NewMongoSeriesRepository(cfg)
	instanceRepo := repository.NewMongoInstanceRepository(cfg)
	lockRepo := repository.NewMongoLockRepository(cfg)
	engine := recurrence.NewEngine(cfg.UnboundedHorizon)

	bookingService := service.NewBookingService(
		seriesRepo,
		instanceRepo,
		lockRepo,
		bookingValidator,
		engine,
		initSealer(cfg),
		publisher,
		cfg,
	)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService
}

func initSealer(cfg *config.Config) *sealer.Sealer {
	if cfg.SlotTokenSecret == "" {
		cfg.Log.Info("Slot token secret not configured, suggestions carry no tokens")
		return nil
	}

	slotSealer, err := sealer.New(cfg.SlotTokenSecret, cfg.SlotTokenTTL)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize slot token sealer", "error", err)
	}
	return slotSealer
}

func initPublisher(cfg *config.Config) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		cfg.Log.Info("Kafka brokers not configured, event publishing disabled")
		return events.NewNopPublisher()
	}

	kafkaCfg := kafka_config.Load()
	kafkaCfg.Brokers = cfg.KafkaBrokers

	producer, err := kafka.NewProducer(kafkaCfg, cfg.KafkaTopic, cfg.KafkaTopic+".dlq")
	if err != nil {
		cfg.Log.Fatal("Failed to initialize Kafka producer", "error", err)
	}

	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(kafka_middleware.MetricsProducerMiddleware())
	}

	cfg.Log.Info("Kafka event publishing enabled",
		"topic", cfg.KafkaTopic,
		"brokers", len(cfg.KafkaBrokers),
	)
	return events.NewKafkaPublisher(producer, ServiceName, cfg.Log)
}
