package main

import (
	"context"
	_ "time/tzdata"

	"fleetbook/internal/reservations/events"
	"fleetbook/internal/reservations/handler"
	"fleetbook/internal/reservations/repository"
	"fleetbook/internal/reservations/service"
	"fleetbook/internal/reservations/validator"
	"fleetbook/pkg/app"
	"fleetbook/pkg/config"
	"fleetbook/pkg/kafka"
	kafka_middleware "fleetbook/pkg/kafka/middleware"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	cfg.Connect()

	cfg.Log.Info("Starting Reservations service")
	serverApp := app.NewApplication()

	notifier := initNotifier(cfg, serverApp)
	reservationService := initServices(cfg, notifier)

	serverApp.SetApp(cfg, handler.NewReservationHandler(reservationService, cfg.Log))
	serverApp.Run()
}

func initNotifier(cfg *config.Config, serverApp *app.Application) events.Notifier {
	if !cfg.Kafka.Enabled {
		cfg.Log.Info("Kafka disabled, reservation events are not published")
		return events.NopNotifier{}
	}

	producer, err := kafka.NewProducer(&cfg.Kafka, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	metrics := &kafka_middleware.Metrics{}
	producer.Use(kafka_middleware.Logging(cfg.Log, kafka_middleware.Publish))
	producer.Use(metrics.Producer())

	serverApp.OnShutdown(func(context.Context) {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
		cfg.Log.Info("Kafka producer closed", "metrics", metrics.Snapshot())
	})
	return events.NewKafkaNotifier(producer, ServiceName)
}

func initServices(cfg *config.Config, notifier events.Notifier) service.ReservationService {
	reservationValidator := validator.NewReservationValidator(cfg.Log)
	reservationRepo, lockRepo := repository.New(cfg)
	reservationService := service.NewReservationService(
		reservationRepo,
		lockRepo,
		reservationValidator,
		notifier,
		cfg,
	)

	cfg.Log.Info("Reservation service initialized", "store", cfg.StoreDriver)
	return reservationService
}
