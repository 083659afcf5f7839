package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"fleetbook/internal/reservations/events"
	"fleetbook/internal/reservations/repository"
	"fleetbook/pkg/config"
	"fleetbook/pkg/kafka"
	kafka_middleware "fleetbook/pkg/kafka/middleware"
)

const ServiceName = "conflict-worker"

func main() {
	cfg := config.Load(ServiceName)
	if !cfg.Kafka.Enabled {
		cfg.Log.Fatal("The conflict worker requires FLEETBOOK_KAFKA_ENABLED=true")
	}
	cfg.Connect()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	producer, err := kafka.NewProducer(&cfg.Kafka, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	reservationRepo, _ := repository.New(cfg)
	worker := events.NewWorker(reservationRepo, events.NewKafkaNotifier(producer, ServiceName), cfg)

	consumer, err := kafka.NewConsumer(&cfg.Kafka, cfg.Log, worker.Handle)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	metrics := &kafka_middleware.Metrics{}
	consumer.Use(kafka_middleware.Logging(cfg.Log, kafka_middleware.Consume))
	consumer.Use(metrics.Consumer())

	cfg.Log.Info("Starting conflict worker", "topic", cfg.Kafka.Topic, "group_id", cfg.Kafka.GroupID)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
	if err := producer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka producer", "error", err)
	}
	cfg.Client.GracefulShutdown(shutdownCtx, cfg.Log)
	cfg.Log.Info("Conflict worker stopped", "metrics", metrics.Snapshot())
}
