package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	appcashflows "github.com/Eduvent/bono-app-sub002/internal/application/service/cashflows"
	"github.com/Eduvent/bono-app-sub002/internal/config"
	infrabonds "github.com/Eduvent/bono-app-sub002/internal/infrastructure/bonds"
	"github.com/Eduvent/bono-app-sub002/internal/infrastructure/broker"
	infraschedules "github.com/Eduvent/bono-app-sub002/internal/infrastructure/schedules"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		config.NewLogger(config.DefaultLogLevel).Fatalf("config error: %v", err)
	}
	logger := config.NewLogger(cfg.LogLevel)
	if !cfg.RabbitMQ.Enabled() {
		logger.Fatal("RABBITMQ_URL is required")
	}

	bondRepo, err := infrabonds.NewRepository(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatalf("failed to init bonds repo: %v", err)
	}
	defer bondRepo.Close()

	scheduleRepo, err := infraschedules.NewRepository(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatalf("failed to init schedules repo: %v", err)
	}
	defer scheduleRepo.Close()

	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Fatalf("connect rabbitmq: %v", err)
	}
	defer conn.Close()

	pub, err := broker.NewPublisher(conn, cfg.RabbitMQ, logger)
	if err != nil {
		logger.Fatalf("init publisher: %v", err)
	}
	defer pub.Close()

	service := appcashflows.NewService(bondRepo, scheduleRepo, pub, cfg.Engine.Workers, logger)

	consumer, err := broker.NewConsumer(cfg.RabbitMQ, service, logger)
	if err != nil {
		logger.Fatalf("init consumer: %v", err)
	}
	if err := consumer.Start(ctx); err != nil {
		logger.Fatalf("start consumer: %v", err)
	}

	logger.WithField("workers", cfg.Engine.Workers).Info("worker started")
	<-ctx.Done()
	logger.Info("shutting down worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := consumer.Close(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("flush pending recalculations: %v", err)
	}
	logger.Info("worker stopped")
}
