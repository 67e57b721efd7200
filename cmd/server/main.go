package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	docs "github.com/Eduvent/bono-app-sub002/docs"
	appbonds "github.com/Eduvent/bono-app-sub002/internal/application/service/bonds"
	appcashflows "github.com/Eduvent/bono-app-sub002/internal/application/service/cashflows"
	"github.com/Eduvent/bono-app-sub002/internal/config"
	"github.com/Eduvent/bono-app-sub002/internal/domain/interfaces"
	infrabonds "github.com/Eduvent/bono-app-sub002/internal/infrastructure/bonds"
	"github.com/Eduvent/bono-app-sub002/internal/infrastructure/broker"
	infraschedules "github.com/Eduvent/bono-app-sub002/internal/infrastructure/schedules"
	infrahttp "github.com/Eduvent/bono-app-sub002/internal/interfaces/http"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		config.NewLogger(config.DefaultLogLevel).Fatalf("failed to load config: %v", err)
	}
	logger := config.NewLogger(cfg.LogLevel)

	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Host = cfg.HTTP.Addr()

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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var events interfaces.EventPublisher
	if cfg.RabbitMQ.Enabled() {
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
		events = pub
	} else {
		logger.Warn("RABBITMQ_URL is empty, bond events are not published")
	}

	bondService := appbonds.NewService(bondRepo, scheduleRepo, events, logger)
	cashflowService := appcashflows.NewService(bondRepo, scheduleRepo, events, cfg.Engine.Workers, logger)

	cacheTTL := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	handler := infrahttp.NewHandler(bondService, cashflowService, redisClient, cacheTTL, logger)

	server := &http.Server{
		Addr:    cfg.HTTP.Addr(),
		Handler: handler,
	}

	go func() {
		logger.Infof("HTTP server listening on %s", cfg.HTTP.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown error: %v", err)
	}
	logger.Info("server stopped")
}
