package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/surajpaudel2/sports-ticketing/internal/booking"
	"github.com/surajpaudel2/sports-ticketing/internal/handler"
	"github.com/surajpaudel2/sports-ticketing/internal/inventory"
	"github.com/surajpaudel2/sports-ticketing/internal/metrics"
	"github.com/surajpaudel2/sports-ticketing/internal/notification"
	"github.com/surajpaudel2/sports-ticketing/internal/payment"
	"github.com/surajpaudel2/sports-ticketing/internal/payment/gateway"
	"github.com/surajpaudel2/sports-ticketing/internal/saga"
	"github.com/surajpaudel2/sports-ticketing/pkg/config"
	"github.com/surajpaudel2/sports-ticketing/pkg/database"
	"github.com/surajpaudel2/sports-ticketing/pkg/logger"
	"github.com/surajpaudel2/sports-ticketing/pkg/middleware"
	"github.com/surajpaudel2/sports-ticketing/pkg/redis"
	"github.com/surajpaudel2/sports-ticketing/pkg/retry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(&logger.Config{
		Environment: cfg.App.Environment,
		Level:       cfg.App.LogLevel,
		ServiceName: cfg.App.Name,
	})
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Persistence
	var (
		eventRepo   inventory.EventRepository
		bookingRepo booking.Repository
		paymentRepo payment.Repository
		tokenStore  inventory.TokenStore
		sagaStore   saga.Store
		healthCheck = map[string]handler.HealthChecker{}
		idempotency gin.HandlerFunc
	)

	if cfg.App.Storage == "postgres" {
		eventDB, err := database.NewPostgres(ctx, &cfg.EventDatabase)
		if err != nil {
			return err
		}
		defer eventDB.Close()

		bookingDB, err := database.NewPostgres(ctx, &cfg.BookingDatabase)
		if err != nil {
			return err
		}
		defer bookingDB.Close()

		paymentDB, err := database.NewPostgres(ctx, &cfg.PaymentDatabase)
		if err != nil {
			return err
		}
		defer paymentDB.Close()

		rdb, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()

		eventRepo = inventory.NewPostgresEventRepository(eventDB.Pool())
		bookingRepo = booking.NewPostgresRepository(bookingDB.Pool())
		paymentRepo = payment.NewPostgresRepository(paymentDB.Pool())
		tokenStore = inventory.NewRedisTokenStore(rdb)
		sagaStore = saga.NewRedisStore(rdb)
		idempotency = middleware.Idempotency(&middleware.IdempotencyConfig{Redis: rdb.Client()})

		healthCheck["event_db"] = eventDB
		healthCheck["booking_db"] = bookingDB
		healthCheck["payment_db"] = paymentDB
		healthCheck["redis"] = rdb
	} else {
		log.Warn("using in-memory storage, state is lost on restart")
		eventRepo = inventory.NewMemoryEventRepository()
		bookingRepo = booking.NewMemoryRepository()
		paymentRepo = payment.NewMemoryRepository()
		tokenStore = inventory.NewMemoryTokenStore()
		sagaStore = saga.NewMemoryStore()
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// Services
	inv := inventory.NewService(eventRepo, tokenStore, log)

	gw := gateway.NewMockGateway(cfg.Gateway.MockSuccessRate, cfg.Gateway.MockDelay)
	payments := payment.NewService(paymentRepo, gw, cfg.Gateway.ChargeTimeout, log)

	var notificationSender notification.Sender
	if cfg.Kafka.Enabled {
		publisher, err := notification.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.ClientID, cfg.Kafka.NotificationTopic, log)
		if err != nil {
			return err
		}
		defer publisher.Close(context.Background())
		notificationSender = publisher
	} else {
		notificationSender = notification.NewLogSender(log)
	}
	dispatcher := notification.NewDispatcher(notificationSender, notificationSender, log)

	retrier := retry.New(&retry.Config{
		MaxRetries:      cfg.Saga.CompensationRetries,
		InitialInterval: time.Second,
		MaxInterval:     15 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	})
	orchestrator := saga.NewOrchestrator(inv, bookingRepo, payments, sagaStore, dispatcher, retrier, m, log)

	sweeper := saga.NewSweeper(sagaStore, inv, cfg.Saga.SweepInterval, cfg.Saga.StaleAfter, m, log)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	// HTTP
	router := handler.NewRouter(handler.RouterConfig{
		Events:      handler.NewEventHandler(inv),
		Bookings:    handler.NewBookingHandler(orchestrator, bookingRepo),
		Payments:    handler.NewPaymentHandler(payments),
		Health:      handler.NewHealthHandler(healthCheck),
		Logger:      log,
		Idempotency: idempotency,
		Registry:    registry,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", server.Addr),
			zap.String("storage", cfg.App.Storage))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
