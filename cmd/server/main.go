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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/washline/api/internal/config"
	"github.com/washline/api/internal/database"
	"github.com/washline/api/internal/gateway"
	"github.com/washline/api/internal/geocode"
	"github.com/washline/api/internal/logging"
	"github.com/washline/api/internal/notify"
	"github.com/washline/api/internal/router"
	"github.com/washline/api/internal/service"
	"github.com/washline/api/internal/ws"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RunMigrations {
		if err := database.Migrate(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations applied")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	queries := database.New(pool)

	hub := ws.NewHub()
	go hub.Run(ctx)

	sinks := []notify.Sink{notify.NewStoreSink(queries), hub}
	if cfg.RabbitMQURL != "" {
		amqpSink, err := notify.DialAMQP(cfg.RabbitMQURL)
		if err != nil {
			return fmt.Errorf("dial rabbitmq: %w", err)
		}
		defer amqpSink.Close()
		sinks = append(sinks, amqpSink)
		logger.Info("rabbitmq notification sink enabled")
	}
	dispatcher := notify.NewDispatcher(logger, cfg.NotifyQueueSize, sinks...)
	// Outlives ctx so notifications from in-flight requests are flushed.
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	dispatched := make(chan struct{})
	go func() {
		dispatcher.Run(dispatchCtx)
		close(dispatched)
	}()
	defer func() {
		stopDispatch()
		<-dispatched
	}()

	if cfg.GatewayServerKey == "" {
		logger.Warn("GATEWAY_SERVER_KEY is empty; gateway payments and callbacks will fail")
	}

	svc := service.NewFulfillmentService(pool,
		func(db database.DBTX) service.FulfillmentStore {
			return database.New(db)
		},
		service.FulfillmentOptions{
			Notifier:         dispatcher,
			Gateway:          gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewayServerKey),
			GatewayServerKey: cfg.GatewayServerKey,
			Pricing:          cfg.Pricing,
			Logger:           logger,
		},
	)

	r := router.New(cfg, router.Deps{
		Queries:  queries,
		Pool:     pool,
		Hub:      hub,
		Service:  svc,
		Geocoder: geocode.NewClient(cfg.GeocoderBaseURL, cfg.GeocoderAPIKey),
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
