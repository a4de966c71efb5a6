package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chachabrian/rideshare-backend/internal/config"
	"github.com/chachabrian/rideshare-backend/internal/database"
	"github.com/chachabrian/rideshare-backend/internal/events"
	"github.com/chachabrian/rideshare-backend/internal/handlers"
	"github.com/chachabrian/rideshare-backend/internal/services"
	"github.com/chachabrian/rideshare-backend/pkg/utils"
	"github.com/gin-gonic/gin"
)

const serviceName = "rideshare-api"

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := utils.NewLogger(os.Stdout, serviceName, cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDB(cfg.DB)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn("close database", "error", err)
		}
	}()
	log.Info("database ready")

	publisher, err := newPublisher(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("close event publisher", "error", err)
		}
	}()
	log.Info("event publisher ready", "broker", cfg.EventBroker)

	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	coord := services.NewCoordinator(db, tokens, publisher, log)

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	router := handlers.NewRouter(handlers.RouterConfig{
		Coordinator: coord,
		Ping:        func(ctx context.Context) error { return database.Ping(ctx, db) },
		Logger:      log,
		CORSOrigins: cfg.CORSOrigins,
	})

	return serve(ctx, log, &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	})
}

func newPublisher(ctx context.Context, cfg *config.Config) (events.Publisher, error) {
	switch cfg.EventBroker {
	case config.BrokerRedis:
		p, err := events.NewRedisPublisher(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.BrokerRabbitMQ:
		p, err := events.NewAMQPPublisher(ctx, cfg.AMQPURL)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return events.Nop{}, nil
	}
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, log *slog.Logger, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
