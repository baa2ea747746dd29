package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spotbnb/internal/api"
	"spotbnb/internal/auth"
	"spotbnb/internal/config"
	"spotbnb/internal/database"
	"spotbnb/internal/domain"
	"spotbnb/internal/events"
	"spotbnb/internal/logging"
	"spotbnb/internal/metrics"
	"spotbnb/internal/repository"
	"spotbnb/internal/service"
	"spotbnb/internal/validation"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database, &logger)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Database.Driver).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	sessions := initSessionStore(redisClient, &logger)

	eventBus := initEventBus(&logger)
	services := initServices(cfg, db, sessions, eventBus, &logger)

	httpServer := api.NewHTTPServer(cfg.API, cfg.Auth, services, db, &logger)

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(cfg.API.GRPC, db, &logger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startMetrics(ctx, cfg, &logger)

	backup := database.NewBackupService(db, cfg.Backup, &logger)
	go backup.Start(ctx)

	return startServers(ctx, grpcServer, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, sessions start on the in-memory store")
	} else {
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}
	return redisClient
}

// initSessionStore prefers Redis and falls back to process memory while it is down.
func initSessionStore(client *redis.Client, logger *zerolog.Logger) domain.SessionStore {
	memory := repository.NewMemorySessionStore()
	if client == nil {
		logger.Warn().Msg("redis is not configured, sessions are kept in memory")
		return memory
	}
	return repository.NewFailoverSessionStore(repository.NewRedisSessionStore(client), memory, logging.Component(logger, "sessions"))
}

func initEventBus(logger *zerolog.Logger) *events.EventBus {
	bus := events.NewEventBus()
	eventLogger := logging.Component(logger, "events")

	bus.Subscribe(events.AllEvents, func(event *events.Event) error {
		metrics.IncEvent(event.Type)
		eventLogger.Debug().Str("type", event.Type).RawJSON("payload", event.Payload).Msg("domain event")
		return nil
	})
	bus.OnError(func(event *events.Event, err error) {
		eventLogger.Error().Err(err).Str("type", event.Type).Msg("event handler failed")
	})
	return bus
}

func initServices(cfg *config.Config, db *database.DB, sessions domain.SessionStore, bus *events.EventBus, logger *zerolog.Logger) api.Services {
	v := validation.New()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.App.Name)
	limit := service.LoginLimit{
		Attempts: cfg.Auth.LoginRateLimit.Attempts,
		Window:   cfg.Auth.LoginRateLimit.Window,
	}

	services := api.Services{
		Auth:     service.NewAuthService(db, sessions, tokens, v, bus, cfg.Auth.BcryptCost, limit, logging.Component(logger, "auth")),
		Spots:    service.NewSpotService(db, v, bus, logging.Component(logger, "spots")),
		Reviews:  service.NewReviewService(db, v, bus, logging.Component(logger, "reviews")),
		Bookings: service.NewBookingService(db, v, bus, cfg.Booking.OverlapMode, logging.Component(logger, "bookings")),
	}

	logger.Info().
		Str("overlap_mode", string(services.Bookings.Mode())).
		Dur("session_ttl", tokens.TTL()).
		Int("login_attempts", limit.Attempts).
		Msg("Services initialized")

	return services
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	errCh := make(chan error, 2)

	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(ctx); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	logger.Info().
		Int("http_port", cfg.API.HTTP.Port).
		Bool("grpc_enabled", grpcServer != nil).
		Msg("API server started")

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case runErr = <-errCh:
		logger.Error().Err(runErr).Msg("server stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("API server stopped")
	return runErr
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
