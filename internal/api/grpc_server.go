package api

import (
	"context"
	"fmt"
	"net"
	"time"

	"spotbnb/internal/config"
	"spotbnb/internal/logging"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// HealthService is the service name reported next to the overall ("") status.
const HealthService = "spotbnb.API"

const healthCheckInterval = 15 * time.Second

// GRPCServer serves grpc.health.v1 with a status that follows database reachability.
type GRPCServer struct {
	cfg      config.APIGRPCConfig
	db       Pinger
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
	log      *zerolog.Logger
}

func NewGRPCServer(cfg config.APIGRPCConfig, db Pinger, logger *zerolog.Logger) (*GRPCServer, error) {
	addr := fmt.Sprintf(":%d", cfg.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("grpc listen %s: %w", addr, err)
	}
	return newGRPCServer(cfg, db, lis, logger), nil
}

func newGRPCServer(cfg config.APIGRPCConfig, db Pinger, lis net.Listener, logger *zerolog.Logger) *GRPCServer {
	serverLogger := logging.Component(logger, "grpc")

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		RecoveryUnaryInterceptor(serverLogger),
		LoggingUnaryInterceptor(logger),
	))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	if cfg.Reflection {
		reflection.Register(grpcServer)
	}

	return &GRPCServer{
		cfg:      cfg,
		db:       db,
		server:   grpcServer,
		health:   healthServer,
		listener: lis,
		log:      serverLogger,
	}
}

func (s *GRPCServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Serve blocks until the server stops. Health is checked once up front and
// then every healthCheckInterval until ctx is done.
func (s *GRPCServer) Serve(ctx context.Context) error {
	s.checkHealth(ctx)
	go s.watchHealth(ctx)

	s.log.Info().Str("addr", s.Addr()).Msg("gRPC API listening")
	return s.server.Serve(s.listener)
}

func (s *GRPCServer) watchHealth(ctx context.Context) {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkHealth(ctx)
		}
	}
}

func (s *GRPCServer) checkHealth(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.db.PingContext(pingCtx); err != nil {
		s.log.Warn().Err(err).Msg("Database ping failed, reporting NOT_SERVING")
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(HealthService, status)
}

func (s *GRPCServer) Shutdown(ctx context.Context) {
	if s.server == nil {
		return
	}
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-ctx.Done():
		s.log.Warn().Msg("gRPC graceful shutdown timed out; forcing stop")
		s.server.Stop()
		return
	}
}
