// Package ops runs the gRPC operations endpoint: the standard health
// service, backed by a database ping, plus server reflection.
package ops

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported for the backend
const ServiceName = "student_tracking.Backend"

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wraps the gRPC server and its health state
type Server struct {
	GRPC   *grpc.Server
	health *health.Server
	pinger Pinger
	logger *zap.Logger
}

// NewServer creates the gRPC server with health and reflection registered.
// The service starts as NOT_SERVING until the first successful ping.
func NewServer(pinger Pinger, logger *zap.Logger) *Server {
	grpcServer := grpc.NewServer()

	// Register health check service
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	// Register reflection service (useful for debugging with grpcurl)
	reflection.Register(grpcServer)

	return &Server{GRPC: grpcServer, health: healthServer, pinger: pinger, logger: logger}
}

// Check pings the store once and updates the serving status
func (s *Server) Check(ctx context.Context) grpc_health_v1.HealthCheckResponse_ServingStatus {
	status := grpc_health_v1.HealthCheckResponse_SERVING
	if err := s.pinger.Ping(ctx); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(ServiceName, status)
	s.health.SetServingStatus("", status)
	return status
}

// Watch re-checks health every interval until ctx is done
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	s.Check(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

// Shutdown marks the service NOT_SERVING and stops the server gracefully
func (s *Server) Shutdown() {
	s.health.Shutdown()
	s.GRPC.GracefulStop()
}
