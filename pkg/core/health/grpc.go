package health

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server exposes a Registry over the standard gRPC health protocol so
// supervisors and sidecars can probe the service without speaking MCP.
type Server struct {
	healthpb.UnimplementedHealthServer

	registry *Registry
	logger   *zap.Logger
	interval time.Duration

	grpcServer *grpc.Server
}

// NewServer creates a gRPC health server backed by the registry.
func NewServer(registry *Registry, logger *zap.Logger) *Server {
	return &Server{
		registry: registry,
		logger:   logger,
		interval: 5 * time.Second,
	}
}

// Check implements grpc.health.v1.Health.
func (s *Server) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	report := s.registry.Check(ctx)
	return &healthpb.HealthCheckResponse{Status: grpcStatus(report.Status)}, nil
}

// Watch implements grpc.health.v1.Health as a polling stream.
func (s *Server) Watch(req *healthpb.HealthCheckRequest, stream healthpb.Health_WatchServer) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var last healthpb.HealthCheckResponse_ServingStatus = -1
	for {
		report := s.registry.Check(stream.Context())
		status := grpcStatus(report.Status)
		if status != last {
			if err := stream.Send(&healthpb.HealthCheckResponse{Status: status}); err != nil {
				return err
			}
			last = status
		}

		select {
		case <-stream.Context().Done():
			return stream.Context().Err()
		case <-ticker.C:
		}
	}
}

// Start begins serving on addr in a background goroutine. An empty addr
// disables the endpoint.
func (s *Server) Start(addr string) error {
	if addr == "" {
		return nil
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("health listener failed: %w", err)
	}

	s.grpcServer = grpc.NewServer()
	healthpb.RegisterHealthServer(s.grpcServer, s)

	go func() {
		if err := s.grpcServer.Serve(lis); err != nil {
			s.logger.Warn("health server stopped", zap.Error(err))
		}
	}()

	s.logger.Info("health endpoint listening", zap.String("addr", addr))
	return nil
}

// Stop shuts the endpoint down.
func (s *Server) Stop() {
	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
	}
}

func grpcStatus(status Status) healthpb.HealthCheckResponse_ServingStatus {
	switch status {
	case StatusHealthy, StatusDegraded:
		return healthpb.HealthCheckResponse_SERVING
	default:
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
}
