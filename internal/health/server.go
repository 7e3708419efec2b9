// Package health exposes the standard gRPC health service for a running TV
// server and checks it from the client side.
package health

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service key for the line-protocol server.
const ServiceName = "tvremote.TV"

// Server reports NOT_SERVING until SetServing(true) is called.
type Server struct {
	grpc   *grpc.Server
	status *grpchealth.Server
}

func NewServer() *Server {
	status := grpchealth.NewServer()
	status.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, status)
	return &Server{grpc: srv, status: status}
}

// SetServing flips both the named service and the overall server status.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.status.SetServingStatus(ServiceName, status)
	s.status.SetServingStatus("", status)
}

// Serve runs the gRPC server until context cancellation.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	go func() {
		<-ctx.Done()
		s.status.Shutdown()
		s.grpc.GracefulStop()
	}()

	if err := s.grpc.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve health: %w", err)
	}
	return nil
}
