// Package healthcheck runs the standard gRPC health service next to the
// HTTP API so orchestrators can probe readiness.
package healthcheck

import (
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server is a gRPC server exposing only grpc.health.v1.Health.
type Server struct {
	addr   string
	grpc   *grpc.Server
	health *health.Server
}

// New creates a Server that reports NOT_SERVING until SetServing(true).
func New(addr string) *Server {
	s := grpc.NewServer()
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return &Server{addr: addr, grpc: s, health: hs}
}

// SetServing flips the overall status.
func (s *Server) SetServing(ok bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
}

// Health exposes the underlying health service.
func (s *Server) Health() healthpb.HealthServer {
	return s.health
}

// Start listens and serves until Stop is called.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.grpc.Serve(lis)
}

// Stop marks the service NOT_SERVING and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
