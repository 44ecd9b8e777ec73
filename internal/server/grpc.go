package server

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/GriffinCanCode/cardscan/internal/trace"
)

// NewGRPC builds a gRPC server carrying the standard health service. The
// overall status starts NOT_SERVING.
func NewGRPC() (*grpc.Server, *health.Server) {
	hs := health.NewServer()
	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(trace.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(trace.StreamServerInterceptor()),
	)
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	return gs, hs
}

// RunServing reports SERVING while fn runs and NOT_SERVING once it returns.
func RunServing(hs *health.Server, fn func() error) error {
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	defer hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	return fn()
}

// HealthReporter returns a callback that flips the overall status.
func HealthReporter(hs *health.Server) func(healthy bool) {
	return func(healthy bool) {
		st := healthpb.HealthCheckResponse_NOT_SERVING
		if healthy {
			st = healthpb.HealthCheckResponse_SERVING
		}
		hs.SetServingStatus("", st)
	}
}
