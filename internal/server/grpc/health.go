package grpcserver

import (
	"context"

	"github.com/rzbill/lorabridge/internal/runtime"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// healthSvc answers grpc.health.v1.Health from the runtime's storage check.
type healthSvc struct {
	healthpb.UnimplementedHealthServer
	rt *runtime.Runtime
}

func (h *healthSvc) Check(ctx context.Context, _ *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if err := h.rt.CheckHealth(ctx); err != nil {
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}
