package grpcapi

import (
	"log/slog"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/go-socfony/internal/telemetry"
)

// NewGRPCServer builds a *grpc.Server with tracing, metrics and the health
// service, and registers srv for both API services.
func NewGRPCServer(srv *Server, metrics *telemetry.Metrics, logger *slog.Logger) (*grpc.Server, *health.Server) {
	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(UnaryMetricsInterceptor(metrics, logger)),
	)
	RegisterUserServiceServer(s, srv)
	RegisterStorageServiceServer(s, srv)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus(UserServiceName, healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(StorageServiceName, healthpb.HealthCheckResponse_SERVING)

	return s, hs
}
