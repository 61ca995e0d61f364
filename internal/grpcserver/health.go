package grpcserver

import (
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ClassifierService is the health service name reflecting model readiness.
const ClassifierService = "leafcheck.Classifier"

// HealthServer exposes the standard gRPC health protocol so orchestrators
// can hold traffic until the model is loaded.
type HealthServer struct {
	server *grpc.Server
	health *health.Server
	logger *zap.Logger
}

// NewHealthServer registers the health service. Every service starts
// NOT_SERVING until MarkServing is called.
func NewHealthServer(logger *zap.Logger) *HealthServer {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ClassifierService, healthpb.HealthCheckResponse_NOT_SERVING)

	return &HealthServer{
		server: srv,
		health: hs,
		logger: logger.Named("grpc_health"),
	}
}

// MarkServing reports the process and the classifier as ready.
func (h *HealthServer) MarkServing() {
	h.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.health.SetServingStatus(ClassifierService, healthpb.HealthCheckResponse_SERVING)
}

// Serve blocks serving health checks on lis.
func (h *HealthServer) Serve(lis net.Listener) error {
	h.logger.Info("grpc health server listening", zap.String("addr", lis.Addr().String()))
	return h.server.Serve(lis)
}

// Stop flips every service to NOT_SERVING and stops the server gracefully.
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.server.GracefulStop()
}
