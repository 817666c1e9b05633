package server

import (
	"context"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// HealthGRPC is the standard grpc health service on its own listener, for
// orchestrators that probe over gRPC.
type HealthGRPC struct {
	srv    *grpc.Server
	health *health.Server
	logger *slog.Logger
}

func NewHealthGRPC(logger *slog.Logger) *HealthGRPC {
	if logger == nil {
		logger = slog.Default()
	}
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	// empty service name means overall server health
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	reflection.Register(srv)
	return &HealthGRPC{srv: srv, health: hs, logger: logger}
}

// Serve blocks until lis fails or Stop is called.
func (h *HealthGRPC) Serve(lis net.Listener) error {
	h.logger.Info("grpc health listening", "addr", lis.Addr().String())
	return h.srv.Serve(lis)
}

// Stop flips the status to NOT_SERVING and drains the server.
func (h *HealthGRPC) Stop(ctx context.Context) {
	h.health.Shutdown()
	done := make(chan struct{})
	go func() {
		h.srv.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		h.srv.Stop()
	}
}
