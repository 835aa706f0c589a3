package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name reported by the gRPC health service.
const ServiceName = "storefront"

// Health serves grpc.health.v1.Health for orchestrators.
type Health struct {
	srv    *grpc.Server
	status *health.Server
	log    zerolog.Logger
}

func NewHealth(logger zerolog.Logger) *Health {
	status := health.NewServer()
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, status)
	status.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Health{srv: srv, status: status, log: logger}
}

// SetServing flips the overall and the named service status.
func (h *Health) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	h.status.SetServingStatus("", st)
	h.status.SetServingStatus(ServiceName, st)
}

// Serve listens on addr until ctx is done.
func (h *Health) Serve(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc health listen: %w", err)
	}
	return h.ServeListener(ctx, l)
}

func (h *Health) ServeListener(ctx context.Context, l net.Listener) error {
	go func() {
		<-ctx.Done()
		h.status.Shutdown()
		h.srv.GracefulStop()
	}()
	h.log.Info().Str("addr", l.Addr().String()).Msg("grpc health listening")
	if err := h.srv.Serve(l); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}
