package handlers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/umalmyha/customers-kyc/internal/service"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthGrpcHandler is gRPC health server backed by health service
type HealthGrpcHandler struct {
	*health.Server
	healthSvc service.HealthService
}

// NewHealthGrpcHandler builds new HealthGrpcHandler
func NewHealthGrpcHandler(healthSvc service.HealthService) *HealthGrpcHandler {
	return &HealthGrpcHandler{
		Server:    health.NewServer(),
		healthSvc: healthSvc,
	}
}

// Refresh updates serving status according to current dependencies health
func (h *HealthGrpcHandler) Refresh(ctx context.Context) {
	report := h.healthSvc.Check(ctx)

	st := healthpb.HealthCheckResponse_SERVING
	if report.Status != service.HealthOK {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}

	// empty name stands for overall server health
	h.SetServingStatus("", st)
}

// Monitor refreshes serving status every interval until context is cancelled
func (h *HealthGrpcHandler) Monitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			h.Shutdown()
			logrus.Info("grpc health refresh stopped")
			return
		case <-ticker.C:
			h.Refresh(ctx)
		}
	}
}
