package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/umalmyha/customers-kyc/internal/gateway"
	"github.com/umalmyha/customers-kyc/internal/model"
	"github.com/umalmyha/customers-kyc/internal/repository"
	"golang.org/x/sync/errgroup"
)

const (
	HealthOK       = "OK"
	HealthDegraded = "DEGRADED"
)

const databasePingTimeout = 3 * time.Second

type HealthService interface {
	Check(context.Context) *model.HealthReport
}

type healthService struct {
	customerRps repository.CustomerRepository
	gateway     gateway.Gateway
	startedAt   time.Time
}

func NewHealthService(customerRps repository.CustomerRepository, gw gateway.Gateway, startedAt time.Time) HealthService {
	return &healthService{
		customerRps: customerRps,
		gateway:     gw,
		startedAt:   startedAt,
	}
}

func (s *healthService) Check(ctx context.Context) *model.HealthReport {
	var deps model.Dependencies

	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, databasePingTimeout)
		defer cancel()

		if err := s.customerRps.Ping(pingCtx); err != nil {
			logrus.Warnf("database health check failed - %v", err)
			return nil
		}
		deps.Database = true
		return nil
	})
	grp.Go(func() error {
		deps.ExternalServices = s.gateway.Health(ctx)
		return nil
	})
	_ = grp.Wait()

	report := &model.HealthReport{
		Status:       HealthOK,
		Dependencies: deps,
		Uptime:       time.Since(s.startedAt).Seconds(),
	}

	if !report.Healthy() {
		report.Status = HealthDegraded
	}
	return report
}
