package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/umalmyha/customers-kyc/internal/cache"
	"github.com/umalmyha/customers-kyc/internal/gateway"
	"github.com/umalmyha/customers-kyc/internal/metrics"
	"github.com/umalmyha/customers-kyc/internal/model"
	"github.com/umalmyha/customers-kyc/internal/repository"
)

const complianceStoreTimeout = 5 * time.Second

// ComplianceTrigger runs best-effort compliance checks in background
type ComplianceTrigger interface {
	// Trigger schedules check and returns immediately
	Trigger(*model.Customer)
	// Wait blocks until every scheduled check is finished
	Wait()
}

type complianceTrigger struct {
	customerRps   repository.CustomerRepository
	customerCache cache.CustomerCache
	gateway       gateway.Gateway
	metrics       *metrics.Metrics
	wg            sync.WaitGroup
}

func NewComplianceTrigger(
	customerRps repository.CustomerRepository,
	customerCache cache.CustomerCache,
	gw gateway.Gateway,
	m *metrics.Metrics,
) ComplianceTrigger {
	return &complianceTrigger{
		customerRps:   customerRps,
		customerCache: customerCache,
		gateway:       gw,
		metrics:       m,
	}
}

func (t *complianceTrigger) Trigger(c *model.Customer) {
	req := model.NewComplianceRequest(c)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.check(req)
	}()
}

func (t *complianceTrigger) Wait() {
	t.wg.Wait()
}

func (t *complianceTrigger) check(req *model.ComplianceRequest) {
	logger := logrus.WithField("customerId", req.CustomerID)

	// request context is gone already, gateway bounds the call with its own timeout
	result := t.gateway.CheckCompliance(context.Background(), req)
	if result == nil {
		t.metrics.IncrementComplianceChecks(metrics.ComplianceUnavailable)
		logger.Warn("compliance check produced no result, customer keeps previous compliance status")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), complianceStoreTimeout)
	defer cancel()

	if err := t.customerRps.UpdateCompliance(ctx, req.CustomerID, result.Outcome()); err != nil {
		t.metrics.IncrementComplianceChecks(metrics.ComplianceStoreError)
		logger.Errorf("failed to store compliance result - %v", err)
		return
	}

	if err := t.customerCache.EvictByID(ctx, req.CustomerID); err != nil {
		logger.Errorf("failed to evict customer from cache - %v", err)
	}

	t.metrics.IncrementComplianceChecks(metrics.ComplianceUpdated)
	logger.Infof("compliance status updated to %s", result.Status)
}
