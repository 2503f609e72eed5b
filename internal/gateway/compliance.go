package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/umalmyha/customers-kyc/internal/model"
)

type complianceClient struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

func newComplianceClient(baseURL string, timeout time.Duration) *complianceClient {
	return &complianceClient{
		baseURL:    trimBaseURL(baseURL),
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *complianceClient) Check(ctx context.Context, checkReq *model.ComplianceRequest) *model.ComplianceResult {
	logger := logrus.WithField("customerId", checkReq.CustomerID)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(checkReq)
	if err != nil {
		logger.Warnf("failed to encode compliance request - %v", err)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/compliance/check", bytes.NewReader(body))
	if err != nil {
		logger.Warnf("failed to create compliance request - %v", err)
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warnf("compliance service is unavailable - %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		logger.Warnf("compliance service rejected check with status %d: %s", resp.StatusCode, remoteMessage(resp))
		return nil
	}

	result, err := decode[*model.ComplianceResult](resp.Body, ComplianceService)
	if err != nil {
		logger.Warn(err.Error())
		return nil
	}

	if result == nil || !result.Status.Known() {
		logger.Warn("compliance service returned no valid verdict")
		return nil
	}

	if result.CustomerID == "" {
		result.CustomerID = checkReq.CustomerID
	}
	return result
}
