package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/umalmyha/customers-kyc/internal/model"
	"golang.org/x/sync/errgroup"
)

const (
	AccountsService   = "accounts"
	ComplianceService = "compliance"
)

const (
	healthProbeTimeout = 3 * time.Second
	maxErrorBodySize   = 4 << 10
)

// Gateway is entry point to collaborator services
type Gateway interface {
	// FindAccounts returns customer accounts, unreachable accounts service is reported as ServiceUnavailableErr
	FindAccounts(ctx context.Context, customerID string) ([]model.Account, error)
	// CheckCompliance returns nil on any failure
	CheckCompliance(ctx context.Context, req *model.ComplianceRequest) *model.ComplianceResult
	Health(ctx context.Context) model.ServicesHealth
}

type Options struct {
	AccountsURL       string
	AccountsTimeout   time.Duration
	ComplianceURL     string
	ComplianceTimeout time.Duration
}

type httpGateway struct {
	accounts   *accountsClient
	compliance *complianceClient
}

func New(opts Options) Gateway {
	return &httpGateway{
		accounts:   newAccountsClient(opts.AccountsURL, opts.AccountsTimeout),
		compliance: newComplianceClient(opts.ComplianceURL, opts.ComplianceTimeout),
	}
}

func (g *httpGateway) FindAccounts(ctx context.Context, customerID string) ([]model.Account, error) {
	return g.accounts.FindByCustomer(ctx, customerID)
}

func (g *httpGateway) CheckCompliance(ctx context.Context, req *model.ComplianceRequest) *model.ComplianceResult {
	return g.compliance.Check(ctx, req)
}

// Health probes both collaborators concurrently
func (g *httpGateway) Health(ctx context.Context) model.ServicesHealth {
	var health model.ServicesHealth

	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		health.Accounts = probe(ctx, g.accounts.httpClient, g.accounts.baseURL)
		return nil
	})
	grp.Go(func() error {
		health.Compliance = probe(ctx, g.compliance.httpClient, g.compliance.baseURL)
		return nil
	})
	_ = grp.Wait()

	health.Overall = health.Accounts && health.Compliance
	return health
}

// envelope is response format shared by collaborators
type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func probe(ctx context.Context, client *http.Client, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

// remoteMessage extracts error description returned by collaborator
func remoteMessage(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil || len(body) == 0 {
		return http.StatusText(resp.StatusCode)
	}

	var env envelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		return env.Message
	}
	return strings.TrimSpace(string(body))
}

func trimBaseURL(baseURL string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/")
}

func decode[T any](body io.Reader, service string) (T, error) {
	var env envelope[T]
	if err := json.NewDecoder(body).Decode(&env); err != nil {
		return env.Data, fmt.Errorf("failed to decode %s service response - %w", service, err)
	}
	return env.Data, nil
}
