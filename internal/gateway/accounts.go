package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/umalmyha/customers-kyc/internal/errors"
	"github.com/umalmyha/customers-kyc/internal/model"
)

type accountsClient struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

func newAccountsClient(baseURL string, timeout time.Duration) *accountsClient {
	return &accountsClient{
		baseURL:    trimBaseURL(baseURL),
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *accountsClient) FindByCustomer(ctx context.Context, customerID string) ([]model.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/api/accounts/customer/%s", c.baseURL, url.PathEscape(customerID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create accounts request - %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewServiceUnavailableErr(AccountsService, "Account service unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return make([]model.Account, 0), nil
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("account service error: %s", remoteMessage(resp))
	}

	accounts, err := decode[[]model.Account](resp.Body, AccountsService)
	if err != nil {
		return nil, err
	}

	if accounts == nil {
		accounts = make([]model.Account, 0)
	}
	return accounts, nil
}
