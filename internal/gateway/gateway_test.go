package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	apperrors "github.com/umalmyha/customers-kyc/internal/errors"
	"github.com/umalmyha/customers-kyc/internal/model"
)

const testCustomerID = "53b9062b-0f45-4671-8c01-52fce0d8c750"

type gatewayTestSuite struct {
	suite.Suite
	mux        *http.ServeMux
	accounts   *httptest.Server
	compliance *httptest.Server
	gw         Gateway
}

func (s *gatewayTestSuite) SetupTest() {
	s.mux = http.NewServeMux()
	s.accounts = httptest.NewServer(s.mux)
	s.compliance = httptest.NewServer(s.mux)
	s.gw = New(Options{
		AccountsURL:       s.accounts.URL + "/",
		AccountsTimeout:   time.Second,
		ComplianceURL:     s.compliance.URL,
		ComplianceTimeout: time.Second,
	})
}

func (s *gatewayTestSuite) TearDownTest() {
	s.accounts.Close()
	s.compliance.Close()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *gatewayTestSuite) TestFindAccounts() {
	s.mux.HandleFunc("/api/accounts/customer/"+testCustomerID, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": []map[string]any{
				{"id": "acc-1", "customerId": testCustomerID, "accountNumber": "0001", "type": "savings", "currency": "COP", "balance": "1500000.55", "status": "active"},
				{"id": "acc-2", "customerId": testCustomerID, "accountNumber": "0002", "type": "checking", "currency": "USD", "balance": 10.1, "status": "active"},
			},
		})
	})

	accounts, err := s.gw.FindAccounts(context.Background(), testCustomerID)
	s.Require().NoError(err)
	s.Require().Len(accounts, 2)
	s.Require().True(decimal.RequireFromString("1500000.55").Equal(accounts[0].Balance), "balance must keep exact decimal value")
	s.Require().True(decimal.RequireFromString("10.1").Equal(accounts[1].Balance))
	s.Require().Equal("checking", accounts[1].Type)
}

func (s *gatewayTestSuite) TestFindAccountsNotFoundIsEmpty() {
	s.mux.HandleFunc("/api/accounts/customer/"+testCustomerID, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "no accounts"})
	})

	accounts, err := s.gw.FindAccounts(context.Background(), testCustomerID)
	s.Require().NoError(err, "404 must not be treated as error")
	s.Require().NotNil(accounts)
	s.Require().Empty(accounts)
}

func (s *gatewayTestSuite) TestFindAccountsRemoteError() {
	s.mux.HandleFunc("/api/accounts/customer/"+testCustomerID, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "ledger is locked"})
	})

	_, err := s.gw.FindAccounts(context.Background(), testCustomerID)
	s.Require().Error(err)
	s.Require().Contains(err.Error(), "ledger is locked")

	var unavailable *apperrors.ServiceUnavailableErr
	s.Require().False(errors.As(err, &unavailable), "remote error status is not an unavailability")
}

func (s *gatewayTestSuite) TestFindAccountsUnavailable() {
	s.accounts.Close()

	_, err := s.gw.FindAccounts(context.Background(), testCustomerID)

	var unavailable *apperrors.ServiceUnavailableErr
	s.Require().ErrorAs(err, &unavailable, "connection failure must be reported as unavailability")
	s.Require().Equal(AccountsService, unavailable.Service())
	s.Require().Equal("Account service unavailable", unavailable.Message())
}

func (s *gatewayTestSuite) TestFindAccountsTimeout() {
	release := make(chan struct{})
	defer close(release)

	s.mux.HandleFunc("/api/accounts/customer/"+testCustomerID, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})

	gw := New(Options{AccountsURL: s.accounts.URL, AccountsTimeout: 50 * time.Millisecond, ComplianceURL: s.compliance.URL, ComplianceTimeout: time.Second})
	_, err := gw.FindAccounts(context.Background(), testCustomerID)

	var unavailable *apperrors.ServiceUnavailableErr
	s.Require().ErrorAs(err, &unavailable, "timed out call must be reported as unavailability")
}

func (s *gatewayTestSuite) TestCheckCompliance() {
	var received model.ComplianceRequest
	var method string
	s.mux.HandleFunc("/api/compliance/check", func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		_ = json.NewDecoder(r.Body).Decode(&received)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"customerId": testCustomerID,
				"status":     "approved",
				"riskScore":  0.12,
				"notes":      "clean",
				"checkedAt":  "2026-10-17T12:00:00Z",
			},
		})
	})

	req := &model.ComplianceRequest{
		CustomerID: testCustomerID,
		CustomerData: model.ComplianceCustomerData{
			FirstName:  "Ana",
			LastName:   "Ruiz",
			Email:      "ana@x.com",
			NationalID: "12345678",
			Country:    "Colombia",
		},
		Documents: []model.ComplianceDocument{{Type: model.DocumentPassport, Filename: "passport.png"}},
	}

	result := s.gw.CheckCompliance(context.Background(), req)
	s.Require().NotNil(result)
	s.Require().Equal(model.ComplianceApproved, result.Status)
	s.Require().InDelta(0.12, result.RiskScore, 0.0001)
	s.Require().NotNil(result.Notes)
	s.Require().Equal("clean", *result.Notes)
	s.Require().Equal(time.Date(2026, time.October, 17, 12, 0, 0, 0, time.UTC), result.CheckedAt.UTC())

	s.Require().Equal(http.MethodPost, method)
	s.Require().Equal(testCustomerID, received.CustomerID)
	s.Require().Equal("12345678", received.CustomerData.NationalID)
	s.Require().Len(received.Documents, 1)
}

func (s *gatewayTestSuite) TestCheckComplianceFailuresAreAbsent() {
	var status int
	var body string
	s.mux.HandleFunc("/api/compliance/check", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})

	req := &model.ComplianceRequest{CustomerID: testCustomerID}

	s.T().Log("validation rejection")
	{
		status, body = http.StatusBadRequest, `{"success":false,"message":"invalid payload"}`
		s.Require().Nil(s.gw.CheckCompliance(context.Background(), req))
	}

	s.T().Log("remote failure")
	{
		status, body = http.StatusBadGateway, `upstream failed`
		s.Require().Nil(s.gw.CheckCompliance(context.Background(), req))
	}

	s.T().Log("malformed response")
	{
		status, body = http.StatusOK, `{"success":true,"data":`
		s.Require().Nil(s.gw.CheckCompliance(context.Background(), req))
	}

	s.T().Log("unknown verdict")
	{
		status, body = http.StatusOK, `{"success":true,"data":{"status":"maybe"}}`
		s.Require().Nil(s.gw.CheckCompliance(context.Background(), req))
	}

	s.T().Log("connection refused")
	{
		s.compliance.Close()
		s.Require().Nil(s.gw.CheckCompliance(context.Background(), req))
	}
}

func (s *gatewayTestSuite) TestHealth() {
	s.mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.T().Log("both collaborators are up")
	{
		health := s.gw.Health(context.Background())
		s.Require().Equal(model.ServicesHealth{Accounts: true, Compliance: true, Overall: true}, health)
	}

	s.T().Log("compliance is down")
	{
		s.compliance.Close()
		health := s.gw.Health(context.Background())
		s.Require().Equal(model.ServicesHealth{Accounts: true, Compliance: false, Overall: false}, health)
	}
}

func (s *gatewayTestSuite) TestRemoteMessage() {
	resp := httptest.NewRecorder()
	resp.WriteHeader(http.StatusServiceUnavailable)
	s.Require().Equal("Service Unavailable", remoteMessage(resp.Result()), "empty body falls back to status text")
}

// start gateway test suite
func TestGatewayTestSuite(t *testing.T) {
	suite.Run(t, new(gatewayTestSuite))
}
