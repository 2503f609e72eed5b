package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	apperrors "github.com/umalmyha/customers-kyc/internal/errors"
	"github.com/umalmyha/customers-kyc/internal/model"
	"github.com/umalmyha/customers-kyc/internal/service"
	"github.com/umalmyha/customers-kyc/internal/service/mocks"
	"github.com/umalmyha/customers-kyc/internal/validation"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const grpcConnBufSize = 1024 * 1024

const (
	testCustomerID = "4f9b8a52-2c3d-4e5f-8a9b-0c1d2e3f4a5b"
	testNationalID = "1234567890"
)

const validCreateJSON = `{
	"firstName": "Ana",
	"lastName": "Ruiz",
	"email": " ANA@Example.COM ",
	"phone": "+57 300 111 2222",
	"dateOfBirth": "1990-01-01",
	"nationalId": "1234567890",
	"address": {"street": "Calle 1", "city": "Bogota", "state": "Cund.", "postalCode": "110001", "country": "Colombia"}
}`

type testEnvelope struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Data       json.RawMessage   `json:"data"`
	Errors     json.RawMessage   `json:"errors"`
	Error      string            `json:"error"`
	Pagination *model.Pagination `json:"pagination"`
}

type handlersTestSuite struct {
	suite.Suite
	app         *echo.Echo
	customerSvc *mocks.CustomerService
	healthSvc   *mocks.HealthService
}

func (s *handlersTestSuite) SetupTest() {
	s.customerSvc = mocks.NewCustomerService(s.T())
	s.healthSvc = mocks.NewHealthService(s.T())
	s.app = s.newApp(false)
}

func (s *handlersTestSuite) newApp(debug bool) *echo.Echo {
	v, err := validation.Echo(func() time.Time { return time.Now().UTC() })
	s.Require().NoError(err, "failed to build validator")

	e := echo.New()
	e.Validator = v
	e.HTTPErrorHandler = HTTPErrorHandler(debug)

	custHandler := NewCustomerHTTPHandler(s.customerSvc)
	healthHandler := NewHealthHTTPHandler(s.healthSvc)

	e.GET("/health", healthHandler.Check)

	customersApi := e.Group("/api/customers")
	customersApi.POST("", custHandler.Create)
	customersApi.GET("", custHandler.Search)
	customersApi.GET("/by-national-id/:nationalId", custHandler.GetByNationalID)
	customersApi.GET("/:id", custHandler.Get)
	customersApi.PUT("/:id", custHandler.Update)
	customersApi.DELETE("/:id", custHandler.Deactivate)
	customersApi.GET("/:id/accounts", custHandler.Accounts)
	customersApi.POST("/:id/documents", custHandler.AddDocument)
	return e
}

func (s *handlersTestSuite) do(method, target, body string) (*httptest.ResponseRecorder, testEnvelope) {
	return s.doWith(s.app, method, target, body)
}

func (s *handlersTestSuite) doWith(e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, testEnvelope) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env testEnvelope
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env), "response must be json envelope")
	return rec, env
}

func (s *handlersTestSuite) customer() *model.Customer {
	now := time.Date(2026, time.October, 17, 10, 0, 0, 0, time.UTC)
	return &model.Customer{
		ID:               testCustomerID,
		FirstName:        "Ana",
		LastName:         "Ruiz",
		Email:            "ana@example.com",
		Phone:            "+57 300 111 2222",
		DateOfBirth:      time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC),
		NationalID:       testNationalID,
		Preferences:      model.DefaultPreferences(),
		Status:           model.StatusActive,
		ComplianceStatus: model.CompliancePending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (s *handlersTestSuite) TestCreate() {
	t := s.T()
	require := s.Require()

	t.Log("successful registration")
	{
		s.customerSvc.On("Register", mock.Anything, mock.MatchedBy(func(nc *model.NewCustomer) bool {
			return nc.Email == "ana@example.com" && nc.NationalID == testNationalID
		})).Return(s.customer(), nil).Once()

		rec, env := s.do(http.MethodPost, "/api/customers", validCreateJSON)
		require.Equal(http.StatusCreated, rec.Code)
		require.True(env.Success)
		require.Equal("Customer created successfully", env.Message)

		var c model.Customer
		require.NoError(json.Unmarshal(env.Data, &c))
		require.Equal(testCustomerID, c.ID)
	}

	t.Log("malformed json")
	{
		rec, env := s.do(http.MethodPost, "/api/customers", `{"firstName":"An`)
		require.Equal(http.StatusBadRequest, rec.Code)
		require.False(env.Success)
		require.Equal("Invalid request payload", env.Message)
	}

	t.Log("validation failure lists violations")
	{
		rec, env := s.do(http.MethodPost, "/api/customers", `{"firstName":"A","email":"not-an-email"}`)
		require.Equal(http.StatusBadRequest, rec.Code)
		require.Equal("Validation failed", env.Message)
		require.Contains(string(env.Errors), "firstName")
		require.Contains(string(env.Errors), "email")
	}

	t.Log("email conflict")
	{
		conflict := apperrors.NewConflictErr("email", "Customer with this email already exists")
		s.customerSvc.On("Register", mock.Anything, mock.Anything).Return(nil, conflict).Once()

		rec, env := s.do(http.MethodPost, "/api/customers", validCreateJSON)
		require.Equal(http.StatusConflict, rec.Code)
		require.Equal("Customer with this email already exists", env.Message)
		require.JSONEq(`[{"field":"email","message":"Customer with this email already exists"}]`, string(env.Errors))
	}
}

func (s *handlersTestSuite) TestGet() {
	t := s.T()
	require := s.Require()

	t.Log("invalid id")
	{
		rec, env := s.do(http.MethodGet, "/api/customers/not-a-uuid", "")
		require.Equal(http.StatusBadRequest, rec.Code)
		require.Equal("Validation failed", env.Message)
	}

	t.Log("customer not found")
	{
		s.customerSvc.On("FindByID", mock.Anything, testCustomerID).
			Return(nil, apperrors.NewEntryNotFoundErr("Customer not found")).Once()

		rec, env := s.do(http.MethodGet, "/api/customers/"+testCustomerID, "")
		require.Equal(http.StatusNotFound, rec.Code)
		require.Equal("Customer not found", env.Message)
	}

	t.Log("customer found")
	{
		s.customerSvc.On("FindByID", mock.Anything, testCustomerID).Return(s.customer(), nil).Once()

		rec, env := s.do(http.MethodGet, "/api/customers/"+testCustomerID, "")
		require.Equal(http.StatusOK, rec.Code)
		require.Equal("Customer retrieved successfully", env.Message)
		require.Contains(rec.Body.String(), `"documents":[]`, "customer without documents must render empty list")
	}

	t.Log("customer found by national id")
	{
		s.customerSvc.On("FindByNationalID", mock.Anything, testNationalID).Return(s.customer(), nil).Once()

		rec, env := s.do(http.MethodGet, "/api/customers/by-national-id/"+testNationalID, "")
		require.Equal(http.StatusOK, rec.Code)
		require.True(env.Success)
	}
}

func (s *handlersTestSuite) TestSearch() {
	t := s.T()
	require := s.Require()

	t.Log("search returns pagination")
	{
		page := &model.CustomerPage{
			Items:      []*model.CustomerListItem{s.customer().ListItem()},
			Pagination: model.NewPagination(11, 2, 5),
		}
		s.customerSvc.On("Search", mock.Anything, model.SearchFilter{
			Query:   "ana",
			Country: "colom",
			Page:    2,
			Limit:   5,
		}).Return(page, nil).Once()

		rec, env := s.do(http.MethodGet, "/api/customers?q=ana&country=colom&page=2&limit=5", "")
		require.Equal(http.StatusOK, rec.Code)
		require.NotNil(env.Pagination)
		require.Equal(3, env.Pagination.TotalPages)
		require.True(env.Pagination.HasNextPage)
		require.True(env.Pagination.HasPreviousPage)
		require.Contains(rec.Body.String(), testCustomerID)
		require.NotContains(rec.Body.String(), `"documents"`, "search items must not carry documents")
	}

	t.Log("query shorter than 3 characters")
	{
		rec, env := s.do(http.MethodGet, "/api/customers?q=an", "")
		require.Equal(http.StatusBadRequest, rec.Code)
		require.Contains(string(env.Errors), "q")
	}
}

func (s *handlersTestSuite) TestUpdate() {
	t := s.T()
	require := s.Require()

	t.Log("identity anchors are rejected")
	{
		rec, env := s.do(http.MethodPut, "/api/customers/"+testCustomerID, `{"nationalId":"999999999"}`)
		require.Equal(http.StatusBadRequest, rec.Code)
		require.Contains(string(env.Errors), "nationalId")
	}

	t.Log("successful update")
	{
		updated := s.customer()
		updated.FirstName = "Anna"
		s.customerSvc.On("Update", mock.Anything, testCustomerID, mock.MatchedBy(func(p *model.CustomerPatch) bool {
			return p.FirstName != nil && *p.FirstName == "Anna"
		})).Return(updated, nil).Once()

		rec, env := s.do(http.MethodPut, "/api/customers/"+testCustomerID, `{"firstName":"Anna"}`)
		require.Equal(http.StatusOK, rec.Code)
		require.Equal("Customer updated successfully", env.Message)
	}

	t.Log("email taken by another customer")
	{
		conflict := apperrors.NewConflictErr("email", "Email already in use by another customer")
		s.customerSvc.On("Update", mock.Anything, testCustomerID, mock.Anything).Return(nil, conflict).Once()

		rec, env := s.do(http.MethodPut, "/api/customers/"+testCustomerID, `{"email":"other@example.com"}`)
		require.Equal(http.StatusConflict, rec.Code)
		require.Equal("Email already in use by another customer", env.Message)
	}
}

func (s *handlersTestSuite) TestDeactivate() {
	t := s.T()
	require := s.Require()

	t.Log("successful deactivation")
	{
		s.customerSvc.On("Deactivate", mock.Anything, testCustomerID).Return(nil).Once()

		rec, env := s.do(http.MethodDelete, "/api/customers/"+testCustomerID, "")
		require.Equal(http.StatusOK, rec.Code)
		require.Equal("Customer deactivated successfully", env.Message)
	}

	t.Log("customer not found")
	{
		s.customerSvc.On("Deactivate", mock.Anything, testCustomerID).
			Return(apperrors.NewEntryNotFoundErr("Customer not found")).Once()

		rec, _ := s.do(http.MethodDelete, "/api/customers/"+testCustomerID, "")
		require.Equal(http.StatusNotFound, rec.Code)
	}
}

func (s *handlersTestSuite) TestAccounts() {
	t := s.T()
	require := s.Require()

	t.Log("accounts service unavailable")
	{
		unavailable := apperrors.NewServiceUnavailableErr("accounts", "Account service unavailable", errors.New("dial tcp: connection refused"))
		s.customerSvc.On("FindAccounts", mock.Anything, testCustomerID).Return(nil, unavailable).Once()

		rec, env := s.do(http.MethodGet, "/api/customers/"+testCustomerID+"/accounts", "")
		require.Equal(http.StatusServiceUnavailable, rec.Code)
		require.Equal("Account service unavailable", env.Message)
		require.Empty(env.Error, "internal error must be hidden outside debug mode")
	}

	t.Log("unexpected failure is hidden")
	{
		s.customerSvc.On("FindAccounts", mock.Anything, testCustomerID).
			Return(nil, errors.New("account service error: boom")).Once()

		rec, env := s.do(http.MethodGet, "/api/customers/"+testCustomerID+"/accounts", "")
		require.Equal(http.StatusInternalServerError, rec.Code)
		require.Equal("Internal server error", env.Message)
		require.Empty(env.Error)
	}

	t.Log("debug mode exposes error")
	{
		s.customerSvc.On("FindAccounts", mock.Anything, testCustomerID).
			Return(nil, errors.New("account service error: boom")).Once()

		rec, env := s.doWith(s.newApp(true), http.MethodGet, "/api/customers/"+testCustomerID+"/accounts", "")
		require.Equal(http.StatusInternalServerError, rec.Code)
		require.Equal("account service error: boom", env.Error)
	}

	t.Log("accounts returned")
	{
		accounts := &model.CustomerAccounts{Customer: s.customer().Summary(), Accounts: []model.Account{}}
		s.customerSvc.On("FindAccounts", mock.Anything, testCustomerID).Return(accounts, nil).Once()

		rec, env := s.do(http.MethodGet, "/api/customers/"+testCustomerID+"/accounts", "")
		require.Equal(http.StatusOK, rec.Code)
		require.Contains(string(env.Data), `"accounts":[]`)
	}
}

func (s *handlersTestSuite) TestAddDocument() {
	t := s.T()
	require := s.Require()

	t.Log("unknown document type")
	{
		rec, env := s.do(http.MethodPost, "/api/customers/"+testCustomerID+"/documents", `{"type":"selfie","filename":"a.png"}`)
		require.Equal(http.StatusBadRequest, rec.Code)
		require.Contains(string(env.Errors), "type")
	}

	t.Log("document added")
	{
		s.customerSvc.On("AddDocument", mock.Anything, testCustomerID, model.NewDocument{
			Type:     model.DocumentPassport,
			Filename: "passport.pdf",
		}).Return(s.customer(), nil).Once()

		rec, env := s.do(http.MethodPost, "/api/customers/"+testCustomerID+"/documents", `{"type":"passport","filename":" passport.pdf "}`)
		require.Equal(http.StatusOK, rec.Code)
		require.Equal("Document added successfully", env.Message)
	}
}

func (s *handlersTestSuite) TestHealth() {
	t := s.T()
	require := s.Require()

	t.Log("healthy service")
	{
		s.healthSvc.On("Check", mock.Anything).Return(&model.HealthReport{Status: service.HealthOK}).Once()

		rec := httptest.NewRecorder()
		s.app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(http.StatusOK, rec.Code)
		require.Contains(rec.Body.String(), `"status":"OK"`)
	}

	t.Log("degraded service")
	{
		s.healthSvc.On("Check", mock.Anything).Return(&model.HealthReport{Status: service.HealthDegraded}).Once()

		rec := httptest.NewRecorder()
		s.app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(http.StatusServiceUnavailable, rec.Code)
		require.Contains(rec.Body.String(), `"status":"DEGRADED"`)
	}
}

func (s *handlersTestSuite) TestGrpcHealth() {
	t := s.T()
	require := s.Require()

	handler := NewHealthGrpcHandler(s.healthSvc)

	lis := bufconn.Listen(grpcConnBufSize)
	server := grpc.NewServer()
	healthpb.RegisterHealthServer(server, handler)

	go func() {
		_ = server.Serve(lis)
	}()
	defer server.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := grpc.DialContext(ctx, "bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return lis.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(err, "failed to dial grpc server")
	defer conn.Close()

	client := healthpb.NewHealthClient(conn)
	servingStatus := func() healthpb.HealthCheckResponse_ServingStatus {
		res, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ""})
		if err != nil {
			return healthpb.HealthCheckResponse_UNKNOWN
		}
		return res.Status
	}

	t.Log("healthy dependencies")
	{
		s.healthSvc.On("Check", mock.Anything).Return(&model.HealthReport{Status: service.HealthOK}).Once()
		handler.Refresh(ctx)
		require.Equal(healthpb.HealthCheckResponse_SERVING, servingStatus())
	}

	t.Log("degraded dependencies")
	{
		s.healthSvc.On("Check", mock.Anything).Return(&model.HealthReport{Status: service.HealthDegraded}).Once()
		handler.Refresh(ctx)
		require.Equal(healthpb.HealthCheckResponse_NOT_SERVING, servingStatus())
	}

	t.Log("only overall server health is reported")
	{
		_, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: "customers.CustomerService"})
		require.Equal(codes.NotFound, status.Code(err))
	}

	t.Log("monitor stops serving on cancellation")
	{
		s.healthSvc.On("Check", mock.Anything).Return(&model.HealthReport{Status: service.HealthOK})

		watchCtx, stopWatch := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			handler.Monitor(watchCtx, 10*time.Millisecond)
			close(done)
		}()

		require.Eventually(func() bool {
			return servingStatus() == healthpb.HealthCheckResponse_SERVING
		}, time.Second, 10*time.Millisecond)

		stopWatch()
		<-done
		require.Equal(healthpb.HealthCheckResponse_NOT_SERVING, servingStatus())
	}
}

// start handlers test suite
func TestHandlers(t *testing.T) {
	suite.Run(t, new(handlersTestSuite))
}
