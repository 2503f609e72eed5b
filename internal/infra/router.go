package infra

import (
	"time"

	"github.com/go-redis/redis/v9"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/umalmyha/customers-kyc/internal/config"
	"github.com/umalmyha/customers-kyc/internal/handlers"
	"github.com/umalmyha/customers-kyc/internal/metrics"
	"github.com/umalmyha/customers-kyc/internal/middleware"
	"github.com/umalmyha/customers-kyc/internal/service"
	"github.com/umalmyha/customers-kyc/internal/validation"
)

// RouterDeps is everything http router is assembled from
type RouterDeps struct {
	Cfg         config.Config
	RedisClient *redis.Client
	Registry    *prometheus.Registry
	Metrics     *metrics.Metrics
	CustomerSvc service.CustomerService
	HealthSvc   service.HealthService
}

func Router(deps RouterDeps) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	v, err := validation.Echo(func() time.Time { return time.Now().UTC() })
	if err != nil {
		return nil, err
	}
	e.Validator = v
	e.HTTPErrorHandler = handlers.HTTPErrorHandler(deps.Cfg.HTTPCfg.Debug)

	// Configs
	rlCfg := deps.Cfg.RateLimitCfg

	// Middleware
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Metrics(deps.Metrics))
	e.Use(echomw.BodyLimit(deps.Cfg.HTTPCfg.BodyLimit))
	e.Use(middleware.GeneralRateLimiter(rlCfg.Max, rlCfg.Window, deps.Metrics))

	sanitizeMw := middleware.Sanitize()
	creationLimitMw := middleware.CreationRateLimiter(deps.RedisClient, rlCfg.CreateMax, rlCfg.CreateWindow, deps.Metrics)

	// Handlers
	custHandler := handlers.NewCustomerHTTPHandler(deps.CustomerSvc)
	healthHandler := handlers.NewHealthHTTPHandler(deps.HealthSvc)

	// Service routes
	e.GET("/health", healthHandler.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// API routes
	customersApi := e.Group("/api/customers")
	customersApi.POST("", custHandler.Create, creationLimitMw, sanitizeMw)
	customersApi.GET("", custHandler.Search)
	customersApi.GET("/by-national-id/:nationalId", custHandler.GetByNationalID)
	customersApi.GET("/:id", custHandler.Get)
	customersApi.PUT("/:id", custHandler.Update, sanitizeMw)
	customersApi.DELETE("/:id", custHandler.Deactivate)
	customersApi.GET("/:id/accounts", custHandler.Accounts)
	customersApi.POST("/:id/documents", custHandler.AddDocument, sanitizeMw)

	return e, nil
}
