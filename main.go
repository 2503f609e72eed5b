package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	_ "github.com/umalmyha/customers-kyc/docs"
	"github.com/umalmyha/customers-kyc/internal/cache"
	"github.com/umalmyha/customers-kyc/internal/config"
	"github.com/umalmyha/customers-kyc/internal/gateway"
	"github.com/umalmyha/customers-kyc/internal/handlers"
	"github.com/umalmyha/customers-kyc/internal/infra"
	"github.com/umalmyha/customers-kyc/internal/interceptors"
	"github.com/umalmyha/customers-kyc/internal/metrics"
	"github.com/umalmyha/customers-kyc/internal/repository"
	"github.com/umalmyha/customers-kyc/internal/service"
	"github.com/umalmyha/customers-kyc/pkg/db/transactor"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const DefaultStartupTimeout = 15 * time.Second

// @title       Customers KYC API
// @version     1.0
// @description Customer onboarding and KYC microservice
// @BasePath    /
func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.Warnf("failed to load .env file - %v", err)
	}

	cfg, err := config.Build()
	if err != nil {
		logrus.Fatal(err)
	}
	setupLogger(cfg.LogCfg)

	if err := run(cfg); err != nil {
		logrus.Fatal(err)
	}
}

func setupLogger(cfg config.LogCfg) {
	lvl, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logrus.Warnf("unknown log level %q, falling back to info", cfg.Level)
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)

	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}

func run(cfg config.Config) error {
	startedAt := time.Now()

	startupCtx, cancel := context.WithTimeout(context.Background(), DefaultStartupTimeout)
	defer cancel()

	customerRps, closeStore, err := customerRepository(startupCtx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := customerRps.EnsureSchema(startupCtx); err != nil {
		return fmt.Errorf("failed to prepare customers storage - %w", err)
	}

	redisClient, err := infra.Redis(startupCtx, cfg.RedisCfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Collaborators
	gw := gateway.New(gateway.Options{
		AccountsURL:       cfg.ExternalCfg.AccountsURL,
		AccountsTimeout:   cfg.ExternalCfg.AccountsTimeout,
		ComplianceURL:     cfg.ExternalCfg.ComplianceURL,
		ComplianceTimeout: cfg.ExternalCfg.ComplianceTimeout,
	})
	customerCache := cache.NewRedisCustomerCache(redisClient, cfg.RedisCfg.CacheTTL)

	// Services
	complianceTrigger := service.NewComplianceTrigger(customerRps, customerCache, gw, m)
	customerSvc := service.NewCustomerService(customerRps, customerCache, gw, complianceTrigger, m)
	healthSvc := service.NewHealthService(customerRps, gw, startedAt)

	e, err := infra.Router(infra.RouterDeps{
		Cfg:         cfg,
		RedisClient: redisClient,
		Registry:    reg,
		Metrics:     m,
		CustomerSvc: customerSvc,
		HealthSvc:   healthSvc,
	})
	if err != nil {
		return err
	}

	healthHandler := handlers.NewHealthGrpcHandler(healthSvc)
	grpcSrv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		interceptors.LoggerUnaryInterceptor(interceptors.UnaryApplicableForService(healthpb.Health_ServiceDesc.ServiceName)),
	))
	healthpb.RegisterHealthServer(grpcSrv, healthHandler)

	start(cfg, e, grpcSrv, healthHandler)

	logrus.Info("waiting for in-flight compliance checks...")
	complianceTrigger.Wait()
	return nil
}

func customerRepository(ctx context.Context, cfg config.Config) (repository.CustomerRepository, func(), error) {
	if cfg.StoreCfg.Backend == config.StoreBackendPostgres {
		pool, err := infra.Postgresql(ctx, cfg.PostgresCfg)
		if err != nil {
			return nil, nil, err
		}

		trx := transactor.NewPgxTransactor(pool)
		executor := transactor.NewPgxWithinTransactionExecutor(pool)
		return repository.NewPostgresCustomerRepository(trx, executor), pool.Close, nil
	}

	client, err := infra.Mongodb(ctx, cfg.MongoCfg)
	if err != nil {
		return nil, nil, err
	}

	disconnect := func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoCfg.Timeout)
		defer cancel()

		if err := client.Disconnect(ctx); err != nil {
			logrus.Errorf("failed to disconnect from mongo - %v", err)
		}
	}
	return repository.NewMongoCustomerRepository(client, cfg.MongoCfg.Database), disconnect, nil
}

func start(cfg config.Config, e *echo.Echo, grpcSrv *grpc.Server, healthHandler *handlers.HealthGrpcHandler) {
	shutdownCh := make(chan os.Signal, 1)
	errorCh := make(chan error, 2)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	healthCtx, stopHealth := context.WithCancel(context.Background())
	defer stopHealth()
	go healthHandler.Monitor(healthCtx, cfg.HealthCfg.RefreshInterval)

	go func() {
		logrus.Infof("http server is listening on port %d", cfg.HTTPCfg.Port)
		errorCh <- e.Start(fmt.Sprintf(":%d", cfg.HTTPCfg.Port))
	}()

	go func() {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.HTTPCfg.GrpcPort))
		if err != nil {
			errorCh <- fmt.Errorf("failed to listen grpc port - %w", err)
			return
		}

		logrus.Infof("grpc server is listening on port %d", cfg.HTTPCfg.GrpcPort)
		errorCh <- grpcSrv.Serve(lis)
	}()

	select {
	case <-shutdownCh:
		logrus.Info("shutdown signal has been sent, stopping the servers...")
	case err := <-errorCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("shutting down the servers, unexpected error occurred - %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPCfg.ShutdownTimeout)
	defer cancel()

	stopHealth()
	if err := e.Shutdown(ctx); err != nil {
		logrus.Errorf("failed to stop http server gracefully - %v", err)
	}
	grpcSrv.GracefulStop()
}
