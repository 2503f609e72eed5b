package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

const (
	StoreBackendMongo    = "mongo"
	StoreBackendPostgres = "postgres"
)

type HTTPCfg struct {
	Port            int           `env:"HTTP_PORT" envDefault:"3000"`
	GrpcPort        int           `env:"GRPC_PORT" envDefault:"3001"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	BodyLimit       string        `env:"HTTP_BODY_LIMIT" envDefault:"10M"`
	Debug           bool          `env:"DEBUG" envDefault:"false"`
}

type LogCfg struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

type StoreCfg struct {
	Backend string `env:"STORE_BACKEND" envDefault:"mongo"`
}

type MongoCfg struct {
	URI         string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	Database    string        `env:"MONGO_DATABASE" envDefault:"customers"`
	MaxPoolSize uint64        `env:"MONGO_MAX_POOL_SIZE" envDefault:"100"`
	Timeout     time.Duration `env:"MONGO_CONNECT_TIMEOUT" envDefault:"5s"`
}

type PostgresCfg struct {
	User        string `env:"POSTGRES_USER" envDefault:"customers"`
	Password    string `env:"POSTGRES_PASSWORD" envDefault:"customers"`
	Host        string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Database    string `env:"POSTGRES_DB" envDefault:"customers"`
	SslMode     string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	Port        int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PoolMaxConn int    `env:"POSTGRES_POOL_MAX_CONN" envDefault:"100"`
}

// DSN builds pgx connection string
func (c PostgresCfg) DSN() string {
	return fmt.Sprintf("user=%s password=%s host=%s port=%d dbname=%s sslmode=%s pool_max_conns=%d",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SslMode, c.PoolMaxConn)
}

type RedisCfg struct {
	Addr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string        `env:"REDIS_PASSWORD" envDefault:""`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"10m"`
}

type ExternalCfg struct {
	AccountsURL       string        `env:"ACCOUNTS_SERVICE_URL" envDefault:"http://localhost:3002"`
	AccountsTimeout   time.Duration `env:"ACCOUNTS_SERVICE_TIMEOUT" envDefault:"5s"`
	ComplianceURL     string        `env:"COMPLIANCE_SERVICE_URL" envDefault:"http://localhost:3003"`
	ComplianceTimeout time.Duration `env:"COMPLIANCE_SERVICE_TIMEOUT" envDefault:"10s"`
}

type RateLimitCfg struct {
	Window       time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`
	Max          int           `env:"RATE_LIMIT_MAX" envDefault:"100"`
	CreateWindow time.Duration `env:"CREATE_RATE_LIMIT_WINDOW" envDefault:"1h"`
	CreateMax    int           `env:"CREATE_RATE_LIMIT_MAX" envDefault:"5"`
}

type HealthCfg struct {
	RefreshInterval time.Duration `env:"HEALTH_REFRESH_INTERVAL" envDefault:"30s"`
}

type Config struct {
	HTTPCfg      HTTPCfg
	LogCfg       LogCfg
	StoreCfg     StoreCfg
	MongoCfg     MongoCfg
	PostgresCfg  PostgresCfg
	RedisCfg     RedisCfg
	ExternalCfg  ExternalCfg
	RateLimitCfg RateLimitCfg
	HealthCfg    HealthCfg
}

func Build() (Config, error) {
	var cfg Config
	opts := env.Options{RequiredIfNoDef: true}

	if err := env.Parse(&cfg, opts); err != nil {
		return cfg, fmt.Errorf("failed to parse environment variables - %w", err)
	}

	switch cfg.StoreCfg.Backend {
	case StoreBackendMongo, StoreBackendPostgres:
	default:
		return cfg, fmt.Errorf("unknown store backend %q, expected %q or %q", cfg.StoreCfg.Backend, StoreBackendMongo, StoreBackendPostgres)
	}

	if cfg.RateLimitCfg.Max <= 0 || cfg.RateLimitCfg.CreateMax <= 0 {
		return cfg, fmt.Errorf("rate limit thresholds must be positive")
	}
	return cfg, nil
}
