package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v9"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/umalmyha/customers-kyc/internal/metrics"
	"golang.org/x/time/rate"
)

const (
	GeneralLimiter  = "general"
	CreationLimiter = "creation"
)

const (
	msgTooManyRequests       = "Too many requests from this IP, please try again later"
	msgTooManyRegistrations  = "Too many customer creation attempts, please try again later"
	redisLimiterKeyPrefix    = "customers:rate_limit"
	redisLimiterCallTimeout  = 500 * time.Millisecond
	maxIdentifierPeekedBytes = 64 << 10
)

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// GeneralRateLimiter limits requests per client address with in-memory token bucket
func GeneralRateLimiter(max int, window time.Duration, m *metrics.Metrics) echo.MiddlewareFunc {
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(max) / window.Seconds()),
		Burst:     max,
		ExpiresIn: window,
	})

	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			m.IncrementRateLimited(GeneralLimiter)
			return echo.NewHTTPError(http.StatusTooManyRequests, msgTooManyRequests)
		},
	})
}

// CreationRateLimiter limits customer creation attempts per client address and submitted email
func CreationRateLimiter(client *redis.Client, max int, window time.Duration, m *metrics.Metrics) echo.MiddlewareFunc {
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store:               NewRedisFixedWindowStore(client, CreationLimiter, max, window),
		IdentifierExtractor: addressAndEmail,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			m.IncrementRateLimited(CreationLimiter)
			return echo.NewHTTPError(http.StatusTooManyRequests, msgTooManyRegistrations)
		},
	})
}

// RedisFixedWindowStore counts hits per identifier within fixed window shared by every service instance
type RedisFixedWindowStore struct {
	client *redis.Client
	scope  string
	max    int64
	window time.Duration
}

func NewRedisFixedWindowStore(client *redis.Client, scope string, max int, window time.Duration) *RedisFixedWindowStore {
	return &RedisFixedWindowStore{
		client: client,
		scope:  scope,
		max:    int64(max),
		window: window,
	}
}

// Allow reports whether identifier is still within limit. Redis failures let request pass.
func (s *RedisFixedWindowStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisLimiterCallTimeout)
	defer cancel()

	key := fmt.Sprintf("%s:%s:%s", redisLimiterKeyPrefix, s.scope, identifier)
	count, err := fixedWindowScript.Run(ctx, s.client, []string{key}, s.window.Milliseconds()).Int64()
	if err != nil {
		logrus.Warnf("%s rate limiter is unavailable, request is let through - %v", s.scope, err)
		return true, nil
	}
	return count <= s.max, nil
}

// addressAndEmail builds identifier from client address and email found in JSON body, body stays readable
func addressAndEmail(c echo.Context) (string, error) {
	req := c.Request()
	ip := c.RealIP()

	if req.Body == nil {
		return ip, nil
	}

	body, err := io.ReadAll(io.LimitReader(req.Body, maxIdentifierPeekedBytes))
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}
	req.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), req.Body))

	var payload struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ip, nil
	}
	return ip + ":" + strings.ToLower(strings.TrimSpace(payload.Email)), nil
}
