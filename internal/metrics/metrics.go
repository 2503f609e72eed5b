package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ComplianceUpdated     = "updated"
	ComplianceUnavailable = "unavailable"
	ComplianceStoreError  = "store_error"
)

// Metrics holds all Prometheus metrics of customers service
type Metrics struct {
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	CustomersRegistered prometheus.Counter
	ComplianceChecks    *prometheus.CounterVec
	RateLimited         *prometheus.CounterVec
}

// New creates metrics and registers them within provided registerer
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "customers_http_requests_total",
			Help: "Total number of processed HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "customers_http_request_duration_seconds",
			Help:    "HTTP request processing duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		CustomersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "customers_registered_total",
			Help: "Total number of registered customers",
		}),
		ComplianceChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "customers_compliance_checks_total",
			Help: "Total number of compliance checks by outcome",
		}, []string{"outcome"}),
		RateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "customers_rate_limited_total",
			Help: "Total number of requests rejected by rate limiters",
		}, []string{"limiter"}),
	}
}

func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func (m *Metrics) IncrementRegistered() {
	m.CustomersRegistered.Inc()
}

func (m *Metrics) IncrementComplianceChecks(outcome string) {
	m.ComplianceChecks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementRateLimited(limiter string) {
	m.RateLimited.WithLabelValues(limiter).Inc()
}
