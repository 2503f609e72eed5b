package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRequest(http.MethodPost, "/api/customers", http.StatusCreated, 20*time.Millisecond)
	m.ObserveRequest(http.MethodPost, "/api/customers", http.StatusCreated, 30*time.Millisecond)
	m.IncrementRegistered()
	m.IncrementComplianceChecks(ComplianceUpdated)
	m.IncrementComplianceChecks(ComplianceUnavailable)
	m.IncrementRateLimited("create")

	require.Equal(t, float64(2), testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodPost, "/api/customers", "201")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.CustomersRegistered))
	require.Equal(t, float64(1), testutil.ToFloat64(m.ComplianceChecks.WithLabelValues(ComplianceUpdated)))
	require.Equal(t, float64(0), testutil.ToFloat64(m.ComplianceChecks.WithLabelValues(ComplianceStoreError)))
	require.Equal(t, float64(1), testutil.ToFloat64(m.RateLimited.WithLabelValues("create")))
	require.Equal(t, 1, testutil.CollectAndCount(m.HTTPRequestDuration))

	t.Log("metrics are isolated per registry")
	{
		require.NotPanics(t, func() { New(prometheus.NewRegistry()) })
		require.Panics(t, func() { New(reg) }, "duplicate registration within one registry must panic")
	}
}
