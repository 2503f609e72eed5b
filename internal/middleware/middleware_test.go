package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v9"
	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/umalmyha/customers-kyc/internal/metrics"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return server, client
}

func postJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRedisFixedWindowStore(t *testing.T) {
	server, client := newRedis(t)
	store := NewRedisFixedWindowStore(client, CreationLimiter, 2, time.Hour)

	t.Log("identifier is limited within window")
	{
		for i := 0; i < 2; i++ {
			allowed, err := store.Allow("10.0.0.1:ana@x.com")
			require.NoError(t, err)
			require.True(t, allowed, "attempt %d must be allowed", i+1)
		}

		allowed, err := store.Allow("10.0.0.1:ana@x.com")
		require.NoError(t, err)
		require.False(t, allowed, "third attempt must be rejected")
	}

	t.Log("other identifiers are counted separately")
	{
		allowed, err := store.Allow("10.0.0.1:other@x.com")
		require.NoError(t, err)
		require.True(t, allowed)
	}

	t.Log("window is reset after expiration")
	{
		server.FastForward(time.Hour + time.Second)
		allowed, err := store.Allow("10.0.0.1:ana@x.com")
		require.NoError(t, err)
		require.True(t, allowed)
	}

	t.Log("unavailable redis lets requests through")
	{
		server.Close()
		allowed, err := store.Allow("10.0.0.1:ana@x.com")
		require.NoError(t, err)
		require.True(t, allowed)
	}
}

func TestCreationRateLimiter(t *testing.T) {
	_, client := newRedis(t)
	m := metrics.New(prometheus.NewRegistry())

	var received []string
	e := echo.New()
	e.POST("/customers", func(c echo.Context) error {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return err
		}
		received = append(received, string(body))
		return c.NoContent(http.StatusCreated)
	}, CreationRateLimiter(client, 1, time.Hour, m))

	first := `{"email":"ana@x.com","firstName":"Ana"}`

	t.Log("first attempt passes and body is still readable")
	{
		rec := postJSON(e, "/customers", first)
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Equal(t, []string{first}, received)
	}

	t.Log("same address and email is rejected regardless of email casing")
	{
		rec := postJSON(e, "/customers", `{"email":"  ANA@X.COM "}`)
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.Equal(t, float64(1), testutil.ToFloat64(m.RateLimited.WithLabelValues(CreationLimiter)))
	}

	t.Log("another email from same address passes")
	{
		rec := postJSON(e, "/customers", `{"email":"john@x.com"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
}

func TestGeneralRateLimiter(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	e := echo.New()
	e.GET("/customers", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, GeneralRateLimiter(2, time.Hour, m))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers", nil))
		codes = append(codes, rec.Code)
	}

	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	require.Equal(t, float64(1), testutil.ToFloat64(m.RateLimited.WithLabelValues(GeneralLimiter)))
}

func TestSanitize(t *testing.T) {
	var received map[string]any
	e := echo.New()
	e.POST("/customers", func(c echo.Context) error {
		if err := json.NewDecoder(c.Request().Body).Decode(&received); err != nil {
			return err
		}
		return c.NoContent(http.StatusOK)
	}, Sanitize())

	body := `{
		"firstName": "<script>alert(1)</script>Ana",
		"lastName": "O'Brien & Co",
		"address": {"city": "<b>Bogotá</b>", "street": "Calle <i>1</i>"},
		"documents": [{"filename": "<img src=x onerror=alert(1)>id.png"}],
		"preferences": {"notifications": {"email": true}},
		"count": 5
	}`

	rec := postJSON(e, "/customers", body)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, "Ana", received["firstName"])
	require.Equal(t, "O'Brien & Co", received["lastName"], "plain text must not be escaped")

	address := received["address"].(map[string]any)
	require.Equal(t, "Bogotá", address["city"])
	require.Equal(t, "Calle 1", address["street"])

	docs := received["documents"].([]any)
	require.Equal(t, "id.png", docs[0].(map[string]any)["filename"])

	prefs := received["preferences"].(map[string]any)
	require.Equal(t, true, prefs["notifications"].(map[string]any)["email"])
	require.Equal(t, float64(5), received["count"])
}

func TestSanitizeEncodedMarkup(t *testing.T) {
	policy := bluemonday.StrictPolicy()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "entity encoded script", input: "&lt;script&gt;alert(1)&lt;/script&gt;Ana", expected: "Ana"},
		{name: "double encoded tag", input: "&amp;lt;b&amp;gt;Ana&amp;lt;/b&amp;gt;", expected: "Ana"},
		{name: "numeric entities", input: "&#60;img src=x onerror=alert(1)&#62;Ana", expected: "Ana"},
		{name: "plain ampersand", input: "Ruiz & Co", expected: "Ruiz & Co"},
		{name: "literal less than", input: "a < b", expected: "a < b"},
	}

	for _, tt := range tests {
		t.Log(tt.name)
		{
			body := []byte(`{"firstName":` + strconv.Quote(tt.input) + `}`)

			var payload map[string]string
			require.NoError(t, json.Unmarshal(sanitizeJSON(policy, body), &payload))
			require.Equal(t, tt.expected, payload["firstName"])
			require.NotContains(t, payload["firstName"], "<script")
			require.Equal(t, payload["firstName"], sanitizeText(policy, payload["firstName"]), "sanitized text must be stable")
		}
	}
}

func TestSanitizeKeepsInvalidJSON(t *testing.T) {
	policy := bluemonday.StrictPolicy()
	body := []byte(`{"firstName": "<b>Ana</b>"`)
	require.Equal(t, body, sanitizeJSON(policy, body))
}

func TestMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	e := echo.New()
	e.Use(Metrics(m))
	e.GET("/customers/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "Customer not found")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers/42", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodGet, "/customers/:id", "404")))
}
