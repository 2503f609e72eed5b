package middleware

import (
	"bytes"
	"encoding/json"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"
)

// Sanitize strips markup from every string value of JSON request body
func Sanitize() echo.MiddlewareFunc {
	policy := bluemonday.StrictPolicy()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || !strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
				return next(c)
			}

			body, err := io.ReadAll(req.Body)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
			}

			req.Body = io.NopCloser(bytes.NewReader(sanitizeJSON(policy, body)))
			return next(c)
		}
	}
}

// sanitizeJSON returns body untouched when it is not valid JSON, binding reports it later
func sanitizeJSON(policy *bluemonday.Policy, body []byte) []byte {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return body
	}

	sanitized, err := json.Marshal(sanitizeValue(policy, payload))
	if err != nil {
		return body
	}
	return sanitized
}

// maxSanitizePasses bounds decoding of nested entity encodings like &amp;lt;
const maxSanitizePasses = 5

// sanitizeText strips markup hidden behind entity encoding as well, result is literal text
// which stays unchanged when sanitized again
func sanitizeText(policy *bluemonday.Policy, s string) string {
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(policy.Sanitize(html.UnescapeString(s)))
		if next == s {
			return s
		}
		s = next
	}
	// still not stable, keep escaped form so no markup survives
	return policy.Sanitize(html.UnescapeString(s))
}

func sanitizeValue(policy *bluemonday.Policy, v any) any {
	switch val := v.(type) {
	case string:
		return sanitizeText(policy, val)
	case map[string]any:
		for k, item := range val {
			val[k] = sanitizeValue(policy, item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = sanitizeValue(policy, item)
		}
		return val
	default:
		return v
	}
}
