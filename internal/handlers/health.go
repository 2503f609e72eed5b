package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/umalmyha/customers-kyc/internal/service"
)

// HealthHTTPHandler is http handler for health endpoint
type HealthHTTPHandler struct {
	healthSvc service.HealthService
}

func NewHealthHTTPHandler(healthSvc service.HealthService) *HealthHTTPHandler {
	return &HealthHTTPHandler{healthSvc: healthSvc}
}

// Check reports dependencies health
// @Summary     Health check
// @Tags        health
// @Produce     json
// @Success     200 {object} model.HealthReport
// @Failure     503 {object} model.HealthReport
// @Router      /health [get]
func (h *HealthHTTPHandler) Check(c echo.Context) error {
	report := h.healthSvc.Check(c.Request().Context())

	status := http.StatusOK
	if report.Status != service.HealthOK {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, report)
}
