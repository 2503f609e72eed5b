package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	apperrors "github.com/umalmyha/customers-kyc/internal/errors"
	"github.com/umalmyha/customers-kyc/internal/validation"
)

const (
	msgValidationFailed = "Validation failed"
	msgInternalError    = "Internal server error"
	msgInvalidPayload   = "Invalid request payload"
)

// HTTPErrorHandler renders errors into error envelope, debug mode exposes internal error text
func HTTPErrorHandler(debug bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, res := errorEnvelope(err)
		if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
			logrus.WithFields(logrus.Fields{
				"method":    c.Request().Method,
				"uri":       c.Request().RequestURI,
				"requestId": c.Response().Header().Get(echo.HeaderXRequestID),
			}).Errorf("request processing failed - %v", err)
		}

		if debug {
			res.Error = err.Error()
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, res)
		}

		if werr != nil {
			logrus.Errorf("failed to write error response - %v", werr)
		}
	}
}

func errorEnvelope(err error) (int, *errorResponse) {
	res := &errorResponse{Success: false, Message: msgInternalError}

	var payloadErr *validation.PayloadError
	if errors.As(err, &payloadErr) {
		res.Message = msgValidationFailed
		res.Errors = payloadErr.Violations()
		return http.StatusBadRequest, res
	}

	var conflictErr *apperrors.ConflictErr
	if errors.As(err, &conflictErr) {
		res.Message = conflictErr.Error()
		res.Errors = []*apperrors.ConflictErr{conflictErr}
		return http.StatusConflict, res
	}

	var notFoundErr *apperrors.EntryNotFoundErr
	if errors.As(err, &notFoundErr) {
		res.Message = notFoundErr.Error()
		return http.StatusNotFound, res
	}

	var unavailableErr *apperrors.ServiceUnavailableErr
	if errors.As(err, &unavailableErr) {
		res.Message = unavailableErr.Message()
		return http.StatusServiceUnavailable, res
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Code < http.StatusInternalServerError {
			res.Message = fmt.Sprint(httpErr.Message)
		}
		return httpErr.Code, res
	}

	return http.StatusInternalServerError, res
}

func badPayload(err error) error {
	return echo.NewHTTPError(http.StatusBadRequest, msgInvalidPayload).SetInternal(err)
}
