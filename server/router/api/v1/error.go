package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	apierrors "github.com/hrygo/finder/server/internal/errors"
	"github.com/hrygo/finder/internal/observability"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Code  apierrors.ErrorCode `json:"code"`
	Error string              `json:"error"`
}

// HTTPErrorHandler renders APIErrors with their status and code. Internal
// causes are logged, never returned to the client.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	body := ErrorResponse{Code: apierrors.ErrCodeInternal, Error: "internal error"}

	var apiErr *apierrors.APIError
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus()
		body = ErrorResponse{Code: apiErr.Code, Error: apiErr.Message}
	case errors.As(err, &httpErr):
		status = httpErr.Code
		body.Code = codeForStatus(status)
		body.Error = http.StatusText(status)
		if msg, ok := httpErr.Message.(string); ok {
			body.Error = msg
		}
	}

	if status >= http.StatusInternalServerError {
		observability.LoggerFromContext(c.Request().Context()).Error("request error",
			observability.LogFieldErrorCode, string(body.Code),
			"error", err.Error())
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		observability.LoggerFromContext(c.Request().Context()).Warn("failed to write error response", "error", err)
	}
}

func codeForStatus(status int) apierrors.ErrorCode {
	switch status {
	case http.StatusBadRequest, http.StatusUnsupportedMediaType:
		return apierrors.ErrCodeInvalidArgument
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return apierrors.ErrCodeNotFound
	case http.StatusTooManyRequests:
		return apierrors.ErrCodeRateLimitExceeded
	case http.StatusUnauthorized, http.StatusForbidden:
		return apierrors.ErrCodeUnauthorized
	}
	return apierrors.ErrCodeInternal
}
