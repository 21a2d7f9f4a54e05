package middleware

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	apierrors "github.com/hrygo/finder/server/internal/errors"
	"github.com/hrygo/finder/internal/observability"
)

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = echo.HeaderXRequestID

// LoggerConfig configures RequestLogger.
type LoggerConfig struct {
	// Skipper skips logging for matching requests, e.g. health checks.
	Skipper echomw.Skipper
	Logger  *slog.Logger
	// Metrics is optional.
	Metrics *observability.Metrics
}

// RequestLogger attaches an observability.RequestContext to every request,
// echoes the request ID back and logs one line when the request completes.
func RequestLogger(config LoggerConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper != nil && config.Skipper(c) {
				return next(c)
			}
			req := c.Request()
			operation := req.Method + " " + c.Path()

			var reqCtx *observability.RequestContext
			if id := req.Header.Get(HeaderRequestID); id != "" {
				reqCtx = observability.NewRequestContextWithID(config.Logger, id, operation, c.RealIP())
			} else {
				reqCtx = observability.NewRequestContext(config.Logger, operation, c.RealIP())
			}
			c.SetRequest(req.WithContext(observability.WithRequestContext(req.Context(), reqCtx)))
			c.Response().Header().Set(HeaderRequestID, reqCtx.RequestID)

			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = statusOf(err)
			}
			failed := status >= http.StatusInternalServerError
			if config.Metrics != nil {
				config.Metrics.RecordRequest(operation, reqCtx.Duration(), failed)
			}

			attrs := []slog.Attr{
				slog.Int(observability.LogFieldStatus, status),
				slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()),
			}
			switch {
			case failed && err != nil:
				reqCtx.Error("request failed", err, attrs...)
			case status >= http.StatusBadRequest:
				reqCtx.Warn("request rejected", attrs...)
			default:
				reqCtx.Info("request completed", attrs...)
			}
			return err
		}
	}
}

func statusOf(err error) int {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}
	if code := apierrors.GetCodeFromError(err, ""); code != "" {
		return (&apierrors.APIError{Code: code}).HTTPStatus()
	}
	return http.StatusInternalServerError
}
