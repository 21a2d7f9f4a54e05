package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/finder/internal/observability"
)

// MetricsOverviewResponse represents the overview response of system metrics
type MetricsOverviewResponse struct {
	TotalRequests int64                             `json:"total_requests"`
	SuccessRate   float64                           `json:"success_rate"`
	ErrorCount    int64                             `json:"error_count"`
	Operations    []observability.OperationSnapshot `json:"operations"`
	Verdicts      map[string]int64                  `json:"verdicts"`
}

// GetMetricsOverview returns the in-process request and verdict counters.
// GET /api/v1/system/metrics/overview
func (s *APIV1Service) GetMetricsOverview(c echo.Context) error {
	if s.Metrics == nil {
		return c.JSON(http.StatusOK, MetricsOverviewResponse{SuccessRate: 100, Verdicts: map[string]int64{}})
	}
	snapshot := s.Metrics.Snapshot()
	return c.JSON(http.StatusOK, MetricsOverviewResponse{
		TotalRequests: snapshot.RequestTotal,
		SuccessRate:   snapshot.SuccessRate(),
		ErrorCount:    snapshot.RequestFailed,
		Operations:    snapshot.Operations,
		Verdicts:      snapshot.Verdicts,
	})
}

// Healthz reports liveness.
// GET /healthz
func (s *APIV1Service) Healthz(c echo.Context) error {
	version := ""
	if s.Profile != nil {
		version = s.Profile.Version
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    version,
		"ai_enabled": s.Chat != nil && s.Chat.Enabled(),
	})
}
