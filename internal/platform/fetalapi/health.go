package fetalapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthCheckTimeout bounds the upstream probe made by HealthHandler.
const HealthCheckTimeout = 5 * time.Second

// Pinger is anything that can report the prediction service's health.
type Pinger interface {
	Health(ctx context.Context) (*HealthResponse, error)
}

// UpstreamHealth is the body served by HealthHandler.
type UpstreamHealth struct {
	Status   string          `json:"status"`
	Upstream *HealthResponse `json:"upstream,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// HealthHandler reports whether the prediction service is reachable and
// healthy. It answers 503 otherwise.
func HealthHandler(p Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), HealthCheckTimeout)
		defer cancel()

		resp, err := p.Health(ctx)
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, UpstreamHealth{
				Status:   "unhealthy",
				Upstream: resp,
				Error:    err.Error(),
			})
		}
		return c.JSON(http.StatusOK, UpstreamHealth{Status: "healthy", Upstream: resp})
	}
}
