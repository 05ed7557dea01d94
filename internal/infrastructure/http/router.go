package http

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/99minutos/product-catalog/internal/infrastructure/http/handlers"
)

// MetricsPath is where Prometheus scrapes the process.
const MetricsPath = "/metrics"

// RegisterOperational adds the probe and metrics routes to e. They sit
// outside the catalog's authorization rules.
func RegisterOperational(e *echo.Echo, deps map[string]handlers.Pinger, gatherer prometheus.Gatherer) {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET(MetricsPath, echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
}

// IsOperational reports whether path belongs to the routes above.
func IsOperational(path string) bool {
	switch path {
	case "/health", "/health/ready", MetricsPath:
		return true
	}
	return false
}
