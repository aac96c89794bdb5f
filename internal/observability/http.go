package observability

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler serves the scrape endpoint and marks the output with the service name.
// A collector failure drops that collector instead of failing the scrape.
func MetricsHandler(service string) fiber.Handler {
	RegisterMetrics()
	if service != "" {
		serviceInfo.WithLabelValues(service).Set(1)
	}

	handler := promhttp.InstrumentMetricHandler(prometheus.DefaultRegisterer,
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
			ErrorHandling: promhttp.ContinueOnError,
		}))
	return adaptor.HTTPHandler(handler)
}
