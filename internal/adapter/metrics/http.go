package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics covers the /api surface. Health checks and the scrape endpoint are
// left out so they do not drown the user-facing latencies.
type HTTPMetrics struct {
	Latency      *prometheus.HistogramVec
	Requests     *prometheus.CounterVec
	ResponseSize *prometheus.HistogramVec
	InFlight     prometheus.Gauge
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "API request latency by route template.",
			// suggestion calls wait on the provider for seconds
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"method", "route", "code"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "API requests by route template and status code.",
		}, []string{"method", "route", "code"}),
		ResponseSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "API response body size by route template.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 7),
		}, []string{"route"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "API requests being served.",
		}),
	}

	reg.MustRegister(m.Latency, m.Requests, m.ResponseSize, m.InFlight)
	return m
}

func tracked(route string) bool {
	return route != "/metrics" && route != "/version" && !strings.HasPrefix(route, "/health/")
}

// Middleware labels by route template so slot and interval ids stay out of
// the label set.
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			if !tracked(route) {
				return next(c)
			}
			if route == "" {
				route = "unmatched"
			}

			m.InFlight.Inc()
			start := time.Now()
			err := next(c)
			m.InFlight.Dec()

			res := c.Response()
			code := strconv.Itoa(res.Status)
			method := c.Request().Method
			m.Latency.WithLabelValues(method, route, code).Observe(time.Since(start).Seconds())
			m.Requests.WithLabelValues(method, route, code).Inc()
			m.ResponseSize.WithLabelValues(route).Observe(float64(res.Size))
			return err
		}
	}
}
