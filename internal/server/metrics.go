package server

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpMetricsOnce sync.Once
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
)

func initHTTPMetrics() {
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "readmode",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "readmode",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route",
		Buckets:   []float64{.05, .1, .5, 1, 5, 15, 30, 60, 120},
	}, []string{"route"})
	prometheus.MustRegister(httpRequests, httpDuration)
}

func requestMetrics(next echo.HandlerFunc) echo.HandlerFunc {
	httpMetricsOnce.Do(initHTTPMetrics)
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		status := c.Response().Status
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
		}
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(route, c.Request().Method, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		return err
	}
}
