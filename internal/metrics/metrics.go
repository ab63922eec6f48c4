// Package metrics exposes Prometheus counters for the shortener.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration measures request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	LinksCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "links_created_total",
		Help: "Total number of short links created",
	})

	CodeCollisionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "code_collisions_total",
		Help: "Total number of generated codes rejected as already taken",
	})

	RedirectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "redirects_total",
		Help: "Total number of resolved redirects",
	})

	ClickIncrementFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "click_increment_failures_total",
		Help: "Total number of click increments that failed on the redirect path",
	})

	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total number of resolve cache hits",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total number of resolve cache misses",
	})
)

// Handler returns the Prometheus exposition handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest records an HTTP request metric.
func RecordRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
