package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eugenenazirov/confstore/internal/argv"
)

const unmatchedRoute = "unmatched"

type metrics struct {
	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	rateLimited     prometheus.Counter
	settingsKnown   prometheus.Gauge
	settingsChanged prometheus.Gauge
	unknownSettings prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "confstore",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route pattern and status code",
		}, []string{"route", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "confstore",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "confstore",
			Name:      "ratelimit_exceeded_total",
			Help:      "Requests rejected by the rate limiter",
		}),
		settingsKnown: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "confstore",
			Name:      "settings_known",
			Help:      "Settings present in the served snapshot",
		}),
		settingsChanged: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "confstore",
			Name:      "settings_changed",
			Help:      "Settings whose value differs from the default",
		}),
		unknownSettings: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "confstore",
			Name:      "settings_unknown",
			Help:      "Unknown settings accepted through ignore-unknown-settings",
		}),
	}
}

func (m *metrics) observeSnapshot(snap *argv.Snapshot) {
	m.settingsKnown.Set(float64(len(snap.List())))
	m.settingsChanged.Set(float64(len(snap.Diff())))
	m.unknownSettings.Set(float64(len(snap.Unknown())))
}

// instrument must wrap the ServeMux directly so the matched pattern is
// visible on the request once the mux returns.
func (m *metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = unmatchedRoute
		}
		m.requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func metricsHandler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
