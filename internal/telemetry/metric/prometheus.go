package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sasmint"

// NewPrometheus creates a Registry backed by Prometheus collectors,
// registered with reg (use prometheus.DefaultRegisterer in the server).
func NewPrometheus(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		TokensIssued: counterVec(factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "SAS tokens issued, by hub.",
		}, []string{"hub"})),

		TokensFailed: counterVec(factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_failed_total",
			Help:      "Failed issuance attempts, by error code.",
		}, []string{"reason"})),

		IssueDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "issue_duration_seconds",
			Help:      "Credential issuance duration.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 10),
		}),

		DevicesRegistered: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "devices_registered",
			Help:      "Devices currently in the registry.",
		}),

		APIKeysActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "api_keys_active",
			Help:      "Active management API keys.",
		}),

		HTTPRequests: counterVec(factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by method, route and status code.",
		}, []string{"method", "route", "code"})),

		HTTPDuration: histogramVec(factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration, by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"})),

		AuthFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Rejected management API authentications.",
		}),

		RateLimitedReqs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by rate limiting.",
		}),
	}
}

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Adapters from prometheus vectors to the package interfaces.

type promCounterVec struct {
	vec *prometheus.CounterVec
}

func counterVec(vec *prometheus.CounterVec) CounterVec {
	return promCounterVec{vec: vec}
}

func (v promCounterVec) WithLabelValues(lvs ...string) Counter {
	return v.vec.WithLabelValues(lvs...)
}

type promHistogramVec struct {
	vec *prometheus.HistogramVec
}

func histogramVec(vec *prometheus.HistogramVec) HistogramVec {
	return promHistogramVec{vec: vec}
}

func (v promHistogramVec) WithLabelValues(lvs ...string) Histogram {
	return v.vec.WithLabelValues(lvs...)
}
