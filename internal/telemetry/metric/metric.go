// Package metric provides Prometheus metrics for SasMint.
//
// It exposes metrics for credential issuance rates and latencies,
// registry size, and HTTP traffic. The Registry holds interfaces so
// services stay testable without a Prometheus registry.
package metric

// Registry holds all application metrics.
type Registry struct {
	// Issuance metrics
	TokensIssued  CounterVec // labels: hub
	TokensFailed  CounterVec // labels: reason (error code)
	IssueDuration Histogram

	// Registry metrics
	DevicesRegistered Gauge
	APIKeysActive     Gauge

	// HTTP metrics
	HTTPRequests    CounterVec   // labels: method, route, code
	HTTPDuration    HistogramVec // labels: method, route
	AuthFailures    Counter
	RateLimitedReqs Counter
}

// Counter is a cumulative metric that only increases.
type Counter interface {
	Inc()
	Add(float64)
}

// CounterVec is a Counter with labels.
type CounterVec interface {
	WithLabelValues(lvs ...string) Counter
}

// Gauge is a metric that can go up and down.
type Gauge interface {
	Set(float64)
	Inc()
	Dec()
}

// Histogram samples observations into buckets.
type Histogram interface {
	Observe(float64)
}

// HistogramVec is a Histogram with labels.
type HistogramVec interface {
	WithLabelValues(lvs ...string) Histogram
}

// NewNop returns a Registry whose metrics discard all observations.
// Tests and the CLI use it.
func NewNop() *Registry {
	return &Registry{
		TokensIssued:      nopCounterVec{},
		TokensFailed:      nopCounterVec{},
		IssueDuration:     nopHistogram{},
		DevicesRegistered: nopGauge{},
		APIKeysActive:     nopGauge{},
		HTTPRequests:      nopCounterVec{},
		HTTPDuration:      nopHistogramVec{},
		AuthFailures:      nopCounter{},
		RateLimitedReqs:   nopCounter{},
	}
}

type nopCounter struct{}

func (nopCounter) Inc()          {}
func (nopCounter) Add(_ float64) {}

type nopCounterVec struct{}

func (nopCounterVec) WithLabelValues(_ ...string) Counter { return nopCounter{} }

type nopGauge struct{}

func (nopGauge) Set(_ float64) {}
func (nopGauge) Inc()          {}
func (nopGauge) Dec()          {}

type nopHistogram struct{}

func (nopHistogram) Observe(_ float64) {}

type nopHistogramVec struct{}

func (nopHistogramVec) WithLabelValues(_ ...string) Histogram { return nopHistogram{} }
