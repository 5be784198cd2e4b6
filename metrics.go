package resource

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for dispatches.
type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics creates the dispatch collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resource",
			Name:      "dispatch_total",
			Help:      "Dispatched requests by handler type, verb, and response status.",
		}, []string{"handler", "verb", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "resource",
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent in the dispatch pipeline.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"handler", "verb"}),
	}
	reg.MustRegister(m.requests, m.latency)
	return m
}

func (m *Metrics) observe(handler, verb string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(handler, verb, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(handler, verb).Observe(d.Seconds())
}
