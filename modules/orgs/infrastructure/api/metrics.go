package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgs",
		Subsystem: "client",
		Name:      "requests_total",
		Help:      "Total number of orgs API calls broken down by endpoint and result.",
	}, []string{"endpoint", "result"})

	apiLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "orgs",
		Subsystem: "client",
		Name:      "latency_seconds",
		Help:      "Latency distribution for orgs API calls.",
		Buckets: []float64{
			0.001, 0.002, 0.005,
			0.01, 0.02, 0.05,
			0.1, 0.2, 0.5,
			1, 2, 5, 10,
		},
	}, []string{"endpoint", "result"})

	apiRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgs",
		Subsystem: "client",
		Name:      "retries_total",
		Help:      "Total number of retried orgs API reads by endpoint.",
	}, []string{"endpoint"})
)

func resultLabel(status int) string {
	switch {
	case status == 0:
		return "error"
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}

func observe(endpoint string, status int, elapsed time.Duration) {
	result := resultLabel(status)
	apiRequests.WithLabelValues(endpoint, result).Inc()
	apiLatency.WithLabelValues(endpoint, result).Observe(elapsed.Seconds())
}
