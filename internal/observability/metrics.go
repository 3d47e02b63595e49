package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	gradingRequestsTotal  *prometheus.CounterVec
	gradingLatencySeconds *prometheus.HistogramVec
	gradingCostUSDTotal   *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used for grading observability.
func RegisterMetrics() {
	registerOnce.Do(func() {
		gradingRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_requests_total",
			Help: "Total number of grading calls by prompt version and outcome.",
		}, []string{"prompt_version", "outcome"})

		gradingLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grading_latency_seconds",
			Help:    "End-to-end latency of grading calls.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"model"})

		gradingCostUSDTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_cost_usd_total",
			Help: "Estimated spend of successful grading calls in USD.",
		}, []string{"model"})

		prometheus.MustRegister(gradingRequestsTotal, gradingLatencySeconds, gradingCostUSDTotal)
	})
}

// GradingRequests exposes the counter for grading calls.
func GradingRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingRequestsTotal
}

// GradingLatency exposes the latency histogram for grading calls.
func GradingLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return gradingLatencySeconds
}

// GradingCost exposes the estimated cost counter.
func GradingCost() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingCostUSDTotal
}
