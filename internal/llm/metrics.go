package llm

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts completion requests.
	// Labels: result (success, error)
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "accountable",
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "Total completion provider requests by result",
		},
		[]string{"result"},
	)

	// RequestDuration tracks provider latency including rate-limit waits.
	RequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "accountable",
			Subsystem: "llm",
			Name:      "request_duration_seconds",
			Help:      "Duration of completion provider requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

func observeRequest(start time.Time, err error) {
	RequestDuration.Observe(time.Since(start).Seconds())
	result := "success"
	if err != nil {
		result = "error"
	}
	RequestsTotal.WithLabelValues(result).Inc()
}
