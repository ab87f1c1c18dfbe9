package assistant

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UtterancesTotal counts handled utterances by classified intent.
	// Unclaimed utterances are labelled "fallback".
	UtterancesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "accountable",
			Subsystem: "assistant",
			Name:      "utterances_total",
			Help:      "Total utterances handled by intent",
		},
		[]string{"intent"},
	)

	// FallbackTotal counts fallback replies.
	// Labels: result (success, degraded)
	FallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "accountable",
			Subsystem: "assistant",
			Name:      "fallback_total",
			Help:      "Total fallback replies by result",
		},
		[]string{"result"},
	)

	// DispatchErrorsTotal counts intents whose handler failed.
	DispatchErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "accountable",
			Subsystem: "assistant",
			Name:      "dispatch_errors_total",
			Help:      "Total failed intent dispatches by intent",
		},
		[]string{"intent"},
	)
)
