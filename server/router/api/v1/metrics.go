package v1

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chatRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docent",
		Name:      "chat_requests_total",
		Help:      "Chat requests by generation outcome.",
	}, []string{"outcome"})

	chatDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "docent",
		Name:      "chat_duration_seconds",
		Help:      "End-to-end chat request latency.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
	})

	retrievalResultsCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "docent",
		Name:      "retrieval_results_count",
		Help:      "Reference chunks retrieved per chat request.",
		Buckets:   []float64{0, 1, 2, 3, 4, 5},
	})

	deferredUpdateFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "docent",
		Name:      "deferred_update_failures_total",
		Help:      "Conversation updates that failed or were dropped after the response was sent.",
	})
)
