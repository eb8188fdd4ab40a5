package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var (
	EmbeddingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_requests_total",
			Help: "Total number of embedding calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	EmbeddingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "embedding_request_duration_seconds",
			Help:    "Duration of embedding calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	EmbeddingCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_cache_hits_total",
			Help: "Total number of embedding lookups served from the in-process cache",
		},
		[]string{"provider"},
	)

	RankRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rank_requests_total",
			Help: "Total number of ranking requests by outcome",
		},
		[]string{"outcome"},
	)

	RankDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rank_request_duration_seconds",
			Help:    "Duration of ranking requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	PostingsScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "postings_scored_total",
			Help: "Total number of (document, posting) pairs scored",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by route and status code",
		},
		[]string{"route", "code"},
	)
)
