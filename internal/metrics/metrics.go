// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ranking
	RankTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelfeed_rank_total",
			Help: "Total number of feed re-ranks by trigger",
		},
		[]string{"trigger"},
	)

	RankDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelfeed_rank_duration_seconds",
			Help:    "Duration of feed ranking in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
		[]string{"trigger"},
	)

	RankedItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelfeed_ranked_items",
			Help: "Number of items in the current ranking",
		},
	)

	// Prefetch
	PrefetchResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelfeed_prefetch_results_total",
			Help: "Prefetch outcomes per URL",
		},
		[]string{"bucket", "outcome"}, // outcome: cached, fetched, failed, skipped
	)

	PrefetchPassDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelfeed_prefetch_pass_duration_seconds",
			Help:    "Duration of a prefetch pass in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"pass"}, // prime, boost, tail
	)

	// Media cache
	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reelfeed_cache_entries",
			Help: "Current number of cached entries per bucket",
		},
		[]string{"bucket"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelfeed_cache_evictions_total",
			Help: "Total number of cache entries evicted",
		},
		[]string{"bucket"},
	)

	CachePurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelfeed_cache_purged_total",
			Help: "Total number of stale-namespace cache records purged",
		},
	)

	CacheFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelfeed_cache_fetches_total",
			Help: "Origin fetches by bucket and mode",
		},
		[]string{"bucket", "mode"}, // mode: standard, opaque, failed, rejected
	)

	// Interests
	InterestMirror = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelfeed_interest_mirror_total",
			Help: "Remote interest profile writes by result",
		},
		[]string{"result"}, // success, failure
	)

	// Events
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelfeed_events_published_total",
			Help: "Events published to the bus by topic",
		},
		[]string{"topic"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelfeed_events_consumed_total",
			Help: "Events handled from the bus by topic and result",
		},
		[]string{"topic", "result"},
	)

	EventsDuplicate = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelfeed_events_duplicate_total",
			Help: "Redelivered bus messages dropped by the dedup window",
		},
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelfeed_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelfeed_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelfeed_websocket_clients",
			Help: "Number of connected WebSocket clients",
		},
	)

	// Circuit breakers
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordRank records a completed re-rank.
func RecordRank(trigger string, items int, duration time.Duration) {
	RankTotal.WithLabelValues(trigger).Inc()
	RankDuration.WithLabelValues(trigger).Observe(duration.Seconds())
	RankedItems.Set(float64(items))
}

// RecordPrefetch records the outcome for one URL.
func RecordPrefetch(bucket, outcome string) {
	PrefetchResults.WithLabelValues(bucket, outcome).Inc()
}

// RecordPrefetchPass records the duration of a whole pass.
func RecordPrefetchPass(pass string, duration time.Duration) {
	PrefetchPassDuration.WithLabelValues(pass).Observe(duration.Seconds())
}

// RecordCacheFetch records which fetch mode produced (or failed to produce) an entry.
func RecordCacheFetch(bucket, mode string) {
	CacheFetches.WithLabelValues(bucket, mode).Inc()
}

// RecordEviction records evicted entries for a bucket.
func RecordEviction(bucket string, n int) {
	if n > 0 {
		CacheEvictions.WithLabelValues(bucket).Add(float64(n))
	}
}

// RecordPurge records purged stale records.
func RecordPurge(n int) {
	if n > 0 {
		CachePurged.Add(float64(n))
	}
}

// SetCacheEntries sets the current entry count for a bucket.
func SetCacheEntries(bucket string, n int) {
	CacheEntries.WithLabelValues(bucket).Set(float64(n))
}

// RecordInterestMirror records a remote profile write.
func RecordInterestMirror(err error) {
	if err != nil {
		InterestMirror.WithLabelValues("failure").Inc()
		return
	}
	InterestMirror.WithLabelValues("success").Inc()
}

// RecordEventPublished records a message published on topic.
func RecordEventPublished(topic string) {
	EventsPublished.WithLabelValues(topic).Inc()
}

// RecordEventConsumed records a handled message.
func RecordEventConsumed(topic string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	EventsConsumed.WithLabelValues(topic, result).Inc()
}

// RecordEventDuplicate records a dropped redelivery.
func RecordEventDuplicate() {
	EventsDuplicate.Inc()
}

// RecordAPIRequest records an API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
