// Package metrics exposes prometheus instrumentation for the data
// aggregation layer: cache effectiveness, upstream call outcomes and
// latency, and how often the fallback path is taken.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts cache hits per dataset ("stats", "sections").
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dvf_cache_hits_total",
		Help: "Number of cache hits, per dataset",
	}, []string{"dataset"})

	// CacheMisses counts cache misses per dataset.
	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dvf_cache_misses_total",
		Help: "Number of cache misses, per dataset",
	}, []string{"dataset"})

	// UpstreamRequests counts outbound requests per provider and outcome
	// ("ok", "timeout", "status", "error").
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dvf_upstream_requests_total",
		Help: "Number of upstream requests, per provider and outcome",
	}, []string{"provider", "outcome"})

	// UpstreamDuration observes upstream request latency per provider.
	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dvf_upstream_duration_seconds",
		Help:    "Upstream request latency, per provider",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	// FallbackServed counts stats lookups answered by a fallback source
	// ("archive", "static").
	FallbackServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dvf_fallback_served_total",
		Help: "Number of stats lookups served from a fallback source",
	}, []string{"source"})
)
