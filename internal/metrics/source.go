// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolve paths recorded by IncSourceResolve.
const (
	ResolvePathSniffed = "sniffed"
	ResolvePathCache   = "cache"
	ResolvePathProbe   = "probe"
)

var (
	// SourceResolveTotal counts source resolutions by the path that produced them.
	SourceResolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iplayer_source_resolve_total",
		Help: "Total number of media source resolutions by resolution path",
	}, []string{"path"})

	// SourceProbeTotal counts network probes by outcome.
	SourceProbeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iplayer_source_probe_total",
		Help: "Total number of redirect probes by result",
	}, []string{"result"})

	// SourceProbeDuration tracks probe latency, including redirect hops.
	SourceProbeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "iplayer_source_probe_duration_seconds",
		Help:    "Time taken to probe a media URL for its final location",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	// SourceCacheLookups counts resolved-URL cache lookups by result.
	SourceCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iplayer_source_cache_lookups_total",
		Help: "Resolved URL cache lookups by result (hit or miss)",
	}, []string{"result"})
)

// IncSourceResolve records a completed resolution.
func IncSourceResolve(path string) {
	SourceResolveTotal.WithLabelValues(path).Inc()
}

// ObserveSourceProbe records a finished probe and its outcome.
func ObserveSourceProbe(result string, duration time.Duration) {
	SourceProbeTotal.WithLabelValues(result).Inc()
	SourceProbeDuration.Observe(duration.Seconds())
}

// IncSourceCacheLookup records a cache hit or miss.
func IncSourceCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	SourceCacheLookups.WithLabelValues(result).Inc()
}
