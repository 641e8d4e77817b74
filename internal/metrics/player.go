// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PlayerEventsTotal counts canonical events fanned out to observers.
	PlayerEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iplayer_player_events_total",
		Help: "Canonical playback events emitted by the playback facade, by event",
	}, []string{"event"})

	// PlayerErrorsTotal counts classified backend errors.
	PlayerErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iplayer_player_errors_total",
		Help: "Backend playback errors by classified kind",
	}, []string{"kind"})

	// PlayersActive tracks facades that have not been released.
	PlayersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "iplayer_players_active",
		Help: "Number of playback facades that have not been released",
	})

	// SurfaceReleasesTotal counts owned surface handles released by the manager.
	SurfaceReleasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iplayer_surface_releases_total",
		Help: "Owned output surfaces released by the surface manager, by trigger",
	}, []string{"trigger"})
)

// IncPlayerEvent records a canonical event.
func IncPlayerEvent(event string) {
	PlayerEventsTotal.WithLabelValues(event).Inc()
}

// IncPlayerError records a classified backend error.
func IncPlayerError(kind string) {
	PlayerErrorsTotal.WithLabelValues(kind).Inc()
}

// IncSurfaceRelease records the release of an owned surface.
func IncSurfaceRelease(trigger string) {
	SurfaceReleasesTotal.WithLabelValues(trigger).Inc()
}
