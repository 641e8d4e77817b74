// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var breakerStates = [...]string{"closed", "half-open", "open"}

var (
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "iplayer_breaker_state",
		Help: "1 for the breaker's current state, 0 for the others",
	}, []string{"breaker", "state"})

	breakerOpened = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iplayer_breaker_opened_total",
		Help: "Transitions into the open state, by the state left",
	}, []string{"breaker", "from"})

	breakerRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iplayer_breaker_rejected_total",
		Help: "Calls refused without running because the breaker was open",
	}, []string{"breaker"})
)

// ObserveBreakerTransition records a state change. from is empty for the
// initial state.
func ObserveBreakerTransition(breaker, from, to string) {
	for _, s := range breakerStates {
		v := 0.0
		if s == to {
			v = 1
		}
		breakerState.WithLabelValues(breaker, s).Set(v)
	}
	if to == "open" && from != "" {
		breakerOpened.WithLabelValues(breaker, from).Inc()
	}
}

// IncBreakerRejected counts a short-circuited call.
func IncBreakerRejected(breaker string) {
	breakerRejected.WithLabelValues(breaker).Inc()
}
