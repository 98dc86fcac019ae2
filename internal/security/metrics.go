// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package security

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tomtom215/gatehouse/internal/models"
)

var (
	// SecurityChecksTotal counts pipeline decisions per config.
	SecurityChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "security_checks_total",
			Help: "Total number of access-control pipeline evaluations",
		},
		[]string{"config", "decision", "layer", "reason"},
	)

	// SecurityCheckDuration tracks full pipeline latency.
	SecurityCheckDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "security_check_duration_seconds",
			Help:    "Duration of access-control pipeline evaluations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"config"},
	)

	// SecurityLayerFailuresTotal counts layers that timed out, were canceled or panicked.
	SecurityLayerFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "security_layer_failures_total",
			Help: "Total number of security layer evaluations that failed closed",
		},
		[]string{"layer", "kind"},
	)

	// GuardOutcomesTotal counts route guard terminal states.
	GuardOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "security_guard_outcomes_total",
			Help: "Total number of route guard outcomes by state",
		},
		[]string{"config", "state"},
	)
)

// RecordCheck records one pipeline decision.
func RecordCheck(config string, res models.SecurityCheckResult, duration time.Duration) {
	decision := "allow"
	if !res.Allowed {
		decision = "deny"
	}
	SecurityChecksTotal.WithLabelValues(config, decision, string(res.Layer), string(res.DeniedReason)).Inc()
	SecurityCheckDuration.WithLabelValues(config).Observe(duration.Seconds())
}

// RecordLayerFailure records a layer that failed closed.
func RecordLayerFailure(layer models.Layer, kind string) {
	SecurityLayerFailuresTotal.WithLabelValues(string(layer), kind).Inc()
}

// RecordGuardOutcome records where a guarded request ended up.
func RecordGuardOutcome(config string, state GuardState) {
	GuardOutcomesTotal.WithLabelValues(config, state.String()).Inc()
}
