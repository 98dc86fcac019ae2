// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package auth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tomtom215/gatehouse/internal/models"
)

var (
	// AuthChecksTotal counts authentication checks by outcome and reason.
	AuthChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_checks_total",
			Help: "Total number of authentication checks",
		},
		[]string{"decision", "reason"},
	)

	// AuthCheckDuration tracks authentication check latency.
	AuthCheckDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auth_check_duration_seconds",
			Help:    "Duration of authentication checks in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// AuthProviderErrorsTotal counts identity provider and profile lookup failures.
	AuthProviderErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_provider_errors_total",
			Help: "Total number of identity provider or profile lookup errors",
		},
	)

	// AuthSessionEventsTotal counts session transitions emitted by providers.
	AuthSessionEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_session_events_total",
			Help: "Total number of session transitions",
		},
		[]string{"provider", "event"},
	)
)

// RecordAuthCheck records one authentication check.
func RecordAuthCheck(res models.SecurityCheckResult, duration time.Duration) {
	decision := "allow"
	if !res.Allowed {
		decision = "deny"
	}
	AuthChecksTotal.WithLabelValues(decision, string(res.DeniedReason)).Inc()
	AuthCheckDuration.Observe(duration.Seconds())
}

// RecordProviderError records a provider or profile lookup failure.
func RecordProviderError() {
	AuthProviderErrorsTotal.Inc()
}

// RecordSessionEvent records a session transition.
func RecordSessionEvent(provider string, event AuthEvent) {
	AuthSessionEventsTotal.WithLabelValues(provider, string(event)).Inc()
}
