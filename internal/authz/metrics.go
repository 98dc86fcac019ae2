// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package authz

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthzDecisionsTotal counts authorization decisions by role and outcome.
	AuthzDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"role", "decision", "reason"},
	)

	// AuthzDecisionDuration tracks decision latency including the role lookup.
	AuthzDecisionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "authz_decision_duration_seconds",
			Help:    "Duration of authorization decisions in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"role"},
	)

	// AuthzRoleLookupsTotal counts role lookups by result
	// (found, default_user, not_found, error, anonymous, cached).
	AuthzRoleLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_role_lookups_total",
			Help: "Total number of role lookups by result",
		},
		[]string{"result"},
	)

	// AuthzCacheLookupsTotal counts cache lookups by cache and outcome.
	AuthzCacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_cache_lookups_total",
			Help: "Total number of authorization cache lookups",
		},
		[]string{"cache", "result"},
	)

	// AuthzCacheSize tracks the current number of entries per cache.
	AuthzCacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "authz_cache_entries",
			Help: "Current number of entries in the authorization caches",
		},
		[]string{"cache"},
	)

	// AuthzPolicyEvaluationsTotal counts uncached Casbin evaluations.
	AuthzPolicyEvaluationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_policy_evaluations_total",
			Help: "Total number of Casbin policy evaluations",
		},
	)
)

// RecordAuthzDecision records a decision outcome and its latency.
func RecordAuthzDecision(role string, allowed bool, reason string, duration time.Duration) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	AuthzDecisionsTotal.WithLabelValues(role, decision, reason).Inc()
	AuthzDecisionDuration.WithLabelValues(role).Observe(duration.Seconds())
}

// RecordRoleLookup records a role lookup result.
func RecordRoleLookup(result string) {
	AuthzRoleLookupsTotal.WithLabelValues(result).Inc()
}

func recordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	AuthzCacheLookupsTotal.WithLabelValues(cache, result).Inc()
}

func setCacheSize(cache string, n int) {
	AuthzCacheSize.WithLabelValues(cache).Set(float64(n))
}

func recordPolicyEvaluation() {
	AuthzPolicyEvaluationsTotal.Inc()
}
