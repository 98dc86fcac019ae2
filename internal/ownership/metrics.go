// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package ownership

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tomtom215/gatehouse/internal/models"
)

var (
	// OwnershipChecksTotal counts ownership decisions. via is owner, team or none.
	OwnershipChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ownership_checks_total",
			Help: "Total number of ownership checks",
		},
		[]string{"resource_type", "decision", "via"},
	)

	// OwnershipCheckDuration tracks single-resource check latency.
	OwnershipCheckDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ownership_check_duration_seconds",
			Help:    "Duration of ownership checks in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"resource_type"},
	)

	// OwnershipLookupErrorsTotal counts store failures by store.
	OwnershipLookupErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ownership_lookup_errors_total",
			Help: "Total number of ownership store lookup errors",
		},
		[]string{"store"},
	)
)

// RecordOwnershipCheck records one decision. A zero duration is not observed.
func RecordOwnershipCheck(resourceType models.ResourceType, res models.SecurityCheckResult, via string, duration time.Duration) {
	decision := "deny"
	if res.Allowed {
		decision = "allow"
	}
	OwnershipChecksTotal.WithLabelValues(string(resourceType), decision, via).Inc()
	if duration > 0 {
		OwnershipCheckDuration.WithLabelValues(string(resourceType)).Observe(duration.Seconds())
	}
}

// RecordLookupError records a store failure.
func RecordLookupError(store string) {
	OwnershipLookupErrorsTotal.WithLabelValues(store).Inc()
}
