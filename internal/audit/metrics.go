// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuditEventsTotal counts events accepted into the buffer.
	AuditEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_events_total",
			Help: "Total number of audit events accepted",
		},
		[]string{"decision"},
	)

	// AuditEventsDroppedTotal counts events dropped before reaching a store.
	AuditEventsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_events_dropped_total",
			Help: "Total number of audit events dropped",
		},
		[]string{"reason"},
	)

	// AuditWriteErrorsTotal counts failed store writes.
	AuditWriteErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_write_errors_total",
			Help: "Total number of failed audit store writes",
		},
	)

	// AuditRetentionDeletedTotal counts events removed by retention cleanup.
	AuditRetentionDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_retention_deleted_total",
			Help: "Total number of audit events deleted by retention cleanup",
		},
	)
)

// RecordEvent records an accepted event.
func RecordEvent(decision Decision) {
	AuditEventsTotal.WithLabelValues(string(decision)).Inc()
}

// RecordDropped records a dropped event.
func RecordDropped(reason string) {
	AuditEventsDroppedTotal.WithLabelValues(reason).Inc()
}

// RecordWriteError records a failed store write.
func RecordWriteError() {
	AuditWriteErrorsTotal.Inc()
}
