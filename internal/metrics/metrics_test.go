// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDBQuery(t *testing.T) {
	tests := []struct {
		name      string
		table     string
		err       error
		classify  ErrorClassifier
		wantLabel string
	}{
		{name: "success", table: "profiles_ok"},
		{name: "unclassified error", table: "profiles_err", err: errors.New("boom"), wantLabel: "error"},
		{
			name:      "classified error",
			table:     "profiles_cls",
			err:       errors.New("connection refused"),
			classify:  func(error) string { return "connection" },
			wantLabel: "connection",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordDBQuery("select", tt.table, 3*time.Millisecond, tt.err, tt.classify)

			if tt.err == nil {
				return
			}
			got := testutil.ToFloat64(DBQueryErrors.WithLabelValues("select", tt.table, tt.wantLabel))
			if got != 1 {
				t.Errorf("error counter = %v, want 1", got)
			}
		})
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/pages/{id}", "303"))
	RecordAPIRequest("GET", "/pages/{id}", "303", 12*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/pages/{id}", "303"))
	if after-before != 1 {
		t.Errorf("request counter delta = %v, want 1", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("active = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active = %v, want %v", got, before)
	}
}

func TestTrackStreamConnection(t *testing.T) {
	before := testutil.ToFloat64(WSConnections)
	TrackStreamConnection(true)
	TrackStreamConnection(true)
	TrackStreamConnection(false)
	if got := testutil.ToFloat64(WSConnections); got != before+1 {
		t.Errorf("connections = %v, want %v", got, before+1)
	}
}

func TestBreakerMetrics(t *testing.T) {
	const name = "test-breaker"

	RecordBreakerResult(name, "failure", 3)
	if got := testutil.ToFloat64(CircuitBreakerConsecutiveFailures.WithLabelValues(name)); got != 3 {
		t.Errorf("consecutive failures = %v, want 3", got)
	}

	RecordBreakerTransition(name, "closed", "open", BreakerOpen)
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues(name)); got != BreakerOpen {
		t.Errorf("state = %v, want open", got)
	}

	RecordBreakerTransition(name, "half-open", "closed", BreakerClosed)
	if got := testutil.ToFloat64(CircuitBreakerConsecutiveFailures.WithLabelValues(name)); got != 0 {
		t.Errorf("consecutive failures after close = %v, want 0", got)
	}
	if got := testutil.ToFloat64(CircuitBreakerTransitions.WithLabelValues(name, "closed", "open")); got != 1 {
		t.Errorf("transitions = %v, want 1", got)
	}
}

func TestRecordRateLimitHit(t *testing.T) {
	RecordRateLimitHit("/api/v1/access/check")
	if got := testutil.ToFloat64(APIRateLimitHits.WithLabelValues("/api/v1/access/check")); got < 1 {
		t.Errorf("rate limit hits = %v", got)
	}
}
