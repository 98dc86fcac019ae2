// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

/*
Package metrics holds the Prometheus metrics shared by the plumbing layers.

Decision metrics belong to the packages that make the decisions (auth,
authz, ownership, security, audit). This package covers the rest:

Database Metrics:
  - db_query_duration_seconds: query latency (histogram)
    Labels: operation, table
  - db_query_errors_total: failed queries (counter)
    Labels: operation, table, error_type

API Metrics:
  - api_requests_total: requests (counter)
    Labels: method, endpoint (chi route pattern), status_code
  - api_request_duration_seconds: latency (histogram)
  - api_active_requests: in-flight requests (gauge)
  - api_rate_limit_hits_total: rate limiter rejections (counter)

Auth State Stream Metrics:
  - websocket_connections_active, websocket_messages_sent_total,
    websocket_errors_total

Circuit Breaker Metrics:
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open (gauge)
  - circuit_breaker_requests_total: Labels name, result
  - circuit_breaker_consecutive_failures (gauge)
  - circuit_breaker_state_transitions_total: Labels name, from_state, to_state

All metrics are registered on the default registry through promauto and
exposed at /metrics.
*/
package metrics
