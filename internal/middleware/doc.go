// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

/*
Package middleware provides chi-compatible HTTP infrastructure middleware.

Key Components:

  - RequestID: request and correlation IDs for log tracing
  - PrometheusMetrics: request count, latency and in-flight gauges
  - AccessLog: one structured zerolog line per request

Access control middleware lives in the security package; CORS, rate limiting
and security headers live with the router in the api package.

Usage:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(middleware.PrometheusMetrics)

RequestID must run first so later middleware sees the IDs through
logging.Ctx. PrometheusMetrics and AccessLog read the route pattern after the
handler returns, so they label requests by pattern ("/pages/{id}") rather
than by raw path.
*/
package middleware
