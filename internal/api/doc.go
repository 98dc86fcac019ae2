// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

/*
Package api exposes the access control pipeline over HTTP.

The access hooks give a client everything it needs to render
permission-aware UI without re-implementing the rules:

	GET  /api/v1/access/session    caller's auth state, role, permissions, plan
	POST /api/v1/access/check      decision for a preset or an ad hoc config
	POST /api/v1/access/ownership  batch ownership, one boolean per id
	POST /api/v1/access/team       team membership, optionally with a team role
	POST /api/v1/access/refresh    extend the session (501 for bearer tokens)
	POST /api/v1/access/signout    end the session and clear the cookie
	GET  /api/v1/access/stream     websocket pushing auth state changes

The audit log is readable by roles holding audit.view:

	GET  /api/v1/audit/events        filtered page of recorded decisions
	GET  /api/v1/audit/events/{id}   one event
	GET  /api/v1/audit/stats         totals by decision and reason
	GET  /api/v1/audit/export        download as JSON or CEF (?format=cef)

Reads go to the first configured store; when that is a write-only store
(NATS, channel) they answer 501.

In development with seeded demo data, POST /api/v1/dev/signin signs in as any
identity.

Sample guarded surfaces (/dashboard, /admin, /pages/{id}, ...) run the
security.Guard for a preset. Browser navigations that are denied get a 303
redirect with a flash message; API clients get a JSON 401 or 403.

Every JSON response uses the models.APIResponse envelope:

	{"status": "success", "data": {...}, "metadata": {"timestamp": "...", "request_id": "..."}}

Middleware, outermost first: request ID, real IP, access log, panic
recovery, Prometheus metrics, CORS, credential extraction. Access hook and
guarded routes add per-IP rate limiting and security headers.

The server itself runs as a suture service; see the supervisor package.
*/
package api
