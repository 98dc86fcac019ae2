// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

/*
Command server runs the Gatehouse access-control service.

Startup order:

 1. Configuration: defaults, optional config.yaml, environment (koanf v2)
 2. Logging: zerolog, JSON or console
 3. Platform database: in-memory (optionally seeded) or Postgres behind a
    circuit breaker
 4. Identity provider: platform-issued JWTs or server-side sessions
    (memory or BadgerDB)
 5. Audit sink: memory, Postgres, DuckDB, NATS or in-process channel stores
 6. Layers: authenticator, casbin-backed authorizer, ownership checker,
    composing pipeline and route guard
 7. HTTP router and auth state stream hub
 8. Supervisor tree (suture v4) until SIGINT or SIGTERM

# Configuration

Common environment variables:

	HTTP_PORT=8080
	ENVIRONMENT=production
	DATABASE_DRIVER=postgres
	DATABASE_URL=postgres://gatehouse@db/platform
	AUTH_PROVIDER=jwt
	JWT_SECRET=$(openssl rand -base64 48)
	AUDIT_STORES=postgres,nats
	AUDIT_NATS_URL=nats://nats:4222
	CORS_ORIGINS=https://app.example.com

Development with the seeded demo tenant and dev sign-in:

	DATABASE_DRIVER=memory SEED_DEMO_DATA=true JWT_SECRET=dev-secret-at-least-32-characters ./server

	curl -s -X POST localhost:8080/api/v1/dev/signin -d '{"user_id":"demo-owner","email_verified":true}'

# Shutdown

On SIGINT or SIGTERM the HTTP server drains, stream clients receive a close
frame, and the audit logger flushes its buffer before the stores and the
platform pool close.
*/
package main
