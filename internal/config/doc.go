// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

/*
Package config loads and validates Gatehouse configuration.

Configuration is layered with Koanf v2:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: CONFIG_PATH, then config.yaml, config.yml,
    /etc/gatehouse/config.yaml, /etc/gatehouse/config.yml
 3. Environment variables

Later layers override earlier ones. Environment variables use flat legacy
names (HTTP_PORT, JWT_SECRET, AUDIT_STORES) that are mapped to nested koanf
paths; unmapped variables are ignored. AUDIT_STORES and CORS_ORIGINS accept
comma-separated lists.

# Sections

  - server: listen address, timeouts, environment
  - database: platform store driver (memory or postgres), pool, breaker
  - auth: identity provider (jwt or session), session store, cookie
  - authz: role and decision cache
  - checks: composer timeout, batch concurrency, guard redirects
  - audit: sink stores (memory, postgres, duckdb, nats, channel), buffer, rate
  - logging: zerolog level and format
  - security: CORS and HTTP rate limiting

# Example

	cfg, err := config.Load()
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

Validate rejects insecure production setups: the memory database or session
store, wildcard CORS, and JWT secrets that are short or look like
placeholders.
*/
package config
