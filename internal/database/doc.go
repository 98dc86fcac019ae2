// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

/*
Package database provides the platform data store the access-control layers
read from.

Two implementations satisfy the same lookup interfaces:

  - Postgres: a pgx/v5 connection pool. Every read goes through a gobreaker
    circuit breaker so a failing database trips quickly and the layers fail
    closed instead of queueing on a dead pool.
  - Memory: an in-process store for development mode and tests.

# Lookups

	GetProfile(ctx, userID)              -> profiles row, (nil, nil) when absent
	GetMemberships(ctx, userID)          -> team_members rows
	GetResourceOwner(ctx, type, id)      -> owner columns via the resource-config table, (nil, nil) when absent

Resource lookups never embed caller-supplied table or column names. The
resource type selects a row of the static resource-config table, and
SelectOne additionally validates and quotes every identifier.

# Errors

ErrNotFound is returned by SelectOne when no row matches. The typed lookups
translate it into a nil result so the layers can tell "absent" from "failed".
ErrUnavailable wraps calls rejected by an open circuit breaker.
*/
package database
