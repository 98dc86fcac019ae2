// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

// Package testinfra provides container helpers for integration tests.
//
// The PostgresContainer runs a real Postgres with the platform tables the
// access-control layers read (profiles, team_members, the resource tables)
// so the pgx adapters and the audit_logs store are exercised against the
// real wire protocol:
//
//	func TestOwnershipAgainstPostgres(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    pg, err := testinfra.NewPostgresContainer(ctx, testinfra.WithSchema())
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pg)
//	    // connect with pg.DSN
//	}
//
// Everything here is behind the integration build tag and requires Docker.
// Tests are skipped when Docker is unavailable.
package testinfra
