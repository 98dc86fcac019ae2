// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

// Package audit records security decisions for compliance and forensic
// analysis.
//
// Only denials and explicitly sensitive grants are recorded. Recording every
// successful check would be excessive volume.
//
// # Architecture
//
// Writes are fire-and-forget:
//
//	Logger.LogSecurityEvent() -> rate limiter -> buffer (chan) -> writer -> Store
//	                                  |               |
//	                              drop + count    drop + count when full
//
// LogSecurityEvent never blocks and never returns an error. Store failures
// are written to the process log and counted; they never reach the caller or
// change an authorization decision.
//
// # Stores
//
//   - MemoryStore: bounded in-process store for development and tests
//   - PostgresStore: append-only inserts into audit_logs through pgx
//   - DuckDBStore: embedded local archive with query support
//   - PublisherStore: publishes events through a Watermill publisher (NATS or
//     an in-process GoChannel)
//   - MultiStore: fans writes out to several stores, reads from the first
//
// # Retention
//
// RetentionService deletes events older than the configured retention period.
// It implements suture.Service and runs under the process supervisor.
//
// # Export
//
// JSONExporter and CEFExporter render events for SIEM ingestion.
package audit
