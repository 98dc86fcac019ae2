// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

/*
Package websocket streams auth state to browser sessions.

A client connects to GET /api/v1/access/stream and receives an auth_state
message with its current state, then one more message each time that state
changes: sign-in, sign-out, token refresh or profile update.

	┌──────────────────┐  OnAuthStateChange  ┌─────────┐
	│ IdentityProvider │ ───────────────────▶ │   Hub   │
	└──────────────────┘                      └────┬────┘
	                                  trigger      │
	                    ┌──────────────┬───────────┴──┐
	                    ▼              ▼              ▼
	                 Client 1       Client 2       Client 3
	                 Snapshot()     Snapshot()     Snapshot()

Each client evaluates its own Snapshot with the credentials captured at
upgrade time and writes only when the result differs from what it last
sent. Each client runs three goroutines:

  - readPump: reads client pings, detects disconnects
  - writePump: the only connection writer, sends keepalive pings
  - refreshPump: re-evaluates the snapshot on hub triggers

The Hub implements suture.Service and closes every client on shutdown.

Message format:

	{"type": "auth_state", "data": {"is_authenticated": true, "role": "user", ...}}
	{"type": "pong", "data": null}
*/
package websocket
