// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

// Package security composes the access-control layers into one decision.
//
// Layers run in a fixed order and the first denial wins:
//
//	Authentication -> Authorization -> Ownership
//
// Authorization needs the user id resolved by authentication, and ownership
// needs both the user id and the route's resource id, so a later layer is
// never consulted when an earlier one denies.
//
// # Config
//
// A Config is an immutable description of one protected surface. It is built
// from functional options (NewConfig), decoded from a map with unknown keys
// rejected (DecodeConfig), or taken from the named presets (Preset). Every
// constructor validates the result.
//
// # Pipeline
//
// Pipeline runs a Config against the layers:
//
//   - RunSecurityChecks: authentication then authorization
//   - RunOwnershipCheck: ownership alone, for a second pass once a resource id is known
//   - RunFullSecurityCheck: all three in order
//
// Each run is bounded by the configured timeout. A run that times out, or a
// layer that panics, is denied rather than allowed.
//
// # Guard
//
// Guard is the HTTP route guard. It walks pending, checking, then
// authorized or denied for each request. Browser requests that are denied are
// redirected with a flash message; API requests get a JSON error. A request
// whose client has gone away gets neither.
package security
