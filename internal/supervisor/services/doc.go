// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

// Package services adapts components without a context-aware Serve method
// to suture.Service.
//
// HTTPServerService wraps *http.Server's ListenAndServe and Shutdown.
// CloserService keeps io.Closer resources open until the tree stops, then
// closes them in order.
//
// The websocket hub, audit retention and session cleanup already implement
// Serve(ctx) error and are added to the tree directly.
package services
