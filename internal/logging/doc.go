// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

// Package logging provides the process-wide zerolog logger for Gatehouse.
//
// All packages log through this package instead of holding their own
// loggers. The global logger is usable before Init is called so that
// configuration errors can still be reported.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("user_id", id).Msg("Session resolved")
//	logging.Ctx(ctx).Warn().Str("reason", "not_resource_owner").Msg("Access denied")
//
// Always terminate a chain with Msg or Send; an unterminated event is
// never written.
//
// # Context
//
// Request and correlation IDs stored with ContextWithRequestID and
// ContextWithCorrelationID are added automatically by Ctx.
//
// # Redaction
//
// Tokens, session IDs and email addresses must go through the Redact*
// helpers before they reach a log line.
package logging
