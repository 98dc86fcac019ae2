// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")

	// ErrUnavailable is returned when the circuit breaker rejects a call.
	ErrUnavailable = errors.New("database unavailable")

	// ErrInvalidIdentifier is returned for table or column names that are
	// not plain lower-case identifiers.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrUnknownResourceType is returned for resource types missing from the
	// resource-config table.
	ErrUnknownResourceType = errors.New("unknown resource type")
)

// classifyError maps an error to a metrics label.
func classifyError(err error) string {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrUnavailable):
		return "breaker_open"
	case errors.As(err, &pgErr):
		return "pg_" + pgErr.Code
	default:
		return "connection"
	}
}

// isExpected reports errors that say nothing about database health.
func isExpected(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidIdentifier) ||
		errors.Is(err, context.Canceled)
}
