// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package audit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const postgresTable = "audit_logs"

// PgxQuerier is the subset of *pgxpool.Pool used by PostgresStore.
type PgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore appends events to the platform's audit_logs table.
// Rows are never updated; only retention cleanup deletes them.
type PostgresStore struct {
	db PgxQuerier
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(db PgxQuerier) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateTable creates audit_logs if it does not exist.
func (s *PostgresStore) CreateTable(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id TEXT PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL,
			actor_id TEXT,
			action TEXT NOT NULL,
			resource_type TEXT,
			resource_id TEXT,
			decision TEXT NOT NULL,
			reason TEXT,
			layer TEXT,
			severity TEXT NOT NULL,
			source_ip TEXT,
			source_user_agent TEXT,
			source_path TEXT,
			metadata JSONB,
			correlation_id TEXT,
			request_id TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_timestamp ON audit_logs(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_actor_id ON audit_logs(actor_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute audit_logs schema statement: %w", err)
		}
	}
	return nil
}

// Save inserts the event.
func (s *PostgresStore) Save(ctx context.Context, event *SecurityEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO audit_logs (
			id, timestamp, actor_id, action, resource_type, resource_id,
			decision, reason, layer, severity,
			source_ip, source_user_agent, source_path,
			metadata, correlation_id, request_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		event.ID,
		event.Timestamp,
		event.ActorID,
		event.Action,
		nullIfEmpty(event.ResourceType),
		nullIfEmpty(event.ResourceID),
		string(event.Decision),
		nullIfEmpty(string(event.Reason)),
		nullIfEmpty(string(event.Layer)),
		string(event.Severity),
		nullIfEmpty(event.Source.IPAddress),
		nullIfEmpty(event.Source.UserAgent),
		nullIfEmpty(event.Source.Path),
		extractMetadata(event.Metadata),
		nullIfEmpty(event.CorrelationID),
		nullIfEmpty(event.RequestID),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

// Get retrieves an event by ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (*SecurityEvent, error) {
	row := s.db.QueryRow(ctx, selectFrom(postgresTable)+" WHERE id = $1", id)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrEventNotFound, id)
		}
		return nil, fmt.Errorf("failed to get audit event: %w", err)
	}
	return event, nil
}

// Query retrieves events matching the filter.
func (s *PostgresStore) Query(ctx context.Context, filter QueryFilter) ([]SecurityEvent, error) {
	query, args := buildQuery(postgresTable, filter, false)

	rows, err := s.db.Query(ctx, rebindDollar(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []SecurityEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit events: %w", err)
	}
	return events, nil
}

// Count returns the number of events matching the filter.
func (s *PostgresStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	query, args := buildQuery(postgresTable, filter, true)

	var count int64
	if err := s.db.QueryRow(ctx, rebindDollar(query), args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count audit events: %w", err)
	}
	return count, nil
}

// Delete removes events older than the given time.
func (s *PostgresStore) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM audit_logs WHERE timestamp < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old audit events: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetStats returns statistics about audit_logs.
func (s *PostgresStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	var oldest, newest *time.Time
	err := s.db.QueryRow(ctx, `SELECT COUNT(*), MIN(timestamp), MAX(timestamp) FROM audit_logs`).
		Scan(&stats.TotalEvents, &oldest, &newest)
	if err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}
	stats.OldestEvent = oldest
	stats.NewestEvent = newest

	if stats.EventsByDecision, err = s.countByColumn(ctx, "decision"); err != nil {
		return nil, err
	}
	if stats.EventsByReason, err = s.countByColumn(ctx, "reason"); err != nil {
		return nil, err
	}
	return stats, nil
}

// countByColumn groups audit_logs by one of the fixed enum columns.
func (s *PostgresStore) countByColumn(ctx context.Context, column string) (map[string]int64, error) {
	query := fmt.Sprintf("SELECT COALESCE(%s, ''), COUNT(*) FROM audit_logs GROUP BY 1", column)
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s counts: %w", column, err)
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("failed to scan %s counts: %w", column, err)
		}
		if key != "" {
			result[key] = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s counts: %w", column, err)
	}
	return result, nil
}

// rebindDollar rewrites "?" placeholders as $1..$n. The generated queries
// never contain a literal question mark.
func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
