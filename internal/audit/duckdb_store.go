// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/goccy/go-json"

	"github.com/tomtom215/gatehouse/internal/logging"
	"github.com/tomtom215/gatehouse/internal/models"
)

// DuckDBStore implements Store on an embedded DuckDB database. It is the
// local archive used when no Postgres audit table is reachable.
type DuckDBStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewDuckDBStore creates a new DuckDB-backed audit store.
// Call CreateTable before first use.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// OpenDuckDBStore opens (or creates) a DuckDB file and its schema. An empty
// path opens an in-memory database.
func OpenDuckDBStore(ctx context.Context, path string) (*DuckDBStore, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb %q: %w", path, err)
	}
	store := NewDuckDBStore(db)
	if err := store.CreateTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *DuckDBStore) Close() error {
	return s.db.Close()
}

// countByColumn executes a GROUP BY query and returns counts per value.
func (s *DuckDBStore) countByColumn(ctx context.Context, column string) (map[string]int64, error) {
	result := make(map[string]int64)
	query := fmt.Sprintf("SELECT COALESCE(%s, ''), COUNT(*) FROM audit_events GROUP BY %s", column, column)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s counts: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err == nil && key != "" {
			result[key] = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s counts: %w", column, err)
	}
	return result, nil
}

// buildSliceCondition creates a SQL IN condition for a slice of string values.
func buildSliceCondition[T ~string](column string, values []T, args *[]interface{}) string {
	if len(values) == 0 {
		return ""
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		*args = append(*args, string(v))
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ","))
}

// CreateTable creates the audit_events table if it doesn't exist.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS audit_events (
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
			metadata JSON,
			correlation_id TEXT,
			request_id TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_events(timestamp);
		CREATE INDEX IF NOT EXISTS idx_audit_actor_id ON audit_events(actor_id);
		CREATE INDEX IF NOT EXISTS idx_audit_decision ON audit_events(decision);
		CREATE INDEX IF NOT EXISTS idx_audit_resource ON audit_events(resource_type, resource_id);
		CREATE INDEX IF NOT EXISTS idx_audit_request_id ON audit_events(request_id)
	`

	for _, stmt := range strings.Split(query, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	logging.Debug().Msg("Audit events table created/verified")
	return nil
}

// Save persists an audit event to DuckDB.
func (s *DuckDBStore) Save(ctx context.Context, event *SecurityEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (
			id, timestamp, actor_id, action, resource_type, resource_id,
			decision, reason, layer, severity,
			source_ip, source_user_agent, source_path,
			metadata, correlation_id, request_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save audit event: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// extractMetadata converts metadata to string for the JSON column.
func extractMetadata(metadata json.RawMessage) *string {
	if len(metadata) == 0 {
		return nil
	}
	s := string(metadata)
	return &s
}

// Get retrieves an event by ID.
func (s *DuckDBStore) Get(ctx context.Context, id string) (*SecurityEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectFrom(duckdbTable)+" WHERE id = ?", id)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrEventNotFound, id)
		}
		return nil, fmt.Errorf("failed to get audit event: %w", err)
	}
	return event, nil
}

// Query retrieves events matching the filter.
func (s *DuckDBStore) Query(ctx context.Context, filter QueryFilter) ([]SecurityEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query, args := buildQuery(duckdbTable, filter, false)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []SecurityEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			logging.Warn().Err(err).Msg("Failed to scan audit event row")
			continue
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit events: %w", err)
	}
	return events, nil
}

// Count returns the number of events matching the filter.
func (s *DuckDBStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query, args := buildQuery(duckdbTable, filter, true)

	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count audit events: %w", err)
	}
	return count, nil
}

// Delete removes events older than the given time.
func (s *DuckDBStore) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `DELETE FROM audit_events WHERE timestamp < ?`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old audit events: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted count: %w", err)
	}
	return count, nil
}

// GetStats returns statistics about the audit store.
func (s *DuckDBStore) GetStats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_events").Scan(&stats.TotalEvents); err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	var err error
	if stats.EventsByDecision, err = s.countByColumn(ctx, "decision"); err != nil {
		return nil, err
	}
	if stats.EventsByReason, err = s.countByColumn(ctx, "reason"); err != nil {
		return nil, err
	}

	var oldest, newest sql.NullTime
	if err := s.db.QueryRowContext(ctx, "SELECT MIN(timestamp), MAX(timestamp) FROM audit_events").Scan(&oldest, &newest); err == nil {
		if oldest.Valid {
			stats.OldestEvent = &oldest.Time
		}
		if newest.Valid {
			stats.NewestEvent = &newest.Time
		}
	}

	return stats, nil
}

const duckdbTable = "audit_events"

// selectFrom returns the column list shared by the SQL stores.
func selectFrom(table string) string {
	return `
	SELECT
		id, timestamp, actor_id, action, resource_type, resource_id,
		decision, reason, layer, severity,
		source_ip, source_user_agent, source_path,
		CAST(metadata AS VARCHAR) AS metadata,
		correlation_id, request_id
	FROM ` + table
}

// buildQuery constructs the SQL query based on the filter. Placeholders are
// "?"; see rebindDollar for Postgres.
func buildQuery(table string, filter QueryFilter, countOnly bool) (string, []interface{}) {
	conditions, args := buildFilterConditions(filter)

	query := selectFrom(table)
	if countOnly {
		query = "SELECT COUNT(*) FROM " + table
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	if !countOnly {
		query = appendOrderAndLimit(query, filter)
	}
	return query, args
}

// buildFilterConditions builds WHERE clause conditions from a QueryFilter.
func buildFilterConditions(filter QueryFilter) ([]string, []interface{}) {
	var args []interface{}
	var conditions []string

	for _, cond := range []string{
		buildSliceCondition("action", filter.Actions, &args),
		buildSliceCondition("decision", filter.Decisions, &args),
		buildSliceCondition("reason", filter.Reasons, &args),
		buildSliceCondition("severity", filter.Severities, &args),
	} {
		if cond != "" {
			conditions = append(conditions, cond)
		}
	}

	conditions, args = appendStringCondition(conditions, args, "actor_id", filter.ActorID)
	conditions, args = appendStringCondition(conditions, args, "resource_type", filter.ResourceType)
	conditions, args = appendStringCondition(conditions, args, "resource_id", filter.ResourceID)
	conditions, args = appendStringCondition(conditions, args, "source_ip", filter.SourceIP)
	conditions, args = appendStringCondition(conditions, args, "correlation_id", filter.CorrelationID)
	conditions, args = appendStringCondition(conditions, args, "request_id", filter.RequestID)

	if filter.StartTime != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, *filter.StartTime)
	}
	if filter.EndTime != nil {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, *filter.EndTime)
	}

	return conditions, args
}

// appendStringCondition adds a string equality condition if value is non-empty.
func appendStringCondition(conditions []string, args []interface{}, column, value string) ([]string, []interface{}) {
	if value != "" {
		conditions = append(conditions, column+" = ?")
		args = append(args, value)
	}
	return conditions, args
}

// appendOrderAndLimit adds ORDER BY, LIMIT, and OFFSET clauses.
func appendOrderAndLimit(query string, filter QueryFilter) string {
	orderBy := "timestamp"
	validFields := map[string]bool{
		"timestamp": true, "decision": true, "reason": true,
		"actor_id": true, "action": true, "created_at": true,
	}
	if filter.OrderBy != "" && validFields[filter.OrderBy] {
		orderBy = filter.OrderBy
	}

	if filter.OrderDesc {
		query += fmt.Sprintf(" ORDER BY %s DESC", orderBy)
	} else {
		query += fmt.Sprintf(" ORDER BY %s ASC", orderBy)
	}

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}
	return query
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanEvent scans a single row into a SecurityEvent.
func scanEvent(row rowScanner) (*SecurityEvent, error) {
	var (
		event                                 SecurityEvent
		actorID, resourceType, resourceID     sql.NullString
		decision, severity                    string
		reason, layer                         sql.NullString
		sourceIP, sourceUserAgent, sourcePath sql.NullString
		metadata, correlationID, requestID    sql.NullString
	)

	err := row.Scan(
		&event.ID, &event.Timestamp, &actorID, &event.Action, &resourceType, &resourceID,
		&decision, &reason, &layer, &severity,
		&sourceIP, &sourceUserAgent, &sourcePath,
		&metadata, &correlationID, &requestID,
	)
	if err != nil {
		return nil, err
	}

	if actorID.Valid {
		id := actorID.String
		event.ActorID = &id
	}
	event.ResourceType = resourceType.String
	event.ResourceID = resourceID.String
	event.Decision = Decision(decision)
	event.Reason = models.DeniedReason(reason.String)
	event.Layer = models.Layer(layer.String)
	event.Severity = Severity(severity)
	event.Source = Source{IPAddress: sourceIP.String, UserAgent: sourceUserAgent.String, Path: sourcePath.String}
	if metadata.Valid && metadata.String != "" {
		event.Metadata = json.RawMessage(metadata.String)
	}
	event.CorrelationID = correlationID.String
	event.RequestID = requestID.String

	return &event, nil
}
