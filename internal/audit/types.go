// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package audit

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/gatehouse/internal/models"
)

var (
	// ErrEventNotFound is returned by Get when no event has the given id.
	ErrEventNotFound = errors.New("audit event not found")

	// ErrNotSupported is returned by write-only stores for read operations.
	ErrNotSupported = errors.New("operation not supported by audit store")
)

// Decision is the outcome recorded for a security event.
type Decision string

const (
	DecisionAllow Decision = "allow"
	DecisionDeny  Decision = "deny"
)

// Actions recorded by the access-control pipeline.
const (
	ActionAccessCheck    = "access.check"
	ActionOwnershipCheck = "access.ownership"
	ActionTeamCheck      = "access.team"
	ActionSignIn         = "auth.sign_in"
	ActionSignOut        = "auth.sign_out"
)

// Severity indicates the severity level of an audit event.
type Severity string

const (
	SeverityDebug    Severity = "debug"
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

var severityOrder = map[Severity]int{
	SeverityDebug:    0,
	SeverityInfo:     1,
	SeverityWarning:  2,
	SeverityError:    3,
	SeverityCritical: 4,
}

// SecurityEvent is one recorded access decision.
type SecurityEvent struct {
	// ID is assigned by the Logger when empty.
	ID string `json:"id"`

	// Timestamp is assigned by the Logger when zero.
	Timestamp time.Time `json:"timestamp"`

	// ActorID is nil for anonymous callers.
	ActorID *string `json:"actor_id"`

	Action       string `json:"action"`
	ResourceType string `json:"resource_type,omitempty"`
	ResourceID   string `json:"resource_id,omitempty"`

	Decision Decision            `json:"decision"`
	Reason   models.DeniedReason `json:"reason,omitempty"`
	Layer    models.Layer        `json:"layer,omitempty"`
	Severity Severity            `json:"severity"`

	Source   Source          `json:"source"`
	Metadata json.RawMessage `json:"metadata,omitempty"`

	RequestID     string `json:"request_id,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Actor returns the actor id or "anonymous".
func (e *SecurityEvent) Actor() string {
	if e.ActorID == nil || *e.ActorID == "" {
		return "anonymous"
	}
	return *e.ActorID
}

// Source represents where a request originated.
type Source struct {
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Path      string `json:"path,omitempty"`
}

// Store defines the interface for audit event persistence.
type Store interface {
	// Save persists an audit event.
	Save(ctx context.Context, event *SecurityEvent) error

	// Get retrieves an event by ID.
	Get(ctx context.Context, id string) (*SecurityEvent, error)

	// Query retrieves events matching the filter.
	Query(ctx context.Context, filter QueryFilter) ([]SecurityEvent, error)

	// Count returns the number of events matching the filter.
	Count(ctx context.Context, filter QueryFilter) (int64, error)

	// Delete removes events older than the given time.
	Delete(ctx context.Context, olderThan time.Time) (int64, error)
}

// StatsStore is implemented by stores that can summarize their contents.
type StatsStore interface {
	GetStats(ctx context.Context) (*Stats, error)
}

// QueryFilter defines filtering options for audit queries.
type QueryFilter struct {
	Actions    []string              `json:"actions,omitempty"`
	Decisions  []Decision            `json:"decisions,omitempty"`
	Reasons    []models.DeniedReason `json:"reasons,omitempty"`
	Severities []Severity            `json:"severities,omitempty"`

	ActorID      string `json:"actor_id,omitempty"`
	ResourceType string `json:"resource_type,omitempty"`
	ResourceID   string `json:"resource_id,omitempty"`
	SourceIP     string `json:"source_ip,omitempty"`

	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	RequestID     string `json:"request_id,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`

	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
	OrderBy   string `json:"order_by,omitempty"`
	OrderDesc bool   `json:"order_desc,omitempty"`
}

// DefaultQueryFilter returns a sensible default filter.
func DefaultQueryFilter() QueryFilter {
	return QueryFilter{
		Limit:     100,
		OrderBy:   "timestamp",
		OrderDesc: true,
	}
}

// Stats summarizes a store's contents.
type Stats struct {
	TotalEvents      int64            `json:"total_events"`
	EventsByDecision map[string]int64 `json:"events_by_decision"`
	EventsByReason   map[string]int64 `json:"events_by_reason"`
	OldestEvent      *time.Time       `json:"oldest_event,omitempty"`
	NewestEvent      *time.Time       `json:"newest_event,omitempty"`
}
