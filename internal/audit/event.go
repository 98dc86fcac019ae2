// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package audit

import (
	"net"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/gatehouse/internal/models"
)

// NewDecisionEvent builds an event from a check result. An empty actorID
// records an anonymous caller. Denials are warnings, grants are info.
func NewDecisionEvent(actorID, action, resourceType, resourceID string, result models.SecurityCheckResult) SecurityEvent {
	ev := SecurityEvent{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Decision:     DecisionAllow,
		Severity:     SeverityInfo,
	}
	if actorID != "" {
		id := actorID
		ev.ActorID = &id
	}
	if !result.Allowed {
		ev.Decision = DecisionDeny
		ev.Reason = result.DeniedReason
		ev.Layer = result.Layer
		ev.Severity = SeverityWarning
		if result.Details != "" {
			ev.Metadata = mustJSON(map[string]string{"details": result.Details})
		}
	}
	return ev
}

// WithMetadata returns a copy of ev with metadata replaced by v.
func (e SecurityEvent) WithMetadata(v interface{}) SecurityEvent {
	e.Metadata = mustJSON(v)
	return e
}

// SourceFromRequest creates a Source from an HTTP request. The first
// X-Forwarded-For hop wins over X-Real-IP and RemoteAddr.
func SourceFromRequest(r *http.Request) Source {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip = strings.TrimSpace(strings.Split(xff, ",")[0])
	} else if xri := r.Header.Get("X-Real-IP"); xri != "" {
		ip = strings.TrimSpace(xri)
	}

	return Source{
		IPAddress: ip,
		UserAgent: r.UserAgent(),
		Path:      r.URL.Path,
	}
}

// mustJSON converts a value to JSON, returning empty object on error.
func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}
