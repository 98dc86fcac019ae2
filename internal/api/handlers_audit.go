// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/gatehouse/internal/audit"
	"github.com/tomtom215/gatehouse/internal/logging"
	"github.com/tomtom215/gatehouse/internal/models"
)

const (
	maxAuditPageSize   = 1000
	defaultExportLimit = 1000
	maxExportLimit     = 10000
)

// AuditReader is the read side of the audit log. *audit.Logger implements it.
type AuditReader interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.SecurityEvent, error)
	Count(ctx context.Context, filter audit.QueryFilter) (int64, error)
	Get(ctx context.Context, id string) (*audit.SecurityEvent, error)
	Stats(ctx context.Context) (*audit.Stats, error)
}

// AuditEventsResponse is a page of audit events.
type AuditEventsResponse struct {
	Events []audit.SecurityEvent `json:"events"`
	Total  int64                 `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

// HasAuditReader reports whether the audit routes should be mounted.
func (h *Handler) HasAuditReader() bool {
	return h.auditReader != nil
}

// AuditEvents returns recorded decisions, most recent first.
//
// GET /api/v1/audit/events?decision=deny&reason=not_resource_owner&limit=50
func (h *Handler) AuditEvents(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	filter, err := parseAuditFilter(r.URL.Query(), audit.DefaultQueryFilter().Limit, maxAuditPageSize)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	events, err := h.auditReader.Query(r.Context(), filter)
	if err != nil {
		respondAuditError(w, r, err, "Failed to fetch audit events")
		return
	}
	if events == nil {
		events = []audit.SecurityEvent{}
	}

	total, err := h.auditReader.Count(r.Context(), filter)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to get audit event count")
		total = int64(len(events))
	}

	respondSuccess(w, r, AuditEventsResponse{
		Events: events,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, start)
}

// AuditEvent returns one event.
//
// GET /api/v1/audit/events/{id}
func (h *Handler) AuditEvent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	event, err := h.auditReader.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondAuditError(w, r, err, "Failed to fetch audit event")
		return
	}
	respondSuccess(w, r, event, start)
}

// AuditStats summarizes the audit log.
//
// GET /api/v1/audit/stats
func (h *Handler) AuditStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	stats, err := h.auditReader.Stats(r.Context())
	if err != nil {
		respondAuditError(w, r, err, "Failed to get audit statistics")
		return
	}
	respondSuccess(w, r, stats, start)
}

// AuditExport downloads matching events as JSON or CEF. It takes the same
// filters as AuditEvents.
//
// GET /api/v1/audit/export?format=cef&decision=deny
func (h *Handler) AuditExport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var (
		exporter audit.Exporter
		ext      string
	)
	switch format := query.Get("format"); format {
	case "", "json":
		exporter, ext = &audit.JSONExporter{}, "json"
	case "cef":
		exporter, ext = audit.NewCEFExporter(), "cef"
	default:
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR",
			"format must be json or cef, got "+sanitizeLogValue(format), nil)
		return
	}

	filter, err := parseAuditFilter(query, defaultExportLimit, maxExportLimit)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	events, err := h.auditReader.Query(r.Context(), filter)
	if err != nil {
		respondAuditError(w, r, err, "Failed to fetch audit events")
		return
	}

	data, err := exporter.Export(events)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to export audit events", err)
		return
	}

	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="audit_events_%s.%s"`,
		time.Now().UTC().Format("20060102_150405"), ext))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Audit export write failed")
	}
}

func respondAuditError(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case errors.Is(err, audit.ErrEventNotFound):
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "Audit event not found", nil)
	case errors.Is(err, audit.ErrNotSupported):
		respondError(w, r, http.StatusNotImplemented, "NOT_SUPPORTED",
			"The configured audit store does not support reads", nil)
	default:
		respondError(w, r, http.StatusInternalServerError, "AUDIT_ERROR", message, err)
	}
}

// parseAuditFilter reads list filters from the query string. Malformed
// values are rejected rather than ignored.
//
//nolint:gocyclo // one branch per supported filter
func parseAuditFilter(q url.Values, defaultLimit, maxLimit int) (audit.QueryFilter, error) {
	filter := audit.DefaultQueryFilter()
	filter.Limit = defaultLimit

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxLimit {
			return filter, fmt.Errorf("limit must be between 1 and %d", maxLimit)
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, errors.New("offset must be a non-negative integer")
		}
		filter.Offset = n
	}

	for _, d := range q["decision"] {
		switch audit.Decision(d) {
		case audit.DecisionAllow, audit.DecisionDeny:
			filter.Decisions = append(filter.Decisions, audit.Decision(d))
		default:
			return filter, errors.New("decision must be allow or deny")
		}
	}
	for _, reason := range q["reason"] {
		filter.Reasons = append(filter.Reasons, models.DeniedReason(reason))
	}
	for _, s := range q["severity"] {
		filter.Severities = append(filter.Severities, audit.Severity(s))
	}
	filter.Actions = append(filter.Actions, q["action"]...)

	filter.ActorID = q.Get("actor_id")
	filter.ResourceType = q.Get("resource_type")
	filter.ResourceID = q.Get("resource_id")
	filter.SourceIP = q.Get("source_ip")
	filter.RequestID = q.Get("request_id")
	filter.CorrelationID = q.Get("correlation_id")

	if v := q.Get("start_time"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errors.New("start_time must be RFC3339")
		}
		filter.StartTime = &t
	}
	if v := q.Get("end_time"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errors.New("end_time must be RFC3339")
		}
		filter.EndTime = &t
	}

	filter.OrderDesc = q.Get("order_direction") != "asc"
	return filter, nil
}
