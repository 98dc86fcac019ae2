// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/gatehouse/internal/logging"
	"github.com/tomtom215/gatehouse/internal/models"
)

const healthCheckTimeout = 2 * time.Second

// Health reports dependency status. Any failing dependency makes the
// service degraded and the response a 503.
//
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	health := models.HealthStatus{
		Status:     "healthy",
		Components: make(map[string]string, len(h.health)),
		Uptime:     time.Since(h.startTime).Seconds(),
	}
	if h.hub != nil {
		health.Clients = h.hub.ClientCount()
	}

	for _, check := range h.health {
		if err := check.Ping(ctx); err != nil {
			health.Status = "degraded"
			health.Components[check.Name] = "unavailable"
			logging.Ctx(r.Context()).Warn().Str("component", check.Name).Err(err).Msg("Health check failed")
			continue
		}
		health.Components[check.Name] = "ok"
	}

	status := http.StatusOK
	if health.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, &models.APIResponse{
		Status: "success",
		Data:   health,
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
		},
	})
}
