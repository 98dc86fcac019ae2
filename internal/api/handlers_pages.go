// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/gatehouse/internal/security"
)

// GuardedPage is the body of a sample guarded surface.
type GuardedPage struct {
	Surface    string `json:"surface"`
	UserID     string `json:"user_id,omitempty"`
	ResourceID string `json:"resource_id,omitempty"`
}

// Page returns a handler for a guarded surface. It only runs once the guard
// has admitted the request, and echoes who was admitted.
func (h *Handler) Page(surface string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		page := GuardedPage{
			Surface:    surface,
			ResourceID: chi.URLParam(r, security.DefaultIDParam),
		}
		if d, ok := security.DecisionFromContext(r.Context()); ok {
			page.UserID = d.UserID()
		}
		respondSuccess(w, r, page, start)
	}
}
