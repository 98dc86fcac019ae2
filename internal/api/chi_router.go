// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/gatehouse/internal/auth"
	"github.com/tomtom215/gatehouse/internal/middleware"
	"github.com/tomtom215/gatehouse/internal/models"
	"github.com/tomtom215/gatehouse/internal/security"
)

var auditViewConfig = security.MustConfig(
	security.Named("audit_view"),
	security.WithPermissions(models.PermAuditView),
)

// Router wires handlers, infrastructure middleware and route guards.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	guard         *security.Guard
	credentials   *auth.CredentialsConfig
}

// NewRouter creates a Router. credentials may be nil for the defaults.
func NewRouter(handler *Handler, chiMW *ChiMiddleware, guard *security.Guard, credentials *auth.CredentialsConfig) *Router {
	if credentials == nil {
		credentials = auth.DefaultCredentialsConfig()
	}
	return &Router{
		handler:       handler,
		chiMiddleware: chiMW,
		guard:         guard,
		credentials:   credentials,
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight
	r.Use(auth.CredentialsMiddleware(router.credentials))

	// ========================
	// Operational Endpoints
	// ========================
	r.Get("/healthz", router.handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	// ========================
	// Access Hooks
	// ========================
	r.Route("/api/v1/access", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())

		r.Get("/session", router.handler.AccessSession)
		r.Post("/check", router.handler.AccessCheck)
		r.Post("/ownership", router.handler.AccessOwnership)
		r.Post("/team", router.handler.AccessTeam)
		r.Post("/refresh", router.handler.AccessRefresh)
		r.Post("/signout", router.handler.SignOut)
		r.Get("/stream", router.handler.AccessStream)
	})

	if router.handler.HasDevSignIn() {
		r.Route("/api/v1/dev", func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Use(APISecurityHeaders())
			r.Post("/signin", router.handler.DevSignIn)
		})
	}

	// ========================
	// Audit Log
	// ========================
	if router.handler.HasAuditReader() {
		r.Route("/api/v1/audit", func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Use(APISecurityHeaders())
			r.Use(router.guard.Require(auditViewConfig))

			r.Get("/events", router.handler.AuditEvents)
			r.Get("/events/{id}", router.handler.AuditEvent)
			r.Get("/stats", router.handler.AuditStats)
			r.Get("/export", router.handler.AuditExport)
		})
	}

	// ========================
	// Guarded Surfaces
	// ========================
	// Guards run per route so ownership checks can read chi URL params.
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())

		router.guarded(r, "/account", security.PresetAuthenticated)
		router.guarded(r, "/account/security", security.PresetVerified)
		router.guarded(r, "/dashboard", security.PresetDashboard)
		router.guarded(r, "/dashboard/billing", security.PresetBilling)
		router.guarded(r, "/moderation", security.PresetModerator)
		router.guarded(r, "/admin", security.PresetAdmin)
		router.guarded(r, "/admin/system", security.PresetSuperAdmin)
		router.guarded(r, "/pages/{id}", security.PresetPageEditor)
	})

	return r
}

func (router *Router) guarded(r chi.Router, pattern, preset string) {
	r.With(router.guard.RequirePreset(preset)).Get(pattern, router.handler.Page(preset))
}
