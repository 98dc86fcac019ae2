// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/gatehouse/internal/audit"
	"github.com/tomtom215/gatehouse/internal/auth"
	"github.com/tomtom215/gatehouse/internal/authz"
	"github.com/tomtom215/gatehouse/internal/logging"
	"github.com/tomtom215/gatehouse/internal/models"
	"github.com/tomtom215/gatehouse/internal/ownership"
	"github.com/tomtom215/gatehouse/internal/security"
	ws "github.com/tomtom215/gatehouse/internal/websocket"
)

// HealthCheck is one dependency reported by GET /healthz.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// HandlerDeps are the collaborators of a Handler. Hub and Profiles may be
// nil; the stream endpoint is then unavailable and onboarding reads false.
// The audit routes are mounted only with an AuditReader.
type HandlerDeps struct {
	Authenticator *auth.Authenticator
	Authorizer    *authz.Authorizer
	Ownership     *ownership.Checker
	Pipeline      *security.Pipeline
	Profiles      auth.ProfileProvider
	Hub           *ws.Hub
	Audit         security.AuditSink
	AuditReader   AuditReader
	Credentials   *auth.CredentialsConfig
	HealthChecks  []HealthCheck

	// FallbackRedirect is the redirect target for denials of configs that
	// have none.
	FallbackRedirect string

	// AllowOrigin decides websocket upgrades. Same-origin upgrades are
	// always allowed.
	AllowOrigin func(origin string) bool

	// DevSignIn mints a credential for a seeded demo identity. When nil the
	// dev sign-in route is not mounted.
	DevSignIn func(ctx context.Context, identity *models.Identity) (token string, err error)
}

// Handler serves the access hooks over HTTP.
type Handler struct {
	authn       *auth.Authenticator
	authz       *authz.Authorizer
	owner       *ownership.Checker
	pipeline    *security.Pipeline
	profiles    auth.ProfileProvider
	hub         *ws.Hub
	audit       security.AuditSink
	auditReader AuditReader
	credentials *auth.CredentialsConfig
	health      []HealthCheck
	fallback    string
	allowOrigin func(string) bool
	devSignIn   func(context.Context, *models.Identity) (string, error)
	startTime   time.Time
}

// NewHandler creates a Handler.
//
// Example:
//
//	handler := api.NewHandler(api.HandlerDeps{
//	    Authenticator: authn,
//	    Authorizer:    authorizer,
//	    Ownership:     checker,
//	    Pipeline:      pipeline,
//	    Hub:           hub,
//	})
//	router := api.NewRouter(handler, chiMW, guard, credentials)
func NewHandler(deps HandlerDeps) *Handler {
	credentials := deps.Credentials
	if credentials == nil {
		credentials = auth.DefaultCredentialsConfig()
	}
	fallback := deps.FallbackRedirect
	if fallback == "" {
		fallback = security.PathDashboard
	}
	allowOrigin := deps.AllowOrigin
	if allowOrigin == nil {
		allowOrigin = func(string) bool { return false }
	}

	return &Handler{
		authn:       deps.Authenticator,
		authz:       deps.Authorizer,
		owner:       deps.Ownership,
		pipeline:    deps.Pipeline,
		profiles:    deps.Profiles,
		hub:         deps.Hub,
		audit:       deps.Audit,
		auditReader: deps.AuditReader,
		credentials: credentials,
		health:      deps.HealthChecks,
		fallback:    fallback,
		allowOrigin: allowOrigin,
		devSignIn:   deps.DevSignIn,
		startTime:   time.Now(),
	}
}

// recordSessionEvent audits a sign-in or sign-out made through the API.
func (h *Handler) recordSessionEvent(r *http.Request, action, userID string) {
	if h.audit == nil {
		return
	}
	ev := audit.NewDecisionEvent(userID, action, "", "", models.Allow())
	ev.Source = audit.SourceFromRequest(r)
	h.audit.LogSecurityEvent(context.WithoutCancel(r.Context()), ev)
}

// accessState resolves everything the client-side access hooks need in one
// pass. It never fails: lookup errors narrow to the anonymous or guest view.
func (h *Handler) accessState(ctx context.Context) models.AccessState {
	current := h.authn.CurrentState(ctx)

	var userID string
	if current.IsAuthenticated && current.User != nil {
		userID = current.User.ID
	}

	subject := h.authz.ResolveSubject(ctx, userID)
	state := models.AccessState{
		User:            current.User,
		IsAuthenticated: userID != "",
		Role:            subject.Role.String(),
		RoleLevel:       subject.Role.Level(),
		Permissions:     h.authz.GetPermissionsForRole(subject.Role),
		Tier:            subject.Tier,
	}
	if state.Permissions == nil {
		state.Permissions = []models.Permission{}
	}

	if userID != "" && h.profiles != nil {
		profile, err := h.profiles.GetProfile(ctx, userID)
		if err != nil {
			logging.Ctx(ctx).Warn().
				Str("user_id", logging.RedactUserID(userID)).
				Str("error", logging.RedactError(err)).
				Msg("Profile lookup failed, reporting onboarding incomplete")
		} else if profile != nil {
			state.Onboarded = profile.OnboardingCompleted
		}
	}

	return state
}
