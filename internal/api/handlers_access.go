// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/gatehouse/internal/audit"
	"github.com/tomtom215/gatehouse/internal/auth"
	"github.com/tomtom215/gatehouse/internal/logging"
	"github.com/tomtom215/gatehouse/internal/models"
	"github.com/tomtom215/gatehouse/internal/ownership"
	"github.com/tomtom215/gatehouse/internal/security"
)

// AccessSession returns the caller's auth state, role and permission set.
//
// GET /api/v1/access/session
func (h *Handler) AccessSession(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondSuccess(w, r, h.accessState(r.Context()), start)
}

// AccessCheck runs the full pipeline for a preset or an ad hoc config and
// reports the decision. Denials are a 200 with allowed=false; only malformed
// requests are errors.
//
// POST /api/v1/access/check
//
//	{"preset": "page_editor", "resource_id": "page_42"}
//	{"config": {"require_auth": true, "minimum_role_level": "moderator"}}
func (h *Handler) AccessCheck(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.AccessCheckRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "Request body must be a JSON object", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	cfg, ok := h.resolveCheckConfig(w, r, &req)
	if !ok {
		return
	}

	ctx := security.WithAuditSource(r.Context(), audit.SourceFromRequest(r))
	d := h.pipeline.Check(ctx, cfg, req.ResourceID)

	resp := models.AccessCheckResponse{SecurityCheckResult: d.SecurityCheckResult}
	if !d.Allowed {
		resp.Message = security.ErrorMessage(d.SecurityCheckResult)
		fallback := cfg.RedirectOnFail
		if fallback == "" {
			fallback = h.fallback
		}
		resp.RedirectTo = security.RedirectPath(d.SecurityCheckResult, fallback)
	}
	respondSuccess(w, r, resp, start)
}

func (h *Handler) resolveCheckConfig(w http.ResponseWriter, r *http.Request, req *models.AccessCheckRequest) (security.Config, bool) {
	switch {
	case req.Preset != "" && req.Config != nil:
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Provide either preset or config, not both", nil)
		return security.Config{}, false

	case req.Preset != "":
		cfg, ok := security.Preset(req.Preset)
		if !ok {
			respondError(w, r, http.StatusBadRequest, "UNKNOWN_PRESET", "Unknown preset: "+sanitizeLogValue(req.Preset), nil)
			return security.Config{}, false
		}
		return cfg, true

	case req.Config != nil:
		cfg, err := security.DecodeConfig(req.Config)
		if err != nil {
			respondAPIError(w, r, http.StatusBadRequest, &models.APIError{
				Code:    "INVALID_CONFIG",
				Message: err.Error(),
			})
			return security.Config{}, false
		}
		// Metric labels and grant auditing stay server controlled.
		cfg.Name = ""
		cfg.Sensitive = false
		return cfg, true
	}

	respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Either preset or config is required", nil)
	return security.Config{}, false
}

// AccessOwnership decides ownership of many resources of one type. Every id
// is answered; anonymous callers get false for all of them.
//
// POST /api/v1/access/ownership
func (h *Handler) AccessOwnership(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.OwnershipRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "Request body must be a JSON object", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	teamRoles := make([]models.TeamRole, len(req.RequiredTeamRoles))
	for i, role := range req.RequiredTeamRoles {
		teamRoles[i] = models.TeamRole(role)
	}

	var userID string
	if user := h.authn.GetCurrentUser(r.Context()); user != nil {
		userID = user.ID
	}

	resourceType := models.ResourceType(req.ResourceType)
	results := h.owner.CheckOwnershipMultiple(r.Context(), userID, resourceType, req.ResourceIDs, ownership.Options{
		AllowTeamAccess:   req.AllowTeamAccess,
		RequiredTeamRoles: teamRoles,
	})

	respondSuccess(w, r, models.OwnershipResponse{
		ResourceType: req.ResourceType,
		Results:      results,
	}, start)
}

// AccessTeam decides whether the caller belongs to a team, optionally with
// one of the given team roles. Denials are a 200 with allowed=false and are
// audited.
//
// POST /api/v1/access/team
func (h *Handler) AccessTeam(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.TeamAccessRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "Request body must be a JSON object", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	teamRoles := make([]models.TeamRole, len(req.RequiredTeamRoles))
	for i, role := range req.RequiredTeamRoles {
		teamRoles[i] = models.TeamRole(role)
	}

	var userID string
	if user := h.authn.GetCurrentUser(r.Context()); user != nil {
		userID = user.ID
	}

	res := h.owner.CheckTeamMembership(r.Context(), userID, req.TeamID, teamRoles)
	resp := models.AccessCheckResponse{SecurityCheckResult: res}
	if !res.Allowed {
		resp.Message = security.ErrorMessage(res)
		resp.RedirectTo = security.RedirectPath(res, h.fallback)
		if h.audit != nil {
			ev := audit.NewDecisionEvent(userID, audit.ActionTeamCheck, string(models.ResourceTeams), req.TeamID, res)
			ev.Source = audit.SourceFromRequest(r)
			h.audit.LogSecurityEvent(context.WithoutCancel(r.Context()), ev)
		}
	}
	respondSuccess(w, r, resp, start)
}

// AccessRefresh extends the caller's session and returns the refreshed
// access state. Stream subscribers receive token_refreshed. Providers that
// cannot extend a credential answer 501.
//
// POST /api/v1/access/refresh
func (h *Handler) AccessRefresh(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	session, err := h.authn.Refresh(r.Context())
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrRefreshNotSupported):
		respondError(w, r, http.StatusNotImplemented, "NOT_SUPPORTED", "This sign-in method cannot be refreshed.", nil)
		return
	case errors.Is(err, auth.ErrNoCredentials),
		errors.Is(err, auth.ErrSessionNotFound),
		errors.Is(err, auth.ErrSessionExpired):
		respondError(w, r, http.StatusUnauthorized, "NOT_AUTHENTICATED", "Please sign in to continue.", nil)
		return
	default:
		respondError(w, r, http.StatusInternalServerError, "REFRESH_FAILED", "Session refresh failed. Please try again.", err)
		return
	}

	if _, cookieErr := r.Cookie(h.credentials.CookieName); cookieErr == nil {
		auth.SetSessionCookie(w, h.credentials, session.AccessToken)
	}
	respondSuccess(w, r, h.accessState(r.Context()), start)
}

// SignOut ends the caller's session and clears the session cookie. Signing
// out without a session succeeds.
//
// POST /api/v1/access/signout
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var userID string
	if user := h.authn.GetCurrentUser(r.Context()); user != nil {
		userID = user.ID
	}

	err := h.authn.SignOut(r.Context())
	if err != nil && !errors.Is(err, auth.ErrNoCredentials) {
		respondError(w, r, http.StatusInternalServerError, "SIGNOUT_FAILED", "Sign-out failed. Please try again.", err)
		return
	}
	if userID != "" {
		h.recordSessionEvent(r, audit.ActionSignOut, userID)
	}

	auth.ClearSessionCookie(w, h.credentials)
	logging.Ctx(r.Context()).Debug().Bool("had_session", userID != "").Msg("Signed out")
	respondSuccess(w, r, map[string]bool{"signed_out": true}, start)
}

// DevSignIn signs in as any identity and sets the session cookie. It is only
// mounted in development with seeded demo data.
//
// POST /api/v1/dev/signin
func (h *Handler) DevSignIn(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.devSignIn == nil {
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	var req models.DevSignInRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "Request body must be a JSON object", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	identity := &models.Identity{ID: req.UserID, Email: req.Email, EmailVerified: req.EmailVerified}
	token, err := h.devSignIn(r.Context(), identity)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "SIGNIN_FAILED", "Sign-in failed.", err)
		return
	}

	auth.SetSessionCookie(w, h.credentials, token)
	h.recordSessionEvent(r, audit.ActionSignIn, req.UserID)
	logging.Ctx(r.Context()).Info().
		Str("user_id", logging.RedactUserID(req.UserID)).
		Msg("Development sign-in")
	respondSuccess(w, r, map[string]string{"token": token, "user_id": req.UserID}, start)
}

// HasDevSignIn reports whether the dev sign-in route should be mounted.
func (h *Handler) HasDevSignIn() bool {
	return h.devSignIn != nil
}
