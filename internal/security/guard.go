// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package security

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/gatehouse/internal/audit"
	"github.com/tomtom215/gatehouse/internal/logging"
	"github.com/tomtom215/gatehouse/internal/models"
)

// GuardState is the lifecycle of one guarded request. Every request starts
// pending, moves to checking and ends authorized, denied or canceled.
type GuardState int

const (
	GuardPending GuardState = iota
	GuardChecking
	GuardAuthorized
	GuardDenied
	GuardCanceled
)

func (s GuardState) String() string {
	switch s {
	case GuardPending:
		return "pending"
	case GuardChecking:
		return "checking"
	case GuardAuthorized:
		return "authorized"
	case GuardDenied:
		return "denied"
	case GuardCanceled:
		return "canceled"
	}
	return "unknown"
}

// GuardConfig configures the route guard.
type GuardConfig struct {
	// FlashCookieName carries the denial message to the next page.
	FlashCookieName string

	// FallbackRedirect is used when a config has no RedirectOnFail.
	FallbackRedirect string

	// APIPrefix marks routes that always get JSON denials.
	APIPrefix string

	// SecureCookies sets the Secure flag on the flash cookie.
	SecureCookies bool
}

// DefaultGuardConfig returns sensible defaults.
func DefaultGuardConfig() *GuardConfig {
	return &GuardConfig{
		FlashCookieName:  "gatehouse_flash",
		FallbackRedirect: PathDashboard,
		APIPrefix:        "/api/",
		SecureCookies:    true,
	}
}

// Guard turns security configs into chi middleware.
type Guard struct {
	pipeline *Pipeline
	config   *GuardConfig
}

// NewGuard creates a Guard over pipeline.
func NewGuard(pipeline *Pipeline, config *GuardConfig) *Guard {
	if config == nil {
		config = DefaultGuardConfig()
	}
	return &Guard{pipeline: pipeline, config: config}
}

type decisionKey struct{}

// DecisionFromContext returns the decision that admitted the request.
func DecisionFromContext(ctx context.Context) (Decision, bool) {
	d, ok := ctx.Value(decisionKey{}).(Decision)
	return d, ok
}

// RequirePreset is Require for a named preset. It panics on unknown names,
// so misconfigured routes fail at startup.
func (g *Guard) RequirePreset(name string) func(http.Handler) http.Handler {
	return g.Require(MustPreset(name))
}

// Require returns middleware that admits a request only when cfg allows it.
// The resource id for ownership checks is read from the chi route parameter
// named by cfg.Ownership.IDParam, so the middleware must run after routing.
func (g *Guard) Require(cfg Config) func(http.Handler) http.Handler {
	cfg = cfg.Clone()
	label := cfg.Label()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := GuardPending
			logger := logging.Ctx(r.Context())
			transition := func(to GuardState) {
				logger.Trace().Str("config", label).Str("from", state.String()).Str("to", to.String()).Msg("Guard transition")
				state = to
			}

			var resourceID string
			if cfg.Ownership != nil {
				resourceID = chi.URLParam(r, cfg.Ownership.IDParam)
			}

			transition(GuardChecking)
			ctx := WithAuditSource(r.Context(), audit.SourceFromRequest(r))
			d := g.pipeline.Check(ctx, cfg, resourceID)

			// The client went away while the check ran. Nothing is written.
			if r.Context().Err() != nil {
				transition(GuardCanceled)
				RecordGuardOutcome(label, state)
				logger.Debug().Str("config", label).Msg("Guarded request abandoned")
				return
			}

			if d.Allowed {
				transition(GuardAuthorized)
				RecordGuardOutcome(label, state)
				ctx := context.WithValue(r.Context(), decisionKey{}, d)
				if id := d.UserID(); id != "" {
					ctx = logging.ContextWithActorID(ctx, id)
				}
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			transition(GuardDenied)
			RecordGuardOutcome(label, state)
			if g.wantsJSON(r) {
				g.writeJSONDenial(w, r, d.SecurityCheckResult)
				return
			}
			g.redirectDenial(w, r, &cfg, d.SecurityCheckResult)
		})
	}
}

// wantsJSON reports whether the caller is an API client rather than a
// browser navigation.
func (g *Guard) wantsJSON(r *http.Request) bool {
	if g.config.APIPrefix != "" && strings.HasPrefix(r.URL.Path, g.config.APIPrefix) {
		return true
	}
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

func (g *Guard) writeJSONDenial(w http.ResponseWriter, r *http.Request, result models.SecurityCheckResult) {
	resp := models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
		Error: &models.APIError{
			Code:    ErrorCode(result),
			Message: ErrorMessage(result),
			Details: map[string]interface{}{
				"reason": result.DeniedReason,
				"layer":  result.Layer,
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(StatusCode(result))
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode denial response")
	}
}

func (g *Guard) redirectDenial(w http.ResponseWriter, r *http.Request, cfg *Config, result models.SecurityCheckResult) {
	fallback := cfg.RedirectOnFail
	if fallback == "" {
		fallback = g.config.FallbackRedirect
	}
	target := RedirectPath(result, fallback)
	if result.DeniedReason == models.ReasonNotAuthenticated {
		target += "?next=" + url.QueryEscape(r.URL.RequestURI())
	}

	if cfg.ShowToastOnFail && g.config.FlashCookieName != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     g.config.FlashCookieName,
			Value:    url.QueryEscape(ErrorMessage(result)),
			Path:     "/",
			MaxAge:   60,
			Secure:   g.config.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, target, http.StatusSeeOther)
}
