// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package auth

import (
	"net/http"
	"strings"
	"time"
)

// CredentialsConfig controls where credentials are read from and how the
// session cookie is written.
type CredentialsConfig struct {
	// CookieName is the name of the session cookie.
	CookieName string

	// CookiePath is the path for the session cookie.
	CookiePath string

	// CookieDomain is the domain for the session cookie.
	CookieDomain string

	// CookieSecure sets the Secure flag on the cookie.
	CookieSecure bool

	// CookieSameSite sets the SameSite attribute.
	CookieSameSite http.SameSite

	// CookieMaxAge is the lifetime written on the cookie.
	CookieMaxAge time.Duration
}

// DefaultCredentialsConfig returns sensible defaults.
func DefaultCredentialsConfig() *CredentialsConfig {
	return &CredentialsConfig{
		CookieName:     "gatehouse_session",
		CookiePath:     "/",
		CookieSecure:   true,
		CookieSameSite: http.SameSiteLaxMode,
		CookieMaxAge:   24 * time.Hour,
	}
}

// CredentialsMiddleware copies the caller's credential into the request
// context. The Authorization bearer token takes priority over the cookie.
// It never rejects a request; the authentication layer decides.
func CredentialsMiddleware(cfg *CredentialsConfig) func(http.Handler) http.Handler {
	if cfg == nil {
		cfg = DefaultCredentialsConfig()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r, cfg.CookieName)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithToken(r.Context(), token)))
		})
	}
}

// ExtractToken reads the bearer token or, failing that, the named cookie.
func ExtractToken(r *http.Request, cookieName string) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, value, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(value)
		}
	}
	if cookieName != "" {
		if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
			return cookie.Value
		}
	}
	return ""
}

// SetSessionCookie writes the session cookie.
func SetSessionCookie(w http.ResponseWriter, cfg *CredentialsConfig, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     cfg.CookiePath,
		Domain:   cfg.CookieDomain,
		MaxAge:   int(cfg.CookieMaxAge.Seconds()),
		Secure:   cfg.CookieSecure,
		HttpOnly: true,
		SameSite: cfg.CookieSameSite,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, cfg *CredentialsConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     cfg.CookiePath,
		Domain:   cfg.CookieDomain,
		MaxAge:   -1,
		Secure:   cfg.CookieSecure,
		HttpOnly: true,
		SameSite: cfg.CookieSameSite,
	})
}
