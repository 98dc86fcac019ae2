// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package api

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/tomtom215/gatehouse/internal/database"
)

func TestGuardedPages_BrowserRedirects(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		path     string
		userID   string
		location string
	}{
		{"anonymous dashboard", "/dashboard", "", "/auth?next=" + url.QueryEscape("/dashboard")},
		{"unonboarded dashboard", "/dashboard", database.DemoNewUserID, "/onboarding"},
		{"user on admin", "/admin", database.DemoOwnerID, "/dashboard"},
		{"member edits team page", "/pages/page_42", database.DemoMemberID, "/dashboard/pages"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var token string
			if tt.userID != "" {
				token = env.token(t, tt.userID)
			}
			rec := env.do(t, http.MethodGet, tt.path, token, nil, "Accept", "text/html")
			if rec.Code != http.StatusSeeOther {
				t.Fatalf("status = %d, want 303", rec.Code)
			}
			if got := rec.Header().Get("Location"); got != tt.location {
				t.Errorf("Location = %q, want %q", got, tt.location)
			}

			var flash bool
			for _, c := range rec.Result().Cookies() {
				if c.Name == "flash" && c.Value != "" {
					flash = true
				}
			}
			if !flash {
				t.Error("denial did not set the flash cookie")
			}
		})
	}
}

func TestGuardedPages_Admitted(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		path    string
		userID  string
		surface string
		resID   string
	}{
		{"owner dashboard", "/dashboard", database.DemoOwnerID, "dashboard", ""},
		{"owner billing", "/dashboard/billing", database.DemoOwnerID, "billing", ""},
		{"moderator queue", "/moderation", database.DemoModeratorID, "moderator", ""},
		{"admin area", "/admin", database.DemoAdminID, "admin", ""},
		{"super admin system", "/admin/system", database.DemoSuperAdminID, "super_admin", ""},
		{"owner edits page", "/pages/page_42", database.DemoOwnerID, "page_editor", "page_42"},
		{"member edits own page", "/pages/page_43", database.DemoMemberID, "page_editor", "page_43"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.path, env.token(t, tt.userID), nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			var page GuardedPage
			decodeEnvelope(t, rec, &page)
			if page.Surface != tt.surface || page.UserID != tt.userID || page.ResourceID != tt.resID {
				t.Errorf("page = %+v", page)
			}
		})
	}
}

func TestGuardedPages_JSONDenials(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/admin", "", nil, "Accept", "application/json")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/admin", env.token(t, database.DemoModeratorID), nil, "Accept", "application/json")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("moderator status = %d, want 403", rec.Code)
	}
	resp := decodeEnvelope(t, rec, nil)
	if resp.Error == nil || resp.Error.Code != "FORBIDDEN" {
		t.Errorf("error = %+v, want FORBIDDEN", resp.Error)
	}
}

func TestRouter_SecurityHeadersAndRequestID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/access/session", "", nil, "X-Request-ID", "trace-123")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if got := rec.Header().Get("X-Request-ID"); got != "trace-123" {
		t.Errorf("X-Request-ID = %q, want trace-123", got)
	}

	resp := decodeEnvelope(t, rec, nil)
	if resp.Metadata.RequestID != "trace-123" {
		t.Errorf("metadata.request_id = %q", resp.Metadata.RequestID)
	}
}

func TestRouter_Metrics(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/api/v1/access/session", "", nil)

	rec := env.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `endpoint="/api/v1/access/session"`) {
		t.Error("metrics missing the session route label")
	}
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		env := newTestEnv(t, withHealthCheck("database", nil))
		rec := env.do(t, http.MethodGet, "/healthz", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var health struct {
			Status     string            `json:"status"`
			Components map[string]string `json:"components"`
		}
		decodeEnvelope(t, rec, &health)
		if health.Status != "healthy" || health.Components["database"] != "ok" {
			t.Errorf("health = %+v", health)
		}
	})

	t.Run("degraded", func(t *testing.T) {
		env := newTestEnv(t,
			withHealthCheck("database", nil),
			withHealthCheck("audit", errors.New("connection refused")),
		)
		rec := env.do(t, http.MethodGet, "/healthz", "", nil)
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "connection refused") {
			t.Error("health response leaked the dependency error")
		}
	})
}
