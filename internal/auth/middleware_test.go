// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCredentialsMiddleware(t *testing.T) {
	t.Parallel()

	cfg := DefaultCredentialsConfig()
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"bearer header", "Bearer abc123", "", "abc123"},
		{"lowercase scheme", "bearer abc123", "", "abc123"},
		{"header beats cookie", "Bearer from-header", "from-cookie", "from-header"},
		{"cookie fallback", "", "from-cookie", "from-cookie"},
		{"basic scheme ignored", "Basic dXNlcjpwYXNz", "", ""},
		{"nothing", "", "", ""},
	}

	for _, tt := range tests {
		var got string
		h := CredentialsMiddleware(cfg)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			got = TokenFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if tt.cookie != "" {
			req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: tt.cookie})
		}
		h.ServeHTTP(httptest.NewRecorder(), req)

		if got != tt.want {
			t.Errorf("%s: token = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestSessionCookieHelpers(t *testing.T) {
	t.Parallel()

	cfg := DefaultCredentialsConfig()

	rec := httptest.NewRecorder()
	SetSessionCookie(rec, cfg, "tok")
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != "tok" || !cookies[0].HttpOnly {
		t.Fatalf("unexpected cookie %+v", cookies)
	}

	rec = httptest.NewRecorder()
	ClearSessionCookie(rec, cfg)
	cookies = rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("expected expiring cookie, got %+v", cookies)
	}
}
