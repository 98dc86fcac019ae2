// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package api

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tomtom215/gatehouse/internal/audit"
	"github.com/tomtom215/gatehouse/internal/database"
	"github.com/tomtom215/gatehouse/internal/models"
)

func TestAccessSession_Anonymous(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/access/session", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var state models.AccessState
	resp := decodeEnvelope(t, rec, &state)
	if resp.Status != "success" {
		t.Errorf("status field = %q", resp.Status)
	}
	if state.IsAuthenticated || state.User != nil {
		t.Errorf("anonymous state = %+v", state)
	}
	if state.Role != "guest" || state.RoleLevel != 0 {
		t.Errorf("role = %q level %d, want guest 0", state.Role, state.RoleLevel)
	}
	if len(state.Permissions) != 2 {
		t.Errorf("guest permissions = %v, want pages.view and resources.view", state.Permissions)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}
}

func TestAccessSession_SignedIn(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name      string
		userID    string
		role      string
		level     int
		onboarded bool
		tier      models.SubscriptionTier
	}{
		{"owner", database.DemoOwnerID, "user", 1, true, models.TierPro},
		{"moderator", database.DemoModeratorID, "moderator", 2, true, models.TierStarter},
		{"admin", database.DemoAdminID, "admin", 3, true, models.TierPro},
		{"new user defaults to user role", database.DemoNewUserID, "user", 1, false, models.TierFree},
		{"no profile narrows to guest", "ghost-user", "guest", 0, false, models.TierFree},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/v1/access/session", env.token(t, tt.userID), nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var state models.AccessState
			decodeEnvelope(t, rec, &state)

			if !state.IsAuthenticated || state.User == nil || state.User.ID != tt.userID {
				t.Fatalf("state = %+v, want authenticated %s", state, tt.userID)
			}
			if state.Role != tt.role || state.RoleLevel != tt.level {
				t.Errorf("role = %q level %d, want %q %d", state.Role, state.RoleLevel, tt.role, tt.level)
			}
			if state.Onboarded != tt.onboarded {
				t.Errorf("onboarded = %v, want %v", state.Onboarded, tt.onboarded)
			}
			if state.Tier != tt.tier {
				t.Errorf("tier = %v, want %v", state.Tier, tt.tier)
			}
		})
	}
}

func TestAccessSession_InvalidTokenIsAnonymous(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/access/session", "not-a-jwt", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var state models.AccessState
	decodeEnvelope(t, rec, &state)
	if state.IsAuthenticated {
		t.Error("invalid token reported as authenticated")
	}
}

func TestAccessCheck(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		userID     string
		body       interface{}
		wantStatus int
		wantAllow  bool
		wantReason models.DeniedReason
		wantTo     string
	}{
		{
			name:       "anonymous dashboard goes to sign-in",
			body:       map[string]interface{}{"preset": "dashboard"},
			wantStatus: http.StatusOK,
			wantReason: models.ReasonNotAuthenticated,
			wantTo:     "/auth",
		},
		{
			name:       "new user dashboard goes to onboarding",
			userID:     database.DemoNewUserID,
			body:       map[string]interface{}{"preset": "dashboard"},
			wantStatus: http.StatusOK,
			wantReason: models.ReasonOnboardingIncomplete,
			wantTo:     "/onboarding",
		},
		{
			name:       "owner edits own page",
			userID:     database.DemoOwnerID,
			body:       map[string]interface{}{"preset": "page_editor", "resource_id": "page_42"},
			wantStatus: http.StatusOK,
			wantAllow:  true,
		},
		{
			name:       "team member lacks team role",
			userID:     database.DemoMemberID,
			body:       map[string]interface{}{"preset": "page_editor", "resource_id": "page_42"},
			wantStatus: http.StatusOK,
			wantReason: models.ReasonNotResourceOwner,
			wantTo:     "/dashboard/pages",
		},
		{
			name:       "missing resource is not owned",
			userID:     database.DemoOwnerID,
			body:       map[string]interface{}{"preset": "page_editor", "resource_id": "page_404"},
			wantStatus: http.StatusOK,
			wantReason: models.ReasonNotResourceOwner,
			wantTo:     "/dashboard/pages",
		},
		{
			name:   "ad hoc config by role name",
			userID: database.DemoModeratorID,
			body: map[string]interface{}{"config": map[string]interface{}{
				"require_auth":       true,
				"minimum_role_level": "moderator",
			}},
			wantStatus: http.StatusOK,
			wantAllow:  true,
		},
		{
			name:   "ad hoc config denies lower role",
			userID: database.DemoOwnerID,
			body: map[string]interface{}{"config": map[string]interface{}{
				"require_auth":       true,
				"minimum_role_level": 3,
			}},
			wantStatus: http.StatusOK,
			wantReason: models.ReasonInsufficientRoleLevel,
			wantTo:     "/dashboard",
		},
		{
			name: "anonymous ad hoc role config goes to sign-in",
			body: map[string]interface{}{"config": map[string]interface{}{
				"minimum_role_level": "moderator",
			}},
			wantStatus: http.StatusOK,
			wantReason: models.ReasonNotAuthenticated,
			wantTo:     "/auth",
		},
		{
			name:       "super admin bypasses role checks",
			userID:     database.DemoSuperAdminID,
			body:       map[string]interface{}{"preset": "super_admin"},
			wantStatus: http.StatusOK,
			wantAllow:  true,
		},
		{
			name:       "preset and config together",
			body:       map[string]interface{}{"preset": "admin", "config": map[string]interface{}{}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "neither preset nor config",
			body:       map[string]interface{}{"resource_id": "page_42"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown preset",
			body:       map[string]interface{}{"preset": "root"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown config key",
			body:       map[string]interface{}{"config": map[string]interface{}{"require_magic": true}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown role name",
			body:       map[string]interface{}{"config": map[string]interface{}{"minimum_role_level": "owner"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       "{not json",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var token string
			if tt.userID != "" {
				token = env.token(t, tt.userID)
			}
			rec := env.do(t, http.MethodPost, "/api/v1/access/check", token, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				resp := decodeEnvelope(t, rec, nil)
				if resp.Status != "error" || resp.Error == nil || resp.Error.Code == "" {
					t.Errorf("error envelope = %+v", resp)
				}
				return
			}

			var got models.AccessCheckResponse
			decodeEnvelope(t, rec, &got)
			if got.Allowed != tt.wantAllow {
				t.Fatalf("allowed = %v, want %v (%+v)", got.Allowed, tt.wantAllow, got)
			}
			if got.DeniedReason != tt.wantReason {
				t.Errorf("reason = %q, want %q", got.DeniedReason, tt.wantReason)
			}
			if got.RedirectTo != tt.wantTo {
				t.Errorf("redirect_to = %q, want %q", got.RedirectTo, tt.wantTo)
			}
			if !got.Allowed && got.Message == "" {
				t.Error("denial has no message")
			}
		})
	}
}

func TestAccessCheck_DenialIsAudited(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/access/check", env.token(t, database.DemoMemberID),
		map[string]interface{}{"preset": "admin"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	waitFor(t, func() bool { return env.auditStore.Len() > 0 }, "denial not audited")
	events, err := env.auditStore.Query(context.Background(), audit.QueryFilter{Decisions: []audit.Decision{audit.DecisionDeny}})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("deny events = %d, want 1", len(events))
	}
	ev := events[0]
	if ev.Actor() != database.DemoMemberID {
		t.Errorf("actor = %q", ev.Actor())
	}
	if ev.Reason != models.ReasonInsufficientRoleLevel {
		t.Errorf("reason = %q", ev.Reason)
	}
	if ev.RequestID == "" {
		t.Error("audit event missing request id")
	}
}

// checkSeriesFor reports whether security_checks_total has a series labeled
// with config.
func checkSeriesFor(t *testing.T, config string) bool {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "security_checks_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "config" && lp.GetValue() == config {
					return true
				}
			}
		}
	}
	return false
}

func TestAccessCheck_AdHocConfigLabels(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, database.DemoMemberID)

	rec := env.do(t, http.MethodPost, "/api/v1/access/check", token, map[string]interface{}{
		"config": map[string]interface{}{
			"name":         "caller-chosen-label",
			"sensitive":    true,
			"require_auth": true,
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got models.AccessCheckResponse
	decodeEnvelope(t, rec, &got)
	if !got.Allowed {
		t.Fatalf("expected signed-in member to pass require_auth, got %+v", got)
	}

	if checkSeriesFor(t, "caller-chosen-label") {
		t.Error("client supplied name became a metric label")
	}
	if !checkSeriesFor(t, "custom") {
		t.Error("ad hoc check not recorded under the custom label")
	}

	// The logger writes in order, so once the later denial lands the
	// earlier grant would have landed too.
	rec = env.do(t, http.MethodPost, "/api/v1/access/check", token,
		map[string]interface{}{"preset": "admin"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	waitFor(t, func() bool { return env.auditStore.Len() > 0 }, "denial not audited")

	grants, err := env.auditStore.Count(context.Background(), audit.QueryFilter{Decisions: []audit.Decision{audit.DecisionAllow}})
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if grants != 0 {
		t.Errorf("ad hoc sensitive flag audited %d grants, want 0", grants)
	}
}

func TestAccessOwnership(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		userID string
		body   map[string]interface{}
		want   map[string]bool
	}{
		{
			name:   "owner direct ownership only",
			userID: database.DemoOwnerID,
			body: map[string]interface{}{
				"resource_type": "pages",
				"resource_ids":  []string{"page_42", "page_43", "page_404"},
			},
			want: map[string]bool{"page_42": true, "page_43": false, "page_404": false},
		},
		{
			name:   "member with team access",
			userID: database.DemoMemberID,
			body: map[string]interface{}{
				"resource_type":     "pages",
				"resource_ids":      []string{"page_42", "page_43"},
				"allow_team_access": true,
			},
			want: map[string]bool{"page_42": true, "page_43": true},
		},
		{
			name:   "member with team access but wrong team role",
			userID: database.DemoMemberID,
			body: map[string]interface{}{
				"resource_type":       "pages",
				"resource_ids":        []string{"page_42", "page_43"},
				"allow_team_access":   true,
				"required_team_roles": []string{"owner", "admin"},
			},
			want: map[string]bool{"page_42": false, "page_43": true},
		},
		{
			name: "anonymous owns nothing",
			body: map[string]interface{}{
				"resource_type": "pages",
				"resource_ids":  []string{"page_42", "page_43"},
			},
			want: map[string]bool{"page_42": false, "page_43": false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var token string
			if tt.userID != "" {
				token = env.token(t, tt.userID)
			}
			rec := env.do(t, http.MethodPost, "/api/v1/access/ownership", token, tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}

			var got models.OwnershipResponse
			decodeEnvelope(t, rec, &got)
			if got.ResourceType != "pages" {
				t.Errorf("resource_type = %q", got.ResourceType)
			}
			if len(got.Results) != len(tt.want) {
				t.Fatalf("results = %v, want %v", got.Results, tt.want)
			}
			for id, want := range tt.want {
				if got.Results[id] != want {
					t.Errorf("results[%s] = %v, want %v", id, got.Results[id], want)
				}
			}
		})
	}
}

func TestAccessOwnership_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"unknown resource type", map[string]interface{}{"resource_type": "widgets", "resource_ids": []string{"w1"}}},
		{"no ids", map[string]interface{}{"resource_type": "pages", "resource_ids": []string{}}},
		{"empty id", map[string]interface{}{"resource_type": "pages", "resource_ids": []string{""}}},
		{"unknown team role", map[string]interface{}{
			"resource_type":       "pages",
			"resource_ids":        []string{"page_42"},
			"required_team_roles": []string{"viewer"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/access/ownership", "", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			resp := decodeEnvelope(t, rec, nil)
			if resp.Error == nil || resp.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("error = %+v, want VALIDATION_ERROR", resp.Error)
			}
		})
	}
}

func TestSignOut(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, database.DemoOwnerID)

	rec := env.do(t, http.MethodPost, "/api/v1/access/signout", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "gatehouse_session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("session cookie not cleared")
	}

	// The token is revoked.
	rec = env.do(t, http.MethodGet, "/api/v1/access/session", token, nil)
	var state models.AccessState
	decodeEnvelope(t, rec, &state)
	if state.IsAuthenticated {
		t.Error("revoked token still authenticated")
	}

	waitFor(t, func() bool {
		n, _ := env.auditStore.Count(context.Background(), audit.QueryFilter{Actions: []string{audit.ActionSignOut}})
		return n == 1
	}, "sign-out not audited")
}

func TestSignOut_WithoutSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/access/signout", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestDevSignIn(t *testing.T) {
	env := newTestEnv(t, withDevSignIn())

	rec := env.do(t, http.MethodPost, "/api/v1/dev/signin", "", map[string]interface{}{
		"user_id":        database.DemoAdminID,
		"email":          "admin@example.com",
		"email_verified": true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var got map[string]string
	decodeEnvelope(t, rec, &got)
	if got["token"] == "" {
		t.Fatal("no token returned")
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "gatehouse_session" {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value != got["token"] {
		t.Fatalf("session cookie = %+v", cookie)
	}

	// The cookie alone authenticates.
	req := env.do(t, http.MethodGet, "/api/v1/access/session", "", nil, "Cookie", cookie.Name+"="+cookie.Value)
	var state models.AccessState
	decodeEnvelope(t, req, &state)
	if !state.IsAuthenticated || state.Role != "admin" {
		t.Errorf("state after dev sign-in = %+v", state)
	}
}

func TestDevSignIn_Errors(t *testing.T) {
	env := newTestEnv(t, withDevSignIn())

	rec := env.do(t, http.MethodPost, "/api/v1/dev/signin", "", map[string]interface{}{"email": "x@example.com"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing user_id status = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/dev/signin", "", map[string]interface{}{"user_id": "broken"})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("provider failure status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "provider down") {
		t.Error("internal error leaked to client")
	}
}

func TestDevSignIn_NotMountedByDefault(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/dev/signin", "", map[string]interface{}{"user_id": database.DemoAdminID})
	if rec.Code != http.StatusNotFound && rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want route not found", rec.Code)
	}
}

func TestAccessTeam(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		userID     string
		body       map[string]interface{}
		wantAllow  bool
		wantReason models.DeniedReason
	}{
		{"owner", database.DemoOwnerID,
			map[string]interface{}{"team_id": database.DemoTeamID}, true, ""},
		{"member", database.DemoMemberID,
			map[string]interface{}{"team_id": database.DemoTeamID}, true, ""},
		{"member lacks owner role", database.DemoMemberID,
			map[string]interface{}{"team_id": database.DemoTeamID, "required_team_roles": []string{"owner", "admin"}},
			false, models.ReasonNotTeamMember},
		{"owner holds owner role", database.DemoOwnerID,
			map[string]interface{}{"team_id": database.DemoTeamID, "required_team_roles": []string{"owner"}}, true, ""},
		{"platform admin is not a member", database.DemoAdminID,
			map[string]interface{}{"team_id": database.DemoTeamID}, false, models.ReasonNotTeamMember},
		{"anonymous", "",
			map[string]interface{}{"team_id": database.DemoTeamID}, false, models.ReasonNotAuthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var token string
			if tt.userID != "" {
				token = env.token(t, tt.userID)
			}
			rec := env.do(t, http.MethodPost, "/api/v1/access/team", token, tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			var got models.AccessCheckResponse
			decodeEnvelope(t, rec, &got)
			if got.Allowed != tt.wantAllow || got.DeniedReason != tt.wantReason {
				t.Errorf("result = %+v, want allowed=%v reason=%q", got.SecurityCheckResult, tt.wantAllow, tt.wantReason)
			}
			if !tt.wantAllow && (got.Message == "" || got.RedirectTo == "") {
				t.Errorf("denial missing message or redirect: %+v", got)
			}
		})
	}
}

func TestAccessTeam_DenialIsAudited(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/access/team", env.token(t, database.DemoAdminID),
		map[string]interface{}{"team_id": database.DemoTeamID})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	waitFor(t, func() bool { return env.auditStore.Len() > 0 }, "team denial not audited")
	events, err := env.auditStore.Query(context.Background(), audit.QueryFilter{Actions: []string{audit.ActionTeamCheck}})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("team events = %d, want 1", len(events))
	}
	ev := events[0]
	if ev.Actor() != database.DemoAdminID || ev.ResourceType != "teams" || ev.ResourceID != database.DemoTeamID {
		t.Errorf("event = %+v", ev)
	}
	if ev.Reason != models.ReasonNotTeamMember {
		t.Errorf("reason = %q", ev.Reason)
	}
}

func TestAccessTeam_Validation(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, database.DemoOwnerID)

	for name, body := range map[string]interface{}{
		"missing team":   map[string]interface{}{},
		"unknown role":   map[string]interface{}{"team_id": database.DemoTeamID, "required_team_roles": []string{"janitor"}},
		"not an object":  "[1, 2]",
		"team id length": map[string]interface{}{"team_id": strings.Repeat("t", 129)},
	} {
		t.Run(name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/access/team", token, body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestAccessRefresh(t *testing.T) {
	t.Run("bearer tokens cannot be refreshed", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/api/v1/access/refresh", env.token(t, database.DemoOwnerID), nil)
		if rec.Code != http.StatusNotImplemented {
			t.Errorf("status = %d, want 501", rec.Code)
		}
	})

	t.Run("no session", func(t *testing.T) {
		env := newTestEnv(t, withSessionProvider(t))
		rec := env.do(t, http.MethodPost, "/api/v1/access/refresh", "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		env := newTestEnv(t, withSessionProvider(t))
		rec := env.do(t, http.MethodPost, "/api/v1/access/refresh", "no-such-session", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("session cookie is extended", func(t *testing.T) {
		env := newTestEnv(t, withSessionProvider(t))
		session, err := env.sessions.SignIn(context.Background(), &models.Identity{
			ID: database.DemoOwnerID, Email: "owner@example.com", EmailVerified: true,
		})
		if err != nil {
			t.Fatalf("SignIn() error = %v", err)
		}

		rec := env.do(t, http.MethodPost, "/api/v1/access/refresh", "", nil,
			"Cookie", "gatehouse_session="+session.AccessToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var state models.AccessState
		decodeEnvelope(t, rec, &state)
		if !state.IsAuthenticated || state.User == nil || state.User.ID != database.DemoOwnerID {
			t.Errorf("state = %+v", state)
		}
		if cookie := rec.Header().Get("Set-Cookie"); !strings.Contains(cookie, "gatehouse_session="+session.AccessToken) {
			t.Errorf("Set-Cookie = %q", cookie)
		}
	})
}
