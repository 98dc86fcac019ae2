// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/gatehouse/internal/audit"
	"github.com/tomtom215/gatehouse/internal/auth"
	"github.com/tomtom215/gatehouse/internal/authz"
	"github.com/tomtom215/gatehouse/internal/database"
	"github.com/tomtom215/gatehouse/internal/logging"
	"github.com/tomtom215/gatehouse/internal/models"
	"github.com/tomtom215/gatehouse/internal/ownership"
	"github.com/tomtom215/gatehouse/internal/security"
	ws "github.com/tomtom215/gatehouse/internal/websocket"
)

const testSecret = "api-test-secret-that-is-at-least-32-chars"

func init() {
	logging.Init(logging.Config{Level: "error", Format: "json", Output: io.Discard})
}

// testEnv is the full access stack over seeded in-memory data.
type testEnv struct {
	router     http.Handler
	jwt        *auth.JWTProvider
	hub        *ws.Hub
	db         *database.Memory
	auditStore *audit.MemoryStore
	sessions   *auth.SessionProvider
}

type envOption func(*testEnv, *HandlerDeps, *ChiMiddlewareConfig)

func withHealthCheck(name string, err error) envOption {
	return func(_ *testEnv, d *HandlerDeps, _ *ChiMiddlewareConfig) {
		d.HealthChecks = append(d.HealthChecks, HealthCheck{
			Name: name,
			Ping: func(context.Context) error { return err },
		})
	}
}

func withDevSignIn() envOption {
	return func(e *testEnv, d *HandlerDeps, _ *ChiMiddlewareConfig) {
		d.DevSignIn = func(_ context.Context, identity *models.Identity) (string, error) {
			if identity.ID == "broken" {
				return "", errors.New("provider down")
			}
			return e.jwt.GenerateToken(identity)
		}
	}
}

func withAuditReader(reader AuditReader) envOption {
	return func(_ *testEnv, d *HandlerDeps, _ *ChiMiddlewareConfig) {
		d.AuditReader = reader
	}
}

// withSessionProvider serves the handler from server-side sessions instead of
// bearer tokens. The guard pipeline still uses the JWT provider.
func withSessionProvider(t *testing.T) envOption {
	return func(e *testEnv, d *HandlerDeps, _ *ChiMiddlewareConfig) {
		e.sessions = auth.NewSessionProvider(auth.NewMemorySessionStore(), &auth.SessionProviderConfig{SessionTTL: time.Hour})
		t.Cleanup(e.hub.Attach(e.sessions))
		d.Authenticator = auth.NewAuthenticator(e.sessions, e.db)
	}
}

func withRateLimit(requests int) envOption {
	return func(_ *testEnv, _ *HandlerDeps, c *ChiMiddlewareConfig) {
		c.RateLimitDisabled = false
		c.RateLimitRequests = requests
		c.RateLimitWindow = time.Minute
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	db := database.NewMemory()
	if err := database.SeedDemo(db); err != nil {
		t.Fatalf("SeedDemo() error = %v", err)
	}

	jwtProvider, err := auth.NewJWTProvider(auth.JWTProviderConfig{Secret: testSecret, TokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("NewJWTProvider() error = %v", err)
	}
	authn := auth.NewAuthenticator(jwtProvider, db)

	enforcer, err := authz.NewEnforcer(nil)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	t.Cleanup(enforcer.Close)
	authorizer := authz.NewAuthorizer(enforcer, db, &authz.AuthorizerConfig{})
	t.Cleanup(authorizer.Close)

	checker := ownership.NewChecker(db, db, nil)

	store := audit.NewMemoryStore(100)
	auditLog := audit.NewLogger(store, &audit.Config{
		Enabled:    true,
		LogLevel:   audit.SeverityInfo,
		BufferSize: 100,
	})
	t.Cleanup(func() { _ = auditLog.Close() })

	pipeline := security.NewPipeline(authn, authorizer, checker, auditLog, nil)
	guard := security.NewGuard(pipeline, &security.GuardConfig{
		FlashCookieName:  "flash",
		FallbackRedirect: security.PathDashboard,
		APIPrefix:        "/api/",
	})

	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.Serve(ctx)
	}()
	detach := hub.Attach(jwtProvider)
	t.Cleanup(func() {
		detach()
		cancel()
		<-done
	})

	credentials := auth.DefaultCredentialsConfig()
	credentials.CookieSecure = false

	deps := HandlerDeps{
		Authenticator: authn,
		Authorizer:    authorizer,
		Ownership:     checker,
		Pipeline:      pipeline,
		Profiles:      db,
		Hub:           hub,
		Audit:         auditLog,
		AuditReader:   auditLog,
		Credentials:   credentials,
	}
	mwConfig := DefaultChiMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = []string{"https://app.example.com"}
	mwConfig.RateLimitDisabled = true

	env := &testEnv{jwt: jwtProvider, hub: hub, db: db, auditStore: store}
	for _, opt := range opts {
		opt(env, &deps, mwConfig)
	}

	chiMW := NewChiMiddleware(mwConfig)
	deps.AllowOrigin = chiMW.AllowsOrigin
	handler := NewHandler(deps)
	env.router = NewRouter(handler, chiMW, guard, credentials).Setup()
	return env
}

// token mints a bearer token for a seeded demo user.
func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := e.jwt.GenerateToken(&models.Identity{
		ID:            userID,
		Email:         userID + "@example.com",
		EmailVerified: true,
	})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			if err != nil {
				t.Fatalf("marshal body: %v", err)
			}
			reader = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// envelope is models.APIResponse with a raw data payload.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Error    *models.APIError `json:"error"`
	Metadata models.Metadata  `json:"metadata"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("decode data %s: %v", env.Data, err)
		}
	}
	return env
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}
