// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/gatehouse/internal/models"
)

const testJWTSecret = "test-secret-that-is-at-least-32-characters-long"

func newTestJWTProvider(t *testing.T) *JWTProvider {
	t.Helper()
	p, err := NewJWTProvider(JWTProviderConfig{
		Secret:   testJWTSecret,
		Issuer:   "https://auth.example.com",
		Audience: "authenticated",
		TokenTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTProvider() error = %v", err)
	}
	return p
}

func TestNewJWTProvider_ShortSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewJWTProvider(JWTProviderConfig{Secret: "short"}); err == nil {
		t.Error("expected error for short secret")
	}
}

func TestJWTProvider_RoundTrip(t *testing.T) {
	t.Parallel()

	p := newTestJWTProvider(t)
	token, err := p.GenerateToken(verifiedUser("u1"))
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	session, err := p.GetSession(WithToken(context.Background(), token))
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if session.User.ID != "u1" || !session.User.EmailVerified || session.User.Email != "u1@example.com" {
		t.Errorf("unexpected user %+v", session.User)
	}
	if !session.IsValid() {
		t.Error("expected valid session")
	}
}

func TestJWTProvider_UnverifiedEmail(t *testing.T) {
	t.Parallel()

	p := newTestJWTProvider(t)
	token, _ := p.GenerateToken(&models.Identity{ID: "u1", Email: "u1@example.com"})
	user, err := p.GetUser(WithToken(context.Background(), token))
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if user.EmailVerified || user.EmailConfirmedAt != nil {
		t.Errorf("expected unverified email, got %+v", user)
	}
}

func TestJWTProvider_RejectsBadTokens(t *testing.T) {
	t.Parallel()

	p := newTestJWTProvider(t)
	now := time.Now()

	sign := func(method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	base := func() jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Subject:   "u1",
			Issuer:    "https://auth.example.com",
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}
	}

	expired := base()
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Hour))
	wrongIssuer := base()
	wrongIssuer.Issuer = "https://evil.example.com"
	noSubject := base()
	noSubject.Subject = ""
	noExpiry := base()
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.jwt"},
		{"wrong secret", sign(jwt.SigningMethodHS256, []byte("another-secret-that-is-long-enough-xx"), &Claims{RegisteredClaims: base()})},
		{"alg none", sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, &Claims{RegisteredClaims: base()})},
		{"HS512", sign(jwt.SigningMethodHS512, []byte(testJWTSecret), &Claims{RegisteredClaims: base()})},
		{"expired", sign(jwt.SigningMethodHS256, []byte(testJWTSecret), &Claims{RegisteredClaims: expired})},
		{"wrong issuer", sign(jwt.SigningMethodHS256, []byte(testJWTSecret), &Claims{RegisteredClaims: wrongIssuer})},
		{"no subject", sign(jwt.SigningMethodHS256, []byte(testJWTSecret), &Claims{RegisteredClaims: noSubject})},
		{"no expiry", sign(jwt.SigningMethodHS256, []byte(testJWTSecret), &Claims{RegisteredClaims: noExpiry})},
	}

	for _, tt := range tests {
		_, err := p.GetSession(WithToken(context.Background(), tt.token))
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: error = %v, want ErrInvalidToken", tt.name, err)
		}
	}
}

func TestJWTProvider_SignOutRevokes(t *testing.T) {
	t.Parallel()

	p := newTestJWTProvider(t)
	token, _ := p.GenerateToken(verifiedUser("u1"))
	ctx := WithToken(context.Background(), token)

	var signedOut bool
	stop := p.OnAuthStateChange(func(c AuthChange) { signedOut = c.Event == EventSignedOut })
	defer stop()

	if err := p.SignOut(ctx); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}
	if !signedOut {
		t.Error("expected signed_out notification")
	}
	if _, err := p.GetSession(ctx); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected revoked token to be rejected, got %v", err)
	}
}

func TestJWTProvider_AuthenticatorFailsClosedOnBadToken(t *testing.T) {
	t.Parallel()

	a := NewAuthenticator(newTestJWTProvider(t), nil)
	res := a.CheckAuthentication(WithToken(context.Background(), "tampered"), AuthOptions{RequireAuth: true})
	if res.Allowed || res.DeniedReason != models.ReasonNotAuthenticated {
		t.Errorf("expected not_authenticated, got %+v", res)
	}
}
