// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/gatehouse/internal/models"
)

const jwtProviderName = "jwt"

// minJWTSecretLength is the shortest HS256 secret accepted.
const minJWTSecretLength = 32

// Claims are the access token claims issued by the hosted auth platform.
type Claims struct {
	Email            string           `json:"email,omitempty"`
	EmailConfirmedAt *jwt.NumericDate `json:"email_confirmed_at,omitempty"`
	jwt.RegisteredClaims
}

// JWTProviderConfig holds configuration for the JWTProvider.
type JWTProviderConfig struct {
	// Secret is the HS256 signing secret shared with the platform.
	Secret string

	// Issuer, when set, must match the iss claim.
	Issuer string

	// Audience, when set, must appear in the aud claim.
	Audience string

	// Leeway tolerates clock skew on exp and nbf.
	Leeway time.Duration

	// TokenTTL is the lifetime of tokens minted by GenerateToken.
	TokenTTL time.Duration
}

// JWTProvider is an IdentityProvider for stateless HS256 access tokens.
// SignOut revokes the token until its natural expiry.
type JWTProvider struct {
	secret    []byte
	config    JWTProviderConfig
	parser    *jwt.Parser
	listeners *Listeners

	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewJWTProvider creates a JWTProvider.
func NewJWTProvider(cfg JWTProviderConfig) (*JWTProvider, error) {
	if len(cfg.Secret) < minJWTSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", minJWTSecretLength)
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &JWTProvider{
		secret:    []byte(cfg.Secret),
		config:    cfg,
		parser:    jwt.NewParser(opts...),
		listeners: NewListeners(),
		revoked:   make(map[string]time.Time),
	}, nil
}

// GenerateToken mints a token for identity. Used by the dev sign-in endpoint
// and tests; production tokens come from the platform.
func (p *JWTProvider) GenerateToken(identity *models.Identity) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			Issuer:    p.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.config.TokenTTL)),
		},
	}
	if p.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{p.config.Audience}
	}
	if identity.EmailConfirmedAt != nil {
		claims.EmailConfirmedAt = jwt.NewNumericDate(*identity.EmailConfirmedAt)
	} else if identity.EmailVerified {
		claims.EmailConfirmedAt = jwt.NewNumericDate(now)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token.
func (p *JWTProvider) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := p.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	if p.isRevoked(tokenString) {
		return nil, fmt.Errorf("%w: revoked", ErrInvalidToken)
	}
	return claims, nil
}

// GetSession validates the context's token. A missing token yields (nil, nil).
func (p *JWTProvider) GetSession(ctx context.Context) (*models.Session, error) {
	token := TokenFromContext(ctx)
	if token == "" {
		return nil, nil
	}
	claims, err := p.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return claimsToSession(token, claims), nil
}

// GetUser returns the identity of the context's token.
func (p *JWTProvider) GetUser(ctx context.Context) (*models.Identity, error) {
	session, err := p.GetSession(ctx)
	if err != nil || session == nil {
		return nil, err
	}
	return session.User, nil
}

// OnAuthStateChange registers fn for sign-out transitions.
func (p *JWTProvider) OnAuthStateChange(fn func(AuthChange)) func() {
	return p.listeners.Add(fn)
}

// SignOut revokes the context's token.
func (p *JWTProvider) SignOut(ctx context.Context) error {
	token := TokenFromContext(ctx)
	if token == "" {
		return ErrNoCredentials
	}
	claims, err := p.ValidateToken(token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return nil
		}
		return err
	}

	p.mu.Lock()
	now := time.Now()
	for k, exp := range p.revoked {
		if now.After(exp) {
			delete(p.revoked, k)
		}
	}
	p.revoked[tokenDigest(token)] = claims.ExpiresAt.Time
	p.mu.Unlock()

	RecordSessionEvent(jwtProviderName, EventSignedOut)
	p.listeners.Notify(AuthChange{Event: EventSignedOut})
	return nil
}

func (p *JWTProvider) isRevoked(token string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.revoked[tokenDigest(token)]
	return ok
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func claimsToSession(token string, claims *Claims) *models.Session {
	user := &models.Identity{
		ID:    claims.Subject,
		Email: claims.Email,
	}
	if claims.EmailConfirmedAt != nil {
		t := claims.EmailConfirmedAt.Time
		user.EmailConfirmedAt = &t
		user.EmailVerified = true
	}
	return &models.Session{
		AccessToken: token,
		User:        user,
		ExpiresAt:   claims.ExpiresAt.Time,
		Provider:    jwtProviderName,
	}
}
