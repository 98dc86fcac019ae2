// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/gatehouse/internal/logging"
	"github.com/tomtom215/gatehouse/internal/models"
)

const sessionProviderName = "session"

// SessionProviderConfig holds configuration for the SessionProvider.
type SessionProviderConfig struct {
	// SessionTTL is the lifetime of new and refreshed sessions.
	SessionTTL time.Duration

	// SlidingSession extends the expiry on every successful lookup.
	SlidingSession bool
}

// DefaultSessionProviderConfig returns sensible defaults.
func DefaultSessionProviderConfig() *SessionProviderConfig {
	return &SessionProviderConfig{
		SessionTTL:     24 * time.Hour,
		SlidingSession: false,
	}
}

// SessionProvider is an IdentityProvider backed by opaque session tokens.
type SessionProvider struct {
	store     SessionStore
	config    *SessionProviderConfig
	listeners *Listeners
}

// NewSessionProvider creates a SessionProvider on store.
func NewSessionProvider(store SessionStore, config *SessionProviderConfig) *SessionProvider {
	if config == nil {
		config = DefaultSessionProviderConfig()
	}
	return &SessionProvider{
		store:     store,
		config:    config,
		listeners: NewListeners(),
	}
}

// GetSession resolves the context's token. It returns (nil, nil) for a
// missing, unknown or expired token.
func (p *SessionProvider) GetSession(ctx context.Context) (*models.Session, error) {
	token := TokenFromContext(ctx)
	if token == "" {
		return nil, nil
	}

	session, err := p.store.Get(ctx, token)
	if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrSessionExpired) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session lookup: %w", err)
	}

	if p.config.SlidingSession {
		newExpiry := time.Now().Add(p.config.SessionTTL)
		if err := p.store.Touch(ctx, token, newExpiry); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to touch session")
		} else {
			session.ExpiresAt = newExpiry
		}
	}
	return session.ToModel(), nil
}

// GetUser returns the identity of the context's session.
func (p *SessionProvider) GetUser(ctx context.Context) (*models.Identity, error) {
	session, err := p.GetSession(ctx)
	if err != nil || session == nil {
		return nil, err
	}
	return session.User, nil
}

// OnAuthStateChange registers fn for session transitions.
func (p *SessionProvider) OnAuthStateChange(fn func(AuthChange)) func() {
	return p.listeners.Add(fn)
}

// SignIn creates a session for identity and notifies subscribers.
func (p *SessionProvider) SignIn(ctx context.Context, identity *models.Identity) (*models.Session, error) {
	if identity == nil || identity.ID == "" {
		return nil, errors.New("identity with an id is required")
	}
	session := NewSession(identity, sessionProviderName, p.config.SessionTTL)
	if err := p.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	out := session.ToModel()
	p.emit(EventSignedIn, out)
	return out, nil
}

// Refresh extends the context's session and notifies subscribers.
func (p *SessionProvider) Refresh(ctx context.Context) (*models.Session, error) {
	token := TokenFromContext(ctx)
	if token == "" {
		return nil, ErrNoCredentials
	}
	if err := p.store.Touch(ctx, token, time.Now().Add(p.config.SessionTTL)); err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	session, err := p.store.Get(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	out := session.ToModel()
	p.emit(EventTokenRefreshed, out)
	return out, nil
}

// SignOut deletes the context's session and notifies subscribers.
func (p *SessionProvider) SignOut(ctx context.Context) error {
	token := TokenFromContext(ctx)
	if token == "" {
		return ErrNoCredentials
	}
	if err := p.store.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	p.emit(EventSignedOut, nil)
	return nil
}

func (p *SessionProvider) emit(event AuthEvent, session *models.Session) {
	RecordSessionEvent(sessionProviderName, event)
	p.listeners.Notify(AuthChange{Event: event, Session: session})
}

// CleanupService periodically removes expired sessions. It implements
// suture.Service.
type CleanupService struct {
	store    SessionStore
	interval time.Duration
}

// NewCleanupService creates a cleanup service for store.
func NewCleanupService(store SessionStore, interval time.Duration) *CleanupService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &CleanupService{store: store, interval: interval}
}

// Serve runs until ctx is canceled.
func (s *CleanupService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := s.store.CleanupExpired(ctx)
			if err != nil {
				logging.Warn().Err(err).Msg("Session cleanup failed")
				continue
			}
			if n > 0 {
				logging.Debug().Int("removed", n).Msg("Expired sessions removed")
			}
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (s *CleanupService) String() string {
	return "session-cleanup"
}
