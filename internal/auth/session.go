// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/gatehouse/internal/models"
)

// Session-related errors
var (
	// ErrSessionNotFound is returned when a session is not found in the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned when trying to access an expired session.
	ErrSessionExpired = errors.New("session expired")
)

// Session is a stored opaque-token session.
type Session struct {
	// ID is the opaque session token.
	ID string `json:"id"`

	// UserID is the identity provider's user id.
	UserID string `json:"user_id"`

	// Email is the user's email address.
	Email string `json:"email,omitempty"`

	// EmailConfirmedAt is when the email was confirmed, nil if never.
	EmailConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`

	// Provider names the provider that created the session.
	Provider string `json:"provider"`

	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`

	// Metadata holds provider-specific data.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return !time.Now().Before(s.ExpiresAt)
}

// ToModel converts the stored session to the layer-facing model.
func (s *Session) ToModel() *models.Session {
	var meta map[string]interface{}
	if len(s.Metadata) > 0 {
		meta = make(map[string]interface{}, len(s.Metadata))
		for k, v := range s.Metadata {
			meta[k] = v
		}
	}
	return &models.Session{
		AccessToken: s.ID,
		ExpiresAt:   s.ExpiresAt,
		Provider:    s.Provider,
		User: &models.Identity{
			ID:               s.UserID,
			Email:            s.Email,
			EmailVerified:    s.EmailConfirmedAt != nil,
			EmailConfirmedAt: s.EmailConfirmedAt,
			Metadata:         meta,
		},
	}
}

// NewSession creates a session for identity with the given lifetime.
func NewSession(identity *models.Identity, provider string, duration time.Duration) *Session {
	now := time.Now()
	s := &Session{
		ID:             generateSessionID(),
		UserID:         identity.ID,
		Email:          identity.Email,
		Provider:       provider,
		CreatedAt:      now,
		ExpiresAt:      now.Add(duration),
		LastAccessedAt: now,
	}
	if identity.EmailConfirmedAt != nil {
		t := *identity.EmailConfirmedAt
		s.EmailConfirmedAt = &t
	} else if identity.EmailVerified {
		s.EmailConfirmedAt = &now
	}
	return s
}

// generateSessionID generates a cryptographically secure session ID.
func generateSessionID() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand does not fail on supported platforms
		panic("auth: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// SessionStore defines the interface for session storage backends.
type SessionStore interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// Get retrieves a session by ID.
	// Returns ErrSessionNotFound if not found.
	// Returns ErrSessionExpired if the session exists but is expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes a session by ID. Missing sessions are not an error.
	Delete(ctx context.Context, id string) error

	// DeleteByUserID removes all sessions for a user and returns the count.
	DeleteByUserID(ctx context.Context, userID string) (int, error)

	// Touch updates the last accessed time and sets a new expiry.
	Touch(ctx context.Context, id string, newExpiry time.Time) error

	// CleanupExpired removes all expired sessions and returns the count.
	CleanupExpired(ctx context.Context) (int, error)
}

// MemorySessionStore is an in-memory implementation of SessionStore.
// Suitable for development and testing. For production, use BadgerSessionStore.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*Session),
	}
}

// Create stores a new session.
func (s *MemorySessionStore) Create(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = copySession(session)
	return nil
}

// Get retrieves a session by ID.
func (s *MemorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}
	return copySession(session), nil
}

// Delete removes a session by ID.
func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// DeleteByUserID removes all sessions for a user.
func (s *MemorySessionStore) DeleteByUserID(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, id)
			count++
		}
	}
	return count, nil
}

// Touch updates the session's last accessed time and extends expiry.
func (s *MemorySessionStore) Touch(_ context.Context, id string, newExpiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	session.LastAccessedAt = time.Now()
	session.ExpiresAt = newExpiry
	return nil
}

// CleanupExpired removes all expired sessions.
func (s *MemorySessionStore) CleanupExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, session := range s.sessions {
		if session.IsExpired() {
			delete(s.sessions, id)
			count++
		}
	}
	return count, nil
}

func copySession(session *Session) *Session {
	copied := *session
	if session.EmailConfirmedAt != nil {
		t := *session.EmailConfirmedAt
		copied.EmailConfirmedAt = &t
	}
	if session.Metadata != nil {
		copied.Metadata = make(map[string]string, len(session.Metadata))
		for k, v := range session.Metadata {
			copied.Metadata[k] = v
		}
	}
	return &copied
}
