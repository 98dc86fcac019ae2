// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package auth

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/gatehouse/internal/models"
)

// mockIdentityProvider implements IdentityProvider for testing.
type mockIdentityProvider struct {
	mu          sync.Mutex
	session     *models.Session
	getError    error
	calls       int
	listeners   *Listeners
	signOutCall int
}

func newMockIdentityProvider() *mockIdentityProvider {
	return &mockIdentityProvider{listeners: NewListeners()}
}

func (m *mockIdentityProvider) GetSession(_ context.Context) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.getError != nil {
		return nil, m.getError
	}
	return m.session, nil
}

func (m *mockIdentityProvider) GetUser(ctx context.Context) (*models.Identity, error) {
	s, err := m.GetSession(ctx)
	if err != nil || s == nil {
		return nil, err
	}
	return s.User, nil
}

func (m *mockIdentityProvider) OnAuthStateChange(fn func(AuthChange)) func() {
	return m.listeners.Add(fn)
}

func (m *mockIdentityProvider) SignOut(_ context.Context) error {
	m.mu.Lock()
	m.signOutCall++
	m.session = nil
	m.mu.Unlock()
	m.listeners.Notify(AuthChange{Event: EventSignedOut})
	return nil
}

func (m *mockIdentityProvider) setUser(user *models.Identity, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &models.Session{
		AccessToken: "tok",
		User:        user,
		ExpiresAt:   time.Now().Add(ttl),
		Provider:    "mock",
	}
}

// mockProfileProvider implements ProfileProvider for testing.
type mockProfileProvider struct {
	mu       sync.Mutex
	profiles map[string]*models.Profile
	getError error
}

func newMockProfileProvider() *mockProfileProvider {
	return &mockProfileProvider{profiles: make(map[string]*models.Profile)}
}

func (m *mockProfileProvider) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return nil, m.getError
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockProfileProvider) setOnboarded(userID string, done bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[userID] = &models.Profile{UserID: userID, OnboardingCompleted: done}
}

func verifiedUser(id string) *models.Identity {
	now := time.Now()
	return &models.Identity{ID: id, Email: id + "@example.com", EmailVerified: true, EmailConfirmedAt: &now}
}
