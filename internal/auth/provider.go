// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package auth

import (
	"context"
	"errors"

	"github.com/tomtom215/gatehouse/internal/models"
)

var (
	// ErrNoCredentials is returned when a sign-out is attempted without a token.
	ErrNoCredentials = errors.New("no credentials in context")

	// ErrInvalidToken is returned for tokens that fail validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrRefreshNotSupported is returned when the provider cannot extend a
	// credential, such as a bearer token minted elsewhere.
	ErrRefreshNotSupported = errors.New("credential refresh not supported")
)

// AuthEvent names a session transition.
type AuthEvent string

const (
	EventSignedIn       AuthEvent = "signed_in"
	EventSignedOut      AuthEvent = "signed_out"
	EventTokenRefreshed AuthEvent = "token_refreshed"
	EventUserUpdated    AuthEvent = "user_updated"
)

// AuthChange is delivered to provider subscribers on every transition.
// Session is nil for EventSignedOut.
type AuthChange struct {
	Event   AuthEvent
	Session *models.Session
}

// IdentityProvider is the leaf dependency of the authentication layer.
//
// GetSession and GetUser return (nil, nil) when the context carries no
// credential, and an error when the credential cannot be resolved.
type IdentityProvider interface {
	GetSession(ctx context.Context) (*models.Session, error)
	GetUser(ctx context.Context) (*models.Identity, error)
	OnAuthStateChange(fn func(AuthChange)) (unsubscribe func())
	SignOut(ctx context.Context) error
}

// Refresher is implemented by providers that can extend the caller's
// credential. A successful refresh emits EventTokenRefreshed.
type Refresher interface {
	Refresh(ctx context.Context) (*models.Session, error)
}

// ProfileProvider reads the profile row holding the onboarding flag.
// It returns (nil, nil) when no row exists.
type ProfileProvider interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
}
