// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package auth

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/gatehouse/internal/logging"
	"github.com/tomtom215/gatehouse/internal/models"
)

// AuthOptions are the authentication requirements of a protected surface.
type AuthOptions struct {
	RequireAuth               bool
	RequireEmailVerified      bool
	RequireOnboardingComplete bool
}

// AuthState is the resolved state handed to OnAuthStateChange callbacks.
// IsLoading is always false once delivered.
type AuthState struct {
	Event           AuthEvent        `json:"event"`
	User            *models.Identity `json:"user"`
	Session         *models.Session  `json:"session,omitempty"`
	IsLoading       bool             `json:"is_loading"`
	IsAuthenticated bool             `json:"is_authenticated"`
}

// Outcome is the authentication result together with the resolved caller.
// User is nil when no valid session exists.
type Outcome struct {
	Result  models.SecurityCheckResult
	User    *models.Identity
	Session *models.Session
}

// Authenticator is the authentication layer.
type Authenticator struct {
	provider IdentityProvider
	profiles ProfileProvider
	now      func() time.Time
}

// NewAuthenticator creates an Authenticator. profiles may be nil, in which
// case RequireOnboardingComplete always fails.
func NewAuthenticator(provider IdentityProvider, profiles ProfileProvider) *Authenticator {
	return &Authenticator{
		provider: provider,
		profiles: profiles,
		now:      time.Now,
	}
}

// currentSession returns the caller's valid session or nil. Provider errors
// are logged and treated as no session.
func (a *Authenticator) currentSession(ctx context.Context) *models.Session {
	if a.provider == nil {
		return nil
	}
	session, err := a.provider.GetSession(ctx)
	if err != nil {
		RecordProviderError()
		logging.Ctx(ctx).Debug().
			Str("error", logging.RedactError(err)).
			Msg("Session lookup failed, treating as anonymous")
		return nil
	}
	if !session.IsValidAt(a.now()) {
		return nil
	}
	return session
}

// GetCurrentUser returns the caller's identity, or nil on any error.
func (a *Authenticator) GetCurrentUser(ctx context.Context) *models.Identity {
	if s := a.currentSession(ctx); s != nil {
		return s.User
	}
	return nil
}

// IsSessionValid reports whether the provider holds an unexpired session
// for a non-nil user.
func (a *Authenticator) IsSessionValid(ctx context.Context) bool {
	return a.currentSession(ctx) != nil
}

// CheckAuthentication evaluates opts against the caller.
func (a *Authenticator) CheckAuthentication(ctx context.Context, opts AuthOptions) models.SecurityCheckResult {
	return a.Authenticate(ctx, opts).Result
}

// Authenticate is CheckAuthentication that also returns the resolved caller
// for the layers that run after it.
func (a *Authenticator) Authenticate(ctx context.Context, opts AuthOptions) Outcome {
	start := time.Now()
	out := a.authenticate(ctx, opts)
	RecordAuthCheck(out.Result, time.Since(start))
	return out
}

func (a *Authenticator) authenticate(ctx context.Context, opts AuthOptions) Outcome {
	session := a.currentSession(ctx)
	out := Outcome{Session: session}
	if session != nil {
		out.User = session.User
	}

	needsUser := opts.RequireAuth || opts.RequireEmailVerified || opts.RequireOnboardingComplete
	if needsUser && out.User == nil {
		out.Result = models.Deny(models.LayerAuthentication, models.ReasonNotAuthenticated,
			"no valid session")
		return out
	}

	if opts.RequireEmailVerified && !emailVerified(out.User) {
		out.Result = models.Deny(models.LayerAuthentication, models.ReasonEmailNotVerified,
			"email address not confirmed")
		return out
	}

	if opts.RequireOnboardingComplete && !a.onboardingComplete(ctx, out.User.ID) {
		out.Result = models.Deny(models.LayerAuthentication, models.ReasonOnboardingIncomplete,
			"onboarding not completed")
		return out
	}

	out.Result = models.Allow()
	return out
}

func emailVerified(user *models.Identity) bool {
	return user.EmailVerified || user.EmailConfirmedAt != nil
}

// onboardingComplete reads the profile flag. Lookup failures count as
// incomplete.
func (a *Authenticator) onboardingComplete(ctx context.Context, userID string) bool {
	if a.profiles == nil {
		return false
	}
	profile, err := a.profiles.GetProfile(ctx, userID)
	if err != nil {
		RecordProviderError()
		logging.Ctx(ctx).Warn().
			Str("user_id", logging.RedactUserID(userID)).
			Str("error", logging.RedactError(err)).
			Msg("Profile lookup failed, treating onboarding as incomplete")
		return false
	}
	return profile != nil && profile.OnboardingCompleted
}

// OnAuthStateChange subscribes fn to provider transitions. fn receives a
// settled state on every transition. The returned disposer is idempotent.
func (a *Authenticator) OnAuthStateChange(fn func(AuthState)) func() {
	if a.provider == nil {
		return func() {}
	}

	var (
		mu       sync.Mutex
		disposed bool
	)
	unsubscribe := a.provider.OnAuthStateChange(func(change AuthChange) {
		mu.Lock()
		stopped := disposed
		mu.Unlock()
		if stopped {
			return
		}
		fn(a.stateFor(change))
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			mu.Lock()
			disposed = true
			mu.Unlock()
			if unsubscribe != nil {
				unsubscribe()
			}
		})
	}
}

func (a *Authenticator) stateFor(change AuthChange) AuthState {
	state := AuthState{Event: change.Event}
	if change.Event == EventSignedOut {
		return state
	}
	if change.Session.IsValidAt(a.now()) {
		state.Session = change.Session
		state.User = change.Session.User
		state.IsAuthenticated = true
	}
	return state
}

// CurrentState returns the caller's settled AuthState.
func (a *Authenticator) CurrentState(ctx context.Context) AuthState {
	session := a.currentSession(ctx)
	if session == nil {
		return AuthState{}
	}
	return AuthState{User: session.User, Session: session, IsAuthenticated: true}
}

// SignOut ends the caller's session at the provider.
func (a *Authenticator) SignOut(ctx context.Context) error {
	if a.provider == nil {
		return ErrNoCredentials
	}
	return a.provider.SignOut(ctx)
}

// Refresh extends the caller's session when the provider supports it.
func (a *Authenticator) Refresh(ctx context.Context) (*models.Session, error) {
	refresher, ok := a.provider.(Refresher)
	if !ok {
		return nil, ErrRefreshNotSupported
	}
	return refresher.Refresh(ctx)
}
